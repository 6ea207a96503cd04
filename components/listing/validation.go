package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaValidator checks staged changes before they are sent.
type SchemaValidator interface {
	ValidateChanges(resource string, changes map[string]any) error
}

// JSONSchemaValidator compiles per-resource change schemas and validates
// change sets against them.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	schemas  map[string]map[string]any
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5. Pass
// DefaultSchemas() for the built-in admin resources.
func NewJSONSchemaValidator(schemas map[string]map[string]any) *JSONSchemaValidator {
	v := &JSONSchemaValidator{
		schemas:  make(map[string]map[string]any, len(schemas)),
		compiled: make(map[string]*jsonschema.Schema),
	}
	for name, schema := range schemas {
		v.schemas[name] = schema
	}
	return v
}

// Register adds or replaces the schema for resource.
func (v *JSONSchemaValidator) Register(resource string, schema map[string]any) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.schemas[resource] = schema
	delete(v.compiled, resource)
}

// ValidateChanges passes when resource has no schema.
func (v *JSONSchemaValidator) ValidateChanges(resource string, changes map[string]any) error {
	schema, err := v.schemaFor(resource)
	if err != nil || schema == nil {
		return err
	}
	payload := map[string]any{}
	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			return fmt.Errorf("listing: marshal changes for %s: %w", resource, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("listing: normalize changes for %s: %w", resource, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		return fmt.Errorf("listing: changes for %s failed validation: %w", resource, err)
	}
	return nil
}

func (v *JSONSchemaValidator) schemaFor(resource string) (*jsonschema.Schema, error) {
	v.mu.RLock()
	compiled, ok := v.compiled[resource]
	raw, known := v.schemas[resource]
	v.mu.RUnlock()
	if ok {
		return compiled, nil
	}
	if !known || len(raw) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("listing: marshal schema %s: %w", resource, err)
	}
	compiler := jsonschema.NewCompiler()
	name := resource + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("listing: load schema %s: %w", resource, err)
	}
	compiled, err = compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("listing: compile schema %s: %w", resource, err)
	}
	v.mu.Lock()
	v.compiled[resource] = compiled
	v.mu.Unlock()
	return compiled, nil
}

type noopValidator struct{}

func (noopValidator) ValidateChanges(string, map[string]any) error { return nil }
