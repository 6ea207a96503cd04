package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// ErrEditorClosed is returned when editing without an open record.
var ErrEditorClosed = errors.New("listing: editor is not open")

// EditorView is what a detail modal renders.
type EditorView struct {
	Visible      bool           `json:"visible"`
	RecordID     string         `json:"recordId,omitempty"`
	Fields       map[string]any `json:"fields,omitempty"`
	Changes      map[string]any `json:"changes,omitempty"`
	Saving       bool           `json:"saving"`
	ErrorMessage string         `json:"errorMessage,omitempty"`
}

// Editor stages edits to one record and commits them through the
// controller. The list is never patched before the backend confirms.
type Editor[T adminapi.Record] struct {
	mu         sync.Mutex
	controller *Controller[T]
	validator  SchemaValidator
	visible    bool
	saving     bool
	id         string
	original   map[string]any
	buffer     map[string]any
	errMessage string
}

// NewEditor binds an editor to controller. A nil validator accepts every
// change set.
func NewEditor[T adminapi.Record](controller *Controller[T], validator SchemaValidator) *Editor[T] {
	if validator == nil {
		validator = noopValidator{}
	}
	return &Editor[T]{controller: controller, validator: validator}
}

// Open copies record into the edit buffer and shows the editor.
func (e *Editor[T]) Open(record T) error {
	fields, err := toFields(record)
	if err != nil {
		return fmt.Errorf("listing: open editor: %w", err)
	}
	buffer, err := toFields(record)
	if err != nil {
		return fmt.Errorf("listing: open editor: %w", err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.visible = true
	e.saving = false
	e.id = record.RecordID()
	e.original = fields
	e.buffer = buffer
	e.errMessage = ""
	return nil
}

// Set stages a field value.
func (e *Editor[T]) Set(field string, value any) error {
	normalized, err := normalizeValue(value)
	if err != nil {
		return fmt.Errorf("listing: set %s: %w", field, err)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.visible {
		return ErrEditorClosed
	}
	e.buffer[field] = normalized
	return nil
}

// Changes returns the staged fields that differ from the opened record.
func (e *Editor[T]) Changes() map[string]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.changesLocked()
}

// Cancel discards the buffer and hides the editor without any network call.
func (e *Editor[T]) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

// Save validates and commits the staged changes. On success the editor
// closes and the controller has reloaded; on failure, or when nothing was
// changed, it stays open with the error message.
func (e *Editor[T]) Save(ctx context.Context) (T, error) {
	var zero T
	e.mu.Lock()
	if !e.visible {
		e.mu.Unlock()
		return zero, ErrEditorClosed
	}
	if e.saving {
		e.mu.Unlock()
		return zero, errors.New("listing: save already in progress")
	}
	id := e.id
	changes := e.changesLocked()
	if len(changes) == 0 {
		apiErr := &adminapi.APIError{Kind: adminapi.KindValidation, Message: "No changes to save"}
		e.errMessage = apiErr.Message
		e.mu.Unlock()
		return zero, apiErr
	}
	e.saving = true
	e.errMessage = ""
	e.mu.Unlock()

	if err := e.validator.ValidateChanges(e.controller.Name(), changes); err != nil {
		apiErr := &adminapi.APIError{Kind: adminapi.KindValidation, Message: err.Error(), Err: err}
		e.fail(apiErr)
		return zero, apiErr
	}

	updated, err := e.controller.Mutate(ctx, id, changes)
	if err != nil {
		e.fail(err)
		return zero, err
	}

	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
	return updated, nil
}

// View returns the render model.
func (e *Editor[T]) View() EditorView {
	e.mu.Lock()
	defer e.mu.Unlock()
	view := EditorView{
		Visible:      e.visible,
		RecordID:     e.id,
		Saving:       e.saving,
		ErrorMessage: e.errMessage,
	}
	if e.visible {
		view.Fields = copyFields(e.buffer)
		view.Changes = e.changesLocked()
	}
	return view
}

func (e *Editor[T]) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.saving = false
	e.errMessage = adminapi.MessageOf(err)
}

func (e *Editor[T]) changesLocked() map[string]any {
	changes := map[string]any{}
	for key, value := range e.buffer {
		if original, ok := e.original[key]; ok && reflect.DeepEqual(original, value) {
			continue
		}
		changes[key] = value
	}
	return changes
}

func (e *Editor[T]) resetLocked() {
	e.visible = false
	e.saving = false
	e.id = ""
	e.original = nil
	e.buffer = nil
	e.errMessage = ""
}

func toFields(record any) (map[string]any, error) {
	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	fields := map[string]any{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// normalizeValue gives staged values the same shape as decoded JSON so
// 2 and 2.0 compare equal.
func normalizeValue(value any) (any, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func copyFields(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
