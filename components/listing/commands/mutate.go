package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// MutateRecordInput is a partial update of one record.
type MutateRecordInput struct {
	ID      string
	Changes map[string]any
}

type mutator[T adminapi.Record] interface {
	Name() string
	Mutate(ctx context.Context, id string, changes map[string]any) (T, error)
}

// MutateRecordCommand sends changes through a list controller so the list
// reloads after the backend confirms.
type MutateRecordCommand[T adminapi.Record] struct {
	controller mutator[T]
	telemetry  Telemetry
}

// NewMutateRecordCommand creates the command.
func NewMutateRecordCommand[T adminapi.Record](controller mutator[T], telemetry Telemetry) *MutateRecordCommand[T] {
	return &MutateRecordCommand[T]{controller: controller, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[MutateRecordInput] = (*MutateRecordCommand[adminapi.Deal])(nil)

// Execute applies the changes.
func (c *MutateRecordCommand[T]) Execute(ctx context.Context, msg MutateRecordInput) error {
	if c.controller == nil {
		return errors.New("mutate command requires a controller")
	}
	if len(msg.Changes) == 0 {
		return &adminapi.APIError{Kind: adminapi.KindValidation, Message: "No changes to save"}
	}
	if _, err := c.controller.Mutate(ctx, msg.ID, msg.Changes); err != nil {
		return err
	}
	fields := make([]string, 0, len(msg.Changes))
	for key := range msg.Changes {
		fields = append(fields, key)
	}
	c.telemetry.Record(ctx, "admin.record.update", map[string]any{
		"resource": c.controller.Name(),
		"id":       msg.ID,
		"fields":   fields,
	})
	return nil
}

// RecordActionInput names an action such as approve or deactivate.
type RecordActionInput struct {
	ID     string
	Action string
}

type applier[T adminapi.Record] interface {
	Name() string
	Apply(ctx context.Context, id string, op listing.OperationFunc[T]) (T, error)
}

// ActionFunc performs a named action against one record.
type ActionFunc[T any] func(ctx context.Context, id, action string) (T, error)

// RecordActionCommand runs a whitelisted action through a list controller.
type RecordActionCommand[T adminapi.Record] struct {
	controller applier[T]
	action     ActionFunc[T]
	allowed    map[string]struct{}
	telemetry  Telemetry
}

// NewRecordActionCommand creates the command. An empty allowed list accepts
// any action.
func NewRecordActionCommand[T adminapi.Record](controller applier[T], action ActionFunc[T], allowed []string, telemetry Telemetry) *RecordActionCommand[T] {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[strings.ToLower(a)] = struct{}{}
	}
	return &RecordActionCommand[T]{
		controller: controller,
		action:     action,
		allowed:    set,
		telemetry:  normalizeTelemetry(telemetry),
	}
}

var _ gocommand.Commander[RecordActionInput] = (*RecordActionCommand[adminapi.Deal])(nil)

// Execute runs the action.
func (c *RecordActionCommand[T]) Execute(ctx context.Context, msg RecordActionInput) error {
	if c.controller == nil || c.action == nil {
		return errors.New("action command requires a controller and an action func")
	}
	name := strings.ToLower(strings.TrimSpace(msg.Action))
	if len(c.allowed) > 0 {
		if _, ok := c.allowed[name]; !ok {
			return &adminapi.APIError{
				Kind:    adminapi.KindValidation,
				Message: fmt.Sprintf("Action %q is not available for %s", name, c.controller.Name()),
			}
		}
	}
	_, err := c.controller.Apply(ctx, msg.ID, func(ctx context.Context, id string) (T, error) {
		return c.action(ctx, id, name)
	})
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "admin.record.action", map[string]any{
		"resource": c.controller.Name(),
		"id":       msg.ID,
		"action":   name,
	})
	return nil
}

// DefaultActions lists the actions each resource exposes.
func DefaultActions() map[string][]string {
	return map[string][]string{
		adminapi.ResourceUsers:            {"activate", "deactivate"},
		adminapi.ResourceSubscriptions:    {"activate", "deactivate", "cancel"},
		adminapi.ResourceDeals:            {"approve", "reject"},
		adminapi.ResourceAnalysisRequests: {"complete", "cancel"},
		adminapi.ResourceArticles:         {"publish", "unpublish"},
		adminapi.ResourceCityReports:      {"publish", "unpublish"},
		adminapi.ResourceLanguages:        {"activate", "deactivate"},
		adminapi.ResourceLandingContent:   {"publish", "unpublish"},
	}
}
