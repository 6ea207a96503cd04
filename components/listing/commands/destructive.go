package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// ErrConfirmationRequired is returned when a destructive command arrives
// without the Confirmed flag.
var ErrConfirmationRequired = errors.New("commands: confirmation required")

// Reloader refreshes a list after a destructive change.
type Reloader interface {
	Load(ctx context.Context) error
}

// DeleteRecordInput deletes one record once confirmed.
type DeleteRecordInput struct {
	ID        string
	Confirmed bool
}

type deleter interface {
	Name() string
	Delete(ctx context.Context, id string) error
}

// DeleteRecordCommand removes a record behind a confirmation step.
type DeleteRecordCommand struct {
	resource  deleter
	reloader  Reloader
	telemetry Telemetry
}

// NewDeleteRecordCommand creates the command. reloader may be nil.
func NewDeleteRecordCommand(resource deleter, reloader Reloader, telemetry Telemetry) *DeleteRecordCommand {
	return &DeleteRecordCommand{resource: resource, reloader: reloader, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteRecordInput] = (*DeleteRecordCommand)(nil)

// Execute deletes the record when msg.Confirmed is set.
func (c *DeleteRecordCommand) Execute(ctx context.Context, msg DeleteRecordInput) error {
	if c.resource == nil {
		return errors.New("delete command requires a resource")
	}
	prompt := fmt.Sprintf("Delete %s %s?", c.resource.Name(), msg.ID)
	err := runConfirmed(ctx, prompt, msg.Confirmed, func(ctx context.Context) error {
		return c.resource.Delete(ctx, msg.ID)
	})
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "admin.record.delete", map[string]any{
		"resource": c.resource.Name(),
		"id":       msg.ID,
	})
	reload(ctx, c.reloader)
	return nil
}

// DeleteAllInput wipes a resource once confirmed.
type DeleteAllInput struct {
	Confirmed bool
}

type bulkDeleter interface {
	Name() string
	DeleteAll(ctx context.Context) error
}

// DeleteAllCommand removes every record of a resource behind a
// confirmation step.
type DeleteAllCommand struct {
	resource  bulkDeleter
	reloader  Reloader
	telemetry Telemetry
}

// NewDeleteAllCommand creates the command. reloader may be nil.
func NewDeleteAllCommand(resource bulkDeleter, reloader Reloader, telemetry Telemetry) *DeleteAllCommand {
	return &DeleteAllCommand{resource: resource, reloader: reloader, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteAllInput] = (*DeleteAllCommand)(nil)

// Execute wipes the resource when msg.Confirmed is set.
func (c *DeleteAllCommand) Execute(ctx context.Context, msg DeleteAllInput) error {
	if c.resource == nil {
		return errors.New("delete-all command requires a resource")
	}
	prompt := fmt.Sprintf("Delete every record in %s?", c.resource.Name())
	if err := runConfirmed(ctx, prompt, msg.Confirmed, c.resource.DeleteAll); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "admin.record.delete_all", map[string]any{"resource": c.resource.Name()})
	reload(ctx, c.reloader)
	return nil
}

// BatchApproveInput approves the listed deals, or every pending deal when
// IDs is empty.
type BatchApproveInput struct {
	IDs       []string
	Confirmed bool
}

type batchApprover interface {
	BatchApproveDeals(ctx context.Context, ids []string) (adminapi.BatchApproveResult, error)
}

// BatchApproveCommand approves deals in bulk behind a confirmation step.
type BatchApproveCommand struct {
	approver  batchApprover
	reloader  Reloader
	telemetry Telemetry
}

// NewBatchApproveCommand creates the command. reloader may be nil.
func NewBatchApproveCommand(approver batchApprover, reloader Reloader, telemetry Telemetry) *BatchApproveCommand {
	return &BatchApproveCommand{approver: approver, reloader: reloader, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[BatchApproveInput] = (*BatchApproveCommand)(nil)

// Execute approves the deals when msg.Confirmed is set.
func (c *BatchApproveCommand) Execute(ctx context.Context, msg BatchApproveInput) error {
	if c.approver == nil {
		return errors.New("batch approve command requires an approver")
	}
	var result adminapi.BatchApproveResult
	prompt := "Approve every pending deal?"
	if len(msg.IDs) > 0 {
		prompt = fmt.Sprintf("Approve %d deals?", len(msg.IDs))
	}
	err := runConfirmed(ctx, prompt, msg.Confirmed, func(ctx context.Context) error {
		var err error
		result, err = c.approver.BatchApproveDeals(ctx, msg.IDs)
		return err
	})
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "admin.deals.batch_approve", map[string]any{"approved": result.Approved})
	reload(ctx, c.reloader)
	return nil
}

func runConfirmed(ctx context.Context, prompt string, confirmed bool, action listing.ConfirmAction) error {
	confirmation := listing.NewConfirmation(prompt, action)
	if err := confirmation.Request(); err != nil {
		return err
	}
	if !confirmed {
		_ = confirmation.Decline()
		return fmt.Errorf("%w: %s", ErrConfirmationRequired, prompt)
	}
	if err := confirmation.Confirm(); err != nil {
		return err
	}
	return confirmation.Execute(ctx)
}

func reload(ctx context.Context, r Reloader) {
	if r == nil {
		return
	}
	_ = r.Load(ctx)
}
