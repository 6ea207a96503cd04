package httpapi

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/components/listing/commands"
	"github.com/rensights/admin-dashboard/components/listing/queries"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// ErrUnsupported is returned by an executor that has no command for the
// requested operation.
var ErrUnsupported = errors.New("httpapi: operation not supported")

// Executor runs list operations for one resource. It is not generic so a
// router can mount many resources side by side.
type Executor interface {
	Resource() string
	Page(ctx context.Context, input queries.PageInput) (any, error)
	Detail(ctx context.Context, input queries.DetailInput) (any, error)
	Update(ctx context.Context, input commands.MutateRecordInput) error
	Action(ctx context.Context, input commands.RecordActionInput) error
	Delete(ctx context.Context, input commands.DeleteRecordInput) error
}

// CommandExecutor adapts typed queries and commands to Executor. Nil
// members report ErrUnsupported.
type CommandExecutor[T adminapi.Record] struct {
	Name          string
	PageQuerier   gocommand.Querier[queries.PageInput, listing.State[T]]
	DetailQuerier gocommand.Querier[queries.DetailInput, T]
	UpdateCommand gocommand.Commander[commands.MutateRecordInput]
	ActionCommand gocommand.Commander[commands.RecordActionInput]
	DeleteCommand gocommand.Commander[commands.DeleteRecordInput]
}

var _ Executor = (*CommandExecutor[adminapi.Deal])(nil)

func (e *CommandExecutor[T]) Resource() string {
	return e.Name
}

func (e *CommandExecutor[T]) Page(ctx context.Context, input queries.PageInput) (any, error) {
	if e.PageQuerier == nil {
		return nil, ErrUnsupported
	}
	state, err := e.PageQuerier.Query(ctx, input)
	return state, err
}

func (e *CommandExecutor[T]) Detail(ctx context.Context, input queries.DetailInput) (any, error) {
	if e.DetailQuerier == nil {
		return nil, ErrUnsupported
	}
	record, err := e.DetailQuerier.Query(ctx, input)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (e *CommandExecutor[T]) Update(ctx context.Context, input commands.MutateRecordInput) error {
	if e.UpdateCommand == nil {
		return ErrUnsupported
	}
	return e.UpdateCommand.Execute(ctx, input)
}

func (e *CommandExecutor[T]) Action(ctx context.Context, input commands.RecordActionInput) error {
	if e.ActionCommand == nil {
		return ErrUnsupported
	}
	return e.ActionCommand.Execute(ctx, input)
}

func (e *CommandExecutor[T]) Delete(ctx context.Context, input commands.DeleteRecordInput) error {
	if e.DeleteCommand == nil {
		return ErrUnsupported
	}
	return e.DeleteCommand.Execute(ctx, input)
}
