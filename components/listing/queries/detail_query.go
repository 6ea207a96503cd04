package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// DetailInput identifies the record to open.
type DetailInput struct {
	ID string
}

type detailer[T adminapi.Record] interface {
	ShowDetail(ctx context.Context, id string) (T, error)
}

// DetailQuery opens the detail view for one record.
type DetailQuery[T adminapi.Record] struct {
	controller detailer[T]
}

// NewDetailQuery builds the query.
func NewDetailQuery[T adminapi.Record](controller detailer[T]) *DetailQuery[T] {
	return &DetailQuery[T]{controller: controller}
}

var _ gocommand.Querier[DetailInput, adminapi.Deal] = (*DetailQuery[adminapi.Deal])(nil)

// Query returns the record and marks it as the open detail.
func (q *DetailQuery[T]) Query(ctx context.Context, input DetailInput) (T, error) {
	return q.controller.ShowDetail(ctx, input.ID)
}
