package queries

import (
	"context"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// PageInput selects a page and filter. Reload forces a fetch even when
// nothing changed.
type PageInput struct {
	Page   int
	Filter string
	Reload bool
}

type pager[T adminapi.Record] interface {
	State() listing.State[T]
	Load(ctx context.Context) error
	SetPage(ctx context.Context, k int) error
	SetFilter(ctx context.Context, value string) error
}

// PageQuery drives a list controller to the requested page and returns
// the resulting state.
type PageQuery[T adminapi.Record] struct {
	controller pager[T]
}

// NewPageQuery builds the query.
func NewPageQuery[T adminapi.Record](controller pager[T]) *PageQuery[T] {
	return &PageQuery[T]{controller: controller}
}

var _ gocommand.Querier[PageInput, listing.State[adminapi.Deal]] = (*PageQuery[adminapi.Deal])(nil)

// Query applies the filter first, since a filter change resets to the
// first page, then moves to the requested page. An idle controller is
// loaded before paging so the page range is known.
func (q *PageQuery[T]) Query(ctx context.Context, input PageInput) (listing.State[T], error) {
	current := q.controller.State()
	filter := strings.TrimSpace(input.Filter)

	loaded := false
	var err error
	switch {
	case filter != current.Filter:
		err = q.controller.SetFilter(ctx, filter)
		loaded = true
	case current.Phase == listing.PhaseIdle:
		err = q.controller.Load(ctx)
		loaded = true
	}
	if err != nil {
		return q.controller.State(), err
	}
	switch {
	case input.Page != q.controller.State().PageIndex:
		err = q.controller.SetPage(ctx, input.Page)
	case input.Reload && !loaded:
		err = q.controller.Load(ctx)
	}
	return q.controller.State(), err
}
