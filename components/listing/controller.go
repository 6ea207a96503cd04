package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rensights/admin-dashboard/pkg/adminapi"
	"github.com/sirupsen/logrus"
)

var (
	// ErrFetchRequired is returned by NewController without a Fetch func.
	ErrFetchRequired = errors.New("listing: fetch function is required")
	// ErrNotSupported is returned when an operation has no backing function.
	ErrNotSupported = errors.New("listing: operation not supported")
	// ErrRecordNotFound is returned by ShowDetail when the record is not on
	// the current page and no Get func is configured.
	ErrRecordNotFound = errors.New("listing: record not found")
)

// FetchFunc loads one page.
type FetchFunc[T any] func(ctx context.Context, req adminapi.PageRequest) (adminapi.Page[T], error)

// GetFunc loads one record.
type GetFunc[T any] func(ctx context.Context, id string) (T, error)

// MutateFunc sends partial changes for one record.
type MutateFunc[T any] func(ctx context.Context, id string, changes map[string]any) (T, error)

// OperationFunc is any other mutation keyed by record id: actions,
// status updates.
type OperationFunc[T any] func(ctx context.Context, id string) (T, error)

// FilterParamFunc copies the filter value into the outgoing request.
type FilterParamFunc func(req *adminapi.PageRequest, filter string)

// ClientFilterFunc keeps a record when it matches filter. It is applied to
// freshly arrived records for filters the backend ignores.
type ClientFilterFunc[T any] func(record T, filter string) bool

// LoginBoundary is called with every authentication failure.
type LoginBoundary func(ctx context.Context, err error)

// Options configures a Controller.
type Options[T adminapi.Record] struct {
	Name          string
	PageSize      int
	Fetch         FetchFunc[T]
	Get           GetFunc[T]
	Mutate        MutateFunc[T]
	FilterParam   FilterParamFunc
	ClientFilter  ClientFilterFunc[T]
	FailurePolicy FailurePolicy
	Hook          StateHook
	Telemetry     Telemetry
	Logger        logrus.FieldLogger
	LoginBoundary LoginBoundary
}

// ResourceOptions fills Name, Fetch, Get and Mutate from a REST resource.
func ResourceOptions[T adminapi.Record](res *adminapi.Resource[T]) Options[T] {
	return Options[T]{
		Name:   res.Name(),
		Fetch:  res.List,
		Get:    res.Get,
		Mutate: res.Update,
	}
}

// StatusParam sends the filter as the status query parameter.
func StatusParam(req *adminapi.PageRequest, filter string) {
	req.Status = filter
}

// CityParam sends the filter as the city query parameter.
func CityParam(req *adminapi.PageRequest, filter string) {
	req.City = filter
}

// SearchParam sends the filter as the search query parameter.
func SearchParam(req *adminapi.PageRequest, filter string) {
	req.Search = filter
}

// MatchStatus is a ClientFilterFunc comparing RecordStatus to the filter.
func MatchStatus[T adminapi.StatusRecord](record T, filter string) bool {
	return strings.EqualFold(record.RecordStatus(), filter)
}

// Controller coordinates a paginated, filterable view of one record type.
// Every load is tagged with a sequence number and only the result of the
// latest issued load is applied.
type Controller[T adminapi.Record] struct {
	mu            sync.Mutex
	name          string
	state         State[T]
	issued        uint64
	fetch         FetchFunc[T]
	get           GetFunc[T]
	mutate        MutateFunc[T]
	filterParam   FilterParamFunc
	clientFilter  ClientFilterFunc[T]
	policy        FailurePolicy
	hook          StateHook
	telemetry     Telemetry
	logger        logrus.FieldLogger
	loginBoundary LoginBoundary
}

// NewController validates opts and returns an idle controller.
func NewController[T adminapi.Record](opts Options[T]) (*Controller[T], error) {
	if opts.Fetch == nil {
		return nil, ErrFetchRequired
	}
	size := opts.PageSize
	if size <= 0 {
		size = adminapi.DefaultPageSize
	}
	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = "records"
	}
	filterParam := opts.FilterParam
	if filterParam == nil {
		filterParam = StatusParam
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Controller[T]{
		name: name,
		state: State[T]{
			Name:       name,
			PageSize:   size,
			Records:    []T{},
			TotalPages: 1,
			Phase:      PhaseIdle,
		},
		fetch:         opts.Fetch,
		get:           opts.Get,
		mutate:        opts.Mutate,
		filterParam:   filterParam,
		clientFilter:  opts.ClientFilter,
		policy:        opts.FailurePolicy,
		hook:          normalizeHook(opts.Hook),
		telemetry:     normalizeTelemetry(opts.Telemetry),
		logger:        logger.WithFields(logrus.Fields{"component": "listing", "resource": name}),
		loginBoundary: opts.LoginBoundary,
	}, nil
}

// Name returns the controller name.
func (c *Controller[T]) Name() string {
	return c.name
}

// State returns a copy of the current state.
func (c *Controller[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Load fetches the current page. A result that arrives after a newer load
// was issued is discarded; Load then returns nil. Failures are stored in
// the state and also returned. When the backend reports fewer pages than
// the current index, the last page is fetched once more under a new
// sequence number.
func (c *Controller[T]) Load(ctx context.Context) error {
	return c.load(ctx, true)
}

func (c *Controller[T]) load(ctx context.Context, followUp bool) error {
	c.mu.Lock()
	c.issued++
	seq := c.issued
	req := adminapi.PageRequest{Page: c.state.PageIndex, Size: c.state.PageSize}
	filter := c.state.Filter
	if filter != "" {
		c.filterParam(&req, filter)
	}
	c.state.Loading = true
	c.state.ErrorMessage = ""
	c.state.ErrorKind = ""
	c.state.Phase = PhaseLoading
	loading := c.state.clone()
	c.mu.Unlock()

	c.emit(ctx, EventLoading, seq, "", loading)
	c.telemetry.Record(ctx, "listing.load", map[string]any{
		"resource": loading.Name,
		"page":     req.Page,
		"size":     req.Size,
		"filter":   filter,
		"sequence": seq,
	})

	started := time.Now()
	page, err := c.safeFetch(ctx, req)

	snapshot, applied, clamped := c.settle(seq, page, err, filter, followUp)
	if !applied {
		c.logger.WithField("sequence", seq).Debug("discarding stale page")
		c.telemetry.Record(ctx, "listing.stale", map[string]any{"resource": loading.Name, "sequence": seq})
		return nil
	}
	if clamped {
		c.logger.WithFields(logrus.Fields{
			"requested": req.Page,
			"page":      snapshot.PageIndex,
		}).Debug("page out of range, fetching last page")
		return c.load(ctx, false)
	}

	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"page":     req.Page,
			"kind":     snapshot.ErrorKind,
			"duration": time.Since(started).String(),
		}).WithError(err).Warn("load failed")
		c.emit(ctx, EventErrored, seq, "", snapshot)
		c.telemetry.Record(ctx, "listing.error", map[string]any{
			"resource": snapshot.Name,
			"kind":     string(snapshot.ErrorKind),
			"message":  snapshot.ErrorMessage,
		})
		if snapshot.ErrorKind == adminapi.KindUnauthorized && c.loginBoundary != nil {
			c.loginBoundary(ctx, err)
		}
		return err
	}

	c.logger.WithFields(logrus.Fields{
		"page":     snapshot.PageIndex,
		"records":  len(snapshot.Records),
		"total":    snapshot.TotalElements,
		"duration": time.Since(started).String(),
	}).Debug("page loaded")
	c.emit(ctx, EventLoaded, seq, "", snapshot)
	return nil
}

// settle applies the outcome of load seq unless a newer load was issued.
// The latest load releases the loading flag, except when the page index
// was clamped and allowClamp asks for a follow-up fetch.
func (c *Controller[T]) settle(seq uint64, page adminapi.Page[T], err error, filter string, allowClamp bool) (State[T], bool, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.issued {
		return State[T]{}, false, false
	}
	c.state.Sequence = seq
	if err != nil {
		c.applyFailureLocked(err)
	} else if c.applyPageLocked(page, filter, allowClamp) {
		return c.state.clone(), true, true
	}
	c.state.Loading = false
	return c.state.clone(), true, false
}

// SetPage moves to page k, clamped to the known page range, and reloads.
func (c *Controller[T]) SetPage(ctx context.Context, k int) error {
	c.mu.Lock()
	c.state.PageIndex = clampPage(k, c.state.TotalPages)
	c.mu.Unlock()
	return c.Load(ctx)
}

// NextPage and PreviousPage step through pages.
func (c *Controller[T]) NextPage(ctx context.Context) error {
	return c.SetPage(ctx, c.State().PageIndex+1)
}

func (c *Controller[T]) PreviousPage(ctx context.Context) error {
	return c.SetPage(ctx, c.State().PageIndex-1)
}

// SetFilter replaces the filter, returns to the first page and reloads.
// An empty value clears the filter.
func (c *Controller[T]) SetFilter(ctx context.Context, value string) error {
	c.mu.Lock()
	c.state.Filter = strings.TrimSpace(value)
	c.state.PageIndex = 0
	c.mu.Unlock()
	return c.Load(ctx)
}

// Mutate sends changes for id. On success the list reloads and an open
// detail view of the same record is refreshed. On failure the list state is
// left untouched and the error is returned.
func (c *Controller[T]) Mutate(ctx context.Context, id string, changes map[string]any) (T, error) {
	if c.mutate == nil {
		var zero T
		return zero, ErrNotSupported
	}
	return c.Apply(ctx, id, func(ctx context.Context, id string) (T, error) {
		return c.mutate(ctx, id, changes)
	})
}

// Apply runs op against id with the same reload and detail refresh rules
// as Mutate.
func (c *Controller[T]) Apply(ctx context.Context, id string, op OperationFunc[T]) (T, error) {
	var zero T
	if op == nil {
		return zero, ErrNotSupported
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return zero, &adminapi.APIError{Kind: adminapi.KindValidation, Message: "listing: record id is required"}
	}
	name := c.Name()
	updated, err := op(ctx, id)
	if err != nil {
		c.logger.WithField("id", id).WithError(err).Warn("mutation failed")
		c.telemetry.Record(ctx, "listing.mutate_failed", map[string]any{
			"resource": name,
			"id":       id,
			"kind":     string(adminapi.KindOf(err)),
		})
		if adminapi.IsUnauthorized(err) && c.loginBoundary != nil {
			c.loginBoundary(ctx, err)
		}
		return zero, err
	}
	c.telemetry.Record(ctx, "listing.mutate", map[string]any{"resource": name, "id": id})

	if loadErr := c.Load(ctx); loadErr != nil {
		c.logger.WithError(loadErr).Debug("reload after mutation failed")
	}
	c.refreshDetail(ctx, id, updated)
	snapshot := c.State()
	c.emit(ctx, EventMutated, snapshot.Sequence, id, snapshot)
	return updated, nil
}

// ShowDetail opens the detail view for id, fetching it when a Get func is
// configured and otherwise taking it from the current page.
func (c *Controller[T]) ShowDetail(ctx context.Context, id string) (T, error) {
	var zero T
	var record T
	if c.get != nil {
		fetched, err := c.get(ctx, id)
		if err != nil {
			if adminapi.IsUnauthorized(err) && c.loginBoundary != nil {
				c.loginBoundary(ctx, err)
			}
			return zero, err
		}
		record = fetched
	} else {
		found, ok := c.Record(id)
		if !ok {
			return zero, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		record = found
	}
	c.mu.Lock()
	c.state.Detail = &record
	snapshot := c.state.clone()
	c.mu.Unlock()
	c.emit(ctx, EventDetail, snapshot.Sequence, id, snapshot)
	return record, nil
}

// CloseDetail hides the detail view.
func (c *Controller[T]) CloseDetail() {
	c.mu.Lock()
	c.state.Detail = nil
	c.mu.Unlock()
}

// Record looks id up on the current page.
func (c *Controller[T]) Record(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, rec := range c.state.Records {
		if rec.RecordID() == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

func (c *Controller[T]) refreshDetail(ctx context.Context, id string, updated T) {
	c.mu.Lock()
	showing := c.state.Detail != nil && (*c.state.Detail).RecordID() == id
	c.mu.Unlock()
	if !showing {
		return
	}
	record := updated
	if c.get != nil {
		fetched, err := c.get(ctx, id)
		if err == nil {
			record = fetched
		} else {
			c.logger.WithField("id", id).WithError(err).Debug("detail refetch failed, using mutation result")
		}
	}
	c.mu.Lock()
	if c.state.Detail != nil && (*c.state.Detail).RecordID() == id {
		c.state.Detail = &record
	}
	c.mu.Unlock()
}

// applyPageLocked stores page. It reports true without touching the
// records when the index had to be clamped and clamped pages are refetched.
func (c *Controller[T]) applyPageLocked(page adminapi.Page[T], filter string, refetchClamped bool) bool {
	normalized := page.Normalize(c.state.PageSize)
	index := clampPage(c.state.PageIndex, normalized.TotalPages)
	if refetchClamped && index != c.state.PageIndex {
		c.state.PageIndex = index
		c.state.TotalPages = normalized.TotalPages
		c.state.TotalElements = normalized.TotalElements
		return true
	}
	records := normalized.Content
	if c.clientFilter != nil && filter != "" {
		kept := make([]T, 0, len(records))
		for _, rec := range records {
			if c.clientFilter(rec, filter) {
				kept = append(kept, rec)
			}
		}
		records = kept
	}
	c.state.Records = records
	c.state.TotalPages = normalized.TotalPages
	c.state.TotalElements = normalized.TotalElements
	c.state.PageIndex = index
	c.state.Phase = PhaseLoaded
	return false
}

func (c *Controller[T]) applyFailureLocked(err error) {
	message := adminapi.MessageOf(err)
	if strings.TrimSpace(message) == "" {
		message = "Request failed"
	}
	kind := adminapi.KindOf(err)
	if kind == "" {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			kind = adminapi.KindNetwork
		} else {
			kind = adminapi.KindServer
		}
	}
	c.state.ErrorMessage = message
	c.state.ErrorKind = kind
	c.state.Phase = PhaseErrored
	if c.policy == ClearRecords {
		c.state.Records = []T{}
		c.state.TotalPages = 1
		c.state.TotalElements = 0
	}
}

// safeFetch turns a panicking fetch into an error so the loading flag is
// always released.
func (c *Controller[T]) safeFetch(ctx context.Context, req adminapi.PageRequest) (page adminapi.Page[T], err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listing: fetch %s: %v", c.name, r)
		}
	}()
	return c.fetch(ctx, req)
}

func (c *Controller[T]) emit(ctx context.Context, kind EventKind, seq uint64, id string, state State[T]) {
	event := StateEvent{
		Controller: state.Name,
		Kind:       kind,
		Sequence:   seq,
		RecordID:   id,
		State:      state,
		Time:       time.Now().UTC(),
	}
	if err := c.hook.StateChanged(ctx, event); err != nil {
		c.logger.WithError(err).Debug("state hook failed")
	}
}

func clampPage(k, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if k > totalPages-1 {
		k = totalPages - 1
	}
	if k < 0 {
		k = 0
	}
	return k
}
