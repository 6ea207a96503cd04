package listing

import (
	"strings"

	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// Phase is the controller lifecycle: idle, then loading, then loaded or
// errored, and back to loading on every reload.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseErrored Phase = "errored"
)

// FailurePolicy decides what happens to the visible records when a reload
// fails.
type FailurePolicy int

const (
	// KeepRecords leaves the last good page on screen next to the error.
	KeepRecords FailurePolicy = iota
	// ClearRecords empties the list and resets the counters.
	ClearRecords
)

func (p FailurePolicy) String() string {
	switch p {
	case ClearRecords:
		return "clear"
	default:
		return "keep"
	}
}

// ParseFailurePolicy accepts "keep" and "clear" in any case. Empty means
// keep.
func ParseFailurePolicy(raw string) (FailurePolicy, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "keep":
		return KeepRecords, true
	case "clear":
		return ClearRecords, true
	}
	return KeepRecords, false
}

// State is a point-in-time copy of a controller.
type State[T any] struct {
	Name          string             `json:"name"`
	PageIndex     int                `json:"pageIndex"`
	PageSize      int                `json:"pageSize"`
	Filter        string             `json:"filter,omitempty"`
	Records       []T                `json:"records"`
	TotalPages    int                `json:"totalPages"`
	TotalElements int                `json:"totalElements"`
	Loading       bool               `json:"loading"`
	ErrorMessage  string             `json:"errorMessage,omitempty"`
	ErrorKind     adminapi.ErrorKind `json:"errorKind,omitempty"`
	Phase         Phase              `json:"phase"`
	Detail        *T                 `json:"detail,omitempty"`
	Sequence      uint64             `json:"sequence"`
}

// HasPrevious reports whether a previous page exists.
func (s State[T]) HasPrevious() bool {
	return s.PageIndex > 0
}

// HasNext reports whether a next page exists.
func (s State[T]) HasNext() bool {
	return s.PageIndex < s.TotalPages-1
}

func (s State[T]) clone() State[T] {
	out := s
	out.Records = append(make([]T, 0, len(s.Records)), s.Records...)
	if s.Detail != nil {
		detail := *s.Detail
		out.Detail = &detail
	}
	return out
}
