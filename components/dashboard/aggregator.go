package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rensights/admin-dashboard/pkg/adminapi"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many sections fetch at once.
const DefaultConcurrency = 4

// Telemetry records dashboard events for observability.
type Telemetry interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// SectionFunc fetches the data of one overview section.
type SectionFunc func(ctx context.Context) (any, error)

// Section is one independently fetched block of the overview. Fallback is
// shown when Fetch fails.
type Section struct {
	Key      string
	Title    string
	Fetch    SectionFunc
	Fallback any
}

// SectionError describes a failed section.
type SectionError struct {
	Key     string             `json:"key"`
	Kind    adminapi.ErrorKind `json:"kind,omitempty"`
	Message string             `json:"message"`
}

// Overview is the assembled dashboard. Sections holds every registered key,
// failed ones carrying their fallback.
type Overview struct {
	Order       []string                `json:"order"`
	Titles      map[string]string       `json:"titles"`
	Sections    map[string]any          `json:"sections"`
	Errors      map[string]SectionError `json:"errors,omitempty"`
	Chart       string                  `json:"chart,omitempty"`
	GeneratedAt time.Time               `json:"generatedAt"`
}

// Failed reports whether key fell back.
func (o Overview) Failed(key string) bool {
	_, ok := o.Errors[key]
	return ok
}

// Options configures an Aggregator.
type Options struct {
	Sections       []Section
	Concurrency    int
	SectionTimeout time.Duration
	Logger         logrus.FieldLogger
	Telemetry      Telemetry
}

// Aggregator fans out to every section and assembles whatever succeeded.
type Aggregator struct {
	mu          sync.RWMutex
	sections    []Section
	concurrency int
	timeout     time.Duration
	logger      logrus.FieldLogger
	telemetry   Telemetry
}

// NewAggregator validates the sections and builds an aggregator.
func NewAggregator(opts Options) (*Aggregator, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	a := &Aggregator{
		concurrency: concurrency,
		timeout:     opts.SectionTimeout,
		logger:      logger.WithField("component", "dashboard"),
		telemetry:   normalizeTelemetry(opts.Telemetry),
	}
	for _, section := range opts.Sections {
		if err := a.Register(section); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Register adds a section. Keys must be unique.
func (a *Aggregator) Register(section Section) error {
	key := strings.TrimSpace(section.Key)
	if key == "" {
		return errors.New("dashboard: section key is required")
	}
	if section.Fetch == nil {
		return fmt.Errorf("dashboard: section %s has no fetch func", key)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, existing := range a.sections {
		if existing.Key == key {
			return fmt.Errorf("dashboard: section %s already registered", key)
		}
	}
	section.Key = key
	a.sections = append(a.sections, section)
	return nil
}

// Keys lists the registered sections in registration order.
func (a *Aggregator) Keys() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, len(a.sections))
	for i, s := range a.sections {
		keys[i] = s.Key
	}
	return keys
}

type sectionResult struct {
	value any
	err   error
}

// Overview fetches all sections concurrently. It never fails as a whole:
// a failed section contributes its fallback and an entry in Errors.
func (a *Aggregator) Overview(ctx context.Context) Overview {
	a.mu.RLock()
	sections := append([]Section(nil), a.sections...)
	a.mu.RUnlock()

	started := time.Now()
	results := make([]sectionResult, len(sections))
	var g errgroup.Group
	g.SetLimit(a.concurrency)
	for i, section := range sections {
		g.Go(func() error {
			value, err := a.fetch(ctx, section)
			results[i] = sectionResult{value: value, err: err}
			return nil
		})
	}
	_ = g.Wait()

	overview := Overview{
		Order:       make([]string, 0, len(sections)),
		Titles:      make(map[string]string, len(sections)),
		Sections:    make(map[string]any, len(sections)),
		GeneratedAt: time.Now().UTC(),
	}
	for i, section := range sections {
		overview.Order = append(overview.Order, section.Key)
		overview.Titles[section.Key] = section.Title
		result := results[i]
		if result.err == nil {
			overview.Sections[section.Key] = result.value
			continue
		}
		if overview.Errors == nil {
			overview.Errors = map[string]SectionError{}
		}
		overview.Errors[section.Key] = SectionError{
			Key:     section.Key,
			Kind:    adminapi.KindOf(result.err),
			Message: adminapi.MessageOf(result.err),
		}
		overview.Sections[section.Key] = section.Fallback
		a.logger.WithField("section", section.Key).WithError(result.err).Warn("overview section failed")
	}

	failed := make([]string, 0, len(overview.Errors))
	for key := range overview.Errors {
		failed = append(failed, key)
	}
	sort.Strings(failed)
	a.telemetry.Record(ctx, "dashboard.overview", map[string]any{
		"sections": len(sections),
		"failed":   failed,
		"duration": time.Since(started).String(),
	})
	return overview
}

func (a *Aggregator) fetch(ctx context.Context, section Section) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dashboard: section %s panicked: %v", section.Key, r)
		}
	}()
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	return section.Fetch(ctx)
}
