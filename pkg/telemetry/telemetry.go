// Package telemetry provides sinks for the Record(ctx, event, payload)
// events emitted by controllers, commands and the overview aggregator.
package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// Recorder is satisfied by every sink in this package.
type Recorder interface {
	Record(ctx context.Context, event string, payload map[string]any)
}

// Noop drops every event.
type Noop struct{}

func (Noop) Record(context.Context, string, map[string]any) {}

// Logrus writes events as debug entries.
type Logrus struct {
	Logger logrus.FieldLogger
}

// NewLogrus logs through logger, defaulting to the standard logger.
func NewLogrus(logger logrus.FieldLogger) *Logrus {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Logrus{Logger: logger.WithField("component", "telemetry")}
}

func (l *Logrus) Record(_ context.Context, event string, payload map[string]any) {
	fields := logrus.Fields{"event": event}
	for k, v := range payload {
		fields[k] = v
	}
	l.Logger.WithFields(fields).Debug("telemetry")
}

// Prometheus counts events by name.
type Prometheus struct {
	events *prometheus.CounterVec
}

// NewPrometheus registers rensights_admin_events_total on reg. A nil reg
// uses the default registerer.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "rensights",
		Subsystem: "admin",
		Name:      "events_total",
		Help:      "Admin dashboard events by name.",
	}, []string{"event"})
	if err := reg.Register(events); err != nil {
		if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
			if ok {
				return &Prometheus{events: existing}, nil
			}
		}
		return nil, err
	}
	return &Prometheus{events: events}, nil
}

func (p *Prometheus) Record(_ context.Context, event string, _ map[string]any) {
	p.events.WithLabelValues(event).Inc()
}

// Counter exposes the underlying vector for tests and dashboards.
func (p *Prometheus) Counter() *prometheus.CounterVec {
	return p.events
}

// Multi fans an event out to several sinks.
type Multi []Recorder

func (m Multi) Record(ctx context.Context, event string, payload map[string]any) {
	for _, r := range m {
		if r != nil {
			r.Record(ctx, event, payload)
		}
	}
}
