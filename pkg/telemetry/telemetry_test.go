package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	events []string
}

func (c *captured) Record(_ context.Context, event string, _ map[string]any) {
	c.events = append(c.events, event)
}

func TestPrometheusCountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPrometheus(reg)
	require.NoError(t, err)

	sink.Record(context.Background(), "listing.load", nil)
	sink.Record(context.Background(), "listing.load", nil)
	sink.Record(context.Background(), "listing.error", nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(sink.Counter().WithLabelValues("listing.load")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.Counter().WithLabelValues("listing.error")))
}

func TestPrometheusReusesRegisteredCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheus(reg)
	require.NoError(t, err)
	second, err := NewPrometheus(reg)
	require.NoError(t, err)

	second.Record(context.Background(), "x", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(first.Counter().WithLabelValues("x")))
}

func TestLogrusAndMulti(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetLevel(logrus.DebugLevel)

	capture := &captured{}
	sink := Multi{NewLogrus(logger), capture, nil}
	sink.Record(context.Background(), "dashboard.section_failed", map[string]any{"section": "stats"})

	assert.Equal(t, []string{"dashboard.section_failed"}, capture.events)
	assert.Contains(t, buf.String(), "event=dashboard.section_failed")
	assert.Contains(t, buf.String(), "section=stats")
}
