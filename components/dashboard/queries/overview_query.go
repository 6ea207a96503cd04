package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/rensights/admin-dashboard/components/dashboard"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// OverviewInput optionally asks for a chart of the headline counters.
type OverviewInput struct {
	Chart string
}

type overviewSource interface {
	Overview(ctx context.Context) dashboard.Overview
}

// OverviewQuery assembles the dashboard overview.
type OverviewQuery struct {
	source overviewSource
	charts *dashboard.ChartRenderer
}

// NewOverviewQuery builds the query. A nil renderer uses the default
// cached renderer.
func NewOverviewQuery(source overviewSource, charts *dashboard.ChartRenderer) *OverviewQuery {
	if charts == nil {
		charts = dashboard.DefaultChartRenderer()
	}
	return &OverviewQuery{source: source, charts: charts}
}

var _ gocommand.Querier[OverviewInput, dashboard.Overview] = (*OverviewQuery)(nil)

// Query never fails because of a section; only a bad chart type is an
// error. The chart is skipped when the stats section fell back.
func (q *OverviewQuery) Query(ctx context.Context, input OverviewInput) (dashboard.Overview, error) {
	var kind dashboard.ChartKind
	if input.Chart != "" {
		parsed, err := dashboard.ParseChartKind(input.Chart)
		if err != nil {
			return dashboard.Overview{}, err
		}
		kind = parsed
	}
	overview := q.source.Overview(ctx)
	if kind == "" || overview.Failed(dashboard.SectionStats) {
		return overview, nil
	}
	stats, ok := overview.Sections[dashboard.SectionStats].(adminapi.DashboardStats)
	if !ok {
		return overview, nil
	}
	html, err := q.charts.RenderStatusChart(dashboard.StatsCounts(stats), dashboard.ChartOptions{
		Kind:  kind,
		Title: "Rensights overview",
	})
	if err != nil {
		return overview, err
	}
	overview.Chart = html
	return overview, nil
}
