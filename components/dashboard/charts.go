package dashboard

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

const defaultChartHeight = "360px"

// UnknownStatus labels records without a status.
const UnknownStatus = "UNKNOWN"

// ChartKind selects the chart type.
type ChartKind string

const (
	ChartBar ChartKind = "bar"
	ChartPie ChartKind = "pie"
)

// ParseChartKind accepts "bar" and "pie"; empty means bar.
func ParseChartKind(raw string) (ChartKind, error) {
	switch ChartKind(strings.ToLower(strings.TrimSpace(raw))) {
	case "", ChartBar:
		return ChartBar, nil
	case ChartPie:
		return ChartPie, nil
	}
	return "", fmt.Errorf("dashboard: unsupported chart type %q", raw)
}

// StatusCount is one bar or slice.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CountByStatus tallies records per status, sorted by status.
func CountByStatus[T adminapi.StatusRecord](records []T) []StatusCount {
	tally := map[string]int{}
	for _, rec := range records {
		status := strings.TrimSpace(rec.RecordStatus())
		if status == "" {
			status = UnknownStatus
		}
		tally[status]++
	}
	counts := make([]StatusCount, 0, len(tally))
	for status, n := range tally {
		counts = append(counts, StatusCount{Status: status, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Status < counts[j].Status })
	return counts
}

// StatsCounts turns the headline counters into chartable values.
func StatsCounts(stats adminapi.DashboardStats) []StatusCount {
	return []StatusCount{
		{Status: "Users", Count: stats.TotalUsers},
		{Status: "Active subscriptions", Count: stats.ActiveSubscriptions},
		{Status: "Pending deals", Count: stats.PendingDeals},
		{Status: "Pending analysis requests", Count: stats.PendingAnalysisRequests},
		{Status: "Published articles", Count: stats.PublishedArticles},
	}
}

// ChartOptions describes one chart.
type ChartOptions struct {
	Kind       ChartKind
	Title      string
	Subtitle   string
	Theme      string
	AssetsHost string
}

// ChartRenderer renders status charts to standalone HTML.
type ChartRenderer struct {
	cache RenderCache
}

// NewChartRenderer builds a renderer. A nil cache renders every time.
func NewChartRenderer(cache RenderCache) *ChartRenderer {
	return &ChartRenderer{cache: cache}
}

// DefaultChartRenderer caches rendered charts for five minutes.
func DefaultChartRenderer() *ChartRenderer {
	return NewChartRenderer(NewChartCache(5 * time.Minute))
}

// RenderStatusChart renders counts as a bar or pie chart.
func (r *ChartRenderer) RenderStatusChart(counts []StatusCount, options ChartOptions) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("dashboard: nothing to chart")
	}
	if options.Kind == "" {
		options.Kind = ChartBar
	}
	if options.Theme == "" {
		options.Theme = types.ThemeWesteros
	}
	render := func() (string, error) {
		switch options.Kind {
		case ChartBar:
			return renderBar(counts, options)
		case ChartPie:
			return renderPie(counts, options)
		}
		return "", fmt.Errorf("dashboard: unsupported chart type %q", options.Kind)
	}
	if r == nil || r.cache == nil {
		return render()
	}
	key := fmt.Sprintf("%s:%s:%s:%s", options.Kind, options.Title, options.Theme, countsHash(counts))
	return r.cache.GetOrRender(key, render)
}

func renderBar(counts []StatusCount, options ChartOptions) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOptions(options)...)
	labels := make([]string, len(counts))
	data := make([]opts.BarData, len(counts))
	for i, c := range counts {
		labels[i] = c.Status
		data[i] = opts.BarData{Name: c.Status, Value: c.Count}
	}
	bar.SetXAxis(labels)
	bar.AddSeries(seriesName(options), data)
	return renderChart(bar)
}

func renderPie(counts []StatusCount, options ChartOptions) (string, error) {
	pie := charts.NewPie()
	pie.SetGlobalOptions(globalOptions(options)...)
	data := make([]opts.PieData, len(counts))
	for i, c := range counts {
		data[i] = opts.PieData{Name: c.Status, Value: c.Count}
	}
	pie.AddSeries(seriesName(options), data)
	return renderChart(pie)
}

func seriesName(options ChartOptions) string {
	if options.Title != "" {
		return options.Title
	}
	return "Records"
}

func globalOptions(options ChartOptions) []charts.GlobalOpts {
	initOpts := opts.Initialization{
		Theme:  options.Theme,
		Width:  "100%",
		Height: defaultChartHeight,
	}
	if options.AssetsHost != "" {
		initOpts.AssetsHost = options.AssetsHost
	}
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: options.Title, Subtitle: options.Subtitle}),
		charts.WithInitializationOpts(initOpts),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(options.Kind == ChartPie)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	}
}

func renderChart(renderable interface{ Render(io.Writer) error }) (string, error) {
	var buf bytes.Buffer
	if err := renderable.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
