package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/rensights/admin-dashboard/components/dashboard"
)

type overviewCmd struct {
	Chart    string `help:"Render the stats chart as bar or pie."`
	ChartOut string `name:"chart-out" type:"path" help:"Write the chart HTML to this file."`
}

func (cmd *overviewCmd) Run(ctx context.Context, g *Globals) error {
	if cmd.ChartOut != "" && cmd.Chart == "" {
		cmd.Chart = string(dashboard.ChartBar)
	}
	a, err := g.open(ctx)
	if err != nil {
		return err
	}
	overview, err := a.Overview(ctx, cmd.Chart)
	if err != nil {
		return err
	}
	if cmd.ChartOut != "" && overview.Chart != "" {
		if err := os.WriteFile(cmd.ChartOut, []byte(overview.Chart), 0o644); err != nil {
			return fmt.Errorf("rensightsctl: write chart: %w", err)
		}
		fmt.Fprintf(g.out(), "chart written to %s\n", cmd.ChartOut)
	}
	if g.Output != "table" {
		overview.Chart = ""
		return printValue(g.out(), g.Output, overview)
	}
	return printOverview(g.out(), overview)
}

func printOverview(w io.Writer, overview dashboard.Overview) error {
	rows := make([][]string, 0, len(overview.Order))
	for _, key := range overview.Order {
		status := "ok"
		detail := summarize(overview.Sections[key])
		if failed, ok := overview.Errors[key]; ok {
			status = string(failed.Kind)
			detail = failed.Message
		}
		rows = append(rows, []string{overview.Titles[key], status, detail})
	}
	return printTable(w, []string{"section", "status", "summary"}, rows)
}

// summarize describes a section payload in one line.
func summarize(value any) string {
	generic, err := toGeneric(value)
	if err != nil {
		return ""
	}
	switch typed := generic.(type) {
	case []any:
		return fmt.Sprintf("%d items", len(typed))
	case map[string]any:
		if total, ok := typed["totalElements"]; ok {
			return fmt.Sprintf("%v total", formatCell(total))
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, key := range keys {
			parts = append(parts, key+"="+formatCell(typed[key]))
		}
		return strings.Join(parts, " ")
	}
	return formatCell(generic)
}
