package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/rensights/admin-dashboard/components/listing/gorouter"
)

// printValue writes v as JSON or YAML. Field names follow the JSON tags in
// both formats.
func printValue(w io.Writer, format string, v any) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	case "yaml":
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		defer encoder.Close()
		return encoder.Encode(generic)
	}
	return fmt.Errorf("rensightsctl: unsupported output %q", format)
}

func toGeneric(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func printTable(w io.Writer, columns []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = columnHeader(col)
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func columnHeader(field string) string {
	return strings.ToUpper(strcase.ToSnake(field))
}

// printPage renders a list state as a table with a paging footer.
func printPage(w io.Writer, format string, state any) error {
	if format != "table" {
		return printValue(w, format, state)
	}
	view, err := gorouter.ListView(state)
	if err != nil {
		return err
	}
	columns, _ := view["columns"].([]string)
	rows, _ := view["rows"].([][]string)
	if len(rows) == 0 {
		fmt.Fprintln(w, "no records")
	} else if err := printTable(w, columns, rows); err != nil {
		return err
	}
	fmt.Fprintf(w, "page %v of %v (%v records)\n", view["page"], view["total_pages"], view["total_elements"])
	if msg, _ := view["error"].(string); msg != "" {
		fmt.Fprintf(w, "error: %s\n", msg)
	}
	return nil
}

// printRecord renders one record as field/value pairs.
func printRecord(w io.Writer, format string, record any) error {
	if format != "table" {
		return printValue(w, format, record)
	}
	generic, err := toGeneric(record)
	if err != nil {
		return err
	}
	fields, ok := generic.(map[string]any)
	if !ok {
		return printValue(w, "yaml", record)
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, formatCell(fields[key])})
	}
	return printTable(w, []string{"field", "value"}, rows)
}

func formatCell(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case map[string]any, []any:
		data, _ := json.Marshal(value)
		return string(data)
	}
	return fmt.Sprint(v)
}

// parseSet turns --set values into typed changes: JSON literals keep
// their type, anything else is a string.
func parseSet(values map[string]string) map[string]any {
	changes := make(map[string]any, len(values))
	for key, raw := range values {
		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
			changes[key] = decoded
			continue
		}
		changes[key] = raw
	}
	return changes
}
