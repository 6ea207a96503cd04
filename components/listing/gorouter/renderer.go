package gorouter

import (
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	template "github.com/goliatone/go-template"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

//go:embed templates/*.html
var embeddedTemplates embed.FS

// ListTemplate is the template used for list views.
const ListTemplate = "list"

// Renderer is the template contract used for HTML views.
type Renderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
}

// NewTemplateRenderer creates a go-template renderer over the embedded
// templates.
func NewTemplateRenderer() (Renderer, error) {
	return template.NewRenderer(
		template.WithFS(embeddedTemplates),
		template.WithBaseDir("templates"),
		template.WithExtension(".html"),
	)
}

// ListView flattens a list state into the template context. Columns are
// the union of record fields with id first.
func ListView(state any) (map[string]any, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var decoded struct {
		Name          string           `json:"name"`
		PageIndex     int              `json:"pageIndex"`
		Filter        string           `json:"filter"`
		Records       []map[string]any `json:"records"`
		TotalPages    int              `json:"totalPages"`
		TotalElements int              `json:"totalElements"`
		Loading       bool             `json:"loading"`
		ErrorMessage  string           `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	columns := []string{}
	for _, rec := range decoded.Records {
		for key := range rec {
			if !seen[key] && key != "id" {
				seen[key] = true
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)
	columns = append([]string{"id"}, columns...)

	rows := make([][]string, 0, len(decoded.Records))
	for _, rec := range decoded.Records {
		row := make([]string, len(columns))
		for i, column := range columns {
			if value, ok := rec[column]; ok && value != nil {
				row[i] = cellText(value)
			}
		}
		rows = append(rows, row)
	}

	totalPages := decoded.TotalPages
	if totalPages < 1 {
		totalPages = 1
	}
	return map[string]any{
		"resource":       decoded.Name,
		"title":          titleFor(decoded.Name),
		"filter":         decoded.Filter,
		"loading":        decoded.Loading,
		"error":          decoded.ErrorMessage,
		"columns":        columns,
		"rows":           rows,
		"page":           decoded.PageIndex + 1,
		"total_pages":    totalPages,
		"total_elements": decoded.TotalElements,
		"has_previous":   decoded.PageIndex > 0,
		"has_next":       decoded.PageIndex < totalPages-1,
		"previous_page":  decoded.PageIndex - 1,
		"next_page":      decoded.PageIndex + 1,
	}, nil
}

func titleFor(name string) string {
	if name == "" {
		return "Records"
	}
	words := strings.Split(adminapi.ResourceSlug(name), "-")
	for i, word := range words {
		if word != "" {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}

func cellText(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		if typed {
			return "yes"
		}
		return "no"
	default:
		data, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(data)
	}
}
