package gorouter

import (
	"context"
	"testing"

	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"

	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/components/listing/commands"
	"github.com/rensights/admin-dashboard/components/listing/httpapi"
	"github.com/rensights/admin-dashboard/components/listing/queries"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

type namedExecutor struct {
	name string
}

func (n namedExecutor) Resource() string { return n.name }
func (namedExecutor) Page(context.Context, queries.PageInput) (any, error) {
	return listing.State[adminapi.Deal]{}, nil
}
func (namedExecutor) Detail(context.Context, queries.DetailInput) (any, error) {
	return adminapi.Deal{}, nil
}
func (namedExecutor) Update(context.Context, commands.MutateRecordInput) error { return nil }
func (namedExecutor) Action(context.Context, commands.RecordActionInput) error { return nil }
func (namedExecutor) Delete(context.Context, commands.DeleteRecordInput) error { return nil }

func TestRegisterValidatesConfig(t *testing.T) {
	if err := Register(Config[struct{}]{}); err == nil {
		t.Fatalf("expected error when router is missing")
	}

	server := router.NewFiberAdapter()
	if err := Register(Config[*fiber.App]{Router: server.Router()}); err == nil {
		t.Fatalf("expected error when no resources are given")
	}

	err := Register(Config[*fiber.App]{
		Router:    server.Router(),
		Resources: []httpapi.Executor{namedExecutor{name: "deals"}, namedExecutor{name: "Deals"}},
	})
	if err == nil {
		t.Fatalf("expected duplicate resource error")
	}
}

func TestRegisterMountsResources(t *testing.T) {
	server := router.NewFiberAdapter()
	err := Register(Config[*fiber.App]{
		Router:    server.Router(),
		Resources: []httpapi.Executor{namedExecutor{name: "deals"}, namedExecutor{name: "AnalysisRequests"}},
	})
	if err != nil {
		t.Fatalf("register returned error: %v", err)
	}
}

func TestListView(t *testing.T) {
	state := listing.State[adminapi.Deal]{
		Name:          "analysis-requests",
		PageIndex:     1,
		PageSize:      2,
		Filter:        "PENDING",
		TotalPages:    3,
		TotalElements: 5,
		Records: []adminapi.Deal{
			{ID: "d-1", Title: "Marina flat", Status: "PENDING"},
			{ID: "d-2", Status: "PENDING", Bedrooms: 2},
		},
	}
	view, err := ListView(state)
	if err != nil {
		t.Fatalf("ListView returned error: %v", err)
	}
	if view["title"] != "Analysis Requests" {
		t.Fatalf("unexpected title %v", view["title"])
	}
	columns := view["columns"].([]string)
	want := []string{"id", "bedrooms", "status", "title"}
	if len(columns) != len(want) {
		t.Fatalf("expected columns %v, got %v", want, columns)
	}
	for i := range want {
		if columns[i] != want[i] {
			t.Fatalf("expected columns %v, got %v", want, columns)
		}
	}
	rows := view["rows"].([][]string)
	if len(rows) != 2 || rows[0][0] != "d-1" || rows[0][3] != "Marina flat" || rows[1][1] != "2" {
		t.Fatalf("unexpected rows %v", rows)
	}
	if view["page"] != 2 || view["has_previous"] != true || view["has_next"] != true {
		t.Fatalf("unexpected paging %v", view)
	}
}

func TestListViewEmpty(t *testing.T) {
	view, err := ListView(listing.State[adminapi.Deal]{Name: "deals"})
	if err != nil {
		t.Fatalf("ListView returned error: %v", err)
	}
	if view["total_pages"] != 1 || view["has_next"] != false {
		t.Fatalf("unexpected paging %v", view)
	}
	if cols := view["columns"].([]string); len(cols) != 1 || cols[0] != "id" {
		t.Fatalf("unexpected columns %v", cols)
	}
}
