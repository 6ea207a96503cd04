package commands

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
	"github.com/sirupsen/logrus"
)

type stubTelemetry struct {
	calls  int
	events []string
}

func (s *stubTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	s.calls++
	s.events = append(s.events, event)
}

type stubAuth struct {
	loginCalls  int
	logoutCalls int
	err         error
}

func (s *stubAuth) Login(_ context.Context, email, _ string) (adminapi.LoginResponse, error) {
	s.loginCalls++
	if s.err != nil {
		return adminapi.LoginResponse{}, s.err
	}
	return adminapi.LoginResponse{Token: "t", Email: email, Role: "ADMIN"}, nil
}

func (s *stubAuth) Logout(context.Context) error {
	s.logoutCalls++
	return nil
}

type stubResource struct {
	deleteCalls    int
	deleteAllCalls int
	lastID         string
	actionCalls    int
	lastAction     string
	err            error
}

func (s *stubResource) Name() string { return "deals" }

func (s *stubResource) Delete(_ context.Context, id string) error {
	s.deleteCalls++
	s.lastID = id
	return s.err
}

func (s *stubResource) DeleteAll(context.Context) error {
	s.deleteAllCalls++
	return s.err
}

func (s *stubResource) Action(_ context.Context, id, action string) (adminapi.Deal, error) {
	s.actionCalls++
	s.lastAction = action
	return adminapi.Deal{ID: id, Status: "APPROVED"}, s.err
}

type stubReloader struct{ calls int }

func (s *stubReloader) Load(context.Context) error {
	s.calls++
	return nil
}

type stubApprover struct {
	calls int
	ids   []string
}

func (s *stubApprover) BatchApproveDeals(_ context.Context, ids []string) (adminapi.BatchApproveResult, error) {
	s.calls++
	s.ids = ids
	return adminapi.BatchApproveResult{Approved: len(ids)}, nil
}

func newDealController(t *testing.T, mutate listing.MutateFunc[adminapi.Deal]) (*listing.Controller[adminapi.Deal], *int) {
	t.Helper()
	loads := 0
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	ctrl, err := listing.NewController(listing.Options[adminapi.Deal]{
		Name: "deals",
		Fetch: func(context.Context, adminapi.PageRequest) (adminapi.Page[adminapi.Deal], error) {
			loads++
			return adminapi.Page[adminapi.Deal]{Content: []adminapi.Deal{{ID: "d-1"}}, TotalElements: 1, TotalPages: 1}, nil
		},
		Mutate: mutate,
		Logger: logger,
	})
	if err != nil {
		t.Fatalf("new controller: %v", err)
	}
	return ctrl, &loads
}

func TestLoginCommand(t *testing.T) {
	auth := &stubAuth{}
	telemetry := &stubTelemetry{}
	cmd := NewLoginCommand(auth, telemetry)
	if err := cmd.Execute(context.Background(), LoginInput{Email: " admin@rensights.com ", Password: "pw"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if auth.loginCalls != 1 {
		t.Fatalf("expected login call")
	}
	if len(telemetry.events) != 1 || telemetry.events[0] != "admin.login" {
		t.Fatalf("unexpected telemetry %v", telemetry.events)
	}
}

func TestLoginCommandFailure(t *testing.T) {
	auth := &stubAuth{err: &adminapi.APIError{Kind: adminapi.KindUnauthorized, Message: "Invalid email or password"}}
	telemetry := &stubTelemetry{}
	err := NewLoginCommand(auth, telemetry).Execute(context.Background(), LoginInput{Email: "a", Password: "b"})
	if !adminapi.IsUnauthorized(err) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if telemetry.events[0] != "admin.login_failed" {
		t.Fatalf("expected failure telemetry, got %v", telemetry.events)
	}
}

func TestLogoutCommand(t *testing.T) {
	auth := &stubAuth{}
	if err := NewLogoutCommand(auth, nil).Execute(context.Background(), LogoutInput{}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if auth.logoutCalls != 1 {
		t.Fatalf("expected logout call")
	}
}

func TestMutateRecordCommand(t *testing.T) {
	var gotChanges map[string]any
	ctrl, loads := newDealController(t, func(_ context.Context, id string, changes map[string]any) (adminapi.Deal, error) {
		gotChanges = changes
		return adminapi.Deal{ID: id}, nil
	})
	telemetry := &stubTelemetry{}
	cmd := NewMutateRecordCommand[adminapi.Deal](ctrl, telemetry)
	if err := cmd.Execute(context.Background(), MutateRecordInput{ID: "d-1", Changes: map[string]any{"title": "x"}}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if gotChanges["title"] != "x" {
		t.Fatalf("expected changes forwarded, got %v", gotChanges)
	}
	if *loads != 1 {
		t.Fatalf("expected reload after mutation, got %d loads", *loads)
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry")
	}
}

func TestMutateRecordCommandRejectsEmptyChanges(t *testing.T) {
	ctrl, loads := newDealController(t, func(context.Context, string, map[string]any) (adminapi.Deal, error) {
		t.Fatalf("mutate should not be called")
		return adminapi.Deal{}, nil
	})
	err := NewMutateRecordCommand[adminapi.Deal](ctrl, nil).Execute(context.Background(), MutateRecordInput{ID: "d-1"})
	if adminapi.KindOf(err) != adminapi.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if *loads != 0 {
		t.Fatalf("expected no reload")
	}
}

func TestRecordActionCommand(t *testing.T) {
	ctrl, loads := newDealController(t, nil)
	res := &stubResource{}
	cmd := NewRecordActionCommand[adminapi.Deal](ctrl, res.Action, DefaultActions()[adminapi.ResourceDeals], nil)
	if err := cmd.Execute(context.Background(), RecordActionInput{ID: "d-1", Action: "Approve"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if res.actionCalls != 1 || res.lastAction != "approve" {
		t.Fatalf("expected approve action, got %d %q", res.actionCalls, res.lastAction)
	}
	if *loads != 1 {
		t.Fatalf("expected reload after action")
	}

	err := cmd.Execute(context.Background(), RecordActionInput{ID: "d-1", Action: "publish"})
	if adminapi.KindOf(err) != adminapi.KindValidation {
		t.Fatalf("expected validation error for disallowed action, got %v", err)
	}
	if res.actionCalls != 1 {
		t.Fatalf("disallowed action reached backend")
	}
}

func TestDeleteRecordCommandRequiresConfirmation(t *testing.T) {
	res := &stubResource{}
	reloader := &stubReloader{}
	cmd := NewDeleteRecordCommand(res, reloader, nil)

	err := cmd.Execute(context.Background(), DeleteRecordInput{ID: "d-1"})
	if !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if res.deleteCalls != 0 {
		t.Fatalf("delete ran without confirmation")
	}

	if err := cmd.Execute(context.Background(), DeleteRecordInput{ID: "d-1", Confirmed: true}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if res.deleteCalls != 1 || res.lastID != "d-1" {
		t.Fatalf("expected delete of d-1")
	}
	if reloader.calls != 1 {
		t.Fatalf("expected reload after delete")
	}
}

func TestDeleteRecordCommandPropagatesFailure(t *testing.T) {
	res := &stubResource{err: &adminapi.APIError{Kind: adminapi.KindServer, Message: "boom"}}
	reloader := &stubReloader{}
	err := NewDeleteRecordCommand(res, reloader, nil).Execute(context.Background(), DeleteRecordInput{ID: "d-1", Confirmed: true})
	if err == nil || err.Error() != "boom" {
		t.Fatalf("expected backend error, got %v", err)
	}
	if reloader.calls != 0 {
		t.Fatalf("should not reload after failed delete")
	}
}

func TestDeleteAllCommand(t *testing.T) {
	res := &stubResource{}
	telemetry := &stubTelemetry{}
	cmd := NewDeleteAllCommand(res, nil, telemetry)
	if err := cmd.Execute(context.Background(), DeleteAllInput{}); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if err := cmd.Execute(context.Background(), DeleteAllInput{Confirmed: true}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if res.deleteAllCalls != 1 {
		t.Fatalf("expected one delete-all call, got %d", res.deleteAllCalls)
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry")
	}
}

func TestBatchApproveCommand(t *testing.T) {
	approver := &stubApprover{}
	reloader := &stubReloader{}
	cmd := NewBatchApproveCommand(approver, reloader, nil)
	if err := cmd.Execute(context.Background(), BatchApproveInput{IDs: []string{"d-1", "d-2"}}); !errors.Is(err, ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if err := cmd.Execute(context.Background(), BatchApproveInput{IDs: []string{"d-1", "d-2"}, Confirmed: true}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if approver.calls != 1 || len(approver.ids) != 2 {
		t.Fatalf("expected approval of two deals")
	}
	if reloader.calls != 1 {
		t.Fatalf("expected reload")
	}
}
