package listing

import (
	"context"
	"testing"

	"github.com/rensights/admin-dashboard/pkg/adminapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMutator struct {
	calls   int
	changes map[string]any
	err     error
}

func (s *stubMutator) Mutate(_ context.Context, id string, changes map[string]any) (adminapi.Deal, error) {
	s.calls++
	s.changes = changes
	if s.err != nil {
		return adminapi.Deal{}, s.err
	}
	return adminapi.Deal{ID: id, Title: "Updated"}, nil
}

func newEditorFixture(t *testing.T, mutator *stubMutator, validator SchemaValidator) (*Editor[adminapi.Deal], *stubFetcher) {
	t.Helper()
	stub := &stubFetcher{page: adminapi.Page[adminapi.Deal]{Content: deals(2, "PENDING"), TotalElements: 2, TotalPages: 1}}
	ctrl := newDealController(t, Options[adminapi.Deal]{Name: adminapi.ResourceDeals, Fetch: stub.Fetch, Mutate: mutator.Mutate})
	return NewEditor(ctrl, validator), stub
}

func TestEditorStagesOnlyChangedFields(t *testing.T) {
	editor, _ := newEditorFixture(t, &stubMutator{}, nil)
	require.NoError(t, editor.Open(adminapi.Deal{ID: "d-1", Title: "Old", Bedrooms: 2, Price: 100}))

	require.NoError(t, editor.Set("bedrooms", 2))
	assert.Empty(t, editor.Changes())

	require.NoError(t, editor.Set("title", "New"))
	require.NoError(t, editor.Set("price", 150))
	assert.Equal(t, map[string]any{"title": "New", "price": 150.0}, editor.Changes())

	view := editor.View()
	assert.True(t, view.Visible)
	assert.Equal(t, "d-1", view.RecordID)
	assert.Equal(t, "New", view.Fields["title"])
}

func TestEditorCancelDoesNotCallNetwork(t *testing.T) {
	mutator := &stubMutator{}
	editor, stub := newEditorFixture(t, mutator, nil)
	require.NoError(t, editor.Open(adminapi.Deal{ID: "d-1"}))
	require.NoError(t, editor.Set("title", "Draft"))

	editor.Cancel()
	assert.False(t, editor.View().Visible)
	assert.Equal(t, 0, mutator.calls)
	assert.Equal(t, 0, stub.calls)
	assert.ErrorIs(t, editor.Set("title", "x"), ErrEditorClosed)
}

func TestEditorSaveClosesAndReloads(t *testing.T) {
	mutator := &stubMutator{}
	editor, stub := newEditorFixture(t, mutator, nil)
	require.NoError(t, editor.Open(adminapi.Deal{ID: "d-1", Title: "Old"}))
	require.NoError(t, editor.Set("title", "Updated"))

	updated, err := editor.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Updated", updated.Title)
	assert.Equal(t, map[string]any{"title": "Updated"}, mutator.changes)
	assert.False(t, editor.View().Visible)
	assert.Equal(t, 1, stub.calls)
}

func TestEditorSaveFailureKeepsEditorOpen(t *testing.T) {
	mutator := &stubMutator{err: &adminapi.APIError{Kind: adminapi.KindValidation, Status: 409, Message: "Deal already approved"}}
	editor, stub := newEditorFixture(t, mutator, nil)
	require.NoError(t, editor.Open(adminapi.Deal{ID: "d-1", Title: "Old"}))
	require.NoError(t, editor.Set("title", "New"))

	_, err := editor.Save(context.Background())
	require.Error(t, err)
	view := editor.View()
	assert.True(t, view.Visible)
	assert.False(t, view.Saving)
	assert.Equal(t, "Deal already approved", view.ErrorMessage)
	assert.Equal(t, "New", view.Changes["title"])
	assert.Equal(t, 0, stub.calls)
}

func TestEditorValidatesBeforeSending(t *testing.T) {
	mutator := &stubMutator{}
	editor, _ := newEditorFixture(t, mutator, NewJSONSchemaValidator(DefaultSchemas()))
	require.NoError(t, editor.Open(adminapi.Deal{ID: "d-1", Price: 100}))
	require.NoError(t, editor.Set("price", -5))

	_, err := editor.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, adminapi.KindValidation, adminapi.KindOf(err))
	assert.Equal(t, 0, mutator.calls)
	assert.True(t, editor.View().Visible)
	assert.NotEmpty(t, editor.View().ErrorMessage)
}

func TestEditorSaveWithoutChangesSkipsNetwork(t *testing.T) {
	mutator := &stubMutator{}
	editor, stub := newEditorFixture(t, mutator, nil)
	require.NoError(t, editor.Open(adminapi.Deal{ID: "d-1", Title: "Old"}))
	require.NoError(t, editor.Set("title", "Old"))

	_, err := editor.Save(context.Background())
	require.Error(t, err)
	assert.Equal(t, adminapi.KindValidation, adminapi.KindOf(err))
	assert.Equal(t, 0, mutator.calls)
	assert.Equal(t, 0, stub.calls)

	view := editor.View()
	assert.True(t, view.Visible)
	assert.False(t, view.Saving)
	assert.Equal(t, "No changes to save", view.ErrorMessage)
}

func TestEditorSaveWhenClosed(t *testing.T) {
	editor, _ := newEditorFixture(t, &stubMutator{}, nil)
	_, err := editor.Save(context.Background())
	assert.ErrorIs(t, err, ErrEditorClosed)
}
