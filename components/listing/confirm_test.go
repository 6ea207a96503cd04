package listing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmationHappyPath(t *testing.T) {
	runs := 0
	c := NewConfirmation("Delete all translations?", func(context.Context) error {
		runs++
		return nil
	})
	var seen []ConfirmState
	c.OnTransition(func(_, to ConfirmState) { seen = append(seen, to) })

	require.NoError(t, c.Request())
	require.NoError(t, c.Confirm())
	require.NoError(t, c.Execute(context.Background()))

	assert.Equal(t, ConfirmDone, c.State())
	assert.Equal(t, 1, runs)
	assert.Equal(t, []ConfirmState{ConfirmRequested, ConfirmConfirmed, ConfirmExecuting, ConfirmDone}, seen)
}

func TestConfirmationRequiresConfirmBeforeExecute(t *testing.T) {
	runs := 0
	c := NewConfirmation("Approve all?", func(context.Context) error {
		runs++
		return nil
	})
	assert.ErrorIs(t, c.Execute(context.Background()), ErrInvalidTransition)
	require.NoError(t, c.Request())
	assert.ErrorIs(t, c.Execute(context.Background()), ErrInvalidTransition)
	assert.Equal(t, 0, runs)
	assert.Equal(t, ConfirmRequested, c.State())
}

func TestConfirmationDecline(t *testing.T) {
	runs := 0
	c := NewConfirmation("Delete?", func(context.Context) error {
		runs++
		return nil
	})
	require.NoError(t, c.Request())
	require.NoError(t, c.Decline())
	assert.Equal(t, ConfirmIdle, c.State())
	assert.ErrorIs(t, c.Confirm(), ErrInvalidTransition)
	assert.Equal(t, 0, runs)
}

func TestConfirmationFailure(t *testing.T) {
	c := NewConfirmation("Delete?", func(context.Context) error {
		return errors.New("backend refused")
	})
	require.NoError(t, c.Request())
	require.NoError(t, c.Confirm())
	err := c.Execute(context.Background())
	require.Error(t, err)
	assert.Equal(t, ConfirmFailed, c.State())
	assert.EqualError(t, c.Err(), "backend refused")

	require.NoError(t, c.Request())
	assert.NoError(t, c.Err())
}

func TestConfirmationRecoversPanics(t *testing.T) {
	c := NewConfirmation("Delete?", func(context.Context) error { panic("boom") })
	require.NoError(t, c.Request())
	require.NoError(t, c.Confirm())
	require.Error(t, c.Execute(context.Background()))
	assert.Equal(t, ConfirmFailed, c.State())
	require.NoError(t, c.Reset())
	assert.Equal(t, ConfirmIdle, c.State())
}

func TestConfirmationCannotRunTwice(t *testing.T) {
	c := NewConfirmation("Delete?", func(context.Context) error { return nil })
	require.NoError(t, c.Request())
	require.NoError(t, c.Confirm())
	require.NoError(t, c.Execute(context.Background()))
	assert.ErrorIs(t, c.Execute(context.Background()), ErrInvalidTransition)
}
