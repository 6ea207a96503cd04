package adminapi

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionReadsStoreOnce(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	require.NoError(t, store.SaveToken(ctx, DefaultTokenKey, "persisted"))

	session, err := NewSession(ctx, store, "")
	require.NoError(t, err)
	assert.Equal(t, "persisted", session.Token())

	require.NoError(t, store.SaveToken(ctx, DefaultTokenKey, "changed behind our back"))
	assert.Equal(t, "persisted", session.Token())
}

func TestSessionSetAndClear(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryTokenStore()
	session, err := NewSession(ctx, store, "custom_key")
	require.NoError(t, err)
	assert.False(t, session.Authenticated())

	require.Error(t, session.SetToken(ctx, ""))
	require.NoError(t, session.SetToken(ctx, "abc"))
	assert.True(t, session.Authenticated())
	stored, _ := store.LoadToken(ctx, "custom_key")
	assert.Equal(t, "abc", stored)

	require.NoError(t, session.ClearToken(ctx))
	assert.False(t, session.Authenticated())
	stored, _ = store.LoadToken(ctx, "custom_key")
	assert.Empty(t, stored)
}

type failingStore struct{ MemoryTokenStore }

func (f *failingStore) DeleteToken(context.Context, string) error {
	return errors.New("disk full")
}

func TestSessionClearDropsMemoryEvenWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{MemoryTokenStore: MemoryTokenStore{tokens: map[string]string{DefaultTokenKey: "t"}}}
	session, err := NewSession(ctx, store, "")
	require.NoError(t, err)

	err = session.ClearToken(ctx)
	require.Error(t, err)
	assert.False(t, session.Authenticated())
}

func TestNilSessionIsSignedOut(t *testing.T) {
	var session *Session
	assert.Equal(t, "", session.Token())
	assert.False(t, session.Authenticated())
	assert.NoError(t, session.ClearToken(context.Background()))
}

func TestFileTokenStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.yaml")
	store := NewFileTokenStore(path)

	token, err := store.LoadToken(ctx, DefaultTokenKey)
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, store.SaveToken(ctx, DefaultTokenKey, "file-token"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	reopened, err := NewSession(ctx, NewFileTokenStore(path), "")
	require.NoError(t, err)
	assert.Equal(t, "file-token", reopened.Token())

	require.NoError(t, reopened.ClearToken(ctx))
	token, err = store.LoadToken(ctx, DefaultTokenKey)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestFileTokenStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- just\n- a list\n"), 0o600))

	_, err := NewSession(context.Background(), NewFileTokenStore(path), "")
	require.Error(t, err)
}

func TestRedisTokenStore(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	store := NewRedisTokenStore(rdb, "rensights:", time.Hour)

	mock.ExpectGet("rensights:" + DefaultTokenKey).RedisNil()
	mock.ExpectSet("rensights:"+DefaultTokenKey, "redis-token", time.Hour).SetVal("OK")
	mock.ExpectDel("rensights:" + DefaultTokenKey).SetVal(1)

	session, err := NewSession(ctx, store, "")
	require.NoError(t, err)
	assert.False(t, session.Authenticated())

	require.NoError(t, session.SetToken(ctx, "redis-token"))
	require.NoError(t, session.ClearToken(ctx))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTokenStoreLoadsExistingToken(t *testing.T) {
	ctx := context.Background()
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("s:" + DefaultTokenKey).SetVal("existing")

	session, err := NewSession(ctx, NewRedisTokenStore(rdb, "s:", 0), "")
	require.NoError(t, err)
	assert.Equal(t, "existing", session.Token())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisTokenStoreSurfacesErrors(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	mock.ExpectGet("s:" + DefaultTokenKey).SetErr(errors.New("connection refused"))

	_, err := NewSession(context.Background(), NewRedisTokenStore(rdb, "s:", 0), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}
