package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "nested", "dash.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestLoadMissingPreference(t *testing.T) {
	st := openTemp(t)
	_, err := st.LoadPreference(context.Background(), "isLive")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAndLoadPreference(t *testing.T) {
	st := openTemp(t)
	ctx := context.Background()

	require.NoError(t, st.SavePreference(ctx, "isLive", "false"))
	v, err := st.LoadPreference(ctx, "isLive")
	require.NoError(t, err)
	assert.Equal(t, "false", v)

	require.NoError(t, st.SavePreference(ctx, "isLive", "true"))
	v, err = st.LoadPreference(ctx, "isLive")
	require.NoError(t, err)
	assert.Equal(t, "true", v)
}

func TestPreferenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dash.db")
	ctx := context.Background()

	st, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, st.SavePreference(ctx, "isLive", "false"))
	require.NoError(t, st.Close())

	st, err = Open(path)
	require.NoError(t, err)
	defer st.Close()
	v, err := st.LoadPreference(ctx, "isLive")
	require.NoError(t, err)
	assert.Equal(t, "false", v)
}

func TestNilStoreIsSafe(t *testing.T) {
	var st *Store
	assert.NoError(t, st.Close())
	assert.NoError(t, st.SavePreference(context.Background(), "k", "v"))
	_, err := st.LoadPreference(context.Background(), "k")
	assert.Error(t, err)
}

func TestRedisKeyPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	assert.Equal(t, "dashboard:pref:isLive", NewRedisStore(client, "").Key("isLive"))
	assert.Equal(t, "x:isLive", NewRedisStore(client, "x:").Key("isLive"))
}

func TestOpenRedisRejectsBadURL(t *testing.T) {
	_, err := OpenRedis(context.Background(), "not a url", "")
	assert.Error(t, err)
}
