package favorites

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*LocalStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, dir
}

func TestLocalToggleRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)

	assert.False(t, store.Has("n1"))

	fav, err := store.Toggle("n1")
	require.NoError(t, err)
	assert.True(t, fav)
	assert.True(t, store.Has("n1"))

	fav, err = store.Toggle("n1")
	require.NoError(t, err)
	assert.False(t, fav)
	assert.False(t, store.Has("n1"))
}

func TestLocalPersistsSortedArray(t *testing.T) {
	store, dir := newTestStore(t)

	_, err := store.Toggle("zebra")
	require.NoError(t, err)
	_, err = store.Toggle("alpha")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, localFileName))
	require.NoError(t, err)

	var arr []string
	require.NoError(t, json.Unmarshal(data, &arr))
	assert.Equal(t, []string{"alpha", "zebra"}, arr)
}

func TestLocalSurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	_, err = store.Toggle("n1")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewLocalStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	assert.True(t, reopened.Has("n1"))
	assert.Equal(t, []string{"n1"}, reopened.IDs())
}

func TestLocalIgnoresCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, localFileName), []byte("{not json"), 0644))

	store, err := NewLocalStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Empty(t, store.IDs())
}

func TestLocalReloadsOnExternalWrite(t *testing.T) {
	store, dir := newTestStore(t)

	data, err := json.Marshal([]string{"external"})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, localFileName), data, 0644))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if store.Has("external") {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("external write never picked up")
}
