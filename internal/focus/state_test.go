package focus

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistedState_JSONShape(t *testing.T) {
	state := &PersistedState{
		SessionID:             "record-1",
		EndTime:               1_700_000_000_000,
		Duration:              25,
		IsPaused:              true,
		PausedAt:              1_699_999_990_000,
		AccumulatedPausedTime: 30_000,
	}

	data, err := json.Marshal(state)
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, "record-1", raw["sessionId"])
	assert.Equal(t, float64(1_700_000_000_000), raw["endTime"])
	assert.Equal(t, float64(25), raw["duration"])
	assert.Equal(t, true, raw["isPaused"])
	assert.Equal(t, float64(1_699_999_990_000), raw["pausedAt"])
	assert.Equal(t, float64(30_000), raw["accumulatedPausedTime"])
}

func TestPersistedState_PausedAtOmittedWhenZero(t *testing.T) {
	data, err := json.Marshal(&PersistedState{SessionID: "record-1", EndTime: 1, Duration: 25})
	require.NoError(t, err)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "pausedAt")
}

func TestFileStateStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus-state.json")
	store := NewFileStateStore(path)

	saved := &PersistedState{
		SessionID:             "record-1",
		EndTime:               1_700_000_000_000,
		Duration:              25,
		AccumulatedPausedTime: 5_000,
	}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)
}

func TestFileStateStore_LoadMissingIsNil(t *testing.T) {
	store := NewFileStateStore(filepath.Join(t.TempDir(), "absent.json"))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileStateStore_ClearIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus-state.json")
	store := NewFileStateStore(path)

	require.NoError(t, store.Save(&PersistedState{SessionID: "record-1", Duration: 25}))
	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}

func TestFileStateStore_LoadCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "focus-state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileStateStore(path).Load()
	assert.Error(t, err)
}

func TestMemoryStateStore_RoundTrip(t *testing.T) {
	store := NewMemoryStateStore()

	state, err := store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)

	saved := &PersistedState{SessionID: "record-1", EndTime: 42, Duration: 25}
	require.NoError(t, store.Save(saved))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, saved, loaded)

	// The store holds copies; mutating the loaded value must not leak back.
	loaded.Duration = 99
	again, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, 25, again.Duration)

	require.NoError(t, store.Clear())
	state, err = store.Load()
	require.NoError(t, err)
	assert.Nil(t, state)
}
