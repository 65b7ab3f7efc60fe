package persist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlauncher/lumen/internal/notification"
)

func testMapping() map[string][]notification.ConversationRecord {
	return map[string][]notification.ConversationRecord{
		"com.example.chat": {
			{ConversationID: "team", ConversationTitle: "Team", Sender: "Alice", Message: "Hello", Timestamp: 200, Category: "msg"},
			{ConversationID: "bob", Sender: "Bob", Message: "Lunch?", Timestamp: 100},
		},
		"com.example.mail": {
			{ConversationID: "default", Message: "2 new messages", Timestamp: 50},
		},
	}
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	mapping := testMapping()
	require.NoError(t, store.Save(mapping))

	got := store.Load()
	assert.Equal(t, mapping, got)
}

func TestLoad_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")

	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(testMapping()))
	require.NoError(t, store.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, testMapping(), reopened.Load())
}

func TestLoad_OrderedByPostTimeDescending(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "conversations.db"))
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(map[string][]notification.ConversationRecord{
		"app": {
			{ConversationID: "a", Timestamp: 10},
			{ConversationID: "b", Timestamp: 30},
			{ConversationID: "c", Timestamp: 20},
		},
	}))

	records := store.Load()["app"]
	require.Len(t, records, 3)
	assert.Equal(t, "b", records[0].ConversationID)
	assert.Equal(t, "c", records[1].ConversationID)
	assert.Equal(t, "a", records[2].ConversationID)
}

func TestLoad_MissingFileIsEmpty(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "does-not-exist-yet.db"))
	require.NoError(t, err)
	defer store.Close()

	assert.Empty(t, store.Load())
}

func TestOpen_CorruptFileRecovers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")
	require.NoError(t, os.WriteFile(path, []byte("this is not a database"), 0o644))

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	assert.Empty(t, store.Load())

	// The recreated file must accept new snapshots.
	require.NoError(t, store.Save(testMapping()))
	assert.Equal(t, testMapping(), store.Load())
}

func TestSave_OfLoadedSnapshotIsLossless(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conversations.db")

	store, err := Open(path)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(testMapping()))

	loaded := store.Load()
	require.NoError(t, store.Save(loaded))
	assert.Equal(t, loaded, store.Load())
}

func TestMemoryOnlyStore(t *testing.T) {
	store := &Store{}

	assert.Empty(t, store.Load())
	assert.NoError(t, store.Save(testMapping()))
	assert.NoError(t, store.Close())
}
