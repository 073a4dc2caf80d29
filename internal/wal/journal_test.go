package wal

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mariofilbert/natours-api/pkg/logger"
)

func init() {
	logger.Init(true)
}

func newTestJournal(t *testing.T) *Journal {
	t.Helper()

	journal, err := NewJournal(filepath.Join(t.TempDir(), "events.log"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })
	return journal
}

func entry(eventID, sessionID string) Entry {
	return Entry{
		EventID:       eventID,
		SessionID:     sessionID,
		TourRef:       "7b7bc47a-5dbe-4f3c-9f6a-8f2a2f9b0001",
		CustomerEmail: "test@example.com",
		AmountTotal:   39700,
		ReceivedAt:    time.Now().UTC(),
	}
}

func TestAppendAndReadBack(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.Append(entry("evt_1", "cs_1")))
	require.NoError(t, journal.Append(entry("evt_2", "cs_2")))

	entries, err := journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "evt_1", entries[0].EventID)
	assert.Equal(t, "cs_2", entries[1].SessionID)
	assert.Equal(t, int64(39700), entries[0].AmountTotal)
}

func TestEmptyJournal(t *testing.T) {
	journal := newTestJournal(t)

	entries, err := journal.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPruneRemovesProcessedEvents(t *testing.T) {
	journal := newTestJournal(t)

	require.NoError(t, journal.Append(entry("evt_1", "cs_1")))
	require.NoError(t, journal.Append(entry("evt_2", "cs_2")))
	require.NoError(t, journal.Append(entry("evt_3", "cs_3")))

	require.NoError(t, journal.Prune([]string{"evt_1", "evt_3"}))

	entries, err := journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "evt_2", entries[0].EventID)

	// The journal stays appendable after the rewrite
	require.NoError(t, journal.Append(entry("evt_4", "cs_4")))
	entries, err = journal.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFailedPruneKeepsJournalAppendable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")

	journal, err := NewJournal(path)
	require.NoError(t, err)
	defer journal.Close()

	require.NoError(t, journal.Append(entry("evt_1", "cs_1")))
	require.NoError(t, journal.Append(entry("evt_2", "cs_2")))

	// Block the rewrite by occupying the temp path with a directory
	require.NoError(t, os.Mkdir(path+".tmp", 0755))
	require.Error(t, journal.Prune([]string{"evt_1"}))

	// Nothing was lost and the journal still accepts writes
	entries, err := journal.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	require.NoError(t, journal.Append(entry("evt_3", "cs_3")))

	require.NoError(t, os.Remove(path+".tmp"))
	require.NoError(t, journal.Prune([]string{"evt_1"}))

	entries, err = journal.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "evt_2", entries[0].EventID)
	assert.Equal(t, "evt_3", entries[1].EventID)
}

func TestEntriesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")

	journal, err := NewJournal(path)
	require.NoError(t, err)
	require.NoError(t, journal.Append(entry("evt_1", "cs_1")))
	require.NoError(t, journal.Close())

	reopened, err := NewJournal(path)
	require.NoError(t, err)
	defer reopened.Close()

	entries, err := reopened.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "evt_1", entries[0].EventID)
}
