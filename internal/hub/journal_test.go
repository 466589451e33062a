package hub

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otto/internal/device"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()

	journal, err := OpenJournal(filepath.Join(t.TempDir(), "otto.db"))
	require.NoError(t, err)
	t.Cleanup(func() { journal.Close() })

	return journal
}

func snapshotAt(power string, volume int, at time.Time) device.State {
	return device.State{
		Available:   true,
		Power:       power,
		VolumeOppo:  volume,
		VolumeLevel: float64(volume) / 100.0,
		Playback:    "stopped",
		Source:      "Disc",
		UpdatedAt:   at,
	}
}

func TestJournalRecord(t *testing.T) {
	t.Run("writes only on state change", func(t *testing.T) {
		journal := openTestJournal(t)
		now := time.Now()

		written, err := journal.Record("player1", snapshotAt("on", 50, now))
		require.NoError(t, err)
		assert.True(t, written)

		// Same snapshot at a later tick is not a transition
		written, err = journal.Record("player1", snapshotAt("on", 50, now.Add(10*time.Second)))
		require.NoError(t, err)
		assert.False(t, written)

		written, err = journal.Record("player1", snapshotAt("on", 63, now.Add(20*time.Second)))
		require.NoError(t, err)
		assert.True(t, written)

		entries, err := journal.Recent("player1", 10)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("devices are journaled independently", func(t *testing.T) {
		journal := openTestJournal(t)
		now := time.Now()

		_, err := journal.Record("player1", snapshotAt("on", 50, now))
		require.NoError(t, err)
		written, err := journal.Record("player2", snapshotAt("on", 50, now))
		require.NoError(t, err)
		assert.True(t, written)
	})
}

func TestJournalRecent(t *testing.T) {
	journal := openTestJournal(t)
	base := time.Now().Add(-time.Hour)

	for i, volume := range []int{10, 20, 30} {
		_, err := journal.Record("player1", snapshotAt("on", volume, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	t.Run("returns newest first", func(t *testing.T) {
		entries, err := journal.Recent("player1", 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, 30, entries[0].VolumeOppo)
		assert.Equal(t, 10, entries[2].VolumeOppo)
	})

	t.Run("honors the limit", func(t *testing.T) {
		entries, err := journal.Recent("player1", 2)
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("unknown device yields no entries", func(t *testing.T) {
		entries, err := journal.Recent("ghost", 10)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
