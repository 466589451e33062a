package hub

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"otto/internal/device"
)

// JournalEntry is one recorded state transition of a player.
type JournalEntry struct {
	ID          string    `json:"id"`
	DeviceID    string    `json:"device_id"`
	Available   bool      `json:"available"`
	Power       string    `json:"power"`
	VolumeOppo  int       `json:"volume_oppo"`
	VolumeLevel float64   `json:"volume_level"`
	Muted       bool      `json:"muted"`
	Playback    string    `json:"playback"`
	Source      string    `json:"source"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Journal persists state transitions to SQLite. Record drops snapshots
// identical to the last one written per device, so steady-state polling
// does not grow the table.
type Journal struct {
	db    *sql.DB
	mutex sync.Mutex
	last  map[string]device.State
}

// OpenJournal opens (and creates if needed) the journal database.
func OpenJournal(dbPath string) (*Journal, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	journal := &Journal{
		db:   db,
		last: make(map[string]device.State),
	}

	if err := journal.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize journal schema: %w", err)
	}

	return journal, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

func (j *Journal) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS state_journal (
			id TEXT PRIMARY KEY,
			device_id TEXT NOT NULL,
			available INTEGER NOT NULL,
			power TEXT NOT NULL,
			volume_oppo INTEGER NOT NULL,
			volume_level REAL NOT NULL,
			muted INTEGER NOT NULL,
			playback TEXT NOT NULL,
			source TEXT NOT NULL,
			observed_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_state_journal_device ON state_journal(device_id, observed_at)`,
	}

	for _, query := range queries {
		if _, err := j.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Record appends a snapshot if it differs from the last recorded one.
// It reports whether a row was written.
func (j *Journal) Record(deviceID string, state device.State) (bool, error) {
	j.mutex.Lock()
	defer j.mutex.Unlock()

	if last, seen := j.last[deviceID]; seen && sameState(last, state) {
		return false, nil
	}

	query := `INSERT INTO state_journal
		(id, device_id, available, power, volume_oppo, volume_level, muted, playback, source, observed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	observedAt := state.UpdatedAt
	if observedAt.IsZero() {
		observedAt = time.Now()
	}

	_, err := j.db.Exec(query,
		uuid.NewString(),
		deviceID,
		state.Available,
		state.Power,
		state.VolumeOppo,
		state.VolumeLevel,
		state.Muted,
		state.Playback,
		state.Source,
		observedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to record state: %w", err)
	}

	j.last[deviceID] = state
	return true, nil
}

// Recent returns the newest entries for a device, newest first.
func (j *Journal) Recent(deviceID string, limit int) ([]JournalEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT id, device_id, available, power, volume_oppo, volume_level, muted, playback, source, observed_at
		FROM state_journal WHERE device_id = ? ORDER BY observed_at DESC LIMIT ?`

	rows, err := j.db.Query(query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var entry JournalEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.DeviceID,
			&entry.Available,
			&entry.Power,
			&entry.VolumeOppo,
			&entry.VolumeLevel,
			&entry.Muted,
			&entry.Playback,
			&entry.Source,
			&entry.ObservedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entries = append(entries, entry)
	}

	return entries, rows.Err()
}

// sameState compares snapshots ignoring the poll timestamp.
func sameState(a, b device.State) bool {
	a.UpdatedAt = time.Time{}
	b.UpdatedAt = time.Time{}
	return a == b
}
