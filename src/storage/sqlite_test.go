package storage

import (
	"path/filepath"
	"testing"
	"time"

	"mt5-gateway/src/config"
	"mt5-gateway/src/logger"
	"mt5-gateway/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()

	cfg := &config.Config{MConfig: &models.MConfig{
		Storage: models.MStorageConfig{
			DBType:        "sqlite",
			DBPath:        filepath.Join(t.TempDir(), "journal.db"),
			RetentionDays: 30,
		},
	}}

	j, err := NewSQLiteJournal(cfg, logger.NewLogger(nil, "test"))
	require.NoError(t, err)
	require.NoError(t, j.Initialize())
	t.Cleanup(func() { j.Close() })
	return j
}

func record(op string, success bool, createdAt int64) models.MExecutionRecord {
	return models.MExecutionRecord{
		Operation: op,
		Symbol:    "EURUSD",
		Ticket:    12345,
		Success:   success,
		Kind:      "",
		Message:   "Order placed successfully",
		Details:   map[string]interface{}{"retcode": float64(10009)},
		CreatedAt: createdAt,
	}
}

// -----------------------------------------------------------------------------

func TestJournalRoundTrip(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now().Unix()

	require.NoError(t, j.SaveExecution(record("place_order", true, now)))
	require.NoError(t, j.SaveExecution(record("close_position", false, now+1)))

	records, err := j.RecentExecutions(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "close_position", records[0].Operation)
	assert.False(t, records[0].Success)
	assert.Equal(t, "place_order", records[1].Operation)
	assert.True(t, records[1].Success)
	assert.Equal(t, int64(12345), records[1].Ticket)
	assert.Equal(t, float64(10009), records[1].Details["retcode"])
}

func TestJournalLimit(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now().Unix()

	for i := 0; i < 5; i++ {
		require.NoError(t, j.SaveExecution(record("place_order", true, now+int64(i))))
	}

	records, err := j.RecentExecutions(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestJournalCleanup(t *testing.T) {
	j := newTestJournal(t)
	now := time.Now().Unix()

	old := now - 90*24*3600
	require.NoError(t, j.SaveExecution(record("place_order", true, old)))
	require.NoError(t, j.SaveExecution(record("place_order", true, now)))

	require.NoError(t, j.CleanupOldData())

	records, err := j.RecentExecutions(10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, now, records[0].CreatedAt)
}

func TestNewJournalSelection(t *testing.T) {
	cfg := &config.Config{MConfig: &models.MConfig{
		Storage: models.MStorageConfig{DBType: "mysql"},
	}}

	_, err := NewJournal(cfg, logger.NewLogger(nil, "test"))
	assert.Error(t, err)
}
