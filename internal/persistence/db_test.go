package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/gridworld/internal/telemetry"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestRecordAndReadEntries(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.RecordEntries(ctx, []telemetry.Entry{
		{Tick: 1, Actor: "hub", Severity: telemetry.Info, Message: "price posted"},
		{Tick: 2, Actor: "factory-1", Severity: telemetry.Critical, Message: "bankrupt"},
	}))
	require.NoError(t, db.RecordEntries(ctx, nil))

	got, err := db.RecentEntries(10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "bankrupt", got[0].Message)
	assert.Equal(t, telemetry.Critical, got[0].Severity)
	assert.Equal(t, uint64(1), got[1].Tick)

	got, err = db.RecentEntries(1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDailyStatsHistory(t *testing.T) {
	db := openTestDB(t)
	for day := uint64(1); day <= 5; day++ {
		require.NoError(t, db.SaveDailyStats(DailyStats{
			Tick:          day * 1440,
			Date:          "day",
			Inflation:     2 + float64(day)/10,
			ActiveDemands: int(day),
		}))
	}
	// same tick replaces the row
	require.NoError(t, db.SaveDailyStats(DailyStats{Tick: 5 * 1440, Date: "again", ActiveDemands: 50}))

	rows, err := db.StatsHistory(3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, uint64(3*1440), rows[0].Tick)
	assert.Equal(t, uint64(5*1440), rows[2].Tick)
	assert.Equal(t, 50, rows[2].ActiveDemands)
	assert.Equal(t, "again", rows[2].Date)
}

func TestMeta(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.SaveMeta("started_at", "Y0 M01 D01 00:00"))
	require.NoError(t, db.SaveMeta("started_at", "Y0 M01 D02 00:00"))

	v, err := db.GetMeta("started_at")
	require.NoError(t, err)
	assert.Equal(t, "Y0 M01 D02 00:00", v)

	_, err = db.GetMeta("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestJournalSatisfiesRecorder(t *testing.T) {
	var _ telemetry.Recorder = openTestDB(t)
}
