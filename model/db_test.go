package model

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsiscan/types"
)

// 需要真实 MySQL：RSISCAN_TEST_MYSQL_DSN="root:pass@tcp(127.0.0.1:3306)/rsiscan_test?parseTime=true"
func setupMirror(t *testing.T) *MySQLMirror {
	t.Helper()
	dsn := os.Getenv("RSISCAN_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("RSISCAN_TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	db, err := OpenDB(ctx, dsn)
	require.NoError(t, err)

	m := NewMySQLMirror(db)
	require.NoError(t, m.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = db.Exec(`DROP TABLE IF EXISTS rsi_history`)
		_ = m.Close()
	})
	return m
}

func TestMySQLMirror_SaveReplacesTable(t *testing.T) {
	m := setupMirror(t)
	ctx := context.Background()
	at := time.Date(2025, 3, 10, 4, 15, 0, 0, time.UTC)

	require.NoError(t, m.Save(ctx, []types.Record{
		rec("AAAUSDT", 82.5, types.SignalOverbought, at),
		rec("BBBUSDT", 21.3, types.SignalOversold, at.Add(-time.Hour)),
	}))
	require.NoError(t, m.Save(ctx, []types.Record{
		rec("CCCUSDT", 12.01, types.SignalOversold, at),
	}))

	got, err := m.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "CCCUSDT", got[0].Symbol)
	assert.InDelta(t, 12.01, got[0].RSI, 1e-9)
	assert.Equal(t, types.SignalOversold, got[0].Signal)
	assert.True(t, got[0].Timestamp.Equal(at))
}
