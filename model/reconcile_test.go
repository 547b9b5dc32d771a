package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsiscan/types"
)

var (
	loc       = time.FixedZone("UTC+8", 8*3600)
	now       = time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	retention = 7 * 24 * time.Hour
)

func rec(symbol string, rsi float64, sig types.Signal, at time.Time) types.Record {
	return types.Record{Symbol: symbol, RSI: rsi, Signal: sig, Timestamp: at}
}

func reading(symbol string, rsi float64, at time.Time) types.Reading {
	return types.NewReading(symbol, rsi, 70, 30, at)
}

func symbols(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Symbol
	}
	return out
}

func TestDeduplicate_KeepsLatest(t *testing.T) {
	older := rec("AAAUSDT", 75, types.SignalOverbought, now.Add(-2*time.Hour))
	newer := rec("AAAUSDT", 25, types.SignalOversold, now.Add(-time.Hour))

	got := Deduplicate([]types.Record{older, newer})
	require.Len(t, got, 1)
	assert.Equal(t, newer, got[0])

	got = Deduplicate([]types.Record{newer, older})
	require.Len(t, got, 1)
	assert.Equal(t, newer, got[0])
}

func TestDeduplicate_OrderNewestFirst(t *testing.T) {
	got := Deduplicate([]types.Record{
		rec("AAAUSDT", 75, types.SignalOverbought, now.Add(-3*time.Hour)),
		rec("BBBUSDT", 20, types.SignalOversold, now.Add(-time.Hour)),
		rec("CCCUSDT", 90, types.SignalOverbought, now.Add(-2*time.Hour)),
	})
	assert.Equal(t, []string{"BBBUSDT", "CCCUSDT", "AAAUSDT"}, symbols(got))
}

func TestPrune_DropsOlderThanRetention(t *testing.T) {
	got := Prune([]types.Record{
		rec("OLDUSDT", 80, types.SignalOverbought, now.Add(-retention-time.Minute)),
		rec("EDGEUSDT", 80, types.SignalOverbought, now.Add(-retention)),
		rec("NEWUSDT", 80, types.SignalOverbought, now.Add(-time.Hour)),
	}, now, retention)

	assert.Equal(t, []string{"EDGEUSDT", "NEWUSDT"}, symbols(got))
}

func TestMerge_SkipsNeutralAndPutsNewFirst(t *testing.T) {
	history := []types.Record{rec("AAAUSDT", 75, types.SignalOverbought, now.Add(-time.Hour))}
	got := Merge(history, []types.Reading{
		reading("BBBUSDT", 45, now),
		reading("CCCUSDT", 15, now),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "CCCUSDT", got[0].Symbol)
	assert.Equal(t, "AAAUSDT", got[1].Symbol)
}

func TestReconcile_TieGoesToNewReading(t *testing.T) {
	at := now.Truncate(time.Minute)
	history := []types.Record{rec("AAAUSDT", 71, types.SignalOverbought, at)}

	got := Reconcile(history, []types.Reading{reading("AAAUSDT", 88.123, now)}, now, retention)
	require.Len(t, got, 1)
	assert.Equal(t, 88.12, got[0].RSI)
}

func TestReconcile_Idempotent(t *testing.T) {
	history := []types.Record{
		rec("AAAUSDT", 75, types.SignalOverbought, now.Add(-2*24*time.Hour)),
		rec("OLDUSDT", 10, types.SignalOversold, now.Add(-9*24*time.Hour)),
	}
	readings := []types.Reading{
		reading("AAAUSDT", 82.5, now),
		reading("DDDUSDT", 12.345, now),
	}

	first := Reconcile(history, readings, now, retention)
	second := Reconcile(first, readings, now, retention)

	assert.Equal(t, first, second)
	assert.ElementsMatch(t, []string{"AAAUSDT", "DDDUSDT"}, symbols(second))
	for _, r := range second {
		switch r.Symbol {
		case "AAAUSDT":
			assert.Equal(t, 82.5, r.RSI)
		case "DDDUSDT":
			assert.Equal(t, 12.35, r.RSI)
		}
	}
}

func TestReconcile_StaleRecordSurvivesUntilExpiry(t *testing.T) {
	history := []types.Record{rec("AAAUSDT", 75, types.SignalOverbought, now.Add(-3*24*time.Hour))}

	// AAAUSDT 本轮回到中性区间，不产生读数
	got := Reconcile(history, []types.Reading{reading("AAAUSDT", 50, now)}, now, retention)
	require.Len(t, got, 1)
	assert.Equal(t, 75.0, got[0].RSI)

	later := now.Add(5 * 24 * time.Hour)
	assert.Empty(t, Reconcile(got, nil, later, retention))
}

func TestReconcile_Empty(t *testing.T) {
	assert.Empty(t, Reconcile(nil, nil, now, retention))
}
