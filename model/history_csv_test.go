package model

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsiscan/types"
)

func newStore(t *testing.T) *CSVStore {
	t.Helper()
	return NewCSVStore(filepath.Join(t.TempDir(), "data", "rsi-history.csv"), loc)
}

func TestCSVStore_LoadMissing(t *testing.T) {
	_, err := newStore(t).Load(context.Background())
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestCSVStore_SaveFormat(t *testing.T) {
	s := newStore(t)
	err := s.Save(context.Background(), []types.Record{
		rec("AAAUSDT", 82.5, types.SignalOverbought, time.Date(2025, 3, 10, 12, 15, 0, 0, loc)),
		rec("CCCUSDT", 12.34, types.SignalOversold, time.Date(2025, 3, 10, 4, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)

	b, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t,
		"Symbol,RSI,Signal,Timestamp\n"+
			"AAAUSDT,82.5,超买,2025-03-10 12:15\n"+
			"CCCUSDT,12.34,超卖,2025-03-10 12:00\n",
		string(b))
}

func TestCSVStore_LoadWrittenFile(t *testing.T) {
	s := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), []byte(
		"Symbol,RSI,Signal,Timestamp\n"+
			"AAAUSDT,82.5,超买,2025-03-10 12:15\n"+
			"BBBUSDT,21.0,Oversold,2025-03-09 08:00:00\n"), 0o644))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "AAAUSDT", got[0].Symbol)
	assert.Equal(t, 82.5, got[0].RSI)
	assert.Equal(t, types.SignalOverbought, got[0].Signal)
	assert.True(t, got[0].Timestamp.Equal(time.Date(2025, 3, 10, 12, 15, 0, 0, loc)))
	assert.Equal(t, types.SignalOversold, got[1].Signal)
	assert.True(t, got[1].Timestamp.Equal(time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)))
}

func TestCSVStore_LoadHeaderOnly(t *testing.T) {
	s := newStore(t)
	require.NoError(t, s.Save(context.Background(), nil))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVStore_LoadCorrupt(t *testing.T) {
	cases := map[string]string{
		"wrong header":  "Name,Value\nAAAUSDT,1\n",
		"bad rsi":       "Symbol,RSI,Signal,Timestamp\nAAAUSDT,abc,超买,2025-03-10 12:15\n",
		"nan rsi":       "Symbol,RSI,Signal,Timestamp\nAAAUSDT,NaN,超买,2025-03-10 12:15\n",
		"inf rsi":       "Symbol,RSI,Signal,Timestamp\nAAAUSDT,+Inf,超买,2025-03-10 12:15\n",
		"rsi above 100": "Symbol,RSI,Signal,Timestamp\nAAAUSDT,120,超买,2025-03-10 12:15\n",
		"bad signal":    "Symbol,RSI,Signal,Timestamp\nAAAUSDT,80,买入,2025-03-10 12:15\n",
		"bad timestamp": "Symbol,RSI,Signal,Timestamp\nAAAUSDT,80,超买,yesterday\n",
		"bad quoting":   "Symbol,RSI,Signal,Timestamp\n\"AAAUSDT,80,超买,2025-03-10 12:15\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			s := newStore(t)
			require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
			require.NoError(t, os.WriteFile(s.Path(), []byte(body), 0o644))

			_, err := s.Load(context.Background())
			assert.ErrorIs(t, err, ErrCorruptHistory)
		})
	}
}
