package storage_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alejandrodnm/atrbot/internal/adapters/storage"
	"github.com/alejandrodnm/atrbot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateFile_LoadMissing(t *testing.T) {
	sf := storage.NewStateFile(filepath.Join(t.TempDir(), "state.json"))

	st, existed, err := sf.Load(context.Background())
	require.NoError(t, err, "un fichero ausente no es un error")
	assert.False(t, existed)
	assert.Equal(t, domain.BotState{}, st)
}

func TestStateFile_SaveThenLoad(t *testing.T) {
	sf := storage.NewStateFile(filepath.Join(t.TempDir(), "state.json"))
	ctx := context.Background()

	in := domain.NewBotState(time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC))
	in.Mode = domain.ModeLong
	in.RefPrice = 65000.5
	in.PositionQty = 0.0007
	in.RealizedPnL = 12.34
	in.RealizedPnLToday = 1.5
	in.CumFees = 0.42
	in.TradesToday = 3
	in.LastTradeTS = 1700000000000

	require.NoError(t, sf.Save(ctx, in))

	out, existed, err := sf.Load(ctx)
	require.NoError(t, err)
	assert.True(t, existed)
	assert.Equal(t, in, out)
}

func TestStateFile_SaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	sf := storage.NewStateFile(filepath.Join(dir, "state.json"))
	ctx := context.Background()

	st := domain.NewBotState(time.Now().UTC())
	require.NoError(t, sf.Save(ctx, st))
	st.TradesToday = 1
	require.NoError(t, sf.Save(ctx, st))

	// Tras cada Save sólo debe quedar el fichero final.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())

	out, _, err := sf.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, out.TradesToday, "queda la última versión completa")
}

func TestStateFile_FieldNamesMatchPersistedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	sf := storage.NewStateFile(path)

	st := domain.NewBotState(time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC))
	require.NoError(t, sf.Save(context.Background(), st))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	for _, key := range []string{
		"mode", "ref_price", "position_qty", "realized_pnl", "realized_pnl_today",
		"cum_fees", "trades_today", "last_trade_ts", "equity_start_of_day", "day_key",
	} {
		assert.Contains(t, m, key)
	}
	assert.Equal(t, "FLAT", m["mode"])
	assert.Equal(t, "2026-08-25", m["day_key"])
}

func TestStateFile_CorruptFileIsAnError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, _, err := storage.NewStateFile(path).Load(context.Background())
	assert.Error(t, err)
}
