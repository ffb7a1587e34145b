package storage

// sqlite.go — histórico de trades en SQLite (pure Go, sin CGo).
//
// La fuente de verdad del estado del bot es el state file; esta tabla es el
// histórico inmutable de fills para informes y auditoría. Un fallo aquí nunca
// aborta el tick: el caller lo degrada a warning.

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alejandrodnm/atrbot/internal/domain"
	_ "modernc.org/sqlite"
)

const schema = `
-- Un trade ejecutado por fila
CREATE TABLE IF NOT EXISTS trades (
    id         TEXT PRIMARY KEY,
    ts         INTEGER NOT NULL,           -- epoch ms del fill
    pair       TEXT    NOT NULL,
    side       TEXT    NOT NULL,           -- BUY | SELL
    type       TEXT    NOT NULL,           -- market | limit
    price      REAL    NOT NULL,
    quantity   REAL    NOT NULL,
    notional   REAL    NOT NULL,
    fee        REAL    NOT NULL DEFAULT 0,
    pnl        REAL    NOT NULL DEFAULT 0, -- realizado; 0 en compras
    mode_after TEXT    NOT NULL,           -- FLAT | LONG tras aplicar el fill
    paper      INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_trades_ts ON trades(ts DESC);
`

// TradeStore implementa ports.TradeLog usando SQLite.
type TradeStore struct {
	db *sql.DB
}

// NewTradeStore abre (o crea) la base de datos en la ruta dada y aplica el schema.
func NewTradeStore(path string) (*TradeStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewTradeStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite es single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewTradeStore: apply schema: %w", err)
	}
	return &TradeStore{db: db}, nil
}

// RecordTrade inserta un trade ejecutado.
func (s *TradeStore) RecordTrade(ctx context.Context, t domain.TradeRecord) error {
	paper := 0
	if t.Paper {
		paper = 1
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, ts, pair, side, type, price, quantity, notional, fee, pnl, mode_after, paper)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TS, t.Pair, string(t.Side), string(t.Type),
		t.Price, t.Quantity, t.Notional, t.Fee, t.PnL, string(t.ModeAfter), paper,
	); err != nil {
		return fmt.Errorf("storage.RecordTrade: insert %s: %w", t.ID, err)
	}
	return nil
}

// RecentTrades devuelve los últimos limit trades, el más reciente primero.
func (s *TradeStore) RecentTrades(ctx context.Context, limit int) ([]domain.TradeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ts, pair, side, type, price, quantity, notional, fee, pnl, mode_after, paper
		FROM trades
		ORDER BY ts DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.RecentTrades: query: %w", err)
	}
	defer rows.Close()

	var out []domain.TradeRecord
	for rows.Next() {
		var t domain.TradeRecord
		var side, typ, mode string
		var paper int
		if err := rows.Scan(
			&t.ID, &t.TS, &t.Pair, &side, &typ,
			&t.Price, &t.Quantity, &t.Notional, &t.Fee, &t.PnL, &mode, &paper,
		); err != nil {
			return nil, fmt.Errorf("storage.RecentTrades: scan row: %w", err)
		}
		t.Side = domain.Side(side)
		t.Type = domain.OrderType(typ)
		t.ModeAfter = domain.Mode(mode)
		t.Paper = paper == 1
		out = append(out, t)
	}
	return out, rows.Err()
}

// Stats agrega contadores y totales sobre todo el histórico.
func (s *TradeStore) Stats(ctx context.Context) (domain.TradeStats, error) {
	var st domain.TradeStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN side = 'BUY'  THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN side = 'SELL' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(pnl), 0),
		       COALESCE(SUM(fee), 0)
		FROM trades`,
	).Scan(&st.Trades, &st.Buys, &st.Sells, &st.TotalPnL, &st.TotalFees)
	if err != nil {
		return domain.TradeStats{}, fmt.Errorf("storage.Stats: query: %w", err)
	}
	return st, nil
}

// Close cierra la conexión a la base de datos.
func (s *TradeStore) Close() error {
	return s.db.Close()
}
