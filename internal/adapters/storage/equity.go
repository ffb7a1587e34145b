package storage

// equity.go — curva de equity realizada en CSV, un punto por posición cerrada.

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

var equityHeader = []string{"ts_ms", "realized_pnl", "cum_fees", "position_qty"}

// EquityFile implementa ports.EquityLog sobre un CSV append-only.
type EquityFile struct {
	path string
}

// NewEquityFile crea el log apuntando a la ruta dada; no toca el disco.
func NewEquityFile(path string) *EquityFile {
	return &EquityFile{path: path}
}

// Append añade un punto al final de la curva. La cabecera se escribe sólo
// cuando el fichero es nuevo o está vacío.
func (f *EquityFile) Append(ctx context.Context, p domain.EquityPoint) error {
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("storage.EquityFile.Append: open %q: %w", f.path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("storage.EquityFile.Append: stat: %w", err)
	}

	w := csv.NewWriter(file)
	if info.Size() == 0 {
		if err := w.Write(equityHeader); err != nil {
			return fmt.Errorf("storage.EquityFile.Append: header: %w", err)
		}
	}
	if err := w.Write([]string{
		strconv.FormatInt(p.TS, 10),
		strconv.FormatFloat(p.RealizedPnL, 'f', -1, 64),
		strconv.FormatFloat(p.CumFees, 'f', -1, 64),
		strconv.FormatFloat(p.PositionQty, 'f', -1, 64),
	}); err != nil {
		return fmt.Errorf("storage.EquityFile.Append: write: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("storage.EquityFile.Append: flush: %w", err)
	}
	return nil
}
