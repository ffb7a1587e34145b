package storage

// statefile.go — estado del bot en JSON, reescrito de forma atómica en cada
// mutación: o queda el estado nuevo completo o queda el anterior, nunca un
// fichero truncado a medias.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alejandrodnm/atrbot/internal/domain"
)

// StateFile implementa ports.StateStore sobre un único fichero JSON.
type StateFile struct {
	path string
}

// NewStateFile crea el store apuntando a la ruta dada; no toca el disco.
func NewStateFile(path string) *StateFile {
	return &StateFile{path: path}
}

// Load lee el estado persistido. Que el fichero no exista no es un error:
// devuelve existed=false y el estado cero para que el caller construya uno nuevo.
func (f *StateFile) Load(ctx context.Context) (domain.BotState, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.BotState{}, false, nil
	}
	if err != nil {
		return domain.BotState{}, false, fmt.Errorf("storage.StateFile.Load: read %q: %w", f.path, err)
	}

	var st domain.BotState
	if err := json.Unmarshal(data, &st); err != nil {
		return domain.BotState{}, false, fmt.Errorf("storage.StateFile.Load: parse %q: %w", f.path, err)
	}
	return st, true, nil
}

// Save escribe el estado con el patrón temp-file-then-rename en el mismo
// directorio, con fsync antes del rename.
func (f *StateFile) Save(ctx context.Context, st domain.BotState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("storage.StateFile.Save: marshal: %w", err)
	}

	// El temporal vive junto al destino: rename entre directorios (o
	// filesystems) dejaría de ser atómico.
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("storage.StateFile.Save: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("storage.StateFile.Save: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("storage.StateFile.Save: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("storage.StateFile.Save: close: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("storage.StateFile.Save: rename: %w", err)
	}
	return nil
}
