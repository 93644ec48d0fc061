package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Writer persists a finished report outside the database, e.g. as a JSON
// file per screening for audit handoff.
type Writer interface {
	Write(r *Report) error
}

// FileWriter writes one pretty-printed JSON file per report into a
// directory, named by report id.
type FileWriter struct {
	logger *zap.SugaredLogger
	dir    string
}

// NewFileWriter creates the directory if needed and returns a writer
// into it.
func NewFileWriter(dir string, logger *zap.SugaredLogger) (*FileWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report directory %s: %w", dir, err)
	}
	return &FileWriter{logger: logger, dir: dir}, nil
}

func (w *FileWriter) Write(r *Report) error {
	payload, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report %s: %w", r.ID, err)
	}
	path := filepath.Join(w.dir, r.ID.String()+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", r.ID, err)
	}
	w.logger.Debugw("report written", "path", path)
	return nil
}
