package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/screening"
)

func TestFileWriterWritesReport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")
	w, err := NewFileWriter(dir, zap.NewNop().Sugar())
	require.NoError(t, err)

	rep := &Report{
		ID:      uuid.New(),
		Subject: screening.Subject{Name: "Jane Doe", EntityType: screening.EntityIndividual},
	}
	require.NoError(t, w.Write(rep))

	raw, err := os.ReadFile(filepath.Join(dir, rep.ID.String()+".json"))
	require.NoError(t, err)

	var decoded Report
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, rep.ID, decoded.ID)
	assert.Equal(t, "Jane Doe", decoded.Subject.Name)
}

func TestFileWriterRejectsUnwritableDirectory(t *testing.T) {
	blocking := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(blocking, []byte("x"), 0o644))

	_, err := NewFileWriter(filepath.Join(blocking, "reports"), zap.NewNop().Sugar())
	assert.Error(t, err)
}
