package watchlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/complyon/kycengine/internal/screening"
)

const pepFixture = `{
  "peps": [
    {
      "name": "Angela Merkel",
      "aliases": ["Angela Dorothea Merkel"],
      "nationality": "Germany",
      "date_of_birth": "1954-07-17",
      "position": "Former Chancellor",
      "risk_level": "High",
      "family_members": [
        {"name": "Joachim Sauer", "relationship": "spouse"},
        {"name": "", "relationship": "ignored"}
      ]
    },
    {"name": "", "position": "nameless record"},
    {"name": "Bad Date", "date_of_birth": "17.07.1954"}
  ]
}`

const sanctionsFixture = `{
  "lists": {
    "OFAC": {
      "entries": [
        {
          "id": "OFAC-100",
          "name": "Viktor Bout",
          "type": "individual",
          "aliases": ["Viktor Anatolyevich Bout"],
          "date_of_birth": "1967-01-13",
          "country": "Russia",
          "sanctions_program": "SDN"
        },
        {"id": "", "name": "missing id"},
        {"id": "OFAC-101", "name": ""}
      ]
    },
    "EU": {
      "entries": [
        {
          "id": "EU-200",
          "name": "Shadow Trading LLC",
          "type": "entity",
          "nationality": "Iran"
        }
      ]
    }
  }
}`

func TestParsePEP(t *testing.T) {
	loader := NewLoader(zap.NewNop().Sugar())

	res, err := loader.Parse([]byte(pepFixture), FormatPEP)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	require.Len(t, res.Entries, 2)

	merkel := res.Entries[0]
	assert.Equal(t, "Angela Merkel", merkel.PrimaryName)
	assert.Equal(t, []string{"Angela Dorothea Merkel"}, merkel.Aliases)
	assert.Equal(t, screening.EntryIndividual, merkel.EntryType)
	assert.Equal(t, "Germany", merkel.Country)
	assert.Equal(t, screening.ProgramPEP, merkel.Program)
	assert.Equal(t, "Former Chancellor", merkel.Position)
	assert.Equal(t, screening.RiskLevelHigh, merkel.RiskLevel)
	require.NotNil(t, merkel.DateOfBirth)
	assert.Equal(t, time.Date(1954, 7, 17, 0, 0, 0, 0, time.UTC), *merkel.DateOfBirth)
	require.Len(t, merkel.Relations, 1)
	assert.Equal(t, "Joachim Sauer", merkel.Relations[0].Name)
	assert.Equal(t, "spouse", merkel.Relations[0].Relationship)

	// Unparseable dates degrade to a name-only entry.
	badDate := res.Entries[1]
	assert.Equal(t, "Bad Date", badDate.PrimaryName)
	assert.Nil(t, badDate.DateOfBirth)
}

func TestParsePEPStableIDs(t *testing.T) {
	loader := NewLoader(zap.NewNop().Sugar())

	first, err := loader.Parse([]byte(pepFixture), FormatPEP)
	require.NoError(t, err)
	second, err := loader.Parse([]byte(pepFixture), FormatPEP)
	require.NoError(t, err)

	// Derived ids must be stable across refreshes so Merge updates
	// instead of duplicating.
	assert.Equal(t, first.Entries[0].ID, second.Entries[0].ID)
	assert.NotEqual(t, first.Entries[0].ID, first.Entries[1].ID)
}

func TestParseSanctions(t *testing.T) {
	loader := NewLoader(zap.NewNop().Sugar())

	res, err := loader.Parse([]byte(sanctionsFixture), FormatSanctions)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Entries, 2)

	byID := map[string]screening.WatchlistEntry{}
	for _, e := range res.Entries {
		byID[e.ID] = e
	}

	bout, ok := byID["OFAC-100"]
	require.True(t, ok)
	assert.Equal(t, "Viktor Bout", bout.PrimaryName)
	assert.Equal(t, screening.EntryIndividual, bout.EntryType)
	assert.Equal(t, "Russia", bout.Country)
	assert.Equal(t, "OFAC", bout.Program)
	require.NotNil(t, bout.DateOfBirth)

	shadow, ok := byID["EU-200"]
	require.True(t, ok)
	assert.Equal(t, screening.EntryEntity, shadow.EntryType)
	// Country falls back to nationality when absent.
	assert.Equal(t, "Iran", shadow.Country)
	assert.Equal(t, "EU", shadow.Program)
	assert.Nil(t, shadow.DateOfBirth)
}

func TestParseErrors(t *testing.T) {
	loader := NewLoader(zap.NewNop().Sugar())

	_, err := loader.Parse([]byte("not json"), FormatPEP)
	assert.Error(t, err)

	_, err = loader.Parse([]byte("{}"), Format("csv"))
	assert.ErrorContains(t, err, "unknown watchlist format")
}

func TestLoadFile(t *testing.T) {
	loader := NewLoader(zap.NewNop().Sugar())
	dir := t.TempDir()
	path := filepath.Join(dir, "peps.json")
	require.NoError(t, os.WriteFile(path, []byte(pepFixture), 0o600))

	res, err := loader.LoadFile(path, FormatPEP)
	require.NoError(t, err)
	assert.Len(t, res.Entries, 2)

	_, err = loader.LoadFile(filepath.Join(dir, "missing.json"), FormatPEP)
	assert.Error(t, err)
}
