package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/complyon/kycengine/internal/risk"
)

// LoadRiskTables reads a yaml overlay for the built-in country and
// industry risk tables. Lists present in the file replace the
// corresponding defaults; absent lists keep them.
func LoadRiskTables(path string) (risk.Tables, error) {
	tables := risk.DefaultTables()
	if path == "" {
		return tables, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tables, fmt.Errorf("read risk tables %s: %w", path, err)
	}
	var overlay risk.Tables
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return tables, fmt.Errorf("parse risk tables %s: %w", path, err)
	}
	return tables.Merge(overlay), nil
}
