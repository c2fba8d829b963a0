package migrations

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

const initialSchemaFile = "001_initial_schema.sql"

//go:embed sql/001_initial_schema.sql
var embeddedInitialSchema string

var (
	// MigrationsDir can be overridden in tests or by the application. A
	// schema file found there takes precedence over the embedded one.
	MigrationsDir = "migrations"
)

// GetInitialSchema returns the sighting store schema.
func GetInitialSchema() (string, error) {
	searchPaths := []string{
		filepath.Join(MigrationsDir, initialSchemaFile),
		filepath.Join("..", "..", MigrationsDir, initialSchemaFile),
	}

	for _, path := range searchPaths {
		content, err := os.ReadFile(path)
		if err == nil {
			return string(content), nil
		}
	}

	if embeddedInitialSchema == "" {
		return "", fmt.Errorf("could not find schema file in any location")
	}
	return embeddedInitialSchema, nil
}
