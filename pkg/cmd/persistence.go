// Package cmd provides the shared wiring helpers for the zoneflow binaries.
package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/zoneflow/zoneflow/pkg/persistence"
	"github.com/zoneflow/zoneflow/pkg/persistence/file"
	"github.com/zoneflow/zoneflow/pkg/persistence/postgresql"
)

// NewPersistence selects the persistence backend from the database URL
// scheme. postgres:// connects to PostgreSQL; anything else is treated as a
// directory path for the file backend used in development and tests.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"),
		strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(strings.TrimPrefix(databaseURL, "file://")), nil
	}
}
