package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agenthands/modelhub/internal/config"
)

// Open returns the store selected by cfg.Driver with its schema in place.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "memory":
		return NewMemory(), nil
	case "postgres":
		pg, err := OpenPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}
