package cinedb

import (
	"context"
	"fmt"
)

// Migrate creates or updates the schema of the configured store. It does
// not move or drop data and can be run any number of times.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	a.log.Info().Str("store", a.backend).Msg("Running database migrations...")
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	a.log.Info().Msg("Migrations completed successfully")
	return nil
}
