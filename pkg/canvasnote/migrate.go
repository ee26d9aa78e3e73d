package canvasnote

import (
	"context"
	"fmt"
)

// Migrate initializes or updates the backend schema for the configured
// store. Idempotent; only missing schema elements are created.
func (a *App) Migrate(ctx context.Context, cmd *MigrateCommand) error {
	if err := a.store.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	a.logger.Info().Str("backend", string(a.config.Backend)).Msg("migration complete")
	return nil
}
