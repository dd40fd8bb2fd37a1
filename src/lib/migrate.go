package lib

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/store"
)

const migrateTimeout = 30 * time.Second

// AutoMigrate runs the store's idempotent setup step. It must finish before
// the server accepts requests.
func AutoMigrate(ctx context.Context, s store.ConnectionStore, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, migrateTimeout)
	defer cancel()

	start := time.Now()
	if err := s.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info("migration completed", zap.Duration("took", time.Since(start)))
	return nil
}
