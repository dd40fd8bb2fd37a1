package lib

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/theleywin/SyncRivo-Registry/src/store"
)

// ConnectDB opens the store selected by cfg.StoreDriver. The caller owns the
// returned store and must Close it.
func ConnectDB(ctx context.Context, cfg Config, logger *zap.Logger) (store.ConnectionStore, error) {
	switch cfg.StoreDriver {
	case DriverMongo:
		s, err := store.DialMongo(ctx, store.MongoOptions{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
			AppName:  "syncrivo-registry",
		}, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := store.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
