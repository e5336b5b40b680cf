package bootstrap

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/admin"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/config"
	"github.com/jonesrussell/north-cloud/index-orchestrator/internal/database"
	infralogger "github.com/jonesrussell/north-cloud/index-orchestrator/internal/infra/logger"
)

// SetupHistory connects the audit history store. With the database disabled
// it returns a no-op history and a no-op closer.
func SetupHistory(ctx context.Context, cfg *config.Config, log infralogger.Logger) (admin.History, func() error, error) {
	if !cfg.Database.Enabled {
		log.Info("Audit history database disabled")
		return admin.NopHistory{}, func() error { return nil }, nil
	}

	db, err := database.Connect(ctx, database.Config{
		DSN:             cfg.Database.DSN(),
		MaxOpenConns:    cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("database connection: %w", err)
	}

	if migrateErr := database.Migrate(db.DB, log); migrateErr != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("database migrations: %w", migrateErr)
	}

	log.Info("Database connection established",
		infralogger.String("host", cfg.Database.Host),
		infralogger.String("database", cfg.Database.Database),
	)
	return database.NewHistoryRepository(db), db.Close, nil
}
