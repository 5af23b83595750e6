package migrate

import (
	"context"
	"fmt"
	"io"

	"github.com/angelmondragon/memberclub-backend/pkg/config"
	"github.com/angelmondragon/memberclub-backend/pkg/db"
	"github.com/angelmondragon/memberclub-backend/pkg/logger"
)

// MaybeRunDev applies the embedded migrations in dev when MEMBERCLUB_AUTO_MIGRATE is set.
// SQLite connections are skipped.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	if client.Driver() != db.DriverPostgres {
		logg.Warn(ctx, "skipping goose auto-run for non-postgres driver")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	runner, err := NewEmbeddedRunner(sqlDB)
	if err != nil {
		return err
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "source": "embedded"})
	logg.Info(ctx, "applying embedded migrations")
	if err := runner.Up(ctx, io.Discard); err != nil {
		return err
	}
	logg.Info(ctx, "embedded migrations applied")
	return nil
}
