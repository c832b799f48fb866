package migration

import (
	"github.com/brightstack/coursekart/internal/config"
	"github.com/brightstack/coursekart/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "sqlite" {
			// Local sqlite runs are created ad hoc, the way tests do.
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB, cfg.DBType); err != nil {
			return err
		}

		if cfg.Environment != "production" {
			return seed.EnsureAdminUser(conn)
		}
		return nil
	}),
)
