package migration

import (
	"github.com/courtsidehq/courtside/internal/config"
	"github.com/courtsidehq/courtside/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		if cfg.BootstrapCoachEmail != "" {
			return seed.EnsureBootstrapCoach(conn, cfg.BootstrapCoachEmail, cfg.BootstrapCoachPassword)
		}
		return nil
	}),
)
