package migration

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storefront/internal/config"
	"github.com/smallbiznis/storefront/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node, log *zap.Logger) error {
		if err := Apply(conn); err != nil {
			return err
		}
		log.Info("schema up to date")

		if !cfg.Bootstrap.SeedDemoData || cfg.IsProduction() {
			return nil
		}
		return seed.EnsureDemoCatalog(conn, genID)
	}),
)
