package app

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	cfgpkg "github.com/taoyao-code/nextpm-decoder/internal/config"
	"github.com/taoyao-code/nextpm-decoder/internal/storage"
	"github.com/taoyao-code/nextpm-decoder/internal/storage/gormrepo"
	pgstorage "github.com/taoyao-code/nextpm-decoder/internal/storage/pg"
)

// ConnectHistory 建立历史库连接并按需迁移；未启用时返回 (nil, nil, nil)
func ConnectHistory(ctx context.Context, cfg cfgpkg.DatabaseConfig, log *zap.Logger) (*pgxpool.Pool, storage.HistoryRepo, error) {
	if !cfg.Enable {
		log.Info("database is disabled, decode history off")
		return nil, nil, nil
	}

	dbpool, err := pgstorage.NewPool(ctx, cfg, log)
	if err != nil {
		log.Error("db connect error", zap.Error(err))
		return nil, nil, err
	}

	gdb, err := gormrepo.Open(dbpool)
	if err != nil {
		dbpool.Close()
		log.Error("gorm open error", zap.Error(err))
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := gormrepo.Migrate(ctx, gdb); err != nil {
			dbpool.Close()
			log.Error("db migrate error", zap.Error(err))
			return nil, nil, err
		}
		log.Info("db migrations applied")
	}
	return dbpool, gormrepo.New(gdb), nil
}
