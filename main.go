package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cppla/sharehub/config"
	"github.com/cppla/sharehub/routes"
	"github.com/cppla/sharehub/storage"
	"github.com/cppla/sharehub/store"
	"github.com/cppla/sharehub/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() // nolint: errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var st store.Store
	switch cfg.DBDriver {
	case "mysql":
		db, err := config.OpenMySQL(ctx, cfg, zap.NewStdLog(utils.Logger.Named("gorm")), store.Models()...)
		if err != nil {
			utils.Sugar.Fatalf("failed to connect database: %v", err)
		}
		st = store.NewGormStore(db, cfg.StoreTimeout())
	default:
		mdb, err := config.OpenMongo(ctx, cfg)
		if err != nil {
			utils.Sugar.Fatalf("failed to connect mongo: %v", err)
		}
		ms := store.NewMongoStore(mdb, cfg.StoreTimeout())
		if err := ms.EnsureIndexes(ctx); err != nil {
			utils.Sugar.Fatalf("failed to create mongo indexes: %v", err)
		}
		st = ms
	}

	files, err := storage.New(cfg)
	if err != nil {
		utils.Sugar.Fatalf("failed to init file storage: %v", err)
	}

	r := routes.SetupRouter(st, files)

	utils.Sugar.Infof("Starting server on port %s (graceful) store=%s storage=%s", cfg.AppPort, cfg.DBDriver, cfg.StorageDriver)
	if err := utils.GraceServer(":"+cfg.AppPort, r, st.Close, utils.CloseRedis); err != nil {
		utils.Sugar.Errorf("server stopped with error: %v", err)
	}
}
