package main

import (
	"log/slog"
	"os"

	"github.com/teamshift-dev/workshift-manager/backend/internal/config"
	"github.com/teamshift-dev/workshift-manager/backend/internal/seed"
	"github.com/teamshift-dev/workshift-manager/backend/internal/store"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 打开数据存储
	st, err := store.Open(cfg.Store.DataDir)
	if err != nil {
		logger.Error("无法打开数据存储", slog.String("error", err.Error()))
		os.Exit(1)
	}

	seed.SeedDemoData(st, cfg)
	logger.Info("演示数据插入完成")
}
