package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/campusride/internal/app/bootstrap"
	appconfig "github.com/wolfman30/campusride/internal/config"
	"github.com/wolfman30/campusride/internal/export"
	"github.com/wolfman30/campusride/pkg/logging"
)

func main() {
	out := flag.String("o", "campusride-records.xlsx", "output workbook path")
	flag.Parse()

	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.StoreBackend == appconfig.BackendMemory {
		logger.Error("export needs a persistent store; set STORE_BACKEND to redis or postgres")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	store, closeStore, err := bootstrap.BuildRecordStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open record store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	file, err := os.Create(*out)
	if err != nil {
		logger.Error("failed to create output file", "path", *out, "error", err)
		os.Exit(1)
	}
	defer file.Close()

	if _, err := export.Write(ctx, store, file, logger); err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	logger.Info("workbook written", "path", *out)
}
