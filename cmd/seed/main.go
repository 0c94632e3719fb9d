package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"tapi/api/internal/config"
	"tapi/api/internal/db"
	"tapi/api/internal/db/seeds"
	"tapi/api/internal/logger"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		logger.Fatalf("create data directory: %v", err)
	}

	sqlite, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer sqlite.Close()

	if err := db.Migrate(sqlite); err != nil {
		logger.Fatalf("run migrations: %v", err)
	}

	logger.Infof("running seeds...")
	if err := seeds.Run(sqlite); err != nil {
		logger.Fatalf("run seeds: %v", err)
	}
	logger.Infof("seeds finished; pending orders %s, %s, %s, %s, %s",
		seeds.EbookOrderID, seeds.LicenseOrderID, seeds.AccountOrderID, seeds.ServiceOrderID, seeds.NoStockOrderID)
}
