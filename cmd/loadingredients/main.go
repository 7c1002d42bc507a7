// Command loadingredients fills the ingredient catalog from a JSON array of
// {"name", "measurement_unit"} objects. Existing pairs are left alone, so it
// can be rerun safely.
package main

import (
	"flag"
	"log"

	"foodgram/internal/config"
	"foodgram/internal/db"
	"foodgram/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	path := flag.String("file", cfg.IngredientsPath, "path to the ingredients JSON file")
	flag.Parse()

	appLog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer appLog.Sync()

	if err := db.Init(cfg.DatabaseURL, appLog); err != nil {
		appLog.Fatal("Database init failed", "error", err)
	}

	created, err := db.LoadIngredients(db.DB, *path)
	if err != nil {
		appLog.Fatal("Loading ingredients failed", "file", *path, "error", err)
	}
	appLog.Info("Ingredients loaded", "file", *path, "created", created)
}
