package main

import (
	"fmt"
	"net/http"
	"os"

	"millennium-sync/pkg/config"
	"millennium-sync/pkg/database"
	"millennium-sync/pkg/handlers"
	"millennium-sync/pkg/utils"
)

// devserver runs the reference backend locally: the auth service and the
// row endpoints on one port, against PostgreSQL or the in-memory store
func main() {
	cfg := config.GetCached()

	if err := cfg.Validate(); err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		os.Exit(1)
	}

	// generate an ephemeral project key when none is configured, so the
	// endpoint is never completely open by accident
	if cfg.StoreKey == "" {
		key, err := utils.GenerateURLToken(24)
		if err != nil {
			fmt.Printf("❌ Failed to generate API key: %v\n", err)
			os.Exit(1)
		}
		cfg.StoreKey = key
		fmt.Printf("🔑 Generated API key for this run: %s\n", key)
	}

	dsn := cfg.PostgresDSN
	if cfg.UseLocalDB {
		dsn = ""
	}
	db := database.NewDatabase(database.DatabaseConfig{
		PostgresDSN: dsn,
		Debug:       cfg.Debug,
	})
	defer db.Close()

	router := handlers.NewRouter(cfg, db)

	addr := ":" + cfg.Port
	fmt.Printf("🚀 Dev server listening on %s (environment: %s)\n", addr, cfg.Environment)
	if err := http.ListenAndServe(addr, router); err != nil {
		fmt.Printf("❌ Server error: %v\n", err)
		os.Exit(1)
	}
}
