package main

import (
	"flag" // Command line flags

	"loyalty_points/internal/config" // Custom import path (Config)
	"loyalty_points/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus" // Logging library
)

// Main entry point for migration
func main() {
	seed := flag.Bool("seed", false, "insert the main branch and demo accounts")
	flag.Parse()

	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	gdb, err := db.Connect(cfg.DBDriver, cfg.DSN(), false)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	logrus.Info("Migration completed")
	if *seed {
		if err := db.Seed(gdb); err != nil {
			logrus.Fatalf("seeding failed: %v", err)
		}
		logrus.Info("Seeding completed")
	}
}
