package main

import (
	"flag"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/npek/portal/internal/migration"
	"github.com/npek/portal/internal/server"
)

func main() {
	command := flag.String("command", "up", "migration command (up/down/status/version/reset/create)")
	name := flag.String("name", "", "migration name for the create command")
	flag.Parse()

	_ = godotenv.Load()

	if os.Getenv("APP_ENV") == "" {
		os.Setenv("APP_ENV", server.EnvDevelopment)
	}

	// Load config
	cfg, err := server.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Create migrator
	migrator, err := migration.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to create migrator: %v", err)
	}
	defer migrator.Close()

	// Run migration command
	switch *command {
	case "up":
		if err := migrator.Up(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Successfully ran migrations")

	case "down":
		if err := migrator.Down(); err != nil {
			log.Fatalf("Failed to rollback migrations: %v", err)
		}
		log.Println("Successfully rolled back migrations")

	case "status":
		if err := migrator.Status(); err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}

	case "version":
		version, err := migrator.Version()
		if err != nil {
			log.Fatalf("Failed to get migration version: %v", err)
		}
		log.Printf("Current migration version: %d", version)

	case "reset":
		if err := migrator.Reset(); err != nil {
			log.Fatalf("Failed to reset migrations: %v", err)
		}
		log.Println("Successfully reset migrations")

	case "create":
		if *name == "" {
			log.Fatal("Migration name is required: -name <name>")
		}
		dir, err := migrator.Create(*name)
		if err != nil {
			log.Fatalf("Failed to create migration: %v", err)
		}
		log.Printf("Created migration %q in %s", *name, dir)

	default:
		log.Fatalf("Unknown command: %s", *command)
	}
}
