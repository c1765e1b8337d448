// Command seed fills a development database with demo roommates.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"roommatch/internal/config"
	"roommatch/internal/database"
	"roommatch/internal/middleware"
	"roommatch/internal/seed"

	"gorm.io/gorm"
)

func main() {
	numUsers := flag.Int("users", 40, "Number of generated users")
	perUser := flag.Int("connections", 3, "Connections started by each user")
	messages := flag.Int("messages", 6, "Messages per accepted connection")
	personas := flag.Bool("personas", true, "Include the bundled demo personas")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	middleware.Logger = middleware.NewLogger(cfg.Env, os.Getenv("LOG_LEVEL"))
	if cfg.IsProduction() && !*dryRun {
		log.Fatal("Refusing to seed a production database")
	}

	var db *gorm.DB
	if !*dryRun {
		db, err = database.Connect(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
	}

	summary, err := seed.NewSeeder(db, middleware.Logger).Run(context.Background(), seed.Options{
		Users:                 *numUsers,
		ConnectionsPerUser:    *perUser,
		MessagesPerConnection: *messages,
		IncludePersonas:       *personas,
		Clean:                 *shouldClean,
		DryRun:                *dryRun,
		BcryptCost:            cfg.BcryptCost,
		Seed:                  *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", summary.Users),
		slog.Int("connections", summary.Connections),
		slog.Int("accepted", summary.Accepted),
		slog.Int("messages", summary.Messages),
		slog.Int("saved_profiles", summary.SavedProfiles),
		slog.Int("feedback", summary.Feedback),
		slog.String("password", seed.DefaultPassword),
	)
}
