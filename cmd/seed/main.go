// Command main runs the database seeder for Atelier.
package main

import (
	"context"
	"flag"
	"log"
	"os"

	"atelier/internal/bootstrap"
	"atelier/internal/config"
	"atelier/internal/seed"
	"atelier/internal/storage"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of users to create")
	numRequests := flag.Int("requests", 60, "Number of design requests to create")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	fast := flag.Bool("fast", false, "Skip bcrypt for seeded passwords")
	fixturePath := flag.String("fixture", "", "YAML fixture to use instead of the built-in one")
	randSeed := flag.Int64("seed", 0, "Random seed for reproducible data (0 = random)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	ctx := context.Background()
	db, _, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{})
	if err != nil {
		log.Fatalf("Failed to initialize runtime: %v", err)
	}

	blobs, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open blob storage: %v", err)
	}

	var fixture *seed.Fixture
	if *fixturePath != "" {
		f, err := os.Open(*fixturePath)
		if err != nil {
			log.Fatalf("Failed to open fixture: %v", err)
		}
		fixture, err = seed.LoadFixture(f)
		_ = f.Close()
		if err != nil {
			log.Fatalf("Failed to load fixture: %v", err)
		}
	}

	s, err := seed.NewSeeder(db, blobs, fixture)
	if err != nil {
		log.Fatalf("Failed to create seeder: %v", err)
	}

	report, err := s.Run(ctx, seed.Options{
		NumUsers:    *numUsers,
		NumRequests: *numRequests,
		ShouldClean: *shouldClean,
		SkipBcrypt:  *fast,
		RandSeed:    *randSeed,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Created %d users, %d categories, requests by status: %v", report.Users, report.Categories, report.Requests)
	if *fast {
		log.Println("Seeded passwords are stored unhashed; they cannot be used to log in.")
	} else {
		log.Printf("All seeded users have the password: %s", seed.DefaultPassword)
	}
}
