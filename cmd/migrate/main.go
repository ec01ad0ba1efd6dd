// Command migrate applies the database schema. Production deployments run
// it explicitly since the server only migrates outside production.
package main

import (
	"flag"
	"fmt"
	"log"

	"atelier/internal/config"
	"atelier/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dryRun := flag.Bool("dry-run", false, "List the tables that would be migrated and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	for _, m := range database.PersistentModels() {
		stmt := db.Model(m).Statement
		if err := stmt.Parse(m); err != nil {
			return fmt.Errorf("parse model %T: %w", m, err)
		}
		log.Printf("table %s (exists=%t)", stmt.Schema.Table, db.Migrator().HasTable(m))
	}
	if *dryRun {
		return nil
	}

	if err := database.Migrate(db); err != nil {
		return err
	}
	log.Println("migrations applied")
	return nil
}
