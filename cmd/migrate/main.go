package main

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"

	"finance-ledger/internal/config"
	"finance-ledger/internal/database"
	"finance-ledger/internal/logging"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

const usage = `usage: migrate <command>

commands:
  up          apply all pending migrations
  down [n]    roll back n migrations (default 1)
  status      print the current version
  seed        load the seed files from SEEDS_PATH`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	log := logging.New(cfg.Logging, cfg.Server.Environment)

	if cfg.Database.Driver == config.DriverSQLite {
		log.Fatal("sqlite schemas are created with AutoMigrate at server start")
	}

	db, err := sql.Open(cfg.Database.Driver, dsn(&cfg.Database))
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	runner := database.NewMigrationRunner(db, cfg.Database.Driver, log)
	if err := runner.WaitForDatabase(); err != nil {
		log.WithError(err).Fatal("database not reachable")
	}

	if err := execute(runner, os.Args[1:], cfg.Migration, log); err != nil {
		log.WithError(err).Fatal("migration command failed")
	}
}

func execute(runner *database.MigrationRunner, args []string, cfg config.MigrationConfig, log logrus.FieldLogger) error {
	switch args[0] {
	case "up":
		return runner.Up()
	case "down":
		steps := 1
		if len(args) > 1 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n <= 0 {
				return fmt.Errorf("invalid step count %q", args[1])
			}
			steps = n
		}
		return runner.Down(steps)
	case "status":
		version, dirty, err := runner.Status()
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"version": version, "dirty": dirty}).Info("migration status")
		return nil
	case "seed":
		return runner.WithSeedsPath(cfg.SeedsPath).LoadSeeds()
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

// dsn returns the database/sql form of the configured DSN. MySQL needs
// multiStatements for migration files with several statements.
func dsn(cfg *config.DatabaseConfig) string {
	if cfg.Driver == config.DriverMySQL {
		return cfg.DSN() + "&multiStatements=true"
	}
	return cfg.DSN()
}
