package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"finance-ledger/internal/config"
	"finance-ledger/internal/logging"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/postgres/*.sql migrations/mysql/*.sql
var migrationsFS embed.FS

var (
	maxRetries    = 30
	retryInterval = 2 * time.Second
)

var ErrUnsupportedMigrationDriver = errors.New("migrations are not supported for this driver")

// MigrationRunner applies the embedded SQL migrations for one dialect.
type MigrationRunner struct {
	db        *sql.DB
	driver    string
	seedsPath string
	log       *logrus.Entry
}

func NewMigrationRunner(db *sql.DB, driver string, log logrus.FieldLogger) *MigrationRunner {
	return &MigrationRunner{
		db:        db,
		driver:    driver,
		seedsPath: "db/seeds",
		log:       logging.WithComponent(log, "migrator"),
	}
}

// WithSeedsPath overrides the directory LoadSeeds reads from.
func (mr *MigrationRunner) WithSeedsPath(path string) *MigrationRunner {
	if path != "" {
		mr.seedsPath = path
	}
	return mr
}

// WaitForDatabase pings until the database answers or retries run out.
func (mr *MigrationRunner) WaitForDatabase() error {
	for i := 0; i < maxRetries; i++ {
		err := mr.db.Ping()
		if err == nil {
			return nil
		}

		mr.log.WithFields(logrus.Fields{
			"attempt":      i + 1,
			"max_attempts": maxRetries,
		}).WithError(err).Warn("database not ready")
		time.Sleep(retryInterval)
	}

	return fmt.Errorf("database not ready after %d attempts", maxRetries)
}

func (mr *MigrationRunner) newMigrate() (*migrate.Migrate, error) {
	var (
		driver migratedb.Driver
		dir    string
		err    error
	)

	switch mr.driver {
	case config.DriverPostgres:
		dir = "migrations/postgres"
		driver, err = postgres.WithInstance(mr.db, &postgres.Config{})
	case config.DriverMySQL:
		dir = "migrations/mysql"
		driver, err = mysql.WithInstance(mr.db, &mysql.Config{})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMigrationDriver, mr.driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s migration driver: %w", mr.driver, err)
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, mr.driver, driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migration instance: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. A dirty version is forced clean first.
func (mr *MigrationRunner) Up() error {
	m, err := mr.newMigrate()
	if err != nil {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		mr.log.WithField("version", version).Warn("database is dirty, forcing version")
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			mr.log.WithField("version", version).Info("no new migrations to apply")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("failed to get new migration version: %w", err)
	}
	mr.log.WithField("version", newVersion).Info("migrations applied")
	return nil
}

// Down rolls back the given number of migrations, or all of them when steps <= 0.
func (mr *MigrationRunner) Down(steps int) error {
	m, err := mr.newMigrate()
	if err != nil {
		return err
	}

	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("rollback failed: %w", err)
	}
	return nil
}

// Status returns the current migration version and dirty flag.
func (mr *MigrationRunner) Status() (uint, bool, error) {
	m, err := mr.newMigrate()
	if err != nil {
		return 0, false, err
	}

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// LoadSeeds executes every *.sql file in the seeds directory in name order.
// A failing file is logged and skipped.
func (mr *MigrationRunner) LoadSeeds() error {
	if _, err := os.Stat(mr.seedsPath); os.IsNotExist(err) {
		mr.log.WithField("path", mr.seedsPath).Info("seeds directory not found, skipping")
		return nil
	}

	files, err := filepath.Glob(filepath.Join(mr.seedsPath, "*.sql"))
	if err != nil {
		return fmt.Errorf("failed to find seed files: %w", err)
	}
	sort.Strings(files)

	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read seed file %s: %w", file, err)
		}

		if _, err := mr.db.Exec(string(content)); err != nil {
			mr.log.WithField("file", filepath.Base(file)).WithError(err).Warn("seed file failed")
			continue
		}
		mr.log.WithField("file", filepath.Base(file)).Info("seed file applied")
	}

	return nil
}

// RunIfEnabled waits for the database, migrates and seeds according to cfg.
func (mr *MigrationRunner) RunIfEnabled(cfg config.MigrationConfig) error {
	if !cfg.AutoMigrate {
		mr.log.Info("auto-migration disabled")
		return nil
	}

	if err := mr.WaitForDatabase(); err != nil {
		return fmt.Errorf("database readiness check failed: %w", err)
	}

	if err := mr.Up(); err != nil {
		return fmt.Errorf("migration execution failed: %w", err)
	}

	if cfg.SeedData {
		if err := mr.WithSeedsPath(cfg.SeedsPath).LoadSeeds(); err != nil {
			mr.log.WithError(err).Warn("seed data loading failed")
		}
	}

	return nil
}
