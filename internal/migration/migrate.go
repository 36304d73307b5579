package migration

import (
	"database/sql"
	"embed"
	"fmt"
	"path"

	_ "github.com/glebarez/go-sqlite"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/npek/portal/internal/config"
	"github.com/npek/portal/internal/database"
)

//go:embed sql/sqlite/*.sql sql/postgres/*.sql
var embeddedMigrations embed.FS

type Migrator struct {
	db     *sql.DB
	driver string
	owned  bool
}

// Open connects with the raw driver, used by the migrate command.
func Open(config *config.DatabaseConfig) (*Migrator, error) {
	driverName := "sqlite"
	if config.Driver == database.DriverPostgres {
		driverName = "postgres"
	}

	db, err := sql.Open(driverName, database.DSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &Migrator{
		db:     db,
		driver: config.Driver,
		owned:  true,
	}, nil
}

// NewMigrator runs migrations over an already open connection.
func NewMigrator(db *sql.DB, driver string) *Migrator {
	return &Migrator{
		db:     db,
		driver: driver,
	}
}

func (m *Migrator) dialect() string {
	if m.driver == database.DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

func (m *Migrator) dir() string {
	return path.Join("sql", m.driver)
}

func (m *Migrator) prepare() error {
	goose.SetBaseFS(embeddedMigrations)
	if err := goose.SetDialect(m.dialect()); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}

func (m *Migrator) Up() error {
	if err := m.prepare(); err != nil {
		return err
	}

	if err := goose.Up(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

func (m *Migrator) Down() error {
	if err := m.prepare(); err != nil {
		return err
	}

	if err := goose.Down(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to rollback migrations: %w", err)
	}

	return nil
}

func (m *Migrator) Close() error {
	if !m.owned {
		return nil
	}
	return m.db.Close()
}

// GetCurrentVersion returns the current migration version
func (m *Migrator) GetCurrentVersion() (int64, error) {
	if err := m.prepare(); err != nil {
		return 0, err
	}
	return goose.GetDBVersion(m.db)
}

// GetLatestVersion returns the latest available migration version
func (m *Migrator) GetLatestVersion() (int64, error) {
	if err := m.prepare(); err != nil {
		return 0, err
	}

	migrations, err := goose.CollectMigrations(m.dir(), 0, goose.MaxVersion)
	if err != nil {
		return 0, err
	}

	if len(migrations) == 0 {
		return 0, nil
	}

	return migrations[len(migrations)-1].Version, nil
}

// DownTo migrates the database down to a specific version
func (m *Migrator) DownTo(version int64) error {
	if err := m.prepare(); err != nil {
		return err
	}

	if err := goose.DownTo(m.db, m.dir(), version); err != nil {
		return fmt.Errorf("failed to migrate down to version %d: %w", version, err)
	}

	return nil
}

func (m *Migrator) Status() error {
	if err := m.prepare(); err != nil {
		return err
	}

	if err := goose.Status(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to get migration status: %w", err)
	}
	return nil
}

func (m *Migrator) Version() (int64, error) {
	return m.GetCurrentVersion()
}

func (m *Migrator) Reset() error {
	if err := m.prepare(); err != nil {
		return err
	}

	if err := goose.Reset(m.db, m.dir()); err != nil {
		return fmt.Errorf("failed to reset migrations: %w", err)
	}
	return m.Up()
}

// Create writes a new numbered SQL migration into the source tree.
func (m *Migrator) Create(name string) (string, error) {
	dir, err := getMigrationsDir(m.driver)
	if err != nil {
		return "", fmt.Errorf("failed to get migrations directory: %w", err)
	}

	goose.SetBaseFS(nil)
	goose.SetSequential(true)
	if err := goose.Create(nil, dir, name, "sql"); err != nil {
		return "", fmt.Errorf("failed to create migration: %w", err)
	}
	return dir, nil
}

// Apply brings db up to the latest embedded schema.
func Apply(db *sql.DB, driver string) error {
	goose.SetLogger(goose.NopLogger())
	return NewMigrator(db, driver).Up()
}
