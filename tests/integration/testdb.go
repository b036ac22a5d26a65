// Package integration runs billing flows against a real PostgreSQL
// instance provisioned through testcontainers. Tests here are skipped
// automatically when Docker is unavailable.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	mpg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	pgImage    = "postgres:16-alpine"
	pgUser     = "postgres"
	pgPassword = "admin123"

	containerStartTimeout = 60 * time.Second
)

// One container is reused across every test that opts into
// NewSharedTestDB. Guarded by sharedMu; torn down by
// CleanupSharedContainer from TestMain.
var (
	sharedMu        sync.Mutex
	sharedContainer *tcpostgres.PostgresContainer
	sharedDSN       string
)

// TestDB bundles a migrated PostgreSQL database with the handles a test
// needs to talk to it.
type TestDB struct {
	DB        *gorm.DB
	SqlDB     *sql.DB
	Container *tcpostgres.PostgresContainer
	DSN       string

	t      *testing.T
	shared bool
}

// NewTestDB starts a dedicated PostgreSQL container, applies all
// migrations and returns a connected handle. The container is
// terminated when the test finishes.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()
	container, dsn := startPostgres(ctx, t, "paytrack_test")

	tdb := &TestDB{Container: container, DSN: dsn, t: t}
	tdb.connect()
	if err := migrateUp(tdb.SqlDB); err != nil {
		tdb.Close()
		t.Fatalf("migrating test database: %v", err)
	}
	t.Cleanup(tdb.Close)
	return tdb
}

// NewSharedTestDB reuses a single container across tests, handing each
// caller a fresh connection. Cheaper than NewTestDB for suites with
// many small tests; callers must isolate state themselves, typically
// via CleanTables. TestMain should call CleanupSharedContainer.
func NewSharedTestDB(t *testing.T) *TestDB {
	t.Helper()

	sharedMu.Lock()
	if sharedContainer == nil {
		ctx := context.Background()
		container, dsn := startPostgres(ctx, t, "paytrack_shared_test")

		// Migrate once over a throwaway connection; each test gets a
		// fresh pool of its own afterwards.
		boot, err := sql.Open("postgres", dsn)
		if err == nil {
			err = migrateUp(boot)
			_ = boot.Close()
		}
		if err != nil {
			_ = container.Terminate(ctx)
			sharedMu.Unlock()
			t.Fatalf("migrating shared test database: %v", err)
		}
		sharedContainer = container
		sharedDSN = dsn
	}
	container, dsn := sharedContainer, sharedDSN
	sharedMu.Unlock()

	tdb := &TestDB{Container: container, DSN: dsn, t: t, shared: true}
	tdb.connect()
	t.Cleanup(tdb.Close)
	return tdb
}

// Close releases the test's connection, and for dedicated databases
// also terminates the container. Shared containers outlive the test.
func (tdb *TestDB) Close() {
	if tdb.SqlDB != nil {
		_ = tdb.SqlDB.Close()
		tdb.SqlDB = nil
	}
	if tdb.Container != nil && !tdb.shared {
		_ = tdb.Container.Terminate(context.Background())
		tdb.Container = nil
	}
}

// CleanTables truncates every application table so the next test starts
// from a blank slate. schema_migrations is left alone, and only
// tenant-scoped payment_methods rows are removed: the system-wide rows
// are seeded by migrations and expected to persist.
func (tdb *TestDB) CleanTables() {
	tdb.t.Helper()

	rows, err := tdb.SqlDB.Query(`
		SELECT tablename FROM pg_tables
		WHERE schemaname = 'public'
		  AND tablename NOT IN ('schema_migrations', 'payment_methods')`)
	if err != nil {
		tdb.t.Fatalf("listing tables: %v", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			tdb.t.Fatalf("scanning table name: %v", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		tdb.t.Fatalf("iterating tables: %v", err)
	}

	for _, table := range tables {
		if _, err := tdb.SqlDB.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)); err != nil {
			tdb.t.Fatalf("truncating %s: %v", table, err)
		}
	}
	if _, err := tdb.SqlDB.Exec("DELETE FROM payment_methods WHERE tenant_id IS NOT NULL"); err != nil {
		tdb.t.Fatalf("clearing tenant payment methods: %v", err)
	}
}

// WithTransaction runs fn inside a transaction that is always rolled
// back, so the database is untouched regardless of what fn writes.
func (tdb *TestDB) WithTransaction(fn func(tx *gorm.DB)) {
	tdb.t.Helper()

	tx := tdb.DB.Begin()
	if tx.Error != nil {
		tdb.t.Fatalf("beginning transaction: %v", tx.Error)
	}
	defer tx.Rollback()
	fn(tx)
}

// CleanupSharedContainer terminates the shared container, if one was
// ever started. Call it from TestMain after m.Run.
func CleanupSharedContainer() {
	sharedMu.Lock()
	defer sharedMu.Unlock()

	if sharedContainer != nil {
		_ = sharedContainer.Terminate(context.Background())
		sharedContainer = nil
		sharedDSN = ""
	}
}

func startPostgres(ctx context.Context, t *testing.T, dbName string) (*tcpostgres.PostgresContainer, string) {
	t.Helper()

	container, err := tcpostgres.Run(ctx, pgImage,
		tcpostgres.WithDatabase(dbName),
		tcpostgres.WithUsername(pgUser),
		tcpostgres.WithPassword(pgPassword),
		testcontainers.WithWaitStrategy(
			// Postgres restarts once during initdb, so the ready line
			// has to appear twice before connections are safe.
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(containerStartTimeout)),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("reading connection string: %v", err)
	}
	return container, dsn
}

func (tdb *TestDB) connect() {
	tdb.t.Helper()

	// Silent by default so assertion failures are readable; set
	// TEST_DB_DEBUG=1 to see every statement.
	level := gormlogger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(tdb.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(level),
	})
	if err != nil {
		tdb.t.Fatalf("opening gorm connection: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tdb.t.Fatalf("unwrapping sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(5)
	sqlDB.SetMaxIdleConns(2)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	tdb.DB = db
	tdb.SqlDB = sqlDB
}

func migrateUp(sqlDB *sql.DB) error {
	driver, err := mpg.WithInstance(sqlDB, &mpg.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	path, err := locateMigrations()
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// locateMigrations walks up from this file towards the repository root
// looking for the migrations directory, falling back to the working
// directory for callers running outside the source tree.
func locateMigrations() (string, error) {
	_, thisFile, _, ok := runtime.Caller(0)
	if ok {
		dir := filepath.Dir(thisFile)
		for i := 0; i < 5; i++ {
			candidate := filepath.Join(dir, "migrations")
			if info, err := os.Stat(candidate); err == nil && info.IsDir() {
				return candidate, nil
			}
			dir = filepath.Dir(dir)
		}
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("resolving working directory: %w", err)
	}
	for _, rel := range []string{"migrations", "../migrations", "../../migrations"} {
		candidate := filepath.Join(wd, rel)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("migrations directory not found")
}
