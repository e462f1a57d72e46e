package database

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	dbdriver "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	src "github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

type fakeMigrator struct{ upErr, downErr error }

func (f fakeMigrator) Up() error   { return f.upErr }
func (f fakeMigrator) Down() error { return f.downErr }

const testURL = "postgres://u:p@localhost:5432/accounts"

func restore() {
	pgxpoolNew = pgxpool.NewWithConfig
	sqlOpenDB = sql.Open
	postgresWithInstanceFn = func(db *sql.DB, cfg *postgres.Config) (dbdriver.Driver, error) {
		return postgres.WithInstance(db, cfg)
	}
	iofsNewFn = iofs.New
	migrateNewWithInstance = func(sourceName string, sourceDriver src.Driver, databaseName string, databaseDriver dbdriver.Driver) (migrateInstance, error) {
		m, err := migrate.NewWithInstance(sourceName, sourceDriver, databaseName, databaseDriver)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
}

func TestPoolConfig(t *testing.T) {
	cfg, err := PoolConfig(testURL)
	require.NoError(t, err)
	require.EqualValues(t, MaxConns, cfg.MaxConns)
	require.EqualValues(t, MinConns, cfg.MinConns)
	require.Equal(t, MaxConnLifetime, cfg.MaxConnLifetime)
	require.Equal(t, ConnectTimeout, cfg.ConnConfig.ConnectTimeout)

	_, err = PoolConfig("postgres://%zz")
	require.Error(t, err)
}

func TestNewPgxPool(t *testing.T) {
	t.Cleanup(restore)

	_, err := NewPgxPool(context.Background(), "postgres://%zz")
	require.Error(t, err)

	pgxpoolNew = func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) { return nil, errors.New("bad") }
	_, err = NewPgxPool(context.Background(), testURL)
	require.Error(t, err)

	var got *pgxpool.Config
	pgxpoolNew = func(ctx context.Context, cfg *pgxpool.Config) (*pgxpool.Pool, error) {
		got = cfg
		return &pgxpool.Pool{}, nil
	}
	db, err := NewPgxPool(context.Background(), testURL)
	require.NoError(t, err)
	require.NotNil(t, db)
	require.EqualValues(t, MaxConns, got.MaxConns)
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.Contains(t, names, "migrations/000001_create_user_table.up.sql")
	require.Contains(t, names, "migrations/000002_add_user_name_unique.up.sql")
	require.Len(t, names, 4)
}

func TestRunMigrationsAndRollback(t *testing.T) {
	t.Cleanup(restore)
	sqlOpenDB = func(driver, dsn string) (*sql.DB, error) { return nil, errors.New("open") }
	require.Error(t, RunMigrations("url"))
	sqlOpenDB = func(driver, dsn string) (*sql.DB, error) { return sql.Open("pgx", "") }
	postgresWithInstanceFn = func(*sql.DB, *postgres.Config) (dbdriver.Driver, error) { return nil, errors.New("drv") }
	require.Error(t, RunMigrations("url"))

	postgresWithInstanceFn = func(*sql.DB, *postgres.Config) (dbdriver.Driver, error) { return nil, nil }
	iofsNewFn = func(f fs.FS, s string) (src.Driver, error) { return nil, errors.New("src") }
	require.Error(t, RunMigrations("url"))

	iofsNewFn = func(f fs.FS, s string) (src.Driver, error) { return nil, nil }
	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return nil, errors.New("mig")
	}
	require.Error(t, RunMigrations("url"))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return fakeMigrator{upErr: errors.New("u")}, nil
	}
	require.Error(t, RunMigrations("url"))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return fakeMigrator{upErr: migrate.ErrNoChange}, nil
	}
	require.NoError(t, RunMigrations("url"))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) { return fakeMigrator{}, nil }
	require.NoError(t, RollbackAll("url"))

	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return fakeMigrator{downErr: migrate.ErrNoChange}, nil
	}
	require.NoError(t, RollbackAll("url"))
	migrateNewWithInstance = func(string, src.Driver, string, dbdriver.Driver) (migrateInstance, error) {
		return fakeMigrator{downErr: errors.New("d")}, nil
	}
	require.Error(t, RollbackAll("url"))

	sqlOpenDB = func(string, string) (*sql.DB, error) { return nil, errors.New("open") }
	require.Error(t, RollbackAll("url"))
}
