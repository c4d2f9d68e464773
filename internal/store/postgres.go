package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"wallet-monitor/internal/config"
	"wallet-monitor/internal/models"
	"wallet-monitor/internal/validation"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres is the durable wallet store. Row-level updates keyed by the
// primary-key address serialize writes to last_seen_tx_hash per wallet.
type Postgres struct {
	db     *sql.DB
	dbName string
}

// OpenPostgres opens the database connection and verifies it.
func OpenPostgres(cfg config.DatabaseConfig) (*Postgres, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %v", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &Postgres{db: db, dbName: cfg.DBName}, nil
}

// RunMigrations runs the embedded database migrations.
func (p *Postgres) RunMigrations() error {
	driver, err := postgres.WithInstance(p.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create database driver: %w", err)
	}

	d, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", d, p.dbName, driver)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("could not run up migrations: %w", err)
	}

	return nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) Get(ctx context.Context, address string) (models.Wallet, bool, error) {
	var w models.Wallet
	var lastSeen sql.NullString
	err := p.db.QueryRowContext(ctx, `
		SELECT address, label, last_seen_tx_hash FROM wallets WHERE address = $1
	`, validation.Normalize(address)).Scan(&w.Address, &w.Label, &lastSeen)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Wallet{}, false, nil
	}
	if err != nil {
		return models.Wallet{}, false, err
	}
	w.LastSeenTxHash = lastSeen.String
	return w, true, nil
}

// Put upserts a wallet. Re-registering an address resets the last-seen
// transaction hash, so the next tick treats it as fresh.
func (p *Postgres) Put(ctx context.Context, address, label string) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO wallets (address, label, last_seen_tx_hash)
		VALUES ($1, $2, NULL)
		ON CONFLICT (address) DO UPDATE SET label = $2, last_seen_tx_hash = NULL
	`, validation.Normalize(address), label)
	return err
}

func (p *Postgres) List(ctx context.Context) ([]models.Wallet, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT address, label, last_seen_tx_hash FROM wallets ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var wallets []models.Wallet
	for rows.Next() {
		var w models.Wallet
		var lastSeen sql.NullString
		if err := rows.Scan(&w.Address, &w.Label, &lastSeen); err != nil {
			return nil, err
		}
		w.LastSeenTxHash = lastSeen.String
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}

func (p *Postgres) SetLastSeenTxHash(ctx context.Context, address, hash string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE wallets SET last_seen_tx_hash = $2 WHERE address = $1
	`, validation.Normalize(address), hash)
	return err
}
