package registry

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

type Postgres struct {
	db *sql.DB
}

// NewPostgres opens databaseURL, checks connectivity and creates the users table if needed.
func NewPostgres(databaseURL string) (*Postgres, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(16)
	db.SetMaxIdleConns(8)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	p := &Postgres{db: db}
	if err := p.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresFromDB wraps an already opened handle without running the schema.
func NewPostgresFromDB(db *sql.DB) *Postgres { return &Postgres{db: db} }

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("execute schema.sql: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

func (p *Postgres) Lookup(ctx context.Context, discordID string) (string, error) {
	const query = `SELECT steam_id FROM users WHERE discord_id = $1`
	var steamID string
	err := p.db.QueryRowContext(ctx, query, strings.TrimSpace(discordID)).Scan(&steamID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotRegistered
	}
	if err != nil {
		return "", fmt.Errorf("select user: %w", err)
	}
	return steamID, nil
}

func (p *Postgres) Store(ctx context.Context, discordID, steamID string) error {
	discordID = strings.TrimSpace(discordID)
	steamID = strings.TrimSpace(steamID)
	if discordID == "" || steamID == "" {
		return ErrInvalidArgs
	}
	const query = `
		INSERT INTO users (discord_id, steam_id, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (discord_id) DO UPDATE SET
			steam_id = EXCLUDED.steam_id,
			updated_at = EXCLUDED.updated_at`
	if _, err := p.db.ExecContext(ctx, query, discordID, steamID); err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}
