package entitlements

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver
)

const levelQuery = `SELECT level, current_period_end FROM user_subscriptions WHERE user_id = $1`

var openDB = sql.Open

// PGStore reads subscription levels from Postgres.
type PGStore struct {
	DB  *sql.DB
	Now func() time.Time
}

// LevelFor returns the user's level. Missing rows and lapsed periods are free.
func (s *PGStore) LevelFor(ctx context.Context, userID string) (Level, error) {
	var (
		raw       string
		periodEnd sql.NullTime
	)
	err := s.DB.QueryRowContext(ctx, levelQuery, userID).Scan(&raw, &periodEnd)
	if errors.Is(err, sql.ErrNoRows) {
		return LevelFree, nil
	}
	if err != nil {
		return "", fmt.Errorf("query subscription: %w", err)
	}

	level, err := ParseLevel(raw)
	if err != nil {
		return "", err
	}

	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	if periodEnd.Valid && !periodEnd.Time.After(now()) {
		return LevelFree, nil
	}
	return level, nil
}

// Open connects to databaseURL with the pgx driver and verifies the
// connection.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, errors.New("database url is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}
