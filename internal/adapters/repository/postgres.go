package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// NewPostgresRepository creates a SQLRepository speaking PostgreSQL over db.
// db is expected to be opened with the "pgx" driver.
func NewPostgresRepository(db *sql.DB) *SQLRepository {
	return newSQLRepository(db, DialectPostgres)
}

// OpenPostgres opens a pgx-backed pool for dbURL and verifies it answers.
func OpenPostgres(ctx context.Context, dbURL string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
