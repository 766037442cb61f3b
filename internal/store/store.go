// Package store keeps a history of finished renders in PostgreSQL.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// Store manages the PostgreSQL connection.
type Store struct {
	conn *pgx.Conn
}

// Render is one row of render history.
type Render struct {
	JobID       string
	Image       string
	Font        string
	Strategy    string
	Mode        string
	Workers     int
	Columns     int
	Rows        int
	Substituted int
	Failures    int
	Elapsed     time.Duration
	CreatedAt   time.Time
}

// New establishes a connection to the database and ensures the schema is initialized.
func New(ctx context.Context, connString string) (*Store, error) {
	conn, err := pgx.Connect(ctx, connString)
	if err != nil {
		return nil, err
	}

	if err := initSchema(ctx, conn); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	return &Store{conn: conn}, nil
}

// initSchema creates the history table if it doesn't exist.
func initSchema(ctx context.Context, conn *pgx.Conn) error {
	query := `
		CREATE TABLE IF NOT EXISTS renders (
			job_id UUID PRIMARY KEY,
			image TEXT NOT NULL,
			font TEXT NOT NULL,
			strategy TEXT NOT NULL,
			mode TEXT NOT NULL,
			workers INT NOT NULL,
			grid_columns INT NOT NULL,
			grid_rows INT NOT NULL,
			substituted INT NOT NULL DEFAULT 0,
			failures INT NOT NULL DEFAULT 0,
			elapsed_ms BIGINT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS renders_created_at_idx ON renders (created_at DESC);
	`
	_, err := conn.Exec(ctx, query)
	return err
}

// Close terminates the database connection.
func (s *Store) Close(ctx context.Context) {
	s.conn.Close(ctx)
}

// SaveRender records a finished render. Saving the same job twice
// overwrites the earlier row.
func (s *Store) SaveRender(ctx context.Context, r Render) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO renders
			(job_id, image, font, strategy, mode, workers, grid_columns, grid_rows,
			 substituted, failures, elapsed_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW())
		ON CONFLICT (job_id) DO UPDATE SET
			image = EXCLUDED.image,
			font = EXCLUDED.font,
			strategy = EXCLUDED.strategy,
			mode = EXCLUDED.mode,
			workers = EXCLUDED.workers,
			grid_columns = EXCLUDED.grid_columns,
			grid_rows = EXCLUDED.grid_rows,
			substituted = EXCLUDED.substituted,
			failures = EXCLUDED.failures,
			elapsed_ms = EXCLUDED.elapsed_ms
	`, r.JobID, r.Image, r.Font, r.Strategy, r.Mode, r.Workers, r.Columns, r.Rows,
		r.Substituted, r.Failures, r.Elapsed.Milliseconds())
	if err != nil {
		return fmt.Errorf("failed to save render %s: %w", r.JobID, err)
	}
	return nil
}

// Recent returns up to limit renders, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Render, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.conn.Query(ctx, `
		SELECT job_id::text, image, font, strategy, mode, workers, grid_columns, grid_rows,
		       substituted, failures, elapsed_ms, created_at
		FROM renders
		ORDER BY created_at DESC, job_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var renders []Render
	for rows.Next() {
		var (
			r         Render
			elapsedMS int64
		)
		if err := rows.Scan(&r.JobID, &r.Image, &r.Font, &r.Strategy, &r.Mode,
			&r.Workers, &r.Columns, &r.Rows, &r.Substituted, &r.Failures,
			&elapsedMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		renders = append(renders, r)
	}
	return renders, rows.Err()
}

// Count returns the number of recorded renders.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.conn.QueryRow(ctx, "SELECT COUNT(*) FROM renders").Scan(&n)
	return n, err
}
