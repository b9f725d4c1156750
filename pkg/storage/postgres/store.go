// Package postgres persists interview sessions as JSONB documents. The
// engine only needs find/update-by-key semantics, so the whole session
// travels as one document; racing writers resolve last-write-wins.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/prepwise/interviewd/pkg/engine/interview"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store implements interview.Store on postgres.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to postgres and applies pending migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	if err := migrate(pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func migrate(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: set dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// Create implements interview.Store.
func (s *Store) Create(ctx context.Context, sess *interview.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("postgres: encode session: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO interview_sessions (id, owner, status, data) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.Owner, string(sess.Status), data)
	if err != nil {
		return fmt.Errorf("postgres: insert session: %w", err)
	}
	return nil
}

// Get implements interview.Store.
func (s *Store) Get(ctx context.Context, id, owner string) (*interview.Session, error) {
	query := `SELECT data FROM interview_sessions WHERE id = $1`
	args := []any{id}
	if owner != "" {
		query += ` AND owner = $2`
		args = append(args, owner)
	}

	var data []byte
	err := s.pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return nil, interview.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: select session: %w", err)
	}
	var sess interview.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("postgres: decode session %s: %w", id, err)
	}
	return &sess, nil
}

// Update implements interview.Store.
func (s *Store) Update(ctx context.Context, sess *interview.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("postgres: encode session: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE interview_sessions SET status = $2, data = $3, updated_at = now() WHERE id = $1`,
		sess.ID, string(sess.Status), data)
	if err != nil {
		return fmt.Errorf("postgres: update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return interview.ErrSessionNotFound
	}
	return nil
}
