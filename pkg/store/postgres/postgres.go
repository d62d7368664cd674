// Package postgres backs the scenario and transcript stores with a Postgres
// database for deployments that run without Directus.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hovorka-app/hovorka/pkg/core"
	"github.com/hovorka-app/hovorka/pkg/store"
)

// Store implements store.Scenarios and store.Archive on a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Scenario(ctx context.Context, id string) (*store.Scenario, error) {
	const q = `SELECT id, name, system_prompt, voice FROM scenarios WHERE id = $1`

	var sc store.Scenario
	err := s.pool.QueryRow(ctx, q, id).Scan(&sc.ID, &sc.Name, &sc.SystemPrompt, &sc.Voice)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.NewNotFoundError("scenario not found")
	}
	if err != nil {
		return nil, fmt.Errorf("query scenario: %w", err)
	}
	return &sc, nil
}

func (s *Store) AppendHistory(ctx context.Context, userID, scenarioID, markdown string) error {
	const q = `INSERT INTO scenario_transcripts (id, user_id, scenario_id, transcript)
	           VALUES ($1, $2, $3, $4)`

	if _, err := s.pool.Exec(ctx, q, uuid.NewString(), userID, scenarioID, markdown); err != nil {
		return fmt.Errorf("insert transcript: %w", err)
	}
	return nil
}

func (s *Store) FindProgress(ctx context.Context, userID, scenarioID string) (*store.Progress, error) {
	const q = `SELECT id FROM user_scenario_progress
	           WHERE user_id = $1 AND scenario_id = $2 LIMIT 1`

	var p store.Progress
	err := s.pool.QueryRow(ctx, q, userID, scenarioID).Scan(&p.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query progress: %w", err)
	}
	return &p, nil
}

func (s *Store) CompleteProgress(ctx context.Context, progressID, markdown string, completedAt time.Time) error {
	const q = `UPDATE user_scenario_progress
	           SET transcript = $2, status = 'DONE', completed_at = $3
	           WHERE id = $1`

	if _, err := s.pool.Exec(ctx, q, progressID, markdown, completedAt.UTC()); err != nil {
		return fmt.Errorf("update progress: %w", err)
	}
	return nil
}
