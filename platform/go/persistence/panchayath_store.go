package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Panchayath is read-only locality reference data; rows are loaded by the
// seed CLI and never mutated by the API.
type Panchayath struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type PanchayathStore struct {
	pool *pgxpool.Pool
}

func NewPanchayathStore(ctx context.Context, pool *pgxpool.Pool) (*PanchayathStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &PanchayathStore{pool: pool}, nil
}

func (s *PanchayathStore) Get(ctx context.Context, id uuid.UUID) (Panchayath, error) {
	var p Panchayath
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM panchayaths
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Panchayath{}, ErrNotFound
		}
		return Panchayath{}, err
	}
	return p, nil
}

func (s *PanchayathStore) List(ctx context.Context) ([]Panchayath, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at
		FROM panchayaths
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list panchayaths: %w", err)
	}
	defer rows.Close()

	var panchayaths []Panchayath
	for rows.Next() {
		var p Panchayath
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		panchayaths = append(panchayaths, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate panchayaths: %w", err)
	}
	return panchayaths, nil
}

// Upsert inserts or renames a panchayath. Used by the seed command only.
func (s *PanchayathStore) Upsert(ctx context.Context, id uuid.UUID, name string) error {
	if id == uuid.Nil {
		return errors.New("panchayath id is required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO panchayaths (id, name, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name
	`, id, name)
	if err != nil {
		return fmt.Errorf("upsert panchayath: %w", err)
	}
	return nil
}
