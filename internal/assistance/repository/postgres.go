package repository

import (
	"context"
	"database/sql"
	"errors"

	"reliefbase/backend/internal/assistance/domain"
	"reliefbase/backend/internal/db"
)

type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns an assistance repository that uses the given querier for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

// GetByID returns the assistance for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Assistance, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, org_id, name, unit, created_at, updated_at FROM assistances WHERE id = $1`, id)
	var a domain.Assistance
	err := row.Scan(&a.ID, &a.OrgID, &a.Name, &a.Unit, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// ListByOrg returns all assistances for the given org, alphabetically.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID int64) ([]*domain.Assistance, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, org_id, name, unit, created_at, updated_at FROM assistances WHERE org_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Assistance
	for rows.Next() {
		var a domain.Assistance
		if err := rows.Scan(&a.ID, &a.OrgID, &a.Name, &a.Unit, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

// Create persists the assistance and returns its generated id.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Assistance) (int64, error) {
	var id int64
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO assistances (org_id, name, unit) VALUES ($1, $2, $3) RETURNING id`,
		a.OrgID, a.Name, a.Unit,
	).Scan(&id)
	return id, err
}

// Update updates name and unit of an existing assistance.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Assistance) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE assistances SET name = $2, unit = $3, updated_at = now() WHERE id = $1`,
		a.ID, a.Name, a.Unit,
	)
	return err
}
