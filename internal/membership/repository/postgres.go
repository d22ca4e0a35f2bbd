package repository

import (
	"context"
	"database/sql"
	"errors"

	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/membership/domain"
)

type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a membership repository that uses the given querier for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const membershipColumns = `id, user_id, org_id, role, status, created_at, updated_at`

// GetMembershipByID returns the membership for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetMembershipByID(ctx context.Context, id int64) (*domain.Membership, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id)
	return scanMembership(row)
}

// ListMembershipsByOrg returns all memberships for the given org, newest first.
func (r *PostgresRepository) ListMembershipsByOrg(ctx context.Context, orgID int64) ([]*domain.Membership, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+membershipColumns+` FROM memberships WHERE org_id = $1 ORDER BY id DESC`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

// CreateMembership persists the membership on the given querier and returns
// its generated id.
func (r *PostgresRepository) CreateMembership(ctx context.Context, q db.Querier, m *domain.Membership) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO memberships (user_id, org_id, role, status) VALUES ($1, $2, $3, $4) RETURNING id`,
		m.UserID, m.OrgID, m.Role, m.Status,
	).Scan(&id)
	return id, err
}

// SetStatus updates the membership status on the given querier.
func (r *PostgresRepository) SetStatus(ctx context.Context, q db.Querier, id int64, status domain.Status) error {
	_, err := q.ExecContext(ctx,
		`UPDATE memberships SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	return err
}

func scanMembership(row *sql.Row) (*domain.Membership, error) {
	var m domain.Membership
	err := row.Scan(&m.ID, &m.UserID, &m.OrgID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
