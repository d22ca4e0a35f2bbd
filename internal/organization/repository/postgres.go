package repository

import (
	"context"
	"database/sql"
	"errors"

	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/organization/domain"
)

type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns an organization repository that uses the given querier for persistence.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const orgColumns = `id, uid, name, COALESCE(created_by_membership_id, 0), created_at, updated_at`

// GetOrganizationByID returns the organization for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetOrganizationByID(ctx context.Context, id int64) (*domain.Org, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE id = $1`, id)
	return scanOrg(row)
}

// GetOrganizationByUID returns the organization for the public uid, or nil if not found.
func (r *PostgresRepository) GetOrganizationByUID(ctx context.Context, uid string) (*domain.Org, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+orgColumns+` FROM organizations WHERE uid = $1`, uid)
	return scanOrg(row)
}

// CreateOrganization persists the organization and returns its generated id.
func (r *PostgresRepository) CreateOrganization(ctx context.Context, o *domain.Org) (int64, error) {
	var id int64
	err := r.q.QueryRowContext(ctx,
		`INSERT INTO organizations (uid, name) VALUES ($1, $2) RETURNING id`,
		o.UID, o.Name,
	).Scan(&id)
	return id, err
}

// SetCreator records the founding admin membership on the organization.
func (r *PostgresRepository) SetCreator(ctx context.Context, orgID, membershipID int64) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE organizations SET created_by_membership_id = $2, updated_at = now() WHERE id = $1`,
		orgID, membershipID,
	)
	return err
}

func scanOrg(row *sql.Row) (*domain.Org, error) {
	var o domain.Org
	err := row.Scan(&o.ID, &o.UID, &o.Name, &o.CreatedByMembershipID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &o, nil
}
