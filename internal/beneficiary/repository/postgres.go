package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reliefbase/backend/internal/beneficiary/domain"
	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/review"
)

type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a beneficiary repository that uses the given querier for reads.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const beneficiaryColumns = `b.id, b.project_id, b.family_code, b.head_name, b.phone, b.address,
	b.created_by_membership_id, b.review_status, b.reviewed_by_membership_id, b.reviewed_at, b.review_note,
	b.created_at, b.updated_at`

// GetByID returns the beneficiary for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Beneficiary, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+beneficiaryColumns+` FROM beneficiaries b WHERE b.id = $1`, id)
	b, err := scanBeneficiary(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

// List returns beneficiaries matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, f Filter, limit, offset int32) ([]*domain.Beneficiary, error) {
	where, args := buildFilter(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT `+beneficiaryColumns+` FROM beneficiaries b JOIN projects p ON p.id = b.project_id
		  WHERE %s ORDER BY b.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Beneficiary
	for rows.Next() {
		b, err := scanBeneficiary(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// Count returns the number of beneficiaries matching the filter.
func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildFilter(f)
	var n int64
	err := r.q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM beneficiaries b JOIN projects p ON p.id = b.project_id WHERE %s`, where),
		args...,
	).Scan(&n)
	return n, err
}

// Create persists the beneficiary on the given querier and returns its generated id.
func (r *PostgresRepository) Create(ctx context.Context, q db.Querier, b *domain.Beneficiary) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO beneficiaries (project_id, family_code, head_name, phone, address, created_by_membership_id, review_status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		b.ProjectID, b.FamilyCode, b.HeadName, b.Phone, b.Address, b.CreatedByMembershipID, b.ReviewStatus,
	).Scan(&id)
	return id, err
}

// InsertMembers adds household member rows on the given querier.
func (r *PostgresRepository) InsertMembers(ctx context.Context, q db.Querier, beneficiaryID int64, members []domain.Member) error {
	for _, m := range members {
		var birthYear sql.NullInt32
		if m.BirthYear != nil {
			birthYear = sql.NullInt32{Int32: *m.BirthYear, Valid: true}
		}
		if _, err := q.ExecContext(ctx,
			`INSERT INTO beneficiary_members (beneficiary_id, name, relationship, gender, birth_year)
			 VALUES ($1, $2, $3, $4, $5)`,
			beneficiaryID, m.Name, m.Relationship, m.Gender, birthYear,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListMembers returns the household members of a beneficiary.
func (r *PostgresRepository) ListMembers(ctx context.Context, beneficiaryID int64) ([]domain.Member, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, beneficiary_id, name, relationship, gender, birth_year
		   FROM beneficiary_members WHERE beneficiary_id = $1 ORDER BY id`,
		beneficiaryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var (
			m         domain.Member
			birthYear sql.NullInt32
		)
		if err := rows.Scan(&m.ID, &m.BeneficiaryID, &m.Name, &m.Relationship, &m.Gender, &birthYear); err != nil {
			return nil, err
		}
		if birthYear.Valid {
			m.BirthYear = &birthYear.Int32
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ApplyReview updates review fields only while the record is still pending.
// The status predicate in the UPDATE closes the race between concurrent
// reviewers: exactly one call can affect the row.
func (r *PostgresRepository) ApplyReview(ctx context.Context, q db.Querier, id int64, status review.Status, reviewerID int64, note *string, at time.Time) (bool, error) {
	var noteVal sql.NullString
	if note != nil {
		noteVal = sql.NullString{String: *note, Valid: true}
	}
	res, err := q.ExecContext(ctx,
		`UPDATE beneficiaries
		    SET review_status = $2, reviewed_by_membership_id = $3, reviewed_at = $4, review_note = $5, updated_at = $4
		  WHERE id = $1 AND review_status = 'pending'`,
		id, status, reviewerID, at, noteVal,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// SoftDelete marks the record deleted only while it is rejected.
func (r *PostgresRepository) SoftDelete(ctx context.Context, q db.Querier, id int64) (bool, error) {
	res, err := q.ExecContext(ctx,
		`UPDATE beneficiaries SET review_status = 'false', updated_at = now()
		  WHERE id = $1 AND review_status = 'rejected'`,
		id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// ProjectOf returns the owning project of a beneficiary and whether the
// record is soft-deleted. A zero project id means the beneficiary does not
// exist. Used by the delivery service to validate submissions.
func (r *PostgresRepository) ProjectOf(ctx context.Context, beneficiaryID int64) (int64, bool, error) {
	var (
		projectID int64
		status    string
	)
	err := r.q.QueryRowContext(ctx,
		`SELECT project_id, review_status FROM beneficiaries WHERE id = $1`, beneficiaryID,
	).Scan(&projectID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return projectID, review.Status(status) == review.StatusDeleted, nil
}

// CountAuthoredBy counts non-deleted beneficiaries created by the membership.
func (r *PostgresRepository) CountAuthoredBy(ctx context.Context, membershipID int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM beneficiaries WHERE created_by_membership_id = $1 AND review_status <> 'false'`,
		membershipID,
	).Scan(&n)
	return n, err
}

// CountReviewedBy counts non-deleted beneficiaries reviewed by the membership.
func (r *PostgresRepository) CountReviewedBy(ctx context.Context, membershipID int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM beneficiaries WHERE reviewed_by_membership_id = $1 AND review_status <> 'false'`,
		membershipID,
	).Scan(&n)
	return n, err
}

// buildFilter renders the WHERE clause for List/Count. The org predicate goes
// through the owning project so admin scope never crosses tenants.
func buildFilter(f Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	conds = append(conds, "p.org_id = "+arg(f.OrgID))
	if f.ProjectIDs != nil {
		conds = append(conds, "b.project_id = ANY("+arg(f.ProjectIDs)+")")
	}
	if f.ProjectID != 0 {
		conds = append(conds, "b.project_id = "+arg(f.ProjectID))
	}
	if f.CreatedBy != 0 {
		conds = append(conds, "b.created_by_membership_id = "+arg(f.CreatedBy))
	}
	if f.Status != "" {
		conds = append(conds, "b.review_status = "+arg(f.Status))
	}
	// Soft-deleted records and records of soft-deleted projects are hidden
	// from listings regardless of the requested filter.
	conds = append(conds, "b.review_status <> 'false'")
	conds = append(conds, "(p.manual_status IS NULL OR p.manual_status <> 'false')")
	return strings.Join(conds, " AND "), args
}

func scanBeneficiary(scan func(dest ...any) error) (*domain.Beneficiary, error) {
	var (
		b          domain.Beneficiary
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
		reviewNote sql.NullString
	)
	err := scan(&b.ID, &b.ProjectID, &b.FamilyCode, &b.HeadName, &b.Phone, &b.Address,
		&b.CreatedByMembershipID, &b.ReviewStatus, &reviewedBy, &reviewedAt, &reviewNote,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reviewedBy.Valid {
		b.ReviewedByMembershipID = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		b.ReviewedAt = &t
	}
	if reviewNote.Valid {
		b.ReviewNote = &reviewNote.String
	}
	return &b, nil
}
