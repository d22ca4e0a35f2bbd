package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/delivery/domain"
	"reliefbase/backend/internal/review"
)

type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a delivery repository that uses the given querier for reads.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const deliveryColumns = `d.id, d.project_id, d.beneficiary_id, d.delivery_date,
	d.created_by_membership_id, d.review_status, d.reviewed_by_membership_id, d.reviewed_at, d.review_note,
	d.created_at, d.updated_at`

// GetByID returns the delivery for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Delivery, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+deliveryColumns+` FROM deliveries d WHERE d.id = $1`, id)
	d, err := scanDelivery(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return d, nil
}

// List returns deliveries matching the filter, newest first.
func (r *PostgresRepository) List(ctx context.Context, f Filter, limit, offset int32) ([]*domain.Delivery, error) {
	where, args := buildFilter(f)
	args = append(args, limit, offset)
	query := fmt.Sprintf(
		`SELECT `+deliveryColumns+` FROM deliveries d JOIN projects p ON p.id = d.project_id
		  WHERE %s ORDER BY d.id DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Count returns the number of deliveries matching the filter.
func (r *PostgresRepository) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := buildFilter(f)
	var n int64
	err := r.q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM deliveries d JOIN projects p ON p.id = d.project_id WHERE %s`, where),
		args...,
	).Scan(&n)
	return n, err
}

// Create persists the delivery on the given querier and returns its generated id.
func (r *PostgresRepository) Create(ctx context.Context, q db.Querier, d *domain.Delivery) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO deliveries (project_id, beneficiary_id, delivery_date, created_by_membership_id, review_status)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		d.ProjectID, d.BeneficiaryID, d.DeliveryDate, d.CreatedByMembershipID, d.ReviewStatus,
	).Scan(&id)
	return id, err
}

// InsertItems adds delivery item rows on the given querier.
func (r *PostgresRepository) InsertItems(ctx context.Context, q db.Querier, deliveryID int64, items []domain.Item) error {
	for _, it := range items {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO delivery_items (delivery_id, assistance_id, quantity) VALUES ($1, $2, $3)`,
			deliveryID, it.AssistanceID, it.Quantity,
		); err != nil {
			return err
		}
	}
	return nil
}

// ListItems returns the items of a delivery.
func (r *PostgresRepository) ListItems(ctx context.Context, deliveryID int64) ([]domain.Item, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, delivery_id, assistance_id, quantity FROM delivery_items WHERE delivery_id = $1 ORDER BY id`,
		deliveryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Item
	for rows.Next() {
		var it domain.Item
		if err := rows.Scan(&it.ID, &it.DeliveryID, &it.AssistanceID, &it.Quantity); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// ApplyReview updates review fields only while the record is still pending;
// the conditional update makes concurrent reviews one-shot.
func (r *PostgresRepository) ApplyReview(ctx context.Context, q db.Querier, id int64, status review.Status, reviewerID int64, note *string, at time.Time) (bool, error) {
	var noteVal sql.NullString
	if note != nil {
		noteVal = sql.NullString{String: *note, Valid: true}
	}
	res, err := q.ExecContext(ctx,
		`UPDATE deliveries
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
		`UPDATE deliveries SET review_status = 'false', updated_at = now()
		  WHERE id = $1 AND review_status = 'rejected'`,
		id,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// CountAuthoredBy counts non-deleted deliveries created by the membership.
func (r *PostgresRepository) CountAuthoredBy(ctx context.Context, membershipID int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE created_by_membership_id = $1 AND review_status <> 'false'`,
		membershipID,
	).Scan(&n)
	return n, err
}

// CountReviewedBy counts non-deleted deliveries reviewed by the membership.
func (r *PostgresRepository) CountReviewedBy(ctx context.Context, membershipID int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM deliveries WHERE reviewed_by_membership_id = $1 AND review_status <> 'false'`,
		membershipID,
	).Scan(&n)
	return n, err
}

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
		conds = append(conds, "d.project_id = ANY("+arg(f.ProjectIDs)+")")
	}
	if f.ProjectID != 0 {
		conds = append(conds, "d.project_id = "+arg(f.ProjectID))
	}
	if f.BeneficiaryID != 0 {
		conds = append(conds, "d.beneficiary_id = "+arg(f.BeneficiaryID))
	}
	if f.CreatedBy != 0 {
		conds = append(conds, "d.created_by_membership_id = "+arg(f.CreatedBy))
	}
	if f.Status != "" {
		conds = append(conds, "d.review_status = "+arg(f.Status))
	}
	// Soft-deleted records and records of soft-deleted projects are hidden
	// from listings regardless of the requested filter.
	conds = append(conds, "d.review_status <> 'false'")
	conds = append(conds, "(p.manual_status IS NULL OR p.manual_status <> 'false')")
	return strings.Join(conds, " AND "), args
}

func scanDelivery(scan func(dest ...any) error) (*domain.Delivery, error) {
	var (
		d          domain.Delivery
		reviewedBy sql.NullInt64
		reviewedAt sql.NullTime
		reviewNote sql.NullString
	)
	err := scan(&d.ID, &d.ProjectID, &d.BeneficiaryID, &d.DeliveryDate,
		&d.CreatedByMembershipID, &d.ReviewStatus, &reviewedBy, &reviewedAt, &reviewNote,
		&d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if reviewedBy.Valid {
		d.ReviewedByMembershipID = &reviewedBy.Int64
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		d.ReviewedAt = &t
	}
	if reviewNote.Valid {
		d.ReviewNote = &reviewNote.String
	}
	return &d, nil
}
