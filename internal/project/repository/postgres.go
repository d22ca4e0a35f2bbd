package repository

import (
	"context"
	"database/sql"
	"errors"

	"reliefbase/backend/internal/db"
	"reliefbase/backend/internal/project/domain"
)

type PostgresRepository struct {
	q db.Querier
}

// NewPostgresRepository returns a project repository that uses the given querier for reads.
func NewPostgresRepository(q db.Querier) *PostgresRepository {
	return &PostgresRepository{q: q}
}

const projectColumns = `id, uid, org_id, name, start_date, end_date, target_count, COALESCE(manual_status, ''), created_at, updated_at`

// GetByID returns the project for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Project, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id)
	return scanProject(row)
}

// ListByOrg returns non-deleted projects of the org, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID int64, limit, offset int32) ([]*domain.Project, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects
		  WHERE org_id = $1 AND (manual_status IS NULL OR manual_status <> 'false')
		  ORDER BY id DESC LIMIT $2 OFFSET $3`,
		orgID, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// ListByIDs returns non-deleted projects with the given ids, newest first.
// An empty id set returns no rows.
func (r *PostgresRepository) ListByIDs(ctx context.Context, ids []int64, limit, offset int32) ([]*domain.Project, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.q.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects
		  WHERE id = ANY($1) AND (manual_status IS NULL OR manual_status <> 'false')
		  ORDER BY id DESC LIMIT $2 OFFSET $3`,
		ids, limit, offset,
	)
	if err != nil {
		return nil, err
	}
	return collectProjects(rows)
}

// CountByOrg returns the number of non-deleted projects in the org.
func (r *PostgresRepository) CountByOrg(ctx context.Context, orgID int64) (int64, error) {
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE org_id = $1 AND (manual_status IS NULL OR manual_status <> 'false')`,
		orgID,
	).Scan(&n)
	return n, err
}

// CountByIDs returns the number of non-deleted projects among the given ids.
func (r *PostgresRepository) CountByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE id = ANY($1) AND (manual_status IS NULL OR manual_status <> 'false')`,
		ids,
	).Scan(&n)
	return n, err
}

// Create persists the project on the given querier and returns its generated id.
func (r *PostgresRepository) Create(ctx context.Context, q db.Querier, p *domain.Project) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx,
		`INSERT INTO projects (uid, org_id, name, start_date, end_date, target_count)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.UID, p.OrgID, p.Name, p.StartDate, p.EndDate, p.TargetCount,
	).Scan(&id)
	return id, err
}

// Update updates the editable project fields on the given querier.
func (r *PostgresRepository) Update(ctx context.Context, q db.Querier, p *domain.Project) error {
	_, err := q.ExecContext(ctx,
		`UPDATE projects SET name = $2, start_date = $3, end_date = $4, target_count = $5,
		        manual_status = NULLIF($6, ''), updated_at = now()
		  WHERE id = $1`,
		p.ID, p.Name, p.StartDate, p.EndDate, p.TargetCount, string(p.ManualStatus),
	)
	return err
}

// SetManualStatus sets a terminal status (done, suspended, false) on the project.
func (r *PostgresRepository) SetManualStatus(ctx context.Context, q db.Querier, id int64, status domain.Status) error {
	_, err := q.ExecContext(ctx,
		`UPDATE projects SET manual_status = $2, updated_at = now() WHERE id = $1`,
		id, string(status),
	)
	return err
}

// ListMembers returns the member roster of the project.
func (r *PostgresRepository) ListMembers(ctx context.Context, projectID int64) ([]domain.Member, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT membership_id, role FROM project_members WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Member
	for rows.Next() {
		var m domain.Member
		if err := rows.Scan(&m.MembershipID, &m.Role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListAssistances returns the assistance roster of the project.
func (r *PostgresRepository) ListAssistances(ctx context.Context, projectID int64) ([]domain.AssistanceRef, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT assistance_id FROM project_assistances WHERE project_id = $1 ORDER BY id`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.AssistanceRef
	for rows.Next() {
		var a domain.AssistanceRef
		if err := rows.Scan(&a.AssistanceID); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// InsertMembers adds roster entries on the given querier.
func (r *PostgresRepository) InsertMembers(ctx context.Context, q db.Querier, projectID int64, members []domain.Member) error {
	for _, m := range members {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO project_members (project_id, membership_id, role) VALUES ($1, $2, $3)`,
			projectID, m.MembershipID, m.Role,
		); err != nil {
			return err
		}
	}
	return nil
}

// InsertAssistances adds assistance roster entries on the given querier.
func (r *PostgresRepository) InsertAssistances(ctx context.Context, q db.Querier, projectID int64, refs []domain.AssistanceRef) error {
	for _, a := range refs {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO project_assistances (project_id, assistance_id) VALUES ($1, $2)`,
			projectID, a.AssistanceID,
		); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMembersExcept removes roster entries not in keep on the given querier.
func (r *PostgresRepository) DeleteMembersExcept(ctx context.Context, q db.Querier, projectID int64, keep []int64) error {
	if len(keep) == 0 {
		_, err := q.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1`, projectID)
		return err
	}
	_, err := q.ExecContext(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND NOT (membership_id = ANY($2))`,
		projectID, keep,
	)
	return err
}

// DeleteAssistancesExcept removes assistance roster entries not in keep on the given querier.
func (r *PostgresRepository) DeleteAssistancesExcept(ctx context.Context, q db.Querier, projectID int64, keep []int64) error {
	if len(keep) == 0 {
		_, err := q.ExecContext(ctx, `DELETE FROM project_assistances WHERE project_id = $1`, projectID)
		return err
	}
	_, err := q.ExecContext(ctx,
		`DELETE FROM project_assistances WHERE project_id = $1 AND NOT (assistance_id = ANY($2))`,
		projectID, keep,
	)
	return err
}

// IsMember reports whether the membership holds the given role on the project roster.
func (r *PostgresRepository) IsMember(ctx context.Context, projectID, membershipID int64, role domain.MemberRole) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM project_members WHERE project_id = $1 AND membership_id = $2 AND role = $3)`,
		projectID, membershipID, role,
	).Scan(&exists)
	return exists, err
}

// ProjectIDsForMembership returns project ids where the membership holds the given role-in-project.
func (r *PostgresRepository) ProjectIDsForMembership(ctx context.Context, membershipID int64, role domain.MemberRole) ([]int64, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT project_id FROM project_members WHERE membership_id = $1 AND role = $2`,
		membershipID, role,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// LockedMemberIDs returns membership ids that created any non-deleted
// beneficiary or delivery of the project. Reviewer ids do not lock the roster.
func (r *PostgresRepository) LockedMemberIDs(ctx context.Context, q db.Querier, projectID int64) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT created_by_membership_id FROM beneficiaries WHERE project_id = $1 AND review_status <> 'false'
		 UNION
		 SELECT created_by_membership_id FROM deliveries WHERE project_id = $1 AND review_status <> 'false'`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	return collectIDSet(rows)
}

// LockedAssistanceIDs returns assistance ids referenced by items of any
// non-deleted delivery of the project.
func (r *PostgresRepository) LockedAssistanceIDs(ctx context.Context, q db.Querier, projectID int64) (map[int64]bool, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT DISTINCT di.assistance_id
		   FROM delivery_items di
		   JOIN deliveries d ON d.id = di.delivery_id
		  WHERE d.project_id = $1 AND d.review_status <> 'false'`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	return collectIDSet(rows)
}

func collectIDSet(rows *sql.Rows) (map[int64]bool, error) {
	defer rows.Close()
	out := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = true
	}
	return out, rows.Err()
}

func scanProject(row *sql.Row) (*domain.Project, error) {
	var p domain.Project
	err := row.Scan(&p.ID, &p.UID, &p.OrgID, &p.Name, &p.StartDate, &p.EndDate,
		&p.TargetCount, &p.ManualStatus, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func collectProjects(rows *sql.Rows) ([]*domain.Project, error) {
	defer rows.Close()
	var out []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.UID, &p.OrgID, &p.Name, &p.StartDate, &p.EndDate,
			&p.TargetCount, &p.ManualStatus, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}
