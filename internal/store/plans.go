package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Plan is a local scheduling record for a recurring transaction template.
//
// PlanID is the volatile foreign key into the external event store; nil
// means the plan currently has no calendar projection. UUID is the
// immutable content fingerprint generated once at creation. If PlanID is
// set, an event whose description carries UUID must exist in the
// configured calendar; when it does not, the mapping is stale and the
// restoration engine repairs or clears it.
type Plan struct {
	TemplateID  int64
	Title       string
	AmountCents int64
	Comment     string
	Start       int64
	AllDay      bool
	Timezone    string
	RRule       string
	PlanID      *int64
	UUID        string
	CreatedAt   int64
}

// CreatePlan inserts a plan and returns its template id.
// A UUID is generated when the plan does not carry one; an existing UUID
// is kept as-is (restore-from-backup path).
func (s *Store) CreatePlan(ctx context.Context, p Plan) (int64, error) {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO plans
		(title, amount_cents, comment, start_unix, all_day, timezone, rrule, plan_id, uuid, created_unix)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		p.Title,
		p.AmountCents,
		p.Comment,
		p.Start,
		p.AllDay,
		p.Timezone,
		p.RRule,
		p.PlanID,
		p.UUID,
		p.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("create plan: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("create plan: %w", err)
	}
	return id, nil
}

// GetPlan returns the plan with the given template id, or nil when no
// such plan exists.
func (s *Store) GetPlan(ctx context.Context, templateID int64) (*Plan, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT template_id, title, amount_cents, comment, start_unix, all_day,
		       timezone, rrule, plan_id, uuid, created_unix
		FROM plans
		WHERE template_id = ?
	`, templateID)
	p, err := scanPlan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get plan %d: %w", templateID, err)
	}
	return &p, nil
}

// ListPlans returns all plans ordered by template id.
// Returns an empty slice (not nil) when the registry is empty.
func (s *Store) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.listPlans(ctx, `
		SELECT template_id, title, amount_cents, comment, start_unix, all_day,
		       timezone, rrule, plan_id, uuid, created_unix
		FROM plans
		ORDER BY template_id ASC
	`)
}

// ListPlansWithMapping returns all plans whose plan_id is set, ordered by
// template id. This is the working set of the migration and restoration
// engines.
func (s *Store) ListPlansWithMapping(ctx context.Context) ([]Plan, error) {
	return s.listPlans(ctx, `
		SELECT template_id, title, amount_cents, comment, start_unix, all_day,
		       timezone, rrule, plan_id, uuid, created_unix
		FROM plans
		WHERE plan_id IS NOT NULL
		ORDER BY template_id ASC
	`)
}

func (s *Store) listPlans(ctx context.Context, query string) ([]Plan, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	if plans == nil {
		plans = []Plan{}
	}
	return plans, nil
}

// SetPlanMapping updates a plan's plan_id. Passing nil clears the
// mapping, which is how a plan loses its calendar projection.
func (s *Store) SetPlanMapping(ctx context.Context, templateID int64, planID *int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE plans SET plan_id = ? WHERE template_id = ?`, planID, templateID)
	if err != nil {
		return fmt.Errorf("set plan mapping %d: %w", templateID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set plan mapping %d: %w", templateID, err)
	}
	if n == 0 {
		return fmt.Errorf("set plan mapping %d: no such plan", templateID)
	}
	return nil
}

// DeletePlan removes a plan row. The uuid stays burned: uuids are
// generated fresh per plan and never handed out twice, so a deleted
// plan's cache rows can never be claimed by a later one.
func (s *Store) DeletePlan(ctx context.Context, templateID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM plans WHERE template_id = ?`, templateID)
	if err != nil {
		return fmt.Errorf("delete plan %d: %w", templateID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete plan %d: %w", templateID, err)
	}
	if n == 0 {
		return fmt.Errorf("delete plan %d: no such plan", templateID)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(r rowScanner) (Plan, error) {
	var p Plan
	var planID sql.NullInt64
	err := r.Scan(
		&p.TemplateID,
		&p.Title,
		&p.AmountCents,
		&p.Comment,
		&p.Start,
		&p.AllDay,
		&p.Timezone,
		&p.RRule,
		&planID,
		&p.UUID,
		&p.CreatedAt,
	)
	if err != nil {
		return Plan{}, err
	}
	if planID.Valid {
		p.PlanID = &planID.Int64
	}
	return p, nil
}
