package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/talio-hq/talio/internal/domain/timeoff"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/storage"
)

const timeoffRequestColumns = `
	id, org_id, employee_id, policy_id, start_date, end_date, days, note,
	status, decided_by, decided_at, created_at, updated_at
`

// PutTimeOffPolicy inserts or updates a leave policy.
func (s *Store) PutTimeOffPolicy(ctx context.Context, policy timeoff.Policy) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO timeoff_policies (id, org_id, name, annual_days, carryover_cap, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	name = excluded.name,
	annual_days = excluded.annual_days,
	carryover_cap = excluded.carryover_cap,
	updated_at = excluded.updated_at
`,
		policy.ID,
		policy.OrgID,
		policy.Name,
		policy.AnnualDays,
		policy.CarryoverCap,
		toMillis(policy.CreatedAt),
		toMillis(policy.UpdatedAt),
	); err != nil {
		return fmt.Errorf("put time-off policy: %w", err)
	}
	return nil
}

// GetTimeOffPolicy returns one policy scoped by organization.
func (s *Store) GetTimeOffPolicy(ctx context.Context, orgID, policyID string) (timeoff.Policy, error) {
	if err := s.ready(ctx); err != nil {
		return timeoff.Policy{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, org_id, name, annual_days, carryover_cap, created_at, updated_at
FROM timeoff_policies
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(policyID), strings.TrimSpace(orgID))
	return scanTimeOffPolicy(row.Scan)
}

// ListTimeOffPolicies returns all policies of an organization.
func (s *Store) ListTimeOffPolicies(ctx context.Context, orgID string) ([]timeoff.Policy, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, org_id, name, annual_days, carryover_cap, created_at, updated_at
FROM timeoff_policies
WHERE org_id = ?
ORDER BY name ASC, id ASC
`, strings.TrimSpace(orgID))
	if err != nil {
		return nil, fmt.Errorf("list time-off policies: %w", err)
	}
	defer rows.Close()

	policies := []timeoff.Policy{}
	for rows.Next() {
		policy, err := scanTimeOffPolicy(rows.Scan)
		if err != nil {
			return nil, err
		}
		policies = append(policies, policy)
	}
	return policies, rows.Err()
}

// GetTimeOffBalance returns the balance row for an employee, policy, and year.
// Missing rows are initialized from the policy allowance on first read.
func (s *Store) GetTimeOffBalance(ctx context.Context, orgID, employeeID, policyID string, year int) (timeoff.Balance, error) {
	if err := s.ready(ctx); err != nil {
		return timeoff.Balance{}, err
	}

	var balance timeoff.Balance
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var txErr error
		balance, txErr = balanceTx(tx, orgID, employeeID, policyID, year)
		return txErr
	})
	if err != nil {
		return timeoff.Balance{}, err
	}
	return balance, nil
}

func balanceTx(tx *sql.Tx, orgID, employeeID, policyID string, year int) (timeoff.Balance, error) {
	orgID = strings.TrimSpace(orgID)
	employeeID = strings.TrimSpace(employeeID)
	policyID = strings.TrimSpace(policyID)

	balance := timeoff.Balance{OrgID: orgID, EmployeeID: employeeID, PolicyID: policyID, Year: year}
	err := tx.QueryRow(`
SELECT allowed, used
FROM timeoff_balances
WHERE org_id = ? AND employee_id = ? AND policy_id = ? AND year = ?
`, orgID, employeeID, policyID, year).Scan(&balance.Allowed, &balance.Used)
	if err == nil {
		return balance, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return timeoff.Balance{}, fmt.Errorf("get time-off balance: %w", err)
	}

	var annualDays int
	if err := tx.QueryRow(`
SELECT annual_days FROM timeoff_policies WHERE id = ? AND org_id = ?
`, policyID, orgID).Scan(&annualDays); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timeoff.Balance{}, storage.ErrNotFound
		}
		return timeoff.Balance{}, fmt.Errorf("get policy allowance: %w", err)
	}

	balance.Allowed = annualDays
	if _, err := tx.Exec(`
INSERT INTO timeoff_balances (org_id, employee_id, policy_id, year, allowed, used)
VALUES (?, ?, ?, ?, ?, 0)
`, orgID, employeeID, policyID, year, annualDays); err != nil {
		return timeoff.Balance{}, fmt.Errorf("initialize time-off balance: %w", err)
	}
	return balance, nil
}

// CreateTimeOffRequest stores a new pending request.
func (s *Store) CreateTimeOffRequest(ctx context.Context, request timeoff.Request) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO timeoff_requests (`+timeoffRequestColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		request.ID,
		request.OrgID,
		request.EmployeeID,
		request.PolicyID,
		toMillis(request.StartDate),
		toMillis(request.EndDate),
		request.Days,
		request.Note,
		timeoff.RequestStatusLabel(request.Status),
		request.DecidedByUserID,
		toMillis(request.DecidedAt),
		toMillis(request.CreatedAt),
		toMillis(request.UpdatedAt),
	); err != nil {
		return fmt.Errorf("insert time-off request: %w", err)
	}
	return nil
}

// DecideTimeOffRequest persists an approval or denial. Approvals deduct the
// requested days from the balance in the same transaction; approvals also
// carry the leave.approved event. The status update is guarded on pending so
// two deciders cannot both settle the request.
func (s *Store) DecideTimeOffRequest(ctx context.Context, request timeoff.Request, envelope event.Envelope) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
UPDATE timeoff_requests
SET status = ?, decided_by = ?, decided_at = ?, updated_at = ?
WHERE id = ? AND org_id = ? AND status = ?
`,
			timeoff.RequestStatusLabel(request.Status),
			request.DecidedByUserID,
			toMillis(request.DecidedAt),
			toMillis(request.UpdatedAt),
			request.ID,
			request.OrgID,
			timeoff.RequestStatusLabel(timeoff.RequestPending),
		)
		if err != nil {
			return fmt.Errorf("decide time-off request: %w", err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}
		if request.Status != timeoff.RequestApproved {
			return nil
		}

		year := request.StartDate.UTC().Year()
		if _, err := balanceTx(tx, request.OrgID, request.EmployeeID, request.PolicyID, year); err != nil {
			return err
		}
		if _, err := tx.Exec(`
UPDATE timeoff_balances
SET used = used + ?
WHERE org_id = ? AND employee_id = ? AND policy_id = ? AND year = ?
`, request.Days, request.OrgID, request.EmployeeID, request.PolicyID, year); err != nil {
			return fmt.Errorf("deduct time-off balance: %w", err)
		}
		return enqueueEventTx(tx, envelope)
	})
}

// CancelTimeOffRequest persists a requester withdrawal.
func (s *Store) CancelTimeOffRequest(ctx context.Context, request timeoff.Request) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE timeoff_requests
SET status = ?, updated_at = ?
WHERE id = ? AND org_id = ? AND status = ?
`,
		timeoff.RequestStatusLabel(timeoff.RequestCancelled),
		toMillis(request.UpdatedAt),
		request.ID,
		request.OrgID,
		timeoff.RequestStatusLabel(timeoff.RequestPending),
	)
	if err != nil {
		return fmt.Errorf("cancel time-off request: %w", err)
	}
	return requireRowAffected(result)
}

// GetTimeOffRequest returns one request scoped by organization.
func (s *Store) GetTimeOffRequest(ctx context.Context, orgID, requestID string) (timeoff.Request, error) {
	if err := s.ready(ctx); err != nil {
		return timeoff.Request{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+timeoffRequestColumns+`
FROM timeoff_requests
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(requestID), strings.TrimSpace(orgID))
	return scanTimeOffRequest(row.Scan)
}

// TimeOffRequestFilter narrows request listings.
type TimeOffRequestFilter struct {
	EmployeeID string
	Status     timeoff.RequestStatus
}

// ListTimeOffRequests returns requests of an organization, newest first.
func (s *Store) ListTimeOffRequests(ctx context.Context, orgID string, filter TimeOffRequestFilter) ([]timeoff.Request, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + timeoffRequestColumns + ` FROM timeoff_requests WHERE org_id = ?`
	args := []any{strings.TrimSpace(orgID)}
	if employeeID := strings.TrimSpace(filter.EmployeeID); employeeID != "" {
		query += ` AND employee_id = ?`
		args = append(args, employeeID)
	}
	if filter.Status != timeoff.RequestUnspecified {
		query += ` AND status = ?`
		args = append(args, timeoff.RequestStatusLabel(filter.Status))
	}
	query += ` ORDER BY created_at DESC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list time-off requests: %w", err)
	}
	defer rows.Close()

	requests := []timeoff.Request{}
	for rows.Next() {
		request, err := scanTimeOffRequest(rows.Scan)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

func scanTimeOffPolicy(scan func(dest ...any) error) (timeoff.Policy, error) {
	var (
		policy    timeoff.Policy
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&policy.ID,
		&policy.OrgID,
		&policy.Name,
		&policy.AnnualDays,
		&policy.CarryoverCap,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timeoff.Policy{}, storage.ErrNotFound
		}
		return timeoff.Policy{}, fmt.Errorf("scan time-off policy: %w", err)
	}
	policy.CreatedAt = fromMillis(createdAt)
	policy.UpdatedAt = fromMillis(updatedAt)
	return policy, nil
}

func scanTimeOffRequest(scan func(dest ...any) error) (timeoff.Request, error) {
	var (
		request     timeoff.Request
		statusLabel string
		startDate   int64
		endDate     int64
		decidedAt   int64
		createdAt   int64
		updatedAt   int64
	)
	if err := scan(
		&request.ID,
		&request.OrgID,
		&request.EmployeeID,
		&request.PolicyID,
		&startDate,
		&endDate,
		&request.Days,
		&request.Note,
		&statusLabel,
		&request.DecidedByUserID,
		&decidedAt,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return timeoff.Request{}, storage.ErrNotFound
		}
		return timeoff.Request{}, fmt.Errorf("scan time-off request: %w", err)
	}
	request.Status = timeoff.RequestStatusFromLabel(statusLabel)
	request.StartDate = fromMillis(startDate)
	request.EndDate = fromMillis(endDate)
	if decidedAt > 0 {
		request.DecidedAt = fromMillis(decidedAt)
	}
	request.CreatedAt = fromMillis(createdAt)
	request.UpdatedAt = fromMillis(updatedAt)
	return request, nil
}
