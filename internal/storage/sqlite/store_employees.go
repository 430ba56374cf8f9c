package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/talio-hq/talio/internal/domain/employee"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/storage"
)

const employeeColumns = `
	id, org_id, first_name, last_name, work_email, job_title, department,
	contract_type, cnps_number, monthly_salary, hire_date, status,
	created_at, updated_at
`

// CreateEmployee inserts an employee and its creation event atomically.
func (s *Store) CreateEmployee(ctx context.Context, record employee.Employee, envelope event.Envelope) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`
INSERT INTO employees (`+employeeColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
			record.ID,
			record.OrgID,
			record.FirstName,
			record.LastName,
			record.WorkEmail,
			record.JobTitle,
			record.Department,
			employee.ContractLabel(record.Contract),
			record.CNPSNumber,
			record.MonthlySalary,
			toMillis(record.HireDate),
			employee.StatusLabel(record.Status),
			toMillis(record.CreatedAt),
			toMillis(record.UpdatedAt),
		); err != nil {
			return fmt.Errorf("insert employee: %w", err)
		}
		return enqueueEventTx(tx, envelope)
	})
}

// UpdateEmployeeProfile updates mutable profile fields of an employee.
func (s *Store) UpdateEmployeeProfile(ctx context.Context, record employee.Employee) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE employees
SET first_name = ?, last_name = ?, work_email = ?, job_title = ?, department = ?,
	contract_type = ?, cnps_number = ?, monthly_salary = ?, hire_date = ?, updated_at = ?
WHERE id = ? AND org_id = ?
`,
		record.FirstName,
		record.LastName,
		record.WorkEmail,
		record.JobTitle,
		record.Department,
		employee.ContractLabel(record.Contract),
		record.CNPSNumber,
		record.MonthlySalary,
		toMillis(record.HireDate),
		toMillis(record.UpdatedAt),
		record.ID,
		record.OrgID,
	)
	if err != nil {
		return fmt.Errorf("update employee profile: %w", err)
	}
	return requireRowAffected(result)
}

// ChangeEmployeeStatus updates the status and enqueues the change event
// in the same transaction. The update is guarded on the previous status so
// concurrent transitions cannot race each other. An envelope with an empty
// ID skips the event; workflow actions use this so they never cascade.
func (s *Store) ChangeEmployeeStatus(ctx context.Context, orgID, employeeID string, from, to employee.Status, updatedAtMillis int64, envelope event.Envelope) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.Exec(`
UPDATE employees
SET status = ?, updated_at = ?
WHERE id = ? AND org_id = ? AND status = ?
`,
			employee.StatusLabel(to),
			updatedAtMillis,
			employeeID,
			orgID,
			employee.StatusLabel(from),
		)
		if err != nil {
			return fmt.Errorf("change employee status: %w", err)
		}
		if err := requireRowAffected(result); err != nil {
			return err
		}
		if envelope.ID == "" {
			return nil
		}
		return enqueueEventTx(tx, envelope)
	})
}

// GetEmployee returns one employee scoped by organization.
func (s *Store) GetEmployee(ctx context.Context, orgID, employeeID string) (employee.Employee, error) {
	if err := s.ready(ctx); err != nil {
		return employee.Employee{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `
SELECT `+employeeColumns+`
FROM employees
WHERE id = ? AND org_id = ?
`, strings.TrimSpace(employeeID), strings.TrimSpace(orgID))
	return scanEmployee(row.Scan)
}

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	Department string
	Status     employee.Status
}

// ListEmployees returns employees of an organization, optionally filtered.
func (s *Store) ListEmployees(ctx context.Context, orgID string, filter EmployeeFilter) ([]employee.Employee, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}

	query := `SELECT ` + employeeColumns + ` FROM employees WHERE org_id = ?`
	args := []any{strings.TrimSpace(orgID)}
	if department := strings.TrimSpace(filter.Department); department != "" {
		query += ` AND department = ?`
		args = append(args, department)
	}
	if filter.Status != employee.StatusUnspecified {
		query += ` AND status = ?`
		args = append(args, employee.StatusLabel(filter.Status))
	}
	query += ` ORDER BY last_name ASC, first_name ASC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	records := []employee.Employee{}
	for rows.Next() {
		record, err := scanEmployee(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanEmployee(scan func(dest ...any) error) (employee.Employee, error) {
	var (
		record        employee.Employee
		contractLabel string
		statusLabel   string
		hireDate      int64
		createdAt     int64
		updatedAt     int64
	)
	if err := scan(
		&record.ID,
		&record.OrgID,
		&record.FirstName,
		&record.LastName,
		&record.WorkEmail,
		&record.JobTitle,
		&record.Department,
		&contractLabel,
		&record.CNPSNumber,
		&record.MonthlySalary,
		&hireDate,
		&statusLabel,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return employee.Employee{}, storage.ErrNotFound
		}
		return employee.Employee{}, fmt.Errorf("scan employee: %w", err)
	}
	record.Contract = employee.ContractFromLabel(contractLabel)
	record.Status = employee.StatusFromLabel(statusLabel)
	record.HireDate = fromMillis(hireDate)
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}
