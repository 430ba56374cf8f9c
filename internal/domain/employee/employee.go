// Package employee provides employee records and their status lifecycle.
package employee

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/talio-hq/talio/internal/errors"
	"github.com/talio-hq/talio/internal/platform/id"
)

var (
	// ErrEmptyOrgID indicates a missing organization ID.
	ErrEmptyOrgID = apperrors.New(apperrors.CodeEmployeeEmptyOrgID, "organization id is required")
	// ErrEmptyName indicates a missing first or last name.
	ErrEmptyName = apperrors.New(apperrors.CodeEmployeeEmptyName, "first and last name are required")
	// ErrInvalidMonthlySalary indicates a negative salary amount.
	ErrInvalidMonthlySalary = apperrors.New(apperrors.CodeEmployeeInvalidMonthlySalary, "monthly salary must not be negative")
)

// ContractType represents the employment contract kind.
type ContractType int

const (
	// ContractUnspecified represents an invalid contract type.
	ContractUnspecified ContractType = iota
	// ContractCDD is a fixed-term contract (contrat à durée déterminée).
	ContractCDD
	// ContractCDI is a permanent contract (contrat à durée indéterminée).
	ContractCDI
	// ContractInternship is an internship agreement.
	ContractInternship
)

// Status represents the lifecycle status of an employee.
type Status int

const (
	// StatusUnspecified represents an invalid status.
	StatusUnspecified Status = iota
	// StatusOnboarding indicates a record created before the start date.
	StatusOnboarding
	// StatusActive indicates a currently employed person.
	StatusActive
	// StatusOnLeave indicates an approved absence.
	StatusOnLeave
	// StatusSuspended indicates a suspended contract.
	StatusSuspended
	// StatusTerminated indicates the contract has ended. Terminal.
	StatusTerminated
)

// Employee represents an employee record scoped to an organization.
type Employee struct {
	ID            string
	OrgID         string
	FirstName     string
	LastName      string
	WorkEmail     string
	JobTitle      string
	Department    string
	Contract      ContractType
	CNPSNumber    string
	MonthlySalary int64
	HireDate      time.Time
	Status        Status
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CreateInput describes the metadata needed to create an employee record.
type CreateInput struct {
	OrgID         string
	FirstName     string
	LastName      string
	WorkEmail     string
	JobTitle      string
	Department    string
	Contract      ContractType
	CNPSNumber    string
	MonthlySalary int64
	HireDate      time.Time
}

// Create creates a new employee record in onboarding status.
func Create(input CreateInput, now func() time.Time, idGenerator func() (string, error)) (Employee, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	normalized, err := NormalizeCreateInput(input)
	if err != nil {
		return Employee{}, err
	}

	employeeID, err := idGenerator()
	if err != nil {
		return Employee{}, fmt.Errorf("generate employee id: %w", err)
	}

	createdAt := now().UTC()
	return Employee{
		ID:            employeeID,
		OrgID:         normalized.OrgID,
		FirstName:     normalized.FirstName,
		LastName:      normalized.LastName,
		WorkEmail:     normalized.WorkEmail,
		JobTitle:      normalized.JobTitle,
		Department:    normalized.Department,
		Contract:      normalized.Contract,
		CNPSNumber:    normalized.CNPSNumber,
		MonthlySalary: normalized.MonthlySalary,
		HireDate:      normalized.HireDate,
		Status:        StatusOnboarding,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}, nil
}

// NormalizeCreateInput trims and validates employee input metadata.
func NormalizeCreateInput(input CreateInput) (CreateInput, error) {
	input.OrgID = strings.TrimSpace(input.OrgID)
	if input.OrgID == "" {
		return CreateInput{}, ErrEmptyOrgID
	}
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if input.FirstName == "" || input.LastName == "" {
		return CreateInput{}, ErrEmptyName
	}
	if input.Contract == ContractUnspecified {
		return CreateInput{}, apperrors.New(apperrors.CodeEmployeeInvalidContract, "contract type is required")
	}
	if input.MonthlySalary < 0 {
		return CreateInput{}, ErrInvalidMonthlySalary
	}
	input.WorkEmail = strings.ToLower(strings.TrimSpace(input.WorkEmail))
	input.JobTitle = strings.TrimSpace(input.JobTitle)
	input.Department = strings.TrimSpace(input.Department)
	input.CNPSNumber = strings.TrimSpace(input.CNPSNumber)
	return input, nil
}

// FullName returns the employee's display name.
func (e Employee) FullName() string {
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

// ContractLabel returns the string label for a contract type.
func ContractLabel(contract ContractType) string {
	switch contract {
	case ContractCDD:
		return "CDD"
	case ContractCDI:
		return "CDI"
	case ContractInternship:
		return "INTERNSHIP"
	default:
		return "UNSPECIFIED"
	}
}

// ContractFromLabel converts a contract label to a ContractType value.
func ContractFromLabel(label string) ContractType {
	switch strings.ToUpper(strings.TrimSpace(label)) {
	case "CDD":
		return ContractCDD
	case "CDI":
		return ContractCDI
	case "INTERNSHIP":
		return ContractInternship
	default:
		return ContractUnspecified
	}
}
