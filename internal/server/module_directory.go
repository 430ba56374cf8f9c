package server

import (
	"net/http"

	"github.com/talio-hq/talio/internal/domain/employee"
	"github.com/talio-hq/talio/internal/domain/org"
	"github.com/talio-hq/talio/internal/event"
	"github.com/talio-hq/talio/internal/server/httpx"
	"github.com/talio-hq/talio/internal/storage/sqlite"
)

type createEmployeeRequest struct {
	FirstName     string `json:"first_name"`
	LastName      string `json:"last_name"`
	WorkEmail     string `json:"work_email"`
	JobTitle      string `json:"job_title"`
	Department    string `json:"department"`
	Contract      string `json:"contract"`
	CNPSNumber    string `json:"cnps_number"`
	MonthlySalary int64  `json:"monthly_salary"`
	HireDate      string `json:"hire_date"`
}

func (s *Server) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body createEmployeeRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}
	hireDate, err := parseDate(body.HireDate)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	record, err := employee.Create(employee.CreateInput{
		OrgID:         member.OrgID,
		FirstName:     body.FirstName,
		LastName:      body.LastName,
		WorkEmail:     body.WorkEmail,
		JobTitle:      body.JobTitle,
		Department:    body.Department,
		Contract:      employee.ContractFromLabel(body.Contract),
		CNPSNumber:    body.CNPSNumber,
		MonthlySalary: body.MonthlySalary,
		HireDate:      hireDate,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	envelope, err := event.New(member.OrgID, event.TypeEmployeeCreated, record.ID, map[string]any{
		"full_name":  record.FullName(),
		"department": record.Department,
		"job_title":  record.JobTitle,
		"contract":   employee.ContractLabel(record.Contract),
		"status":     employee.StatusLabel(record.Status),
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if err := s.store.CreateEmployee(httpx.RequestContext(r), record, envelope); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, newEmployeeView(record))
}

func (s *Server) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	filter := sqlite.EmployeeFilter{
		Department: r.URL.Query().Get("department"),
		Status:     employee.StatusFromLabel(r.URL.Query().Get("status")),
	}
	records, err := s.store.ListEmployees(httpx.RequestContext(r), member.OrgID, filter)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newEmployeeViews(records))
}

func (s *Server) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	member, err := s.membership(r)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	record, err := s.store.GetEmployee(httpx.RequestContext(r), member.OrgID, r.PathValue("employeeID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newEmployeeView(record))
}

type updateEmployeeRequest struct {
	FirstName     *string `json:"first_name"`
	LastName      *string `json:"last_name"`
	WorkEmail     *string `json:"work_email"`
	JobTitle      *string `json:"job_title"`
	Department    *string `json:"department"`
	Contract      *string `json:"contract"`
	CNPSNumber    *string `json:"cnps_number"`
	MonthlySalary *int64  `json:"monthly_salary"`
	HireDate      *string `json:"hire_date"`
}

// handleUpdateEmployee patches profile fields. Status is not touched here;
// it only moves through the status endpoint so transitions stay validated.
func (s *Server) handleUpdateEmployee(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body updateEmployeeRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	record, err := s.store.GetEmployee(ctx, member.OrgID, r.PathValue("employeeID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	if body.FirstName != nil {
		record.FirstName = *body.FirstName
	}
	if body.LastName != nil {
		record.LastName = *body.LastName
	}
	if body.WorkEmail != nil {
		record.WorkEmail = *body.WorkEmail
	}
	if body.JobTitle != nil {
		record.JobTitle = *body.JobTitle
	}
	if body.Department != nil {
		record.Department = *body.Department
	}
	if body.Contract != nil {
		record.Contract = employee.ContractFromLabel(*body.Contract)
	}
	if body.CNPSNumber != nil {
		record.CNPSNumber = *body.CNPSNumber
	}
	if body.MonthlySalary != nil {
		record.MonthlySalary = *body.MonthlySalary
	}
	if body.HireDate != nil {
		hireDate, err := parseDate(*body.HireDate)
		if err != nil {
			httpx.WriteError(w, err)
			return
		}
		record.HireDate = hireDate
	}

	normalized, err := employee.NormalizeCreateInput(employee.CreateInput{
		OrgID:         record.OrgID,
		FirstName:     record.FirstName,
		LastName:      record.LastName,
		WorkEmail:     record.WorkEmail,
		JobTitle:      record.JobTitle,
		Department:    record.Department,
		Contract:      record.Contract,
		CNPSNumber:    record.CNPSNumber,
		MonthlySalary: record.MonthlySalary,
		HireDate:      record.HireDate,
	})
	if err != nil {
		httpx.WriteError(w, err)
		return
	}
	record.FirstName = normalized.FirstName
	record.LastName = normalized.LastName
	record.WorkEmail = normalized.WorkEmail
	record.JobTitle = normalized.JobTitle
	record.Department = normalized.Department
	record.CNPSNumber = normalized.CNPSNumber
	record.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateEmployeeProfile(ctx, record); err != nil {
		httpx.WriteError(w, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, newEmployeeView(record))
}

type changeStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleChangeEmployeeStatus(w http.ResponseWriter, r *http.Request) {
	member, err := s.requireRole(r, org.CanApprove)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	var body changeStatusRequest
	if err := httpx.DecodeJSON(w, r, &body); err != nil {
		httpx.WriteError(w, err)
		return
	}

	ctx := httpx.RequestContext(r)
	record, err := s.store.GetEmployee(ctx, member.OrgID, r.PathValue("employeeID"))
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	target := employee.StatusFromLabel(body.Status)
	next, err := employee.Transition(record.Status, target)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	envelope, err := event.New(member.OrgID, event.TypeEmployeeStatusChanged, record.ID, map[string]any{
		"status":          employee.StatusLabel(next),
		"previous_status": employee.StatusLabel(record.Status),
		"department":      record.Department,
	}, s.now, nil)
	if err != nil {
		httpx.WriteError(w, err)
		return
	}

	moment := s.now().UTC()
	if err := s.store.ChangeEmployeeStatus(ctx, member.OrgID, record.ID, record.Status, next, moment.UnixMilli(), envelope); err != nil {
		httpx.WriteError(w, err)
		return
	}

	record.Status = next
	record.UpdatedAt = moment
	_ = httpx.WriteJSON(w, http.StatusOK, newEmployeeView(record))
}
