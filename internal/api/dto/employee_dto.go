package dto

import (
	"time"

	"github.com/spec-kit/employee-directory/internal/domain"
)

// EmployeeForm is the multipart (or JSON) body of create and update requests.
// Values are kept as submitted text and typed by the service.
type EmployeeForm struct {
	FirstName  string `form:"first_name" json:"first_name"`
	LastName   string `form:"last_name" json:"last_name"`
	Email      string `form:"email" json:"email"`
	Position   string `form:"position" json:"position"`
	Department string `form:"department" json:"department"`
	Salary     string `form:"salary" json:"salary"`
	DateJoined string `form:"date_joined" json:"date_joined"`
}

// EmployeeResponse is the wire form of an employee record. The id is also
// exposed as _id for clients written against document stores.
type EmployeeResponse struct {
	ID             string    `json:"id"`
	LegacyID       string    `json:"_id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Email          string    `json:"email"`
	Position       string    `json:"position"`
	Department     string    `json:"department"`
	Salary         float64   `json:"salary"`
	DateJoined     string    `json:"date_joined"`
	ProfilePicture string    `json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EmployeeMutationResponse acknowledges a create or update.
type EmployeeMutationResponse struct {
	Message  string           `json:"message"`
	Employee EmployeeResponse `json:"employee"`
}

// MessageResponse carries a bare acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// NewEmployeeResponse converts a domain record.
func NewEmployeeResponse(e *domain.Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID,
		LegacyID:       e.ID,
		FirstName:      e.FirstName,
		LastName:       e.LastName,
		Email:          e.Email,
		Position:       e.Position,
		Department:     e.Department,
		Salary:         e.Salary,
		DateJoined:     e.DateJoined.Format(domain.DateLayout),
		ProfilePicture: e.ProfilePicture,
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// NewEmployeeList converts a slice, never returning nil so the body is [] when empty.
func NewEmployeeList(employees []domain.Employee) []EmployeeResponse {
	items := make([]EmployeeResponse, 0, len(employees))
	for i := range employees {
		items = append(items, NewEmployeeResponse(&employees[i]))
	}
	return items
}
