package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeDeleted         EventType = "employee.deleted"
	EventEmployeePictureReplaced EventType = "employee.picture_replaced"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	EmployeeID string      `json:"employee_id"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// PictureReleasedPayload names a stored picture no longer referenced by any record.
type PictureReleasedPayload struct {
	Filename string `json:"filename"`
}
