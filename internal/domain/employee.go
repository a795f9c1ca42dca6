package domain

import "time"

// DateLayout is the wire format of calendar dates such as date_joined.
const DateLayout = "2006-01-02"

// Employee is the directory record for a single person.
type Employee struct {
	ID             string
	FirstName      string
	LastName       string
	Email          string
	Position       string
	Department     string
	Salary         float64
	DateJoined     time.Time
	ProfilePicture string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasPicture reports whether a stored profile picture is referenced.
func (e *Employee) HasPicture() bool {
	return e != nil && e.ProfilePicture != ""
}
