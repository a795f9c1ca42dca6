package domain

import (
	"errors"
	"strings"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrDuplicateEmail   = errors.New("employee email already exists")
	// ErrInvalidEmployee is returned when the store rejects a record that
	// breaks a column constraint (missing value, negative salary).
	ErrInvalidEmployee = errors.New("employee record invalid")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserEmailTaken     = errors.New("user email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError reports rejected input fields.
type ValidationError struct {
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Fields, ", ")
}
