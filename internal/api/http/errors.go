package http

import (
	"errors"
	"strings"

	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/service"
	"github.com/spec-kit/employee-directory/internal/upload"
	apperrors "github.com/spec-kit/employee-directory/pkg/util"
)

// Client-facing messages.
const (
	MessageEmployeeNotFound = "Employee not found"
	MessageDuplicateEmail   = "Employee with this email already exists"
	MessageImagesOnly       = "Images only!"
	MessageFileTooLarge     = "File too large"
)

// translateError maps domain and upload failures onto the response contract.
func translateError(err error) *apperrors.DomainError {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return asDomain(apperrors.NewValidationError(validation.Message, validationDetail(validation)))
	case errors.Is(err, domain.ErrEmployeeNotFound):
		return asDomain(apperrors.NewNotFound("Employee"))
	case errors.Is(err, domain.ErrDuplicateEmail):
		return asDomain(apperrors.NewDuplicateEmail(MessageDuplicateEmail))
	case errors.Is(err, domain.ErrInvalidEmployee):
		return asDomain(apperrors.NewValidationError(service.MessageFieldsRequired, ""))
	case errors.Is(err, domain.ErrUserEmailTaken):
		return asDomain(apperrors.NewDuplicateEmail("User with this email already exists"))
	case errors.Is(err, domain.ErrInvalidCredentials):
		return asDomain(apperrors.NewUnauthorized("Invalid email or password"))
	case errors.Is(err, upload.ErrInvalidFileType):
		return asDomain(apperrors.NewInvalidFileType(MessageImagesOnly))
	case errors.Is(err, upload.ErrFileTooLarge):
		return asDomain(apperrors.NewFileTooLarge(MessageFileTooLarge))
	}
	return apperrors.ToDomainError(err)
}

func validationDetail(v *domain.ValidationError) string {
	if len(v.Fields) == 0 {
		return ""
	}
	if v.Message == service.MessageFieldsRequired {
		return "missing: " + strings.Join(v.Fields, ", ")
	}
	return "invalid: " + strings.Join(v.Fields, ", ")
}

func asDomain(err error) *apperrors.DomainError {
	return err.(*apperrors.DomainError)
}
