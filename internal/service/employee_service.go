package service

import (
	"context"
	"errors"
	"math"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/events"
	"github.com/spec-kit/employee-directory/internal/repository"
)

// MessageFieldsRequired is reported when any of the six core fields is missing.
const MessageFieldsRequired = "All fields are required"

// PictureStore stores and removes profile pictures.
type PictureStore interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
	Remove(name string) error
}

// TransactionManager scopes a callback to a single store transaction.
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

// EmployeeService coordinates directory workflows.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	pictures   PictureStore
	tx         TransactionManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
	validate   *validator.Validate
	now        func() time.Time
}

// EmployeeDependencies bundles collaborators for the employee service.
type EmployeeDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	Pictures     PictureStore
	Tx           TransactionManager
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
}

// EmployeeInput carries the submitted form. Every field is raw text as
// received; Picture is optional.
type EmployeeInput struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Email      string `json:"email" validate:"required"`
	Position   string `json:"position" validate:"required"`
	Department string `json:"department" validate:"required"`
	Salary     string `json:"salary" validate:"required"`
	DateJoined string `json:"date_joined" validate:"required"`

	Picture *multipart.FileHeader `json:"-" validate:"-"`
}

type passthroughTx struct{}

func (passthroughTx) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

func (passthroughTx) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}

// NewEmployeeService builds the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	tx := deps.Tx
	if tx == nil {
		tx = passthroughTx{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		pictures:   deps.Pictures,
		tx:         tx,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		validate:   newValidator(),
		now:        time.Now,
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// List returns all employees, newest first.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	return s.employees.List(ctx)
}

// Get returns a single employee.
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	return s.employees.GetByID(ctx, id)
}

// Search returns employees whose department or position contains query,
// ignoring case. An empty query matches every employee.
func (s *EmployeeService) Search(ctx context.Context, query string) ([]domain.Employee, error) {
	return s.employees.Search(ctx, query)
}

// Create validates the form, stores the optional picture and persists the record.
func (s *EmployeeService) Create(ctx context.Context, in EmployeeInput) (*domain.Employee, error) {
	employee, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	picture, err := s.savePicture(ctx, in.Picture)
	if err != nil {
		return nil, err
	}
	employee.ProfilePicture = picture

	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailAvailable(txCtx, employee.Email, ""); err != nil {
			return err
		}
		return s.employees.Create(txCtx, employee)
	})
	if err != nil {
		s.discardPicture(picture)
		return nil, err
	}

	s.logger.Info("employee created", zap.String("employee_id", employee.ID))
	return employee, nil
}

// Update overwrites the six core fields of an existing employee. The picture
// reference changes only when a new file is supplied.
func (s *EmployeeService) Update(ctx context.Context, id string, in EmployeeInput) (*domain.Employee, error) {
	fields, err := s.normalize(in)
	if err != nil {
		return nil, err
	}

	picture, err := s.savePicture(ctx, in.Picture)
	if err != nil {
		return nil, err
	}

	var (
		updated         *domain.Employee
		releasedPicture string
	)
	err = s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.employees.GetByID(txCtx, id)
		if err != nil {
			return err
		}
		if fields.Email != existing.Email {
			if err := s.ensureEmailAvailable(txCtx, fields.Email, existing.ID); err != nil {
				return err
			}
		}

		next := *existing
		next.FirstName = fields.FirstName
		next.LastName = fields.LastName
		next.Email = fields.Email
		next.Position = fields.Position
		next.Department = fields.Department
		next.Salary = fields.Salary
		next.DateJoined = fields.DateJoined
		if picture != "" {
			next.ProfilePicture = picture
			releasedPicture = existing.ProfilePicture
		}
		if err := s.employees.Update(txCtx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		s.discardPicture(picture)
		return nil, err
	}

	if releasedPicture != "" && releasedPicture != updated.ProfilePicture {
		s.publish(ctx, events.EventEmployeePictureReplaced, updated.ID, releasedPicture)
	}
	s.logger.Info("employee updated", zap.String("employee_id", updated.ID))
	return updated, nil
}

// Delete removes the employee permanently and releases its stored picture.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	removed, err := s.employees.Delete(ctx, id)
	if err != nil {
		return err
	}
	if removed.HasPicture() {
		s.publish(ctx, events.EventEmployeeDeleted, removed.ID, removed.ProfilePicture)
	}
	s.logger.Info("employee deleted", zap.String("employee_id", removed.ID))
	return nil
}

func (s *EmployeeService) ensureEmailAvailable(ctx context.Context, email, selfID string) error {
	existing, err := s.employees.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrEmployeeNotFound):
		return nil
	case err != nil:
		return err
	case existing.ID != selfID:
		return domain.ErrDuplicateEmail
	default:
		return nil
	}
}

// normalize trims and types the submitted form.
func (s *EmployeeService) normalize(in EmployeeInput) (*domain.Employee, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Position = strings.TrimSpace(in.Position)
	in.Department = strings.TrimSpace(in.Department)
	in.Salary = strings.TrimSpace(in.Salary)
	in.DateJoined = strings.TrimSpace(in.DateJoined)

	if err := s.validate.Struct(in); err != nil {
		return nil, validationFailure(err, MessageFieldsRequired)
	}

	salary, err := strconv.ParseFloat(in.Salary, 64)
	if err != nil || salary < 0 || math.IsNaN(salary) || math.IsInf(salary, 0) {
		return nil, &domain.ValidationError{Message: "Salary must be a non-negative number", Fields: []string{"salary"}}
	}

	joined, err := parseDate(in.DateJoined)
	if err != nil {
		return nil, &domain.ValidationError{Message: "Date joined must be a valid date", Fields: []string{"date_joined"}}
	}

	return &domain.Employee{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Position:   in.Position,
		Department: in.Department,
		Salary:     salary,
		DateJoined: joined,
	}, nil
}

// parseDate accepts a calendar date or a full RFC 3339 timestamp and keeps
// only the date part.
func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(domain.DateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (s *EmployeeService) savePicture(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil || s.pictures == nil {
		return "", nil
	}
	return s.pictures.Save(ctx, file)
}

func (s *EmployeeService) discardPicture(name string) {
	if name == "" || s.pictures == nil {
		return
	}
	if err := s.pictures.Remove(name); err != nil {
		s.logger.Warn("discard unused picture", zap.String("file", name), zap.Error(err))
	}
}

func (s *EmployeeService) publish(ctx context.Context, eventType events.EventType, employeeID, picture string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		EmployeeID: employeeID,
		Timestamp:  s.now().UTC(),
		Payload:    events.PictureReleasedPayload{Filename: picture},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event", string(eventType)), zap.Error(err))
	}
}
