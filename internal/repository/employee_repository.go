package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/employee-directory/internal/domain"
	"github.com/spec-kit/employee-directory/internal/persistence"
)

const (
	pgUniqueViolation   = "23505"
	pgNotNullViolation  = "23502"
	pgCheckViolation    = "23514"
	employeeColumns     = `id, first_name, last_name, email, position, department, salary, date_joined, profile_picture, created_at, updated_at`
	employeeEmailUnique = "employees_email_key"
)

// EmployeeRepository defines persistence access for directory records.
type EmployeeRepository interface {
	List(ctx context.Context) ([]domain.Employee, error)
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	Create(ctx context.Context, employee *domain.Employee) error
	Update(ctx context.Context, employee *domain.Employee) error
	Delete(ctx context.Context, id string) (*domain.Employee, error)
	Search(ctx context.Context, query string) ([]domain.Employee, error)
}

type employeeRepository struct {
	db persistence.Queryer
}

// NewEmployeeRepository returns a Postgres-backed implementation.
func NewEmployeeRepository(db persistence.Queryer) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) List(ctx context.Context) ([]domain.Employee, error) {
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees
        ORDER BY created_at DESC, id DESC`

	return r.queryEmployees(ctx, query)
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrEmployeeNotFound
	}

	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE id=$1`

	return scanEmployee(persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees WHERE lower(email)=lower($1)`

	return scanEmployee(persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, email))
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (first_name, last_name, email, position, department, salary, date_joined, profile_picture)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id, created_at, updated_at`

	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		employee.FirstName,
		employee.LastName,
		employee.Email,
		employee.Position,
		employee.Department,
		employee.Salary,
		employee.DateJoined,
		employee.ProfilePicture,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
	return translateEmployeeError(err)
}

func (r *employeeRepository) Update(ctx context.Context, employee *domain.Employee) error {
	if _, err := uuid.Parse(employee.ID); err != nil {
		return domain.ErrEmployeeNotFound
	}

	const query = `
        UPDATE employees
           SET first_name=$1, last_name=$2, email=$3, position=$4, department=$5,
               salary=$6, date_joined=$7, profile_picture=$8, updated_at=NOW()
         WHERE id=$9
        RETURNING created_at, updated_at`

	err := persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query,
		employee.FirstName,
		employee.LastName,
		employee.Email,
		employee.Position,
		employee.Department,
		employee.Salary,
		employee.DateJoined,
		employee.ProfilePicture,
		employee.ID,
	).Scan(&employee.CreatedAt, &employee.UpdatedAt)
	return translateEmployeeError(err)
}

func (r *employeeRepository) Delete(ctx context.Context, id string) (*domain.Employee, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrEmployeeNotFound
	}

	const query = `
        DELETE FROM employees WHERE id=$1
        RETURNING ` + employeeColumns

	return scanEmployee(persistence.QueryerFromContext(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *employeeRepository) Search(ctx context.Context, term string) ([]domain.Employee, error) {
	const query = `
        SELECT ` + employeeColumns + `
        FROM employees
        WHERE department ILIKE $1 ESCAPE '\' OR position ILIKE $1 ESCAPE '\'
        ORDER BY created_at DESC, id DESC`

	return r.queryEmployees(ctx, query, containsPattern(term))
}

func (r *employeeRepository) queryEmployees(ctx context.Context, query string, args ...any) ([]domain.Employee, error) {
	rows, err := persistence.QueryerFromContext(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]domain.Employee, 0)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *employee)
	}
	return result, rows.Err()
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var employee domain.Employee
	if err := row.Scan(
		&employee.ID,
		&employee.FirstName,
		&employee.LastName,
		&employee.Email,
		&employee.Position,
		&employee.Department,
		&employee.Salary,
		&employee.DateJoined,
		&employee.ProfilePicture,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, translateEmployeeError(err)
	}
	return &employee, nil
}

func translateEmployeeError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			if pgErr.ConstraintName == "" || pgErr.ConstraintName == employeeEmailUnique {
				return domain.ErrDuplicateEmail
			}
		case pgNotNullViolation, pgCheckViolation:
			return domain.ErrInvalidEmployee
		}
	}
	return err
}

// containsPattern builds an ILIKE pattern matching term literally anywhere in the value.
func containsPattern(term string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
	return "%" + escaped + "%"
}
