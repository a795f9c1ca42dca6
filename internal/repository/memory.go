package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/employee-directory/internal/domain"
)

// MemoryEmployeeRepository keeps employees in process memory. It is used when
// no database is configured and mirrors the Postgres constraints, including
// case-insensitive email uniqueness enforced atomically under its lock.
type MemoryEmployeeRepository struct {
	mu        sync.RWMutex
	employees map[string]memoryEmployee
	sequence  int64
	now       func() time.Time
}

type memoryEmployee struct {
	employee domain.Employee
	seq      int64
}

// NewMemoryEmployeeRepository constructs an empty store.
func NewMemoryEmployeeRepository() *MemoryEmployeeRepository {
	return &MemoryEmployeeRepository{
		employees: make(map[string]memoryEmployee),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryEmployeeRepository) List(_ context.Context) ([]domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(domain.Employee) bool { return true }), nil
}

func (r *MemoryEmployeeRepository) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.employees[id]
	if !ok {
		return nil, domain.ErrEmployeeNotFound
	}
	employee := stored.employee
	return &employee, nil
}

func (r *MemoryEmployeeRepository) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, stored := range r.employees {
		if strings.EqualFold(stored.employee.Email, email) {
			employee := stored.employee
			return &employee, nil
		}
	}
	return nil, domain.ErrEmployeeNotFound
}

func (r *MemoryEmployeeRepository) Create(_ context.Context, employee *domain.Employee) error {
	if !validEmployee(employee) {
		return domain.ErrInvalidEmployee
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.emailTaken(employee.Email, "") {
		return domain.ErrDuplicateEmail
	}
	now := r.now()
	r.sequence++
	employee.ID = uuid.NewString()
	employee.CreatedAt = now
	employee.UpdatedAt = now
	r.employees[employee.ID] = memoryEmployee{employee: *employee, seq: r.sequence}
	return nil
}

func (r *MemoryEmployeeRepository) Update(_ context.Context, employee *domain.Employee) error {
	if !validEmployee(employee) {
		return domain.ErrInvalidEmployee
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.employees[employee.ID]
	if !ok {
		return domain.ErrEmployeeNotFound
	}
	if r.emailTaken(employee.Email, employee.ID) {
		return domain.ErrDuplicateEmail
	}
	employee.CreatedAt = stored.employee.CreatedAt
	employee.UpdatedAt = r.now()
	r.employees[employee.ID] = memoryEmployee{employee: *employee, seq: stored.seq}
	return nil
}

func (r *MemoryEmployeeRepository) Delete(_ context.Context, id string) (*domain.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.employees[id]
	if !ok {
		return nil, domain.ErrEmployeeNotFound
	}
	delete(r.employees, id)
	employee := stored.employee
	return &employee, nil
}

func (r *MemoryEmployeeRepository) Search(_ context.Context, query string) ([]domain.Employee, error) {
	needle := strings.ToLower(query)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(e domain.Employee) bool {
		return strings.Contains(strings.ToLower(e.Department), needle) ||
			strings.Contains(strings.ToLower(e.Position), needle)
	}), nil
}

// sorted returns matching employees newest first. Callers hold the lock.
func (r *MemoryEmployeeRepository) sorted(match func(domain.Employee) bool) []domain.Employee {
	entries := make([]memoryEmployee, 0, len(r.employees))
	for _, stored := range r.employees {
		if match(stored.employee) {
			entries = append(entries, stored)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].employee.CreatedAt.Equal(entries[j].employee.CreatedAt) {
			return entries[i].employee.CreatedAt.After(entries[j].employee.CreatedAt)
		}
		return entries[i].seq > entries[j].seq
	})
	result := make([]domain.Employee, 0, len(entries))
	for _, entry := range entries {
		result = append(result, entry.employee)
	}
	return result
}

func (r *MemoryEmployeeRepository) emailTaken(email, exceptID string) bool {
	for id, stored := range r.employees {
		if id != exceptID && strings.EqualFold(stored.employee.Email, email) {
			return true
		}
	}
	return false
}

func validEmployee(e *domain.Employee) bool {
	for _, value := range []string{e.FirstName, e.LastName, e.Email, e.Position, e.Department} {
		if strings.TrimSpace(value) == "" {
			return false
		}
	}
	return e.Salary >= 0 && !e.DateJoined.IsZero()
}

// MemoryUserRepository keeps accounts in process memory.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository constructs an empty store.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{users: make(map[string]domain.User)}
}

func (r *MemoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrUserEmailTaken
		}
	}
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *MemoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &user, nil
}

func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.users {
		if strings.EqualFold(user.Email, email) {
			found := user
			return &found, nil
		}
	}
	return nil, domain.ErrUserNotFound
}
