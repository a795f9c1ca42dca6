package client

import (
	"context"
	"sync"
)

// Roster is a locally held employee list backed by a Client. Deletes are
// applied to the local list as soon as the server confirms them, without
// refetching.
type Roster struct {
	client *Client
	creds  Credentials

	mu        sync.RWMutex
	employees []Employee
}

// NewRoster creates an empty roster.
func NewRoster(client *Client, creds Credentials) *Roster {
	return &Roster{client: client, creds: creds}
}

// Refresh replaces the local list with the full directory.
func (r *Roster) Refresh(ctx context.Context) error {
	employees, err := r.client.List(ctx, r.creds)
	if err != nil {
		return err
	}
	r.replace(employees)
	return nil
}

// Search replaces the local list with the matches for query.
func (r *Roster) Search(ctx context.Context, query string) error {
	employees, err := r.client.Search(ctx, r.creds, query)
	if err != nil {
		return err
	}
	r.replace(employees)
	return nil
}

// Delete removes the employee on the server, then from the local list.
// On failure the local list is unchanged.
func (r *Roster) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, r.creds, id); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.employees[:0]
	for _, e := range r.employees {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	r.employees = kept
	return nil
}

// Employees returns a copy of the local list.
func (r *Roster) Employees() []Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Employee(nil), r.employees...)
}

func (r *Roster) replace(employees []Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.employees = employees
}
