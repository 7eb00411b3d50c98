// Package memory is an in-memory export target for tests and local
// runs without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ceconelo/financaia/internal/core"
)

type Row struct {
	Transaction core.Transaction
	Owner       core.User
}

type Store struct {
	mu   sync.Mutex
	rows []Row

	// FailNext makes the next Append fail, for retry tests.
	FailNext bool
}

func New() *Store {
	return &Store{}
}

// Append stores the row and returns a synthetic reference.
func (s *Store) Append(_ context.Context, tx core.Transaction, owner core.User) (string, error) {
	if err := tx.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailNext {
		s.FailNext = false
		return "", fmt.Errorf("simulated append failure")
	}
	s.rows = append(s.rows, Row{Transaction: tx, Owner: owner})
	return fmt.Sprintf("mem:%d", len(s.rows)), nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, len(s.rows))
	copy(out, s.rows)
	return out
}
