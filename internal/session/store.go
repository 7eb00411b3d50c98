// Package session holds in-flight wizard state, one entry per user.
//
// The store is process-local and unpersisted: losing an in-flight
// wizard on restart is an accepted simplification, and entries have no
// TTL. Both are deliberate, not oversights.
package session

import "sync"

// State tags the step a user's wizard is currently waiting on.
type State string

const (
	PlanCreateCategory State = "PLAN_CREATE_CATEGORY"
	PlanCreateAmount   State = "PLAN_CREATE_AMOUNT"
	PlanDeleteCategory State = "PLAN_DELETE_CATEGORY"
	PlanEditCategory   State = "PLAN_EDIT_CATEGORY"
	PlanEditOption     State = "PLAN_EDIT_OPTION"
	PlanEditNewName    State = "PLAN_EDIT_NEW_NAME"
	PlanEditNewValue   State = "PLAN_EDIT_NEW_VALUE"
)

// Session is the state tag plus the partial data collected so far.
type Session struct {
	State State
	Data  map[string]string
}

// Store is a Repository backed by a plain map. A per-user mutex
// serializes concurrent messages from the same user so wizard
// read-modify-write sequences cannot interleave.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	userMu   map[string]*sync.Mutex
}

// Repository is the session contract the conversation layer depends
// on, kept as an interface so a distributed cache could replace the
// in-memory map without touching the state machine.
type Repository interface {
	Get(userID string) (Session, bool)
	Set(userID string, state State, data map[string]string)
	UpdateData(userID string, data map[string]string)
	Clear(userID string)
}

var _ Repository = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		userMu:   make(map[string]*sync.Mutex),
	}
}

func (s *Store) Get(userID string) (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	return sess, ok
}

// Set replaces any existing session for the user.
func (s *Store) Set(userID string, state State, data map[string]string) {
	if data == nil {
		data = make(map[string]string)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[userID] = Session{State: state, Data: data}
}

// UpdateData merges the given fields into the session data. No-op when
// the user has no active session.
func (s *Store) UpdateData(userID string, data map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return
	}
	merged := make(map[string]string, len(sess.Data)+len(data))
	for k, v := range sess.Data {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	s.sessions[userID] = Session{State: sess.State, Data: merged}
}

func (s *Store) Clear(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
}

// Lock acquires the per-user mutex, creating it on first use. Callers
// must pair it with Unlock.
func (s *Store) Lock(userID string) {
	s.mu.Lock()
	mu, ok := s.userMu[userID]
	if !ok {
		mu = &sync.Mutex{}
		s.userMu[userID] = mu
	}
	s.mu.Unlock()
	mu.Lock()
}

func (s *Store) Unlock(userID string) {
	s.mu.Lock()
	mu, ok := s.userMu[userID]
	s.mu.Unlock()
	if ok {
		mu.Unlock()
	}
}
