package testutil

import (
	"context"
	"fmt"
	"sync"

	"meshdrop/internal/snowflake"
)

// CallLog records calls across several fakes so tests can assert their
// relative order.
type CallLog struct {
	mu      sync.Mutex
	entries []string
}

// Add appends an entry
func (l *CallLog) Add(entry string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

// Entries returns a copy of the recorded entries
func (l *CallLog) Entries() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

// MockWarehouse is a snowflake.Connector that records sessions and statements
type MockWarehouse struct {
	mu sync.Mutex

	// Behaviour
	ConnectError    error
	StatementErrors map[string]error
	CloseError      error

	// Tracking
	Connects           int
	Closes             int
	LastCredentials    snowflake.Credentials
	ExecutedStatements []string

	Log *CallLog
}

// NewMockWarehouse creates a mock warehouse that accepts every statement
func NewMockWarehouse() *MockWarehouse {
	return &MockWarehouse{StatementErrors: make(map[string]error)}
}

// FailStatement makes stmt fail with err
func (m *MockWarehouse) FailStatement(stmt string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StatementErrors[stmt] = err
}

// Connect implements snowflake.Connector
func (m *MockWarehouse) Connect(ctx context.Context, creds snowflake.Credentials) (snowflake.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Connects++
	m.LastCredentials = creds
	m.Log.Add("snowflake:connect")
	if m.ConnectError != nil {
		return nil, m.ConnectError
	}
	return &mockSession{warehouse: m}, nil
}

// Statements returns a copy of the executed statements
func (m *MockWarehouse) Statements() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ExecutedStatements...)
}

type mockSession struct {
	warehouse *MockWarehouse
	closed    bool
}

func (s *mockSession) Exec(ctx context.Context, statement string) error {
	m := s.warehouse
	m.mu.Lock()
	defer m.mu.Unlock()

	if s.closed {
		return fmt.Errorf("session closed")
	}
	m.ExecutedStatements = append(m.ExecutedStatements, statement)
	m.Log.Add("snowflake:exec")
	if err, ok := m.StatementErrors[statement]; ok {
		return err
	}
	return nil
}

func (s *mockSession) Close() error {
	m := s.warehouse
	m.mu.Lock()
	defer m.mu.Unlock()

	s.closed = true
	m.Closes++
	m.Log.Add("snowflake:close")
	return m.CloseError
}
