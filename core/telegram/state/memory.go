package state

import "sync"

type memoryManager struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

// NewMemoryManager constructs the in-memory Manager implementation. Sessions
// are transient: a process restart drops in-flight flows and operators
// re-initiate.
func NewMemoryManager() Manager {
	return &memoryManager{
		sessions: make(map[int64]*Session),
	}
}

// Get returns a copy of the session for an operator, or an idle session.
func (m *memoryManager) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[userID]; ok {
		return *session
	}
	return Session{Step: StepIdle}
}

// Set replaces the operator's session unconditionally.
func (m *memoryManager) Set(userID int64, step Step, data any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[userID] = &Session{Step: step, Data: data}
}

// Update applies fn under the store lock so concurrent events for the same
// operator cannot interleave a read-modify-write.
func (m *memoryManager) Update(userID int64, fn func(*Session)) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[userID]
	if !ok {
		session = &Session{Step: StepIdle}
		m.sessions[userID] = session
	}
	fn(session)
	if session.Step == StepIdle && session.Data == nil {
		delete(m.sessions, userID)
	}
}

// Clear removes the entire session for an operator.
func (m *memoryManager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
}

// Current returns the operator's current step, or StepIdle.
func (m *memoryManager) Current(userID int64) Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[userID]; ok {
		return session.Step
	}
	return StepIdle
}

// InProgress reports whether the operator has an active step.
func (m *memoryManager) InProgress(userID int64) bool {
	return m.Current(userID) != StepIdle
}
