package state

// Step identifies a finite-state-machine step used in conversations.
type Step string

// StepIdle indicates there is no active conversation with the operator.
const StepIdle Step = ""

// Session stores conversation progress and the collected draft for one operator.
// Data holds a flow-specific draft struct; flows type-assert it back.
type Session struct {
	Step Step
	Data any
}

// Manager orchestrates operator sessions. Implementations must make Update
// atomic per operator id: overlapping events for the same operator must not
// lose step transitions.
type Manager interface {
	// Get returns a copy of the operator's session, or an idle session.
	Get(userID int64) Session
	// Set replaces the operator's session outright (last-start-wins).
	Set(userID int64, step Step, data any)
	// Update applies fn to the operator's session under the store lock.
	Update(userID int64, fn func(*Session))
	// Clear removes the operator's session entirely.
	Clear(userID int64)
	// Current returns the operator's current step.
	Current(userID int64) Step
	// InProgress reports whether the operator has an active flow.
	InProgress(userID int64) bool
}
