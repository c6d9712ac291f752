package models

// ValidationError aborts a generation run before any write happens. It is
// reported synchronously to manual callers and logged by scheduled jobs.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}
