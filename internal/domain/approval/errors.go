package approval

import "fmt"

// ValidationError reports malformed caller input: a non-positive amount, a
// missing rejection reason, malformed step bounds.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// PermissionError reports that the acting principal lacks the role or
// delegated authority for the requested transition.
type PermissionError struct {
	UserID string
	Reason string
}

func (e *PermissionError) Error() string {
	if e.UserID == "" {
		return fmt.Sprintf("permission denied: %s", e.Reason)
	}
	return fmt.Sprintf("permission denied for user %s: %s", e.UserID, e.Reason)
}

// NewPermissionError creates a PermissionError for a user.
func NewPermissionError(userID, reason string) *PermissionError {
	return &PermissionError{UserID: userID, Reason: reason}
}

// ConflictError reports a lost optimistic-concurrency race or a uniqueness
// violation. The caller should reload and reattempt.
type ConflictError struct {
	Resource string
	Reason   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict on %s: %s", e.Resource, e.Reason)
}

// NewConflictError creates a ConflictError for a resource.
func NewConflictError(resource, reason string) *ConflictError {
	return &ConflictError{Resource: resource, Reason: reason}
}

// ConfigurationError reports organisation configuration the engine cannot
// resolve a decision from. Guarded against, should not occur in practice.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s", e.Reason)
}

// NewConfigurationError creates a ConfigurationError.
func NewConfigurationError(reason string) *ConfigurationError {
	return &ConfigurationError{Reason: reason}
}

// SideEffectWarning records the failure of a post-commit side effect
// (notification, document generation, email). The underlying approval is
// committed; warnings are attached to the successful result, never returned
// as the action's error.
type SideEffectWarning struct {
	Task string
	Err  error
}

func (w *SideEffectWarning) Error() string {
	return fmt.Sprintf("side effect %s failed: %v", w.Task, w.Err)
}

func (w *SideEffectWarning) Unwrap() error {
	return w.Err
}
