package models

// ErrorType identifies the category of failure that aborted a release step.
type ErrorType string

const (
	// User input
	ErrUsage ErrorType = "usage"

	// Preconditions
	ErrToolMissing       ErrorType = "tool_missing"
	ErrNotARepository    ErrorType = "not_a_repository"
	ErrDaemonUnreachable ErrorType = "daemon_unreachable"

	// Registry
	ErrRegistryAuthFailed ErrorType = "registry_auth_failed"
	ErrTagNotFound        ErrorType = "tag_not_found"
	ErrRegistryListFailed ErrorType = "registry_list_failed"

	// Image phases
	ErrImageBuildFailed ErrorType = "image_build_failed"
	ErrImagePushFailed  ErrorType = "image_push_failed"

	// Rollout phases
	ErrTaskDefinitionFailed ErrorType = "task_definition_failed"
	ErrServiceUpdateFailed  ErrorType = "service_update_failed"
	ErrServiceNotStable     ErrorType = "service_not_stable"

	// Catch-all
	ErrInternalError ErrorType = "internal_error"
)

// ReleaseError wraps a failure with its category so callers can decide
// whether usage text should accompany the message.
type ReleaseError struct {
	Type ErrorType
	Err  error
}

func (e *ReleaseError) Error() string {
	return string(e.Type) + ": " + e.Err.Error()
}

func (e *ReleaseError) Unwrap() error {
	return e.Err
}

// NewReleaseError wraps err with the given category.
func NewReleaseError(t ErrorType, err error) *ReleaseError {
	return &ReleaseError{Type: t, Err: err}
}
