package service

import "errors"

// Error families. Handlers map these to status codes with errors.Is; the
// specific errors below wrap one family each.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("invalid state")
	ErrValidation   = errors.New("validation failed")
)

type serviceError struct {
	msg  string
	kind error
}

func (e *serviceError) Error() string { return e.msg }
func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{msg: msg, kind: kind}
}

var (
	ErrSubmissionNotFound = newError(ErrNotFound, "submission not found")
	ErrDraftNotFound      = newError(ErrNotFound, "draft session not found")
	ErrMediaNotFound      = newError(ErrNotFound, "media item not found")
	ErrVideoNotFound      = newError(ErrNotFound, "video is not part of this submission")
	ErrUserNotFound       = newError(ErrNotFound, "user not found")

	ErrNotOwner        = newError(ErrForbidden, "submission belongs to another trainee")
	ErrNotTrainee      = newError(ErrForbidden, "only trainees can record workouts")
	ErrNotCoachOf      = newError(ErrForbidden, "not the coach of this trainee")
	ErrAdminOnly       = newError(ErrForbidden, "admin role required")
	ErrCannotMessage   = newError(ErrForbidden, "cannot message this user")
	ErrCoachOrAdmin    = newError(ErrForbidden, "coach or admin role required")
	ErrSubmissionScope = newError(ErrForbidden, "no access to this submission")

	ErrNotPending     = newError(ErrInvalidState, "submission is no longer pending")
	ErrDraftBusy      = newError(ErrInvalidState, "draft is being finalized")
	ErrNotCoachRole   = newError(ErrInvalidState, "user is not a coach")
	ErrNotTraineeRole = newError(ErrInvalidState, "user is not a trainee")

	ErrNoExercises       = newError(ErrValidation, "at least one exercise is required")
	ErrUnknownExercise   = newError(ErrValidation, "unknown exercise id")
	ErrNegativePoints    = newError(ErrValidation, "points cannot be negative")
	ErrEmptyMessage      = newError(ErrValidation, "message content cannot be empty")
	ErrInvalidRole       = newError(ErrValidation, "invalid role")
	ErrVideoIndexInvalid = newError(ErrValidation, "video index out of range")
	ErrEmptyMedia        = newError(ErrValidation, "media content is empty")
)
