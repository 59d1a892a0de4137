package repository

import (
	"context" // Standard for request-scoped deadlines, cancellation signals, etc.

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("document was modified concurrently")
	ErrDuplicateKey = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// SubmissionFilter narrows List. Zero values mean no constraint.
type SubmissionFilter struct {
	TraineeIDs []string // Owner must be one of these when non-nil
	Status     domain.SubmissionStatus
}

// SubmissionRepository persists workout submissions.
type SubmissionRepository interface {
	Create(ctx context.Context, sub *domain.Submission) error
	GetByID(ctx context.Context, id string) (*domain.Submission, error)
	// List returns matches newest first.
	List(ctx context.Context, filter SubmissionFilter) ([]domain.Submission, error)
	// Update is a compare-and-swap on sub.Version. On success sub.Version is bumped,
	// on a lost race ErrConflict is returned and nothing is written.
	Update(ctx context.Context, sub *domain.Submission) error
	DeleteByTraineeID(ctx context.Context, traineeID string) (int64, error)
	// Subscribe blocks, calling onChange after every write to the collection,
	// until ctx is done or the change stream fails.
	Subscribe(ctx context.Context, onChange func()) error
}

// UserFilter narrows List. Zero values mean no constraint.
type UserFilter struct {
	Role    domain.Role
	CoachID string
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]domain.User, error)
	// AddPoints increments the user's points atomically.
	AddPoints(ctx context.Context, id string, delta int) error
	SetRole(ctx context.Context, id string, role domain.Role) error
	// SetCoach assigns (or clears, when coachID is nil) a trainee's coach.
	SetCoach(ctx context.Context, traineeID string, coachID *string) error
	Delete(ctx context.Context, id string) error
}

// ExerciseRepository defines the interface for the global exercise catalog.
type ExerciseRepository interface {
	List(ctx context.Context) ([]domain.Exercise, error)
	Upsert(ctx context.Context, exercise *domain.Exercise) error
	// Seed inserts entries whose ids are not present yet.
	Seed(ctx context.Context, exercises []domain.Exercise) error
}

// PlanRepository stores one workout plan per trainee.
type PlanRepository interface {
	GetByTraineeID(ctx context.Context, traineeID string) (*domain.WorkoutPlan, error)
	// Save upserts by traineeId, keeping the existing plan id if there is one.
	Save(ctx context.Context, plan *domain.WorkoutPlan) error
	DeleteByTraineeID(ctx context.Context, traineeID string) (int64, error)
}

// MessageRepository stores coach/trainee messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	// ListForUser returns messages sent or received by userID, oldest first.
	ListForUser(ctx context.Context, userID string) ([]domain.Message, error)
	// MarkRead flags the given messages read, limited to ones received by userID.
	MarkRead(ctx context.Context, userID string, ids []string) (int64, error)
	// DeleteByUser removes messages sent or received by userID.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
