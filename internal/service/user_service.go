package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/rs/zerolog/log"
)

// UserService covers role and coach assignment and account removal.
type UserService interface {
	GetMe(ctx context.Context, actor domain.Actor) (*domain.User, error)
	// ListUsers returns every user for admins and the actor's own trainees for coaches.
	ListUsers(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.User, error)
	// AssignCoach links a trainee to a coach; a nil coachID unassigns.
	AssignCoach(ctx context.Context, actor domain.Actor, traineeID string, coachID *string) error
	SetRole(ctx context.Context, actor domain.Actor, userID string, role domain.Role) error
	// DeleteAccount removes a user and everything they own. Stored clips are removed
	// best-effort; a storage failure never blocks the account removal.
	DeleteAccount(ctx context.Context, actor domain.Actor, userID string) error
}

type userService struct {
	userRepo    repository.UserRepository
	subRepo     repository.SubmissionRepository
	planRepo    repository.PlanRepository
	messageRepo repository.MessageRepository
	store       storage.BlobStore
}

func NewUserService(
	userRepo repository.UserRepository,
	subRepo repository.SubmissionRepository,
	planRepo repository.PlanRepository,
	messageRepo repository.MessageRepository,
	store storage.BlobStore,
) UserService {
	return &userService{
		userRepo:    userRepo,
		subRepo:     subRepo,
		planRepo:    planRepo,
		messageRepo: messageRepo,
		store:       store,
	}
}

func (s *userService) GetMe(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.getUser(ctx, actor.ID)
}

func (s *userService) ListUsers(ctx context.Context, actor domain.Actor, role domain.Role) ([]domain.User, error) {
	switch {
	case actor.IsAdmin():
		return s.userRepo.List(ctx, repository.UserFilter{Role: role})
	case actor.IsCoach():
		return s.userRepo.List(ctx, repository.UserFilter{Role: domain.RoleTrainee, CoachID: actor.ID})
	default:
		return nil, ErrCoachOrAdmin
	}
}

func (s *userService) AssignCoach(ctx context.Context, actor domain.Actor, traineeID string, coachID *string) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	trainee, err := s.getUser(ctx, traineeID)
	if err != nil {
		return err
	}
	if !trainee.IsTrainee() {
		return ErrNotTraineeRole
	}
	if coachID != nil {
		coach, err := s.getUser(ctx, *coachID)
		if err != nil {
			return err
		}
		if !coach.IsCoach() {
			return ErrNotCoachRole
		}
	}
	if err := s.userRepo.SetCoach(ctx, traineeID, coachID); err != nil {
		return fmt.Errorf("set coach: %w", err)
	}
	log.Info().Str("traineeId", traineeID).Interface("coachId", coachID).Msg("Coach assignment updated")
	return nil
}

func (s *userService) SetRole(ctx context.Context, actor domain.Actor, userID string, role domain.Role) error {
	if !actor.IsAdmin() {
		return ErrAdminOnly
	}
	if !role.Valid() {
		return ErrInvalidRole
	}
	if _, err := s.getUser(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.SetRole(ctx, userID, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	log.Info().Str("userId", userID).Str("role", string(role)).Msg("User role updated")
	return nil
}

func (s *userService) DeleteAccount(ctx context.Context, actor domain.Actor, userID string) error {
	if actor.ID != userID && !actor.IsAdmin() {
		return ErrAdminOnly
	}
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return err
	}

	// 1. Stored clips, best-effort
	subs, err := s.subRepo.List(ctx, repository.SubmissionFilter{TraineeIDs: []string{userID}})
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}
	var refs []storage.Ref
	for _, sub := range subs {
		for _, raw := range sub.LiveVideoIDs() {
			refs = append(refs, s.store.Parse(raw))
		}
	}
	if err := s.store.RemoveAll(ctx, refs); err != nil {
		log.Warn().Err(err).Str("userId", userID).Int("clips", len(refs)).Msg("Some clips could not be removed from storage")
	}

	// 2. Documents
	subCount, err := s.subRepo.DeleteByTraineeID(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete submissions: %w", err)
	}
	if _, err := s.planRepo.DeleteByTraineeID(ctx, userID); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	msgCount, err := s.messageRepo.DeleteByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}

	// 3. A removed coach leaves their trainees unassigned
	if user.IsCoach() {
		trainees, err := s.userRepo.List(ctx, repository.UserFilter{Role: domain.RoleTrainee, CoachID: userID})
		if err != nil {
			return fmt.Errorf("list trainees: %w", err)
		}
		for _, t := range trainees {
			if err := s.userRepo.SetCoach(ctx, t.ID, nil); err != nil {
				return fmt.Errorf("unassign trainee %s: %w", t.ID, err)
			}
		}
	}

	// 4. The account itself
	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	log.Info().
		Str("userId", userID).
		Str("actorId", actor.ID).
		Int64("submissions", subCount).
		Int64("messages", msgCount).
		Msg("Account deleted")
	return nil
}

func (s *userService) getUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
