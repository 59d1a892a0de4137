package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// PlanService binds trainees to their assigned exercises and owns the exercise catalog.
type PlanService interface {
	// GetPlan returns the trainee's plan, or nil if none was assigned yet.
	GetPlan(ctx context.Context, actor domain.Actor, traineeID string) (*domain.WorkoutPlan, error)
	SavePlan(ctx context.Context, actor domain.Actor, traineeID string, exerciseIDs []string) (*domain.WorkoutPlan, error)
	// Catalog lists every exercise, seeding the defaults into an empty catalog.
	Catalog(ctx context.Context) ([]domain.Exercise, error)
	SaveExercise(ctx context.Context, actor domain.Actor, exercise domain.Exercise) (*domain.Exercise, error)
	// BindSession validates exercise ids for a new session and returns the plan id it belongs to.
	BindSession(ctx context.Context, traineeID string, exerciseIDs []string) (planID string, err error)
	// ExerciseNames maps ids to display names, in order, skipping unknown ids.
	ExerciseNames(ctx context.Context, exerciseIDs []string) ([]string, error)
}

// planService implements the PlanService interface.
type planService struct {
	planRepo     repository.PlanRepository
	exerciseRepo repository.ExerciseRepository
	userRepo     repository.UserRepository
}

// NewPlanService creates a new instance of planService.
func NewPlanService(
	planRepo repository.PlanRepository,
	exerciseRepo repository.ExerciseRepository,
	userRepo repository.UserRepository,
) PlanService {
	return &planService{
		planRepo:     planRepo,
		exerciseRepo: exerciseRepo,
		userRepo:     userRepo,
	}
}

func (s *planService) GetPlan(ctx context.Context, actor domain.Actor, traineeID string) (*domain.WorkoutPlan, error) {
	if actor.ID != traineeID {
		if err := s.checkCoachOf(ctx, actor, traineeID); err != nil {
			return nil, err
		}
	}

	plan, err := s.planRepo.GetByTraineeID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return plan, nil
}

// SavePlan overwrites the trainee's plan (there is only ever one per trainee).
func (s *planService) SavePlan(ctx context.Context, actor domain.Actor, traineeID string, exerciseIDs []string) (*domain.WorkoutPlan, error) {
	// 1. Only the trainee's coach (or an admin) edits the plan
	if err := s.checkCoachOf(ctx, actor, traineeID); err != nil {
		return nil, err
	}

	// 2. Every id must exist in the catalog
	if err := s.validateExercises(ctx, exerciseIDs); err != nil {
		return nil, err
	}

	// 3. Upsert by trainee
	plan := &domain.WorkoutPlan{
		CoachID:     actor.ID,
		TraineeID:   traineeID,
		ExerciseIDs: append([]string{}, exerciseIDs...),
		LastUpdated: domain.NowMillis(),
	}
	if err := s.planRepo.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("save plan: %w", err)
	}

	log.Info().Str("traineeId", traineeID).Str("coachId", actor.ID).Int("exercises", len(exerciseIDs)).Msg("Workout plan saved")
	return plan, nil
}

func (s *planService) Catalog(ctx context.Context) ([]domain.Exercise, error) {
	exercises, err := s.exerciseRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if len(exercises) > 0 {
		return exercises, nil
	}

	log.Info().Int("count", len(domain.DefaultExercises)).Msg("Exercise catalog empty, seeding defaults")
	if err := s.exerciseRepo.Seed(ctx, domain.DefaultExercises); err != nil {
		return nil, fmt.Errorf("seed exercises: %w", err)
	}
	return s.exerciseRepo.List(ctx)
}

func (s *planService) SaveExercise(ctx context.Context, actor domain.Actor, exercise domain.Exercise) (*domain.Exercise, error) {
	if !actor.IsCoach() && !actor.IsAdmin() {
		return nil, ErrCoachOrAdmin
	}
	exercise.Name = strings.TrimSpace(exercise.Name)
	if exercise.Name == "" {
		return nil, newError(ErrValidation, "exercise name is required")
	}
	if exercise.ID == "" {
		exercise.ID = uuid.NewString()
	}
	if err := s.exerciseRepo.Upsert(ctx, &exercise); err != nil {
		return nil, err
	}
	return &exercise, nil
}

func (s *planService) BindSession(ctx context.Context, traineeID string, exerciseIDs []string) (string, error) {
	if len(exerciseIDs) == 0 {
		return "", ErrNoExercises
	}
	if err := s.validateExercises(ctx, exerciseIDs); err != nil {
		return "", err
	}

	plan, err := s.planRepo.GetByTraineeID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.FreeWorkoutPlanID, nil
		}
		return "", err
	}
	return plan.ID, nil
}

func (s *planService) ExerciseNames(ctx context.Context, exerciseIDs []string) ([]string, error) {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(catalog))
	for _, e := range catalog {
		byID[e.ID] = e.Name
	}
	names := make([]string, 0, len(exerciseIDs))
	for _, id := range exerciseIDs {
		if n, ok := byID[id]; ok {
			names = append(names, n)
		}
	}
	return names, nil
}

func (s *planService) validateExercises(ctx context.Context, exerciseIDs []string) error {
	catalog, err := s.Catalog(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(catalog))
	for _, e := range catalog {
		known[e.ID] = true
	}
	for _, id := range exerciseIDs {
		if !known[id] {
			return fmt.Errorf("%w: %s", ErrUnknownExercise, id)
		}
	}
	return nil
}

// checkCoachOf allows admins, and coaches of the given trainee.
func (s *planService) checkCoachOf(ctx context.Context, actor domain.Actor, traineeID string) error {
	return checkCoachOf(ctx, s.userRepo, actor, traineeID)
}

func checkCoachOf(ctx context.Context, users repository.UserRepository, actor domain.Actor, traineeID string) error {
	trainee, err := users.GetByID(ctx, traineeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if actor.IsAdmin() {
		return nil
	}
	if !actor.IsCoach() || !trainee.CoachedBy(actor.ID) {
		return ErrNotCoachOf
	}
	return nil
}
