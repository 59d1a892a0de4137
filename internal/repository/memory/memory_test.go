package memory

import (
	"context"
	"testing"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmissionRepository_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepository()

	sub := &domain.Submission{ID: "s1", TraineeID: "t1", Status: domain.StatusPending, VideoIDs: []string{"a"}}
	require.NoError(t, repo.Create(ctx, sub))
	assert.Equal(t, int64(1), sub.Version)

	first, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	second, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)

	first.Feedback = "good"
	require.NoError(t, repo.Update(ctx, first))
	assert.Equal(t, int64(2), first.Version)

	second.Feedback = "stale"
	assert.ErrorIs(t, repo.Update(ctx, second), repository.ErrConflict)

	stored, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "good", stored.Feedback)

	missing := &domain.Submission{ID: "nope"}
	assert.ErrorIs(t, repo.Update(ctx, missing), repository.ErrNotFound)
}

func TestSubmissionRepository_UpdateKeepsOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepository()
	sub := &domain.Submission{ID: "s1", TraineeID: "t1"}
	require.NoError(t, repo.Create(ctx, sub))

	sub.TraineeID = "someone-else"
	require.NoError(t, repo.Update(ctx, sub))

	stored, err := repo.GetByID(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "t1", stored.TraineeID)
}

func TestSubmissionRepository_ListFiltersAndOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewSubmissionRepository()
	repo.Put(domain.Submission{ID: "old", TraineeID: "t1", Timestamp: 100, Status: domain.StatusPending})
	repo.Put(domain.Submission{ID: "new", TraineeID: "t1", Timestamp: 300, Status: domain.StatusCompleted})
	repo.Put(domain.Submission{ID: "other", TraineeID: "t2", Timestamp: 200, Status: domain.StatusPending})

	all, err := repo.List(ctx, repository.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"new", "other", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	own, err := repo.List(ctx, repository.SubmissionFilter{TraineeIDs: []string{"t1"}})
	require.NoError(t, err)
	assert.Len(t, own, 2)

	pending, err := repo.List(ctx, repository.SubmissionFilter{Status: domain.StatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	none, err := repo.List(ctx, repository.SubmissionFilter{TraineeIDs: []string{}})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSubmissionRepository_Subscribe(t *testing.T) {
	repo := NewSubmissionRepository()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- repo.Subscribe(ctx, func() { changes <- struct{}{} })
	}()

	// Wait until the subscriber is registered.
	require.Eventually(t, func() bool {
		repo.mu.Lock()
		defer repo.mu.Unlock()
		return len(repo.subs) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, repo.Create(context.Background(), &domain.Submission{ID: "s1"}))

	select {
	case <-changes:
	case <-time.After(time.Second):
		t.Fatal("no change signal after Create")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	coach := &domain.User{Email: "coach@example.com", Name: "Coach", Role: domain.RoleCoach}
	require.NoError(t, repo.Create(ctx, coach))
	assert.NotEmpty(t, coach.ID)

	dup := &domain.User{Email: "coach@example.com"}
	assert.ErrorIs(t, repo.Create(ctx, dup), repository.ErrDuplicateKey)

	trainee := &domain.User{Email: "t@example.com", Name: "Trainee", Role: domain.RoleTrainee}
	require.NoError(t, repo.Create(ctx, trainee))
	require.NoError(t, repo.SetCoach(ctx, trainee.ID, &coach.ID))
	require.NoError(t, repo.AddPoints(ctx, trainee.ID, 5))
	require.NoError(t, repo.AddPoints(ctx, trainee.ID, 7))

	got, err := repo.GetByID(ctx, trainee.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, got.Points)
	assert.True(t, got.CoachedBy(coach.ID))

	coached, err := repo.List(ctx, repository.UserFilter{CoachID: coach.ID})
	require.NoError(t, err)
	require.Len(t, coached, 1)
	assert.Equal(t, trainee.ID, coached[0].ID)

	require.NoError(t, repo.SetCoach(ctx, trainee.ID, nil))
	got, err = repo.GetByID(ctx, trainee.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CoachID)

	require.NoError(t, repo.Delete(ctx, trainee.ID))
	_, err = repo.GetByID(ctx, trainee.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
