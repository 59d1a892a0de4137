package service

import (
	"context"
	"testing"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanService(t *testing.T) {
	ctx := context.Background()

	t.Run("Catalog Seeds Defaults Once", func(t *testing.T) {
		f := newFixture(t)
		catalog, err := f.plans.Catalog(ctx)
		require.NoError(t, err)
		assert.Len(t, catalog, len(domain.DefaultExercises))

		added, err := f.plans.SaveExercise(ctx, actorOf(f.coach), domain.Exercise{Name: " Box Jumps ", Category: "Legs"})
		require.NoError(t, err)
		assert.NotEmpty(t, added.ID)
		assert.Equal(t, "Box Jumps", added.Name)

		catalog, err = f.plans.Catalog(ctx)
		require.NoError(t, err)
		assert.Len(t, catalog, len(domain.DefaultExercises)+1)

		_, err = f.plans.SaveExercise(ctx, actorOf(f.trainee), domain.Exercise{Name: "Nope"})
		assert.ErrorIs(t, err, ErrCoachOrAdmin)
		_, err = f.plans.SaveExercise(ctx, actorOf(f.admin), domain.Exercise{Name: "  "})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("Save Plan Upserts Per Trainee", func(t *testing.T) {
		f := newFixture(t)
		first, err := f.plans.SavePlan(ctx, actorOf(f.coach), f.trainee.ID, []string{"c1"})
		require.NoError(t, err)
		second, err := f.plans.SavePlan(ctx, actorOf(f.coach), f.trainee.ID, []string{"b1", "l1"})
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)

		plan, err := f.plans.GetPlan(ctx, actorOf(f.trainee), f.trainee.ID)
		require.NoError(t, err)
		require.NotNil(t, plan)
		assert.Equal(t, []string{"b1", "l1"}, plan.ExerciseIDs)
		assert.True(t, plan.Includes("l1"))
		assert.Equal(t, f.coach.ID, plan.CoachID)
	})

	t.Run("Plan Access", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.plans.SavePlan(ctx, actorOf(f.coach), f.loner.ID, []string{"c1"})
		assert.ErrorIs(t, err, ErrNotCoachOf)

		_, err = f.plans.SavePlan(ctx, actorOf(f.coach), f.trainee.ID, []string{"zz"})
		assert.ErrorIs(t, err, ErrUnknownExercise)

		_, err = f.plans.SavePlan(ctx, actorOf(f.coach), "ghost", []string{"c1"})
		assert.ErrorIs(t, err, ErrUserNotFound)

		plan, err := f.plans.GetPlan(ctx, actorOf(f.loner), f.loner.ID)
		require.NoError(t, err)
		assert.Nil(t, plan)

		_, err = f.plans.GetPlan(ctx, actorOf(f.loner), f.trainee.ID)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = f.plans.SavePlan(ctx, actorOf(f.admin), f.loner.ID, []string{"x1"})
		assert.NoError(t, err)
	})

	t.Run("Exercise Names Keep Order", func(t *testing.T) {
		f := newFixture(t)
		names, err := f.plans.ExerciseNames(ctx, []string{"l1", "missing", "c1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Barbell Squat", "Barbell Bench Press"}, names)
	})
}

func TestMessageService(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Pairing rules
	_, err := f.messages.Send(ctx, actorOf(f.coach), f.trainee.ID, "Nice work")
	require.NoError(t, err)
	reply, err := f.messages.Send(ctx, actorOf(f.trainee), f.coach.ID, "Thanks!")
	require.NoError(t, err)
	_, err = f.messages.Send(ctx, actorOf(f.coach), f.loner.ID, "Hi")
	assert.ErrorIs(t, err, ErrCannotMessage)
	_, err = f.messages.Send(ctx, actorOf(f.loner), f.coach.ID, "Hi")
	assert.ErrorIs(t, err, ErrCannotMessage)
	_, err = f.messages.Send(ctx, actorOf(f.admin), f.loner.ID, "Welcome")
	require.NoError(t, err)
	_, err = f.messages.Send(ctx, actorOf(f.coach), "ghost", "Hi")
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.messages.Send(ctx, actorOf(f.coach), f.trainee.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	msgs, err := f.messages.List(ctx, actorOf(f.coach))
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	// Only the receiver can mark a message read
	n, err := f.messages.MarkRead(ctx, actorOf(f.trainee), []string{reply.ID})
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = f.messages.MarkRead(ctx, actorOf(f.coach), []string{reply.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
