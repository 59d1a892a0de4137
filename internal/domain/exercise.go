// internal/domain/exercise.go
package domain

// Exercise represents a single exercise definition in the global catalog.
type Exercise struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Category    string `bson:"category" json:"category"` // e.g., "Chest", "Legs", "Cardio"
	Description string `bson:"description" json:"description"`
}

// DefaultExercises seeds an empty catalog.
var DefaultExercises = []Exercise{
	// Chest
	{ID: "c1", Name: "Barbell Bench Press", Category: "Chest", Description: "Compound chest exercise."},
	{ID: "c2", Name: "Incline Dumbbell Press", Category: "Chest", Description: "Upper chest focus."},
	{ID: "c3", Name: "Cable Flyes", Category: "Chest", Description: "Chest isolation."},
	{ID: "c4", Name: "Push-ups", Category: "Chest", Description: "Bodyweight standard."},
	// Back
	{ID: "b1", Name: "Deadlift", Category: "Back", Description: "Full body compound."},
	{ID: "b2", Name: "Pull-ups", Category: "Back", Description: "Vertical pull."},
	{ID: "b3", Name: "Barbell Rows", Category: "Back", Description: "Horizontal row."},
	{ID: "b4", Name: "Lat Pulldown", Category: "Back", Description: "Vertical pull machine."},
	{ID: "b5", Name: "Static Pull-up Hold", Category: "Back", Description: "Isometric back strength."},
	{ID: "b6", Name: "One-Arm Dumbbell Row", Category: "Back", Description: "Unilateral back exercise."},
	// Legs
	{ID: "l1", Name: "Barbell Squat", Category: "Legs", Description: "King of leg exercises."},
	{ID: "l2", Name: "Leg Press", Category: "Legs", Description: "Machine leg push."},
	{ID: "l3", Name: "Romanian Deadlift", Category: "Legs", Description: "Hamstring focus."},
	{ID: "l4", Name: "Lunges", Category: "Legs", Description: "Unilateral leg work."},
	{ID: "l5", Name: "Calf Raises", Category: "Legs", Description: "Isolation for calves."},
	// Shoulders
	{ID: "s1", Name: "Overhead Press", Category: "Shoulders", Description: "Vertical push."},
	{ID: "s2", Name: "Lateral Raises", Category: "Shoulders", Description: "Side delt isolation."},
	{ID: "s3", Name: "Face Pulls", Category: "Shoulders", Description: "Rear delt and posture."},
	// Arms
	{ID: "a1", Name: "Barbell Curls", Category: "Arms", Description: "Bicep builder."},
	{ID: "a2", Name: "Tricep Pushdowns", Category: "Arms", Description: "Tricep isolation."},
	{ID: "a3", Name: "Hammer Curls", Category: "Arms", Description: "Brachialis focus."},
	{ID: "a4", Name: "Skullcrushers", Category: "Arms", Description: "Tricep extension."},
	// Core / Cardio
	{ID: "x1", Name: "Plank", Category: "Core", Description: "Static hold."},
	{ID: "x2", Name: "Hanging Leg Raises", Category: "Core", Description: "Lower abs."},
	{ID: "x3", Name: "Burpees", Category: "Cardio", Description: "Full body conditioning."},
	{ID: "x4", Name: "Mountain Climbers", Category: "Cardio", Description: "High intensity core."},
	{ID: "x5", Name: "Running", Category: "Cardio", Description: "Steady state cardio."},
	{ID: "x6", Name: "Stairs Running", Category: "Cardio", Description: "High intensity cardio."},
	{ID: "x7", Name: "Jump Rope", Category: "Cardio", Description: "Coordination and cardio."},
	{ID: "x8", Name: "Sit-ups", Category: "Core", Description: "Abdominal flexion."},
	{ID: "x9", Name: "Penguin Crunches", Category: "Core", Description: "Oblique focus."},
	{ID: "x10", Name: "Bicycle Crunches", Category: "Core", Description: "Dynamic core stability."},
}
