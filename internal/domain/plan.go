// internal/domain/plan.go
package domain

// FreeWorkoutPlanID marks a submission recorded without an assigned plan.
const FreeWorkoutPlanID = "free-workout"

// WorkoutPlan is the trainee's standing list of assigned exercises, set by their coach.
// There is at most one plan per trainee.
type WorkoutPlan struct {
	ID          string   `bson:"_id" json:"id"`
	CoachID     string   `bson:"coachId" json:"coachId"`     // Who wrote the plan
	TraineeID   string   `bson:"traineeId" json:"traineeId"` // Who the plan is for
	ExerciseIDs []string `bson:"exerciseIds" json:"exerciseIds"`
	LastUpdated int64    `bson:"lastUpdated" json:"lastUpdated"` // Unix millis
}

// Includes reports whether exerciseID is part of the plan.
func (p *WorkoutPlan) Includes(exerciseID string) bool {
	for _, id := range p.ExerciseIDs {
		if id == exerciseID {
			return true
		}
	}
	return false
}
