package domain

import "time"

// SubmissionStatus type for the review lifecycle
type SubmissionStatus string

const (
	StatusPending   SubmissionStatus = "PENDING"   // Trainee submitted, awaiting coach review
	StatusCompleted SubmissionStatus = "COMPLETED" // Coach reviewed and awarded points
)

// DeletedVideo occupies a videoIds slot whose clip was removed. The slot is kept so
// indices stay stable for display and re-fetch.
const DeletedVideo = "DELETED"

// Submission is one workout session's reviewable record. Field names are the
// persisted document format and must stay compatible with stored records.
type Submission struct {
	ID            string           `bson:"_id" json:"id"`
	PlanID        string           `bson:"planId" json:"planId"`       // Plan id or FreeWorkoutPlanID
	TraineeID     string           `bson:"traineeId" json:"traineeId"` // Owner, immutable
	ExerciseIDs   []string         `bson:"exerciseIds" json:"exerciseIds"`
	VideoIDs      []string         `bson:"videoIds" json:"videoIds"`   // Storage references or DeletedVideo
	Timestamp     int64            `bson:"timestamp" json:"timestamp"` // Unix millis, set once at creation
	Status        SubmissionStatus `bson:"status" json:"status"`
	Feedback      string           `bson:"feedback,omitempty" json:"feedback,omitempty"`
	TraineeNote   string           `bson:"traineeNote,omitempty" json:"traineeNote,omitempty"`
	PointsAwarded *int             `bson:"pointsAwarded,omitempty" json:"pointsAwarded,omitempty"`
	VideosDeleted bool             `bson:"videosDeleted" json:"videosDeleted"`

	// Version is bumped on every write and used for compare-and-swap updates.
	// Historical records without the field read as 0.
	Version int64 `bson:"version" json:"version"`
}

func (s *Submission) IsPending() bool {
	return s.Status == StatusPending
}

// LiveVideoIDs returns the references that still point at stored media.
func (s *Submission) LiveVideoIDs() []string {
	live := make([]string, 0, len(s.VideoIDs))
	for _, v := range s.VideoIDs {
		if v != "" && v != DeletedVideo {
			live = append(live, v)
		}
	}
	return live
}

// Clone returns a deep copy so callers can mutate slices without touching the original.
func (s Submission) Clone() Submission {
	c := s
	c.ExerciseIDs = append([]string(nil), s.ExerciseIDs...)
	c.VideoIDs = append([]string(nil), s.VideoIDs...)
	if s.PointsAwarded != nil {
		p := *s.PointsAwarded
		c.PointsAwarded = &p
	}
	return c
}

// NowMillis returns the current time in the Unix-millisecond format used by documents.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
