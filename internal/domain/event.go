package domain

// EventKind identifies a submission transition observed by the feed.
type EventKind string

const (
	EventNewSubmission      EventKind = "NEW_SUBMISSION"
	EventSubmissionReviewed EventKind = "SUBMISSION_REVIEWED"
)

// NotificationEvent carries what notification dispatch needs: the event kind and
// the submission it concerns (the trainee id identifies the affected users).
type NotificationEvent struct {
	Kind       EventKind  `json:"kind"`
	Submission Submission `json:"submission"`
}
