// Package feed turns successive snapshots of the submissions collection into
// notification events.
package feed

import "github.com/fittrackproapp-droid/fittrackProApp/internal/domain"

// Diff compares two full snapshots. A PENDING submission whose id is new yields
// EventNewSubmission; a submission PENDING in prev and COMPLETED in next yields
// EventSubmissionReviewed. An empty prev is treated as "not loaded yet" and yields
// nothing. Events follow the order of next.
func Diff(prev, next []domain.Submission) []domain.NotificationEvent {
	if len(prev) == 0 {
		return nil
	}

	before := make(map[string]domain.SubmissionStatus, len(prev))
	for _, s := range prev {
		before[s.ID] = s.Status
	}

	var events []domain.NotificationEvent
	for _, s := range next {
		status, seen := before[s.ID]
		switch {
		case !seen && s.Status == domain.StatusPending:
			events = append(events, domain.NotificationEvent{Kind: domain.EventNewSubmission, Submission: s.Clone()})
		case seen && status == domain.StatusPending && s.Status == domain.StatusCompleted:
			events = append(events, domain.NotificationEvent{Kind: domain.EventSubmissionReviewed, Submission: s.Clone()})
		}
	}
	return events
}
