package notify

import (
	"context"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/rs/zerolog/log"
)

const (
	TitleNewSubmission = "New Workout Submission"
	TitleReviewed      = "Workout Reviewed!"
	BodyReviewed       = "Your coach has reviewed your submission."
)

// Dispatcher routes feed events: new submissions go to the trainee's coach,
// reviews go to the trainee.
type Dispatcher struct {
	notifier Notifier
	users    repository.UserRepository
}

func NewDispatcher(notifier Notifier, users repository.UserRepository) *Dispatcher {
	return &Dispatcher{notifier: notifier, users: users}
}

// Handle delivers every event; a failed delivery is logged and the rest continue.
func (d *Dispatcher) Handle(ctx context.Context, events []domain.NotificationEvent) {
	for _, ev := range events {
		if err := d.dispatch(ctx, ev); err != nil {
			log.Warn().Err(err).Str("kind", string(ev.Kind)).Str("submissionId", ev.Submission.ID).Msg("Notification not delivered")
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, ev domain.NotificationEvent) error {
	switch ev.Kind {
	case domain.EventNewSubmission:
		trainee, err := d.users.GetByID(ctx, ev.Submission.TraineeID)
		if err != nil {
			return err
		}
		if trainee.CoachID == nil {
			return nil
		}
		return d.notifier.Notify(ctx, *trainee.CoachID, TitleNewSubmission, trainee.Name+" submitted a workout.")
	case domain.EventSubmissionReviewed:
		return d.notifier.Notify(ctx, ev.Submission.TraineeID, TitleReviewed, BodyReviewed)
	default:
		return nil
	}
}
