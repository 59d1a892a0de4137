package feed

import (
	"context"
	"sync"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/rs/zerolog/log"
)

// SnapshotSource delivers change signals and full re-reads of the collection.
type SnapshotSource interface {
	// Subscribe calls onChange after every change until ctx is done.
	Subscribe(ctx context.Context, onChange func()) error
	Snapshot(ctx context.Context) ([]domain.Submission, error)
}

// Handler receives each non-empty batch of events.
type Handler func(ctx context.Context, events []domain.NotificationEvent)

type repositorySource struct {
	repo repository.SubmissionRepository
}

// RepositorySource watches every submission in repo.
func RepositorySource(repo repository.SubmissionRepository) SnapshotSource {
	return &repositorySource{repo: repo}
}

func (s *repositorySource) Subscribe(ctx context.Context, onChange func()) error {
	return s.repo.Subscribe(ctx, onChange)
}

func (s *repositorySource) Snapshot(ctx context.Context) ([]domain.Submission, error) {
	return s.repo.List(ctx, repository.SubmissionFilter{})
}

// Watcher keeps the last snapshot and hands the diff of each new one to a handler.
type Watcher struct {
	source  SnapshotSource
	handler Handler

	mu   sync.Mutex
	last []domain.Submission
}

func NewWatcher(source SnapshotSource, handler Handler) *Watcher {
	return &Watcher{source: source, handler: handler}
}

// Run loads the initial snapshot (which never produces events) and then follows
// changes until ctx is done or the subscription fails.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.refresh(ctx); err != nil {
		return err
	}
	return w.source.Subscribe(ctx, func() {
		if err := w.refresh(ctx); err != nil {
			log.Warn().Err(err).Msg("Feed refresh failed")
		}
	})
}

func (w *Watcher) refresh(ctx context.Context) error {
	next, err := w.source.Snapshot(ctx)
	if err != nil {
		return err
	}

	w.mu.Lock()
	events := Diff(w.last, next)
	w.last = next
	w.mu.Unlock()

	if len(events) > 0 {
		log.Debug().Int("events", len(events)).Msg("Feed events")
		w.handler(ctx, events)
	}
	return nil
}
