// Package app wires configuration, repositories, storage and services together
// for the server and the admin CLI.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/feed"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/notify"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository/memory"
	repomongo "github.com/fittrackproapp-droid/fittrackProApp/internal/repository/mongo"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/session"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

type Repositories struct {
	Submissions repository.SubmissionRepository
	Users       repository.UserRepository
	Exercises   repository.ExerciseRepository
	Plans       repository.PlanRepository
	Messages    repository.MessageRepository
}

type Services struct {
	Auth        service.AuthService
	Plans       service.PlanService
	Submissions service.SubmissionService
	Messages    service.MessageService
	Users       service.UserService
}

// App holds every long-lived component.
type App struct {
	Config   *config.Config
	Repos    Repositories
	Store    storage.BlobStore
	Drafts   *session.Registry
	Services Services

	dbClient *mongo.Client
}

// Open connects the configured database and storage and builds the services.
func Open(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	// 1. Repositories
	switch cfg.Database.Driver {
	case config.DriverMemory:
		log.Warn().Msg("Using in-memory database, data is lost on exit")
		mem := memory.New()
		a.Repos = Repositories{
			Submissions: mem.Submissions,
			Users:       mem.Users,
			Exercises:   mem.Exercises,
			Plans:       mem.Plans,
			Messages:    mem.Messages,
		}
	case config.DriverMongo, "":
		client, err := repomongo.ConnectDB(ctx, cfg.Database.URI)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		a.dbClient = client
		db := client.Database(cfg.Database.Name)

		idxCtx, cancel := context.WithTimeout(ctx, time.Minute)
		repomongo.EnsureIndexes(idxCtx, db)
		cancel()

		a.Repos = Repositories{
			Submissions: repomongo.NewMongoSubmissionRepository(db),
			Users:       repomongo.NewMongoUserRepository(db),
			Exercises:   repomongo.NewMongoExerciseRepository(db),
			Plans:       repomongo.NewMongoPlanRepository(db),
			Messages:    repomongo.NewMongoMessageRepository(db),
		}
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}

	// 2. Blob storage; an incomplete active backend stops startup
	store, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = store
	a.Drafts = session.NewRegistry(store)

	// 3. Services
	r := a.Repos
	plans := service.NewPlanService(r.Plans, r.Exercises, r.Users)
	messages := service.NewMessageService(r.Messages, r.Users)
	a.Services = Services{
		Auth:        service.NewAuthService(r.Users, cfg.JWT.Secret, cfg.JWT.Expiration),
		Plans:       plans,
		Messages:    messages,
		Submissions: service.NewSubmissionService(r.Submissions, r.Users, plans, messages, store, a.Drafts),
		Users:       service.NewUserService(r.Users, r.Submissions, r.Plans, r.Messages, store),
	}
	return a, nil
}

// NewFeedWatcher builds a watcher that pushes submission events through the configured notifier.
func (a *App) NewFeedWatcher() *feed.Watcher {
	dispatcher := notify.NewDispatcher(notify.New(a.Config.Notify), a.Repos.Users)
	return feed.NewWatcher(feed.RepositorySource(a.Repos.Submissions), dispatcher.Handle)
}

// RunFeed runs the watcher until ctx is done, restarting it after failures
// (e.g. a dropped change stream).
func (a *App) RunFeed(ctx context.Context, retryDelay time.Duration) {
	for {
		w := a.NewFeedWatcher()
		err := w.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retryIn", retryDelay).Msg("Submission feed stopped, restarting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(retryDelay):
		}
	}
}

// SweepDrafts discards drafts older than maxAge every interval until ctx is done.
func (a *App) SweepDrafts(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.Drafts.DiscardStale(maxAge); n > 0 {
				log.Info().Int("discarded", n).Msg("Discarded stale drafts")
			}
		}
	}
}

// Close disconnects the database, if any.
func (a *App) Close() {
	if a.dbClient == nil {
		return
	}
	if err := repomongo.DisconnectDB(a.dbClient); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect MongoDB")
	}
}
