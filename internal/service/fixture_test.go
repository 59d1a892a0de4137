package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository/memory"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/session"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// memBackend is a keyed backend holding objects in memory.
type memBackend struct {
	mu        sync.Mutex
	objects   map[string][]byte
	failNames map[string]bool // uploads of these names fail halfway
	removed   []string
}

func newMemBackend() *memBackend {
	return &memBackend{objects: map[string][]byte{}, failNames: map[string]bool{}}
}

func (b *memBackend) Kind() storage.Kind { return storage.KindKeyed }
func (b *memBackend) Name() string       { return "mem" }

func (b *memBackend) Store(_ context.Context, obj storage.Object, onProgress storage.ProgressFunc) (storage.Ref, error) {
	onProgress(50)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failNames[obj.Name] {
		return storage.Ref{}, errors.New("connection reset by peer")
	}
	key := "videos/" + uuid.NewString()
	b.objects[key] = append([]byte(nil), obj.Content...)
	return storage.Ref{Kind: storage.KindKeyed, Value: key}, nil
}

func (b *memBackend) Resolve(_ context.Context, ref storage.Ref) (string, error) {
	return "https://bucket.test/" + ref.Value, nil
}

func (b *memBackend) Open(_ context.Context, ref storage.Ref) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	content, ok := b.objects[ref.Value]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

func (b *memBackend) Remove(_ context.Context, ref storage.Ref) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removed = append(b.removed, ref.Value)
	delete(b.objects, ref.Value)
	return nil
}

func (b *memBackend) put(content string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := "videos/" + uuid.NewString()
	b.objects[key] = []byte(content)
	return key
}

func (b *memBackend) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

type fixture struct {
	repos   *memory.Store
	backend *memBackend
	drafts  *session.Registry

	plans    PlanService
	messages MessageService
	subs     SubmissionService
	users    UserService

	admin, coach, trainee, loner domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{repos: memory.New(), backend: newMemBackend()}
	store := storage.NewRouter(storage.NewClassifier(""), time.Second, f.backend)
	f.drafts = session.NewRegistry(store)

	r := f.repos
	f.plans = NewPlanService(r.Plans, r.Exercises, r.Users)
	f.messages = NewMessageService(r.Messages, r.Users)
	f.subs = NewSubmissionService(r.Submissions, r.Users, f.plans, f.messages, store, f.drafts)
	f.users = NewUserService(r.Users, r.Submissions, r.Plans, r.Messages, store)

	f.admin = f.addUser(t, "Admin", domain.RoleAdmin, nil)
	f.coach = f.addUser(t, "Coach", domain.RoleCoach, nil)
	f.trainee = f.addUser(t, "Trainee", domain.RoleTrainee, &f.coach.ID)
	f.loner = f.addUser(t, "Loner", domain.RoleTrainee, nil)

	_, err := f.plans.Catalog(ctx)
	require.NoError(t, err)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role domain.Role, coachID *string) domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: name + "@example.com", Role: role, CoachID: coachID}
	require.NoError(t, f.repos.Users.Create(context.Background(), u))
	return *u
}

func actorOf(u domain.User) domain.Actor {
	return domain.Actor{ID: u.ID, Role: u.Role}
}

// submit runs a full draft → finalize for the trainee with the given clip names.
func (f *fixture) submit(t *testing.T, trainee domain.User, exerciseIDs []string, clips ...string) *domain.Submission {
	t.Helper()
	ctx := context.Background()
	d, err := f.subs.Start(ctx, actorOf(trainee), exerciseIDs, "")
	require.NoError(t, err)
	for _, name := range clips {
		_, err := f.subs.AddMedia(ctx, actorOf(trainee), d.ID, []byte("clip:"+name), "video/mp4", name)
		require.NoError(t, err)
	}
	sub, err := f.subs.Finalize(ctx, actorOf(trainee), d.ID)
	require.NoError(t, err)
	return sub
}
