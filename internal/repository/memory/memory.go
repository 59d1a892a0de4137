// Package memory provides in-process repositories for local runs and tests.
// Semantics match the MongoDB implementations, including version checks.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/google/uuid"
)

// Store bundles one repository per collection.
type Store struct {
	Submissions *SubmissionRepository
	Users       *UserRepository
	Exercises   *ExerciseRepository
	Plans       *PlanRepository
	Messages    *MessageRepository
}

func New() *Store {
	return &Store{
		Submissions: NewSubmissionRepository(),
		Users:       NewUserRepository(),
		Exercises:   NewExerciseRepository(),
		Plans:       NewPlanRepository(),
		Messages:    NewMessageRepository(),
	}
}

// --- Submissions ---

type SubmissionRepository struct {
	mu   sync.Mutex
	docs map[string]domain.Submission
	subs map[int]chan struct{}
	next int
}

var _ repository.SubmissionRepository = (*SubmissionRepository)(nil)

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{docs: map[string]domain.Submission{}, subs: map[int]chan struct{}{}}
}

// Put stores a document as-is, bypassing version handling. Used to load fixtures.
func (r *SubmissionRepository) Put(sub domain.Submission) {
	r.mu.Lock()
	r.docs[sub.ID] = sub.Clone()
	r.mu.Unlock()
	r.changed()
}

func (r *SubmissionRepository) Create(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	if _, exists := r.docs[sub.ID]; exists {
		r.mu.Unlock()
		return repository.ErrDuplicateKey
	}
	sub.Version = 1
	r.docs[sub.ID] = sub.Clone()
	r.mu.Unlock()
	r.changed()
	return nil
}

func (r *SubmissionRepository) GetByID(_ context.Context, id string) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := s.Clone()
	return &c, nil
}

func (r *SubmissionRepository) List(_ context.Context, f repository.SubmissionFilter) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var allowed map[string]bool
	if f.TraineeIDs != nil {
		allowed = make(map[string]bool, len(f.TraineeIDs))
		for _, id := range f.TraineeIDs {
			allowed[id] = true
		}
	}

	out := []domain.Submission{}
	for _, s := range r.docs {
		if allowed != nil && !allowed[s.TraineeID] {
			continue
		}
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		out = append(out, s.Clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp == out[j].Timestamp {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp > out[j].Timestamp
	})
	return out, nil
}

func (r *SubmissionRepository) Update(_ context.Context, sub *domain.Submission) error {
	r.mu.Lock()
	cur, ok := r.docs[sub.ID]
	if !ok {
		r.mu.Unlock()
		return repository.ErrNotFound
	}
	if cur.Version != sub.Version {
		r.mu.Unlock()
		return repository.ErrConflict
	}
	sub.Version++
	updated := sub.Clone()
	updated.TraineeID = cur.TraineeID
	r.docs[sub.ID] = updated
	r.mu.Unlock()
	r.changed()
	return nil
}

func (r *SubmissionRepository) DeleteByTraineeID(_ context.Context, traineeID string) (int64, error) {
	r.mu.Lock()
	var n int64
	for id, s := range r.docs {
		if s.TraineeID == traineeID {
			delete(r.docs, id)
			n++
		}
	}
	r.mu.Unlock()
	if n > 0 {
		r.changed()
	}
	return n, nil
}

func (r *SubmissionRepository) Subscribe(ctx context.Context, onChange func()) error {
	ch := make(chan struct{}, 1)
	r.mu.Lock()
	id := r.next
	r.next++
	r.subs[id] = ch
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		delete(r.subs, id)
		r.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			onChange()
		}
	}
}

// changed wakes subscribers. Bursts coalesce since a listener re-reads everything anyway.
func (r *SubmissionRepository) changed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// --- Users ---

type UserRepository struct {
	mu   sync.Mutex
	docs map[string]domain.User
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{docs: map[string]domain.User{}}
}

func cloneUser(u domain.User) domain.User {
	if u.CoachID != nil {
		c := *u.CoachID
		u.CoachID = &c
	}
	return u
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.docs {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	r.docs[user.ID] = cloneUser(*user)
	return nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.docs {
		if u.Email == email {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := cloneUser(u)
	return &c, nil
}

func (r *UserRepository) List(_ context.Context, f repository.UserFilter) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.User{}
	for _, u := range r.docs {
		if f.Role != "" && u.Role != f.Role {
			continue
		}
		if f.CoachID != "" && !u.CoachedBy(f.CoachID) {
			continue
		}
		out = append(out, cloneUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *UserRepository) update(id string, fn func(*domain.User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.docs[id]
	if !ok {
		return repository.ErrNotFound
	}
	fn(&u)
	r.docs[id] = u
	return nil
}

func (r *UserRepository) AddPoints(_ context.Context, id string, delta int) error {
	return r.update(id, func(u *domain.User) { u.Points += delta })
}

func (r *UserRepository) SetRole(_ context.Context, id string, role domain.Role) error {
	return r.update(id, func(u *domain.User) { u.Role = role })
}

func (r *UserRepository) SetCoach(_ context.Context, traineeID string, coachID *string) error {
	return r.update(traineeID, func(u *domain.User) {
		if coachID == nil {
			u.CoachID = nil
			return
		}
		c := *coachID
		u.CoachID = &c
	})
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.docs, id)
	return nil
}

// --- Exercises ---

type ExerciseRepository struct {
	mu   sync.Mutex
	docs map[string]domain.Exercise
}

var _ repository.ExerciseRepository = (*ExerciseRepository)(nil)

func NewExerciseRepository() *ExerciseRepository {
	return &ExerciseRepository{docs: map[string]domain.Exercise{}}
}

func (r *ExerciseRepository) List(context.Context) ([]domain.Exercise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Exercise, 0, len(r.docs))
	for _, e := range r.docs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category == out[j].Category {
			return out[i].Name < out[j].Name
		}
		return out[i].Category < out[j].Category
	})
	return out, nil
}

func (r *ExerciseRepository) Upsert(_ context.Context, exercise *domain.Exercise) error {
	r.mu.Lock()
	r.docs[exercise.ID] = *exercise
	r.mu.Unlock()
	return nil
}

func (r *ExerciseRepository) Seed(_ context.Context, exercises []domain.Exercise) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range exercises {
		if _, ok := r.docs[e.ID]; !ok {
			r.docs[e.ID] = e
		}
	}
	return nil
}

// --- Plans ---

type PlanRepository struct {
	mu   sync.Mutex
	docs map[string]domain.WorkoutPlan // keyed by traineeId
}

var _ repository.PlanRepository = (*PlanRepository)(nil)

func NewPlanRepository() *PlanRepository {
	return &PlanRepository{docs: map[string]domain.WorkoutPlan{}}
}

func (r *PlanRepository) GetByTraineeID(_ context.Context, traineeID string) (*domain.WorkoutPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.docs[traineeID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.ExerciseIDs = append([]string(nil), p.ExerciseIDs...)
	return &p, nil
}

func (r *PlanRepository) Save(_ context.Context, plan *domain.WorkoutPlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.docs[plan.TraineeID]; ok {
		plan.ID = existing.ID
	} else if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	stored := *plan
	stored.ExerciseIDs = append([]string(nil), plan.ExerciseIDs...)
	r.docs[plan.TraineeID] = stored
	return nil
}

func (r *PlanRepository) DeleteByTraineeID(_ context.Context, traineeID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[traineeID]; !ok {
		return 0, nil
	}
	delete(r.docs, traineeID)
	return 1, nil
}

// --- Messages ---

type MessageRepository struct {
	mu   sync.Mutex
	docs []domain.Message
}

var _ repository.MessageRepository = (*MessageRepository)(nil)

func NewMessageRepository() *MessageRepository {
	return &MessageRepository{}
}

func (r *MessageRepository) Create(_ context.Context, msg *domain.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	r.mu.Lock()
	r.docs = append(r.docs, *msg)
	r.mu.Unlock()
	return nil
}

func (r *MessageRepository) ListForUser(_ context.Context, userID string) ([]domain.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Message{}
	for _, m := range r.docs {
		if m.SenderID == userID || m.ReceiverID == userID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, userID string, ids []string) (int64, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.docs {
		m := &r.docs[i]
		if want[m.ID] && m.ReceiverID == userID && !m.Read {
			m.Read = true
			n++
		}
	}
	return n, nil
}

func (r *MessageRepository) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.docs[:0]
	var n int64
	for _, m := range r.docs {
		if m.SenderID == userID || m.ReceiverID == userID {
			n++
			continue
		}
		kept = append(kept, m)
	}
	r.docs = kept
	return n, nil
}
