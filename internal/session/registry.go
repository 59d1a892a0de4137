package session

import (
	"errors"
	"sync"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/progress"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/google/uuid"
)

var (
	ErrDraftNotFound = errors.New("draft not found")
	ErrDraftNotOwned = errors.New("draft belongs to another trainee")
	ErrDraftBusy     = errors.New("draft is already being finalized")
)

// Draft is an unsaved workout session held server-side until finalize.
type Draft struct {
	ID        string
	TraineeID string
	PlanID    string
	// EditingID is set when the draft re-finalizes an existing PENDING submission.
	EditingID string
	// Timestamp is the original session time on edit, zero for new sessions.
	Timestamp int64
	// Version is the record version the edit was loaded from.
	Version int64
	CreatedAt time.Time

	Media    *MediaSet
	Progress *progress.Tracker

	mu          sync.Mutex
	now         func() time.Time
	lastActive  time.Time
	exerciseIDs []string
	note        string
	finalizing  bool
	closed      bool
}

func (d *Draft) ExerciseIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.exerciseIDs...)
}

func (d *Draft) Note() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.note
}

// Update replaces the exercise list and note when non-nil.
func (d *Draft) Update(exerciseIDs []string, note *string) error {
	return d.edit(func() {
		if exerciseIDs != nil {
			d.exerciseIDs = append([]string(nil), exerciseIDs...)
		}
		if note != nil {
			d.note = *note
		}
	})
}

// AddLocal appends a new clip unless the draft is finalizing or closed.
func (d *Draft) AddLocal(content []byte, contentType, name string) (Item, error) {
	var item Item
	err := d.edit(func() {
		item = d.Media.AddLocal(content, contentType, name)
	})
	return item, err
}

// RemoveItem drops a clip unless the draft is finalizing or closed.
func (d *Draft) RemoveItem(itemID string) (bool, error) {
	var removed bool
	err := d.edit(func() {
		removed = d.Media.Remove(itemID)
	})
	return removed, err
}

// edit runs fn under the draft lock so it cannot interleave with BeginFinalize.
func (d *Draft) edit(fn func()) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDraftNotFound
	}
	if d.finalizing {
		return ErrDraftBusy
	}
	fn()
	d.lastActive = d.now()
	return nil
}

func (d *Draft) touch() {
	d.mu.Lock()
	d.lastActive = d.now()
	d.mu.Unlock()
}

// idleSince reports whether the draft was last used before cutoff. A finalizing draft is never idle.
func (d *Draft) idleSince(cutoff time.Time) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.finalizing && d.lastActive.Before(cutoff)
}

// BeginFinalize marks the draft busy. Returns ErrDraftBusy if another finalize is
// running and ErrDraftNotFound once the draft was discarded.
func (d *Draft) BeginFinalize() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDraftNotFound
	}
	if d.finalizing {
		return ErrDraftBusy
	}
	d.finalizing = true
	return nil
}

func (d *Draft) EndFinalize() {
	d.mu.Lock()
	d.finalizing = false
	d.mu.Unlock()
}

func (d *Draft) close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.Media.Clear()
}

// IsEdit reports whether the draft targets an existing submission.
func (d *Draft) IsEdit() bool {
	return d.EditingID != ""
}

// Registry holds open drafts keyed by id.
type Registry struct {
	mu     sync.Mutex
	drafts map[string]*Draft
	store  storage.BlobStore
	now    func() time.Time
}

func NewRegistry(store storage.BlobStore) *Registry {
	return &Registry{drafts: make(map[string]*Draft), store: store, now: time.Now}
}

// Open creates and registers an empty draft for the trainee.
func (r *Registry) Open(traineeID, planID string, exerciseIDs []string, note string) *Draft {
	created := r.now()
	d := &Draft{
		ID:          uuid.NewString(),
		TraineeID:   traineeID,
		PlanID:      planID,
		CreatedAt:   created,
		now:         func() time.Time { return r.now() },
		lastActive:  created,
		Media:       NewMediaSet(r.store),
		Progress:    progress.NewTracker(),
		exerciseIDs: append([]string(nil), exerciseIDs...),
		note:        note,
	}

	r.mu.Lock()
	r.drafts[d.ID] = d
	r.mu.Unlock()
	return d
}

// Get returns the draft if it exists and belongs to traineeID.
func (r *Registry) Get(draftID, traineeID string) (*Draft, error) {
	r.mu.Lock()
	d, ok := r.drafts[draftID]
	r.mu.Unlock()
	if !ok {
		return nil, ErrDraftNotFound
	}
	if d.TraineeID != traineeID {
		return nil, ErrDraftNotOwned
	}
	d.touch()
	return d, nil
}

// Discard drops the draft and its in-memory clips.
func (r *Registry) Discard(draftID string) {
	r.mu.Lock()
	d, ok := r.drafts[draftID]
	delete(r.drafts, draftID)
	r.mu.Unlock()
	if ok {
		d.close()
	}
}

// DiscardStale drops drafts untouched for maxAge and returns how many were removed.
func (r *Registry) DiscardStale(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	var stale []*Draft
	for id, d := range r.drafts {
		if d.idleSince(cutoff) {
			stale = append(stale, d)
			delete(r.drafts, id)
		}
	}
	r.mu.Unlock()

	for _, d := range stale {
		d.close()
	}
	return len(stale)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}
