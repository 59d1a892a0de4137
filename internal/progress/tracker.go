package progress

import "sync"

// Tracker keeps per-item upload progress for one finalize batch and exposes the
// unweighted mean across it. Safe for concurrent reporting.
type Tracker struct {
	mu       sync.Mutex
	items    map[string]float64
	order    []string
	onChange func(aggregate float64)
}

func NewTracker() *Tracker {
	return &Tracker{items: make(map[string]float64)}
}

// OnChange registers an observer called with the new aggregate after every report.
func (t *Tracker) OnChange(fn func(aggregate float64)) {
	t.mu.Lock()
	t.onChange = fn
	t.mu.Unlock()
}

// BeginBatch resets state. ids are the items that actually need uploading.
func (t *Tracker) BeginBatch(ids []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.items = make(map[string]float64, len(ids))
	t.order = t.order[:0]
	for _, id := range ids {
		if _, dup := t.items[id]; dup {
			continue
		}
		t.items[id] = 0
		t.order = append(t.order, id)
	}
}

// Report records the latest percent for id. Ids outside the batch are ignored.
func (t *Tracker) Report(id string, percent float64) {
	t.mu.Lock()
	if _, ok := t.items[id]; !ok {
		t.mu.Unlock()
		return
	}
	t.items[id] = clamp(percent)
	agg := t.aggregateLocked()
	fn := t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(agg)
	}
}

// Aggregate is the mean over the batch; an empty batch is complete.
func (t *Tracker) Aggregate() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aggregateLocked()
}

// Item returns the last reported percent for id.
func (t *Tracker) Item(id string) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.items[id]
	return p, ok
}

// Snapshot copies the per-item state.
func (t *Tracker) Snapshot() map[string]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]float64, len(t.items))
	for k, v := range t.items {
		out[k] = v
	}
	return out
}

func (t *Tracker) aggregateLocked() float64 {
	if len(t.order) == 0 {
		return 100
	}
	var sum float64
	complete := true
	for _, id := range t.order {
		p := t.items[id]
		sum += p
		if p < 100 {
			complete = false
		}
	}
	if complete {
		// Avoid float drift, all-done must read exactly 100.
		return 100
	}
	return sum / float64(len(t.order))
}

func clamp(p float64) float64 {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}
