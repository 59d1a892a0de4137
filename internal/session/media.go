package session

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Item is one clip in a draft.
type Item struct {
	ID          string      `json:"id"`
	Content     []byte      `json:"-"`
	ContentType string      `json:"contentType"`
	Name        string      `json:"name"`
	Preview     string      `json:"previewReference"`
	Existing    bool        `json:"isExisting"`
	Source      storage.Ref `json:"-"` // Stored ref an existing item was loaded from
	Size        int         `json:"size"`
}

// MediaSet is the ordered working set of clips. Order becomes the videoIds order.
type MediaSet struct {
	mu    sync.Mutex
	items []Item
	store storage.BlobStore
}

func NewMediaSet(store storage.BlobStore) *MediaSet {
	return &MediaSet{store: store}
}

// AddLocal appends a freshly captured or picked clip.
func (m *MediaSet) AddLocal(content []byte, contentType, name string) Item {
	id := uuid.NewString()
	item := Item{
		ID:          id,
		Content:     content,
		ContentType: contentType,
		Name:        name,
		Preview:     "blob:" + id,
		Size:        len(content),
	}

	m.mu.Lock()
	m.items = append(m.items, item)
	m.mu.Unlock()
	return item
}

// AddFromExisting fetches an already stored clip so it can be shown and kept on re-finalize.
// The item id is the stored reference itself.
// On failure nothing is added and the error is returned for the caller to skip.
func (m *MediaSet) AddFromExisting(ctx context.Context, ref storage.Ref) (Item, error) {
	if !ref.Live() {
		return Item{}, fmt.Errorf("add %q: %w", ref.Value, storage.ErrNotStored)
	}

	preview, err := m.store.Resolve(ctx, ref)
	if err != nil {
		log.Warn().Err(err).Str("ref", ref.Value).Msg("Could not resolve existing clip")
		return Item{}, fmt.Errorf("resolve %q: %w", ref.Value, err)
	}

	rc, err := m.store.Open(ctx, ref)
	if err != nil {
		log.Warn().Err(err).Str("ref", ref.Value).Msg("Could not fetch existing clip")
		return Item{}, fmt.Errorf("open %q: %w", ref.Value, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(rc)
	if err != nil {
		log.Warn().Err(err).Str("ref", ref.Value).Msg("Could not read existing clip")
		return Item{}, fmt.Errorf("read %q: %w", ref.Value, err)
	}

	item := Item{
		ID:          ref.String(),
		Content:     content,
		ContentType: "video/mp4",
		Preview:     preview,
		Existing:    true,
		Source:      ref,
		Size:        len(content),
	}

	m.mu.Lock()
	m.items = append(m.items, item)
	m.mu.Unlock()
	return item, nil
}

// Remove drops an item by id. Unknown ids are a no-op; reports whether anything was removed.
func (m *MediaSet) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, it := range m.items {
		if it.ID == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return true
		}
	}
	return false
}

func (m *MediaSet) Clear() {
	m.mu.Lock()
	m.items = nil
	m.mu.Unlock()
}

// Items returns a copy in insertion order.
func (m *MediaSet) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, len(m.items))
	copy(out, m.items)
	return out
}

func (m *MediaSet) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Pending returns the items that still need uploading.
func (m *MediaSet) Pending() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Item
	for _, it := range m.items {
		if !it.Existing {
			out = append(out, it)
		}
	}
	return out
}
