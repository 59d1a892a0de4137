package storage

import (
	"strings"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
)

// Kind tags which backend (if any) owns a media reference.
type Kind string

const (
	KindEmpty            Kind = "empty"
	KindDeleted          Kind = "deleted"           // Slot whose clip was removed
	KindLocal            Kind = "local"             // blob: or data: handle, never persisted remotely
	KindDirectURL        Kind = "direct"            // Plain http(s) URL not owned by any backend
	KindContentAddressed Kind = "content_addressed" // URL minted by the signed-URL provider
	KindKeyed            Kind = "keyed"             // Object key in the bucket
)

// Ref is a typed media reference. Value is the persisted string form.
type Ref struct {
	Kind  Kind
	Value string
}

// String returns the form stored in submission documents.
func (r Ref) String() string {
	if r.Kind == KindDeleted {
		return domain.DeletedVideo
	}
	return r.Value
}

// Live reports whether the reference points at remotely stored media.
func (r Ref) Live() bool {
	switch r.Kind {
	case KindContentAddressed, KindKeyed, KindDirectURL:
		return true
	default:
		return false
	}
}

// Classifier turns stored reference strings into typed refs.
type Classifier struct {
	// HostMarker is the substring identifying content-addressed URLs.
	HostMarker string
}

// DefaultHostMarker matches URLs produced by the Cloudinary-compatible backend.
const DefaultHostMarker = "cloudinary.com"

func NewClassifier(hostMarker string) Classifier {
	if hostMarker == "" {
		hostMarker = DefaultHostMarker
	}
	return Classifier{HostMarker: hostMarker}
}

// Parse classifies a raw reference. Order matters: local handles and the
// provider's own URLs are recognised before generic URLs, anything else is a key.
func (c Classifier) Parse(raw string) Ref {
	switch {
	case raw == "":
		return Ref{Kind: KindEmpty}
	case raw == domain.DeletedVideo:
		return Ref{Kind: KindDeleted, Value: raw}
	case strings.HasPrefix(raw, "blob:"), strings.HasPrefix(raw, "data:"):
		return Ref{Kind: KindLocal, Value: raw}
	case c.HostMarker != "" && strings.Contains(raw, c.HostMarker):
		return Ref{Kind: KindContentAddressed, Value: raw}
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return Ref{Kind: KindDirectURL, Value: raw}
	default:
		return Ref{Kind: KindKeyed, Value: raw}
	}
}

// ParseAll classifies refs in order.
func (c Classifier) ParseAll(raw []string) []Ref {
	refs := make([]Ref, 0, len(raw))
	for _, r := range raw {
		refs = append(refs, c.Parse(r))
	}
	return refs
}
