package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/rs/zerolog/log"
	"go.uber.org/multierr"
)

// Router dispatches each ref to the backend owning its Kind and sends new uploads
// to the active backend.
type Router struct {
	active        Backend
	backends      map[Kind]Backend
	classifier    Classifier
	uploadTimeout time.Duration
	httpClient    *http.Client
}

// NewRouter builds a router around an already constructed active backend.
// Extra backends serve refs minted before a provider switch.
func NewRouter(classifier Classifier, uploadTimeout time.Duration, active Backend, others ...Backend) *Router {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	r := &Router{
		active:        active,
		backends:      make(map[Kind]Backend),
		classifier:    classifier,
		uploadTimeout: uploadTimeout,
		httpClient:    &http.Client{Timeout: uploadTimeout},
	}
	for _, b := range others {
		if b != nil {
			r.backends[b.Kind()] = b
		}
	}
	if active != nil {
		r.backends[active.Kind()] = active
	}
	return r
}

// NewFromConfig constructs every configured backend and selects the active one.
// An incomplete active backend is a ConfigurationError.
func NewFromConfig(ctx context.Context, cfg config.StorageConfig) (*Router, error) {
	var s3b, cldb Backend

	if cfg.S3.Configured() {
		b, err := NewS3Backend(ctx, cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("init s3 backend: %w", err)
		}
		s3b = b
	}
	if cfg.Cloudinary.Configured() {
		cldb = NewCloudinaryBackend(cfg.Cloudinary, nil)
	}

	var active Backend
	switch cfg.Provider {
	case config.ProviderS3:
		if s3b == nil {
			return nil, &ConfigurationError{Backend: config.ProviderS3, Reason: "bucket_name and region are required"}
		}
		active = s3b
	case config.ProviderCloudinary:
		if cldb == nil {
			return nil, &ConfigurationError{Backend: config.ProviderCloudinary, Reason: "cloud_name and upload_preset are required"}
		}
		active = cldb
	default:
		return nil, &ConfigurationError{Backend: cfg.Provider, Reason: "unknown storage provider"}
	}

	log.Info().Str("provider", cfg.Provider).Dur("uploadTimeout", cfg.UploadTimeout).Msg("Blob store initialized")
	return NewRouter(NewClassifier(cfg.Cloudinary.HostMarker), cfg.UploadTimeout, active, s3b, cldb), nil
}

func (r *Router) Parse(raw string) Ref {
	return r.classifier.Parse(raw)
}

func (r *Router) Store(ctx context.Context, obj Object, onProgress ProgressFunc) (Ref, error) {
	if r.active == nil {
		return Ref{}, &ConfigurationError{Backend: "none", Reason: "no active storage backend"}
	}
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	ctx, cancel := context.WithTimeout(ctx, r.uploadTimeout)
	defer cancel()

	ref, err := r.active.Store(ctx, obj, onProgress)
	if err == nil {
		return ref, nil
	}

	var cfgErr *ConfigurationError
	var upErr *UploadError
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return Ref{}, &UploadError{Backend: r.active.Name(), Err: fmt.Errorf("%w after %s: %v", ErrUploadTimeout, r.uploadTimeout, err)}
	case errors.As(err, &cfgErr), errors.As(err, &upErr):
		return Ref{}, err
	default:
		return Ref{}, &UploadError{Backend: r.active.Name(), Err: err}
	}
}

func (r *Router) Resolve(ctx context.Context, ref Ref) (string, error) {
	switch ref.Kind {
	case KindEmpty, KindDeleted:
		return "", nil
	case KindLocal, KindDirectURL, KindContentAddressed:
		return ref.Value, nil
	case KindKeyed:
		b, err := r.backendFor(ref.Kind)
		if err != nil {
			return "", err
		}
		return b.Resolve(ctx, ref)
	default:
		return "", fmt.Errorf("unknown reference kind %q", ref.Kind)
	}
}

func (r *Router) Open(ctx context.Context, ref Ref) (io.ReadCloser, error) {
	switch ref.Kind {
	case KindEmpty, KindDeleted, KindLocal:
		return nil, ErrNotStored
	case KindDirectURL:
		return r.fetch(ctx, ref.Value)
	case KindContentAddressed:
		// Public URLs stay readable after the backend is unconfigured
		if b, ok := r.backends[ref.Kind]; ok {
			return b.Open(ctx, ref)
		}
		return r.fetch(ctx, ref.Value)
	case KindKeyed:
		b, err := r.backendFor(ref.Kind)
		if err != nil {
			return nil, err
		}
		return b.Open(ctx, ref)
	default:
		return nil, fmt.Errorf("unknown reference kind %q", ref.Kind)
	}
}

// Remove never fails the caller. Deletion problems leave orphaned objects, which is acceptable.
func (r *Router) Remove(ctx context.Context, ref Ref) error {
	if err := r.remove(ctx, ref); err != nil {
		log.Warn().Err(err).Str("ref", ref.Value).Str("kind", string(ref.Kind)).Msg("Failed to delete media, leaving orphan")
	}
	return nil
}

// RemoveAll keeps going past individual failures and returns them combined.
func (r *Router) RemoveAll(ctx context.Context, refs []Ref) error {
	var errs error
	for _, ref := range refs {
		if err := r.remove(ctx, ref); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("remove %s: %w", ref.Value, err))
		}
	}
	return errs
}

func (r *Router) remove(ctx context.Context, ref Ref) error {
	switch ref.Kind {
	case KindEmpty, KindDeleted, KindLocal:
		return nil
	case KindDirectURL:
		log.Debug().Str("ref", ref.Value).Msg("No backend owns direct URL, skipping delete")
		return nil
	case KindContentAddressed, KindKeyed:
		b, err := r.backendFor(ref.Kind)
		if err != nil {
			return err
		}
		return b.Remove(ctx, ref)
	default:
		return fmt.Errorf("unknown reference kind %q", ref.Kind)
	}
}

func (r *Router) backendFor(kind Kind) (Backend, error) {
	b, ok := r.backends[kind]
	if !ok {
		return nil, &ConfigurationError{Backend: string(kind), Reason: "no backend configured for reference kind"}
	}
	return b, nil
}

func (r *Router) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch media: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch media: unexpected status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
