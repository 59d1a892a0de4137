package storage

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

type stubBackend struct {
	kind      Kind
	storeErr  error
	removeErr error
	block     bool
	removed   []string
	resolved  []string
}

func (s *stubBackend) Kind() Kind   { return s.kind }
func (s *stubBackend) Name() string { return "stub-" + string(s.kind) }

func (s *stubBackend) Store(ctx context.Context, obj Object, onProgress ProgressFunc) (Ref, error) {
	if s.block {
		<-ctx.Done()
		return Ref{}, ctx.Err()
	}
	if s.storeErr != nil {
		return Ref{}, s.storeErr
	}
	onProgress(50)
	onProgress(100)
	return Ref{Kind: s.kind, Value: "videos/" + obj.Name}, nil
}

func (s *stubBackend) Resolve(_ context.Context, ref Ref) (string, error) {
	s.resolved = append(s.resolved, ref.Value)
	return "https://signed.example.com/" + ref.Value, nil
}

func (s *stubBackend) Open(_ context.Context, ref Ref) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("bytes:" + ref.Value)), nil
}

func (s *stubBackend) Remove(_ context.Context, ref Ref) error {
	s.removed = append(s.removed, ref.Value)
	return s.removeErr
}

func TestRouterStore(t *testing.T) {
	ctx := context.Background()

	t.Run("Active Backend Mints Ref", func(t *testing.T) {
		keyed := &stubBackend{kind: KindKeyed}
		r := NewRouter(NewClassifier(""), time.Second, keyed)

		var last float64
		ref, err := r.Store(ctx, Object{Name: "a"}, func(p float64) { last = p })
		require.NoError(t, err)
		assert.Equal(t, Ref{Kind: KindKeyed, Value: "videos/a"}, ref)
		assert.Equal(t, float64(100), last)
	})

	t.Run("Backend Failure Becomes Upload Error", func(t *testing.T) {
		r := NewRouter(NewClassifier(""), time.Second, &stubBackend{kind: KindKeyed, storeErr: errors.New("boom")})

		_, err := r.Store(ctx, Object{}, nil)
		assert.True(t, IsUploadError(err))
	})

	t.Run("Configuration Error Passes Through", func(t *testing.T) {
		cfgErr := &ConfigurationError{Backend: "stub", Reason: "missing"}
		r := NewRouter(NewClassifier(""), time.Second, &stubBackend{kind: KindKeyed, storeErr: cfgErr})

		_, err := r.Store(ctx, Object{}, nil)
		assert.True(t, IsConfigurationError(err))
		assert.False(t, IsUploadError(err))
	})

	t.Run("Timeout Is Upload Error", func(t *testing.T) {
		r := NewRouter(NewClassifier(""), 20*time.Millisecond, &stubBackend{kind: KindKeyed, block: true})

		_, err := r.Store(ctx, Object{}, nil)
		require.Error(t, err)
		assert.True(t, IsUploadError(err))
		assert.ErrorIs(t, err, ErrUploadTimeout)
	})

	t.Run("No Active Backend", func(t *testing.T) {
		r := NewRouter(NewClassifier(""), time.Second, nil)

		_, err := r.Store(ctx, Object{}, nil)
		assert.True(t, IsConfigurationError(err))
	})
}

func TestRouterResolve(t *testing.T) {
	ctx := context.Background()
	keyed := &stubBackend{kind: KindKeyed}
	r := NewRouter(NewClassifier(""), time.Second, keyed)

	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"DELETED", ""},
		{"blob:abc", "blob:abc"},
		{"data:video/mp4;base64,AA", "data:video/mp4;base64,AA"},
		{"https://cdn.example.com/a.mp4", "https://cdn.example.com/a.mp4"},
		{"https://res.cloudinary.com/x/video/upload/a.mp4", "https://res.cloudinary.com/x/video/upload/a.mp4"},
		{"videos/k1", "https://signed.example.com/videos/k1"},
	}
	for _, tt := range tests {
		got, err := r.Resolve(ctx, r.Parse(tt.raw))
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
	// Only the keyed ref needed a backend call.
	assert.Equal(t, []string{"videos/k1"}, keyed.resolved)
}

func TestRouterResolveKeyedWithoutBackend(t *testing.T) {
	r := NewRouter(NewClassifier(""), time.Second, &stubBackend{kind: KindContentAddressed})

	_, err := r.Resolve(context.Background(), r.Parse("videos/k1"))
	assert.True(t, IsConfigurationError(err))
}

func TestRouterRemove(t *testing.T) {
	ctx := context.Background()

	t.Run("Dispatches By Kind", func(t *testing.T) {
		keyed := &stubBackend{kind: KindKeyed}
		content := &stubBackend{kind: KindContentAddressed}
		r := NewRouter(NewClassifier(""), time.Second, content, keyed)

		for _, raw := range []string{
			"", "DELETED", "blob:x", "data:x", "https://cdn.example.com/a.mp4",
			"videos/k1", "https://res.cloudinary.com/x/video/upload/a.mp4",
		} {
			require.NoError(t, r.Remove(ctx, r.Parse(raw)))
		}

		assert.Equal(t, []string{"videos/k1"}, keyed.removed)
		assert.Equal(t, []string{"https://res.cloudinary.com/x/video/upload/a.mp4"}, content.removed)
	})

	t.Run("Failure Is Swallowed", func(t *testing.T) {
		keyed := &stubBackend{kind: KindKeyed, removeErr: errors.New("denied")}
		r := NewRouter(NewClassifier(""), time.Second, keyed)

		assert.NoError(t, r.Remove(ctx, r.Parse("videos/k1")))
		assert.Len(t, keyed.removed, 1)
	})
}

func TestRouterRemoveAll(t *testing.T) {
	keyed := &stubBackend{kind: KindKeyed, removeErr: errors.New("denied")}
	r := NewRouter(NewClassifier(""), time.Second, keyed)

	refs := r.classifier.ParseAll([]string{"videos/a", "DELETED", "videos/b"})
	err := r.RemoveAll(context.Background(), refs)

	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 2)
	assert.Equal(t, []string{"videos/a", "videos/b"}, keyed.removed)
}

func TestRouterOpen(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "remote-clip")
	}))
	defer srv.Close()

	r := NewRouter(NewClassifier(""), time.Second, &stubBackend{kind: KindKeyed})
	ctx := context.Background()

	rc, err := r.Open(ctx, r.Parse(srv.URL+"/a.mp4"))
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "remote-clip", string(data))

	rc, err = r.Open(ctx, r.Parse("videos/k1"))
	require.NoError(t, err)
	data, _ = io.ReadAll(rc)
	_ = rc.Close()
	assert.Equal(t, "bytes:videos/k1", string(data))

	_, err = r.Open(ctx, r.Parse("DELETED"))
	assert.ErrorIs(t, err, ErrNotStored)
}

func TestRouterOpenContentAddressed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "fetched")
	}))
	defer srv.Close()
	ctx := context.Background()
	raw := srv.URL + "/res.cloudinary.com/demo/video/upload/v1/a.mp4"

	t.Run("Goes Through Backend", func(t *testing.T) {
		r := NewRouter(NewClassifier(""), time.Second, &stubBackend{kind: KindContentAddressed})
		ref := r.Parse(raw)
		require.Equal(t, KindContentAddressed, ref.Kind)

		rc, err := r.Open(ctx, ref)
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		assert.Equal(t, "bytes:"+raw, string(data))
	})

	t.Run("Falls Back To Fetch Without Backend", func(t *testing.T) {
		r := NewRouter(NewClassifier(""), time.Second, &stubBackend{kind: KindKeyed})
		rc, err := r.Open(ctx, r.Parse(raw))
		require.NoError(t, err)
		data, _ := io.ReadAll(rc)
		_ = rc.Close()
		assert.Equal(t, "fetched", string(data))
	})
}

func TestNewFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("Cloudinary Active", func(t *testing.T) {
		r, err := NewFromConfig(ctx, config.StorageConfig{
			Provider:   config.ProviderCloudinary,
			Cloudinary: config.CloudinaryConfig{CloudName: "demo", UploadPreset: "p"},
		})
		require.NoError(t, err)
		assert.Equal(t, KindContentAddressed, r.active.Kind())
		assert.Equal(t, DefaultUploadTimeout, r.uploadTimeout)
	})

	t.Run("Incomplete Active Backend", func(t *testing.T) {
		_, err := NewFromConfig(ctx, config.StorageConfig{Provider: config.ProviderS3})
		assert.True(t, IsConfigurationError(err))
	})

	t.Run("Unknown Provider", func(t *testing.T) {
		_, err := NewFromConfig(ctx, config.StorageConfig{Provider: "ftp"})
		assert.True(t, IsConfigurationError(err))
	})
}
