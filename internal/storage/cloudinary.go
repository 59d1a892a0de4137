package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// publicIDPattern pulls the public id out of a delivery URL, dropping the
// optional version segment and the file extension.
var publicIDPattern = regexp.MustCompile(`/upload/(?:v\d+/)?(.+?)(?:\.[a-zA-Z0-9]+)?$`)

// cloudinaryBackend is the signed-URL content provider. Uploads go through an
// unsigned preset, deletes are signed with the API secret.
type cloudinaryBackend struct {
	cfg        config.CloudinaryConfig
	httpClient *http.Client
	now        func() time.Time
}

// NewCloudinaryBackend creates the content-addressed backend. A nil client uses http.DefaultClient.
func NewCloudinaryBackend(cfg config.CloudinaryConfig, client *http.Client) Backend {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.APIBase == "" {
		cfg.APIBase = "https://api.cloudinary.com"
	}
	cfg.APIBase = strings.TrimRight(cfg.APIBase, "/")
	return &cloudinaryBackend{cfg: cfg, httpClient: client, now: time.Now}
}

func (c *cloudinaryBackend) Kind() Kind   { return KindContentAddressed }
func (c *cloudinaryBackend) Name() string { return config.ProviderCloudinary }

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Result    string `json:"result"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *cloudinaryBackend) endpoint(action string) string {
	return fmt.Sprintf("%s/v1_1/%s/video/%s", c.cfg.APIBase, url.PathEscape(c.cfg.CloudName), action)
}

func (c *cloudinaryBackend) Store(ctx context.Context, obj Object, onProgress ProgressFunc) (Ref, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	if !c.cfg.Configured() {
		return Ref{}, &ConfigurationError{Backend: c.Name(), Reason: "cloud_name and upload_preset are required"}
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	name := obj.Name
	if name == "" {
		name = uuid.NewString()
	}
	fw, err := mw.CreateFormFile("file", name)
	if err != nil {
		return Ref{}, &UploadError{Backend: c.Name(), Err: err}
	}
	if _, err := fw.Write(obj.Content); err != nil {
		return Ref{}, &UploadError{Backend: c.Name(), Err: err}
	}
	if err := mw.WriteField("upload_preset", c.cfg.UploadPreset); err != nil {
		return Ref{}, &UploadError{Backend: c.Name(), Err: err}
	}
	if err := mw.Close(); err != nil {
		return Ref{}, &UploadError{Backend: c.Name(), Err: err}
	}

	total := int64(buf.Len())
	body := &progressReader{r: &buf, total: total, onProgress: onProgress}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload"), body)
	if err != nil {
		return Ref{}, &UploadError{Backend: c.Name(), Err: err}
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Ref{}, &UploadError{Backend: c.Name(), Err: err}
	}
	defer resp.Body.Close()

	var out cloudinaryResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := resp.Status
		if decodeErr == nil && out.Error != nil {
			msg = out.Error.Message
		}
		return Ref{}, &UploadError{Backend: c.Name(), Err: fmt.Errorf("provider rejected upload: %s", msg)}
	}
	if decodeErr != nil {
		return Ref{}, &UploadError{Backend: c.Name(), Err: fmt.Errorf("decode upload response: %w", decodeErr)}
	}
	if out.SecureURL == "" {
		return Ref{}, &UploadError{Backend: c.Name(), Err: fmt.Errorf("upload response has no secure_url")}
	}

	onProgress(100)
	log.Info().Str("url", out.SecureURL).Int("bytes", len(obj.Content)).Msg("Cloudinary upload completed")
	return Ref{Kind: KindContentAddressed, Value: out.SecureURL}, nil
}

// Resolve returns the URL unchanged, delivery URLs are public.
func (c *cloudinaryBackend) Resolve(_ context.Context, ref Ref) (string, error) {
	return ref.Value, nil
}

func (c *cloudinaryBackend) Open(ctx context.Context, ref Ref) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.Value, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", ref.Value, resp.StatusCode)
	}
	return resp.Body, nil
}

// Remove destroys the asset. Without API credentials deletion is skipped.
func (c *cloudinaryBackend) Remove(ctx context.Context, ref Ref) error {
	if c.cfg.APIKey == "" || c.cfg.APISecret == "" {
		log.Warn().Str("ref", ref.Value).Msg("Cloudinary API key/secret missing, skipping delete")
		return nil
	}

	publicID, ok := ExtractPublicID(ref.Value)
	if !ok {
		return fmt.Errorf("cannot extract public id from %q", ref.Value)
	}

	ts := c.now().Unix()
	form := url.Values{}
	form.Set("public_id", publicID)
	form.Set("signature", signDestroy(publicID, ts, c.cfg.APISecret))
	form.Set("api_key", c.cfg.APIKey)
	form.Set("timestamp", strconv.FormatInt(ts, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("destroy"), strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("destroy %s: %w", publicID, err)
	}
	defer resp.Body.Close()

	var out cloudinaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("destroy %s: decode response: %w", publicID, err)
	}
	if out.Result != "ok" {
		return fmt.Errorf("destroy %s: result %q", publicID, out.Result)
	}

	log.Info().Str("publicId", publicID).Msg("Deleted Cloudinary asset")
	return nil
}

// ExtractPublicID derives the provider's public id from a delivery URL.
func ExtractPublicID(ref string) (string, bool) {
	m := publicIDPattern.FindStringSubmatch(ref)
	if len(m) < 2 || m[1] == "" {
		return "", false
	}
	return m[1], true
}

func signDestroy(publicID string, timestamp int64, secret string) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("public_id=%s&timestamp=%d%s", publicID, timestamp, secret)))
	return hex.EncodeToString(sum[:])
}

// progressReader reports how much of the request body the transport has consumed.
type progressReader struct {
	r          io.Reader
	total      int64
	read       atomic.Int64
	onProgress ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 && p.onProgress != nil {
		done := p.read.Add(int64(n))
		p.onProgress(float64(done) / float64(p.total) * 100)
	}
	return n, err
}
