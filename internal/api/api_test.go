package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository/memory"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/session"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func (b *bucket) Kind() storage.Kind { return storage.KindKeyed }
func (b *bucket) Name() string       { return "bucket" }

func (b *bucket) Store(_ context.Context, obj storage.Object, onProgress storage.ProgressFunc) (storage.Ref, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return storage.Ref{}, errors.New("network unreachable")
	}
	onProgress(100)
	key := "videos/" + uuid.NewString()
	b.objects[key] = obj.Content
	return storage.Ref{Kind: storage.KindKeyed, Value: key}, nil
}

func (b *bucket) Resolve(_ context.Context, ref storage.Ref) (string, error) {
	return "https://bucket.test/" + ref.Value + "?signed=1", nil
}

func (b *bucket) Open(_ context.Context, ref storage.Ref) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return io.NopCloser(bytes.NewReader(b.objects[ref.Value])), nil
}

func (b *bucket) Remove(_ context.Context, ref storage.Ref) error {
	b.mu.Lock()
	delete(b.objects, ref.Value)
	b.mu.Unlock()
	return nil
}

type testServer struct {
	router *gin.Engine
	auth   service.AuthService
	bucket *bucket
	repos  *memory.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repos := memory.New()
	b := &bucket{objects: map[string][]byte{}}
	store := storage.NewRouter(storage.NewClassifier(""), time.Second, b)
	drafts := session.NewRegistry(store)

	auth := service.NewAuthService(repos.Users, "test-secret", time.Hour)
	plans := service.NewPlanService(repos.Plans, repos.Exercises, repos.Users)
	messages := service.NewMessageService(repos.Messages, repos.Users)

	router := gin.New()
	SetupRoutes(router, Services{
		Auth:        auth,
		Plans:       plans,
		Messages:    messages,
		Submissions: service.NewSubmissionService(repos.Submissions, repos.Users, plans, messages, store, drafts),
		Users:       service.NewUserService(repos.Users, repos.Submissions, repos.Plans, repos.Messages, store),
	}, 1<<20)

	return &testServer{router: router, auth: auth, bucket: b, repos: repos}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, path, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

// register creates an account through the API and returns its id and token.
func (s *testServer) register(t *testing.T, name string, role domain.Role) (string, string) {
	t.Helper()
	email := name + "@example.com"
	rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
		Name: name, Email: email, Password: "password123", Role: role,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: email, Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp LoginResponse
	decode(t, rec, &resp)
	return resp.User.ID, resp.Token
}

func (s *testServer) adminToken(t *testing.T) string {
	t.Helper()
	_, err := s.auth.CreateUser(context.Background(), "Root", "root@example.com", "password123", domain.RoleAdmin)
	require.NoError(t, err)
	token, _, err := s.auth.Login(context.Background(), "root@example.com", "password123")
	require.NoError(t, err)
	return token
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestAuthRoutes(t *testing.T) {
	s := newTestServer(t)

	t.Run("Register Validation", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "x", "email": "bad", "password": "short", "role": "COACH"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(t, http.MethodPost, "/api/v1/auth/register", "", gin.H{"name": "x", "email": "x@example.com", "password": "password123", "role": "ADMIN"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	id, token := s.register(t, "coach", domain.RoleCoach)

	t.Run("Duplicate Email", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/register", "", RegisterRequest{
			Name: "again", Email: "coach@example.com", Password: "password123", Role: domain.RoleCoach,
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("Wrong Password", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/auth/login", "", LoginRequest{Email: "coach@example.com", Password: "nope-nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Me", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/api/v1/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var me UserResponse
		decode(t, rec, &me)
		assert.Equal(t, id, me.ID)
		assert.Equal(t, domain.RoleCoach, me.Role)
		assert.NotContains(t, rec.Body.String(), "passwordHash")
	})

	t.Run("Missing And Bad Tokens", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/me", "", nil).Code)
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/v1/me", "garbage", nil).Code)
	})

	t.Run("Role Guard", func(t *testing.T) {
		rec := s.do(t, http.MethodPost, "/api/v1/trainee/sessions", token, StartSessionRequest{ExerciseIDs: []string{"c1"}})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestSubmissionLifecycleRoutes(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken(t)
	coachID, coach := s.register(t, "coach", domain.RoleCoach)
	traineeID, trainee := s.register(t, "trainee", domain.RoleTrainee)

	// Admin links the trainee to the coach, the coach assigns a plan
	rec := s.do(t, http.MethodPut, "/api/v1/admin/users/"+traineeID+"/coach", admin, AssignCoachRequest{CoachID: &coachID})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPut, "/api/v1/coach/trainees/"+traineeID+"/plan", coach, SavePlanRequest{ExerciseIDs: []string{"c1", "b1"}})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, "/api/v1/trainee/plan", trainee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var plan domain.WorkoutPlan
	decode(t, rec, &plan)
	assert.Equal(t, []string{"c1", "b1"}, plan.ExerciseIDs)

	// 1. Draft with two clips
	rec = s.do(t, http.MethodPost, "/api/v1/trainee/sessions", trainee, StartSessionRequest{ExerciseIDs: []string{"c1"}})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var draft DraftResponse
	decode(t, rec, &draft)
	assert.Equal(t, plan.ID, draft.PlanID)

	for _, name := range []string{"one.mp4", "two.mp4"} {
		rec = s.upload(t, "/api/v1/trainee/sessions/"+draft.ID+"/media", trainee, name, []byte("clip "+name))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec = s.do(t, http.MethodGet, "/api/v1/trainee/sessions/"+draft.ID, trainee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &draft)
	require.Len(t, draft.Items, 2)
	assert.Equal(t, "blob:"+draft.Items[0].ID, draft.Items[0].Preview)
	assert.Equal(t, float64(100), draft.Progress)

	// Another trainee cannot see the draft
	_, intruder := s.register(t, "intruder", domain.RoleTrainee)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/trainee/sessions/"+draft.ID, intruder, nil).Code)

	// 2. Finalize
	rec = s.do(t, http.MethodPost, "/api/v1/trainee/sessions/"+draft.ID+"/finalize", trainee, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var sub domain.Submission
	decode(t, rec, &sub)
	assert.Equal(t, domain.StatusPending, sub.Status)
	require.Len(t, sub.VideoIDs, 2)

	// 3. Coach sees it and resolves a clip
	rec = s.do(t, http.MethodGet, "/api/v1/submissions", coach, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []domain.Submission
	decode(t, rec, &listed)
	require.Len(t, listed, 1)

	rec = s.do(t, http.MethodGet, "/api/v1/submissions/"+sub.ID+"/videos/1", coach, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var video VideoURLResponse
	decode(t, rec, &video)
	assert.Equal(t, "https://bucket.test/"+sub.VideoIDs[1]+"?signed=1", video.URL)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/v1/submissions/"+sub.ID, intruder, nil).Code)

	// 4. The coach may not delete clips; the owner deletes one, then the same one again
	rec = s.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/videos/delete", coach, DeleteVideoRequest{VideoID: sub.VideoIDs[0]})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/videos/delete", trainee, DeleteVideoRequest{VideoID: sub.VideoIDs[0]})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var afterDelete domain.Submission
	decode(t, rec, &afterDelete)
	assert.Equal(t, []string{domain.DeletedVideo, sub.VideoIDs[1]}, afterDelete.VideoIDs)

	rec = s.do(t, http.MethodPost, "/api/v1/submissions/"+sub.ID+"/videos/delete", trainee, DeleteVideoRequest{VideoID: sub.VideoIDs[0]})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// 5. Review once; the second attempt conflicts
	points := 10
	rec = s.do(t, http.MethodPost, "/api/v1/coach/submissions/"+sub.ID+"/review", coach, ReviewRequest{Feedback: "Great form", Points: &points})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = s.do(t, http.MethodPost, "/api/v1/coach/submissions/"+sub.ID+"/review", coach, ReviewRequest{Points: &points})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/me", trainee, nil)
	var me UserResponse
	decode(t, rec, &me)
	assert.Equal(t, 10, me.Points)

	// 6. Messages: the submission and review auto-messages
	rec = s.do(t, http.MethodGet, "/api/v1/messages", trainee, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var msgs []domain.Message
	decode(t, rec, &msgs)
	assert.Len(t, msgs, 2)

	// 7. Editing a reviewed submission is refused
	rec = s.do(t, http.MethodPost, "/api/v1/trainee/submissions/"+sub.ID+"/edit", trainee, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFinalizeUploadFailure(t *testing.T) {
	s := newTestServer(t)
	_, trainee := s.register(t, "trainee", domain.RoleTrainee)

	rec := s.do(t, http.MethodPost, "/api/v1/trainee/sessions", trainee, StartSessionRequest{ExerciseIDs: []string{"x1"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var draft DraftResponse
	decode(t, rec, &draft)

	rec = s.upload(t, "/api/v1/trainee/sessions/"+draft.ID+"/media", trainee, "run.mp4", []byte("clip"))
	require.Equal(t, http.StatusCreated, rec.Code)

	s.bucket.fail = true
	rec = s.do(t, http.MethodPost, "/api/v1/trainee/sessions/"+draft.ID+"/finalize", trainee, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/v1/submissions", trainee, nil)
	var listed []domain.Submission
	decode(t, rec, &listed)
	assert.Empty(t, listed)
}

func TestUploadTooLarge(t *testing.T) {
	s := newTestServer(t)
	_, trainee := s.register(t, "trainee", domain.RoleTrainee)

	rec := s.do(t, http.MethodPost, "/api/v1/trainee/sessions", trainee, StartSessionRequest{ExerciseIDs: []string{"x1"}})
	require.Equal(t, http.StatusCreated, rec.Code)
	var draft DraftResponse
	decode(t, rec, &draft)

	rec = s.upload(t, "/api/v1/trainee/sessions/"+draft.ID+"/media", trainee, "huge.mp4", make([]byte, 2<<20))
	assert.Contains(t, []int{http.StatusRequestEntityTooLarge, http.StatusBadRequest}, rec.Code)
}
