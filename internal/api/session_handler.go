package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/session"
	"github.com/gin-gonic/gin"
)

// SessionHandler serves a trainee's draft workout sessions.
type SessionHandler struct {
	submissions    service.SubmissionService
	maxUploadBytes int64
}

func NewSessionHandler(submissions service.SubmissionService, maxUploadBytes int64) *SessionHandler {
	return &SessionHandler{submissions: submissions, maxUploadBytes: maxUploadBytes}
}

// --- DTOs ---

type StartSessionRequest struct {
	ExerciseIDs []string `json:"exerciseIds" binding:"required,min=1"`
	Note        string   `json:"note"`
}

type UpdateSessionRequest struct {
	ExerciseIDs []string `json:"exerciseIds"`
	Note        *string  `json:"note"`
}

type DraftResponse struct {
	ID           string             `json:"id"`
	PlanID       string             `json:"planId"`
	ExerciseIDs  []string           `json:"exerciseIds"`
	Note         string             `json:"note,omitempty"`
	EditingID    string             `json:"editingId,omitempty"`
	Timestamp    int64              `json:"timestamp,omitempty"`
	Items        []session.Item     `json:"items"`
	Progress     float64            `json:"progress"`
	ItemProgress map[string]float64 `json:"itemProgress,omitempty"`
}

func mapDraft(d *session.Draft) DraftResponse {
	return DraftResponse{
		ID:           d.ID,
		PlanID:       d.PlanID,
		ExerciseIDs:  d.ExerciseIDs(),
		Note:         d.Note(),
		EditingID:    d.EditingID,
		Timestamp:    d.Timestamp,
		Items:        d.Media.Items(),
		Progress:     d.Progress.Aggregate(),
		ItemProgress: d.Progress.Snapshot(),
	}
}

// --- Handlers ---

// Start godoc
// @Summary Open a new workout session
// @Tags Sessions
// @Security BearerAuth
// @Param request body StartSessionRequest true "Exercises for the session"
// @Success 201 {object} DraftResponse
// @Router /trainee/sessions [post]
func (h *SessionHandler) Start(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req StartSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	d, err := h.submissions.Start(c.Request.Context(), actor, req.ExerciseIDs, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapDraft(d))
}

// Edit re-opens a pending submission as a draft.
// @Router /trainee/submissions/{submissionId}/edit [post]
func (h *SessionHandler) Edit(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	d, err := h.submissions.LoadForEdit(c.Request.Context(), actor, c.Param("submissionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mapDraft(d))
}

// Get returns the draft including upload progress, which clients poll during finalize.
func (h *SessionHandler) Get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	d, err := h.submissions.GetDraft(c.Request.Context(), actor, c.Param("draftId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapDraft(d))
}

func (h *SessionHandler) Update(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req UpdateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	d, err := h.submissions.UpdateDraft(c.Request.Context(), actor, c.Param("draftId"), req.ExerciseIDs, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapDraft(d))
}

// AddMedia godoc
// @Summary Add a clip to a draft
// @Description Multipart form upload, field "file". The clip stays on the server until finalize.
// @Tags Sessions
// @Accept multipart/form-data
// @Security BearerAuth
// @Success 201 {object} session.Item
// @Failure 413 {object} gin.H "Clip too large"
// @Router /trainee/sessions/{draftId}/media [post]
func (h *SessionHandler) AddMedia(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("Clip exceeds %d bytes", h.maxUploadBytes))
			return
		}
		abortWithError(c, http.StatusBadRequest, "Multipart field 'file' is required")
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Could not read uploaded file")
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	item, err := h.submissions.AddMedia(c.Request.Context(), actor, c.Param("draftId"), content, contentType, fileHeader.Filename)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *SessionHandler) RemoveMedia(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.submissions.RemoveMedia(c.Request.Context(), actor, c.Param("draftId"), c.Param("itemId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Finalize godoc
// @Summary Upload pending clips and save the submission
// @Description Any upload failure leaves the stored submission untouched; retry the whole call.
// @Tags Sessions
// @Security BearerAuth
// @Success 200 {object} domain.Submission
// @Failure 409 {object} gin.H "Already finalizing, no longer pending, or modified concurrently"
// @Failure 502 {object} gin.H "Upload failed"
// @Router /trainee/sessions/{draftId}/finalize [post]
func (h *SessionHandler) Finalize(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	sub, err := h.submissions.Finalize(c.Request.Context(), actor, c.Param("draftId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *SessionHandler) Discard(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.submissions.Discard(c.Request.Context(), actor, c.Param("draftId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
