package api

import (
	"net/http"
	"strconv"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/gin-gonic/gin"
)

// SubmissionHandler serves submitted records to trainees, coaches and admins.
type SubmissionHandler struct {
	submissions service.SubmissionService
}

func NewSubmissionHandler(submissions service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

type ReviewRequest struct {
	Feedback string `json:"feedback"`
	Points   *int   `json:"points" binding:"required"`
}

type DeleteVideoRequest struct {
	VideoID string `json:"videoId" binding:"required"`
}

type VideoURLResponse struct {
	URL string `json:"url"`
}

// List godoc
// @Summary List visible submissions, newest first
// @Description Admins see all, coaches their trainees', trainees their own.
// @Tags Submissions
// @Security BearerAuth
// @Success 200 {array} domain.Submission
// @Router /submissions [get]
func (h *SubmissionHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	subs, err := h.submissions.List(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, subs)
}

func (h *SubmissionHandler) Get(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	sub, err := h.submissions.Get(c.Request.Context(), actor, c.Param("submissionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// ResolveVideo returns a playable URL for one videoIds slot. Deleted slots return an empty URL.
func (h *SubmissionHandler) ResolveVideo(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Video index must be a number")
		return
	}
	url, err := h.submissions.ResolveVideo(c.Request.Context(), actor, c.Param("submissionId"), index)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, VideoURLResponse{URL: url})
}

// DeleteVideo godoc
// @Summary Remove one clip from a submission
// @Description The slot is kept and marked DELETED so the other clips keep their positions.
// @Tags Submissions
// @Security BearerAuth
// @Param request body DeleteVideoRequest true "Stored reference to remove"
// @Success 200 {object} domain.Submission
// @Failure 404 {object} gin.H "Submission or video not found"
// @Router /submissions/{submissionId}/videos/delete [post]
func (h *SubmissionHandler) DeleteVideo(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req DeleteVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	sub, err := h.submissions.DeleteVideo(c.Request.Context(), actor, c.Param("submissionId"), req.VideoID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

// Review godoc
// @Summary Complete a pending submission and award points
// @Tags Coach
// @Security BearerAuth
// @Param request body ReviewRequest true "Feedback and points"
// @Success 200 {object} domain.Submission
// @Failure 409 {object} gin.H "Already reviewed"
// @Router /coach/submissions/{submissionId}/review [post]
func (h *SubmissionHandler) Review(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	sub, err := h.submissions.Review(c.Request.Context(), actor, c.Param("submissionId"), req.Feedback, *req.Points)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
