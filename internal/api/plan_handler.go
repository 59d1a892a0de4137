package api

import (
	"net/http"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/gin-gonic/gin"
)

// PlanHandler serves the exercise catalog and per-trainee plans.
type PlanHandler struct {
	plans service.PlanService
}

func NewPlanHandler(plans service.PlanService) *PlanHandler {
	return &PlanHandler{plans: plans}
}

type CreateExerciseRequest struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type SavePlanRequest struct {
	ExerciseIDs []string `json:"exerciseIds" binding:"required"`
}

func (h *PlanHandler) ListExercises(c *gin.Context) {
	exercises, err := h.plans.Catalog(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, exercises)
}

// CreateExercise godoc
// @Summary Add an exercise to the catalog
// @Tags Exercises
// @Security BearerAuth
// @Param exercise body CreateExerciseRequest true "Exercise details"
// @Success 201 {object} domain.Exercise
// @Router /exercises [post]
func (h *PlanHandler) CreateExercise(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req CreateExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	exercise, err := h.plans.SaveExercise(c.Request.Context(), actor, domain.Exercise{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, exercise)
}

// GetMyPlan returns the caller's own plan, or null when none is assigned.
func (h *PlanHandler) GetMyPlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	h.respondPlan(c, actor, actor.ID)
}

func (h *PlanHandler) GetTraineePlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	h.respondPlan(c, actor, c.Param("traineeId"))
}

func (h *PlanHandler) respondPlan(c *gin.Context, actor domain.Actor, traineeID string) {
	plan, err := h.plans.GetPlan(c.Request.Context(), actor, traineeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}

// SavePlan godoc
// @Summary Replace a trainee's plan
// @Tags Coach
// @Security BearerAuth
// @Param plan body SavePlanRequest true "Assigned exercises"
// @Success 200 {object} domain.WorkoutPlan
// @Failure 403 {object} gin.H "Not this trainee's coach"
// @Router /coach/trainees/{traineeId}/plan [put]
func (h *PlanHandler) SavePlan(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req SavePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	plan, err := h.plans.SavePlan(c.Request.Context(), actor, c.Param("traineeId"), req.ExerciseIDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, plan)
}
