package api

import (
	"net/http"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/domain"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/gin-gonic/gin"
)

// UserHandler serves the caller's profile, the coach roster and admin user management.
type UserHandler struct {
	users service.UserService
}

func NewUserHandler(users service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type AssignCoachRequest struct {
	// CoachID null unassigns the trainee.
	CoachID *string `json:"coachId"`
}

type SetRoleRequest struct {
	Role domain.Role `json:"role" binding:"required,oneof=ADMIN COACH TRAINEE"`
}

func (h *UserHandler) Me(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	user, err := h.users.GetMe(c.Request.Context(), actor)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// DeleteMe removes the caller's own account and everything they own.
func (h *UserHandler) DeleteMe(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.users.DeleteAccount(c.Request.Context(), actor, actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// List godoc
// @Summary List users
// @Description Admins may filter by ?role=; coaches always get their own trainees.
// @Tags Users
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	users, err := h.users.ListUsers(c.Request.Context(), actor, domain.Role(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, mapUsers(users))
}

func (h *UserHandler) AssignCoach(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req AssignCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.users.AssignCoach(c.Request.Context(), actor, c.Param("userId"), req.CoachID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetRole(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	if err := h.users.SetRole(c.Request.Context(), actor, c.Param("userId"), req.Role); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Delete(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := h.users.DeleteAccount(c.Request.Context(), actor, c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
