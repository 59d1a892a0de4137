package api

import (
	"errors"
	"net/http"

	"github.com/fittrackproapp-droid/fittrackProApp/internal/repository"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/service"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps service, repository and storage errors to status codes.
func respondError(c *gin.Context, err error) {
	var uploadErr *storage.UploadError
	var cfgErr *storage.ConfigurationError

	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidState):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, repository.ErrConflict):
		abortWithError(c, http.StatusConflict, "Submission was modified concurrently, reload and retry")
	case errors.Is(err, service.ErrValidation):
		abortWithError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrUserAlreadyExists):
		abortWithError(c, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAuthenticationFailed):
		abortWithError(c, http.StatusUnauthorized, err.Error())
	case errors.As(err, &cfgErr):
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Storage is not configured")
		abortWithError(c, http.StatusInternalServerError, err.Error())
	case errors.As(err, &uploadErr):
		log.Warn().Err(err).Str("path", c.FullPath()).Msg("Upload failed")
		abortWithError(c, http.StatusBadGateway, "Upload failed, retry the whole submission: "+err.Error())
	default:
		log.Error().Err(err).Str("path", c.FullPath()).Msg("Unhandled error")
		abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
	}
}
