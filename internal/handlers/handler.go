package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/denteliv/iv-api/internal/apperrors"
	"github.com/denteliv/iv-api/internal/services"
	"github.com/denteliv/iv-api/internal/store"
)

// Handler holds everything the route methods need.
type Handler struct {
	Ingestion  *services.Ingestion
	Lifecycle  *services.Lifecycle
	Analytics  *services.Analytics
	Attendance *services.Attendance
	Users      *store.UserStore
	FetchLogs  *store.FetchLogStore
	JWTSecret  string
	Log        zerolog.Logger
}

func NewHandler(ingestion *services.Ingestion, lifecycle *services.Lifecycle, analytics *services.Analytics, attendance *services.Attendance, users *store.UserStore, fetchLogs *store.FetchLogStore, jwtSecret string, log zerolog.Logger) *Handler {
	return &Handler{
		Ingestion:  ingestion,
		Lifecycle:  lifecycle,
		Analytics:  analytics,
		Attendance: attendance,
		Users:      users,
		FetchLogs:  fetchLogs,
		JWTSecret:  jwtSecret,
		Log:        log,
	}
}

// respondError maps the error taxonomy onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case apperrors.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case apperrors.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case apperrors.IsUpstream(err):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		h.Log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
