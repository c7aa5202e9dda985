package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/services"
)

// FetchAppointments triggers an ingestion run on demand. The same entry point
// the scheduler calls; the caller blocks until the run returns.
func (h *Handler) FetchAppointments(c *gin.Context) {
	summary, err := h.Ingestion.Run(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetFetchLog returns the append-only log of ingestion operations for one
// calendar date.
func (h *Handler) GetFetchLog(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date is required"})
		return
	}
	log, err := h.FetchLogs.FindByDate(c.Request.Context(), date)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, log)
}

// GetOfficeAppointments lists one office's appointments over an inclusive
// calendar range, annotated with isPreviouslyCompleted.
func (h *Handler) GetOfficeAppointments(c *gin.Context) {
	appts, err := h.Analytics.FetchForOffice(c.Request.Context(), c.Param("office"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if appts == nil {
		appts = make([]models.AnnotatedAppointment, 0)
	}
	c.JSON(http.StatusOK, appts)
}

// GetUserAppointments lists the appointments assigned to one user, with the
// same annotation.
func (h *Handler) GetUserAppointments(c *gin.Context) {
	appts, err := h.Analytics.FetchForUser(c.Request.Context(), c.Param("id"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if appts == nil {
		appts = make([]models.AnnotatedAppointment, 0)
	}
	c.JSON(http.StatusOK, appts)
}

func (h *Handler) AssignAppointment(c *gin.Context) {
	var req services.AssignInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	req.AppointmentID = c.Param("id")

	if err := h.Lifecycle.Assign(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment assigned successfully"})
}

func (h *Handler) CreateRushAppointment(c *gin.Context) {
	var req struct {
		Office string             `json:"office" binding:"required"`
		Data   models.Appointment `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	appt, err := h.Lifecycle.CreateRush(c.Request.Context(), req.Office, req.Data)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, appt)
}

func (h *Handler) UpdateAppointmentDetails(c *gin.Context) {
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.Lifecycle.UpdateDetails(c.Request.Context(), c.Param("id"), patch); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment updated successfully"})
}

func (h *Handler) BulkUpdateAppointments(c *gin.Context) {
	var updates []services.DetailUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	outcomes, err := h.Lifecycle.BulkUpdateDetails(c.Request.Context(), updates)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}
