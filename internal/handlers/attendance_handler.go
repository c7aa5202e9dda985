package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/denteliv/iv-api/internal/models"
	"github.com/denteliv/iv-api/internal/services"
)

func (h *Handler) SaveAttendance(c *gin.Context) {
	var req services.SaveAttendanceInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if err := h.Attendance.SaveOrUpdate(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Attendance saved successfully"})
}

func (h *Handler) BulkSaveAttendance(c *gin.Context) {
	var entries []services.SaveAttendanceInput
	if err := c.ShouldBindJSON(&entries); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	outcomes, err := h.Attendance.BulkSave(c.Request.Context(), entries)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": outcomes})
}

func (h *Handler) GetUserAttendance(c *gin.Context) {
	recs, err := h.Attendance.RangeForUser(c.Request.Context(),
		c.Param("id"), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if recs == nil {
		recs = make([]models.AttendanceRecord, 0)
	}
	c.JSON(http.StatusOK, recs)
}

func (h *Handler) GetAttendanceSummary(c *gin.Context) {
	rows, err := h.Attendance.Summary(c.Request.Context(), c.Query("startDate"), c.Query("endDate"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if rows == nil {
		rows = make([]models.AttendanceSummaryRow, 0)
	}
	c.JSON(http.StatusOK, rows)
}

func (h *Handler) GetActiveUsers(c *gin.Context) {
	users, err := h.Attendance.ListActiveUsers(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	if users == nil {
		users = make([]models.User, 0)
	}
	c.JSON(http.StatusOK, users)
}
