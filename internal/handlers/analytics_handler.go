package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

func (h *Handler) GetAssignedCounts(c *gin.Context) {
	counts, err := h.Analytics.AssignedCounts(c.Request.Context(),
		c.Query("office"), c.Query("startDate"), c.Query("endDate"), c.Query("dateType"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

func (h *Handler) GetCompletionCountByUser(c *gin.Context) {
	count, err := h.Analytics.CompletionCountByUser(c.Request.Context(),
		c.Param("userId"), c.Query("startDate"), c.Query("endDate"), c.Query("dateType"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"userId": c.Param("userId"), "completed": count})
}

func (h *Handler) GetCompletionAnalysis(c *gin.Context) {
	counts, err := h.Analytics.CompletionAnalysis(c.Request.Context(),
		c.Query("office"), c.Query("startDate"), c.Query("endDate"), c.Query("dateType"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, counts)
}

// RunAggregate accepts an ad-hoc pipeline. Destructive stages are rejected;
// the surface is strictly read-only.
func (h *Handler) RunAggregate(c *gin.Context) {
	var req struct {
		Pipeline []bson.M `json:"pipeline" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	out, err := h.Analytics.Aggregate(c.Request.Context(), req.Pipeline)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
