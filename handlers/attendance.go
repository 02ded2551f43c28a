package handlers

import (
	"net/http"

	"mess-management-api/middleware"

	"github.com/gin-gonic/gin"
)

type MarkAttendanceRequest struct {
	Date     string `json:"date" binding:"required"`
	MealType string `json:"meal_type" binding:"required"`
	Present  *bool  `json:"present" binding:"required"`
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	var req MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	a, err := h.svc.Attendance.Mark(c.Request.Context(), middleware.GetUserID(c), req.Date, req.MealType, *req.Present)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "attendance": a})
}

// MyAttendance lists the caller's marks, optionally within ?from=&to=
func (h *Handler) MyAttendance(c *gin.Context) {
	rows, err := h.svc.Attendance.ForUser(c.Request.Context(), middleware.GetUserID(c), c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(rows), "attendance": rows})
}

// AdminAttendanceStats reports per-meal attendance percentages for ?from=&to=
func (h *Handler) AdminAttendanceStats(c *gin.Context) {
	stats, err := h.svc.Attendance.Stats(c.Request.Context(), c.Query("from"), c.Query("to"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
