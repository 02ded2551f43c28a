package handlers

import (
	"net/http"

	"mess-management-api/models"

	"github.com/gin-gonic/gin"
)

// AdminGetAllUsers returns all users, optionally filtered with ?role= (admin only)
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	role := models.UserRole(c.Query("role"))
	if role != "" && role != models.RoleStudent && role != models.RoleAdmin {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid role. Must be: student or admin"})
		return
	}
	users, err := h.svc.Auth.ListUsers(c.Request.Context(), role)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(users), "users": users})
}
