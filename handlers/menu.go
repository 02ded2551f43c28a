package handlers

import (
	"net/http"

	"mess-management-api/middleware"
	"mess-management-api/models"
	"mess-management-api/services"

	"github.com/gin-gonic/gin"
)

// GetWeekMenu returns the whole week, optionally narrowed with ?day=
func (h *Handler) GetWeekMenu(c *gin.Context) {
	entries, err := h.svc.Menu.Week(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	if q := c.Query("day"); q != "" {
		day, ok := models.ParseDay(q)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown day " + q})
			return
		}
		filtered := entries[:0]
		for _, e := range entries {
			if e.Day == day {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(entries), "menu": entries})
}

// GetMenuSlot returns one day/meal entry
func (h *Handler) GetMenuSlot(c *gin.Context) {
	entry, err := h.svc.Menu.Get(c.Request.Context(), c.Param("day"), c.Param("meal"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "menu": entry})
}

type UpsertMenuRequest struct {
	Day        string `json:"day" binding:"required"`
	MealType   string `json:"meal_type" binding:"required"`
	MainCourse string `json:"main_course"`
	SideDish   string `json:"side_dish"`
	Dessert    string `json:"dessert"`
	Beverage   string `json:"beverage"`
}

// AdminUpsertMenu replaces the dishes of a slot and notifies students
func (h *Handler) AdminUpsertMenu(c *gin.Context) {
	var req UpsertMenuRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	entry, err := h.svc.Menu.Upsert(c.Request.Context(), services.MenuInput{
		Day:        req.Day,
		Meal:       req.MealType,
		MainCourse: req.MainCourse,
		SideDish:   req.SideDish,
		Dessert:    req.Dessert,
		Beverage:   req.Beverage,
	}, middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Menu updated", "menu": entry})
}
