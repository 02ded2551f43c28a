package handlers

import (
	"net/http"

	"mess-management-api/middleware"
	"mess-management-api/models"
	"mess-management-api/services"
	"mess-management-api/store"

	"github.com/gin-gonic/gin"
)

type SubmitReviewRequest struct {
	Day      string `json:"day" binding:"required"`
	MealType string `json:"meal_type" binding:"required"`
	Category string `json:"category" binding:"required"`
	Rating   int    `json:"rating" binding:"required"`
	Comment  string `json:"comment"`
}

// SubmitReview rates one dish category; the response carries the slot's new average
func (h *Handler) SubmitReview(c *gin.Context) {
	var req SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	review, entry, err := h.svc.Reviews.Submit(c.Request.Context(), services.ReviewInput{
		Meal:     req.MealType,
		Rating:   req.Rating,
		Category: req.Category,
		Day:      req.Day,
		Comment:  req.Comment,
		UserID:   middleware.GetUserID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":      true,
		"review":       review,
		"rating":       entry.Rating,
		"review_count": entry.ReviewCount,
	})
}

// reviewFilter reads ?day=&meal_type=&mine=true
func reviewFilter(c *gin.Context) (store.ReviewFilter, bool) {
	var f store.ReviewFilter
	if q := c.Query("day"); q != "" {
		day, ok := models.ParseDay(q)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown day " + q})
			return f, false
		}
		f.Day = day
	}
	if q := c.Query("meal_type"); q != "" {
		meal, ok := models.ParseMealType(q)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Unknown meal type " + q})
			return f, false
		}
		f.Meal = meal
	}
	if c.Query("mine") == "true" {
		f.UserID = middleware.GetUserID(c)
	}
	return f, true
}

func (h *Handler) ListReviews(c *gin.Context) {
	filter, ok := reviewFilter(c)
	if !ok {
		return
	}
	reviews, err := h.svc.Reviews.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(reviews), "reviews": reviews})
}

// ReviewStats feeds the sentiment and rating charts
func (h *Handler) ReviewStats(c *gin.Context) {
	filter, ok := reviewFilter(c)
	if !ok {
		return
	}
	stats, err := h.svc.Reviews.Stats(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
