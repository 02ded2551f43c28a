package handlers

import (
	"context"
	"errors"
	"net/http"

	"mess-management-api/middleware"
	"mess-management-api/models"
	"mess-management-api/services"

	"github.com/gin-gonic/gin"
)

type CreateSuggestionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	MealType    string `json:"meal_type" binding:"required"`
}

func (h *Handler) CreateSuggestion(c *gin.Context) {
	var req CreateSuggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	sg, err := h.svc.Suggestions.Create(c.Request.Context(), services.SuggestionInput{
		Name:        req.Name,
		Description: req.Description,
		Meal:        req.MealType,
		UserID:      middleware.GetUserID(c),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "suggestion": sg})
}

// ListSuggestions supports ?status=pending|approved|rejected
func (h *Handler) ListSuggestions(c *gin.Context) {
	list, err := h.svc.Suggestions.List(c.Request.Context(), models.SuggestionStatus(c.Query("status")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(list), "suggestions": list})
}

func (h *Handler) GetSuggestion(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sg, err := h.svc.Suggestions.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "suggestion": sg})
}

func (h *Handler) LikeSuggestion(c *gin.Context) {
	h.vote(c, h.svc.Suggestions.Like)
}

func (h *Handler) DislikeSuggestion(c *gin.Context) {
	h.vote(c, h.svc.Suggestions.Dislike)
}

type voteFunc func(ctx context.Context, id, userID uint) (*models.Suggestion, error)

// vote always answers with the stored counters so clients can render
// server state, including on a repeated vote.
func (h *Handler) vote(c *gin.Context, fn voteFunc) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	sg, err := fn(c.Request.Context(), id, middleware.GetUserID(c))
	if errors.Is(err, services.ErrAlreadyVoted) && sg != nil {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": err.Error(), "suggestion": sg})
		return
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "suggestion": sg})
}

type SuggestionStatusRequest struct {
	Status models.SuggestionStatus `json:"status" binding:"required"`
}

// AdminSetSuggestionStatus approves or rejects a pending suggestion
func (h *Handler) AdminSetSuggestionStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SuggestionStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	actor, err := h.svc.Auth.GetUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	sg, err := h.svc.Suggestions.SetStatus(c.Request.Context(), id, req.Status, actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Suggestion " + string(sg.Status), "suggestion": sg})
}
