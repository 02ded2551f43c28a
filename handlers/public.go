package handlers

import (
	"net/http"

	"mess-management-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Version is reported by /health and the version command
var Version = "dev"

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Mess Management API",
		"version": Version,
	})
}

func Welcome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to the Mess Management API",
		"docs":    "/api/suggestions/state-machine",
		"health":  "/health",
		"roles":   []string{"student", "admin"},
	})
}

// GetStateMachineInfo describes the suggestion approval workflow
func GetStateMachineInfo(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	info := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		info = append(info, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   info,
		"terminal_states": statemachine.TerminalStates(),
		"description":     "Dish suggestion approval workflow",
	})
}
