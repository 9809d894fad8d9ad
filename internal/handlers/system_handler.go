package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// --- GET /api/system/status ---
// A small readiness probe for the UI: which optional collaborators are
// live. The app works without any of them.
func (h *Handler) GetSystemStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "online",
		"recognition": h.Recognizer.Enabled(),
		"stats":       h.POS.Stats(),
	})
}
