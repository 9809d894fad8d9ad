package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"smartshop/internal/auth"
)

type LoginRequest struct {
	Role string `json:"role" binding:"required"`
	PIN  string `json:"pin" binding:"required"`
}

// Login checks the shared PIN for the requested access level and hands
// back a session marker. There is no account here: the role is a device
// setting, the token just survives page reloads.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role and pin are required"})
		return
	}

	role := auth.Role(req.Role)
	if err := h.Gate.Unlock(role, req.PIN); err != nil {
		fail(c, err)
		return
	}

	token, err := h.Tokens.Generate(role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"role":  role,
	})
}

// Logout exists for UI symmetry. The session marker is stateless, so the
// client dropping it is the whole operation.
func (h *Handler) Logout(c *gin.Context) {
	h.Gate.Reset()
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}
