package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartshop/internal/ai"
	"smartshop/internal/auth"
	"smartshop/internal/pos"
	"smartshop/internal/syncer"
)

// Handler wires the HTTP surface to the POS core and its collaborators.
type Handler struct {
	POS        *pos.Controller
	Gate       *auth.Gate
	Tokens     *auth.Tokens
	Recognizer *ai.Recognizer
	Syncer     *syncer.Syncer

	UploadDir string
	BaseURL   string
}

// fail maps core errors onto HTTP statuses. Business-rule violations are
// client errors with a specific message; anything unexpected is a 500.
func fail(c *gin.Context, err error) {
	var verr *pos.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
	case errors.Is(err, pos.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case errors.Is(err, pos.ErrInsufficientStock):
		c.JSON(http.StatusConflict, gin.H{"error": "Insufficient stock"})
	case errors.Is(err, auth.ErrWrongPin):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Wrong PIN"})
	case errors.Is(err, auth.ErrLocked):
		c.JSON(http.StatusLocked, gin.H{"error": "Too many failed attempts, try again later"})
	case errors.Is(err, auth.ErrUnknownRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role"})
	default:
		log.Printf("handler: internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
