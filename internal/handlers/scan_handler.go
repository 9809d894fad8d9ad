package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"smartshop/internal/ai"
	"smartshop/internal/models"
)

// --- POST /api/scan (multipart: file) ---
// ScanProduct sends the captured frame plus the current catalog context to
// the recognition gateway and branches on what came back:
//   - a productId that resolves in the catalog -> the full product,
//   - a suggested name -> a pre-fill hint for the form,
//   - neither -> a soft "not recognized" outcome.
//
// A gateway failure is also soft: manual entry always remains available.
func (h *Handler) ScanProduct(c *gin.Context) {
	if !h.Recognizer.Enabled() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo recognition is not configured"})
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No image uploaded"})
		return
	}
	opened, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read image"})
		return
	}
	defer opened.Close()
	image, err := io.ReadAll(opened)
	if err != nil || len(image) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read image"})
		return
	}

	var candidates []models.ScanCandidate
	for _, p := range h.POS.Products() {
		candidates = append(candidates, models.ScanCandidate{
			ID:    p.ID,
			Name:  p.Name,
			Price: p.SellingPrice,
		})
	}

	// The request context dies with the connection: closing the capture
	// view client-side aborts the inference call.
	result, err := h.Recognizer.Identify(c.Request.Context(), image, candidates)
	if err != nil {
		if errors.Is(err, ai.ErrDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Photo recognition is not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"outcome": "error",
			"message": "Could not identify the product, please enter it manually",
		})
		return
	}

	if result.ProductID != "" {
		if product, err := h.POS.GetProduct(result.ProductID); err == nil {
			c.JSON(http.StatusOK, gin.H{
				"outcome":    "matched",
				"product":    product,
				"confidence": result.Confidence,
			})
			return
		}
	}

	if result.SuggestedName != "" {
		c.JSON(http.StatusOK, gin.H{
			"outcome":       "suggested",
			"suggestedName": result.SuggestedName,
			"brand":         result.Brand,
			"description":   result.Description,
			"confidence":    result.Confidence,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"outcome": "unrecognized",
		"message": "Product not recognized",
	})
}
