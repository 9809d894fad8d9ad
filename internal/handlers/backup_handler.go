package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartshop/internal/backup"
)

// --- GET /api/backup/export ---
// Streams the full state as a downloadable JSON snapshot.
func (h *Handler) ExportBackup(c *gin.Context) {
	data, err := backup.Export(h.POS.Products(), h.POS.Sales())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build backup"})
		return
	}

	filename := fmt.Sprintf("SmartShop_Backup_%s.json", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/json", data)
}

// --- POST /api/backup/import (multipart: file) ---
// Validates the snapshot before touching anything; a bad file leaves the
// running state untouched.
func (h *Handler) ImportBackup(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No backup file uploaded"})
		return
	}
	opened, err := file.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read backup file"})
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read backup file"})
		return
	}

	products, sales, err := backup.Import(data)
	if err != nil {
		if errors.Is(err, backup.ErrMissingSection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Backup must contain both products and sales"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid backup file"})
		return
	}

	h.POS.ReplaceAll(products, sales)
	if h.Syncer != nil {
		// A restore is worth persisting right away instead of waiting
		// out the debounce window.
		if err := h.Syncer.Flush(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Restored in memory but failed to persist"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Backup restored",
		"products": len(products),
		"sales":    len(sales),
	})
}
