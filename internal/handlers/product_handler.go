package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smartshop/internal/models"
	"smartshop/internal/pos"
)

// --- GET /api/products?q= ---
func (h *Handler) GetProducts(c *gin.Context) {
	products := h.POS.ListProducts(c.Query("q"))
	if products == nil {
		products = []models.Product{}
	}
	c.JSON(http.StatusOK, products)
}

// --- GET /api/products/:id ---
func (h *Handler) GetProduct(c *gin.Context) {
	product, err := h.POS.GetProduct(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// --- GET /api/products/sold ---
func (h *Handler) GetSoldProducts(c *gin.Context) {
	sold := h.POS.SoldProducts()
	if sold == nil {
		sold = []pos.SoldProduct{}
	}
	c.JSON(http.StatusOK, sold)
}

// --- GET /api/stats ---
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.POS.Stats())
}

// --- POST /api/products ---
func (h *Handler) AddProduct(c *gin.Context) {
	var input pos.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product, err := h.POS.AddProduct(input)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// --- PUT /api/products/:id ---
func (h *Handler) UpdateProduct(c *gin.Context) {
	var patch pos.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	product, err := h.POS.UpdateProduct(c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated successfully", "product": product})
}

type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// --- POST /api/products/:id/restock ---
// Restock is additive: the delta is added to whatever stock is left, it
// never overwrites the count.
func (h *Handler) RestockProduct(c *gin.Context) {
	var req RestockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity is required"})
		return
	}

	product, err := h.POS.Restock(c.Param("id"), req.Quantity)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Stock updated", "product": product})
}

// CheckoutRequest is a single-product sale as entered at the counter.
type CheckoutRequest struct {
	ProductID string              `json:"productId" binding:"required"`
	Quantity  int                 `json:"quantity" binding:"required"`
	Customer  models.CustomerInfo `json:"customer"`
}

// --- POST /api/checkout ---
// The stock decrement and ledger append happen atomically inside the
// controller; persistence is already scheduled by the time we respond.
func (h *Handler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	sale, err := h.POS.RecordSale(req.ProductID, req.Quantity, req.Customer)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Sale recorded",
		"sale":    sale,
	})
}

// --- POST /api/upload ---
// Stores a captured product photo and returns the URL to reference it by.
func (h *Handler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	filename := fmt.Sprintf("%d_%s", time.Now().Unix(), file.Filename)
	if err := c.SaveUploadedFile(file, h.UploadDir+"/"+filename); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save file"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File uploaded successfully",
		"url":     h.BaseURL + "/uploads/" + filename,
	})
}
