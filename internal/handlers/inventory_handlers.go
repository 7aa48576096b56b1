package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pharmacy_backend/internal/services"
)

// InventoryHandler serves the product catalogue and stock levels.
type InventoryHandler struct {
	inventoryService services.InventoryService
}

func NewInventoryHandler(is services.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventoryService: is}
}

func (h *InventoryHandler) ListProducts(c *gin.Context) {
	products, err := h.inventoryService.ListProducts(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListProducts", "Failed to fetch inventory")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *InventoryHandler) GetProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	product, err := h.inventoryService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "GetProduct", "Failed to fetch product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct binds into a loose map so numbers sent as strings still parse.
func (h *InventoryHandler) CreateProduct(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondBadPayload(c, "CreateProduct", err)
		return
	}

	product, err := h.inventoryService.CreateProduct(c.Request.Context(), fields)
	if err != nil {
		respondServiceError(c, err, "CreateProduct", "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *InventoryHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondBadPayload(c, "UpdateProduct", err)
		return
	}

	product, err := h.inventoryService.UpdateProduct(c.Request.Context(), id, fields, currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "UpdateProduct", "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *InventoryHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.inventoryService.DeleteProduct(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "DeleteProduct", "Failed to delete product")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (h *InventoryHandler) ListLowStock(c *gin.Context) {
	products, err := h.inventoryService.ListLowStock(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListLowStock", "Failed to fetch low stock products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// ListExpiring takes ?days= (default 30).
func (h *InventoryHandler) ListExpiring(c *gin.Context) {
	days, ok := queryInt(c, "days", 30)
	if !ok {
		return
	}
	products, err := h.inventoryService.ListExpiring(c.Request.Context(), days)
	if err != nil {
		respondServiceError(c, err, "ListExpiring", "Failed to fetch expiring products")
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *InventoryHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, "AdjustStock", err)
		return
	}

	movement, err := h.inventoryService.AdjustStock(c.Request.Context(), id, req, currentUserID(c))
	if err != nil {
		respondServiceError(c, err, "AdjustStock", "Failed to adjust stock")
		return
	}
	c.JSON(http.StatusCreated, movement)
}
