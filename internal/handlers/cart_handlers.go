package handlers

import (
	"errors"
	"net/http"

	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CartHandler holds the cart and product services. The product service is
// needed to resolve the stock snapshot captured when an item enters the cart.
type CartHandler struct {
	cartService    services.CartService
	productService services.ProductService
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(cs services.CartService, ps services.ProductService) *CartHandler {
	return &CartHandler{cartService: cs, productService: ps}
}

// AddCartItemRequest selects a product (and variant, for sized products) to add.
type AddCartItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	VariantID *int64 `json:"variant_id"`
}

// UpdateCartItemRequest replaces the quantity of one cart entry.
type UpdateCartItemRequest struct {
	ProductID int64  `json:"product_id" binding:"required"`
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// GetCart returns the calling user's cart with its running totals.
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	cart := h.cartService.GetCart(userID)
	c.JSON(http.StatusOK, gin.H{
		"cart":     cart,
		"subtotal": cart.Subtotal(),
		"total":    cart.Total(),
	})
}

// AddItem resolves the product and variant, snapshots their current stock and
// adds one unit to the user's cart.
func (h *CartHandler) AddItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req AddCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "AddItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	product, err := h.productService.GetProductByID(req.ProductID)
	if err != nil {
		utils.LogError(err, "AddItem: Error resolving product "+utils.Int64ToStr(req.ProductID))
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve product.", "Internal error"))
		}
		return
	}

	var variant services.CartVariant
	if product.TracksVariants {
		if req.VariantID == nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "variant_id is required for this product.", "product tracks size variants"))
			return
		}
		v := product.FindVariant(*req.VariantID)
		if v == nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Product variant not found.", "no such variant for product"))
			return
		}
		threshold := product.LowStockThreshold
		if v.LowStockThreshold != nil {
			threshold = *v.LowStockThreshold
		}
		variant = services.CartVariant{
			ID:                v.ID,
			Label:             v.Label,
			Stock:             v.Stock,
			LowStockThreshold: threshold,
		}
	} else {
		if req.VariantID != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Product does not track variants.", "variant_id must be omitted"))
			return
		}
		variant = services.CartVariant{
			Stock:             product.Stock,
			LowStockThreshold: product.LowStockThreshold,
		}
	}

	cart, err := h.cartService.AddItem(userID, product, variant)
	if err != nil {
		if errors.Is(err, services.ErrMaxStockReached) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Maximum available stock reached for this item.", err.Error()))
			return
		}
		utils.LogError(err, "AddItem: Error from cartService.AddItem")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to add item to cart.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal(), "total": cart.Total()})
}

// UpdateItem replaces the quantity of one entry. Quantity zero removes it.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateItem: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	var variantID int64
	if req.VariantID != nil {
		variantID = *req.VariantID
	}

	cart, err := h.cartService.UpdateQuantity(userID, req.ProductID, variantID, req.Quantity)
	if err != nil {
		if errors.Is(err, services.ErrCartItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Cart item not found.", err.Error()))
			return
		}
		if errors.Is(err, services.ErrMaxStockReached) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Requested quantity exceeds available stock.", err.Error()))
			return
		}
		utils.LogError(err, "UpdateItem: Error from cartService.UpdateQuantity")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update cart item.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal(), "total": cart.Total()})
}

// RemoveItem drops one entry from the cart.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	productID, err := utils.StrToInt64(c.Param("product_id"))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product ID format.", err.Error()))
		return
	}
	var variantID int64
	if variantIDStr := c.Query("variant_id"); variantIDStr != "" {
		variantID, err = utils.StrToInt64(variantIDStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid variant_id format.", err.Error()))
			return
		}
	}

	cart, err := h.cartService.RemoveItem(userID, productID, variantID)
	if err != nil {
		if errors.Is(err, services.ErrCartItemNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Cart item not found.", err.Error()))
			return
		}
		utils.LogError(err, "RemoveItem: Error from cartService.RemoveItem")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to remove cart item.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal(), "total": cart.Total()})
}

// ClearCart empties the user's cart.
func (h *CartHandler) ClearCart(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	h.cartService.ClearCart(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
