package handlers

import (
	"net/http"
	"strconv"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StockMovementHandler exposes the stock audit trail. Movements are written by
// the billing and product services; this handler only reads.
type StockMovementHandler struct {
	movementRepo repositories.StockMovementRepository
}

// NewStockMovementHandler creates a new StockMovementHandler.
func NewStockMovementHandler(smr repositories.StockMovementRepository) *StockMovementHandler {
	return &StockMovementHandler{movementRepo: smr}
}

// GetStockMovements lists movements with filters and pagination.
func (h *StockMovementHandler) GetStockMovements(c *gin.Context) {
	var filters models.StockMovementFilters

	if productIDStr := c.Query("product_id"); productIDStr != "" {
		productID, err := utils.StrToInt64(productIDStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid product_id format.", err.Error()))
			return
		}
		filters.ProductID = &productID
	}
	if movementType := c.Query("movement_type"); movementType != "" {
		filters.MovementType = &movementType
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return
		}
		filters.Page = page
	} else {
		filters.Page = 1
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return
		}
		filters.PageSize = pageSize
	} else {
		filters.PageSize = 20
	}

	movements, totalCount, err := h.movementRepo.GetMovements(filters)
	if err != nil {
		utils.LogError(err, "GetStockMovements: Error from movementRepo.GetMovements")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch stock movements.", "Internal error"))
		return
	}
	if movements == nil {
		movements = []models.StockMovement{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":      movements,
		"total":     totalCount,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}
