package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/services"
	"retail_pos_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// BillingHandler holds the billing and document services.
type BillingHandler struct {
	billingService  services.BillingService
	documentService services.DocumentService
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(bs services.BillingService, ds services.DocumentService) *BillingHandler {
	return &BillingHandler{billingService: bs, documentService: ds}
}

// Checkout finalizes the calling user's cart into a bill.
func (h *BillingHandler) Checkout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req services.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "Checkout: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	bill, err := h.billingService.Checkout(userID, req)
	if err != nil {
		utils.LogError(err, "Checkout: Error from billingService.Checkout")
		if errors.Is(err, services.ErrCartEmpty) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Cart is empty.", err.Error()))
		} else if errors.Is(err, services.ErrInsufficientStock) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock for one or more items.", err.Error()))
		} else if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A cart item no longer exists in the catalog.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidDiscount) || errors.Is(err, services.ErrInvalidPaymentMethod) || errors.Is(err, services.ErrValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid checkout data.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to complete checkout.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"bill":        bill,
		"bill_number": services.FormatBillNumber(bill.ID),
	})
}

// GetBills lists bills with filters and pagination.
func (h *BillingHandler) GetBills(c *gin.Context) {
	var filters models.BillFilters

	if status := c.Query("status"); status != "" {
		filters.Status = &status
	}
	if userIDStr := c.Query("user_id"); userIDStr != "" {
		userID, err := utils.StrToInt64(userIDStr)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid user_id format.", err.Error()))
			return
		}
		filters.UserID = &userID
	}
	if date := c.Query("date"); date != "" {
		filters.Date = &date
	}
	if pageStr := c.Query("page"); pageStr != "" {
		page, err := strconv.Atoi(pageStr)
		if err != nil || page <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page format.", "page must be a positive integer"))
			return
		}
		filters.Page = page
	}
	if pageSizeStr := c.Query("page_size"); pageSizeStr != "" {
		pageSize, err := strconv.Atoi(pageSizeStr)
		if err != nil || pageSize <= 0 {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid page_size format.", "page_size must be a positive integer"))
			return
		}
		filters.PageSize = pageSize
	}

	bills, totalCount, err := h.billingService.GetBills(filters)
	if err != nil {
		utils.LogError(err, "GetBills: Error from billingService.GetBills")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bills.", "Internal error"))
		return
	}
	if bills == nil {
		bills = []models.Bill{}
	}
	c.JSON(http.StatusOK, gin.H{
		"data":  bills,
		"total": totalCount,
	})
}

// GetBillByID fetches one bill with its items.
func (h *BillingHandler) GetBillByID(c *gin.Context) {
	bill, ok := h.loadBill(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"bill":        bill,
		"bill_number": services.FormatBillNumber(bill.ID),
	})
}

// UpdateBillStatus moves a bill between completed and cancelled.
func (h *BillingHandler) UpdateBillStatus(c *gin.Context) {
	idStr := c.Param("id")
	billID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateBillStatus: Failed to bind JSON for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	bill, err := h.billingService.UpdateBillStatus(billID, userID, req.Status)
	if err != nil {
		utils.LogError(err, "UpdateBillStatus: Error from billingService.UpdateBillStatus for ID "+idStr)
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidBillStatus) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill status.", err.Error()))
		} else if errors.Is(err, services.ErrInsufficientStock) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Not enough stock to restore this bill.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update bill status.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, bill)
}

// DeleteBill removes a bill and returns its stock if it was completed.
func (h *BillingHandler) DeleteBill(c *gin.Context) {
	idStr := c.Param("id")
	billID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.billingService.DeleteBill(billID, userID); err != nil {
		utils.LogError(err, "DeleteBill: Error from billingService.DeleteBill for ID "+idStr)
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found to delete.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete bill.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Bill deleted successfully"})
}

// GetReceiptPDF streams the printable receipt for a bill.
func (h *BillingHandler) GetReceiptPDF(c *gin.Context) {
	bill, ok := h.loadBill(c)
	if !ok {
		return
	}

	pdfBytes, err := h.documentService.RenderReceiptPDF(bill)
	if err != nil {
		utils.LogError(err, "GetReceiptPDF: Error rendering receipt for bill "+utils.Int64ToStr(bill.ID))
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to render receipt.", "Internal error"))
		return
	}

	filename := fmt.Sprintf("receipt-%s.pdf", services.FormatBillNumber(bill.ID))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// GetWhatsAppLink returns a share URL that opens a chat with the bill's customer.
func (h *BillingHandler) GetWhatsAppLink(c *gin.Context) {
	bill, ok := h.loadBill(c)
	if !ok {
		return
	}

	link, err := h.documentService.WhatsAppShareLink(bill)
	if err != nil {
		if errors.Is(err, services.ErrMissingPhoneNumber) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Bill has no customer phone number to share to.", err.Error()))
			return
		}
		utils.LogError(err, "GetWhatsAppLink: Error building share link for bill "+utils.Int64ToStr(bill.ID))
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build share link.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": link})
}

// loadBill parses the :id param and fetches the hydrated bill, writing the
// error response itself on failure.
func (h *BillingHandler) loadBill(c *gin.Context) (*models.Bill, bool) {
	idStr := c.Param("id")
	billID, err := utils.StrToInt64(idStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid bill ID format.", err.Error()))
		return nil, false
	}

	bill, err := h.billingService.GetBillByID(billID)
	if err != nil {
		utils.LogError(err, "loadBill: Error from billingService.GetBillByID for ID "+idStr)
		if errors.Is(err, services.ErrBillNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Bill not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch bill.", "Internal error"))
		}
		return nil, false
	}
	return bill, true
}
