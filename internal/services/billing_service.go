package services

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
)

// Custom Errors
var (
	ErrBillNotFound         = errors.New("bill not found")
	ErrInsufficientStock    = errors.New("insufficient stock for sale")
	ErrInvalidBillStatus    = errors.New("invalid bill status transition")
	ErrInvalidDiscount      = errors.New("invalid discount")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// Allowed bill states.
const (
	BillStatusCompleted = "completed"
	BillStatusCancelled = "cancelled"
)

// Discount shapes accepted at checkout.
const (
	DiscountTypePercent = "percent"
	DiscountTypeAmount  = "amount"
)

// --- Data Transfer Objects (DTOs) ---

// CheckoutRequest finalizes the calling user's cart into a bill.
type CheckoutRequest struct {
	CustomerName  string   `json:"customer_name"`
	CustomerPhone string   `json:"customer_phone"`
	CustomerEmail string   `json:"customer_email"`
	PaymentMethod string   `json:"payment_method" binding:"required"`
	Tax           float64  `json:"tax" binding:"gte=0"`
	DiscountType  *string  `json:"discount_type"`
	DiscountValue *float64 `json:"discount_value"`
}

// --- BillingService Interface ---
type BillingService interface {
	Checkout(userID int64, req CheckoutRequest) (*models.Bill, error)
	GetBills(filters models.BillFilters) ([]models.Bill, int, error)
	GetBillByID(billID int64) (*models.Bill, error)
	UpdateBillStatus(billID int64, userID int64, newStatus string) (*models.Bill, error)
	DeleteBill(billID int64, userID int64) error
}

// --- billingService Implementation ---
type billingService struct {
	cartService  CartService
	billRepo     repositories.BillRepository
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	db           *sql.DB // For managing transactions
}

// NewBillingService creates a new instance of BillingService.
func NewBillingService(cs CartService, br repositories.BillRepository, pr repositories.ProductRepository, smr repositories.StockMovementRepository, db *sql.DB) BillingService {
	return &billingService{
		cartService:  cs,
		billRepo:     br,
		productRepo:  pr,
		movementRepo: smr,
		db:           db,
	}
}

// computeDiscount turns the requested discount into a concrete amount.
// Percent discounts apply to the subtotal; flat discounts are capped at the
// subtotal so the total never goes negative.
func computeDiscount(subtotal float64, discountType *string, discountValue *float64) (float64, error) {
	if discountType == nil || discountValue == nil {
		return 0, nil
	}
	if *discountValue < 0 {
		return 0, fmt.Errorf("%w: discount value cannot be negative", ErrInvalidDiscount)
	}
	switch *discountType {
	case DiscountTypePercent:
		if *discountValue > 100 {
			return 0, fmt.Errorf("%w: percent discount cannot exceed 100", ErrInvalidDiscount)
		}
		return subtotal * (*discountValue / 100), nil
	case DiscountTypeAmount:
		if *discountValue > subtotal {
			return subtotal, nil
		}
		return *discountValue, nil
	default:
		return 0, fmt.Errorf("%w: unknown discount type '%s'", ErrInvalidDiscount, *discountType)
	}
}

// Checkout converts the user's cart into a persisted bill. The bill header,
// its items, every stock decrement and the matching sale movements are written
// in one transaction; any failure (including a concurrent sale draining stock)
// rolls the whole bill back and leaves the cart intact for correction.
func (s *billingService) Checkout(userID int64, req CheckoutRequest) (*models.Bill, error) {
	if req.PaymentMethod == "" {
		return nil, fmt.Errorf("%w: payment method is required", ErrInvalidPaymentMethod)
	}
	if req.Tax < 0 {
		return nil, fmt.Errorf("%w: tax cannot be negative", ErrValidation)
	}

	cart := s.cartService.GetCart(userID)
	if len(cart.Items) == 0 {
		return nil, ErrCartEmpty
	}

	subtotal := cart.Subtotal()
	discountAmount, err := computeDiscount(subtotal, req.DiscountType, req.DiscountValue)
	if err != nil {
		return nil, err
	}
	total := subtotal - discountAmount + req.Tax

	now := time.Now()
	bill := models.Bill{
		Status:         BillStatusCompleted,
		UserID:         userID,
		PaymentMethod:  req.PaymentMethod,
		Subtotal:       subtotal,
		Tax:            req.Tax,
		DiscountType:   req.DiscountType,
		DiscountValue:  req.DiscountValue,
		DiscountAmount: discountAmount,
		Total:          total,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.CustomerName != "" {
		bill.CustomerName = &req.CustomerName
	}
	if req.CustomerPhone != "" {
		bill.CustomerPhone = &req.CustomerPhone
	}
	if req.CustomerEmail != "" {
		bill.CustomerEmail = &req.CustomerEmail
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	billID, err := s.billRepo.CreateBill(tx, &bill)
	if err != nil {
		return nil, fmt.Errorf("failed to create bill: %w", err)
	}

	for i := range cart.Items {
		entry := &cart.Items[i]

		item := models.BillItem{
			BillID:             billID,
			ProductID:          entry.Product.ID,
			ProductName:        entry.Product.Name,
			ProductPrice:       entry.Product.Price,
			DiscountPercentage: entry.Product.DiscountPercentage,
			Quantity:           entry.Quantity,
			Total:              entry.LineTotal(),
			CreatedAt:          now,
		}
		var variantID *int64
		if entry.Variant.ID != 0 {
			vID := entry.Variant.ID
			vLabel := entry.Variant.Label
			variantID = &vID
			item.VariantID = &vID
			item.VariantLabel = &vLabel
		}
		if _, err := s.billRepo.CreateBillItem(tx, &item); err != nil {
			return nil, fmt.Errorf("failed to create bill item for product %d: %w", entry.Product.ID, err)
		}

		if variantID != nil {
			_, err = s.productRepo.DecrementVariantStock(tx, *variantID, entry.Quantity)
		} else {
			_, err = s.productRepo.DecrementStock(tx, entry.Product.ID, entry.Quantity)
		}
		if err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: product '%s'", ErrInsufficientStock, entry.Product.Name)
			}
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, fmt.Errorf("%w: product '%s' no longer exists", ErrProductNotFound, entry.Product.Name)
			}
			return nil, fmt.Errorf("failed to decrement stock for product %d: %w", entry.Product.ID, err)
		}

		movement := models.StockMovement{
			ProductID:       entry.Product.ID,
			VariantID:       variantID,
			UserID:          &userID,
			MovementType:    models.MovementTypeSale,
			QuantityChanged: -entry.Quantity,
			Reason:          models.NewNullString(fmt.Sprintf("Sale (bill #%d)", billID)),
			MovementDate:    now,
		}
		if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
			return nil, fmt.Errorf("failed to record sale movement for product %d: %w", entry.Product.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit checkout transaction: %w", err)
	}

	// The cart is only destroyed once the bill is durable.
	s.cartService.ClearCart(userID)

	return s.GetBillByID(billID)
}

func (s *billingService) GetBills(filters models.BillFilters) ([]models.Bill, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 {
		filters.PageSize = 20
	}
	bills, totalCount, err := s.billRepo.GetBills(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get bills: %w", err)
	}
	return bills, totalCount, nil
}

func (s *billingService) GetBillByID(billID int64) (*models.Bill, error) {
	bill, err := s.billRepo.GetBillByID(billID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to get bill: %w", err)
	}
	items, err := s.billRepo.GetBillItemsByBillID(billID)
	if err != nil {
		return nil, fmt.Errorf("failed to get bill items: %w", err)
	}
	bill.Items = items
	return bill, nil
}

// UpdateBillStatus moves a bill between completed and cancelled. Cancelling a
// completed bill returns its stock and records the reversal movements in the
// same transaction as the status flip.
func (s *billingService) UpdateBillStatus(billID int64, userID int64, newStatus string) (*models.Bill, error) {
	if newStatus != BillStatusCompleted && newStatus != BillStatusCancelled {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidBillStatus, newStatus)
	}

	bill, err := s.GetBillByID(billID)
	if err != nil {
		return nil, err
	}
	if bill.Status == newStatus {
		return bill, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.billRepo.UpdateBillStatus(tx, billID, newStatus, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrBillNotFound
		}
		return nil, fmt.Errorf("failed to update bill status: %w", err)
	}

	switch {
	case bill.Status == BillStatusCompleted && newStatus == BillStatusCancelled:
		if err := s.returnBillStock(tx, bill, userID); err != nil {
			return nil, err
		}
	case bill.Status == BillStatusCancelled && newStatus == BillStatusCompleted:
		if err := s.resellBillStock(tx, bill, userID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit bill status update: %w", err)
	}
	return s.GetBillByID(billID)
}

// DeleteBill removes a bill and its items. Stock sold on a completed bill is
// returned first so the audit trail and counters stay consistent.
func (s *billingService) DeleteBill(billID int64, userID int64) error {
	bill, err := s.GetBillByID(billID)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if bill.Status == BillStatusCompleted {
		if err := s.returnBillStock(tx, bill, userID); err != nil {
			return err
		}
	}

	if _, err := s.billRepo.DeleteBillItemsByBillID(tx, billID); err != nil {
		return fmt.Errorf("failed to delete bill items: %w", err)
	}
	if _, err := s.billRepo.DeleteBill(tx, billID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrBillNotFound
		}
		return fmt.Errorf("failed to delete bill: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bill deletion: %w", err)
	}
	return nil
}

// returnBillStock puts every sold quantity back and records the reversal.
func (s *billingService) returnBillStock(tx *sql.Tx, bill *models.Bill, userID int64) error {
	for i := range bill.Items {
		item := &bill.Items[i]
		if _, err := s.productRepo.AddStock(tx, item.ProductID, item.VariantID, item.Quantity); err != nil {
			return fmt.Errorf("failed to return stock for product %d: %w", item.ProductID, err)
		}
		movement := models.StockMovement{
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			UserID:          &userID,
			MovementType:    models.MovementTypeReturnCancellation,
			QuantityChanged: item.Quantity,
			Reason:          models.NewNullString(fmt.Sprintf("Bill #%d cancelled", bill.ID)),
		}
		if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
			return fmt.Errorf("failed to record return movement for product %d: %w", item.ProductID, err)
		}
	}
	return nil
}

// resellBillStock re-applies the decrements when a cancelled bill is restored.
func (s *billingService) resellBillStock(tx *sql.Tx, bill *models.Bill, userID int64) error {
	for i := range bill.Items {
		item := &bill.Items[i]
		var err error
		if item.VariantID != nil {
			_, err = s.productRepo.DecrementVariantStock(tx, *item.VariantID, item.Quantity)
		} else {
			_, err = s.productRepo.DecrementStock(tx, item.ProductID, item.Quantity)
		}
		if err != nil {
			if errors.Is(err, repositories.ErrInsufficientStock) {
				return fmt.Errorf("%w: product '%s'", ErrInsufficientStock, item.ProductName)
			}
			return fmt.Errorf("failed to re-apply stock for product %d: %w", item.ProductID, err)
		}
		movement := models.StockMovement{
			ProductID:       item.ProductID,
			VariantID:       item.VariantID,
			UserID:          &userID,
			MovementType:    models.MovementTypeSale,
			QuantityChanged: -item.Quantity,
			Reason:          models.NewNullString(fmt.Sprintf("Bill #%d restored", bill.ID)),
		}
		if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
			return fmt.Errorf("failed to record sale movement for product %d: %w", item.ProductID, err)
		}
	}
	return nil
}
