package models

import "time"

// Movement types recorded in the stock audit trail.
const (
	MovementTypeSale               = "sale"
	MovementTypeRestock            = "restock"
	MovementTypeAdjustment         = "adjustment"
	MovementTypeReturnCancellation = "return_cancellation"
)

// StockMovement represents a single change to a product or variant stock
// counter. One row is written for every decrement and restock.
type StockMovement struct {
	ID              int64     `json:"id" db:"id"`
	ProductID       int64     `json:"product_id" db:"product_id"`
	VariantID       *int64    `json:"variant_id,omitempty" db:"variant_id"`
	UserID          *int64    `json:"user_id,omitempty" db:"user_id"`
	MovementType    string    `json:"movement_type" db:"movement_type"`
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	MovementDate    time.Time `json:"movement_date" db:"movement_date"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	ProductName     string    `json:"product_name,omitempty"` // joined for listings
}

// StockMovementFilters defines the available filters for querying movements.
type StockMovementFilters struct {
	ProductID    *int64  `form:"product_id"`
	MovementType *string `form:"movement_type"`
	Page         int     `form:"page"`
	PageSize     int     `form:"page_size"`
}

// NewNullString is a helper for string pointers, returning nil if string is empty.
// Useful for fields that are optional and should be NULL in DB if not provided.
func NewNullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
