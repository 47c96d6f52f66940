package models

import "time"

// Bill represents one completed (or cancelled) checkout. Customer fields are
// optional; a blank customer renders as a walk-in on the receipt. Bills are
// immutable after creation except for status changes.
type Bill struct {
	ID             int64      `json:"id" db:"id"`
	Status         string     `json:"status" db:"status"`
	UserID         int64      `json:"user_id" db:"user_id"`
	CustomerName   *string    `json:"customer_name,omitempty" db:"customer_name"`
	CustomerPhone  *string    `json:"customer_phone,omitempty" db:"customer_phone"`
	CustomerEmail  *string    `json:"customer_email,omitempty" db:"customer_email"`
	PaymentMethod  string     `json:"payment_method" db:"payment_method"`
	Subtotal       float64    `json:"subtotal" db:"subtotal"`
	Tax            float64    `json:"tax" db:"tax"`
	DiscountType   *string    `json:"discount_type,omitempty" db:"discount_type"` // percent | amount
	DiscountValue  *float64   `json:"discount_value,omitempty" db:"discount_value"`
	DiscountAmount float64    `json:"discount_amount" db:"discount_amount"`
	Total          float64    `json:"total" db:"total"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
	Items          []BillItem `json:"items,omitempty"`
}

// BillItem is one line of a bill. Product name, price and discount are
// captured at sale time so later catalog edits never alter historical bills.
type BillItem struct {
	ID                 int64     `json:"id" db:"id"`
	BillID             int64     `json:"bill_id" db:"bill_id"`
	ProductID          int64     `json:"product_id" db:"product_id"`
	VariantID          *int64    `json:"variant_id,omitempty" db:"variant_id"`
	VariantLabel       *string   `json:"variant_label,omitempty" db:"variant_label"`
	ProductName        string    `json:"product_name" db:"product_name"`
	ProductPrice       float64   `json:"product_price" db:"product_price"`
	DiscountPercentage float64   `json:"discount_percentage" db:"discount_percentage"`
	Quantity           int       `json:"quantity" db:"quantity"`
	Total              float64   `json:"total" db:"total"`
	CreatedAt          time.Time `json:"created_at" db:"created_at"`
	Product            *Product  `json:"product,omitempty"` // joined for hydrated views
}

// BillFilters defines the available filters for querying bills.
type BillFilters struct {
	Status   *string `form:"status"`
	UserID   *int64  `form:"user_id"`
	Date     *string `form:"date"` // Expected format YYYY-MM-DD
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
