package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// BillRepository defines the interface for bill-related database operations.
type BillRepository interface {
	// Bill methods
	CreateBill(executor SQLExecutor, bill *models.Bill) (int64, error)
	GetBillByID(billID int64) (*models.Bill, error) // header only
	GetBills(filters models.BillFilters) ([]models.Bill, int, error)
	UpdateBillStatus(executor SQLExecutor, billID int64, newStatus string, updatedAt time.Time) error
	DeleteBill(executor SQLExecutor, billID int64) (int64, error)

	// BillItem methods
	CreateBillItem(executor SQLExecutor, item *models.BillItem) (int64, error)
	GetBillItemsByBillID(billID int64) ([]models.BillItem, error) // joined to products
	DeleteBillItemsByBillID(executor SQLExecutor, billID int64) (int64, error)

	// Reporting
	GetSalesRows(from, to *time.Time) ([]models.SalesRow, error)
	SumCompletedTotals(from, to *time.Time) (float64, error)
}

type billRepository struct {
	db *sql.DB
}

// NewBillRepository creates a new instance of BillRepository.
func NewBillRepository(db *sql.DB) BillRepository {
	return &billRepository{db: db}
}

// --- Bill Methods ---

// scanBillRow scans one bills row. List queries carry a trailing
// COUNT(*) OVER() column; isList tells the scan to expect it.
func scanBillRow(row scanner, isList bool) (*models.Bill, int, error) {
	bill := &models.Bill{}
	totalCount := 0

	dest := []interface{}{
		&bill.ID, &bill.Status, &bill.UserID, &bill.CustomerName, &bill.CustomerPhone,
		&bill.CustomerEmail, &bill.PaymentMethod, &bill.Subtotal, &bill.Tax,
		&bill.DiscountType, &bill.DiscountValue, &bill.DiscountAmount, &bill.Total,
		&bill.CreatedAt, &bill.UpdatedAt,
	}
	if isList {
		dest = append(dest, &totalCount)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, 0, err
	}
	return bill, totalCount, nil
}

func (r *billRepository) CreateBill(executor SQLExecutor, bill *models.Bill) (int64, error) {
	query := `INSERT INTO bills
	            (status, user_id, customer_name, customer_phone, customer_email,
	             payment_method, subtotal, tax, discount_type, discount_value,
	             discount_amount, total, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	          RETURNING id`

	if bill.CreatedAt.IsZero() {
		bill.CreatedAt = time.Now()
	}
	if bill.UpdatedAt.IsZero() {
		bill.UpdatedAt = bill.CreatedAt
	}

	err := executor.QueryRow(query,
		bill.Status, bill.UserID, bill.CustomerName, bill.CustomerPhone, bill.CustomerEmail,
		bill.PaymentMethod, bill.Subtotal, bill.Tax, bill.DiscountType, bill.DiscountValue,
		bill.DiscountAmount, bill.Total, bill.CreatedAt, bill.UpdatedAt,
	).Scan(&bill.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating bill: %v", ErrDatabaseError, err)
	}
	return bill.ID, nil
}

func (r *billRepository) GetBillByID(billID int64) (*models.Bill, error) {
	query := `SELECT id, status, user_id, customer_name, customer_phone, customer_email,
	                 payment_method, subtotal, tax, discount_type, discount_value,
	                 discount_amount, total, created_at, updated_at
	          FROM bills
	          WHERE id = $1`
	bill, _, err := scanBillRow(r.db.QueryRow(query, billID), false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting bill by ID %d: %v", ErrDatabaseError, billID, err)
	}
	return bill, nil
}

func (r *billRepository) GetBills(filters models.BillFilters) ([]models.Bill, int, error) {
	bills := []models.Bill{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            id, status, user_id, customer_name, customer_phone, customer_email,
            payment_method, subtotal, tax, discount_type, discount_value,
            discount_amount, total, created_at, updated_at,
            COUNT(*) OVER() as total_count
        FROM bills
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}
	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", argCounter))
		args = append(args, *filters.UserID)
		argCounter++
	}
	if filters.Date != nil && *filters.Date != "" {
		parsedDate, err := time.Parse("2006-01-02", *filters.Date)
		if err == nil {
			startOfDay := time.Date(parsedDate.Year(), parsedDate.Month(), parsedDate.Day(), 0, 0, 0, 0, parsedDate.Location())
			endOfDay := startOfDay.AddDate(0, 0, 1).Add(-time.Nanosecond)
			conditions = append(conditions, fmt.Sprintf("created_at BETWEEN $%d AND $%d", argCounter, argCounter+1))
			args = append(args, startOfDay, endOfDay)
			argCounter += 2
		}
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying bills: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		bill, count, err := scanBillRow(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning bill: %v", ErrDatabaseError, err)
		}
		totalCount = count
		bills = append(bills, *bill)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating bill rows: %v", ErrDatabaseError, err)
	}
	return bills, totalCount, nil
}

func (r *billRepository) UpdateBillStatus(executor SQLExecutor, billID int64, newStatus string, updatedAt time.Time) error {
	query := `UPDATE bills SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, newStatus, updatedAt, billID)
	if err != nil {
		return fmt.Errorf("%w: updating bill status for ID %d: %v", ErrDatabaseError, billID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for bill status update ID %d: %v", ErrDatabaseError, billID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *billRepository) DeleteBill(executor SQLExecutor, billID int64) (int64, error) {
	query := `DELETE FROM bills WHERE id = $1`
	result, err := executor.Exec(query, billID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting bill ID %d: %v", ErrDatabaseError, billID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting bill ID %d: %v", ErrDatabaseError, billID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}

// --- BillItem Methods ---

func (r *billRepository) CreateBillItem(executor SQLExecutor, item *models.BillItem) (int64, error) {
	query := `INSERT INTO bill_items
	            (bill_id, product_id, variant_id, variant_label, product_name,
	             product_price, discount_percentage, quantity, total, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		item.BillID, item.ProductID, item.VariantID, item.VariantLabel, item.ProductName,
		item.ProductPrice, item.DiscountPercentage, item.Quantity, item.Total,
		item.CreatedAt,
	).Scan(&item.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating bill item (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating bill item: %v", ErrDatabaseError, err)
	}
	return item.ID, nil
}

func (r *billRepository) GetBillItemsByBillID(billID int64) ([]models.BillItem, error) {
	items := []models.BillItem{}
	query := `
		SELECT
		    bi.id, bi.bill_id, bi.product_id, bi.variant_id, bi.variant_label,
		    bi.product_name, bi.product_price, bi.discount_percentage, bi.quantity,
		    bi.total, bi.created_at,
		    p.name, p.brand, p.category, p.image, p.item_number
		FROM bill_items bi
		JOIN products p ON bi.product_id = p.id
		WHERE bi.bill_id = $1
		ORDER BY bi.id`

	rows, err := r.db.Query(query, billID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying bill items for bill ID %d: %v", ErrDatabaseError, billID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var item models.BillItem
		var product models.Product

		err := rows.Scan(
			&item.ID, &item.BillID, &item.ProductID, &item.VariantID, &item.VariantLabel,
			&item.ProductName, &item.ProductPrice, &item.DiscountPercentage, &item.Quantity,
			&item.Total, &item.CreatedAt,
			&product.Name, &product.Brand, &product.Category, &product.Image, &product.ItemNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning bill item for bill ID %d: %v", ErrDatabaseError, billID, err)
		}

		product.ID = item.ProductID
		item.Product = &product
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating bill item rows for bill ID %d: %v", ErrDatabaseError, billID, err)
	}
	return items, nil
}

func (r *billRepository) DeleteBillItemsByBillID(executor SQLExecutor, billID int64) (int64, error) {
	query := `DELETE FROM bill_items WHERE bill_id = $1`
	result, err := executor.Exec(query, billID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting bill items for bill ID %d: %v", ErrDatabaseError, billID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting bill items for bill ID %d: %v", ErrDatabaseError, billID, err)
	}
	return rowsAffected, nil
}

// --- Reporting ---

// GetSalesRows returns the joined completed-bill rows the report fold consumes.
// Nil bounds leave that side of the range open.
func (r *billRepository) GetSalesRows(from, to *time.Time) ([]models.SalesRow, error) {
	salesRows := []models.SalesRow{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
		    b.id, b.created_at, b.total,
		    bi.product_id, bi.product_price, bi.quantity,
		    p.name, p.category, p.brand, p.buying_price
		FROM bills b
		JOIN bill_items bi ON b.id = bi.bill_id
		JOIN products p ON bi.product_id = p.id
		WHERE b.status = 'completed'`)

	var args []interface{}
	argCounter := 1
	if from != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND b.created_at >= $%d", argCounter))
		args = append(args, *from)
		argCounter++
	}
	if to != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND b.created_at <= $%d", argCounter))
		args = append(args, *to)
		argCounter++
	}
	queryBuilder.WriteString(" ORDER BY b.created_at, bi.id")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying sales rows: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var sr models.SalesRow
		err := rows.Scan(
			&sr.BillID, &sr.BillCreatedAt, &sr.BillTotal,
			&sr.ProductID, &sr.UnitPrice, &sr.Quantity,
			&sr.ProductName, &sr.Category, &sr.Brand, &sr.BuyingPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning sales row: %v", ErrDatabaseError, err)
		}
		salesRows = append(salesRows, sr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating sales rows: %v", ErrDatabaseError, err)
	}
	return salesRows, nil
}

func (r *billRepository) SumCompletedTotals(from, to *time.Time) (float64, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT COALESCE(SUM(total), 0) FROM bills WHERE status = 'completed'`)

	var args []interface{}
	argCounter := 1
	if from != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND created_at >= $%d", argCounter))
		args = append(args, *from)
		argCounter++
	}
	if to != nil {
		queryBuilder.WriteString(fmt.Sprintf(" AND created_at <= $%d", argCounter))
		args = append(args, *to)
		argCounter++
	}

	var total float64
	err := r.db.QueryRow(queryBuilder.String(), args...).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("%w: summing completed bill totals: %v", ErrDatabaseError, err)
	}
	return total, nil
}
