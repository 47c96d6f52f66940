package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"retail_pos_backend/internal/models"

	"github.com/lib/pq"
)

// ProductRepository defines the interface for product-related database operations.
type ProductRepository interface {
	// Product methods
	CreateProduct(executor SQLExecutor, product *models.Product) (int64, error)
	GetProductByID(id int64) (*models.Product, error) // includes variants
	GetProductByItemNumber(itemNumber string) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error) // products, total count, error
	UpdateProduct(executor SQLExecutor, product *models.Product) error
	DeleteProduct(executor SQLExecutor, id int64) error // refused while bill items reference the product
	CountProducts() (int, error)

	// Variant methods
	CreateVariant(executor SQLExecutor, variant *models.ProductVariant) (int64, error)
	GetVariantsByProductID(productID int64) ([]models.ProductVariant, error)
	DeleteVariantsByProductID(executor SQLExecutor, productID int64) (int64, error)

	// Stock methods. Decrements are conditional: they match zero rows when the
	// remaining stock is smaller than the quantity, which is surfaced as
	// ErrInsufficientStock.
	DecrementStock(executor SQLExecutor, productID int64, quantity int) (int, error)
	DecrementVariantStock(executor SQLExecutor, variantID int64, quantity int) (int, error)
	AddStock(executor SQLExecutor, productID int64, variantID *int64, quantity int) (int, error)
}

type productRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new instance of ProductRepository.
func NewProductRepository(db *sql.DB) ProductRepository {
	return &productRepository{db: db}
}

// --- Product Methods ---

func (r *productRepository) CreateProduct(executor SQLExecutor, product *models.Product) (int64, error) {
	query := `INSERT INTO products
	            (name, brand, category, description, color, item_number, price, buying_price,
	             discount_percentage, image, tracks_variants, stock, low_stock_threshold,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`
	currentTime := time.Now()

	err := executor.QueryRow(query,
		product.Name, product.Brand, product.Category, product.Description, product.Color,
		product.ItemNumber, product.Price, product.BuyingPrice, product.DiscountPercentage,
		product.Image, product.TracksVariants, product.Stock, product.LowStockThreshold,
		currentTime, currentTime,
	).Scan(&product.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return 0, fmt.Errorf("%w: item number '%s' already exists (constraint: %s)", ErrDuplicateKey, product.ItemNumber, pqErr.Constraint)
		}
		return 0, fmt.Errorf("%w: creating product: %v", ErrDatabaseError, err)
	}
	product.CreatedAt = currentTime
	product.UpdatedAt = currentTime
	return product.ID, nil
}

func (r *productRepository) GetProductByID(id int64) (*models.Product, error) {
	product := &models.Product{}
	query := `SELECT id, name, brand, category, description, color, item_number, price,
	                 buying_price, discount_percentage, image, tracks_variants, stock,
	                 low_stock_threshold, created_at, updated_at
	          FROM products
	          WHERE id = $1`
	err := r.db.QueryRow(query, id).Scan(
		&product.ID, &product.Name, &product.Brand, &product.Category, &product.Description,
		&product.Color, &product.ItemNumber, &product.Price, &product.BuyingPrice,
		&product.DiscountPercentage, &product.Image, &product.TracksVariants, &product.Stock,
		&product.LowStockThreshold, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by ID %d: %v", ErrDatabaseError, id, err)
	}

	if product.TracksVariants {
		variants, err := r.GetVariantsByProductID(id)
		if err != nil {
			return nil, err
		}
		product.Variants = variants
	}
	return product, nil
}

func (r *productRepository) GetProductByItemNumber(itemNumber string) (*models.Product, error) {
	var id int64
	err := r.db.QueryRow(`SELECT id FROM products WHERE item_number = $1`, itemNumber).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting product by item number %s: %v", ErrDatabaseError, itemNumber, err)
	}
	return r.GetProductByID(id)
}

func (r *productRepository) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    id, name, brand, category, description, color, item_number, price,
	    buying_price, discount_percentage, image, tracks_variants, stock,
	    low_stock_threshold, created_at, updated_at,
	    COUNT(*) OVER() AS total_count
	  FROM products`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.Category != nil && *filters.Category != "" {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argCount))
		args = append(args, *filters.Category)
		argCount++
	}
	if filters.Brand != nil && *filters.Brand != "" {
		conditions = append(conditions, fmt.Sprintf("brand = $%d", argCount))
		args = append(args, *filters.Brand)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR item_number ILIKE $%d)", argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY name ASC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, filters.PageSize)
		argCount++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying products: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var variantProductIDs []int64
	for rows.Next() {
		var p models.Product
		err := rows.Scan(
			&p.ID, &p.Name, &p.Brand, &p.Category, &p.Description, &p.Color, &p.ItemNumber,
			&p.Price, &p.BuyingPrice, &p.DiscountPercentage, &p.Image, &p.TracksVariants,
			&p.Stock, &p.LowStockThreshold, &p.CreatedAt, &p.UpdatedAt,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning product: %v", ErrDatabaseError, err)
		}
		if p.TracksVariants {
			variantProductIDs = append(variantProductIDs, p.ID)
		}
		products = append(products, p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating product rows: %v", ErrDatabaseError, err)
	}

	if len(variantProductIDs) > 0 {
		variantsByProduct, err := r.getVariantsForProducts(variantProductIDs)
		if err != nil {
			return nil, 0, err
		}
		for i := range products {
			if products[i].TracksVariants {
				products[i].Variants = variantsByProduct[products[i].ID]
			}
		}
	}
	return products, totalCount, nil
}

func (r *productRepository) UpdateProduct(executor SQLExecutor, product *models.Product) error {
	query := `UPDATE products SET
	            name = $1, brand = $2, category = $3, description = $4, color = $5,
	            item_number = $6, price = $7, buying_price = $8, discount_percentage = $9,
	            image = $10, tracks_variants = $11, stock = $12, low_stock_threshold = $13,
	            updated_at = $14
	          WHERE id = $15`
	result, err := executor.Exec(query,
		product.Name, product.Brand, product.Category, product.Description, product.Color,
		product.ItemNumber, product.Price, product.BuyingPrice, product.DiscountPercentage,
		product.Image, product.TracksVariants, product.Stock, product.LowStockThreshold,
		time.Now(), product.ID,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("%w: item number '%s' already exists (constraint: %s)", ErrDuplicateKey, product.ItemNumber, pqErr.Constraint)
		}
		return fmt.Errorf("%w: updating product ID %d: %v", ErrDatabaseError, product.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) DeleteProduct(executor SQLExecutor, id int64) error {
	// Refuse the delete while any bill item references the product. Historical
	// bills denormalize the product fields they display, but the foreign key
	// still points here.
	var count int
	checkQuery := `SELECT COUNT(*) FROM bill_items WHERE product_id = $1`
	err := executor.QueryRow(checkQuery, id).Scan(&count)
	if err != nil {
		return fmt.Errorf("%w: checking bill item references for product %d: %v", ErrDatabaseError, id, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: product ID %d is referenced by %d bill item(s)", ErrReferencedByBills, id, count)
	}

	if _, err := r.DeleteVariantsByProductID(executor, id); err != nil {
		return err
	}

	query := `DELETE FROM products WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting product ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepository) CountProducts() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%w: counting products: %v", ErrDatabaseError, err)
	}
	return count, nil
}

// --- Variant Methods ---

func (r *productRepository) CreateVariant(executor SQLExecutor, variant *models.ProductVariant) (int64, error) {
	query := `INSERT INTO product_variants (product_id, label, stock, low_stock_threshold, updated_at)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`
	err := executor.QueryRow(query,
		variant.ProductID, variant.Label, variant.Stock, variant.LowStockThreshold, time.Now(),
	).Scan(&variant.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: variant '%s' already exists for product %d (constraint: %s)", ErrDuplicateKey, variant.Label, variant.ProductID, pqErr.Constraint)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return 0, fmt.Errorf("%w: invalid product_id %d (constraint: %s)", ErrDatabaseError, variant.ProductID, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating product variant: %v", ErrDatabaseError, err)
	}
	return variant.ID, nil
}

func (r *productRepository) GetVariantsByProductID(productID int64) ([]models.ProductVariant, error) {
	variants := []models.ProductVariant{}
	query := `SELECT id, product_id, label, stock, low_stock_threshold, updated_at
	          FROM product_variants
	          WHERE product_id = $1
	          ORDER BY id`
	rows, err := r.db.Query(query, productID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying variants for product %d: %v", ErrDatabaseError, productID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.ProductVariant
		var threshold sql.NullInt64
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Label, &v.Stock, &threshold, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning variant for product %d: %v", ErrDatabaseError, productID, err)
		}
		if threshold.Valid {
			val := int(threshold.Int64)
			v.LowStockThreshold = &val
		}
		variants = append(variants, v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating variant rows for product %d: %v", ErrDatabaseError, productID, err)
	}
	return variants, nil
}

func (r *productRepository) getVariantsForProducts(productIDs []int64) (map[int64][]models.ProductVariant, error) {
	byProduct := make(map[int64][]models.ProductVariant, len(productIDs))
	query := `SELECT id, product_id, label, stock, low_stock_threshold, updated_at
	          FROM product_variants
	          WHERE product_id = ANY($1)
	          ORDER BY product_id, id`
	rows, err := r.db.Query(query, pq.Array(productIDs))
	if err != nil {
		return nil, fmt.Errorf("%w: querying variants: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var v models.ProductVariant
		var threshold sql.NullInt64
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Label, &v.Stock, &threshold, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning variant: %v", ErrDatabaseError, err)
		}
		if threshold.Valid {
			val := int(threshold.Int64)
			v.LowStockThreshold = &val
		}
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating variant rows: %v", ErrDatabaseError, err)
	}
	return byProduct, nil
}

func (r *productRepository) DeleteVariantsByProductID(executor SQLExecutor, productID int64) (int64, error) {
	result, err := executor.Exec(`DELETE FROM product_variants WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting variants for product %d: %v", ErrDatabaseError, productID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for variant delete of product %d: %v", ErrDatabaseError, productID, err)
	}
	return rowsAffected, nil
}

// --- Stock Methods ---

// DecrementStock subtracts quantity from a plain-stock product. The WHERE
// clause doubles as the concurrency guard: two racing checkouts cannot both
// succeed past the remaining stock, because the second UPDATE matches no rows.
func (r *productRepository) DecrementStock(executor SQLExecutor, productID int64, quantity int) (int, error) {
	var newStock int
	query := `UPDATE products
	          SET stock = stock - $1, updated_at = $2
	          WHERE id = $3 AND tracks_variants = FALSE AND stock >= $1
	          RETURNING stock`
	err := executor.QueryRow(query, quantity, time.Now(), productID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			checkErr := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM products WHERE id = $1)`, productID).Scan(&exists)
			if checkErr == nil && !exists {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("%w: product ID %d, requested %d", ErrInsufficientStock, productID, quantity)
		}
		return 0, fmt.Errorf("%w: decrementing stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return newStock, nil
}

// DecrementVariantStock is the variant-row counterpart of DecrementStock.
func (r *productRepository) DecrementVariantStock(executor SQLExecutor, variantID int64, quantity int) (int, error) {
	var newStock int
	query := `UPDATE product_variants
	          SET stock = stock - $1, updated_at = $2
	          WHERE id = $3 AND stock >= $1
	          RETURNING stock`
	err := executor.QueryRow(query, quantity, time.Now(), variantID).Scan(&newStock)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			checkErr := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM product_variants WHERE id = $1)`, variantID).Scan(&exists)
			if checkErr == nil && !exists {
				return 0, ErrNotFound
			}
			return 0, fmt.Errorf("%w: variant ID %d, requested %d", ErrInsufficientStock, variantID, quantity)
		}
		return 0, fmt.Errorf("%w: decrementing stock for variant ID %d: %v", ErrDatabaseError, variantID, err)
	}
	return newStock, nil
}

// AddStock increases the counter on the product row or, when variantID is
// given, on the variant row. Used for restocks and cancellation returns.
func (r *productRepository) AddStock(executor SQLExecutor, productID int64, variantID *int64, quantity int) (int, error) {
	var newStock int
	var err error
	if variantID != nil {
		query := `UPDATE product_variants
		          SET stock = stock + $1, updated_at = $2
		          WHERE id = $3 AND product_id = $4
		          RETURNING stock`
		err = executor.QueryRow(query, quantity, time.Now(), *variantID, productID).Scan(&newStock)
	} else {
		query := `UPDATE products
		          SET stock = stock + $1, updated_at = $2
		          WHERE id = $3 AND tracks_variants = FALSE
		          RETURNING stock`
		err = executor.QueryRow(query, quantity, time.Now(), productID).Scan(&newStock)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("%w: adding stock for product ID %d: %v", ErrDatabaseError, productID, err)
	}
	return newStock, nil
}
