package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"retail_pos_backend/internal/models"
)

// StockMovementRepository defines the interface for stock movement-related database operations.
type StockMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error)
	GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error)
}

type stockMovementRepository struct {
	db *sql.DB
}

// NewStockMovementRepository creates a new instance of StockMovementRepository.
func NewStockMovementRepository(db *sql.DB) StockMovementRepository {
	return &stockMovementRepository{db: db}
}

func (r *stockMovementRepository) CreateMovement(executor SQLExecutor, movement *models.StockMovement) (int64, error) {
	query := `INSERT INTO stock_movements
	          (product_id, variant_id, user_id, movement_type, quantity_changed, reason, movement_date, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`
	currentTime := time.Now()
	if movement.MovementDate.IsZero() {
		movement.MovementDate = currentTime
	}

	var userID sql.NullInt64
	if movement.UserID != nil {
		userID = sql.NullInt64{Int64: *movement.UserID, Valid: true}
	}
	var variantID sql.NullInt64
	if movement.VariantID != nil {
		variantID = sql.NullInt64{Int64: *movement.VariantID, Valid: true}
	}

	err := executor.QueryRow(query,
		movement.ProductID, variantID, userID, movement.MovementType, movement.QuantityChanged,
		movement.Reason, movement.MovementDate, currentTime,
	).Scan(&movement.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating stock movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *stockMovementRepository) GetMovements(filters models.StockMovementFilters) ([]models.StockMovement, int, error) {
	movements := []models.StockMovement{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    sm.id, sm.product_id, sm.variant_id, sm.user_id, sm.movement_type, sm.quantity_changed,
	    sm.reason, sm.movement_date, sm.created_at,
	    p.name as product_name,
	    COUNT(*) OVER() AS total_count
	  FROM stock_movements sm
	  JOIN products p ON sm.product_id = p.id`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if filters.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("sm.product_id = $%d", argCount))
		args = append(args, *filters.ProductID)
		argCount++
	}
	if filters.MovementType != nil && *filters.MovementType != "" {
		conditions = append(conditions, fmt.Sprintf("sm.movement_type = $%d", argCount))
		args = append(args, *filters.MovementType)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE ")
		queryBuilder.WriteString(strings.Join(conditions, " AND "))
	}

	queryBuilder.WriteString(" ORDER BY sm.movement_date DESC, sm.created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting stock movements: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var movement models.StockMovement
		var variantID, userID sql.NullInt64

		if err := rows.Scan(
			&movement.ID, &movement.ProductID, &variantID, &userID, &movement.MovementType,
			&movement.QuantityChanged, &movement.Reason, &movement.MovementDate, &movement.CreatedAt,
			&movement.ProductName,
			&totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning stock movement: %v", ErrDatabaseError, err)
		}
		if variantID.Valid {
			movement.VariantID = &variantID.Int64
		}
		if userID.Valid {
			movement.UserID = &userID.Int64
		}
		movements = append(movements, movement)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating stock movement rows: %v", ErrDatabaseError, err)
	}
	return movements, totalCount, nil
}
