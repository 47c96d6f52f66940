package services

import (
	"database/sql"
	"errors"
	"fmt"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
)

// Custom Errors
var (
	ErrValidation        = errors.New("validation failed")
	ErrProductNotFound   = errors.New("product not found")
	ErrVariantNotFound   = errors.New("product variant not found")
	ErrItemNumberExists  = errors.New("item number already exists")
	ErrProductReferenced = errors.New("product cannot be deleted while bills reference it")
)

// --- Data Transfer Objects (DTOs) ---

// VariantRequest describes one size row when creating or updating a product.
type VariantRequest struct {
	Label             string `json:"label" binding:"required"`
	Stock             int    `json:"stock" binding:"gte=0"`
	LowStockThreshold *int   `json:"low_stock_threshold"`
}

// CreateProductRequest is used for catalog entry.
type CreateProductRequest struct {
	Name               string           `json:"name" binding:"required"`
	Brand              string           `json:"brand" binding:"required"`
	Category           string           `json:"category" binding:"required"`
	Description        string           `json:"description"`
	Color              string           `json:"color"`
	ItemNumber         string           `json:"item_number" binding:"required"`
	Price              float64          `json:"price" binding:"required,gt=0"`
	BuyingPrice        float64          `json:"buying_price" binding:"gte=0"`
	DiscountPercentage float64          `json:"discount_percentage" binding:"gte=0,lte=100"`
	Image              string           `json:"image"`
	Stock              int              `json:"stock" binding:"gte=0"`
	LowStockThreshold  int              `json:"low_stock_threshold" binding:"gte=0"`
	Variants           []VariantRequest `json:"variants"`
}

// UpdateProductRequest mirrors CreateProductRequest for edits.
type UpdateProductRequest = CreateProductRequest

// RestockRequest adds stock to a product or one of its variants.
type RestockRequest struct {
	VariantID *int64 `json:"variant_id"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
	Reason    string `json:"reason"`
}

// --- ProductService Interface ---
type ProductService interface {
	CreateProduct(req CreateProductRequest) (*models.Product, error)
	GetProducts(filters models.ProductFilters) ([]models.Product, int, error)
	GetProductByID(productID int64) (*models.Product, error)
	UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error)
	DeleteProduct(productID int64) error
	Restock(productID int64, userID int64, req RestockRequest) (*models.Product, error)
	GetLowStockProducts() ([]models.Product, error)
}

// --- productService Implementation ---
type productService struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.StockMovementRepository
	db           *sql.DB // For managing transactions
}

// NewProductService creates a new instance of ProductService.
func NewProductService(pr repositories.ProductRepository, smr repositories.StockMovementRepository, db *sql.DB) ProductService {
	return &productService{productRepo: pr, movementRepo: smr, db: db}
}

func (s *productService) CreateProduct(req CreateProductRequest) (*models.Product, error) {
	// Duplicate item numbers are also caught by the unique constraint; the
	// explicit check exists to return the domain error before opening a tx.
	if _, err := s.productRepo.GetProductByItemNumber(req.ItemNumber); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrItemNumberExists, req.ItemNumber)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check item number uniqueness: %w", err)
	}

	product := models.Product{
		Name:               req.Name,
		Brand:              req.Brand,
		Category:           req.Category,
		Description:        models.NewNullString(req.Description),
		Color:              models.NewNullString(req.Color),
		ItemNumber:         req.ItemNumber,
		Price:              req.Price,
		BuyingPrice:        req.BuyingPrice,
		DiscountPercentage: req.DiscountPercentage,
		Image:              models.NewNullString(req.Image),
		TracksVariants:     len(req.Variants) > 0,
		Stock:              req.Stock,
		LowStockThreshold:  req.LowStockThreshold,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	productID, err := s.productRepo.CreateProduct(tx, &product)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrItemNumberExists, req.ItemNumber)
		}
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	for _, vReq := range req.Variants {
		variant := models.ProductVariant{
			ProductID:         productID,
			Label:             vReq.Label,
			Stock:             vReq.Stock,
			LowStockThreshold: vReq.LowStockThreshold,
		}
		if _, err := s.productRepo.CreateVariant(tx, &variant); err != nil {
			return nil, fmt.Errorf("failed to create variant '%s': %w", vReq.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product creation: %w", err)
	}
	return s.GetProductByID(productID)
}

func (s *productService) GetProducts(filters models.ProductFilters) ([]models.Product, int, error) {
	products, totalCount, err := s.productRepo.GetProducts(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get products: %w", err)
	}
	for i := range products {
		products[i].StockStatus = ClassifyStock(&products[i])
	}
	return products, totalCount, nil
}

func (s *productService) GetProductByID(productID int64) (*models.Product, error) {
	product, err := s.productRepo.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product by ID: %w", err)
	}
	product.StockStatus = ClassifyStock(product)
	return product, nil
}

func (s *productService) UpdateProduct(productID int64, req UpdateProductRequest) (*models.Product, error) {
	existing, err := s.productRepo.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product for update: %w", err)
	}

	if req.ItemNumber != existing.ItemNumber {
		if _, err := s.productRepo.GetProductByItemNumber(req.ItemNumber); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrItemNumberExists, req.ItemNumber)
		} else if !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check item number uniqueness: %w", err)
		}
	}

	existing.Name = req.Name
	existing.Brand = req.Brand
	existing.Category = req.Category
	existing.Description = models.NewNullString(req.Description)
	existing.Color = models.NewNullString(req.Color)
	existing.ItemNumber = req.ItemNumber
	existing.Price = req.Price
	existing.BuyingPrice = req.BuyingPrice
	existing.DiscountPercentage = req.DiscountPercentage
	existing.Image = models.NewNullString(req.Image)
	existing.TracksVariants = len(req.Variants) > 0
	existing.Stock = req.Stock
	existing.LowStockThreshold = req.LowStockThreshold

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productRepo.UpdateProduct(tx, existing); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrItemNumberExists, req.ItemNumber)
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	// Variant rows are replaced wholesale on edit. Bill items denormalize the
	// variant label and their variant_id FK is ON DELETE SET NULL, so dropping
	// and recreating variant rows does not disturb old bills.
	if _, err := s.productRepo.DeleteVariantsByProductID(tx, productID); err != nil {
		return nil, fmt.Errorf("failed to replace variants: %w", err)
	}
	for _, vReq := range req.Variants {
		variant := models.ProductVariant{
			ProductID:         productID,
			Label:             vReq.Label,
			Stock:             vReq.Stock,
			LowStockThreshold: vReq.LowStockThreshold,
		}
		if _, err := s.productRepo.CreateVariant(tx, &variant); err != nil {
			return nil, fmt.Errorf("failed to create variant '%s': %w", vReq.Label, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit product update: %w", err)
	}
	return s.GetProductByID(productID)
}

func (s *productService) DeleteProduct(productID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.productRepo.DeleteProduct(tx, productID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrProductNotFound
		}
		if errors.Is(err, repositories.ErrReferencedByBills) {
			return fmt.Errorf("%w: %v", ErrProductReferenced, err)
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return tx.Commit()
}

func (s *productService) Restock(productID int64, userID int64, req RestockRequest) (*models.Product, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: restock quantity must be positive", ErrValidation)
	}

	product, err := s.productRepo.GetProductByID(productID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product for restock: %w", err)
	}
	if product.TracksVariants {
		if req.VariantID == nil {
			return nil, fmt.Errorf("%w: variant_id is required for a variant product", ErrValidation)
		}
		if product.FindVariant(*req.VariantID) == nil {
			return nil, ErrVariantNotFound
		}
	} else if req.VariantID != nil {
		return nil, fmt.Errorf("%w: product %d does not track variants", ErrValidation, productID)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := s.productRepo.AddStock(tx, productID, req.VariantID, req.Quantity); err != nil {
		return nil, fmt.Errorf("failed to add stock: %w", err)
	}

	reason := req.Reason
	if reason == "" {
		reason = "Manual restock"
	}
	movement := models.StockMovement{
		ProductID:       productID,
		VariantID:       req.VariantID,
		UserID:          &userID,
		MovementType:    models.MovementTypeRestock,
		QuantityChanged: req.Quantity,
		Reason:          models.NewNullString(reason),
	}
	if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
		return nil, fmt.Errorf("failed to record restock movement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit restock: %w", err)
	}
	return s.GetProductByID(productID)
}

func (s *productService) GetLowStockProducts() ([]models.Product, error) {
	products, _, err := s.productRepo.GetProducts(models.ProductFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to get products for low stock listing: %w", err)
	}
	lowStock := []models.Product{}
	for i := range products {
		status := ClassifyStock(&products[i])
		if status == models.StockStatusLowStock || status == models.StockStatusOutOfStock {
			products[i].StockStatus = status
			lowStock = append(lowStock, products[i])
		}
	}
	return lowStock, nil
}
