package services

import (
	"database/sql"
	"testing"

	"retail_pos_backend/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type productFixture struct {
	svc          ProductService
	productRepo  *fakeProductRepo
	movementRepo *fakeMovementRepo
	db           *sql.DB
	mock         sqlmock.Sqlmock
}

func newProductFixture(t *testing.T) *productFixture {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &productFixture{
		productRepo:  newFakeProductRepo(),
		movementRepo: newFakeMovementRepo(),
		db:           db,
		mock:         mock,
	}
	f.svc = NewProductService(f.productRepo, f.movementRepo, db)
	return f
}

func TestCreateProductPlainStock(t *testing.T) {
	f := newProductFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	product, err := f.svc.CreateProduct(CreateProductRequest{
		Name:              "Sneaker",
		Brand:             "Acme",
		Category:          "Shoes",
		ItemNumber:        "SKU-001",
		Price:             120,
		BuyingPrice:       70,
		Stock:             8,
		LowStockThreshold: 3,
	})
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	assert.False(t, product.TracksVariants)
	assert.Equal(t, 8, product.Stock)
	assert.Equal(t, models.StockStatusInStock, product.StockStatus)
}

func TestCreateProductWithVariants(t *testing.T) {
	f := newProductFixture(t)
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	product, err := f.svc.CreateProduct(CreateProductRequest{
		Name:       "Shirt",
		Brand:      "Bravo",
		Category:   "Apparel",
		ItemNumber: "SKU-002",
		Price:      60,
		Variants: []VariantRequest{
			{Label: "M", Stock: 3},
			{Label: "L", Stock: 2},
		},
	})
	require.NoError(t, err)

	assert.True(t, product.TracksVariants)
	require.Len(t, product.Variants, 2)
	assert.Equal(t, 5, product.TotalStock())
}

func TestCreateProductDuplicateItemNumber(t *testing.T) {
	f := newProductFixture(t)
	f.productRepo.addProduct(models.Product{Name: "Existing", ItemNumber: "SKU-001"})

	_, err := f.svc.CreateProduct(CreateProductRequest{
		Name:       "Sneaker",
		Brand:      "Acme",
		Category:   "Shoes",
		ItemNumber: "SKU-001",
		Price:      120,
	})
	assert.ErrorIs(t, err, ErrItemNumberExists)
}

func TestUpdateProductMissing(t *testing.T) {
	f := newProductFixture(t)
	_, err := f.svc.UpdateProduct(42, UpdateProductRequest{
		Name: "X", Brand: "Y", Category: "Z", ItemNumber: "SKU-9", Price: 1,
	})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateProductReplacesVariantsAfterSale(t *testing.T) {
	f := newProductFixture(t)
	p := f.productRepo.addProduct(models.Product{
		Name:           "Shirt",
		Brand:          "Bravo",
		Category:       "Apparel",
		ItemNumber:     "SKU-002",
		Price:          60,
		TracksVariants: true,
		Variants:       []models.ProductVariant{{Label: "M", Stock: 3}},
	})
	v := p.Variants[0]

	carts := NewCartService()
	billRepo := newFakeBillRepo()
	billing := NewBillingService(carts, billRepo, f.productRepo, f.movementRepo, f.db)

	_, err := carts.AddItem(1, p, CartVariant{ID: v.ID, Label: v.Label, Stock: v.Stock})
	require.NoError(t, err)

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	bill, err := billing.Checkout(1, CheckoutRequest{PaymentMethod: "cash"})
	require.NoError(t, err)

	// Editing the product after a variant sale replaces the variant rows and
	// leaves the sold bill's denormalized history intact.
	f.mock.ExpectBegin()
	f.mock.ExpectCommit()
	updated, err := f.svc.UpdateProduct(p.ID, UpdateProductRequest{
		Name:       "Shirt",
		Brand:      "Bravo",
		Category:   "Apparel",
		ItemNumber: "SKU-002",
		Price:      65,
		Variants: []VariantRequest{
			{Label: "S", Stock: 4},
			{Label: "M", Stock: 2},
		},
	})
	require.NoError(t, err)
	require.Len(t, updated.Variants, 2)

	items, err := billRepo.GetBillItemsByBillID(bill.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].VariantLabel)
	assert.Equal(t, "M", *items[0].VariantLabel)
}

func TestDeleteProductReferencedByBills(t *testing.T) {
	f := newProductFixture(t)
	p := f.productRepo.addProduct(models.Product{Name: "Sneaker", ItemNumber: "SKU-001"})
	f.productRepo.billRefs[p.ID] = 2

	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	err := f.svc.DeleteProduct(p.ID)
	assert.ErrorIs(t, err, ErrProductReferenced)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestDeleteProduct(t *testing.T) {
	f := newProductFixture(t)
	p := f.productRepo.addProduct(models.Product{Name: "Sneaker", ItemNumber: "SKU-001"})

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	require.NoError(t, f.svc.DeleteProduct(p.ID))

	_, err := f.svc.GetProductByID(p.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestRestockPlainProduct(t *testing.T) {
	f := newProductFixture(t)
	p := f.productRepo.addProduct(models.Product{Name: "Sneaker", ItemNumber: "SKU-001", Stock: 2, LowStockThreshold: 3})

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.Restock(p.ID, 7, RestockRequest{Quantity: 10, Reason: "Weekly delivery"})
	require.NoError(t, err)
	require.NoError(t, f.mock.ExpectationsWereMet())

	assert.Equal(t, 12, updated.Stock)
	assert.Equal(t, models.StockStatusInStock, updated.StockStatus)

	require.Len(t, f.movementRepo.movements, 1)
	mv := f.movementRepo.movements[0]
	assert.Equal(t, models.MovementTypeRestock, mv.MovementType)
	assert.Equal(t, 10, mv.QuantityChanged)
	require.NotNil(t, mv.UserID)
	assert.Equal(t, int64(7), *mv.UserID)
	require.NotNil(t, mv.Reason)
	assert.Equal(t, "Weekly delivery", *mv.Reason)
}

func TestRestockVariantProductRequiresVariantID(t *testing.T) {
	f := newProductFixture(t)
	p := f.productRepo.addProduct(models.Product{
		Name:           "Shirt",
		ItemNumber:     "SKU-002",
		TracksVariants: true,
		Variants:       []models.ProductVariant{{Label: "M", Stock: 1}},
	})

	_, err := f.svc.Restock(p.ID, 1, RestockRequest{Quantity: 5})
	assert.ErrorIs(t, err, ErrValidation)

	unknown := int64(999)
	_, err = f.svc.Restock(p.ID, 1, RestockRequest{Quantity: 5, VariantID: &unknown})
	assert.ErrorIs(t, err, ErrVariantNotFound)
}

func TestRestockVariant(t *testing.T) {
	f := newProductFixture(t)
	p := f.productRepo.addProduct(models.Product{
		Name:           "Shirt",
		ItemNumber:     "SKU-002",
		TracksVariants: true,
		Variants:       []models.ProductVariant{{Label: "M", Stock: 1}},
	})
	variantID := p.Variants[0].ID

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	updated, err := f.svc.Restock(p.ID, 1, RestockRequest{Quantity: 4, VariantID: &variantID})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.Variants[0].Stock)
}

func TestGetLowStockProducts(t *testing.T) {
	f := newProductFixture(t)
	f.productRepo.addProduct(models.Product{Name: "Healthy", ItemNumber: "A", Stock: 10, LowStockThreshold: 3})
	f.productRepo.addProduct(models.Product{Name: "Low", ItemNumber: "B", Stock: 2, LowStockThreshold: 3})
	f.productRepo.addProduct(models.Product{Name: "Empty", ItemNumber: "C", Stock: 0, LowStockThreshold: 3})

	lowStock, err := f.svc.GetLowStockProducts()
	require.NoError(t, err)
	require.Len(t, lowStock, 2)
	for _, p := range lowStock {
		assert.NotEqual(t, models.StockStatusInStock, p.StockStatus)
	}
}

func TestGetProductsComputesStockStatus(t *testing.T) {
	f := newProductFixture(t)
	f.productRepo.addProduct(models.Product{Name: "Healthy", ItemNumber: "A", Stock: 10, LowStockThreshold: 3})

	products, total, err := f.svc.GetProducts(models.ProductFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, models.StockStatusInStock, products[0].StockStatus)
}
