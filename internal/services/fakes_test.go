package services

import (
	"fmt"
	"time"

	"retail_pos_backend/internal/models"
	"retail_pos_backend/internal/repositories"
)

// In-memory repository fakes shared by the service tests. They ignore the
// SQLExecutor argument; transaction boundaries are asserted with sqlmock on
// the *sql.DB the services hold.

type fakeProductRepo struct {
	products      map[int64]*models.Product
	nextID        int64
	nextVariantID int64
	billRefs      map[int64]int // productID -> referencing bill item count
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{
		products: make(map[int64]*models.Product),
		billRefs: make(map[int64]int),
	}
}

func (f *fakeProductRepo) addProduct(p models.Product) *models.Product {
	f.nextID++
	p.ID = f.nextID
	for i := range p.Variants {
		f.nextVariantID++
		p.Variants[i].ID = f.nextVariantID
		p.Variants[i].ProductID = p.ID
	}
	f.products[p.ID] = &p
	return &p
}

func copyProduct(p *models.Product) *models.Product {
	cp := *p
	cp.Variants = append([]models.ProductVariant(nil), p.Variants...)
	return &cp
}

func (f *fakeProductRepo) CreateProduct(_ repositories.SQLExecutor, product *models.Product) (int64, error) {
	for _, p := range f.products {
		if p.ItemNumber == product.ItemNumber {
			return 0, fmt.Errorf("%w: item number '%s'", repositories.ErrDuplicateKey, product.ItemNumber)
		}
	}
	f.nextID++
	product.ID = f.nextID
	stored := *product
	f.products[product.ID] = &stored
	return product.ID, nil
}

func (f *fakeProductRepo) GetProductByID(id int64) (*models.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return copyProduct(p), nil
}

func (f *fakeProductRepo) GetProductByItemNumber(itemNumber string) (*models.Product, error) {
	for _, p := range f.products {
		if p.ItemNumber == itemNumber {
			return copyProduct(p), nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (f *fakeProductRepo) GetProducts(_ models.ProductFilters) ([]models.Product, int, error) {
	products := []models.Product{}
	for _, p := range f.products {
		products = append(products, *copyProduct(p))
	}
	return products, len(products), nil
}

func (f *fakeProductRepo) UpdateProduct(_ repositories.SQLExecutor, product *models.Product) error {
	existing, ok := f.products[product.ID]
	if !ok {
		return repositories.ErrNotFound
	}
	variants := existing.Variants
	stored := *product
	stored.Variants = variants
	f.products[product.ID] = &stored
	return nil
}

func (f *fakeProductRepo) DeleteProduct(_ repositories.SQLExecutor, id int64) error {
	if _, ok := f.products[id]; !ok {
		return repositories.ErrNotFound
	}
	if f.billRefs[id] > 0 {
		return fmt.Errorf("%w: product ID %d", repositories.ErrReferencedByBills, id)
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) CountProducts() (int, error) {
	return len(f.products), nil
}

func (f *fakeProductRepo) CreateVariant(_ repositories.SQLExecutor, variant *models.ProductVariant) (int64, error) {
	p, ok := f.products[variant.ProductID]
	if !ok {
		return 0, repositories.ErrDatabaseError
	}
	f.nextVariantID++
	variant.ID = f.nextVariantID
	p.Variants = append(p.Variants, *variant)
	p.TracksVariants = true
	return variant.ID, nil
}

func (f *fakeProductRepo) GetVariantsByProductID(productID int64) ([]models.ProductVariant, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return append([]models.ProductVariant(nil), p.Variants...), nil
}

func (f *fakeProductRepo) DeleteVariantsByProductID(_ repositories.SQLExecutor, productID int64) (int64, error) {
	p, ok := f.products[productID]
	if !ok {
		return 0, nil
	}
	count := int64(len(p.Variants))
	p.Variants = nil
	return count, nil
}

func (f *fakeProductRepo) DecrementStock(_ repositories.SQLExecutor, productID int64, quantity int) (int, error) {
	p, ok := f.products[productID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if p.Stock < quantity {
		return 0, fmt.Errorf("%w: product ID %d", repositories.ErrInsufficientStock, productID)
	}
	p.Stock -= quantity
	return p.Stock, nil
}

func (f *fakeProductRepo) DecrementVariantStock(_ repositories.SQLExecutor, variantID int64, quantity int) (int, error) {
	for _, p := range f.products {
		for i := range p.Variants {
			if p.Variants[i].ID == variantID {
				if p.Variants[i].Stock < quantity {
					return 0, fmt.Errorf("%w: variant ID %d", repositories.ErrInsufficientStock, variantID)
				}
				p.Variants[i].Stock -= quantity
				return p.Variants[i].Stock, nil
			}
		}
	}
	return 0, repositories.ErrNotFound
}

func (f *fakeProductRepo) AddStock(_ repositories.SQLExecutor, productID int64, variantID *int64, quantity int) (int, error) {
	p, ok := f.products[productID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	if variantID != nil {
		for i := range p.Variants {
			if p.Variants[i].ID == *variantID {
				p.Variants[i].Stock += quantity
				return p.Variants[i].Stock, nil
			}
		}
		return 0, repositories.ErrNotFound
	}
	p.Stock += quantity
	return p.Stock, nil
}

type fakeBillRepo struct {
	bills         map[int64]*models.Bill
	items         map[int64][]models.BillItem
	nextID        int64
	salesRows     []models.SalesRow
	createBillErr error
}

func newFakeBillRepo() *fakeBillRepo {
	return &fakeBillRepo{
		bills: make(map[int64]*models.Bill),
		items: make(map[int64][]models.BillItem),
	}
}

func (f *fakeBillRepo) CreateBill(_ repositories.SQLExecutor, bill *models.Bill) (int64, error) {
	if f.createBillErr != nil {
		return 0, f.createBillErr
	}
	f.nextID++
	bill.ID = f.nextID
	stored := *bill
	f.bills[bill.ID] = &stored
	return bill.ID, nil
}

func (f *fakeBillRepo) GetBillByID(billID int64) (*models.Bill, error) {
	b, ok := f.bills[billID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBillRepo) GetBills(_ models.BillFilters) ([]models.Bill, int, error) {
	bills := []models.Bill{}
	for _, b := range f.bills {
		bills = append(bills, *b)
	}
	return bills, len(bills), nil
}

func (f *fakeBillRepo) UpdateBillStatus(_ repositories.SQLExecutor, billID int64, newStatus string, updatedAt time.Time) error {
	b, ok := f.bills[billID]
	if !ok {
		return repositories.ErrNotFound
	}
	b.Status = newStatus
	b.UpdatedAt = updatedAt
	return nil
}

func (f *fakeBillRepo) DeleteBill(_ repositories.SQLExecutor, billID int64) (int64, error) {
	if _, ok := f.bills[billID]; !ok {
		return 0, repositories.ErrNotFound
	}
	delete(f.bills, billID)
	return 1, nil
}

func (f *fakeBillRepo) CreateBillItem(_ repositories.SQLExecutor, item *models.BillItem) (int64, error) {
	f.nextID++
	item.ID = f.nextID
	f.items[item.BillID] = append(f.items[item.BillID], *item)
	return item.ID, nil
}

func (f *fakeBillRepo) GetBillItemsByBillID(billID int64) ([]models.BillItem, error) {
	return append([]models.BillItem(nil), f.items[billID]...), nil
}

func (f *fakeBillRepo) DeleteBillItemsByBillID(_ repositories.SQLExecutor, billID int64) (int64, error) {
	count := int64(len(f.items[billID]))
	delete(f.items, billID)
	return count, nil
}

func (f *fakeBillRepo) GetSalesRows(from, to *time.Time) ([]models.SalesRow, error) {
	rows := []models.SalesRow{}
	for _, r := range f.salesRows {
		if from != nil && r.BillCreatedAt.Before(*from) {
			continue
		}
		if to != nil && r.BillCreatedAt.After(*to) {
			continue
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func (f *fakeBillRepo) SumCompletedTotals(from, to *time.Time) (float64, error) {
	var total float64
	for _, b := range f.bills {
		if b.Status != BillStatusCompleted {
			continue
		}
		if from != nil && b.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && b.CreatedAt.After(*to) {
			continue
		}
		total += b.Total
	}
	return total, nil
}

type fakeMovementRepo struct {
	movements []models.StockMovement
	nextID    int64
}

func newFakeMovementRepo() *fakeMovementRepo {
	return &fakeMovementRepo{}
}

func (f *fakeMovementRepo) CreateMovement(_ repositories.SQLExecutor, movement *models.StockMovement) (int64, error) {
	f.nextID++
	movement.ID = f.nextID
	f.movements = append(f.movements, *movement)
	return movement.ID, nil
}

func (f *fakeMovementRepo) GetMovements(_ models.StockMovementFilters) ([]models.StockMovement, int, error) {
	return append([]models.StockMovement(nil), f.movements...), len(f.movements), nil
}
