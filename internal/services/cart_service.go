package services

import (
	"errors"
	"sync"

	"retail_pos_backend/internal/models"
)

// Custom Errors
var (
	ErrMaxStockReached  = errors.New("maximum stock reached for item")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrCartEmpty        = errors.New("cart is empty")
)

// CartVariant is the stock snapshot captured when an item enters the cart.
// For plain-stock products ID is 0 and Label is empty; the snapshot then
// holds the product-level counter. The snapshot bounds later quantity
// increases without re-querying the store.
type CartVariant struct {
	ID                int64  `json:"id"`
	Label             string `json:"label"`
	Stock             int    `json:"stock"`
	LowStockThreshold int    `json:"low_stock_threshold"`
}

// CartItem is one entry of a cart: a product snapshot, the selected variant
// snapshot and a quantity bounded by the variant's stock at selection time.
type CartItem struct {
	Product  models.Product `json:"product"`
	Variant  CartVariant    `json:"variant"`
	Quantity int            `json:"quantity"`
}

// Cart is an ordered collection of entries. It lives in memory only and is
// destroyed on checkout or explicit clear.
type Cart struct {
	Items []CartItem `json:"items"`
}

// LineTotal is the discounted price of one entry.
func (i *CartItem) LineTotal() float64 {
	return i.Product.Price * (1 - i.Product.DiscountPercentage/100) * float64(i.Quantity)
}

// Subtotal sums the discounted line totals. Discounts here are per-product;
// order-level discount and tax are layered on at checkout.
func (c *Cart) Subtotal() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].LineTotal()
	}
	return total
}

// Total equals the subtotal. Kept as its own method so callers that layer an
// order-level discount or tax have a single place to hook into.
func (c *Cart) Total() float64 {
	return c.Subtotal()
}

func (c *Cart) findItem(productID, variantID int64) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID && c.Items[i].Variant.ID == variantID {
			return i
		}
	}
	return -1
}

// --- CartService Interface ---

// CartService owns the per-user carts. All methods are safe for concurrent
// use; the carts map is guarded by a single mutex since every operation is a
// handful of slice reads.
type CartService interface {
	GetCart(userID int64) *Cart
	AddItem(userID int64, product *models.Product, variant CartVariant) (*Cart, error)
	UpdateQuantity(userID int64, productID, variantID int64, newQuantity int) (*Cart, error)
	RemoveItem(userID int64, productID, variantID int64) (*Cart, error)
	ClearCart(userID int64)
}

type cartService struct {
	mu    sync.Mutex
	carts map[int64]*Cart
}

// NewCartService creates a new instance of CartService.
func NewCartService() CartService {
	return &cartService{carts: make(map[int64]*Cart)}
}

func (s *cartService) cartLocked(userID int64) *Cart {
	cart, ok := s.carts[userID]
	if !ok {
		cart = &Cart{Items: []CartItem{}}
		s.carts[userID] = cart
	}
	return cart
}

// snapshot returns a copy so callers never see the cart mutate under them.
func (s *cartService) snapshot(cart *Cart) *Cart {
	items := make([]CartItem, len(cart.Items))
	copy(items, cart.Items)
	return &Cart{Items: items}
}

func (s *cartService) GetCart(userID int64) *Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot(s.cartLocked(userID))
}

// AddItem merges on (product, variant): an existing entry is incremented by
// one while its quantity stays below the stock snapshot, otherwise the call is
// a no-op rejected with ErrMaxStockReached. A new entry starts at quantity 1.
func (s *cartService) AddItem(userID int64, product *models.Product, variant CartVariant) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)
	if idx := cart.findItem(product.ID, variant.ID); idx >= 0 {
		if cart.Items[idx].Quantity >= cart.Items[idx].Variant.Stock {
			return s.snapshot(cart), ErrMaxStockReached
		}
		cart.Items[idx].Quantity++
		return s.snapshot(cart), nil
	}

	cart.Items = append(cart.Items, CartItem{Product: *product, Variant: variant, Quantity: 1})
	return s.snapshot(cart), nil
}

// UpdateQuantity replaces an entry's quantity. A non-positive quantity removes
// the entry; a quantity above the stock snapshot is rejected without mutation.
func (s *cartService) UpdateQuantity(userID int64, productID, variantID int64, newQuantity int) (*Cart, error) {
	if newQuantity <= 0 {
		return s.RemoveItem(userID, productID, variantID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)
	idx := cart.findItem(productID, variantID)
	if idx < 0 {
		return s.snapshot(cart), ErrCartItemNotFound
	}
	if newQuantity > cart.Items[idx].Variant.Stock {
		return s.snapshot(cart), ErrMaxStockReached
	}
	cart.Items[idx].Quantity = newQuantity
	return s.snapshot(cart), nil
}

func (s *cartService) RemoveItem(userID int64, productID, variantID int64) (*Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cart := s.cartLocked(userID)
	idx := cart.findItem(productID, variantID)
	if idx < 0 {
		return s.snapshot(cart), ErrCartItemNotFound
	}
	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)
	return s.snapshot(cart), nil
}

func (s *cartService) ClearCart(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}
