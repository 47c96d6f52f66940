package services

import (
	"sync"
	"testing"

	"retail_pos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProduct(id int64, price, discount float64) *models.Product {
	return &models.Product{
		ID:                 id,
		Name:               "Test Product",
		Price:              price,
		DiscountPercentage: discount,
	}
}

func TestCartAddItemStartsAtOne(t *testing.T) {
	cs := NewCartService()
	cart, err := cs.AddItem(1, testProduct(10, 100, 0), CartVariant{Stock: 5})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestCartAddItemMergesOnProductAndVariant(t *testing.T) {
	cs := NewCartService()
	p := testProduct(10, 100, 0)

	_, err := cs.AddItem(1, p, CartVariant{ID: 7, Label: "M", Stock: 5})
	require.NoError(t, err)
	cart, err := cs.AddItem(1, p, CartVariant{ID: 7, Label: "M", Stock: 5})
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)

	// A different size of the same product is its own entry.
	cart, err = cs.AddItem(1, p, CartVariant{ID: 8, Label: "L", Stock: 5})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 2)
}

func TestCartAddItemRejectsBeyondStockSnapshot(t *testing.T) {
	cs := NewCartService()
	p := testProduct(10, 100, 0)

	_, err := cs.AddItem(1, p, CartVariant{Stock: 2})
	require.NoError(t, err)
	_, err = cs.AddItem(1, p, CartVariant{Stock: 2})
	require.NoError(t, err)

	cart, err := cs.AddItem(1, p, CartVariant{Stock: 2})
	assert.ErrorIs(t, err, ErrMaxStockReached)
	// The rejected add must not mutate the cart.
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestCartUpdateQuantity(t *testing.T) {
	cs := NewCartService()
	p := testProduct(10, 100, 0)
	_, err := cs.AddItem(1, p, CartVariant{Stock: 10})
	require.NoError(t, err)

	cart, err := cs.UpdateQuantity(1, 10, 0, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[0].Quantity)

	// Above the snapshot: rejected, quantity unchanged.
	cart, err = cs.UpdateQuantity(1, 10, 0, 11)
	assert.ErrorIs(t, err, ErrMaxStockReached)
	assert.Equal(t, 7, cart.Items[0].Quantity)

	// Zero removes the entry.
	cart, err = cs.UpdateQuantity(1, 10, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func TestCartUpdateQuantityMissingItem(t *testing.T) {
	cs := NewCartService()
	_, err := cs.UpdateQuantity(1, 99, 0, 3)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartRemoveItem(t *testing.T) {
	cs := NewCartService()
	p1 := testProduct(10, 100, 0)
	p2 := testProduct(11, 50, 0)
	_, err := cs.AddItem(1, p1, CartVariant{Stock: 5})
	require.NoError(t, err)
	_, err = cs.AddItem(1, p2, CartVariant{Stock: 5})
	require.NoError(t, err)

	cart, err := cs.RemoveItem(1, 10, 0)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, int64(11), cart.Items[0].Product.ID)

	_, err = cs.RemoveItem(1, 10, 0)
	assert.ErrorIs(t, err, ErrCartItemNotFound)
}

func TestCartSubtotalAppliesProductDiscount(t *testing.T) {
	cs := NewCartService()
	// 100 with 10% off -> 90 per unit.
	discounted := testProduct(10, 100, 10)
	plain := testProduct(11, 50, 0)

	_, err := cs.AddItem(1, discounted, CartVariant{Stock: 5})
	require.NoError(t, err)
	_, err = cs.AddItem(1, discounted, CartVariant{Stock: 5})
	require.NoError(t, err)
	cart, err := cs.AddItem(1, plain, CartVariant{Stock: 5})
	require.NoError(t, err)

	assert.InDelta(t, 2*90+50, cart.Subtotal(), 0.001)
	assert.InDelta(t, cart.Subtotal(), cart.Total(), 0.001)
}

func TestCartsAreIsolatedPerUser(t *testing.T) {
	cs := NewCartService()
	p := testProduct(10, 100, 0)
	_, err := cs.AddItem(1, p, CartVariant{Stock: 5})
	require.NoError(t, err)

	assert.Empty(t, cs.GetCart(2).Items)

	cs.ClearCart(1)
	assert.Empty(t, cs.GetCart(1).Items)
}

func TestCartSnapshotDoesNotAliasInternalState(t *testing.T) {
	cs := NewCartService()
	p := testProduct(10, 100, 0)
	_, err := cs.AddItem(1, p, CartVariant{Stock: 5})
	require.NoError(t, err)

	snap := cs.GetCart(1)
	snap.Items[0].Quantity = 99

	assert.Equal(t, 1, cs.GetCart(1).Items[0].Quantity)
}

func TestCartConcurrentAdds(t *testing.T) {
	cs := NewCartService()
	p := testProduct(10, 100, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cs.AddItem(1, p, CartVariant{Stock: 100})
		}()
	}
	wg.Wait()

	cart := cs.GetCart(1)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 50, cart.Items[0].Quantity)
}
