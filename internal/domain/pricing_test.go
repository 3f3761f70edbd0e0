package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestNewPricing(t *testing.T) {
	items := []OrderItem{
		{ProductID: primitive.NewObjectID(), Price: 10, Quantity: 2},
		{ProductID: primitive.NewObjectID(), Price: 5, Quantity: 1},
	}

	p := NewPricing(items, 5, 2)

	assert.Equal(t, 25.0, p.Subtotal)
	assert.Equal(t, 5.0, p.Shipping)
	assert.Equal(t, 2.0, p.Discount)
	assert.Equal(t, 28.0, p.Total)
}

func TestCartTotal_Empty(t *testing.T) {
	assert.Equal(t, 0.0, CartTotal(nil))
}

func TestCart_FindLineMatchesVariant(t *testing.T) {
	productID := primitive.NewObjectID()
	cart := &Cart{Items: []CartItem{
		{ID: primitive.NewObjectID(), ProductID: productID, Quantity: 1, Price: 3},
		{ID: primitive.NewObjectID(), ProductID: productID, Variant: "red", Quantity: 2, Price: 4},
	}}

	assert.Equal(t, 0, cart.FindLine(productID, ""))
	assert.Equal(t, 1, cart.FindLine(productID, "red"))
	assert.Equal(t, -1, cart.FindLine(productID, "blue"))
	assert.Equal(t, -1, cart.FindItem(primitive.NewObjectID()))
	assert.Equal(t, 1, cart.FindItem(cart.Items[1].ID))

	cart.Recalculate()
	assert.Equal(t, 11.0, cart.TotalAmount)
	assert.Equal(t, 3, cart.ItemCount())
}

func TestCart_CloneDoesNotShareItems(t *testing.T) {
	cart := &Cart{Owner: "u1", Items: []CartItem{{Quantity: 1}}}

	cp := cart.Clone()
	cp.Items[0].Quantity = 5

	assert.Equal(t, 1, cart.Items[0].Quantity)
}

func TestNewCartView_MissingProductKeepsID(t *testing.T) {
	known := &Product{ID: primitive.NewObjectID(), Name: "Mug", Price: 7}
	gone := primitive.NewObjectID()
	cart := &Cart{
		ID: primitive.NewObjectID(),
		Items: []CartItem{
			{ID: primitive.NewObjectID(), ProductID: known.ID, Quantity: 1, Price: 7},
			{ID: primitive.NewObjectID(), ProductID: gone, Quantity: 1, Price: 2},
		},
	}

	view := NewCartView(cart, map[primitive.ObjectID]*Product{known.ID: known})

	assert.Len(t, view.Items, 2)
	assert.Equal(t, "Mug", view.Items[0].Product.Name)
	assert.Equal(t, gone.Hex(), view.Items[1].Product.ID)
	assert.Empty(t, view.Items[1].Product.Name)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)

	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)

	p = NewPagination(1, 10, 0)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasNextPage)
	assert.False(t, p.HasPrevPage)
}
