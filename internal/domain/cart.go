package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Cart struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Owner       string             `bson:"owner" json:"owner"`
	Items       []CartItem         `bson:"items" json:"items"`
	TotalAmount float64            `bson:"total_amount" json:"totalAmount"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}

type CartItem struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	ProductID primitive.ObjectID `bson:"product" json:"productId"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Variant   string             `bson:"variant,omitempty" json:"variant,omitempty"`
	Price     float64            `bson:"price" json:"price"`
}

// FindItem returns the index of the line with the given id, or -1.
func (c *Cart) FindItem(itemID primitive.ObjectID) int {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return i
		}
	}
	return -1
}

// FindLine returns the index of the line for (product, variant), or -1.
func (c *Cart) FindLine(productID primitive.ObjectID, variant string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID && c.Items[i].Variant == variant {
			return i
		}
	}
	return -1
}

// Recalculate refreshes the denormalized TotalAmount from Items.
func (c *Cart) Recalculate() {
	c.TotalAmount = CartTotal(c.Items)
}

// ItemCount is the sum of quantities across all lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}

// CartView is a cart with product details expanded for display.
type CartView struct {
	ID          string         `json:"id,omitempty"`
	Owner       string         `json:"owner,omitempty"`
	Items       []CartItemView `json:"items"`
	TotalAmount float64        `json:"totalAmount"`
	CreatedAt   *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}

type CartItemView struct {
	ID       string          `json:"id"`
	Product  *ProductSummary `json:"product"`
	Quantity int             `json:"quantity"`
	Variant  string          `json:"variant,omitempty"`
	Price    float64         `json:"price"`
}

// EmptyCartView is returned for owners that never created a cart.
func EmptyCartView() *CartView {
	return &CartView{Items: []CartItemView{}, TotalAmount: 0}
}

// NewCartView expands cart lines with the products found in the catalog.
// Lines whose product is missing keep a summary with only the id.
func NewCartView(c *Cart, products map[primitive.ObjectID]*Product) *CartView {
	created, updated := c.CreatedAt, c.UpdatedAt
	view := &CartView{
		ID:          c.ID.Hex(),
		Owner:       c.Owner,
		Items:       make([]CartItemView, 0, len(c.Items)),
		TotalAmount: c.TotalAmount,
		CreatedAt:   &created,
		UpdatedAt:   &updated,
	}
	for _, item := range c.Items {
		summary := &ProductSummary{ID: item.ProductID.Hex()}
		if p, ok := products[item.ProductID]; ok {
			summary = p.Summary()
		}
		view.Items = append(view.Items, CartItemView{
			ID:       item.ID.Hex(),
			Product:  summary,
			Quantity: item.Quantity,
			Variant:  item.Variant,
			Price:    item.Price,
		})
	}
	return view
}
