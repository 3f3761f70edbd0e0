package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Price     float64            `bson:"price" json:"price"`
}

type Pricing struct {
	Subtotal float64 `bson:"subtotal" json:"subtotal"`
	Shipping float64 `bson:"shipping" json:"shipping"`
	Discount float64 `bson:"discount" json:"discount"`
	Total    float64 `bson:"total" json:"total"`
}

type ShippingAddress struct {
	Name         string `bson:"name" json:"name"`
	Phone        string `bson:"phone" json:"phone"`
	AnotherPhone string `bson:"another_phone,omitempty" json:"anotherPhone,omitempty"`
	Address      string `bson:"address" json:"address"`
	City         string `bson:"city" json:"city"`
	State        string `bson:"state" json:"state"`
	ZipCode      string `bson:"zip_code,omitempty" json:"zipCode,omitempty"`
}

type StatusEntry struct {
	Status OrderStatus `bson:"status" json:"status"`
	Note   string      `bson:"note,omitempty" json:"note,omitempty"`
	Date   time.Time   `bson:"date" json:"date"`
}

// Order is immutable after creation except for Status, StatusHistory, Notes
// and the outbox marker PublishedAt.
type Order struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OrderNumber     string             `bson:"order_number" json:"orderNumber"`
	FirstName       string             `bson:"first_name" json:"firstName"`
	LastName        string             `bson:"last_name" json:"lastName"`
	Email           string             `bson:"email,omitempty" json:"email,omitempty"`
	Items           []OrderItem        `bson:"items" json:"items"`
	ShippingAddress ShippingAddress    `bson:"shipping_address" json:"shippingAddress"`
	Pricing         Pricing            `bson:"pricing" json:"pricing"`
	Status          OrderStatus        `bson:"status" json:"status"`
	Notes           string             `bson:"notes,omitempty" json:"notes,omitempty"`
	StatusHistory   []StatusEntry      `bson:"status_history" json:"statusHistory"`
	PublishedAt     *time.Time         `bson:"published_at" json:"-"`
	CreatedAt       time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updatedAt"`
}
