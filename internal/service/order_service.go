package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type OrderItemInput struct {
	ProductID string  `json:"product" validate:"required"`
	Quantity  int     `json:"quantity" validate:"min=1"`
	Price     float64 `json:"price" validate:"gte=0"`
}

// CreateOrderInput is the checkout payload. Item prices are taken as
// submitted; they are not re-read from the catalog.
type CreateOrderInput struct {
	FirstName    string           `json:"firstName" validate:"required"`
	LastName     string           `json:"lastName" validate:"required"`
	Email        string           `json:"email" validate:"omitempty,email"`
	Items        []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	Shipping     *float64         `json:"shipping" validate:"required,gte=0"`
	Discount     *float64         `json:"discount" validate:"omitempty,gte=0"`
	Phone        string           `json:"phone" validate:"required"`
	AnotherPhone string           `json:"anotherPhone"`
	Address      string           `json:"address" validate:"required"`
	City         string           `json:"city" validate:"required"`
	State        string           `json:"state" validate:"required"`
	ZipCode      string           `json:"zipCode"`
}

type OrderService struct {
	repo repository.OrderRepository
	log  *zap.Logger
	now  func() time.Time
	rand func(n int) int
}

func NewOrderService(repo repository.OrderRepository, log *zap.Logger) *OrderService {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderService{
		repo: repo,
		log:  log,
		now:  time.Now,
		rand: rand.Intn,
	}
}

// CreateOrder prices the submitted items and persists a pending order.
// It neither touches stock nor the shopper's cart.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	trimOrderInput(&in)
	if err := validateStruct(in, "Please fill required fields"); err != nil {
		return nil, err
	}

	items := make([]domain.OrderItem, 0, len(in.Items))
	for i, item := range in.Items {
		productID, err := primitive.ObjectIDFromHex(item.ProductID)
		if err != nil {
			field := fmt.Sprintf("items[%d].product", i)
			return nil, NewValidationError("Please fill required fields",
				FieldError{Field: field, Message: field + " must be a valid id"})
		}
		items = append(items, domain.OrderItem{
			ProductID: productID,
			Quantity:  item.Quantity,
			Price:     item.Price,
		})
	}

	var discount float64
	if in.Discount != nil {
		discount = *in.Discount
	}

	now := s.now()
	order := &domain.Order{
		ID:          primitive.NewObjectID(),
		OrderNumber: s.orderNumber(now),
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		Items:       items,
		ShippingAddress: domain.ShippingAddress{
			Name:         in.FirstName + " " + in.LastName,
			Phone:        in.Phone,
			AnotherPhone: in.AnotherPhone,
			Address:      in.Address,
			City:         in.City,
			State:        in.State,
			ZipCode:      in.ZipCode,
		},
		Pricing: domain.NewPricing(items, *in.Shipping, discount),
		Status:  domain.OrderStatusPending,
		StatusHistory: []domain.StatusEntry{
			{Status: domain.OrderStatusPending, Note: "Order created", Date: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		s.log.Error("repo create order failed", zap.String("order_number", order.OrderNumber), zap.Error(err))
		return nil, newInternalError("failed to create order", err)
	}

	s.log.Info("order created",
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(order.Items)),
		zap.Float64("total", order.Pricing.Total))
	return order, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderNumber string) (*domain.Order, error) {
	order, err := s.repo.GetOrderByNumber(ctx, orderNumber)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, NewNotFoundError("Order not found")
	}
	if err != nil {
		return nil, newInternalError("failed to load order", err)
	}
	return order, nil
}

// orderNumber is "ORD-<unix millis>-<3 digit suffix>". Collisions are not
// checked; the unique index on order_number rejects the rare duplicate.
func (s *OrderService) orderNumber(now time.Time) string {
	return fmt.Sprintf("ORD-%d-%03d", now.UnixMilli(), s.rand(1000))
}

func trimOrderInput(in *CreateOrderInput) {
	for _, f := range []*string{
		&in.FirstName, &in.LastName, &in.Email, &in.Phone, &in.AnotherPhone,
		&in.Address, &in.City, &in.State, &in.ZipCode,
	} {
		*f = strings.TrimSpace(*f)
	}
}
