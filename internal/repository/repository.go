package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrDuplicateKey     = errors.New("duplicate key")
)

// CartRepository stores one cart document per owner.
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, owner string) (*domain.Cart, error)
	// SaveCart replaces the owner's cart document, creating it if needed.
	SaveCart(ctx context.Context, cart *domain.Cart) error
}

type ProductFilter struct {
	Category   *primitive.ObjectID
	BestSeller bool
}

type ProductRepository interface {
	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	GetProductsByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Product, error)
	ListProducts(ctx context.Context, filter ProductFilter, skip, limit int64) ([]*domain.Product, error)
	CountProducts(ctx context.Context, filter ProductFilter) (int64, error)
}

type CategoryRepository interface {
	CreateCategory(ctx context.Context, c *domain.Category) error
	GetCategory(ctx context.Context, id primitive.ObjectID) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	GetUnpublishedOrders(ctx context.Context, limit int64) ([]*domain.Order, error)
	MarkOrderPublished(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

type UserUpdate struct {
	Name  *string
	Email *string
}

type UserRepository interface {
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateUser(ctx context.Context, id primitive.ObjectID, update UserUpdate) (*domain.User, error)
	SetLastLogin(ctx context.Context, id primitive.ObjectID, at time.Time) error
}

func translateWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicateKey
	}
	return err
}
