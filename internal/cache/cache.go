package cache

import (
	"context"
	"errors"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
)

// CartCache holds read copies of carts keyed by owner. It is never the source
// of truth: mutations load from the repository and only invalidate here.
type CartCache interface {
	Get(ctx context.Context, owner string) (*domain.Cart, error)
	Set(ctx context.Context, owner string, cart *domain.Cart) error
	Delete(ctx context.Context, owner string) error
}

var ErrCacheMiss = errors.New("cache miss")
