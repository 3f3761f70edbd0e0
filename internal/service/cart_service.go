package service

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/cache"
	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CartService keeps one cart per owner and validates every mutation against
// live catalog stock. Stock checks are best effort: nothing is reserved, so two
// shoppers can both pass a check for the last unit. Each operation is
// load, mutate in memory, single write; concurrent writers to the same owner
// resolve last-write-wins. Mutations always load from the repository; the
// cache only serves GetCart and Count.
type CartService struct {
	repo     repository.CartRepository
	products repository.ProductRepository
	cache    cache.CartCache
	log      *zap.Logger
	sfg      singleflight.Group // collapses concurrent cache misses per owner

	// invalidations counts cache deletes so a fill that raced a write is dropped.
	invalidations atomic.Uint64
}

func NewCartService(repo repository.CartRepository, products repository.ProductRepository, cache cache.CartCache, log *zap.Logger) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{
		repo:     repo,
		products: products,
		cache:    cache,
		log:      log,
	}
}

type AddItemInput struct {
	ProductID string
	Quantity  int
	Variant   string
	// Price overrides the catalog price when set and positive.
	Price *float64
}

func (s *CartService) AddItem(ctx context.Context, owner string, in AddItemInput) (*domain.CartView, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if in.Quantity < 1 {
		return nil, NewValidationError("Quantity must be at least 1")
	}
	if in.Price != nil && *in.Price < 0 {
		return nil, NewValidationError("Price cannot be negative")
	}

	product, err := s.activeProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product.Stock < in.Quantity {
		return nil, NewInsufficientStockError("Insufficient stock available")
	}

	cart, err := s.loadCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart = &domain.Cart{Owner: owner, Items: []domain.CartItem{}}
	} else if err != nil {
		return nil, newInternalError("failed to load cart", err)
	}

	price := product.Price
	if in.Price != nil && *in.Price > 0 {
		price = *in.Price
	}

	if i := cart.FindLine(product.ID, in.Variant); i >= 0 {
		cart.Items[i].Quantity += in.Quantity
		cart.Items[i].Price = price
	} else {
		cart.Items = append(cart.Items, domain.CartItem{
			ID:        primitive.NewObjectID(),
			ProductID: product.ID,
			Quantity:  in.Quantity,
			Variant:   in.Variant,
			Price:     price,
		})
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// GetCart returns the owner's cart, dropping lines whose product was deleted
// or deactivated. A pruned cart is written back before it is returned.
func (s *CartService) GetCart(ctx context.Context, owner string) (*domain.CartView, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	cart, err := s.cachedCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.EmptyCartView(), nil
	}
	if err != nil {
		return nil, newInternalError("failed to load cart", err)
	}

	products, err := s.products.GetProductsByIDs(ctx, productIDs(cart.Items))
	if err != nil {
		return nil, newInternalError("failed to load cart products", err)
	}

	kept := liveItems(cart.Items, products)
	if len(kept) == len(cart.Items) && domain.CartTotal(kept) == cart.TotalAmount {
		return domain.NewCartView(cart, products), nil
	}

	// The cached copy may trail the repository, so prune the stored cart.
	cart, err = s.loadCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		return domain.EmptyCartView(), nil
	}
	if err != nil {
		return nil, newInternalError("failed to load cart", err)
	}
	products, err = s.products.GetProductsByIDs(ctx, productIDs(cart.Items))
	if err != nil {
		return nil, newInternalError("failed to load cart products", err)
	}

	kept = liveItems(cart.Items, products)
	if len(kept) != len(cart.Items) || domain.CartTotal(kept) != cart.TotalAmount {
		s.log.Info("pruning stale cart lines",
			zap.String("owner", owner),
			zap.Int("removed", len(cart.Items)-len(kept)))
		cart.Items = kept
		if err := s.saveCart(ctx, cart); err != nil {
			return nil, err
		}
	}
	return domain.NewCartView(cart, products), nil
}

// liveItems drops lines whose product was deleted or deactivated.
func liveItems(items []domain.CartItem, products map[primitive.ObjectID]*domain.Product) []domain.CartItem {
	kept := make([]domain.CartItem, 0, len(items))
	for _, item := range items {
		if p, ok := products[item.ProductID]; ok && p.IsActive {
			kept = append(kept, item)
		}
	}
	return kept
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, owner, itemID string, quantity int) (*domain.CartView, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}
	if quantity < 1 {
		return nil, NewValidationError("Quantity must be at least 1")
	}

	cart, idx, err := s.cartLine(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}

	product, err := s.products.GetProduct(ctx, cart.Items[idx].ProductID)
	if err != nil && !errors.Is(err, repository.ErrProductNotFound) {
		return nil, newInternalError("failed to load product", err)
	}
	if product == nil || product.Stock < quantity {
		return nil, NewInsufficientStockError("Insufficient stock available")
	}

	cart.Items[idx].Quantity = quantity

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

func (s *CartService) RemoveItem(ctx context.Context, owner, itemID string) (*domain.CartView, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	cart, idx, err := s.cartLine(ctx, owner, itemID)
	if err != nil {
		return nil, err
	}

	cart.Items = append(cart.Items[:idx], cart.Items[idx+1:]...)

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return s.view(ctx, cart)
}

// ClearCart empties the cart but keeps the record, so its id survives.
func (s *CartService) ClearCart(ctx context.Context, owner string) (*domain.CartView, error) {
	if err := requireOwner(owner); err != nil {
		return nil, err
	}

	cart, err := s.loadCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, NewNotFoundError("Cart not found")
	}
	if err != nil {
		return nil, newInternalError("failed to load cart", err)
	}

	cart.Items = []domain.CartItem{}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return domain.NewCartView(cart, nil), nil
}

// Count is the total quantity across all lines; a missing cart counts as 0.
func (s *CartService) Count(ctx context.Context, owner string) (int, error) {
	if err := requireOwner(owner); err != nil {
		return 0, err
	}

	cart, err := s.cachedCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, newInternalError("failed to load cart", err)
	}
	return cart.ItemCount(), nil
}

func (s *CartService) activeProduct(ctx context.Context, id string) (*domain.Product, error) {
	notAvailable := NewNotFoundError("Product not found or not available")

	productID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, notAvailable
	}

	product, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, notAvailable
	}
	if err != nil {
		return nil, newInternalError("failed to load product", err)
	}
	if !product.IsActive {
		return nil, notAvailable
	}
	return product, nil
}

// cartLine loads the owner's cart and locates one line by its id.
func (s *CartService) cartLine(ctx context.Context, owner, itemID string) (*domain.Cart, int, error) {
	cart, err := s.loadCart(ctx, owner)
	if errors.Is(err, repository.ErrCartNotFound) {
		return nil, -1, NewNotFoundError("Cart not found")
	}
	if err != nil {
		return nil, -1, newInternalError("failed to load cart", err)
	}

	id, err := primitive.ObjectIDFromHex(itemID)
	if err != nil {
		return nil, -1, NewNotFoundError("Item not found in cart")
	}
	idx := cart.FindItem(id)
	if idx < 0 {
		return nil, -1, NewNotFoundError("Item not found in cart")
	}
	return cart, idx, nil
}

// loadCart reads the stored cart for a mutation. It never consults the cache.
func (s *CartService) loadCart(ctx context.Context, owner string) (*domain.Cart, error) {
	return s.repo.GetCart(ctx, owner)
}

// cachedCart reads through the cache. The returned cart is a private copy the
// caller may mutate. A fill is skipped when any invalidation ran while the
// repository was being read, so a snapshot older than a committed write is
// never cached.
func (s *CartService) cachedCart(ctx context.Context, owner string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(owner, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, owner)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("cache get failed", zap.String("owner", owner), zap.Error(err))
		}

		gen := s.invalidations.Load()
		cart, err = s.repo.GetCart(ctx, owner)
		if err != nil {
			return nil, err
		}

		if s.invalidations.Load() != gen {
			return cart, nil
		}
		if errSet := s.cache.Set(ctx, owner, cart); errSet != nil {
			s.log.Warn("cache set failed", zap.String("owner", owner), zap.Error(errSet))
		}
		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart).Clone(), nil
}

// saveCart recomputes the total, persists, and invalidates the cached copy.
func (s *CartService) saveCart(ctx context.Context, cart *domain.Cart) error {
	cart.Recalculate()

	if err := s.repo.SaveCart(ctx, cart); err != nil {
		s.log.Error("repo save cart failed", zap.String("owner", cart.Owner), zap.Error(err))
		return newInternalError("failed to save cart", err)
	}

	s.invalidateCache(cart.Owner)
	return nil
}

func (s *CartService) invalidateCache(owner string) {
	s.invalidations.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, owner); err != nil {
		s.log.Warn("cache invalidate failed", zap.String("owner", owner), zap.Error(err))
	}
}

func (s *CartService) view(ctx context.Context, cart *domain.Cart) (*domain.CartView, error) {
	products, err := s.products.GetProductsByIDs(ctx, productIDs(cart.Items))
	if err != nil {
		return nil, newInternalError("failed to load cart products", err)
	}
	return domain.NewCartView(cart, products), nil
}

func productIDs(items []domain.CartItem) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]struct{}, len(items))
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}

func requireOwner(owner string) error {
	if owner == "" {
		return NewValidationError("userId is required", FieldError{Field: "userId", Message: "userId is required"})
	}
	return nil
}
