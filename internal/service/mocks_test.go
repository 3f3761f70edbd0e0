package service

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/Ahmed0rashed/laya-store-backend/internal/cache"
	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type mockCartRepository struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	saves int
	err   error
	// afterGet, when set, runs once after the next GetCart has read its copy.
	afterGet func()
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: map[string]*domain.Cart{}}
}

func (m *mockCartRepository) GetCart(_ context.Context, owner string) (*domain.Cart, error) {
	m.m.Lock()
	hook := m.afterGet
	m.afterGet = nil
	c, ok := m.carts[owner]
	if ok {
		c = c.Clone()
	}
	err := m.err
	m.m.Unlock()

	if hook != nil {
		hook()
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	return c, nil
}

func (m *mockCartRepository) SaveCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()
	m.carts[c.Owner] = c.Clone()
	m.saves++
	return nil
}

func (m *mockCartRepository) cart(owner string) *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[owner]
}

func (m *mockCartRepository) saveCount() int {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.saves
}

type mockCache struct {
	m     sync.RWMutex
	carts map[string]*domain.Cart
	err   error
}

func newMockCache() *mockCache {
	return &mockCache{carts: map[string]*domain.Cart{}}
}

func (m *mockCache) Get(_ context.Context, owner string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.carts[owner]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return c, nil
}

func (m *mockCache) Set(_ context.Context, owner string, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.carts[owner] = c
	return m.err
}

func (m *mockCache) Delete(_ context.Context, owner string) error {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.carts, owner)
	return m.err
}

func (m *mockCache) cached(owner string) *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.carts[owner]
}

type mockProducts struct {
	m        sync.RWMutex
	products map[primitive.ObjectID]*domain.Product
	created  []*domain.Product
	err      error
}

func newMockProducts(products ...*domain.Product) *mockProducts {
	m := &mockProducts{products: map[primitive.ObjectID]*domain.Product{}}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProducts) CreateProduct(_ context.Context, p *domain.Product) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.products {
		if existing.Slug == p.Slug {
			return repository.ErrDuplicateKey
		}
	}
	p.ID = primitive.NewObjectID()
	m.products[p.ID] = p
	m.created = append(m.created, p)
	return nil
}

func (m *mockProducts) GetProduct(_ context.Context, id primitive.ObjectID) (*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProducts) GetProductsByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[primitive.ObjectID]*domain.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockProducts) ListProducts(_ context.Context, filter repository.ProductFilter, skip, limit int64) ([]*domain.Product, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	matched := m.filter(filter)
	if skip >= int64(len(matched)) {
		return []*domain.Product{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *mockProducts) CountProducts(_ context.Context, filter repository.ProductFilter) (int64, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return 0, m.err
	}
	return int64(len(m.filter(filter))), nil
}

// filter keeps insertion order of created products so pages are stable.
func (m *mockProducts) filter(f repository.ProductFilter) []*domain.Product {
	out := []*domain.Product{}
	for _, p := range m.created {
		if f.Category != nil && p.Category != *f.Category {
			continue
		}
		if f.BestSeller && !p.IsBestSeller {
			continue
		}
		out = append(out, p)
	}
	return out
}

func (m *mockProducts) setStock(id primitive.ObjectID, stock int) {
	m.m.Lock()
	defer m.m.Unlock()
	m.products[id].Stock = stock
}

func (m *mockProducts) remove(id primitive.ObjectID) {
	m.m.Lock()
	defer m.m.Unlock()
	delete(m.products, id)
}

type mockCategories struct {
	categories map[primitive.ObjectID]*domain.Category
	err        error
}

func newMockCategories() *mockCategories {
	return &mockCategories{categories: map[primitive.ObjectID]*domain.Category{}}
}

func (m *mockCategories) CreateCategory(_ context.Context, c *domain.Category) error {
	if m.err != nil {
		return m.err
	}
	for _, existing := range m.categories {
		if existing.Slug == c.Slug {
			return repository.ErrDuplicateKey
		}
	}
	c.ID = primitive.NewObjectID()
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategories) GetCategory(_ context.Context, id primitive.ObjectID) (*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

func (m *mockCategories) ListCategories(context.Context) ([]*domain.Category, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]*domain.Category, 0, len(m.categories))
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

type mockOrders struct {
	m      sync.Mutex
	orders []*domain.Order
	err    error
}

func (m *mockOrders) CreateOrder(_ context.Context, o *domain.Order) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.orders = append(m.orders, o)
	return nil
}

func (m *mockOrders) GetOrderByNumber(_ context.Context, orderNumber string) (*domain.Order, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, o := range m.orders {
		if o.OrderNumber == orderNumber {
			return o, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrders) GetUnpublishedOrders(context.Context, int64) ([]*domain.Order, error) {
	return nil, nil
}

func (m *mockOrders) MarkOrderPublished(context.Context, primitive.ObjectID, time.Time) error {
	return nil
}

type mockUsers struct {
	m     sync.Mutex
	users map[primitive.ObjectID]*domain.User
	err   error
}

func newMockUsers() *mockUsers {
	return &mockUsers{users: map[primitive.ObjectID]*domain.User{}}
}

func (m *mockUsers) CreateUser(_ context.Context, u *domain.User) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	u.Email = strings.ToLower(u.Email)
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateKey
		}
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	m.users[u.ID] = u
	return nil
}

func (m *mockUsers) GetUserByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return u, nil
}

func (m *mockUsers) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUsers) UpdateUser(_ context.Context, id primitive.ObjectID, update repository.UserUpdate) (*domain.User, error) {
	m.m.Lock()
	defer m.m.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Email != nil {
		u.Email = strings.ToLower(*update.Email)
	}
	return u, nil
}

func (m *mockUsers) SetLastLogin(_ context.Context, id primitive.ObjectID, at time.Time) error {
	m.m.Lock()
	defer m.m.Unlock()
	if u, ok := m.users[id]; ok {
		u.LastLogin = &at
	}
	return nil
}

type mockUploader struct {
	uploaded []string
	err      error
}

func (m *mockUploader) Upload(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.uploaded = append(m.uploaded, name)
	return "http://images.test/" + name, nil
}
