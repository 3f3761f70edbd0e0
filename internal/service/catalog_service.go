package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/repository"
	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// ImageUploader stores an image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
}

type ImageFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type CreateProductInput struct {
	Name         string   `json:"name" validate:"required,max=200"`
	Description  string   `json:"description" validate:"required"`
	Price        *float64 `json:"price" validate:"required,gte=0"`
	OldPrice     float64  `json:"oldPrice" validate:"gte=0"`
	Stock        int      `json:"stock" validate:"gte=0"`
	Category     string   `json:"category" validate:"required"`
	Brand        string   `json:"brand"`
	Tags         []string `json:"tags"`
	IsFeatured   bool     `json:"isFeatured"`
	IsActive     *bool    `json:"isActive"`
	IsBestSeller bool     `json:"isBestSeller"`
}

type CreateCategoryInput struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
	Parent      string `json:"parent"`
}

type ProductPage struct {
	Products   []*domain.Product `json:"products"`
	Pagination domain.Pagination `json:"pagination"`
}

type CatalogService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	images     ImageUploader
	log        *zap.Logger
}

func NewCatalogService(products repository.ProductRepository, categories repository.CategoryRepository, images ImageUploader, log *zap.Logger) *CatalogService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogService{
		products:   products,
		categories: categories,
		images:     images,
		log:        log,
	}
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput, files []ImageFile) (*domain.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in, "Validation Error"); err != nil {
		return nil, err
	}
	categoryID, err := primitive.ObjectIDFromHex(in.Category)
	if err != nil {
		return nil, NewValidationError("Validation Error", FieldError{Field: "category", Message: "category must be a valid id"})
	}

	urls, err := s.uploadAll(ctx, files)
	if err != nil {
		return nil, err
	}
	images := make([]domain.ProductImage, 0, len(urls))
	for i, url := range urls {
		images = append(images, domain.ProductImage{
			URL:    url,
			Alt:    fmt.Sprintf("%s image %d", in.Name, i+1),
			IsMain: i == 0,
		})
	}

	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}

	product := &domain.Product{
		Name:         in.Name,
		Slug:         slug.Make(in.Name),
		Description:  in.Description,
		Price:        *in.Price,
		OldPrice:     in.OldPrice,
		Category:     categoryID,
		Brand:        in.Brand,
		Images:       images,
		Stock:        in.Stock,
		Tags:         in.Tags,
		IsFeatured:   in.IsFeatured,
		IsActive:     active,
		IsBestSeller: in.IsBestSeller,
	}

	if err := s.products.CreateProduct(ctx, product); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewValidationError("A product with this name already exists")
		}
		return nil, newInternalError("failed to create product", err)
	}
	return product, nil
}

func (s *CatalogService) UploadImages(ctx context.Context, files []ImageFile) ([]string, error) {
	if len(files) == 0 {
		return nil, NewValidationError("No images provided")
	}
	return s.uploadAll(ctx, files)
}

func (s *CatalogService) uploadAll(ctx context.Context, files []ImageFile) ([]string, error) {
	urls := make([]string, 0, len(files))
	for _, f := range files {
		url, err := s.images.Upload(ctx, f.Name, f.Body, f.Size, f.ContentType)
		if err != nil {
			s.log.Error("image upload failed", zap.String("file", f.Name), zap.Error(err))
			return nil, newInternalError("failed to upload image", err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, page, limit int) (*ProductPage, error) {
	return s.listPage(ctx, repository.ProductFilter{}, page, limit)
}

func (s *CatalogService) ListProductsByCategory(ctx context.Context, categoryID string, page, limit int) (*ProductPage, error) {
	id, err := primitive.ObjectIDFromHex(categoryID)
	if err != nil {
		return nil, NewNotFoundError("Category not found")
	}
	return s.listPage(ctx, repository.ProductFilter{Category: &id}, page, limit)
}

func (s *CatalogService) ListBestSellers(ctx context.Context) ([]*domain.Product, error) {
	products, err := s.products.ListProducts(ctx, repository.ProductFilter{BestSeller: true}, 0, 0)
	if err != nil {
		return nil, newInternalError("failed to list products", err)
	}
	return products, nil
}

func (s *CatalogService) listPage(ctx context.Context, filter repository.ProductFilter, page, limit int) (*ProductPage, error) {
	page, limit = normalizePage(page, limit)

	total, err := s.products.CountProducts(ctx, filter)
	if err != nil {
		return nil, newInternalError("failed to count products", err)
	}
	products, err := s.products.ListProducts(ctx, filter, int64((page-1)*limit), int64(limit))
	if err != nil {
		return nil, newInternalError("failed to list products", err)
	}

	return &ProductPage{
		Products:   products,
		Pagination: domain.NewPagination(page, limit, total),
	}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, NewNotFoundError("Product not found")
	}
	product, err := s.products.GetProduct(ctx, productID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return nil, NewNotFoundError("Product not found")
	}
	if err != nil {
		return nil, newInternalError("failed to load product", err)
	}
	return product, nil
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CreateCategoryInput) (*domain.Category, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validateStruct(in, "Validation Error"); err != nil {
		return nil, err
	}

	category := &domain.Category{
		Name:        in.Name,
		Slug:        slug.Make(in.Name),
		Description: in.Description,
		IsActive:    true,
	}
	if in.Parent != "" {
		parent, err := primitive.ObjectIDFromHex(in.Parent)
		if err != nil {
			return nil, NewValidationError("Validation Error", FieldError{Field: "parent", Message: "parent must be a valid id"})
		}
		category.Parent = &parent
	}

	if err := s.categories.CreateCategory(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, NewValidationError("A category with this name already exists")
		}
		return nil, newInternalError("failed to create category", err)
	}
	return category, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	categories, err := s.categories.ListCategories(ctx)
	if err != nil {
		return nil, newInternalError("failed to list categories", err)
	}
	return categories, nil
}

func (s *CatalogService) GetCategory(ctx context.Context, id string) (*domain.Category, error) {
	categoryID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, NewNotFoundError("Category not found")
	}
	category, err := s.categories.GetCategory(ctx, categoryID)
	if errors.Is(err, repository.ErrCategoryNotFound) {
		return nil, NewNotFoundError("Category not found")
	}
	if err != nil {
		return nil, newInternalError("failed to load category", err)
	}
	return category, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}
