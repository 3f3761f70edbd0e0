package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProductImage struct {
	URL    string `bson:"url" json:"url"`
	Alt    string `bson:"alt" json:"alt"`
	IsMain bool   `bson:"is_main" json:"isMain"`
}

type Ratings struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

type Product struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Slug         string             `bson:"slug" json:"slug"`
	Description  string             `bson:"description" json:"description"`
	Price        float64            `bson:"price" json:"price"`
	OldPrice     float64            `bson:"old_price,omitempty" json:"oldPrice,omitempty"`
	ComparePrice float64            `bson:"compare_price,omitempty" json:"comparePrice,omitempty"`
	SKU          string             `bson:"sku,omitempty" json:"sku,omitempty"`
	Category     primitive.ObjectID `bson:"category" json:"category"`
	Brand        string             `bson:"brand,omitempty" json:"brand,omitempty"`
	Images       []ProductImage     `bson:"images" json:"images"`
	Stock        int                `bson:"stock" json:"stock"`
	Ratings      Ratings            `bson:"ratings" json:"ratings"`
	Tags         []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	IsFeatured   bool               `bson:"is_featured" json:"isFeatured"`
	IsActive     bool               `bson:"is_active" json:"isActive"`
	IsBestSeller bool               `bson:"is_best_seller" json:"isBestSeller"`
	CreatedAt    time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updatedAt"`
}

// ProductSummary is the subset of a product shown inside a cart.
type ProductSummary struct {
	ID     string         `json:"id"`
	Name   string         `json:"name,omitempty"`
	Price  float64        `json:"price,omitempty"`
	Images []ProductImage `json:"images,omitempty"`
}

func (p *Product) Summary() *ProductSummary {
	return &ProductSummary{
		ID:     p.ID.Hex(),
		Name:   p.Name,
		Price:  p.Price,
		Images: p.Images,
	}
}

type Category struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name        string              `bson:"name" json:"name"`
	Slug        string              `bson:"slug" json:"slug"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Parent      *primitive.ObjectID `bson:"parent,omitempty" json:"parent,omitempty"`
	Image       string              `bson:"image,omitempty" json:"image,omitempty"`
	IsActive    bool                `bson:"is_active" json:"isActive"`
	CreatedAt   time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updated_at" json:"updatedAt"`
}

type Pagination struct {
	CurrentPage   int   `json:"currentPage"`
	TotalPages    int   `json:"totalPages"`
	TotalProducts int64 `json:"totalProducts"`
	HasNextPage   bool  `json:"hasNextPage"`
	HasPrevPage   bool  `json:"hasPrevPage"`
}

// NewPagination computes page metadata; limit must be positive.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		CurrentPage:   page,
		TotalPages:    totalPages,
		TotalProducts: total,
		HasNextPage:   page < totalPages,
		HasPrevPage:   page > 1,
	}
}
