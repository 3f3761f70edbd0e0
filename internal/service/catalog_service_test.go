package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestCatalog() (*CatalogService, *mockProducts, *mockCategories, *mockUploader) {
	products := newMockProducts()
	categories := newMockCategories()
	images := &mockUploader{}
	return NewCatalogService(products, categories, images, nil), products, categories, images
}

func productInput(name string, category primitive.ObjectID) CreateProductInput {
	return CreateProductInput{
		Name:        name,
		Description: "a thing",
		Price:       ptr(99.5),
		Stock:       4,
		Category:    category.Hex(),
	}
}

func imageFile(name string) ImageFile {
	return ImageFile{Name: name, ContentType: "image/png", Size: 3, Body: strings.NewReader("png")}
}

func TestCreateProduct(t *testing.T) {
	sut, _, _, images := newTestCatalog()
	category := primitive.NewObjectID()

	p, err := sut.CreateProduct(context.Background(), productInput("  Silk Scarf  ", category),
		[]ImageFile{imageFile("a.png"), imageFile("b.png")})
	require.NoError(t, err)

	assert.Equal(t, "Silk Scarf", p.Name)
	assert.Equal(t, "silk-scarf", p.Slug)
	assert.True(t, p.IsActive)
	assert.Equal(t, category, p.Category)
	require.Len(t, p.Images, 2)
	assert.Equal(t, "Silk Scarf image 1", p.Images[0].Alt)
	assert.True(t, p.Images[0].IsMain)
	assert.False(t, p.Images[1].IsMain)
	assert.Equal(t, []string{"a.png", "b.png"}, images.uploaded)
}

func TestCreateProduct_Errors(t *testing.T) {
	category := primitive.NewObjectID()

	t.Run("missing price", func(t *testing.T) {
		sut, _, _, _ := newTestCatalog()
		in := productInput("Hat", category)
		in.Price = nil
		_, err := sut.CreateProduct(context.Background(), in, nil)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("negative stock", func(t *testing.T) {
		sut, _, _, _ := newTestCatalog()
		in := productInput("Hat", category)
		in.Stock = -1
		_, err := sut.CreateProduct(context.Background(), in, nil)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("bad category", func(t *testing.T) {
		sut, _, _, _ := newTestCatalog()
		in := productInput("Hat", category)
		in.Category = "nope"
		_, err := sut.CreateProduct(context.Background(), in, nil)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("duplicate slug", func(t *testing.T) {
		sut, _, _, _ := newTestCatalog()
		_, err := sut.CreateProduct(context.Background(), productInput("Hat", category), nil)
		require.NoError(t, err)
		_, err = sut.CreateProduct(context.Background(), productInput("hat", category), nil)
		assert.Equal(t, KindValidation, KindOf(err))
	})

	t.Run("upload failure", func(t *testing.T) {
		sut, products, _, images := newTestCatalog()
		images.err = fmt.Errorf("bucket unreachable")
		_, err := sut.CreateProduct(context.Background(), productInput("Hat", category), []ImageFile{imageFile("a.png")})
		assert.Equal(t, KindInternal, KindOf(err))
		assert.Empty(t, products.created)
	})
}

func TestUploadImages(t *testing.T) {
	sut, _, _, _ := newTestCatalog()

	_, err := sut.UploadImages(context.Background(), nil)
	assert.Equal(t, KindValidation, KindOf(err))

	urls, err := sut.UploadImages(context.Background(), []ImageFile{imageFile("x.png")})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://images.test/x.png"}, urls)
}

func TestListProducts_Pagination(t *testing.T) {
	sut, _, _, _ := newTestCatalog()
	category := primitive.NewObjectID()
	for i := 0; i < 12; i++ {
		_, err := sut.CreateProduct(context.Background(), productInput(fmt.Sprintf("Item %d", i), category), nil)
		require.NoError(t, err)
	}

	page, err := sut.ListProducts(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.Len(t, page.Products, 10)
	assert.Equal(t, 1, page.Pagination.CurrentPage)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, int64(12), page.Pagination.TotalProducts)
	assert.True(t, page.Pagination.HasNextPage)
	assert.False(t, page.Pagination.HasPrevPage)

	page, err = sut.ListProducts(context.Background(), 2, 10)
	require.NoError(t, err)
	assert.Len(t, page.Products, 2)
	assert.False(t, page.Pagination.HasNextPage)
	assert.True(t, page.Pagination.HasPrevPage)
}

func TestListProductsByCategoryAndBestSellers(t *testing.T) {
	sut, _, _, _ := newTestCatalog()
	shoes := primitive.NewObjectID()
	bags := primitive.NewObjectID()

	_, err := sut.CreateProduct(context.Background(), productInput("Runner", shoes), nil)
	require.NoError(t, err)
	best := productInput("Tote", bags)
	best.IsBestSeller = true
	_, err = sut.CreateProduct(context.Background(), best, nil)
	require.NoError(t, err)

	page, err := sut.ListProductsByCategory(context.Background(), shoes.Hex(), 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Runner", page.Products[0].Name)

	_, err = sut.ListProductsByCategory(context.Background(), "bad", 1, 10)
	assert.Equal(t, KindNotFound, KindOf(err))

	sellers, err := sut.ListBestSellers(context.Background())
	require.NoError(t, err)
	require.Len(t, sellers, 1)
	assert.Equal(t, "Tote", sellers[0].Name)
}

func TestGetProduct(t *testing.T) {
	sut, _, _, _ := newTestCatalog()
	created, err := sut.CreateProduct(context.Background(), productInput("Lamp", primitive.NewObjectID()), nil)
	require.NoError(t, err)

	got, err := sut.GetProduct(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	_, err = sut.GetProduct(context.Background(), primitive.NewObjectID().Hex())
	assert.Equal(t, KindNotFound, KindOf(err))
	_, err = sut.GetProduct(context.Background(), "garbage")
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestCategories(t *testing.T) {
	sut, _, _, _ := newTestCatalog()
	ctx := context.Background()

	parent, err := sut.CreateCategory(ctx, CreateCategoryInput{Name: "Home Decor"})
	require.NoError(t, err)
	assert.Equal(t, "home-decor", parent.Slug)
	assert.True(t, parent.IsActive)

	child, err := sut.CreateCategory(ctx, CreateCategoryInput{Name: "Lamps", Parent: parent.ID.Hex()})
	require.NoError(t, err)
	require.NotNil(t, child.Parent)
	assert.Equal(t, parent.ID, *child.Parent)

	_, err = sut.CreateCategory(ctx, CreateCategoryInput{Name: ""})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = sut.CreateCategory(ctx, CreateCategoryInput{Name: "home decor"})
	assert.Equal(t, KindValidation, KindOf(err))
	_, err = sut.CreateCategory(ctx, CreateCategoryInput{Name: "Rugs", Parent: "x"})
	assert.Equal(t, KindValidation, KindOf(err))

	all, err := sut.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	got, err := sut.GetCategory(ctx, child.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Lamps", got.Name)

	_, err = sut.GetCategory(ctx, primitive.NewObjectID().Hex())
	assert.Equal(t, KindNotFound, KindOf(err))
}
