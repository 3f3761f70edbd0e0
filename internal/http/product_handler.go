package http

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Ahmed0rashed/laya-store-backend/internal/domain"
	"github.com/Ahmed0rashed/laya-store-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

const (
	maxImages       = 5
	multipartMemory = 10 << 20
)

type CatalogService interface {
	CreateProduct(ctx context.Context, in service.CreateProductInput, files []service.ImageFile) (*domain.Product, error)
	UploadImages(ctx context.Context, files []service.ImageFile) ([]string, error)
	ListProducts(ctx context.Context, page, limit int) (*service.ProductPage, error)
	ListProductsByCategory(ctx context.Context, categoryID string, page, limit int) (*service.ProductPage, error)
	ListBestSellers(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	CreateCategory(ctx context.Context, in service.CreateCategoryInput) (*domain.Category, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
}

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type productData struct {
	Product *domain.Product `json:"product"`
}

type imagesData struct {
	Images []string `json:"images"`
}

// CreateProduct accepts multipart/form-data with up to five "images" files,
// or a plain JSON body without images.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in service.CreateProductInput
	var files []service.ImageFile

	if isMultipart(r) {
		form, err := parseMultipart(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		defer form.RemoveAll()

		in, err = productFromForm(form)
		if err != nil {
			respondError(w, r, err)
			return
		}
		files, err = openImages(form)
		if err != nil {
			respondError(w, r, err)
			return
		}
		defer closeImages(files)
	} else if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), in, files)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Product created successfully", productData{Product: product})
}

func (h *ProductHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	var files []service.ImageFile
	if isMultipart(r) {
		form, err := parseMultipart(r)
		if err != nil {
			respondError(w, r, err)
			return
		}
		defer form.RemoveAll()

		files, err = openImages(form)
		if err != nil {
			respondError(w, r, err)
			return
		}
		defer closeImages(files)
	}

	urls, err := h.catalog.UploadImages(r.Context(), files)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Images uploaded successfully", imagesData{Images: urls})
}

func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.catalog.ListProducts(r.Context(), page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Products retrieved successfully", result)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Product retrieved successfully", product)
}

// ListByCategory reports pagination next to data rather than inside it.
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)
	result, err := h.catalog.ListProductsByCategory(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, Envelope{
		Success:    true,
		Message:    "Products retrieved successfully",
		Data:       result.Products,
		Pagination: &result.Pagination,
	})
}

func (h *ProductHandler) ListBestSellers(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListBestSellers(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Best seller products retrieved successfully", products)
}

func (h *ProductHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in service.CreateCategoryInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, err)
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), in)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusCreated, "Category created successfully", category)
}

func (h *ProductHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Categories retrieved successfully", categories)
}

func (h *ProductHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.GetCategory(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondOK(w, http.StatusOK, "Category retrieved successfully", category)
}

func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return page, limit
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func parseMultipart(r *http.Request) (*multipart.Form, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, service.NewValidationError("Request body too large")
		}
		return nil, service.NewValidationError("Invalid multipart form")
	}
	return r.MultipartForm, nil
}

func openImages(form *multipart.Form) ([]service.ImageFile, error) {
	headers := form.File["images"]
	if len(headers) > maxImages {
		return nil, service.NewValidationError("Too many images",
			service.FieldError{Field: "images", Message: "images cannot exceed 5 files"})
	}

	files := make([]service.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			closeImages(files)
			return nil, service.NewValidationError("Invalid image upload")
		}
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			f.Close()
			closeImages(files)
			return nil, service.NewValidationError("Only image files are allowed",
				service.FieldError{Field: "images", Message: fh.Filename + " is not an image"})
		}
		files = append(files, service.ImageFile{
			Name:        fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        f,
		})
	}
	return files, nil
}

func closeImages(files []service.ImageFile) {
	for _, f := range files {
		if c, ok := f.Body.(multipart.File); ok {
			c.Close()
		}
	}
}

func productFromForm(form *multipart.Form) (service.CreateProductInput, error) {
	value := func(key string) string {
		if v := form.Value[key]; len(v) > 0 {
			return strings.TrimSpace(v[0])
		}
		return ""
	}

	in := service.CreateProductInput{
		Name:         value("name"),
		Description:  value("description"),
		Category:     value("category"),
		Brand:        value("brand"),
		Tags:         formTags(form.Value["tags"]),
		IsFeatured:   value("isFeatured") == "true",
		IsBestSeller: value("isBestSeller") == "true",
	}

	var fields []service.FieldError
	if v := value("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "price", Message: "price must be a number"})
		}
		in.Price = &price
	}
	if v := value("oldPrice"); v != "" {
		old, err := strconv.ParseFloat(v, 64)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "oldPrice", Message: "oldPrice must be a number"})
		}
		in.OldPrice = old
	}
	if v := value("stock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			fields = append(fields, service.FieldError{Field: "stock", Message: "stock must be an integer"})
		}
		in.Stock = stock
	}
	if v := value("isActive"); v != "" {
		active := v == "true"
		in.IsActive = &active
	}

	if len(fields) > 0 {
		return in, service.NewValidationError("Validation Error", fields...)
	}
	return in, nil
}

// formTags accepts repeated "tags" fields as well as one comma separated value.
func formTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
