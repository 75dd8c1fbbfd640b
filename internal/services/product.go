package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/princeprakhar/product-catalog/internal/models"
	"github.com/princeprakhar/product-catalog/internal/repository"
)

// ErrInvalidImage marks uploads rejected for their type or size.
var ErrInvalidImage = errors.New("invalid image")

type ProductService struct {
	products repository.ProductRepository
	images   ImageStore
	clock    clock
}

func NewProductService(products repository.ProductRepository, images ImageStore) *ProductService {
	if products == nil {
		panic("product repository cannot be nil")
	}
	return &ProductService{
		products: products,
		images:   images,
		clock:    systemClock,
	}
}

// CreateProduct stores the request as a new product with a generated id and
// equal creation and update timestamps.
func (s *ProductService) CreateProduct(ctx context.Context, req models.CreateProductRequest) (*models.Product, error) {
	now := s.clock.now()
	product := &models.Product{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Brand:       req.Brand,
		ImageURL:    req.ImageURL,
		Price:       req.Price,
		Category:    req.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
		Reviews:     []models.Review{},
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) GetProducts(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	return s.products.List(ctx, filter)
}

func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.products.GetByID(ctx, id)
}

// UpdateProduct merges the fields present in req over the stored product.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, req models.UpdateProductRequest) (*models.Product, error) {
	return s.products.Update(ctx, id, func(p *models.Product) error {
		req.Apply(p)
		p.UpdatedAt = s.clock.after(p.UpdatedAt)
		return nil
	})
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	return s.products.Delete(ctx, id)
}

// UploadImage stores the file and points the product's imageUrl at it. The
// product is checked first so nothing is uploaded for an unknown id.
func (s *ProductService) UploadImage(ctx context.Context, id string, file multipart.File, header *multipart.FileHeader) (*models.Product, error) {
	if s.images == nil {
		return nil, fmt.Errorf("image storage is not configured")
	}
	if _, err := s.products.GetByID(ctx, id); err != nil {
		return nil, err
	}

	url, err := s.images.Save(ctx, file, header)
	if err != nil {
		return nil, err
	}

	return s.products.Update(ctx, id, func(p *models.Product) error {
		p.ImageURL = url
		p.UpdatedAt = s.clock.after(p.UpdatedAt)
		return nil
	})
}
