// Package repository persists products and their reviews. Three backends
// share the same contract: a JSON file per collection, postgres through gorm
// (both keep reviews in their own collection keyed by productId), and a
// document store that embeds reviews inside the product document.
package repository

import (
	"context"
	"errors"

	"github.com/princeprakhar/product-catalog/internal/models"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrReviewNotFound  = errors.New("review not found")
)

// ProductMutator edits a stored product in place. Returning an error aborts
// the update without writing anything.
type ProductMutator func(*models.Product) error

type ReviewMutator func(*models.Review) error

type ProductRepository interface {
	Create(ctx context.Context, product *models.Product) error
	// List returns products in creation order with their reviews attached.
	List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	// Update applies mutate to the current record and persists the result
	// without interleaving with other writers of the same record.
	Update(ctx context.Context, id string, mutate ProductMutator) (*models.Product, error)
	// Delete removes the product and every review that belongs to it.
	Delete(ctx context.Context, id string) error
}

type ReviewRepository interface {
	// Create fails with ErrProductNotFound when productID does not exist.
	Create(ctx context.Context, productID string, review *models.Review) error
	ListByProduct(ctx context.Context, productID string) ([]models.Review, error)
	GetByID(ctx context.Context, productID, reviewID string) (*models.Review, error)
	Update(ctx context.Context, productID, reviewID string, mutate ReviewMutator) (*models.Review, error)
	Delete(ctx context.Context, productID, reviewID string) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Products ProductRepository
	Reviews  ReviewRepository
	Driver   string

	closer func(context.Context) error
}

func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

// attachReviews groups reviews by productId onto products, keeping the
// order of both slices. Products without reviews get an empty list.
func attachReviews(products []models.Product, reviews []models.Review) {
	index := make(map[string]int, len(products))
	for i := range products {
		index[products[i].ID] = i
		products[i].Reviews = []models.Review{}
	}
	for _, review := range reviews {
		if i, ok := index[review.ProductID]; ok {
			products[i].Reviews = append(products[i].Reviews, review)
		}
	}
}
