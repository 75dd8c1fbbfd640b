package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/princeprakhar/product-catalog/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	productsFile = "products.json"
	reviewsFile  = "reviews.json"
)

// fileDB keeps each collection as one JSON array on disk. Every mutation
// reads the whole array, changes it and writes it back under the
// collection's mutex; writes land through a rename so readers never see a
// half written file. When both locks are needed products is taken first.
type fileDB struct {
	productsPath string
	reviewsPath  string

	productsMu sync.Mutex
	reviewsMu  sync.Mutex
}

func NewFileStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db := &fileDB{
		productsPath: filepath.Join(dir, productsFile),
		reviewsPath:  filepath.Join(dir, reviewsFile),
	}

	return &Store{
		Products: &fileProductRepository{db: db},
		Reviews:  &fileReviewRepository{db: db},
		Driver:   "file",
	}, nil
}

func (db *fileDB) loadProducts() ([]models.Product, error) {
	var products []models.Product
	if err := readJSON(db.productsPath, &products); err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	return products, nil
}

func (db *fileDB) saveProducts(products []models.Product) error {
	stripped := make([]models.Product, len(products))
	for i, p := range products {
		p.Reviews = nil
		stripped[i] = p
	}
	if err := writeJSON(db.productsPath, stripped); err != nil {
		return fmt.Errorf("failed to save products: %w", err)
	}
	return nil
}

func (db *fileDB) loadReviews() ([]models.Review, error) {
	var reviews []models.Review
	if err := readJSON(db.reviewsPath, &reviews); err != nil {
		return nil, fmt.Errorf("failed to load reviews: %w", err)
	}
	return reviews, nil
}

func (db *fileDB) saveReviews(reviews []models.Review) error {
	if err := writeJSON(db.reviewsPath, reviews); err != nil {
		return fmt.Errorf("failed to save reviews: %w", err)
	}
	return nil
}

// readJSON treats a missing file as an empty collection.
func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

type fileProductRepository struct {
	db *fileDB
}

func (r *fileProductRepository) Create(ctx context.Context, product *models.Product) error {
	r.db.productsMu.Lock()
	defer r.db.productsMu.Unlock()

	products, err := r.db.loadProducts()
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ID == product.ID {
			return fmt.Errorf("product %s already exists", product.ID)
		}
	}
	return r.db.saveProducts(append(products, *product))
}

func (r *fileProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	var (
		products []models.Product
		reviews  []models.Review
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		products, err = r.db.loadProducts()
		return err
	})
	g.Go(func() error {
		var err error
		reviews, err = r.db.loadReviews()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	filtered := make([]models.Product, 0, len(products))
	for i := range products {
		if filter.Matches(&products[i]) {
			filtered = append(filtered, products[i])
		}
	}
	attachReviews(filtered, reviews)
	return filtered, nil
}

func (r *fileProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	products, err := r.db.loadProducts()
	if err != nil {
		return nil, err
	}

	for i := range products {
		if products[i].ID != id {
			continue
		}
		reviews, err := r.db.loadReviews()
		if err != nil {
			return nil, err
		}
		found := products[i : i+1]
		attachReviews(found, reviews)
		return &found[0], nil
	}
	return nil, ErrProductNotFound
}

func (r *fileProductRepository) Update(ctx context.Context, id string, mutate ProductMutator) (*models.Product, error) {
	r.db.productsMu.Lock()
	defer r.db.productsMu.Unlock()

	products, err := r.db.loadProducts()
	if err != nil {
		return nil, err
	}

	for i := range products {
		if products[i].ID != id {
			continue
		}
		updated := products[i]
		if err := mutate(&updated); err != nil {
			return nil, err
		}
		updated.ID = id
		products[i] = updated
		if err := r.db.saveProducts(products); err != nil {
			return nil, err
		}

		reviews, err := r.db.loadReviews()
		if err != nil {
			return nil, err
		}
		result := []models.Product{updated}
		attachReviews(result, reviews)
		return &result[0], nil
	}
	return nil, ErrProductNotFound
}

func (r *fileProductRepository) Delete(ctx context.Context, id string) error {
	r.db.productsMu.Lock()
	defer r.db.productsMu.Unlock()

	products, err := r.db.loadProducts()
	if err != nil {
		return err
	}

	remaining := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.ID != id {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) == len(products) {
		return ErrProductNotFound
	}
	if err := r.db.saveProducts(remaining); err != nil {
		return err
	}

	r.db.reviewsMu.Lock()
	defer r.db.reviewsMu.Unlock()

	reviews, err := r.db.loadReviews()
	if err != nil {
		return err
	}
	kept := make([]models.Review, 0, len(reviews))
	for _, review := range reviews {
		if review.ProductID != id {
			kept = append(kept, review)
		}
	}
	if len(kept) == len(reviews) {
		return nil
	}
	return r.db.saveReviews(kept)
}

type fileReviewRepository struct {
	db *fileDB
}

func (r *fileReviewRepository) productExists(id string) (bool, error) {
	products, err := r.db.loadProducts()
	if err != nil {
		return false, err
	}
	for _, p := range products {
		if p.ID == id {
			return true, nil
		}
	}
	return false, nil
}

func (r *fileReviewRepository) Create(ctx context.Context, productID string, review *models.Review) error {
	r.db.productsMu.Lock()
	defer r.db.productsMu.Unlock()

	exists, err := r.productExists(productID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrProductNotFound
	}

	r.db.reviewsMu.Lock()
	defer r.db.reviewsMu.Unlock()

	reviews, err := r.db.loadReviews()
	if err != nil {
		return err
	}
	review.ProductID = productID
	return r.db.saveReviews(append(reviews, *review))
}

func (r *fileReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	exists, err := r.productExists(productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	reviews, err := r.db.loadReviews()
	if err != nil {
		return nil, err
	}
	matched := make([]models.Review, 0)
	for _, review := range reviews {
		if review.ProductID == productID {
			matched = append(matched, review)
		}
	}
	return matched, nil
}

func (r *fileReviewRepository) GetByID(ctx context.Context, productID, reviewID string) (*models.Review, error) {
	reviews, err := r.db.loadReviews()
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		if reviews[i].ID == reviewID && reviews[i].ProductID == productID {
			return &reviews[i], nil
		}
	}
	return nil, r.missing(productID)
}

func (r *fileReviewRepository) Update(ctx context.Context, productID, reviewID string, mutate ReviewMutator) (*models.Review, error) {
	r.db.reviewsMu.Lock()
	defer r.db.reviewsMu.Unlock()

	reviews, err := r.db.loadReviews()
	if err != nil {
		return nil, err
	}
	for i := range reviews {
		if reviews[i].ID != reviewID || reviews[i].ProductID != productID {
			continue
		}
		updated := reviews[i]
		if err := mutate(&updated); err != nil {
			return nil, err
		}
		updated.ID = reviewID
		updated.ProductID = productID
		reviews[i] = updated
		if err := r.db.saveReviews(reviews); err != nil {
			return nil, err
		}
		return &updated, nil
	}
	return nil, r.missing(productID)
}

func (r *fileReviewRepository) Delete(ctx context.Context, productID, reviewID string) error {
	r.db.reviewsMu.Lock()
	defer r.db.reviewsMu.Unlock()

	reviews, err := r.db.loadReviews()
	if err != nil {
		return err
	}
	kept := make([]models.Review, 0, len(reviews))
	for _, review := range reviews {
		if review.ID == reviewID && review.ProductID == productID {
			continue
		}
		kept = append(kept, review)
	}
	if len(kept) == len(reviews) {
		return r.missing(productID)
	}
	return r.db.saveReviews(kept)
}

// missing distinguishes an unknown product from an unknown review.
func (r *fileReviewRepository) missing(productID string) error {
	exists, err := r.productExists(productID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrReviewNotFound
}
