package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/product-catalog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const creationOrder = "created_at ASC, id ASC"

// NewGormStore keeps reviews in their own table; the foreign key cascades
// product deletes at the database level and Delete removes them explicitly
// as well for schemas migrated without the constraint.
func NewGormStore(db *gorm.DB) *Store {
	return &Store{
		Products: &gormProductRepository{db: db},
		Reviews:  &gormReviewRepository{db: db},
		Driver:   "postgres",
		closer: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		},
	}
}

func orderedReviews(db *gorm.DB) *gorm.DB {
	return db.Order(creationOrder)
}

func withEmptyReviews(products []models.Product) {
	for i := range products {
		if products[i].Reviews == nil {
			products[i].Reviews = []models.Review{}
		}
	}
}

type gormProductRepository struct {
	db *gorm.DB
}

func (r *gormProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(product).Error; err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *gormProductRepository) List(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	query := r.db.WithContext(ctx).Preload("Reviews", orderedReviews).Order(creationOrder)
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}

	products := make([]models.Product, 0)
	if err := query.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch products: %w", err)
	}
	withEmptyReviews(products)
	return products, nil
}

func (r *gormProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("Reviews", orderedReviews).
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to fetch product: %w", err)
	}

	found := []models.Product{product}
	withEmptyReviews(found)
	return &found[0], nil
}

func (r *gormProductRepository) Update(ctx context.Context, id string, mutate ProductMutator) (*models.Product, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		if err := mutate(&product); err != nil {
			return err
		}
		product.ID = id
		product.Reviews = nil

		return tx.Omit(clause.Associations).Save(&product).Error
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return r.GetByID(ctx, id)
}

func (r *gormProductRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}

		result := tx.Where("id = ?", id).Delete(&models.Product{})
		if result.Error != nil {
			return fmt.Errorf("failed to delete product: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

type gormReviewRepository struct {
	db *gorm.DB
}

func (r *gormReviewRepository) productExists(tx *gorm.DB, id string) (bool, error) {
	var count int64
	if err := tx.Model(&models.Product{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to look up product: %w", err)
	}
	return count > 0, nil
}

func (r *gormReviewRepository) missing(ctx context.Context, productID string) error {
	exists, err := r.productExists(r.db.WithContext(ctx), productID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrProductNotFound
	}
	return ErrReviewNotFound
}

func (r *gormReviewRepository) Create(ctx context.Context, productID string, review *models.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Select("id").
			Where("id = ?", productID).
			First(&product).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}

		review.ProductID = productID
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("failed to create review: %w", err)
		}
		return nil
	})
}

func (r *gormReviewRepository) ListByProduct(ctx context.Context, productID string) ([]models.Review, error) {
	db := r.db.WithContext(ctx)

	exists, err := r.productExists(db, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrProductNotFound
	}

	reviews := make([]models.Review, 0)
	if err := db.Where("product_id = ?", productID).Order(creationOrder).Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}
	return reviews, nil
}

func (r *gormReviewRepository) GetByID(ctx context.Context, productID, reviewID string) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", reviewID, productID).
		First(&review).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.missing(ctx, productID)
		}
		return nil, fmt.Errorf("failed to fetch review: %w", err)
	}
	return &review, nil
}

func (r *gormReviewRepository) Update(ctx context.Context, productID, reviewID string, mutate ReviewMutator) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND product_id = ?", reviewID, productID).
			First(&review).Error
		if err != nil {
			return err
		}

		if err := mutate(&review); err != nil {
			return err
		}
		review.ID = reviewID
		review.ProductID = productID

		return tx.Save(&review).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, r.missing(ctx, productID)
		}
		return nil, fmt.Errorf("failed to update review: %w", err)
	}
	return &review, nil
}

func (r *gormReviewRepository) Delete(ctx context.Context, productID, reviewID string) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND product_id = ?", reviewID, productID).
		Delete(&models.Review{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete review: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return r.missing(ctx, productID)
	}
	return nil
}
