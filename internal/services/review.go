package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/princeprakhar/product-catalog/internal/models"
	"github.com/princeprakhar/product-catalog/internal/repository"
	"github.com/princeprakhar/product-catalog/internal/utils"
	"github.com/princeprakhar/product-catalog/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ErrProductMismatch is returned when a review body names a different
// product than the one in the path, including an empty one.
var ErrProductMismatch = errors.New("review productId does not match the path product")

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

type ReviewService struct {
	reviews  repository.ReviewRepository
	notifier Notifier
	clock    clock
}

func NewReviewService(reviews repository.ReviewRepository, notifier Notifier) *ReviewService {
	if reviews == nil {
		panic("review repository cannot be nil")
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &ReviewService{
		reviews:  reviews,
		notifier: notifier,
		clock:    systemClock,
	}
}

func (s *ReviewService) CreateReview(ctx context.Context, productID string, req models.CreateReviewRequest) (*models.Review, error) {
	if req.ProductID != nil && *req.ProductID != productID {
		return nil, ErrProductMismatch
	}

	rate := models.DefaultRate
	if req.Rate != nil {
		rate = *req.Rate
	}
	if !utils.IsValidRating(rate) {
		return nil, ErrInvalidRating
	}

	now := s.clock.now()
	review := &models.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		Comment:   req.Comment,
		Rate:      rate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Create(ctx, productID, review); err != nil {
		return nil, err
	}

	go s.notify(*review)

	return review, nil
}

func (s *ReviewService) notify(review models.Review) {
	if err := s.notifier.ReviewCreated(context.Background(), &review); err != nil {
		logger.WithFields(logrus.Fields{
			"product_id": review.ProductID,
			"review_id":  review.ID,
		}).WithError(err).Warn("failed to send review notification")
	}
}

func (s *ReviewService) GetProductReviews(ctx context.Context, productID string) ([]models.Review, error) {
	return s.reviews.ListByProduct(ctx, productID)
}

func (s *ReviewService) GetReview(ctx context.Context, productID, reviewID string) (*models.Review, error) {
	return s.reviews.GetByID(ctx, productID, reviewID)
}

func (s *ReviewService) UpdateReview(ctx context.Context, productID, reviewID string, req models.UpdateReviewRequest) (*models.Review, error) {
	if req.Rate != nil && !utils.IsValidRating(*req.Rate) {
		return nil, ErrInvalidRating
	}

	return s.reviews.Update(ctx, productID, reviewID, func(r *models.Review) error {
		req.Apply(r)
		r.UpdatedAt = s.clock.after(r.UpdatedAt)
		return nil
	})
}

func (s *ReviewService) DeleteReview(ctx context.Context, productID, reviewID string) error {
	return s.reviews.Delete(ctx, productID, reviewID)
}
