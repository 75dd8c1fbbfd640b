package handlers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/princeprakhar/product-catalog/internal/models"
	"github.com/princeprakhar/product-catalog/internal/repository"
	"github.com/princeprakhar/product-catalog/internal/services"
	"github.com/princeprakhar/product-catalog/internal/utils"
	apperrors "github.com/princeprakhar/product-catalog/pkg/errors"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	productID := c.Param("id")

	var req models.CreateReviewRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		_ = c.Error(invalidBody())
		return
	}

	review, err := h.reviewService.CreateReview(c.Request.Context(), productID, req)
	if err != nil {
		if errors.Is(err, services.ErrProductMismatch) {
			// the body names the product the client meant to review
			_ = c.Error(apperrors.NotFound(fmt.Sprintf("Product with id %s was not found", *req.ProductID), err))
			return
		}
		_ = c.Error(reviewError(productID, "", err))
		return
	}

	utils.SendCreated(c, fmt.Sprintf("Review with id %s was created successfully", review.ID), review)
}

func (h *ReviewHandler) GetProductReviews(c *gin.Context) {
	productID := c.Param("id")

	reviews, err := h.reviewService.GetProductReviews(c.Request.Context(), productID)
	if err != nil {
		_ = c.Error(reviewError(productID, "", err))
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", reviews)
}

func (h *ReviewHandler) GetReview(c *gin.Context) {
	productID, reviewID := c.Param("id"), c.Param("reviewId")

	review, err := h.reviewService.GetReview(c.Request.Context(), productID, reviewID)
	if err != nil {
		_ = c.Error(reviewError(productID, reviewID, err))
		return
	}

	utils.SendSuccess(c, "Review retrieved successfully", review)
}

func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	productID, reviewID := c.Param("id"), c.Param("reviewId")

	var req models.UpdateReviewRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		_ = c.Error(invalidBody())
		return
	}

	review, err := h.reviewService.UpdateReview(c.Request.Context(), productID, reviewID, req)
	if err != nil {
		_ = c.Error(reviewError(productID, reviewID, err))
		return
	}

	utils.SendSuccess(c, "Review updated successfully", review)
}

func (h *ReviewHandler) DeleteReview(c *gin.Context) {
	productID, reviewID := c.Param("id"), c.Param("reviewId")

	if err := h.reviewService.DeleteReview(c.Request.Context(), productID, reviewID); err != nil {
		_ = c.Error(reviewError(productID, reviewID, err))
		return
	}

	utils.SendNoContent(c)
}

func reviewError(productID, reviewID string, err error) error {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		return apperrors.NotFound(fmt.Sprintf("Product with id %s was not found", productID), err)
	case errors.Is(err, repository.ErrReviewNotFound):
		return apperrors.NotFound(fmt.Sprintf("Review with id %s was not found", reviewID), err)
	case errors.Is(err, services.ErrInvalidRating):
		return apperrors.Validation(err.Error(), nil)
	}
	return err
}
