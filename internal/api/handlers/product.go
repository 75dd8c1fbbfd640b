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
	"github.com/princeprakhar/product-catalog/internal/validation"
	apperrors "github.com/princeprakhar/product-catalog/pkg/errors"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		_ = c.Error(invalidBody())
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SendCreated(c, fmt.Sprintf("Product with id %s was created", product.ID), product)
}

func (h *ProductHandler) GetAllProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Category: c.Query("category"),
	}

	products, err := h.productService.GetProducts(c.Request.Context(), filter)
	if err != nil {
		_ = c.Error(err)
		return
	}

	utils.SendSuccess(c, "Products retrieved successfully", products)
}

func (h *ProductHandler) GetProduct(c *gin.Context) {
	productID := c.Param("id")

	product, err := h.productService.GetProductByID(c.Request.Context(), productID)
	if err != nil {
		_ = c.Error(productError(productID, err))
		return
	}

	utils.SendSuccess(c, "Product retrieved successfully", product)
}

// UpdateProduct merges the fields present in the body over the stored product.
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	productID := c.Param("id")

	var req models.UpdateProductRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		_ = c.Error(invalidBody())
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), productID, req)
	if err != nil {
		_ = c.Error(productError(productID, err))
		return
	}

	utils.SendSuccess(c, "Product updated successfully", product)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	productID := c.Param("id")

	if err := h.productService.DeleteProduct(c.Request.Context(), productID); err != nil {
		_ = c.Error(productError(productID, err))
		return
	}

	utils.SendNoContent(c)
}

// UploadImage replaces the product image with the multipart "image" file.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	productID := c.Param("id")

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		_ = c.Error(apperrors.Validation("An image file is required in the 'image' field", nil))
		return
	}
	defer file.Close()

	product, err := h.productService.UploadImage(c.Request.Context(), productID, file, header)
	if err != nil {
		if errors.Is(err, services.ErrInvalidImage) {
			_ = c.Error(apperrors.Validation(err.Error(), nil))
			return
		}
		_ = c.Error(productError(productID, err))
		return
	}

	utils.SendSuccess(c, "Image uploaded successfully", product)
}

// invalidBody covers bodies that passed the schema but still do not bind.
func invalidBody() error {
	return apperrors.Validation("Invalid request data", []validation.Violation{validation.NotAnObject()})
}

func productError(productID string, err error) error {
	if errors.Is(err, repository.ErrProductNotFound) {
		return apperrors.NotFound(fmt.Sprintf("Product with id %s was not found", productID), err)
	}
	return err
}
