package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/product-catalog/internal/api/handlers"
	"github.com/princeprakhar/product-catalog/internal/api/middleware"
	"github.com/princeprakhar/product-catalog/internal/config"
	"github.com/princeprakhar/product-catalog/internal/services"
	"github.com/princeprakhar/product-catalog/internal/validation"
	"github.com/princeprakhar/product-catalog/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type Services struct {
	Products *services.ProductService
	Reviews  *services.ReviewService
	Driver   string
}

func SetupRoutes(router *gin.Engine, cfg *config.Config, svc Services) {
	// Middleware; Recovery sits inside the logger and metrics so panics are recorded
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(middleware.Recovery())
	router.Use(middleware.CORSMiddleware(cfg.CORSOrigins))
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS))
	router.Use(middleware.ErrorHandler())

	productHandler := handlers.NewProductHandler(svc.Products)
	reviewHandler := handlers.NewReviewHandler(svc.Reviews)
	healthHandler := handlers.NewHealthHandler(svc.Driver)

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.Static("/public", cfg.PublicDir)

	auth := middleware.AuthMiddleware(cfg.AuthJWTSecret)

	products := router.Group("/products")
	{
		products.GET("", productHandler.GetAllProducts)
		products.POST("", auth, validation.Body(validation.ProductSchema, validation.Create), productHandler.CreateProduct)
		products.GET("/:id", productHandler.GetProduct)
		products.PUT("/:id", auth, validation.Body(validation.ProductSchema, validation.Patch), productHandler.UpdateProduct)
		products.DELETE("/:id", auth, productHandler.DeleteProduct)
		products.POST("/:id/image", auth, productHandler.UploadImage)

		products.GET("/:id/reviews", reviewHandler.GetProductReviews)
		products.POST("/:id/reviews", auth, validation.Body(validation.ReviewSchema, validation.Create), reviewHandler.CreateReview)
		products.GET("/:id/reviews/:reviewId", reviewHandler.GetReview)
		products.PUT("/:id/reviews/:reviewId", auth, validation.Body(validation.ReviewUpdateSchema, validation.Patch), reviewHandler.UpdateReview)
		products.DELETE("/:id/reviews/:reviewId", auth, reviewHandler.DeleteReview)
	}

	for _, route := range router.Routes() {
		logger.WithFields(logrus.Fields{
			"method": route.Method,
			"path":   route.Path,
		}).Debug("route registered")
	}
	logger.Infof("Routes initialized successfully (%d endpoints)", len(router.Routes()))
}
