package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/princeprakhar/product-catalog/pkg/errors"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimitMiddleware limits each client to rps requests per second and
// path. A non-positive rps disables limiting.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	if rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	rate := limiter.Rate{
		Period: time.Second,
		Limit:  int64(rps),
	}

	store := memory.NewStore()
	instance := limiter.New(store, rate, limiter.WithTrustForwardHeader(true))

	return mgin.NewMiddleware(instance,
		mgin.WithKeyGetter(func(c *gin.Context) string {
			return fmt.Sprintf("%s:%s", c.ClientIP(), c.Request.URL.Path)
		}),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			rateLimitRejects.Inc()
			c.Header("Retry-After", "1")
			writeError(c, apperrors.New("TOO_MANY_REQUESTS", "Rate limit exceeded", http.StatusTooManyRequests, nil))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			writeError(c, apperrors.Internal("Internal server error", err))
		}),
	)
}
