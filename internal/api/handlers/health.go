package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	driver string
}

func NewHealthHandler(driver string) *HealthHandler {
	return &HealthHandler{driver: driver}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Server is running",
		"storage": h.driver,
	})
}
