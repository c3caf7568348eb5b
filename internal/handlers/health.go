package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookinfo-reviews/internal/models"
)

// HealthCheck returns the health status of the service
// @Summary Health check
// @Description Returns the health status of the reviews service
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{Status: "Reviews is healthy"})
}
