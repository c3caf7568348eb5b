package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the public endpoints of the reviews service.
func RegisterRoutes(r gin.IRouter, reviews *ReviewsHandler) {
	r.GET("/health", HealthCheck)
	r.GET("/ready", HealthCheck)
	r.GET("/reviews/:productId", reviews.GetProductReviews)
}
