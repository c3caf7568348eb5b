package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"bookinfo-reviews/internal/config"
	"bookinfo-reviews/internal/metrics"
	"bookinfo-reviews/internal/models"
	"bookinfo-reviews/internal/repository"
)

// RatingsFetcher looks up the ratings of a product. Implementations never
// fail: an unreachable ratings service yields an absent result.
type RatingsFetcher interface {
	GetRatings(ctx context.Context, productID string, inbound http.Header) models.RatingResult
}

type ReviewsHandler struct {
	repo           *repository.ReviewsRepository
	ratings        RatingsFetcher
	ratingsEnabled bool
	starColor      string
	podName        string
	clusterName    string
	metrics        *metrics.Metrics
	logger         *logrus.Entry
}

// NewReviewsHandler creates the reviews handler. ratings is only called when
// ratings are enabled in cfg.
func NewReviewsHandler(cfg *config.Config, repo *repository.ReviewsRepository, ratings RatingsFetcher, m *metrics.Metrics, logger *logrus.Logger) *ReviewsHandler {
	return &ReviewsHandler{
		repo:           repo,
		ratings:        ratings,
		ratingsEnabled: cfg.RatingsEnabled,
		starColor:      cfg.StarColor,
		podName:        cfg.PodName,
		clusterName:    cfg.ClusterName,
		metrics:        m,
		logger:         logger.WithField("component", "handlers.reviews"),
	}
}

// GetProductReviews returns the reviews of a product
// @Summary Get product reviews
// @Description Returns the two reviews of a product, with ratings when the ratings service is enabled
// @Tags reviews
// @Produce json
// @Param productId path int true "Product ID"
// @Success 200 {object} models.ReviewPayload
// @Failure 400 {object} models.ErrorResponse
// @Router /reviews/{productId} [get]
func (h *ReviewsHandler) GetProductReviews(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_PRODUCT_ID",
				Message: "Product ID must be an integer",
			},
			RequestID: c.GetString("request_id"),
		})
		return
	}
	productID := strconv.Itoa(id)

	result := models.AbsentRatings(models.AbsentDisabled)
	if h.ratingsEnabled {
		result = h.ratings.GetRatings(c.Request.Context(), productID, c.Request.Header)
	}

	payload := h.composePayload(productID, result)

	mode := "disabled"
	switch {
	case result.Present():
		mode = "present"
	case result.Reason() != models.AbsentDisabled:
		mode = "absent"
		h.logger.WithFields(logrus.Fields{
			"product_id": productID,
			"reason":     result.Reason(),
			"request_id": c.GetString("request_id"),
		}).Warn("Serving reviews without ratings")
	}
	h.metrics.IncReviewsServed(mode)

	c.JSON(http.StatusOK, payload)
}

func (h *ReviewsHandler) composePayload(productID string, result models.RatingResult) models.ReviewPayload {
	reviews := h.repo.GetReviewsByProduct(productID)
	for i := range reviews {
		reviews[i].Rating = h.ratingFor(reviews[i].Reviewer, result)
	}

	return models.ReviewPayload{
		ID:          productID,
		PodName:     h.podName,
		ClusterName: h.clusterName,
		Reviews:     reviews,
	}
}

// ratingFor renders the rating block of one reviewer. Disabled ratings
// render no block; a failed lookup renders an error block.
func (h *ReviewsHandler) ratingFor(reviewer string, result models.RatingResult) *models.Rating {
	if !h.ratingsEnabled || result.Reason() == models.AbsentDisabled {
		return nil
	}
	if stars, ok := result.StarsFor(reviewer); ok {
		return &models.Rating{Stars: &stars, Color: h.starColor}
	}
	return &models.Rating{Error: models.RatingsUnavailableMessage}
}
