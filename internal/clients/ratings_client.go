package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"bookinfo-reviews/internal/cache"
	"bookinfo-reviews/internal/config"
	"bookinfo-reviews/internal/metrics"
	"bookinfo-reviews/internal/models"
)

const maxRatingsBodySize = 1 << 20

var (
	// ErrRatingsUnavailable covers transport failures, timeouts and non-200 answers.
	ErrRatingsUnavailable = errors.New("ratings service unavailable")
	// ErrMalformedRatings means the ratings service answered 200 with an unexpected body.
	ErrMalformedRatings = errors.New("malformed ratings response")
)

// RatingsClient handles HTTP communication with the ratings service
type RatingsClient struct {
	baseURL    string
	timeout    time.Duration
	allowlist  HeaderAllowlist
	httpClient *http.Client
	cache      *cache.RatingsCache
	metrics    *metrics.Metrics
	logger     *logrus.Entry
}

// NewRatingsClient creates a ratings client from the service configuration.
// ratingsCache and m may be nil.
func NewRatingsClient(cfg *config.Config, ratingsCache *cache.RatingsCache, m *metrics.Metrics, logger *logrus.Logger) *RatingsClient {
	return &RatingsClient{
		baseURL:    cfg.RatingsServiceURL,
		timeout:    cfg.RatingsTimeout(),
		allowlist:  DefaultHeaderAllowlist,
		httpClient: &http.Client{},
		cache:      ratingsCache,
		metrics:    m,
		logger:     logger.WithField("component", "clients.ratings"),
	}
}

// Timeout returns the deadline applied to each ratings call.
func (c *RatingsClient) Timeout() time.Duration {
	return c.timeout
}

// GetRatings fetches the ratings of productID, forwarding the allowlisted
// subset of inbound. Failures are logged and returned as an absent result;
// there is no retry.
func (c *RatingsClient) GetRatings(ctx context.Context, productID string, inbound http.Header) models.RatingResult {
	if cached, ok, err := c.cache.Get(ctx, productID); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("Ratings cache read failed")
	} else if ok {
		c.metrics.ObserveRatingsCall(metrics.OutcomeCacheHit, 0)
		return cached
	}

	start := time.Now()
	reviewer1, reviewer2, err := c.fetch(ctx, productID, inbound)
	elapsed := time.Since(start)

	if err != nil {
		reason := models.AbsentUnavailable
		outcome := metrics.OutcomeUnavailable
		if errors.Is(err, ErrMalformedRatings) {
			reason = models.AbsentMalformedResponse
			outcome = metrics.OutcomeMalformed
		}
		c.metrics.ObserveRatingsCall(outcome, elapsed)
		c.logger.WithError(err).WithFields(logrus.Fields{
			"url":        c.ratingsURL(productID),
			"product_id": productID,
			"reason":     reason,
			"elapsed":    elapsed.String(),
		}).Error("Unable to fetch ratings")
		return models.AbsentRatings(reason)
	}

	c.metrics.ObserveRatingsCall(metrics.OutcomePresent, elapsed)
	result := models.PresentRatings(reviewer1, reviewer2)
	if err := c.cache.Set(ctx, productID, result); err != nil {
		c.logger.WithError(err).WithField("product_id", productID).Warn("Ratings cache write failed")
	}
	return result
}

func (c *RatingsClient) ratingsURL(productID string) string {
	return c.baseURL + "/" + productID
}

// fetch issues the single bounded call to the ratings service
func (c *RatingsClient) fetch(ctx context.Context, productID string, inbound http.Header) (int, int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.ratingsURL(productID), nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: failed to create request: %v", ErrRatingsUnavailable, err)
	}

	for name, values := range ForwardHeaders(c.allowlist, inbound) {
		req.Header[name] = values
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrRatingsUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxRatingsBodySize))
		return 0, 0, fmt.Errorf("%w: got status %d", ErrRatingsUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRatingsBodySize))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: failed to read response: %v", ErrRatingsUnavailable, err)
	}

	return decodeRatings(body)
}

// decodeRatings extracts both reviewers from {"ratings":{"Reviewer1":n,"Reviewer2":n}}.
// Keys match exactly.
func decodeRatings(body []byte) (int, int, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrMalformedRatings, err)
	}

	raw, ok := envelope["ratings"]
	if !ok {
		return 0, 0, fmt.Errorf("%w: missing ratings object", ErrMalformedRatings)
	}

	var ratings map[string]json.RawMessage
	if err := json.Unmarshal(raw, &ratings); err != nil || ratings == nil {
		return 0, 0, fmt.Errorf("%w: ratings is not an object", ErrMalformedRatings)
	}

	reviewer1, err := starsOf(ratings, models.Reviewer1)
	if err != nil {
		return 0, 0, err
	}
	reviewer2, err := starsOf(ratings, models.Reviewer2)
	if err != nil {
		return 0, 0, err
	}
	return reviewer1, reviewer2, nil
}

func starsOf(ratings map[string]json.RawMessage, reviewer string) (int, error) {
	raw, ok := ratings[reviewer]
	if !ok || string(raw) == "null" {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformedRatings, reviewer)
	}
	var stars int
	if err := json.Unmarshal(raw, &stars); err != nil {
		return 0, fmt.Errorf("%w: %s is not an integer", ErrMalformedRatings, reviewer)
	}
	return stars, nil
}
