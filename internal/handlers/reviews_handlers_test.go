package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bookinfo-reviews/internal/clients"
	"bookinfo-reviews/internal/config"
	"bookinfo-reviews/internal/metrics"
	"bookinfo-reviews/internal/models"
	"bookinfo-reviews/internal/repository"
)

// MockRatingsFetcher is a mock implementation of RatingsFetcher
type MockRatingsFetcher struct {
	mock.Mock
}

func (m *MockRatingsFetcher) GetRatings(ctx context.Context, productID string, inbound http.Header) models.RatingResult {
	args := m.Called(ctx, productID, inbound)
	return args.Get(0).(models.RatingResult)
}

// Helper to setup test router
func setupTestRouter(cfg *config.Config, ratings RatingsFetcher) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := logtest.NewNullLogger()

	h := NewReviewsHandler(cfg, repository.NewReviewsRepository(), ratings, metrics.New(prometheus.NewRegistry()), logger)
	r := gin.New()
	RegisterRoutes(r, h)
	return r
}

func testConfig(enabled bool) *config.Config {
	return &config.Config{
		RatingsEnabled:      enabled,
		StarColor:           "red",
		PodName:             "reviews-v2-7f9c",
		ClusterName:         "cluster-east",
		RatingsServiceURL:   "http://ratings:9080/ratings",
		RatingsTimeoutLong:  time.Second,
		RatingsTimeoutShort: 200 * time.Millisecond,
	}
}

func getJSON(t *testing.T, router http.Handler, req *http.Request) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w, body
}

func reviewsOf(t *testing.T, body map[string]interface{}) []map[string]interface{} {
	t.Helper()
	raw, ok := body["reviews"].([]interface{})
	require.True(t, ok, "reviews must be an array")
	out := make([]map[string]interface{}, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.(map[string]interface{}))
	}
	return out
}

func TestHealthCheck(t *testing.T) {
	fetcher := new(MockRatingsFetcher)
	router := setupTestRouter(testConfig(true), fetcher)

	for _, path := range []string{"/health", "/ready"} {
		w, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, path, nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, map[string]interface{}{"status": "Reviews is healthy"}, body)
	}
	fetcher.AssertNotCalled(t, "GetRatings", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProductReviewsRatingsDisabled(t *testing.T) {
	fetcher := new(MockRatingsFetcher)
	router := setupTestRouter(testConfig(false), fetcher)

	w, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, "/reviews/0", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", body["id"])
	assert.Equal(t, "reviews-v2-7f9c", body["podname"])
	assert.Equal(t, "cluster-east", body["clustername"])

	reviews := reviewsOf(t, body)
	require.Len(t, reviews, 2)
	assert.Equal(t, "Reviewer1", reviews[0]["reviewer"])
	assert.Equal(t, "Reviewer2", reviews[1]["reviewer"])
	for _, review := range reviews {
		assert.NotEmpty(t, review["text"])
		assert.NotContains(t, review, "rating")
	}
	fetcher.AssertNotCalled(t, "GetRatings", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetProductReviewsRatingsPresent(t *testing.T) {
	fetcher := new(MockRatingsFetcher)
	fetcher.On("GetRatings", mock.Anything, "0", mock.Anything).Return(models.PresentRatings(5, 4))
	router := setupTestRouter(testConfig(true), fetcher)

	w, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, "/reviews/0", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	reviews := reviewsOf(t, body)
	require.Len(t, reviews, 2)
	assert.Equal(t, map[string]interface{}{"stars": 5.0, "color": "red"}, reviews[0]["rating"])
	assert.Equal(t, map[string]interface{}{"stars": 4.0, "color": "red"}, reviews[1]["rating"])
	fetcher.AssertExpectations(t)
}

func TestGetProductReviewsZeroStars(t *testing.T) {
	fetcher := new(MockRatingsFetcher)
	fetcher.On("GetRatings", mock.Anything, "2", mock.Anything).Return(models.PresentRatings(0, 1))
	router := setupTestRouter(testConfig(true), fetcher)

	_, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, "/reviews/2", nil))

	reviews := reviewsOf(t, body)
	assert.Equal(t, map[string]interface{}{"stars": 0.0, "color": "red"}, reviews[0]["rating"])
}

func TestGetProductReviewsRatingsAbsent(t *testing.T) {
	for _, reason := range []models.AbsentReason{models.AbsentUnavailable, models.AbsentMalformedResponse} {
		t.Run(string(reason), func(t *testing.T) {
			fetcher := new(MockRatingsFetcher)
			fetcher.On("GetRatings", mock.Anything, "7", mock.Anything).Return(models.AbsentRatings(reason))
			router := setupTestRouter(testConfig(true), fetcher)

			w, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, "/reviews/7", nil))

			assert.Equal(t, http.StatusOK, w.Code)
			reviews := reviewsOf(t, body)
			require.Len(t, reviews, 2)
			for _, review := range reviews {
				assert.Equal(t, map[string]interface{}{"error": "Ratings service is currently unavailable"}, review["rating"])
			}
		})
	}
}

func TestGetProductReviewsPassesInboundHeaders(t *testing.T) {
	fetcher := new(MockRatingsFetcher)
	fetcher.On("GetRatings", mock.Anything, "3", mock.MatchedBy(func(h http.Header) bool {
		return h.Get("x-request-id") == "abc"
	})).Return(models.PresentRatings(1, 1))
	router := setupTestRouter(testConfig(true), fetcher)

	req := httptest.NewRequest(http.MethodGet, "/reviews/3", nil)
	req.Header.Set("x-request-id", "abc")
	w, _ := getJSON(t, router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	fetcher.AssertExpectations(t)
}

func TestGetProductReviewsInvalidProductID(t *testing.T) {
	tests := []string{"abc", "1.5", "12abc", "99999999999999999999999"}

	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			fetcher := new(MockRatingsFetcher)
			router := setupTestRouter(testConfig(true), fetcher)

			w, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, "/reviews/"+id, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, false, body["success"])
			errBody := body["error"].(map[string]interface{})
			assert.Equal(t, "INVALID_PRODUCT_ID", errBody["code"])
			fetcher.AssertNotCalled(t, "GetRatings", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGetProductReviewsNormalizesProductID(t *testing.T) {
	fetcher := new(MockRatingsFetcher)
	fetcher.On("GetRatings", mock.Anything, "7", mock.Anything).Return(models.PresentRatings(2, 3))
	router := setupTestRouter(testConfig(true), fetcher)

	w, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, "/reviews/007", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "7", body["id"])
	fetcher.AssertExpectations(t)
}

// End to end through the real ratings client against a fake ratings service.
func TestGetProductReviewsWithRatingsService(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    []interface{}
	}{
		{
			name: "ratings available",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"id":1,"ratings":{"Reviewer1":5,"Reviewer2":4}}`))
			},
			want: []interface{}{
				map[string]interface{}{"stars": 5.0, "color": "red"},
				map[string]interface{}{"stars": 4.0, "color": "red"},
			},
		},
		{
			name: "ratings service failing",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			want: []interface{}{
				map[string]interface{}{"error": "Ratings service is currently unavailable"},
				map[string]interface{}{"error": "Ratings service is currently unavailable"},
			},
		},
		{
			name: "ratings service too slow",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			want: []interface{}{
				map[string]interface{}{"error": "Ratings service is currently unavailable"},
				map[string]interface{}{"error": "Ratings service is currently unavailable"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forwarded := make(chan http.Header, 1)
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				forwarded <- r.Header.Clone()
				tt.handler(w, r)
			}))
			defer srv.Close()

			cfg := testConfig(true)
			cfg.RatingsServiceURL = srv.URL + "/ratings"
			logger, _ := logtest.NewNullLogger()
			client := clients.NewRatingsClient(cfg, nil, nil, logger)
			router := setupTestRouter(cfg, client)

			req := httptest.NewRequest(http.MethodGet, "/reviews/1", nil)
			req.Header.Set("x-request-id", "req-1")
			req.Header.Set("x-custom-unlisted", "nope")
			w, body := getJSON(t, router, req)

			assert.Equal(t, http.StatusOK, w.Code)
			reviews := reviewsOf(t, body)
			require.Len(t, reviews, 2)
			assert.Equal(t, tt.want[0], reviews[0]["rating"])
			assert.Equal(t, tt.want[1], reviews[1]["rating"])

			got := <-forwarded
			assert.Equal(t, "req-1", got.Get("x-request-id"))
			assert.Empty(t, got.Get("x-custom-unlisted"))
		})
	}
}

func TestGetProductReviewsRatingsServiceDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := testConfig(true)
	cfg.RatingsServiceURL = url + "/ratings"
	logger, _ := logtest.NewNullLogger()
	router := setupTestRouter(cfg, clients.NewRatingsClient(cfg, nil, nil, logger))

	w, body := getJSON(t, router, httptest.NewRequest(http.MethodGet, "/reviews/4", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	reviews := reviewsOf(t, body)
	require.Len(t, reviews, 2)
	for _, review := range reviews {
		assert.Equal(t, map[string]interface{}{"error": "Ratings service is currently unavailable"}, review["rating"])
	}
}
