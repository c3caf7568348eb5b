package models

// Reviewer names double as the keys of the ratings service response.
const (
	Reviewer1 = "Reviewer1"
	Reviewer2 = "Reviewer2"
)

// RatingsUnavailableMessage is rendered for each reviewer when ratings are
// enabled but could not be fetched.
const RatingsUnavailableMessage = "Ratings service is currently unavailable"

// AbsentReason explains why a RatingResult carries no stars
type AbsentReason string

const (
	AbsentDisabled          AbsentReason = "disabled"
	AbsentUnavailable       AbsentReason = "unavailable"
	AbsentMalformedResponse AbsentReason = "malformed_response"
)

// RatingResult is the outcome of one ratings lookup. It is either present,
// carrying the stars of both reviewers, or absent with a reason. Use
// PresentRatings and AbsentRatings to build one.
type RatingResult struct {
	present        bool
	reason         AbsentReason
	reviewer1Stars int
	reviewer2Stars int
}

// PresentRatings returns a result carrying the stars of both reviewers.
func PresentRatings(reviewer1Stars, reviewer2Stars int) RatingResult {
	return RatingResult{present: true, reviewer1Stars: reviewer1Stars, reviewer2Stars: reviewer2Stars}
}

// AbsentRatings returns a result with no stars.
func AbsentRatings(reason AbsentReason) RatingResult {
	return RatingResult{reason: reason}
}

// Stars returns the stars of both reviewers and true when the result is
// present. An absent result returns zeros and false.
func (r RatingResult) Stars() (reviewer1, reviewer2 int, ok bool) {
	if !r.present {
		return 0, 0, false
	}
	return r.reviewer1Stars, r.reviewer2Stars, true
}

// Present reports whether the result carries stars.
func (r RatingResult) Present() bool {
	return r.present
}

// Reason returns why the result is absent, or "" for a present result.
func (r RatingResult) Reason() AbsentReason {
	return r.reason
}

// StarsFor returns the stars of the named reviewer.
func (r RatingResult) StarsFor(reviewer string) (int, bool) {
	if !r.present {
		return 0, false
	}
	switch reviewer {
	case Reviewer1:
		return r.reviewer1Stars, true
	case Reviewer2:
		return r.reviewer2Stars, true
	}
	return 0, false
}

// Rating is the rating block attached to a review. It holds either stars and
// a color, or an error message.
type Rating struct {
	Stars *int   `json:"stars,omitempty"`
	Color string `json:"color,omitempty"`
	Error string `json:"error,omitempty"`
}

// Review is one reviewer entry of the payload
type Review struct {
	Reviewer string  `json:"reviewer"`
	Text     string  `json:"text"`
	Rating   *Rating `json:"rating,omitempty"`
}

// ReviewPayload is the response body of GET /reviews/:productId
type ReviewPayload struct {
	ID          string   `json:"id"`
	PodName     string   `json:"podname"`
	ClusterName string   `json:"clustername"`
	Reviews     []Review `json:"reviews"`
}

// HealthResponse is the response body of GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success   bool   `json:"success"`
	Error     Error  `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

// Error contains error details
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
