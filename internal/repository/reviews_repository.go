package repository

import "bookinfo-reviews/internal/models"

// ReviewsRepository serves the review texts. Every product shares the same
// two reviews.
type ReviewsRepository struct {
	reviews []models.Review
}

var defaultReviews = []models.Review{
	{
		Reviewer: models.Reviewer1,
		Text:     "A science-fiction masterpiece. Nolan executes a marvelous direction that slowly but efficiently puts in place a dark world creating a necessity to save humanity. Add to that great performances from Nolan and Hathaway plus a great score from Hans Zimmer. The result is on the best science-fiction movies of all time.",
	},
	{
		Reviewer: models.Reviewer2,
		Text:     "This is first time ever that i claped to a movie, and i mean EVER. This is just incredible. There's no other movie as close. It could easily be the best I've ever seen. Just wow....",
	},
}

func NewReviewsRepository() *ReviewsRepository {
	return &ReviewsRepository{reviews: defaultReviews}
}

// GetReviewsByProduct returns fresh copies of the reviews of productID
func (r *ReviewsRepository) GetReviewsByProduct(productID string) []models.Review {
	reviews := make([]models.Review, len(r.reviews))
	copy(reviews, r.reviews)
	return reviews
}
