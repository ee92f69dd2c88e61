// internal/domain/catalog/review_service.go
package catalog

import (
	"errors"
	"fmt"

	"github.com/your-org/flowershop-backend/internal/pkg/apperr"
	"gorm.io/gorm"
)

// ReviewService handles bouquet reviews
type ReviewService struct {
	db *gorm.DB
}

// NewReviewService creates a new review service
func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// CreateReviewRequest represents review submission data
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// ReviewListResponse represents reviews for a bouquet with the average rating
type ReviewListResponse struct {
	Reviews       []Review `json:"reviews"`
	AverageRating float64  `json:"average_rating"`
	Count         int64    `json:"count"`
}

// CreateReview records one review per user per bouquet
func (s *ReviewService) CreateReview(userID, bouquetID uint, req *CreateReviewRequest) (*Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, apperr.Validationf("rating must be between 1 and 5")
	}

	var bouquet Bouquet
	if err := s.db.First(&bouquet, bouquetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bouquet")
		}
		return nil, fmt.Errorf("failed to fetch bouquet: %w", err)
	}

	var existing Review
	if err := s.db.Where("bouquet_id = ? AND user_id = ?", bouquetID, userID).First(&existing).Error; err == nil {
		return nil, apperr.Validationf("you have already reviewed this bouquet")
	}

	review := &Review{
		BouquetID: bouquetID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}

	if err := s.db.Create(review).Error; err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}

	return review, nil
}

// GetBouquetReviews returns all reviews for a bouquet with the average rating
func (s *ReviewService) GetBouquetReviews(bouquetID uint) (*ReviewListResponse, error) {
	var bouquet Bouquet
	if err := s.db.First(&bouquet, bouquetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("bouquet")
		}
		return nil, fmt.Errorf("failed to fetch bouquet: %w", err)
	}

	var reviews []Review
	if err := s.db.Where("bouquet_id = ?", bouquetID).Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch reviews: %w", err)
	}

	var average float64
	if len(reviews) > 0 {
		var sum int
		for _, r := range reviews {
			sum += r.Rating
		}
		average = float64(sum) / float64(len(reviews))
	}

	return &ReviewListResponse{
		Reviews:       reviews,
		AverageRating: average,
		Count:         int64(len(reviews)),
	}, nil
}
