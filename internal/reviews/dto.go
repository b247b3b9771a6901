package reviews

import (
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/google/uuid"
)

type CreateReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Title   *string `json:"title,omitempty" validate:"omitempty,max=100"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,max=1000"`
}

type ReviewDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	ProductID uuid.UUID `json:"productId"`
	Rating    int       `json:"rating"`
	Title     *string   `json:"title,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
	Verified  bool      `json:"verified"`
	Helpful   int       `json:"helpful"`
	CreatedAt time.Time `json:"createdAt"`
}

type ListResult struct {
	Items      []ReviewDTO `json:"items"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

func FromModel(r models.Review) ReviewDTO {
	return ReviewDTO{
		ID:        r.ID,
		UserID:    r.UserID,
		ProductID: r.ProductID,
		Rating:    r.Rating,
		Title:     r.Title,
		Comment:   r.Comment,
		Verified:  r.Verified,
		Helpful:   r.Helpful,
		CreatedAt: r.CreatedAt,
	}
}
