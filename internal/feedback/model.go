package feedback

import "time"

// Review is a user's rating of a place.
type Review struct {
	ID        string    `json:"_id"`
	PlaceID   string    `json:"placeId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	Images    []string  `json:"images,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateReviewRequest submits a review. Images hold ids returned by the
// gallery upload.
type CreateReviewRequest struct {
	PlaceID string   `json:"placeId"`
	Rating  int      `json:"rating"`
	Comment string   `json:"comment,omitempty"`
	Images  []string `json:"images,omitempty"`
}
