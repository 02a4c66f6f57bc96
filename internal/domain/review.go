package domain

import (
	"time"
)

// Review is a single scored opinion on a title. At most one review per
// (title, author) pair; the database constraint is authoritative.
type Review struct {
	ID       string    `json:"id" db:"id"` // UUID
	TitleID  string    `json:"-" db:"title_id"`
	AuthorID string    `json:"-" db:"author_id"`
	Author   string    `json:"author" db:"author"` // username, joined on read
	Text     string    `json:"text" db:"text"`
	Score    int       `json:"score" db:"score"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
}

// Comment is a reply to a review.
type Comment struct {
	ID       string    `json:"id" db:"id"` // UUID
	ReviewID string    `json:"-" db:"review_id"`
	AuthorID string    `json:"-" db:"author_id"`
	Author   string    `json:"author" db:"author"` // username, joined on read
	Text     string    `json:"text" db:"text"`
	PubDate  time.Time `json:"pub_date" db:"pub_date"`
}

// CreateReviewRequest is the body of POST /titles/{title_id}/reviews.
type CreateReviewRequest struct {
	Text  string `json:"text" validate:"required,notblank"`
	Score int    `json:"score" validate:"required,gte=1,lte=10"`
}

// UpdateReviewRequest is the body of PATCH .../reviews/{review_id}.
type UpdateReviewRequest struct {
	Text  *string `json:"text,omitempty" validate:"omitempty,notblank"`
	Score *int    `json:"score,omitempty" validate:"omitempty,gte=1,lte=10"`
}

// CreateCommentRequest is the body of POST .../comments.
type CreateCommentRequest struct {
	Text string `json:"text" validate:"required,notblank"`
}

// UpdateCommentRequest is the body of PATCH .../comments/{comment_id}.
type UpdateCommentRequest struct {
	Text *string `json:"text,omitempty" validate:"omitempty,notblank"`
}
