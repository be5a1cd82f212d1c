package models

import (
	"errors"
	"time"
)

// Review is a customer's product rating.
type Review struct {
	ID        ID        `json:"id"`
	Product   ID        `json:"product,omitempty"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate keeps the rating on the 1..5 scale.
func (r Review) Validate() error {
	if r.Rating < 1 || r.Rating > 5 {
		return errors.New("review: rating must be between 1 and 5")
	}
	return nil
}

// ReviewInput is the create body.
type ReviewInput struct {
	Product ID     `json:"product" validate:"required"`
	Rating  int    `json:"rating"  validate:"required,between=1,5"`
	Comment string `json:"comment" validate:"required,max=2000"`
}
