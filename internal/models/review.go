package models

import (
	"time"
)

const DefaultRate = 1

type Review struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`
	ProductID string    `json:"productId" gorm:"type:varchar(36);index;not null" bson:"productId"`
	Comment   string    `json:"comment" gorm:"not null" bson:"comment"`
	Rate      int       `json:"rate" gorm:"not null;default:1;check:rate >= 1 AND rate <= 5" bson:"rate"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime:false;index" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime:false" bson:"updatedAt"`
}

type CreateReviewRequest struct {
	Comment   string  `json:"comment"`
	Rate      *int    `json:"rate,omitempty"`
	ProductID *string `json:"productId,omitempty"`
}

type UpdateReviewRequest struct {
	Comment *string `json:"comment,omitempty"`
	Rate    *int    `json:"rate,omitempty"`
}

func (r *UpdateReviewRequest) Apply(review *Review) {
	if r.Comment != nil {
		review.Comment = *r.Comment
	}
	if r.Rate != nil {
		review.Rate = *r.Rate
	}
}
