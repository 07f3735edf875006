package model

import "time"

type PendingReview struct {
	BID                         int64     `gorm:"column:bid;primaryKey"`
	Reason                      string    `gorm:"column:reason;type:text;not null"`
	TriggeredByRecommendationID *int64    `gorm:"column:triggered_by_recommendation_id"`
	EnqueuedAt                  time.Time `gorm:"column:enqueued_at;not null;index"`
}

func (PendingReview) TableName() string {
	return "pending_reviews"
}
