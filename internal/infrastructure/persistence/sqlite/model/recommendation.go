package model

import "time"

// Recommendation rows are append-only; nothing in the service updates or
// deletes them.
type Recommendation struct {
	RecommendationID  int64     `gorm:"column:recommendation_id;primaryKey;autoIncrement"`
	QQID              int64     `gorm:"column:qqid;not null;index"`
	BID               int64     `gorm:"column:bid;not null;index"`
	SubmitterName     *string   `gorm:"column:submitter_name;type:text"`
	UserRequestedType *string   `gorm:"column:user_requested_type;type:text"`
	ActualType        string    `gorm:"column:actual_type;type:text;not null"`
	Description       string    `gorm:"column:description;type:text;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;not null"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}
