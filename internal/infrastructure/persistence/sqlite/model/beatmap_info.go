package model

import "time"

type BeatmapInfo struct {
	BID           int64     `gorm:"column:bid;primaryKey"`
	Title         string    `gorm:"column:title;type:text;not null"`
	Artist        string    `gorm:"column:artist;type:text;not null"`
	CreatorName   string    `gorm:"column:creator_name;type:text;not null"`
	CreatorID     int64     `gorm:"column:creator_id;not null"`
	DiffName      string    `gorm:"column:diff_name;type:text;not null"`
	StarRating    float64   `gorm:"column:star_rating;not null"`
	Status        string    `gorm:"column:status;type:text;not null"`
	AR            float64   `gorm:"column:ar;not null"`
	OD            float64   `gorm:"column:od;not null"`
	CS            float64   `gorm:"column:cs;not null"`
	HP            float64   `gorm:"column:hp;not null"`
	LengthSeconds int       `gorm:"column:length_seconds;not null"`
	BPM           float64   `gorm:"column:bpm;not null"`
	FetchedAt     time.Time `gorm:"column:fetched_at;not null"`
}

func (BeatmapInfo) TableName() string {
	return "beatmap_infos"
}
