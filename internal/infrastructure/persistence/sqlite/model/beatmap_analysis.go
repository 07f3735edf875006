package model

import "time"

type BeatmapAnalysis struct {
	BID            int64      `gorm:"column:bid;primaryKey"`
	DeterminedType string     `gorm:"column:determined_type;type:text;not null"`
	IsAutoTyped    bool       `gorm:"column:is_auto_typed;not null;default:1"`
	StreamProb     *float64   `gorm:"column:stream_prob"`
	JumpProb       *float64   `gorm:"column:jump_prob"`
	AltProb        *float64   `gorm:"column:alt_prob"`
	TechProb       *float64   `gorm:"column:tech_prob"`
	LastModelRunAt *time.Time `gorm:"column:last_model_run_at"`
	ReviewedBy     string     `gorm:"column:reviewed_by;type:text;not null;default:''"`
	ReviewedAt     *time.Time `gorm:"column:reviewed_at"`
}

func (BeatmapAnalysis) TableName() string {
	return "beatmap_analyses"
}
