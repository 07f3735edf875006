package model

import "time"

type UserBinding struct {
	QQID        int64     `gorm:"column:qqid;primaryKey"`
	OsuUID      int64     `gorm:"column:osu_uid;not null;uniqueIndex"`
	OsuUsername string    `gorm:"column:osu_username;type:text;not null"`
	Nickname    string    `gorm:"column:nickname;type:text;not null;default:''"`
	BoundAt     time.Time `gorm:"column:bound_at;not null"`
}

func (UserBinding) TableName() string {
	return "user_bindings"
}
