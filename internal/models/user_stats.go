package models

import (
	"time"
)

// UserStats 每个用户一行的积分聚合。
// 不变量：TotalPoints 恒等于该用户所有 ActivityRecord.Points 之和，
// 任何对 TotalPoints 的修改都必须伴随一条 ActivityRecord 插入（同一事务内）。
type UserStats struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"uniqueIndex;not null" json:"user_id"`
	User           User       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	TotalPoints    int        `gorm:"default:0;index" json:"total_points"`
	EventsCreated  int        `gorm:"default:0" json:"events_created"`
	EventsAttended int        `gorm:"default:0" json:"events_attended"`
	CurrentStreak  int        `gorm:"default:0" json:"current_streak"`
	LongestStreak  int        `gorm:"default:0" json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`
	Rank           int        `gorm:"default:0" json:"rank"` // 缓存值，读取时总是重新计算，仅用于展示兜底
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}
