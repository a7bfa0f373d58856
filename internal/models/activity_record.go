package models

import (
	"time"
)

// ActivityRecord 积分行为流水，只增不改，是 UserStats 聚合的审计依据
type ActivityRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Kind      string    `gorm:"size:32;not null;index" json:"kind"` // 行为类型（闭集，见 services/points.go）
	Points    int       `gorm:"not null" json:"points"`             // 本次获得的积分
	EventID   *uint     `gorm:"index" json:"event_id"`              // 关联活动（可空）
	CreatedAt time.Time `json:"created_at"`
}
