package models

import (
	"time"
)

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_review_event_user" json:"event_id"`
	Event     Event     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"event"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_review_event_user" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Rating    int       `gorm:"not null" json:"rating"`       // 1-5 星
	Comment   string    `gorm:"type:text" json:"comment"`     // Markdown 原文
	CreatedAt time.Time `json:"created_at"`
}
