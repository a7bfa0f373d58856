package models

import (
	"time"
)

// 活动状态常量
const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
)

type Category struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;not null" json:"name"`
	Description string `gorm:"size:200" json:"description"`
}

type Event struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"size:200;not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"` // Markdown 原文，渲染时再转 HTML
	CategoryID  uint       `gorm:"not null;index" json:"category_id"`
	Category    Category   `json:"category"`
	OrganizerID uint       `gorm:"not null;index" json:"organizer_id"`
	Organizer   User       `gorm:"foreignKey:OrganizerID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"organizer"`
	Location    string     `gorm:"size:200" json:"location"`
	StartTime   time.Time  `gorm:"not null;index" json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    int        `gorm:"default:0" json:"capacity"` // 0 表示不限人数
	Views       int        `gorm:"default:0" json:"views"`
	Status      string     `gorm:"size:20;default:'active';not null" json:"status"` // active, cancelled
	ShareToken  string     `gorm:"size:36;uniqueIndex" json:"share_token"`          // 分享链接 token
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// 非持久化字段，列表页批量填充
	RSVPCount   int `gorm:"-" json:"rsvp_count"`
	ReviewCount int `gorm:"-" json:"review_count"`
}
