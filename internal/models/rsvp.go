package models

import (
	"time"
)

// RSVP 状态常量
const (
	RSVPStatusGoing      = "going"
	RSVPStatusWaitlisted = "waitlisted"
	RSVPStatusCancelled  = "cancelled"
	RSVPStatusAttended   = "attended"
)

type RSVP struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   uint      `gorm:"not null;uniqueIndex:idx_rsvp_event_user" json:"event_id"`
	Event     Event     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"event"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_rsvp_event_user;index" json:"user_id"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
	Status    string    `gorm:"size:20;not null" json:"status"` // going, waitlisted, cancelled, attended
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
