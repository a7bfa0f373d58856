package models

import (
	"time"
)

// 用户角色常量
const (
	RoleStudent   = "student"
	RoleOrganizer = "organizer"
	RoleAdmin     = "admin"
)

type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	DisplayName string    `gorm:"not null" json:"display_name"` // Display name can be modified
	Email       string    `gorm:"uniqueIndex;not null" json:"email"`
	Password    string    `gorm:"not null" json:"-"`                              // Hash
	Avatar      string    `gorm:"size:255" json:"avatar"`                         // 头像 URL
	Bio         string    `gorm:"size:200" json:"bio"`                            // 个人简介
	Department  string    `gorm:"size:100" json:"department"`                     // 院系（可选）
	Role        string    `gorm:"size:20;default:'student';not null" json:"role"` // student, organizer, admin
	GoogleID    string    `gorm:"index" json:"-"`                                 // Google OAuth ID
	GoogleEmail string    `gorm:"index" json:"-"`                                 // Google 邮箱
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	// No DeletedAt for hard delete
}

// ProfileComplete 判断资料是否填写完整（头像+简介+院系）
func (u *User) ProfileComplete() bool {
	return u.Avatar != "" && u.Bio != "" && u.Department != ""
}
