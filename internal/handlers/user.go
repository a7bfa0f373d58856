package handlers

import (
	"errors"
	"net/http"

	"campusnex/internal/db"
	"campusnex/internal/models"
	"campusnex/internal/services"
	"campusnex/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct{}

func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// Profile GET /api/users/:id 用户公开主页数据
func (h *UserHandler) Profile(c *gin.Context) {
	var user models.User
	if err := db.DB.First(&user, utils.StringToUint(c.Param("id"))).Error; err != nil {
		Fail(c, http.StatusNotFound, "user not found")
		return
	}

	stats, err := services.GetUserStatsWithRank(user.ID)
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to load user stats")
		return
	}

	levelName, levelIcon := utils.GetUserLevel(stats.TotalPoints)

	OK(c, gin.H{
		"user": gin.H{
			"id":           user.ID,
			"display_name": user.DisplayName,
			"avatar":       user.Avatar,
			"bio":          user.Bio,
			"department":   user.Department,
			"role":         user.Role,
		},
		"stats":      stats,
		"level":      levelName,
		"level_icon": levelIcon,
		"days_since": utils.GetDaysSinceJoined(user.CreatedAt),
	})
}

// UpdateProfile PUT /api/profile 更新资料，集齐头像+简介+院系时发一次性完善奖励
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		DisplayName string `json:"display_name"`
		Avatar      string `json:"avatar"`
		Bio         string `json:"bio"`
		Department  string `json:"department"`
		OldPassword string `json:"old_password"`
		NewPassword string `json:"new_password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := make(map[string]interface{})
	if req.DisplayName != "" && req.DisplayName != user.DisplayName {
		updates["display_name"] = req.DisplayName
	}
	if req.Avatar != "" {
		updates["avatar"] = req.Avatar
	}
	if req.Bio != user.Bio {
		updates["bio"] = req.Bio
	}
	if req.Department != "" {
		updates["department"] = req.Department
	}

	// 如果要修改密码
	if req.OldPassword != "" && req.NewPassword != "" {
		if !utils.CheckPasswordHash(req.OldPassword, user.Password) {
			Fail(c, http.StatusBadRequest, "old password is incorrect")
			return
		}
		if len(req.NewPassword) < 6 {
			Fail(c, http.StatusBadRequest, "new password must be at least 6 characters")
			return
		}
		hash, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			Fail(c, http.StatusInternalServerError, "failed to update password")
			return
		}
		updates["password"] = hash
	}

	if len(updates) > 0 {
		if err := db.DB.Model(user).Updates(updates).Error; err != nil {
			Fail(c, http.StatusInternalServerError, "failed to update profile")
			return
		}
	}

	// 资料完善奖励（终身一次）
	bonus := false
	if user.ProfileComplete() && !services.HasProfileCompleteBonus(user.ID) {
		if _, err := services.RecordActivity(user.ID, services.KindProfileComplete, nil); err == nil {
			bonus = true
		}
	}

	OK(c, gin.H{
		"user":          user,
		"profile_bonus": bonus,
	})
}

// CheckIn POST /api/checkin 每日登录积分
func (h *UserHandler) CheckIn(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	// 事务内还有一次复查，这里的预检查只是省掉绝大多数重复请求的写路径
	if services.HasClaimedDailyLogin(user.ID) {
		OK(c, gin.H{
			"success": false,
			"message": "already checked in today",
		})
		return
	}

	result, err := services.RecordActivity(user.ID, services.KindDailyLogin, nil)
	if errors.Is(err, services.ErrDuplicateActivity) {
		OK(c, gin.H{
			"success": false,
			"message": "already checked in today",
		})
		return
	}
	if err != nil {
		Fail(c, http.StatusInternalServerError, "check-in failed")
		return
	}

	OK(c, gin.H{
		"success":      true,
		"total_points": result.NewTotalPoints,
		"rank":         result.NewRank,
	})
}

// ActivityLog GET /api/activities 我的积分明细
func (h *UserHandler) ActivityLog(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var records []models.ActivityRecord
	db.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&records)

	OK(c, gin.H{"activities": records})
}
