package handlers

import (
	"net/http"
	"strconv"

	"campusnex/internal/db"
	"campusnex/internal/middleware"
	"campusnex/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// JSON 响应辅助：统一错误返回格式 {"error": "..."}
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// OK 统一成功返回
func OK(c *gin.Context, data gin.H) {
	c.JSON(http.StatusOK, data)
}

// getCurrentUser 从 session 获取当前用户
func getCurrentUser(c *gin.Context) (*models.User, error) {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		return user.(*models.User), nil
	}

	session := sessions.Default(c)
	userIDInterface := session.Get("user_id")
	if userIDInterface == nil {
		return nil, gorm.ErrRecordNotFound
	}

	var userID uint
	switch v := userIDInterface.(type) {
	case uint:
		userID = v
	case int:
		userID = uint(v)
	case string:
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, err
		}
		userID = uint(id)
	default:
		return nil, gorm.ErrRecordNotFound
	}

	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
