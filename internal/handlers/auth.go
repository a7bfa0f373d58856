package handlers

import (
	"net/http"
	"strings"

	"campusnex/internal/db"
	"campusnex/internal/models"
	"campusnex/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type signupRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	Department  string `json:"department"`
}

// createUser 创建新用户的通用函数
func (h *AuthHandler) createUser(displayName, email, password, role, department string) (*models.User, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		DisplayName: displayName,
		Email:       email,
		Password:    hash,
		Role:        role,
		Department:  department,
	}

	if err := db.DB.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Signup POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	parts := strings.Split(req.Email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		Fail(c, http.StatusBadRequest, "invalid email address")
		return
	}
	if len(req.Password) < 6 {
		Fail(c, http.StatusBadRequest, "password must be at least 6 characters")
		return
	}
	if req.DisplayName == "" {
		// 缺省用邮箱前缀当昵称
		req.DisplayName = parts[0]
	}
	// 注册只能选 student/organizer，admin 由运维直接建
	if req.Role == "" {
		req.Role = models.RoleStudent
	}
	if req.Role != models.RoleStudent && req.Role != models.RoleOrganizer {
		Fail(c, http.StatusBadRequest, "role must be student or organizer")
		return
	}

	user, err := h.createUser(req.DisplayName, req.Email, req.Password, req.Role, req.Department)
	if err != nil {
		Fail(c, http.StatusConflict, "email already registered")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	OK(c, gin.H{"user": user})
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	var user models.User
	if err := db.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		Fail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.Password) {
		Fail(c, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	OK(c, gin.H{"user": user})
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	OK(c, gin.H{"message": "logged out"})
}

// Me GET /api/auth/me 返回当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}
	levelName, levelIcon := utils.GetUserLevel(0)
	if stats := loadStatsQuiet(user.ID); stats != nil {
		levelName, levelIcon = utils.GetUserLevel(stats.TotalPoints)
	}
	OK(c, gin.H{
		"user":       user,
		"level":      levelName,
		"level_icon": levelIcon,
		"days_since": utils.GetDaysSinceJoined(user.CreatedAt),
	})
}

// loadStatsQuiet 读取聚合行，没有就返回 nil（新用户正常状态）
func loadStatsQuiet(userID uint) *models.UserStats {
	var stats models.UserStats
	if err := db.DB.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil
	}
	return &stats
}
