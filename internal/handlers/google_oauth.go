package handlers

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"campusnex/internal/db"
	"campusnex/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var googleOauthConfig *oauth2.Config

// InitGoogleOAuth 初始化 Google OAuth 配置
func InitGoogleOAuth() {
	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}

	googleOauthConfig = &oauth2.Config{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		RedirectURL:  siteURL + "/api/auth/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleUserInfo Google 用户信息结构
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
	Picture       string `json:"picture"`
}

// generateStateToken 生成随机 state token
func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// GoogleLogin 发起 Google OAuth 登录
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	state, err := generateStateToken()
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to generate state token")
		return
	}

	// 将 state 存储到 session 中,用于验证回调
	session := sessions.Default(c)
	session.Set("oauth_state", state)
	session.Save()

	url := googleOauthConfig.AuthCodeURL(state, oauth2.AccessTypeOffline)
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// GoogleCallback 处理 Google OAuth 回调
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	session := sessions.Default(c)
	savedState := session.Get("oauth_state")

	// 验证 state 参数
	if savedState == nil || c.Query("state") != savedState.(string) {
		Fail(c, http.StatusBadRequest, "invalid oauth state")
		return
	}

	// 清除 state
	session.Delete("oauth_state")
	session.Save()

	// 获取授权码
	code := c.Query("code")
	if code == "" {
		Fail(c, http.StatusBadRequest, "missing authorization code")
		return
	}

	// 交换 token
	token, err := googleOauthConfig.Exchange(context.Background(), code)
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to exchange token")
		return
	}

	// 获取用户信息
	userInfo, err := h.getGoogleUserInfo(token.AccessToken)
	if err != nil {
		Fail(c, http.StatusInternalServerError, "failed to fetch google profile")
		return
	}

	// 检查邮箱是否已验证
	if !userInfo.VerifiedEmail {
		Fail(c, http.StatusBadRequest, "google email not verified")
		return
	}

	// 查找用户(通过 GoogleID 或 Email)
	var user models.User
	err = db.DB.Where("google_id = ?", userInfo.ID).Or("email = ?", userInfo.Email).First(&user).Error

	if err != nil {
		// 新用户,自动注册为 student
		displayName := userInfo.Name
		if displayName == "" {
			displayName = strings.Split(userInfo.Email, "@")[0]
		}

		// 使用 GoogleID 作为初始密码,方便用户后续在设置中修改密码
		newUser, err := h.createUser(displayName, userInfo.Email, userInfo.ID, models.RoleStudent, "")
		if err != nil {
			Fail(c, http.StatusInternalServerError, "failed to create user")
			return
		}

		// 绑定 Google 账号和头像
		newUser.GoogleID = userInfo.ID
		newUser.GoogleEmail = userInfo.Email
		if newUser.Avatar == "" {
			newUser.Avatar = userInfo.Picture
		}
		db.DB.Save(newUser)

		user = *newUser
	} else if user.GoogleID == "" {
		// 老用户,如果还没绑定 GoogleID,则绑定
		user.GoogleID = userInfo.ID
		user.GoogleEmail = userInfo.Email
		db.DB.Save(&user)
	}

	// 登录
	session.Set("user_id", user.ID)
	session.Save()

	siteURL := os.Getenv("SITE_URL")
	if siteURL == "" {
		siteURL = "http://localhost:8080"
	}
	c.Redirect(http.StatusFound, siteURL)
}

// getGoogleUserInfo 获取 Google 用户信息
func (h *AuthHandler) getGoogleUserInfo(accessToken string) (*GoogleUserInfo, error) {
	resp, err := http.Get("https://www.googleapis.com/oauth2/v2/userinfo?access_token=" + accessToken)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo request failed: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var userInfo GoogleUserInfo
	if err := json.Unmarshal(body, &userInfo); err != nil {
		return nil, err
	}

	return &userInfo, nil
}
