package router

import (
	"campusnex/internal/handlers"
	"campusnex/internal/middleware"
	"campusnex/internal/models"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	eventHandler := handlers.NewEventHandler()
	rsvpHandler := handlers.NewRSVPHandler()
	reviewHandler := handlers.NewReviewHandler()
	leaderboardHandler := handlers.NewLeaderboardHandler()
	userHandler := handlers.NewUserHandler()
	adminHandler := handlers.NewAdminHandler()

	api := r.Group("/api")

	// 公共路由 (Public Routes)
	api.POST("/auth/signup", authHandler.Signup)                 // 注册
	api.POST("/auth/login", authHandler.Login)                   // 登录
	api.POST("/auth/logout", authHandler.Logout)                 // 退出登录
	api.GET("/auth/google", authHandler.GoogleLogin)             // Google OAuth 登录
	api.GET("/auth/google/callback", authHandler.GoogleCallback) // Google OAuth 回调

	api.GET("/events", eventHandler.List)                      // 活动列表
	api.GET("/events/:id", eventHandler.Detail)                // 活动详情
	api.GET("/events/:id/reviews", reviewHandler.ListForEvent) // 活动评价列表
	api.GET("/categories", eventHandler.Categories)            // 活动分类

	api.GET("/leaderboard", leaderboardHandler.Get)           // 榜单分页查询
	api.GET("/leaderboard/top", leaderboardHandler.Top)       // 各分区前 N 名快照
	api.GET("/leaderboard/stats", leaderboardHandler.Stats)   // 分区汇总统计
	api.GET("/users/:id", userHandler.Profile)                // 用户主页
	api.GET("/users/:id/stats", leaderboardHandler.UserStats) // 用户统计+名次

	// 受保护路由 (Protected Routes)
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)             // 当前登录用户
		authorized.PUT("/profile", userHandler.UpdateProfile)  // 更新资料
		authorized.POST("/checkin", userHandler.CheckIn)       // 每日登录积分
		authorized.GET("/activities", userHandler.ActivityLog) // 我的积分明细
		authorized.GET("/rsvps", rsvpHandler.ListMine)         // 我的报名列表

		authorized.POST("/events/:id/rsvp", rsvpHandler.Register)    // 报名活动
		authorized.DELETE("/events/:id/rsvp", rsvpHandler.Cancel)    // 取消报名
		authorized.POST("/events/:id/share", eventHandler.Share)     // 分享活动
		authorized.POST("/events/:id/reviews", reviewHandler.Create) // 发布评价
	}

	// 组织者路由 (Organizer Routes)
	organizer := api.Group("/")
	organizer.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleOrganizer, models.RoleAdmin))
	{
		organizer.POST("/events", eventHandler.Create)                       // 发布活动
		organizer.PUT("/events/:id", eventHandler.Update)                    // 更新活动
		organizer.DELETE("/events/:id", eventHandler.Cancel)                 // 取消活动
		organizer.GET("/events/:id/rsvps", rsvpHandler.ListForEvent)         // 报名名单
		organizer.POST("/events/:id/attendance", rsvpHandler.MarkAttendance) // 核销到场
	}

	// 管理路由 (Admin Routes)
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.POST("/reconcile", adminHandler.ReconcileAll)         // 全量对账
		admin.POST("/reconcile/:id", adminHandler.Reconcile)        // 单用户对账修复
		admin.POST("/users/:id/stats/init", adminHandler.InitStats) // 初始化聚合行
	}
}
