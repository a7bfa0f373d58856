package handlers

import (
	"net/http"

	"campusnex/internal/db"
	"campusnex/internal/models"
	"campusnex/internal/services"
	"campusnex/internal/utils"

	"github.com/gin-gonic/gin"
)

type ReviewHandler struct{}

func NewReviewHandler() *ReviewHandler {
	return &ReviewHandler{}
}

// Create POST /api/events/:id/reviews 只有到场用户能评价，每人一条
func (h *ReviewHandler) Create(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var event models.Event
	if err := db.DB.First(&event, utils.StringToUint(c.Param("id"))).Error; err != nil {
		Fail(c, http.StatusNotFound, "event not found")
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		Fail(c, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	// 必须核销到场才能评价
	var attended int64
	db.DB.Model(&models.RSVP{}).
		Where("event_id = ? AND user_id = ? AND status = ?", event.ID, user.ID, models.RSVPStatusAttended).
		Count(&attended)
	if attended == 0 {
		Fail(c, http.StatusForbidden, "only attendees can review this event")
		return
	}

	review := models.Review{
		EventID: event.ID,
		UserID:  user.ID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := db.DB.Create(&review).Error; err != nil {
		// 唯一索引兜底：同一活动重复评价
		Fail(c, http.StatusConflict, "you have already reviewed this event")
		return
	}

	// 评价计分
	result, err := services.RecordActivity(user.ID, services.KindEventReview, &event.ID)
	if err != nil {
		result = &services.RecordResult{}
	}

	c.JSON(http.StatusCreated, gin.H{
		"review": review,
		"points": result,
	})
}

// ListForEvent GET /api/events/:id/reviews
func (h *ReviewHandler) ListForEvent(c *gin.Context) {
	eventID := utils.StringToUint(c.Param("id"))

	var reviews []models.Review
	db.DB.Preload("User").
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Limit(100).
		Find(&reviews)

	// 评论按 Markdown 渲染后返回
	rendered := make([]gin.H, len(reviews))
	for i, r := range reviews {
		rendered[i] = gin.H{
			"id":           r.ID,
			"user":         gin.H{"id": r.User.ID, "display_name": r.User.DisplayName, "avatar": r.User.Avatar},
			"rating":       r.Rating,
			"comment_html": utils.RenderMarkdown(r.Comment),
			"created_at":   r.CreatedAt,
		}
	}

	OK(c, gin.H{"reviews": rendered})
}
