package handlers

import (
	"net/http"
	"sort"
	"time"

	"campusnex/internal/db"
	"campusnex/internal/models"
	"campusnex/internal/services"
	"campusnex/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EventHandler struct{}

func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// fillRSVPCounts 批量填充活动的报名数量
func fillRSVPCounts(events []models.Event) {
	if len(events) == 0 {
		return
	}

	// 收集所有活动ID
	eventIDs := make([]uint, len(events))
	for i, e := range events {
		eventIDs[i] = e.ID
	}

	// 批量查询报名数量（不含已取消）
	type CountResult struct {
		EventID uint
		Count   int
	}
	var results []CountResult
	db.DB.Model(&models.RSVP{}).
		Select("event_id, COUNT(*) as count").
		Where("event_id IN ? AND status <> ?", eventIDs, models.RSVPStatusCancelled).
		Group("event_id").
		Scan(&results)

	countMap := make(map[uint]int)
	for _, r := range results {
		countMap[r.EventID] = r.Count
	}

	var reviewResults []CountResult
	db.DB.Model(&models.Review{}).
		Select("event_id, COUNT(*) as count").
		Where("event_id IN ?", eventIDs).
		Group("event_id").
		Scan(&reviewResults)

	reviewMap := make(map[uint]int)
	for _, r := range reviewResults {
		reviewMap[r.EventID] = r.Count
	}

	for i := range events {
		events[i].RSVPCount = countMap[events[i].ID]
		events[i].ReviewCount = reviewMap[events[i].ID]
	}
}

// List GET /api/events?category=&upcoming=1&sort=trending&page=
func (h *EventHandler) List(c *gin.Context) {
	page := 1
	if p := c.Query("page"); p != "" {
		if pageNum := utils.StringToInt(p); pageNum > 0 {
			page = pageNum
		}
	}
	perPage := 20
	offset := (page - 1) * perPage

	// 过滤条件每次重建，避免 Count 污染后续查询
	filtered := func() *gorm.DB {
		query := db.DB.Model(&models.Event{}).Where("status = ?", models.EventStatusActive)
		if cat := c.Query("category"); cat != "" {
			query = query.Joins("JOIN categories ON categories.id = events.category_id AND categories.name = ?", cat)
		}
		if c.Query("upcoming") == "1" {
			query = query.Where("start_time > ?", time.Now())
		}
		return query
	}

	var total int64
	filtered().Count(&total)

	var events []models.Event
	q := filtered().Preload("Category").Preload("Organizer")
	if c.Query("sort") == "trending" {
		// trending 在内存里算热度分再排序，活动量级小，全扫没压力
		q.Order("created_at DESC").Limit(200).Find(&events)
		fillRSVPCounts(events)
		sort.SliceStable(events, func(i, j int) bool {
			si := utils.TrendingScore(events[i].CreatedAt, events[i].RSVPCount, events[i].ReviewCount, events[i].Views)
			sj := utils.TrendingScore(events[j].CreatedAt, events[j].RSVPCount, events[j].ReviewCount, events[j].Views)
			return si > sj
		})
		if offset < len(events) {
			end := offset + perPage
			if end > len(events) {
				end = len(events)
			}
			events = events[offset:end]
		} else {
			events = []models.Event{}
		}
	} else {
		q.Order("start_time ASC").Limit(perPage).Offset(offset).Find(&events)
		fillRSVPCounts(events)
	}

	OK(c, gin.H{
		"events": events,
		"page":   page,
		"total":  total,
	})
}

// Detail GET /api/events/:id
func (h *EventHandler) Detail(c *gin.Context) {
	var event models.Event
	if err := db.DB.Preload("Category").Preload("Organizer").
		First(&event, utils.StringToUint(c.Param("id"))).Error; err != nil {
		Fail(c, http.StatusNotFound, "event not found")
		return
	}

	// 浏览数+1（异步，不挡读路径）
	go func() {
		db.DB.Model(&models.Event{}).Where("id = ?", event.ID).
			UpdateColumn("views", gorm.Expr("views + ?", 1))
	}()

	wrapped := []models.Event{event}
	fillRSVPCounts(wrapped)
	event = wrapped[0]

	OK(c, gin.H{
		"event":            event,
		"description_html": utils.RenderMarkdown(event.Description),
	})
}

type eventRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CategoryID  uint       `json:"category_id"`
	Location    string     `json:"location"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time"`
	Capacity    int        `json:"capacity"`
}

// Create POST /api/events （organizer/admin）
func (h *EventHandler) Create(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" {
		Fail(c, http.StatusBadRequest, "title is required")
		return
	}
	if req.StartTime.IsZero() || req.StartTime.Before(time.Now()) {
		Fail(c, http.StatusBadRequest, "start_time must be in the future")
		return
	}

	var category models.Category
	if err := db.DB.First(&category, req.CategoryID).Error; err != nil {
		Fail(c, http.StatusBadRequest, "unknown category")
		return
	}

	event := models.Event{
		Title:       utils.SanitizeText(req.Title),
		Description: req.Description,
		CategoryID:  category.ID,
		OrganizerID: user.ID,
		Location:    utils.SanitizeText(req.Location),
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Capacity:    req.Capacity,
		Status:      models.EventStatusActive,
		ShareToken:  uuid.NewString(),
	}
	if err := db.DB.Create(&event).Error; err != nil {
		Fail(c, http.StatusInternalServerError, "failed to create event")
		return
	}

	// 发布活动计分（同步返回最新积分和名次）
	result, err := services.RecordActivity(user.ID, services.KindCreateEvent, &event.ID)
	if err != nil {
		// 活动已创建成功，计分失败只记不回滚，留给对账修复
		result = &services.RecordResult{}
	}

	c.JSON(http.StatusCreated, gin.H{
		"event":  event,
		"points": result,
	})
}

// Update PUT /api/events/:id （仅创建者）
func (h *EventHandler) Update(c *gin.Context) {
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
	if event.OrganizerID != user.ID && user.Role != models.RoleAdmin {
		Fail(c, http.StatusForbidden, "not the organizer of this event")
		return
	}

	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = utils.SanitizeText(req.Title)
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Location != "" {
		updates["location"] = utils.SanitizeText(req.Location)
	}
	if !req.StartTime.IsZero() {
		updates["start_time"] = req.StartTime
	}
	if req.EndTime != nil {
		updates["end_time"] = req.EndTime
	}
	if req.Capacity > 0 {
		updates["capacity"] = req.Capacity
	}
	if req.CategoryID != 0 {
		var category models.Category
		if err := db.DB.First(&category, req.CategoryID).Error; err != nil {
			Fail(c, http.StatusBadRequest, "unknown category")
			return
		}
		updates["category_id"] = category.ID
	}

	if len(updates) > 0 {
		if err := db.DB.Model(&event).Updates(updates).Error; err != nil {
			Fail(c, http.StatusInternalServerError, "failed to update event")
			return
		}
	}

	OK(c, gin.H{"event": event})
}

// Cancel DELETE /api/events/:id 活动标记取消，不物理删除（流水里还挂着它）
func (h *EventHandler) Cancel(c *gin.Context) {
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
	if event.OrganizerID != user.ID && user.Role != models.RoleAdmin {
		Fail(c, http.StatusForbidden, "not the organizer of this event")
		return
	}

	if err := db.DB.Model(&event).UpdateColumn("status", models.EventStatusCancelled).Error; err != nil {
		Fail(c, http.StatusInternalServerError, "failed to cancel event")
		return
	}
	OK(c, gin.H{"message": "event cancelled"})
}

// Share POST /api/events/:id/share 返回分享链接并计分（同一活动每天一次）
func (h *EventHandler) Share(c *gin.Context) {
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

	// 并发重复分享由记分事务内的复查兜底，这里的预检查只拦截明显的重复请求
	awarded := false
	if !services.HasSharedEventToday(user.ID, event.ID) {
		if _, err := services.RecordActivity(user.ID, services.KindShareEvent, &event.ID); err == nil {
			awarded = true
		}
	}

	OK(c, gin.H{
		"share_token":    event.ShareToken,
		"points_awarded": awarded,
	})
}

// Categories GET /api/categories
func (h *EventHandler) Categories(c *gin.Context) {
	var categories []models.Category
	db.DB.Order("id ASC").Find(&categories)
	OK(c, gin.H{"categories": categories})
}
