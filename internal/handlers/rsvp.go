package handlers

import (
	"errors"
	"net/http"
	"time"

	"campusnex/internal/db"
	"campusnex/internal/models"
	"campusnex/internal/services"
	"campusnex/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// 提前报名奖励窗口：活动开始前 72 小时以上报名算早鸟
const earlyRegistrationWindow = 72 * time.Hour

var errAlreadyRegistered = errors.New("already registered")

type RSVPHandler struct{}

func NewRSVPHandler() *RSVPHandler {
	return &RSVPHandler{}
}

// Register POST /api/events/:id/rsvp 报名（满员进候补）
func (h *RSVPHandler) Register(c *gin.Context) {
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
	if event.Status != models.EventStatusActive {
		Fail(c, http.StatusBadRequest, "event is cancelled")
		return
	}
	if event.StartTime.Before(time.Now()) {
		Fail(c, http.StatusBadRequest, "event already started")
		return
	}

	var status string
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		// 已有记录：取消过的恢复，其他状态拒绝重复报名
		var existing models.RSVP
		err := tx.Where("event_id = ? AND user_id = ?", event.ID, user.ID).First(&existing).Error
		if err == nil {
			if existing.Status != models.RSVPStatusCancelled {
				return errAlreadyRegistered
			}
			status = nextRSVPStatus(tx, &event)
			existing.Status = status
			return tx.Save(&existing).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		status = nextRSVPStatus(tx, &event)
		rsvp := models.RSVP{
			EventID: event.ID,
			UserID:  user.ID,
			Status:  status,
		}
		return tx.Create(&rsvp).Error
	})
	if err != nil {
		if errors.Is(err, errAlreadyRegistered) {
			Fail(c, http.StatusConflict, "already registered for this event")
			return
		}
		Fail(c, http.StatusInternalServerError, "failed to register")
		return
	}

	// 早鸟奖励：开始前 72 小时以上报名且进的是正式名额
	earlyBird := false
	if status == models.RSVPStatusGoing && time.Until(event.StartTime) >= earlyRegistrationWindow {
		if _, err := services.RecordActivity(user.ID, services.KindEarlyRegistration, &event.ID); err == nil {
			earlyBird = true
		}
	}

	OK(c, gin.H{
		"status":     status,
		"early_bird": earlyBird,
	})
}

// nextRSVPStatus 按容量决定进正式名额还是候补
func nextRSVPStatus(tx *gorm.DB, event *models.Event) string {
	if event.Capacity <= 0 {
		return models.RSVPStatusGoing
	}
	var going int64
	tx.Model(&models.RSVP{}).
		Where("event_id = ? AND status IN ?", event.ID,
			[]string{models.RSVPStatusGoing, models.RSVPStatusAttended}).
		Count(&going)
	if int(going) >= event.Capacity {
		return models.RSVPStatusWaitlisted
	}
	return models.RSVPStatusGoing
}

// Cancel DELETE /api/events/:id/rsvp 取消报名，顺位提升第一个候补
func (h *RSVPHandler) Cancel(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	eventID := utils.StringToUint(c.Param("id"))
	var rsvp models.RSVP
	if err := db.DB.Where("event_id = ? AND user_id = ?", eventID, user.ID).First(&rsvp).Error; err != nil {
		Fail(c, http.StatusNotFound, "rsvp not found")
		return
	}
	if rsvp.Status == models.RSVPStatusAttended {
		Fail(c, http.StatusBadRequest, "attendance already recorded")
		return
	}

	wasGoing := rsvp.Status == models.RSVPStatusGoing
	if err := db.DB.Model(&rsvp).UpdateColumn("status", models.RSVPStatusCancelled).Error; err != nil {
		Fail(c, http.StatusInternalServerError, "failed to cancel rsvp")
		return
	}

	// 空出名额后提升最早的候补
	if wasGoing {
		var next models.RSVP
		err := db.DB.Where("event_id = ? AND status = ?", eventID, models.RSVPStatusWaitlisted).
			Order("created_at ASC").First(&next).Error
		if err == nil {
			db.DB.Model(&next).UpdateColumn("status", models.RSVPStatusGoing)
		}
	}

	OK(c, gin.H{"message": "rsvp cancelled"})
}

// MarkAttendance POST /api/events/:id/attendance 组织者核销到场名单并触发计分
func (h *RSVPHandler) MarkAttendance(c *gin.Context) {
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

	var req struct {
		UserIDs []uint `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.UserIDs) == 0 {
		Fail(c, http.StatusBadRequest, "user_ids is required")
		return
	}

	marked := make([]uint, 0, len(req.UserIDs))
	for _, uid := range req.UserIDs {
		var rsvp models.RSVP
		err := db.DB.Where("event_id = ? AND user_id = ? AND status = ?",
			event.ID, uid, models.RSVPStatusGoing).First(&rsvp).Error
		if err != nil {
			continue // 没报名或已核销的跳过
		}
		if err := db.DB.Model(&rsvp).UpdateColumn("status", models.RSVPStatusAttended).Error; err != nil {
			continue
		}
		// 到场计分（异步，单个失败不影响整批核销）
		services.RecordActivityAsync(uid, services.KindAttendEvent, &event.ID)
		marked = append(marked, uid)
	}

	OK(c, gin.H{"marked": marked})
}

// ListMine GET /api/rsvps 我的报名列表
func (h *RSVPHandler) ListMine(c *gin.Context) {
	user, err := getCurrentUser(c)
	if err != nil {
		Fail(c, http.StatusUnauthorized, "authentication required")
		return
	}

	var rsvps []models.RSVP
	db.DB.Preload("Event").Preload("Event.Category").
		Where("user_id = ? AND status <> ?", user.ID, models.RSVPStatusCancelled).
		Order("created_at DESC").
		Limit(100).
		Find(&rsvps)

	OK(c, gin.H{"rsvps": rsvps})
}

// ListForEvent GET /api/events/:id/rsvps 组织者查看报名名单
func (h *RSVPHandler) ListForEvent(c *gin.Context) {
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

	var rsvps []models.RSVP
	db.DB.Preload("User").
		Where("event_id = ? AND status <> ?", event.ID, models.RSVPStatusCancelled).
		Order("created_at ASC").
		Find(&rsvps)

	OK(c, gin.H{"rsvps": rsvps})
}
