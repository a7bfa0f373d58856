package services

import (
	"fmt"
	"time"

	"campusnex/internal/db"
	"campusnex/internal/models"

	"gorm.io/gorm"
)

// ActivityKind 积分行为类型（闭集）
type ActivityKind string

const (
	KindCreateEvent       ActivityKind = "create_event"
	KindAttendEvent       ActivityKind = "attend_event"
	KindEarlyRegistration ActivityKind = "early_registration"
	KindEventReview       ActivityKind = "event_review"
	KindProfileComplete   ActivityKind = "profile_complete"
	KindDailyLogin        ActivityKind = "daily_login"
	KindShareEvent        ActivityKind = "share_event"
)

// 各行为对应的积分值
var pointsTable = map[ActivityKind]int{
	KindCreateEvent:       10,
	KindAttendEvent:       5,
	KindEarlyRegistration: 3,
	KindEventReview:       2,
	KindProfileComplete:   5,
	KindDailyLogin:        1,
	KindShareEvent:        2,
}

// PointsFor 查询某行为的积分值。
// 未知行为返回错误，绝不默默按 0 分处理。
func PointsFor(kind ActivityKind) (int, error) {
	pts, ok := pointsTable[kind]
	if !ok {
		return 0, fmt.Errorf("unknown activity kind: %q", kind)
	}
	return pts, nil
}

// ValidKind 检查行为类型是否在闭集内（API 边界校验用）
func ValidKind(kind ActivityKind) bool {
	_, ok := pointsTable[kind]
	return ok
}

// ActivityKinds 返回全部合法行为类型（文档接口用）
func ActivityKinds() []ActivityKind {
	kinds := make([]ActivityKind, 0, len(pointsTable))
	for k := range pointsTable {
		kinds = append(kinds, k)
	}
	return kinds
}

// getTodayRange 获取今日的开始和结束时间
func getTodayRange() (time.Time, time.Time) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)
	return startOfDay, endOfDay
}

// countTodayRecords 统计今日指定行为的流水条数。
// conn 可以是 db.DB 也可以是事务句柄，记分事务内复查防重时要走事务里的视图
func countTodayRecords(conn *gorm.DB, userID uint, kind ActivityKind) int64 {
	startOfDay, endOfDay := getTodayRange()
	var count int64
	conn.Model(&models.ActivityRecord{}).
		Where("user_id = ? AND kind = ? AND created_at >= ? AND created_at < ?", userID, kind, startOfDay, endOfDay).
		Count(&count)
	return count
}

// HasClaimedDailyLogin 检查用户今日是否已领取登录积分
func HasClaimedDailyLogin(userID uint) bool {
	return countTodayRecords(db.DB, userID, KindDailyLogin) > 0
}

// HasSharedEventToday 检查用户今日是否已分享过该活动（同一活动每天只计一次分）
func HasSharedEventToday(userID, eventID uint) bool {
	return hasSharedEventToday(db.DB, userID, eventID)
}

func hasSharedEventToday(conn *gorm.DB, userID, eventID uint) bool {
	startOfDay, endOfDay := getTodayRange()
	var count int64
	conn.Model(&models.ActivityRecord{}).
		Where("user_id = ? AND kind = ? AND event_id = ? AND created_at >= ? AND created_at < ?",
			userID, KindShareEvent, eventID, startOfDay, endOfDay).
		Count(&count)
	return count > 0
}

// HasProfileCompleteBonus 检查用户是否已领取过资料完善积分（终身一次）
func HasProfileCompleteBonus(userID uint) bool {
	return hasProfileCompleteBonus(db.DB, userID)
}

func hasProfileCompleteBonus(conn *gorm.DB, userID uint) bool {
	var count int64
	conn.Model(&models.ActivityRecord{}).
		Where("user_id = ? AND kind = ?", userID, KindProfileComplete).
		Count(&count)
	return count > 0
}

// checkDuplicate 限次行为的事务内防重复查。
// 处理器层的预检查在高并发下存在先检查后写入的窗口，
// 真正的去重以聚合行锁之后的这次复查为准。
func checkDuplicate(tx *gorm.DB, userID uint, kind ActivityKind, eventID *uint) error {
	switch kind {
	case KindDailyLogin:
		if countTodayRecords(tx, userID, KindDailyLogin) > 0 {
			return ErrDuplicateActivity
		}
	case KindShareEvent:
		if eventID != nil && hasSharedEventToday(tx, userID, *eventID) {
			return ErrDuplicateActivity
		}
	case KindProfileComplete:
		if hasProfileCompleteBonus(tx, userID) {
			return ErrDuplicateActivity
		}
	}
	return nil
}
