package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"campusnex/internal/db"
	"campusnex/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrUserNotFound 用户在身份库中不存在
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateActivity 防重复查命中（每日登录/分享/资料完善已领过）
	ErrDuplicateActivity = errors.New("duplicate activity")
)

// RecordResult RecordActivity 的返回值
type RecordResult struct {
	NewTotalPoints int `json:"new_total_points"`
	NewRank        int `json:"new_rank"`
}

// RecordActivity 使用事务记录一次积分行为并更新用户聚合。
// 流水插入和聚合增量在同一事务内完成，聚合行加行锁串行化同一用户的并发写，
// 保证 TotalPoints 不丢更新、连胜计算不乱序。
func RecordActivity(userID uint, kind ActivityKind, eventID *uint) (*RecordResult, error) {
	points, err := PointsFor(kind)
	if err != nil {
		return nil, err
	}

	// 用户必须真实存在，流水不挂到幽灵用户上
	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	var newTotal int
	err = db.DB.Transaction(func(tx *gorm.DB) error {
		// 1. 锁定该用户的聚合行。FOR UPDATE 锁不住不存在的行，
		// 先做一次冲突忽略的插入保证行存在，并发首次计分时两边拿到的是同一把行锁
		stats, err := lockUserStats(tx, userID)
		if err != nil {
			return err
		}

		// 行锁之后在事务内复查防重，关闭先检查后写入的竞态窗口
		if err := checkDuplicate(tx, userID, kind, eventID); err != nil {
			return err
		}

		// 2. 追加流水记录
		record := models.ActivityRecord{
			UserID:  userID,
			Kind:    string(kind),
			Points:  points,
			EventID: eventID,
		}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		// 3. 更新聚合：积分、分项计数、连胜、最后活跃时间
		now := time.Now()
		cur, longest := NextStreak(stats.LastActivityAt, now, stats.CurrentStreak, stats.LongestStreak)
		updates := map[string]interface{}{
			"total_points":     gorm.Expr("total_points + ?", points),
			"current_streak":   cur,
			"longest_streak":   longest,
			"last_activity_at": now,
		}
		switch kind {
		case KindCreateEvent:
			updates["events_created"] = gorm.Expr("events_created + ?", 1)
		case KindAttendEvent:
			updates["events_attended"] = gorm.Expr("events_attended + ?", 1)
		}
		if err := tx.Model(&stats).Updates(updates).Error; err != nil {
			return err
		}

		newTotal = stats.TotalPoints + points
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 排名读取时重新计算，不依赖缓存列
	rank, err := RankForUser(userID)
	if err != nil {
		log.Printf("计算用户 %d 排名失败: %v", userID, err)
		rank = 0
	}

	return &RecordResult{NewTotalPoints: newTotal, NewRank: rank}, nil
}

// lockUserStats 在事务内取出并锁定用户的聚合行，不存在时先创建。
// ON CONFLICT DO NOTHING 保证并发创建只有一行落库，随后的 FOR UPDATE 串行化后续写入。
func lockUserStats(tx *gorm.DB, userID uint) (models.UserStats, error) {
	var stats models.UserStats
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserStats{UserID: userID}).Error; err != nil {
		return stats, err
	}
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&stats).Error
	return stats, err
}

// RecordActivityAsync 异步记录积分行为（在 goroutine 中调用，失败只记日志）
func RecordActivityAsync(userID uint, kind ActivityKind, eventID *uint) {
	go func() {
		if _, err := RecordActivity(userID, kind, eventID); err != nil {
			log.Printf("记录积分行为失败 user=%d kind=%s: %v", userID, kind, err)
		}
	}()
}

// NextStreak 计算新的连续活跃天数。
// 同一天内的多次行为不重复计数；昨天有活跃则 +1；隔天以上归 1。
func NextStreak(last *time.Time, now time.Time, current, longest int) (int, int) {
	switch {
	case last == nil || current == 0:
		current = 1
	default:
		// 按日历日比较，日期差在 UTC 下计算。
		// 夏令时切换日只有 23 或 25 小时，不能直接拿时刻差换算天数
		gap := utcDate(now).Sub(utcDate(*last)) / (24 * time.Hour)
		if gap == 1 {
			current++
		} else if gap != 0 {
			current = 1
		}
		// gap == 0 同一天，保持不变
	}
	if current > longest {
		longest = current
	}
	return current, longest
}

// utcDate 取时间在其所属时区的日历日，落到 UTC 零点上
func utcDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// InitUserStats 为存量用户显式初始化聚合行（幂等）
func InitUserStats(userID uint) (*models.UserStats, error) {
	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// 并发初始化同一用户时依赖唯一索引去重，已存在则落到查询分支
	if err := db.DB.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserStats{UserID: userID}).Error; err != nil {
		return nil, err
	}
	var stats models.UserStats
	if err := db.DB.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

// ReconcileResult 对账结果
type ReconcileResult struct {
	UserID         uint `json:"user_id"`
	StoredTotal    int  `json:"stored_total"`
	ComputedTotal  int  `json:"computed_total"`
	Repaired       bool `json:"repaired"`
	EventsCreated  int  `json:"events_created"`
	EventsAttended int  `json:"events_attended"`
}

// ReconcileUserStats 对账修复操作：按流水重算 TotalPoints 和分项计数，
// 发现不一致时记日志并覆盖聚合行。聚合与流水理应在事务内同步写入，
// 此操作是存储层原子性失效时的补偿手段。
func ReconcileUserStats(userID uint) (*ReconcileResult, error) {
	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	result := &ReconcileResult{UserID: userID}

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		stats, err := lockUserStats(tx, userID)
		if err != nil {
			return err
		}

		var computed struct {
			Total int
		}
		if err := tx.Model(&models.ActivityRecord{}).
			Select("COALESCE(SUM(points), 0) as total").
			Where("user_id = ?", userID).
			Scan(&computed).Error; err != nil {
			return err
		}

		var created, attended int64
		tx.Model(&models.ActivityRecord{}).
			Where("user_id = ? AND kind = ?", userID, KindCreateEvent).Count(&created)
		tx.Model(&models.ActivityRecord{}).
			Where("user_id = ? AND kind = ?", userID, KindAttendEvent).Count(&attended)

		result.StoredTotal = stats.TotalPoints
		result.ComputedTotal = computed.Total
		result.EventsCreated = int(created)
		result.EventsAttended = int(attended)

		if stats.TotalPoints == computed.Total &&
			stats.EventsCreated == int(created) &&
			stats.EventsAttended == int(attended) {
			return nil
		}

		log.Printf("用户 %d 聚合与流水不一致: total %d != %d，执行修复",
			userID, stats.TotalPoints, computed.Total)

		result.Repaired = true
		return tx.Model(&stats).Updates(map[string]interface{}{
			"total_points":    computed.Total,
			"events_created":  int(created),
			"events_attended": int(attended),
		}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("reconcile user %d: %w", userID, err)
	}
	return result, nil
}
