package services

import (
	"os"
	"sync"
	"testing"

	"campusnex/internal/db"
	"campusnex/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// 记分事务依赖行锁和 ON CONFLICT，必须跑在真实 Postgres 上。
// 设置 TEST_DATABASE_URL 指向一个可清空的测试库即可启用这批用例，
// 未设置时整批跳过。
func openTestDB(t *testing.T) {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试库失败: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &models.ActivityRecord{}, &models.UserStats{}); err != nil {
		t.Fatalf("迁移测试库失败: %v", err)
	}
	db.DB = gdb
	if err := gdb.Exec("TRUNCATE activity_records, user_stats, users RESTART IDENTITY CASCADE").Error; err != nil {
		t.Fatalf("清空测试表失败: %v", err)
	}
}

func createTestUser(t *testing.T, role string) *models.User {
	t.Helper()
	user := &models.User{
		DisplayName: "test-" + role,
		Email:       role + "@campus.test",
		Password:    "x",
		Role:        role,
	}
	if err := db.DB.Create(user).Error; err != nil {
		t.Fatalf("创建测试用户失败: %v", err)
	}
	return user
}

func loadStats(t *testing.T, userID uint) models.UserStats {
	t.Helper()
	var stats models.UserStats
	if err := db.DB.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		t.Fatalf("读取聚合行失败: %v", err)
	}
	return stats
}

func sumRecordPoints(t *testing.T, userID uint) int {
	t.Helper()
	var total struct{ Total int }
	if err := db.DB.Model(&models.ActivityRecord{}).
		Select("COALESCE(SUM(points), 0) as total").
		Where("user_id = ?", userID).
		Scan(&total).Error; err != nil {
		t.Fatalf("汇总流水失败: %v", err)
	}
	return total.Total
}

func TestRecordActivityKeepsAggregateInSyncWithLedger(t *testing.T) {
	openTestDB(t)
	user := createTestUser(t, models.RoleStudent)

	// 参加两场活动：+5 +5，TotalPoints 必须等于流水之和
	for i := 0; i < 2; i++ {
		eventID := uint(i + 1)
		if _, err := RecordActivity(user.ID, KindAttendEvent, &eventID); err != nil {
			t.Fatalf("第 %d 次记分失败: %v", i+1, err)
		}
	}

	stats := loadStats(t, user.ID)
	if stats.TotalPoints != 10 {
		t.Errorf("total points = %d, want 10", stats.TotalPoints)
	}
	if stats.EventsAttended != 2 {
		t.Errorf("events attended = %d, want 2", stats.EventsAttended)
	}
	if got := sumRecordPoints(t, user.ID); got != stats.TotalPoints {
		t.Errorf("ledger sum %d != aggregate %d", got, stats.TotalPoints)
	}

	// 一致状态下对账不应触发修复
	res, err := ReconcileUserStats(user.ID)
	if err != nil {
		t.Fatalf("对账失败: %v", err)
	}
	if res.Repaired {
		t.Errorf("consistent stats got repaired: %+v", res)
	}
}

func TestRecordActivityConcurrentFirstActivities(t *testing.T) {
	openTestDB(t)
	user := createTestUser(t, models.RoleStudent)

	// 用户还没有聚合行时并发记分，两条流水都必须落库，
	// 惰性创建不能因为唯一索引冲突把其中一笔吞掉
	kinds := []ActivityKind{KindAttendEvent, KindEventReview, KindCreateEvent, KindEarlyRegistration}
	errs := make([]error, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind ActivityKind) {
			defer wg.Done()
			eventID := uint(i + 1)
			_, errs[i] = RecordActivity(user.ID, kind, &eventID)
		}(i, kind)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("并发记分 %s 失败: %v", kinds[i], err)
		}
	}

	var count int64
	db.DB.Model(&models.ActivityRecord{}).Where("user_id = ?", user.ID).Count(&count)
	if count != int64(len(kinds)) {
		t.Errorf("ledger has %d records, want %d", count, len(kinds))
	}

	stats := loadStats(t, user.ID)
	if got := sumRecordPoints(t, user.ID); got != stats.TotalPoints {
		t.Errorf("ledger sum %d != aggregate %d", got, stats.TotalPoints)
	}
}

func TestRecordActivityDailyLoginOncePerDay(t *testing.T) {
	openTestDB(t)
	user := createTestUser(t, models.RoleStudent)

	if _, err := RecordActivity(user.ID, KindDailyLogin, nil); err != nil {
		t.Fatalf("首次签到失败: %v", err)
	}
	// 同日重复签到在事务内被拒绝，不依赖处理器层的预检查
	if _, err := RecordActivity(user.ID, KindDailyLogin, nil); err != ErrDuplicateActivity {
		t.Fatalf("重复签到 err = %v, want ErrDuplicateActivity", err)
	}

	stats := loadStats(t, user.ID)
	if stats.TotalPoints != 1 {
		t.Errorf("total points = %d, want 1", stats.TotalPoints)
	}
}

func TestReconcileRepairsDriftedAggregate(t *testing.T) {
	openTestDB(t)
	user := createTestUser(t, models.RoleStudent)

	eventID := uint(1)
	if _, err := RecordActivity(user.ID, KindAttendEvent, &eventID); err != nil {
		t.Fatalf("记分失败: %v", err)
	}

	// 人为制造聚合漂移，模拟存储层原子性失效
	if err := db.DB.Model(&models.UserStats{}).
		Where("user_id = ?", user.ID).
		UpdateColumn("total_points", 999).Error; err != nil {
		t.Fatalf("制造漂移失败: %v", err)
	}

	res, err := ReconcileUserStats(user.ID)
	if err != nil {
		t.Fatalf("对账失败: %v", err)
	}
	if !res.Repaired {
		t.Fatal("drifted stats not repaired")
	}
	if res.StoredTotal != 999 || res.ComputedTotal != 5 {
		t.Errorf("reconcile result = %+v, want stored 999 computed 5", res)
	}
	if stats := loadStats(t, user.ID); stats.TotalPoints != 5 {
		t.Errorf("after repair total = %d, want 5", stats.TotalPoints)
	}
}

func TestUserStatsZeroActivity(t *testing.T) {
	openTestDB(t)
	user := createTestUser(t, models.RoleStudent)

	// 从未有积分行为的用户返回全零统计、名次 0，不报错
	res, err := GetUserStatsWithRank(user.ID)
	if err != nil {
		t.Fatalf("查询零活动用户失败: %v", err)
	}
	if res.TotalPoints != 0 || res.Rank != 0 || res.EventsAttended != 0 {
		t.Errorf("zero-activity stats = %+v, want all zero", res)
	}
}

func TestRecordActivityUnknownUser(t *testing.T) {
	openTestDB(t)

	if _, err := RecordActivity(424242, KindAttendEvent, nil); err != ErrUserNotFound {
		t.Errorf("unknown user err = %v, want ErrUserNotFound", err)
	}
}
