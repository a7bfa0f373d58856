package services

import (
	"testing"
	"time"
)

func TestNextStreakFirstActivity(t *testing.T) {
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	cur, longest := NextStreak(nil, now, 0, 0)
	if cur != 1 || longest != 1 {
		t.Errorf("first activity: got (%d, %d), want (1, 1)", cur, longest)
	}
}

func TestNextStreakSameDay(t *testing.T) {
	last := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 10, 22, 0, 0, 0, time.UTC)

	// 同一天多次行为不重复计数
	cur, longest := NextStreak(&last, now, 3, 5)
	if cur != 3 || longest != 5 {
		t.Errorf("same day: got (%d, %d), want (3, 5)", cur, longest)
	}
}

func TestNextStreakConsecutiveDay(t *testing.T) {
	last := time.Date(2025, 3, 10, 23, 30, 0, 0, time.UTC)
	now := time.Date(2025, 3, 11, 0, 30, 0, 0, time.UTC)

	// 跨天即算第二天，即使实际只隔一小时
	cur, longest := NextStreak(&last, now, 3, 3)
	if cur != 4 {
		t.Errorf("consecutive day: current = %d, want 4", cur)
	}
	if longest != 4 {
		t.Errorf("consecutive day: longest = %d, want 4", longest)
	}
}

func TestNextStreakSpringForwardDay(t *testing.T) {
	// 夏令时开始的那天只有 23 小时，相邻两天中午的时刻差不足 24h，
	// 按日历日判断仍然是连续两天
	est := time.FixedZone("EST", -5*3600)
	edt := time.FixedZone("EDT", -4*3600)
	last := time.Date(2025, 3, 9, 12, 0, 0, 0, est)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, edt)

	cur, longest := NextStreak(&last, now, 3, 5)
	if cur != 4 {
		t.Errorf("across spring forward: current = %d, want 4", cur)
	}
	if longest != 5 {
		t.Errorf("across spring forward: longest = %d, want 5", longest)
	}
}

func TestNextStreakFallBackDay(t *testing.T) {
	// 夏令时结束的那天有 25 小时，时刻差超过 24h 但并没有漏打一天
	edt := time.FixedZone("EDT", -4*3600)
	est := time.FixedZone("EST", -5*3600)
	last := time.Date(2025, 11, 1, 12, 0, 0, 0, edt)
	now := time.Date(2025, 11, 2, 12, 0, 0, 0, est)

	cur, longest := NextStreak(&last, now, 3, 3)
	if cur != 4 || longest != 4 {
		t.Errorf("across fall back: got (%d, %d), want (4, 4)", cur, longest)
	}
}

func TestNextStreakGapResets(t *testing.T) {
	last := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 12, 12, 0, 0, 0, time.UTC)

	cur, longest := NextStreak(&last, now, 7, 9)
	if cur != 1 {
		t.Errorf("after gap: current = %d, want 1", cur)
	}
	// 历史最长记录不受重置影响
	if longest != 9 {
		t.Errorf("after gap: longest = %d, want 9", longest)
	}
}

func TestNextStreakLongestTracksCurrent(t *testing.T) {
	last := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)

	cur, longest := NextStreak(&last, now, 9, 9)
	if cur != 10 || longest != 10 {
		t.Errorf("new record: got (%d, %d), want (10, 10)", cur, longest)
	}
}

func TestNextStreakZeroCurrentTreatedAsFirst(t *testing.T) {
	// 聚合行存在但从未计过连胜（如 InitStats 初始化的存量用户）
	last := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC)

	cur, longest := NextStreak(&last, now, 0, 0)
	if cur != 1 || longest != 1 {
		t.Errorf("zero current: got (%d, %d), want (1, 1)", cur, longest)
	}
}
