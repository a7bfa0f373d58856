package services

import (
	"testing"
)

func TestPointsFor(t *testing.T) {
	cases := []struct {
		kind   ActivityKind
		points int
	}{
		{KindCreateEvent, 10},
		{KindAttendEvent, 5},
		{KindEarlyRegistration, 3},
		{KindEventReview, 2},
		{KindProfileComplete, 5},
		{KindDailyLogin, 1},
		{KindShareEvent, 2},
	}

	for _, tc := range cases {
		pts, err := PointsFor(tc.kind)
		if err != nil {
			t.Fatalf("PointsFor(%s) failed: %v", tc.kind, err)
		}
		if pts != tc.points {
			t.Errorf("PointsFor(%s) = %d, want %d", tc.kind, pts, tc.points)
		}
	}
}

func TestPointsForUnknownKind(t *testing.T) {
	// 未知行为必须报错，不能默默按 0 分发放
	for _, kind := range []ActivityKind{"", "delete_event", "attend_Event", "login"} {
		pts, err := PointsFor(kind)
		if err == nil {
			t.Errorf("PointsFor(%q) should fail, got %d points", kind, pts)
		}
		if pts != 0 {
			t.Errorf("PointsFor(%q) awarded %d points on error", kind, pts)
		}
	}
}

func TestValidKind(t *testing.T) {
	if !ValidKind(KindDailyLogin) {
		t.Error("ValidKind(daily_login) = false")
	}
	if ValidKind("bogus") {
		t.Error("ValidKind(bogus) = true")
	}
}

func TestActivityKindsCoversTable(t *testing.T) {
	kinds := ActivityKinds()
	if len(kinds) != len(pointsTable) {
		t.Fatalf("ActivityKinds returned %d kinds, want %d", len(kinds), len(pointsTable))
	}
	for _, k := range kinds {
		if !ValidKind(k) {
			t.Errorf("ActivityKinds returned invalid kind %q", k)
		}
	}
}
