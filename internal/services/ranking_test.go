package services

import (
	"reflect"
	"testing"

	"campusnex/internal/models"
)

func makeStats(points []int) []models.UserStats {
	stats := make([]models.UserStats, len(points))
	for i, p := range points {
		id := uint(i + 1)
		stats[i] = models.UserStats{
			UserID:      id,
			TotalPoints: p,
			User:        models.User{ID: id, DisplayName: "user"},
		}
	}
	return stats
}

func TestNormalizeLeaderboardQuery(t *testing.T) {
	q, err := NormalizeLeaderboardQuery(PartitionStudents, "", "", 0, 0)
	if err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	if q.Page != DefaultPage || q.Limit != DefaultLimit || q.SortBy != SortByTotalPoints || q.Order != "desc" {
		t.Errorf("unexpected defaults: %+v", q)
	}

	// limit 超上限截断而不是报错
	q, err = NormalizeLeaderboardQuery(PartitionOrganizers, SortByEventsCreated, "asc", 2, 500)
	if err != nil {
		t.Fatalf("valid query rejected: %v", err)
	}
	if q.Limit != MaxLimit {
		t.Errorf("limit = %d, want capped at %d", q.Limit, MaxLimit)
	}

	bad := []struct {
		partition, sortBy, order string
		page, limit              int
	}{
		{"admins", "", "", 0, 0},          // 分区不在 {students, organizers}
		{PartitionStudents, "password", "", 0, 0}, // 排序字段不在白名单
		{PartitionStudents, "", "random", 0, 0},
		{PartitionStudents, "", "", -1, 0},
		{PartitionStudents, "", "", 0, -5},
	}
	for _, tc := range bad {
		if _, err := NormalizeLeaderboardQuery(tc.partition, tc.sortBy, tc.order, tc.page, tc.limit); err == nil {
			t.Errorf("NormalizeLeaderboardQuery(%+v) should fail", tc)
		}
	}
}

func TestRankStatsOrderingAndRanks(t *testing.T) {
	stats := makeStats([]int{30, 50, 10, 40, 20})

	entries := RankStats(stats, SortByTotalPoints, "desc")
	if len(entries) != 5 {
		t.Fatalf("got %d entries, want 5", len(entries))
	}

	// 名次严格递增，分数降序
	for i := range entries {
		if entries[i].Rank != i+1 {
			t.Errorf("entries[%d].Rank = %d, want %d", i, entries[i].Rank, i+1)
		}
		if i > 0 && entries[i].TotalPoints > entries[i-1].TotalPoints {
			t.Errorf("entries not sorted desc at %d: %d > %d", i, entries[i].TotalPoints, entries[i-1].TotalPoints)
		}
	}
	if entries[0].UserID != 2 || entries[0].TotalPoints != 50 {
		t.Errorf("top entry = user %d with %d points, want user 2 with 50", entries[0].UserID, entries[0].TotalPoints)
	}

	asc := RankStats(stats, SortByTotalPoints, "asc")
	if asc[0].TotalPoints != 10 {
		t.Errorf("asc top = %d points, want 10", asc[0].TotalPoints)
	}
}

func TestRankStatsTieBreakDeterministic(t *testing.T) {
	stats := makeStats([]int{20, 20, 20})

	first := RankStats(stats, SortByTotalPoints, "desc")
	second := RankStats(stats, SortByTotalPoints, "desc")

	// 同一快照重复查询必须得到完全一致的排序
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated RankStats calls returned different orderings")
	}

	// 平分按 UserID 升序
	for i, e := range first {
		if e.UserID != uint(i+1) {
			t.Errorf("tie-break: entries[%d].UserID = %d, want %d", i, e.UserID, i+1)
		}
	}
}

func TestRankStatsDoesNotMutateInput(t *testing.T) {
	stats := makeStats([]int{1, 3, 2})
	RankStats(stats, SortByTotalPoints, "desc")
	if stats[0].TotalPoints != 1 || stats[1].TotalPoints != 3 || stats[2].TotalPoints != 2 {
		t.Error("RankStats mutated its input slice")
	}
}

func TestPaginateSecondPageOfTwelve(t *testing.T) {
	// 12 个用户，每页 10：第 2 页恰好是最后 2 名
	entries := RankStats(makeStats([]int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}), SortByTotalPoints, "desc")

	page, p := PaginateEntries(entries, 2, 10)
	if len(page) != 2 {
		t.Fatalf("page 2 has %d entries, want 2", len(page))
	}
	if page[0].Rank != 11 || page[1].Rank != 12 {
		t.Errorf("page 2 ranks = %d, %d, want 11, 12", page[0].Rank, page[1].Rank)
	}
	if p.TotalPages != 2 || p.TotalItems != 12 {
		t.Errorf("pagination = %+v, want 2 pages / 12 items", p)
	}
	if p.HasNextPage {
		t.Error("HasNextPage = true on last page")
	}
	if !p.HasPrevPage {
		t.Error("HasPrevPage = false on page 2")
	}
}

func TestPaginateBeyondLastPage(t *testing.T) {
	entries := RankStats(makeStats([]int{12, 11, 10, 9, 8, 7, 6, 5, 4, 3, 2, 1}), SortByTotalPoints, "desc")

	// 超范围页码返回空列表和合法元信息，不报错
	page, p := PaginateEntries(entries, 99, 10)
	if len(page) != 0 {
		t.Errorf("page 99 has %d entries, want 0", len(page))
	}
	if p.TotalPages != 2 {
		t.Errorf("TotalPages = %d, want 2", p.TotalPages)
	}
	if p.CurrentPage != 99 {
		t.Errorf("CurrentPage = %d, want 99", p.CurrentPage)
	}
	if p.HasNextPage {
		t.Error("HasNextPage = true beyond last page")
	}
}

func TestPaginateEmptySet(t *testing.T) {
	page, p := PaginateEntries(nil, 1, 10)
	if len(page) != 0 {
		t.Errorf("empty set returned %d entries", len(page))
	}
	if p.TotalPages != 0 || p.TotalItems != 0 {
		t.Errorf("empty set pagination = %+v, want 0 pages / 0 items", p)
	}
	if p.HasNextPage || p.HasPrevPage {
		t.Error("empty set should have no next/prev page")
	}
}

func TestPaginateClampsNonPositiveInput(t *testing.T) {
	entries := RankStats(makeStats([]int{5, 4, 3}), SortByTotalPoints, "desc")

	// 直接调用方传入 0/-1 时按 1 兜底，不能除零或切负下标
	page, p := PaginateEntries(entries, 1, 0)
	if len(page) != 1 {
		t.Fatalf("limit 0: got %d entries, want 1", len(page))
	}
	if p.TotalPages != 3 {
		t.Errorf("limit 0: total pages = %d, want 3", p.TotalPages)
	}

	page, p = PaginateEntries(entries, -2, -5)
	if len(page) != 1 || p.CurrentPage != 1 {
		t.Errorf("negative input: got %d entries page %d, want 1 entry page 1", len(page), p.CurrentPage)
	}
}

func TestPaginateAllPagesCoverEverything(t *testing.T) {
	entries := RankStats(makeStats([]int{9, 8, 7, 6, 5, 4, 3, 2, 1}), SortByTotalPoints, "desc")
	limit := 4

	// 逐页拼接应无重复无遗漏地还原完整序列
	seen := make(map[uint]bool)
	var concatenated []LeaderboardEntry
	_, p := PaginateEntries(entries, 1, limit)
	for page := 1; page <= p.TotalPages; page++ {
		pageEntries, _ := PaginateEntries(entries, page, limit)
		for _, e := range pageEntries {
			if seen[e.UserID] {
				t.Errorf("user %d appears on multiple pages", e.UserID)
			}
			seen[e.UserID] = true
		}
		concatenated = append(concatenated, pageEntries...)
	}

	if !reflect.DeepEqual(concatenated, entries) {
		t.Error("concatenated pages do not reproduce the full sorted sequence")
	}
}
