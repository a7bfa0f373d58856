package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"campusnex/internal/db"
	"campusnex/internal/models"
	"campusnex/internal/utils"

	"gorm.io/gorm"
)

// 榜单分区（按角色划分）
const (
	PartitionStudents   = "students"
	PartitionOrganizers = "organizers"
)

// 排序字段白名单，防止把任意列暴露给前端
const (
	SortByTotalPoints    = "total_points"
	SortByEventsAttended = "events_attended"
	SortByEventsCreated  = "events_created"
)

const (
	DefaultPage      = 1
	DefaultLimit     = 20
	MaxLimit         = 50
	DefaultTopN      = 10
	snapshotCacheTTL = 30 * time.Second
)

// LeaderboardQuery 校验后的榜单查询参数
type LeaderboardQuery struct {
	Partition string
	Page      int
	Limit     int
	SortBy    string
	Order     string
}

// LeaderboardEntry 榜单条目，每次查询从 UserStats 现算，不落库
type LeaderboardEntry struct {
	Rank           int    `json:"rank"`
	UserID         uint   `json:"user_id"`
	DisplayName    string `json:"display_name"`
	Avatar         string `json:"avatar"`
	TotalPoints    int    `json:"total_points"`
	EventsCreated  int    `json:"events_created"`
	EventsAttended int    `json:"events_attended"`
	CurrentStreak  int    `json:"current_streak"`
}

// Pagination 分页元信息
type Pagination struct {
	CurrentPage int  `json:"current_page"`
	TotalPages  int  `json:"total_pages"`
	TotalItems  int  `json:"total_items"`
	HasNextPage bool `json:"has_next_page"`
	HasPrevPage bool `json:"has_prev_page"`
}

// LeaderboardPage 一页榜单
type LeaderboardPage struct {
	Entries    []LeaderboardEntry `json:"entries"`
	Pagination Pagination         `json:"pagination"`
}

// NormalizeLeaderboardQuery 校验并补全查询参数。
// page/limit 传 0 取默认值；分区、排序字段、方向不合法直接报错。
func NormalizeLeaderboardQuery(partition, sortBy, order string, page, limit int) (LeaderboardQuery, error) {
	q := LeaderboardQuery{Partition: partition, Page: page, Limit: limit, SortBy: sortBy, Order: order}

	if q.Partition != PartitionStudents && q.Partition != PartitionOrganizers {
		return q, fmt.Errorf("invalid leaderboard type: %q", partition)
	}
	if q.SortBy == "" {
		q.SortBy = SortByTotalPoints
	}
	switch q.SortBy {
	case SortByTotalPoints, SortByEventsAttended, SortByEventsCreated:
	default:
		return q, fmt.Errorf("invalid sort_by: %q", sortBy)
	}
	if q.Order == "" {
		q.Order = "desc"
	}
	if q.Order != "asc" && q.Order != "desc" {
		return q, fmt.Errorf("invalid order: %q", order)
	}
	if q.Page == 0 {
		q.Page = DefaultPage
	}
	if q.Page < 0 {
		return q, fmt.Errorf("page must be positive, got %d", page)
	}
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit < 0 {
		return q, fmt.Errorf("limit must be positive, got %d", limit)
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q, nil
}

func sortValue(s *models.UserStats, sortBy string) int {
	switch sortBy {
	case SortByEventsAttended:
		return s.EventsAttended
	case SortByEventsCreated:
		return s.EventsCreated
	default:
		return s.TotalPoints
	}
}

// RankStats 纯内存排名：按 sortBy/order 稳定排序，平分时按 UserID 升序
// 保证可重现，排序后按下标+1 赋 rank。
func RankStats(stats []models.UserStats, sortBy, order string) []LeaderboardEntry {
	sorted := make([]models.UserStats, len(stats))
	copy(sorted, stats)

	sort.SliceStable(sorted, func(i, j int) bool {
		vi, vj := sortValue(&sorted[i], sortBy), sortValue(&sorted[j], sortBy)
		if vi != vj {
			if order == "asc" {
				return vi < vj
			}
			return vi > vj
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	entries := make([]LeaderboardEntry, len(sorted))
	for i, s := range sorted {
		entries[i] = LeaderboardEntry{
			Rank:           i + 1,
			UserID:         s.UserID,
			DisplayName:    s.User.DisplayName,
			Avatar:         s.User.Avatar,
			TotalPoints:    s.TotalPoints,
			EventsCreated:  s.EventsCreated,
			EventsAttended: s.EventsAttended,
			CurrentStreak:  s.CurrentStreak,
		}
	}
	return entries
}

// PaginateEntries 对排好序的条目切页。
// 超出范围的页码返回空列表和合法的分页元信息，不报错；空数据集 TotalPages 为 0。
func PaginateEntries(entries []LeaderboardEntry, page, limit int) ([]LeaderboardEntry, Pagination) {
	// 调用方应当先走 NormalizeLeaderboardQuery，这里兜底非法值避免除零和负下标
	if limit < 1 {
		limit = 1
	}
	if page < 1 {
		page = 1
	}
	total := len(entries)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	p := Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalItems:  total,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1 && total > 0,
	}

	start := (page - 1) * limit
	if start >= total {
		return []LeaderboardEntry{}, p
	}
	end := start + limit
	if end > total {
		end = total
	}
	return entries[start:end], p
}

// partitionRole 分区名 -> 用户角色
func partitionRole(partition string) string {
	if partition == PartitionOrganizers {
		return models.RoleOrganizer
	}
	return models.RoleStudent
}

// loadPartitionStats 加载某分区全部用户聚合（带用户信息）
func loadPartitionStats(partition string) ([]models.UserStats, error) {
	var stats []models.UserStats
	err := db.DB.Preload("User").
		Joins("JOIN users ON users.id = user_stats.user_id AND users.role = ?", partitionRole(partition)).
		Find(&stats).Error
	return stats, err
}

// GetLeaderboard 榜单分页查询：过滤分区 -> 全量排序 -> 切页
func GetLeaderboard(q LeaderboardQuery) (*LeaderboardPage, error) {
	stats, err := loadPartitionStats(q.Partition)
	if err != nil {
		return nil, err
	}

	entries := RankStats(stats, q.SortBy, q.Order)

	// 默认排序下顺手把名次回写到缓存列（机会性，失败不影响查询）
	if q.SortBy == SortByTotalPoints && q.Order == "desc" {
		go writeBackRanks(entries)
	}

	pageEntries, pagination := PaginateEntries(entries, q.Page, q.Limit)
	return &LeaderboardPage{Entries: pageEntries, Pagination: pagination}, nil
}

// writeBackRanks 将现算名次回写到 user_stats.rank。
// 纯粹是展示兜底，读路径从不信任这一列。
func writeBackRanks(entries []LeaderboardEntry) {
	for _, e := range entries {
		if err := db.DB.Model(&models.UserStats{}).
			Where("user_id = ?", e.UserID).
			UpdateColumn("rank", e.Rank).Error; err != nil {
			log.Printf("回写用户 %d 名次失败: %v", e.UserID, err)
			return
		}
	}
}

// GetTopSnapshot 各分区前 N 名快照（无分页的便捷视图），带 30 秒本地缓存。
// partition 为空时返回全部分区。
func GetTopSnapshot(n int, partition string) (map[string][]LeaderboardEntry, error) {
	if n <= 0 {
		n = DefaultTopN
	}
	if n > MaxLimit {
		n = MaxLimit
	}

	cacheKey := fmt.Sprintf("leaderboard:top:%s:%d", partition, n)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if snapshot, ok := cached.(map[string][]LeaderboardEntry); ok {
			return snapshot, nil
		}
	}

	partitions := []string{PartitionStudents, PartitionOrganizers}
	if partition != "" {
		if partition != PartitionStudents && partition != PartitionOrganizers {
			return nil, fmt.Errorf("invalid leaderboard type: %q", partition)
		}
		partitions = []string{partition}
	}

	snapshot := make(map[string][]LeaderboardEntry, len(partitions))
	for _, p := range partitions {
		stats, err := loadPartitionStats(p)
		if err != nil {
			return nil, err
		}
		entries := RankStats(stats, SortByTotalPoints, "desc")
		if len(entries) > n {
			entries = entries[:n]
		}
		snapshot[p] = entries
	}

	utils.GetCache().Set(cacheKey, snapshot, snapshotCacheTTL)
	return snapshot, nil
}

// PartitionAggregate 单个分区的汇总统计
type PartitionAggregate struct {
	Users     int     `json:"users"`
	TopPoints int     `json:"top_points"`
	AvgPoints float64 `json:"avg_points"`
}

// GetAggregateStats 各分区的用户数、最高分、平均分，按需现算不缓存
func GetAggregateStats() (map[string]PartitionAggregate, error) {
	result := make(map[string]PartitionAggregate, 2)
	for _, p := range []string{PartitionStudents, PartitionOrganizers} {
		var agg struct {
			Users     int
			TopPoints int
			AvgPoints float64
		}
		err := db.DB.Model(&models.UserStats{}).
			Select("COUNT(*) as users, COALESCE(MAX(total_points), 0) as top_points, COALESCE(AVG(total_points), 0) as avg_points").
			Joins("JOIN users ON users.id = user_stats.user_id AND users.role = ?", partitionRole(p)).
			Scan(&agg).Error
		if err != nil {
			return nil, err
		}
		result[p] = PartitionAggregate{Users: agg.Users, TopPoints: agg.TopPoints, AvgPoints: agg.AvgPoints}
	}
	return result, nil
}

// UserStatsWithRank 个人统计 + 现算名次
type UserStatsWithRank struct {
	UserID         uint       `json:"user_id"`
	TotalPoints    int        `json:"total_points"`
	Rank           int        `json:"rank"` // 0 表示尚未上榜（无任何积分行为或不在分区内）
	EventsCreated  int        `json:"events_created"`
	EventsAttended int        `json:"events_attended"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at"`
}

// GetUserStatsWithRank 查询单个用户的统计和名次。
// 名次和榜单一样走全量排序后定位，不读缓存列。
// 没有任何积分行为的用户返回全零统计而不是报错（新用户是正常状态）。
func GetUserStatsWithRank(userID uint) (*UserStatsWithRank, error) {
	var user models.User
	if err := db.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	result := &UserStatsWithRank{UserID: userID}

	var stats models.UserStats
	err := db.DB.Where("user_id = ?", userID).First(&stats).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return result, nil // 零活动用户，返回零值统计
	}
	if err != nil {
		return nil, err
	}

	result.TotalPoints = stats.TotalPoints
	result.EventsCreated = stats.EventsCreated
	result.EventsAttended = stats.EventsAttended
	result.CurrentStreak = stats.CurrentStreak
	result.LongestStreak = stats.LongestStreak
	result.LastActivityAt = stats.LastActivityAt

	// admin 不参与任何分区排名
	if user.Role == models.RoleAdmin {
		return result, nil
	}

	partition := PartitionStudents
	if user.Role == models.RoleOrganizer {
		partition = PartitionOrganizers
	}
	all, err := loadPartitionStats(partition)
	if err != nil {
		return nil, err
	}
	for _, e := range RankStats(all, SortByTotalPoints, "desc") {
		if e.UserID == userID {
			result.Rank = e.Rank
			break
		}
	}
	return result, nil
}

// RankForUser 只取名次的简便入口
func RankForUser(userID uint) (int, error) {
	stats, err := GetUserStatsWithRank(userID)
	if err != nil {
		return 0, err
	}
	return stats.Rank, nil
}
