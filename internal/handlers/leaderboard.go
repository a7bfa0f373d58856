package handlers

import (
	"net/http"
	"strconv"

	"campusnex/internal/services"
	"campusnex/internal/utils"

	"github.com/gin-gonic/gin"
)

type LeaderboardHandler struct{}

func NewLeaderboardHandler() *LeaderboardHandler {
	return &LeaderboardHandler{}
}

// parsePositiveInt 解析必须为正的查询参数，缺省用 fallback
func parsePositiveInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}

// Get GET /api/leaderboard?type=students&page=1&limit=20&sort_by=total_points&order=desc
// 只做参数翻译，排名逻辑全部在 services
func (h *LeaderboardHandler) Get(c *gin.Context) {
	page, ok := parsePositiveInt(c, "page", services.DefaultPage)
	if !ok {
		Fail(c, http.StatusBadRequest, "page must be a positive integer")
		return
	}
	limit, ok := parsePositiveInt(c, "limit", services.DefaultLimit)
	if !ok {
		Fail(c, http.StatusBadRequest, "limit must be a positive integer")
		return
	}

	q, err := services.NormalizeLeaderboardQuery(
		c.DefaultQuery("type", services.PartitionStudents),
		c.Query("sort_by"),
		c.Query("order"),
		page, limit,
	)
	if err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := services.GetLeaderboard(q)
	if err != nil {
		// 排行服务不可用时明确报错，绝不回退到假数据
		Fail(c, http.StatusInternalServerError, "leaderboard temporarily unavailable")
		return
	}

	OK(c, gin.H{
		"entries":    result.Entries,
		"pagination": result.Pagination,
	})
}

// Top GET /api/leaderboard/top?n=10&type=students 各分区前 N 名快照
func (h *LeaderboardHandler) Top(c *gin.Context) {
	n := utils.StringToInt(c.DefaultQuery("n", "10"))
	if raw := c.Query("n"); raw != "" && n < 1 {
		Fail(c, http.StatusBadRequest, "n must be a positive integer")
		return
	}

	snapshot, err := services.GetTopSnapshot(n, c.Query("type"))
	if err != nil {
		Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	OK(c, gin.H{"top": snapshot})
}

// Stats GET /api/leaderboard/stats 各分区汇总统计
func (h *LeaderboardHandler) Stats(c *gin.Context) {
	stats, err := services.GetAggregateStats()
	if err != nil {
		Fail(c, http.StatusInternalServerError, "leaderboard temporarily unavailable")
		return
	}
	OK(c, gin.H{"partitions": stats})
}

// UserStats GET /api/users/:id/stats 单个用户的统计和现算名次
func (h *LeaderboardHandler) UserStats(c *gin.Context) {
	userID := utils.StringToUint(c.Param("id"))
	if userID == 0 {
		Fail(c, http.StatusBadRequest, "invalid user id")
		return
	}

	stats, err := services.GetUserStatsWithRank(userID)
	if err != nil {
		if err == services.ErrUserNotFound {
			Fail(c, http.StatusNotFound, "user not found")
			return
		}
		Fail(c, http.StatusInternalServerError, "failed to load user stats")
		return
	}

	OK(c, gin.H{"stats": stats})
}
