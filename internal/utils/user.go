package utils

import (
	"time"
)

// GetUserLevel 根据积分返回用户等级（前端徽章用）
func GetUserLevel(points int) (name string, icon string) {
	switch {
	case points >= 500:
		return "Campus Legend", "🏆"
	case points >= 200:
		return "Event Star", "🌟"
	case points >= 80:
		return "Regular", "🎯"
	case points >= 20:
		return "Explorer", "🧭"
	default:
		return "Newcomer", "🌱"
	}
}

// GetDaysSinceJoined 计算注册天数
func GetDaysSinceJoined(createdAt time.Time) int {
	return int(time.Since(createdAt).Hours() / 24)
}
