package utils

import (
	"math"
	"time"
)

type TrendConfig struct {
	Gravity      float64 // 时间重力
	WeightRSVP   float64
	WeightReview float64
	WeightView   float64
	ScaleFactor  float64 // 放大系数
}

var DefaultTrendConfig = TrendConfig{
	Gravity:      1.5,
	WeightRSVP:   3.0,
	WeightReview: 2.0,
	WeightView:   0.05, // View 数量级大，权重给得极小
	ScaleFactor:  100.0,
}

// TrendingScore 活动热度分：加权互动量取对数平滑后按发布时间衰减，
// 用于活动列表的 trending 排序。落在 0-100 区间，像"温度"。
func TrendingScore(createdAt time.Time, rsvps, reviews, views int) float64 {
	hours := time.Since(createdAt).Hours()

	weightedSum := (float64(rsvps) * DefaultTrendConfig.WeightRSVP) +
		(float64(reviews) * DefaultTrendConfig.WeightReview) +
		(float64(views) * DefaultTrendConfig.WeightView)

	if weightedSum < 0 {
		weightedSum = 0 // 防止负数无法取对数
	}

	// log10(sum + 1) -> 确保 sum=0 时结果为 0
	logScore := math.Log10(weightedSum + 1)

	numerator := logScore * DefaultTrendConfig.ScaleFactor

	// 时间衰减（分母）
	decay := math.Pow(hours+2, DefaultTrendConfig.Gravity)

	return numerator / decay
}
