// Package metrics Prometheus 指标定义
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CheckinsTotal 按商户统计的打卡次数
	CheckinsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meit_checkins_total",
		Help: "Total number of customer check-ins processed",
	}, []string{"merchant_id"})

	// PointsAssignedTotal 发放的积分总量（含挑战奖励）
	PointsAssignedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meit_points_assigned_total",
		Help: "Total loyalty points credited to customers",
	}, []string{"merchant_id"})

	// GiftCardsMintedTotal 铸造的礼品卡数量
	GiftCardsMintedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meit_gift_cards_minted_total",
		Help: "Total gift cards minted by threshold crossings",
	}, []string{"merchant_id"})

	// GiftCardsRedeemedTotal 核销的礼品卡数量
	GiftCardsRedeemedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "meit_gift_cards_redeemed_total",
		Help: "Total gift cards redeemed at branches",
	}, []string{"merchant_id"})

	// GiftCardsExpiredTotal 过期清扫置为 expired 的礼品卡数量
	GiftCardsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "meit_gift_cards_expired_total",
		Help: "Total gift cards flipped to expired by the sweep task",
	})

	// AssignPointsDuration 积分入账事务耗时
	AssignPointsDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "meit_assign_points_duration_seconds",
		Help:    "Duration of the assign-points transaction",
		Buckets: prometheus.DefBuckets,
	})
)
