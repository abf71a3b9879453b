package confidential

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 解密协议的核心指标，由 monitor 服务的 /metrics 暴露
var (
	metricCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagel_balance_cache_hits_total",
		Help: "handle 未变、直接命中持久化余额缓存的次数",
	})

	metricDecryptAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagel_decrypt_attempts_total",
		Help: "解密 SDK 调用次数（含重试）",
	})

	metricWalletPrompts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bagel_wallet_prompts_total",
		Help: "真实触发钱包签名的次数（签名缓存 miss）",
	})

	metricResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bagel_resolve_balance_seconds",
		Help:    "ResolveBalance 全流程耗时",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})
)
