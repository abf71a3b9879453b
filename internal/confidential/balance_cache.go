package confidential

import (
	"context"
	"encoding/json"

	"bagel-gateway-sol/internal/pkg/logger"
	"bagel-gateway-sol/internal/pkg/xredis"
)

// Store 持久化 KV 抽象。生产环境走 Redis，单测注入内存实现
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string) error
}

// balanceKey 类型化 key 构造（见 SignatureCache 的 sigKey），
// 统一前缀避免与同库其他业务 key 冲突
func balanceKey(identity string) string {
	return "bagel:balance:" + identity
}

// cachedBalance 持久化格式。handle 必须存十进制字符串：
// 128 位值进 JSON number 会丢精度
type cachedBalance struct {
	Handle string  `json:"handle"`
	Amount float64 `json:"amount"`
}

// BalanceCache 按 identity 持久化最近一次解密结果 {handle, amount}。
// 刻意不设 TTL：是否过期只由 handle 比对决定，与墙钟无关。
// 只要链上 handle 没变，缓存值就是当前余额的有效凭据。
type BalanceCache struct {
	store Store
}

func NewBalanceCache(store Store) *BalanceCache {
	return &BalanceCache{store: store}
}

// Get 读取缓存的 {handle, amount}。存储层错误和脏数据都按 miss 处理
// 并记日志，缓存层故障绝不向上冒泡（最多多做一次解密）
func (c *BalanceCache) Get(ctx context.Context, identity string) (Handle, float64, bool) {
	raw, found, err := c.store.Get(ctx, balanceKey(identity))
	if err != nil {
		logger.Warnf("balance cache read failed, treat as miss: identity=%s, err=%v", identity, err)
		return Handle{}, 0, false
	}
	if !found {
		return Handle{}, 0, false
	}

	var cb cachedBalance
	if err := json.Unmarshal([]byte(raw), &cb); err != nil {
		logger.Warnf("balance cache corrupt, treat as miss: identity=%s, err=%v", identity, err)
		return Handle{}, 0, false
	}
	h, err := ParseHandle(cb.Handle)
	if err != nil {
		logger.Warnf("balance cache corrupt handle, treat as miss: identity=%s, err=%v", identity, err)
		return Handle{}, 0, false
	}
	return h, cb.Amount, true
}

// Set 覆盖写入解密结果，last-write-wins。
// 只允许在解密成功后调用，失败路径绝不落缓存
func (c *BalanceCache) Set(ctx context.Context, identity string, h Handle, amount float64) error {
	data, err := json.Marshal(cachedBalance{
		Handle: h.String(),
		Amount: amount,
	})
	if err != nil {
		return err
	}
	return c.store.Set(ctx, balanceKey(identity), string(data))
}

// RedisStore 基于 xredis 的 Store 实现
type RedisStore struct{}

func (RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	return xredis.Get(ctx, key)
}

func (RedisStore) Set(ctx context.Context, key string, value string) error {
	// 0 过期时间：余额缓存不靠 TTL 失效
	return xredis.Set(ctx, key, value, 0)
}
