package confidential

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

const (
	// DefaultSignatureTTL 钱包签名的复用窗口。同一 (handle, identity)
	// 在窗口内的所有解密尝试复用首次签名，不再弹窗
	DefaultSignatureTTL = 24 * time.Hour

	sigShardCount      = 16
	sigCleanupInterval = 10 * time.Minute
)

type sigEntry struct {
	signature []byte
	createdAt time.Time
}

type sigShard struct {
	mu      sync.Mutex
	entries map[string]*sigEntry
}

// SignatureCache 进程内签名缓存，按 (handle, identity) 存放钱包签名。
// 进程重启丢失是预期行为（只多弹一次窗）。handle 变化后新 key 自然 miss，
// 旧签名靠 TTL 过期，无需显式失效。
// 时钟可注入，便于单测确定性验证过期逻辑。
type SignatureCache struct {
	ttl    time.Duration
	now    func() time.Time
	shards [sigShardCount]*sigShard

	cleanOnce sync.Once
}

func NewSignatureCache(ttl time.Duration) *SignatureCache {
	return NewSignatureCacheWithClock(ttl, time.Now)
}

func NewSignatureCacheWithClock(ttl time.Duration, now func() time.Time) *SignatureCache {
	if ttl <= 0 {
		ttl = DefaultSignatureTTL
	}
	c := &SignatureCache{
		ttl: ttl,
		now: now,
	}
	for i := range c.shards {
		c.shards[i] = &sigShard{entries: make(map[string]*sigEntry)}
	}
	return c
}

// sigKey 类型化 key 构造，避免与其他缓存的 key 空间冲突
func sigKey(h Handle, identity string) string {
	return h.String() + "|" + identity
}

func (c *SignatureCache) shardFor(key string) *sigShard {
	return c.shards[xxhash.Sum64String(key)%sigShardCount]
}

// Get 返回未过期的缓存签名。过期条目就地删除并按 miss 处理，
// 绝不把过期签名当有效值返回
func (c *SignatureCache) Get(h Handle, identity string) ([]byte, bool) {
	key := sigKey(h, identity)
	s := c.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) > c.ttl {
		delete(s.entries, key)
		return nil, false
	}
	return e.signature, true
}

// Put 写入新签名，覆盖同 key 旧值
func (c *SignatureCache) Put(h Handle, identity string, signature []byte) {
	c.startAutoCleanup()

	key := sigKey(h, identity)
	s := c.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = &sigEntry{
		signature: signature,
		createdAt: c.now(),
	}
}

func (c *SignatureCache) startAutoCleanup() {
	c.cleanOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(sigCleanupInterval)
			defer ticker.Stop()

			for {
				<-ticker.C
				c.cleanupExpired()
			}
		}()
	})
}

func (c *SignatureCache) cleanupExpired() {
	cutoff := c.now().Add(-c.ttl)
	for _, s := range c.shards {
		s.mu.Lock()
		for key, e := range s.entries {
			if e.createdAt.Before(cutoff) {
				delete(s.entries, key)
			}
		}
		s.mu.Unlock()
	}
}
