package utils

import (
	"github.com/hashicorp/golang-lru"
	"github.com/mr-tron/base58"
)

// NewBase58Cache 初始化地址编码 LRU 缓存（最大 20,000 个）。
// 批量解码 registry 账户时大量地址是重复的（vault、mint、program）
func NewBase58Cache() *lru.Cache {
	cache, err := lru.New(20000)
	if err != nil {
		panic(err)
	}
	return cache
}

// EncodeBase58Strict 编码固定长度为 32 字节的地址。
// 若 b 长度非法将 panic，适用于强约束场景。
func EncodeBase58Strict(cache *lru.Cache, b []byte) string {
	if len(b) != 32 {
		panic("EncodeBase58Strict: input must be 32 bytes")
	}

	// 对固定 32 字节切片，用 string(b) 做 map key 是安全且高效的
	key := string(b)
	if val, ok := cache.Get(key); ok {
		return val.(string)
	}

	encoded := base58.Encode(b)
	cache.Add(key, encoded)
	return encoded
}

// EncodeBase58Optional 若 b 为 nil 返回空字符串；
// 否则调用 EncodeBase58Strict（非法长度仍 panic）。
func EncodeBase58Optional(cache *lru.Cache, b []byte) string {
	if b == nil {
		return ""
	}
	return EncodeBase58Strict(cache, b)
}
