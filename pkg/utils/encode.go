package utils

import (
	"github.com/mr-tron/base58"
)

// SignatureToString 将 64 字节 ed25519 签名转为 base58 字符串表示（日志用）
func SignatureToString(sig []byte) string {
	if len(sig) != 64 {
		panic("SignatureToString: invalid signature length, expected 64 bytes")
	}
	return base58.Encode(sig)
}
