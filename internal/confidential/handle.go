package confidential

import (
	"encoding/binary"
	"fmt"
	"math/big"
)

// 机密代币账户布局：[0,32) mint，[32,64) owner，[64,72) 公共元数据，
// [72,88) 为加密余额 handle（小端 u128），之后为扩展字段
const (
	handleOffset = 72
	handleSize   = 16

	// MinAccountLen 提取 handle 所需的最小账户长度
	MinAccountLen = handleOffset + handleSize
)

// Handle 指向链上密文的 128 位引用，本身不是密文。
// 程序保证余额变化时 handle 一定变化，因此 handle 相等即底层密文未变。
// 零值表示该账户尚未初始化加密余额。
type Handle struct {
	lo uint64
	hi uint64
}

// NewHandle 由高低 64 位构造 handle，主要用于测试
func NewHandle(lo, hi uint64) Handle {
	return Handle{lo: lo, hi: hi}
}

// ExtractHandle 从账户原始字节中提取加密余额 handle。
// 长度不足视为数据损坏，必须报错而不能静默返回零值：
// 零 handle 是"尚未初始化"的合法状态，二者必须可区分。
func ExtractHandle(accountData []byte) (Handle, error) {
	if len(accountData) < MinAccountLen {
		return Handle{}, &MalformedAccountDataError{Len: len(accountData)}
	}
	return decodeHandle(accountData[handleOffset : handleOffset+handleSize]), nil
}

func decodeHandle(b []byte) Handle {
	return Handle{
		lo: binary.LittleEndian.Uint64(b[0:8]),
		hi: binary.LittleEndian.Uint64(b[8:16]),
	}
}

// DecodeHandleAt 解码任意偏移处的 16 字节 handle 字段（用于 vault/entry 账户）
func DecodeHandleAt(data []byte, offset int) (Handle, error) {
	if len(data) < offset+handleSize {
		return Handle{}, &MalformedAccountDataError{Len: len(data)}
	}
	return decodeHandle(data[offset : offset+handleSize]), nil
}

func (h Handle) IsZero() bool {
	return h.lo == 0 && h.hi == 0
}

// String 返回十进制字符串表示。128 位值必须走字符串，
// 走 float/JSON number 会丢精度
func (h Handle) String() string {
	if h.hi == 0 {
		return new(big.Int).SetUint64(h.lo).String()
	}
	v := new(big.Int).SetUint64(h.hi)
	v.Lsh(v, 64)
	v.Or(v, new(big.Int).SetUint64(h.lo))
	return v.String()
}

// Bytes 返回小端 16 字节编码
func (h Handle) Bytes() [16]byte {
	var b [16]byte
	binary.LittleEndian.PutUint64(b[0:8], h.lo)
	binary.LittleEndian.PutUint64(b[8:16], h.hi)
	return b
}

var maxUint128 = new(big.Int).Lsh(big.NewInt(1), 128)

// ParseHandle 解析十进制字符串形式的 handle
func ParseHandle(s string) (Handle, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 || v.Cmp(maxUint128) >= 0 {
		return Handle{}, fmt.Errorf("invalid handle string: %q", s)
	}
	lo := new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0)))
	hi := new(big.Int).Rsh(v, 64)
	return Handle{lo: lo.Uint64(), hi: hi.Uint64()}, nil
}
