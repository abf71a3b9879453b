package utils

import "strconv"

// Uint64ToString 金额一律以十进制字符串传递，避免精度误差
func Uint64ToString(val uint64) string {
	return strconv.FormatUint(val, 10)
}

func ParseUint64(s string) uint64 {
	v, _ := strconv.ParseUint(s, 10, 64)
	return v
}
