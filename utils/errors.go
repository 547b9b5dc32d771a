package utils

import "errors"

// 单个交易对采样失败的分类，调用方用 errors.Is 判断。
var (
	// ErrNetwork 请求失败、超时或交易所返回错误。
	ErrNetwork = errors.New("network error")

	// ErrParse 响应内容无法解析。
	ErrParse = errors.New("parse error")

	// ErrInsufficientData K 线数量不足以计算指标。
	ErrInsufficientData = errors.New("insufficient data")
)

// FailureReason 把错误映射成指标标签。
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrParse):
		return "parse"
	case errors.Is(err, ErrNetwork):
		return "network"
	default:
		return "unknown"
	}
}
