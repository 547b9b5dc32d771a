package types

import (
	"fmt"
	"strings"
)

// Signal 是 RSI 越界方向。
type Signal int

const (
	SignalNone Signal = iota
	SignalOverbought
	SignalOversold
)

// 历史文件里沿用的标签
const (
	LabelOverbought = "超买"
	LabelOversold   = "超卖"
)

func (s Signal) String() string {
	switch s {
	case SignalOverbought:
		return LabelOverbought
	case SignalOversold:
		return LabelOversold
	default:
		return ""
	}
}

// English 返回英文名，用于日志和指标标签。
func (s Signal) English() string {
	switch s {
	case SignalOverbought:
		return "overbought"
	case SignalOversold:
		return "oversold"
	default:
		return "none"
	}
}

// ParseSignal 同时接受中文标签和英文名。
func ParseSignal(s string) (Signal, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case LabelOverbought, "overbought":
		return SignalOverbought, nil
	case LabelOversold, "oversold":
		return SignalOversold, nil
	}
	return SignalNone, fmt.Errorf("unknown signal %q", s)
}

// Classify 按阈值判断；落在 [oversold, overbought] 区间内返回 SignalNone。
func Classify(rsi, overbought, oversold float64) Signal {
	switch {
	case rsi > overbought:
		return SignalOverbought
	case rsi < oversold:
		return SignalOversold
	default:
		return SignalNone
	}
}
