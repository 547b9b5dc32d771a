package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reading 是单个交易对一次采样的结果。
type Reading struct {
	Symbol     string
	RSI        float64 // 已保留两位小数
	Signal     Signal
	ObservedAt time.Time
}

// NewReading 在保留两位小数之前先用原始值分类。
func NewReading(symbol string, rsi, overbought, oversold float64, at time.Time) Reading {
	return Reading{
		Symbol:     symbol,
		RSI:        RoundRSI(rsi),
		Signal:     Classify(rsi, overbought, oversold),
		ObservedAt: at,
	}
}

// Record 转成历史表里的一行。
func (r Reading) Record() Record {
	return Record{
		Symbol:    r.Symbol,
		RSI:       r.RSI,
		Signal:    r.Signal,
		Timestamp: r.ObservedAt.Truncate(time.Minute),
	}
}

func RoundRSI(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
