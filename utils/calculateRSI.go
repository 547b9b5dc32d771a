package utils

import (
	"fmt"
	"math"
)

// ------------------------ RSI (Wilder) ------------------------

// CalculateRSI 返回和 close 等长的序列，前 period 个值为 NaN。
// 首个均值取前 period 个涨跌幅的简单平均，之后按 Wilder 平滑递推。
func CalculateRSI(close []float64, period int) []float64 {
	n := len(close)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if period <= 0 || n < period+1 {
		return out
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		g, l := splitDelta(close[i] - close[i-1])
		avgGain += g
		avgLoss += l
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiValue(avgGain, avgLoss)

	p := float64(period)
	for i := period + 1; i < n; i++ {
		g, l := splitDelta(close[i] - close[i-1])
		avgGain = (avgGain*(p-1) + g) / p
		avgLoss = (avgLoss*(p-1) + l) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

// splitDelta 把涨跌幅拆成 (涨, 跌)，两者都非负。
func splitDelta(delta float64) (gain, loss float64) {
	if delta > 0 {
		return delta, 0
	}
	return 0, -delta
}

// rsiValue 收盘价里有 NaN/Inf 时返回 NaN，由调用方当作解析失败处理。
func rsiValue(avgGain, avgLoss float64) float64 {
	if !isFinite(avgGain) || !isFinite(avgLoss) {
		return math.NaN()
	}
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // 横盘
		}
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// LastRSI 只取最新一根的 RSI。
func LastRSI(close []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, fmt.Errorf("rsi period %d: %w", period, ErrInsufficientData)
	}
	if len(close) < period+1 {
		return 0, fmt.Errorf("%d closes for period %d: %w", len(close), period, ErrInsufficientData)
	}
	v := CalculateRSI(close, period)[len(close)-1]
	if !isFinite(v) {
		return 0, fmt.Errorf("rsi not finite: %w", ErrParse)
	}
	return v, nil
}
