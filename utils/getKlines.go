package utils

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance/v2/futures"
)

// GetClosesByAPI 拉取 K 线，只保留收盘价。不重试，失败交给调用方跳过。
func GetClosesByAPI(ctx context.Context, client *futures.Client, symbol, tf string, klinesCount int) ([]float64, error) {
	klines, err := client.NewKlinesService().
		Symbol(symbol).Interval(tf).
		Limit(klinesCount).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("拉取 %s K 线失败: %w: %w", symbol, err, ErrNetwork)
	}
	return ClosesFromKlines(klines)
}

func ClosesFromKlines(klines []*futures.Kline) ([]float64, error) {
	closes := make([]float64, len(klines))
	for i, k := range klines {
		c, err := strconv.ParseFloat(k.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("close %q: %w", k.Close, ErrParse)
		}
		closes[i] = c
	}
	return closes, nil
}
