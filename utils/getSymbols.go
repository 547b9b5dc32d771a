package utils

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/adshao/go-binance/v2/futures"
)

const contractTypePerpetual = "PERPETUAL"

// GetSymbolsByAPI 拉取 exchangeInfo，过滤出以 quote 结尾、正在交易的永续合约。
func GetSymbolsByAPI(ctx context.Context, client *futures.Client, quote string) ([]string, error) {
	info, err := client.NewExchangeInfoService().Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取交易所信息失败: %w: %w", err, ErrNetwork)
	}
	return FilterSymbols(info.Symbols, quote), nil
}

// FilterSymbols 不依赖网络，方便单独测试。
func FilterSymbols(symbols []futures.Symbol, quote string) []string {
	seen := make(map[string]struct{}, len(symbols))
	var out []string
	for _, s := range symbols {
		if !strings.HasSuffix(s.Symbol, quote) || s.Status != "TRADING" {
			continue
		}
		if ct := string(s.ContractType); ct != "" && ct != contractTypePerpetual {
			continue
		}
		if _, ok := seen[s.Symbol]; ok {
			continue
		}
		seen[s.Symbol] = struct{}{}
		out = append(out, s.Symbol)
	}
	sort.Strings(out)
	return out
}
