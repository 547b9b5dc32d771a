package utils

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/futures"

	"rsiscan/config"
)

// BinanceMarket 封装 U 本位合约 REST 接口，只读。
type BinanceMarket struct {
	client  *futures.Client
	quote   string
	timeout time.Duration
}

func NewBinanceMarket(cfg config.Exchange) (*BinanceMarket, error) {
	client := binance.NewFuturesClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	if err := setHTTPClient(client, cfg.ProxyURL, cfg.Timeout); err != nil {
		return nil, err
	}
	return &BinanceMarket{client: client, quote: cfg.QuoteAsset, timeout: cfg.Timeout}, nil
}

// Symbols 返回状态为 TRADING 的永续合约，已去重排序。
func (m *BinanceMarket) Symbols(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return GetSymbolsByAPI(ctx, m.client, m.quote)
}

// Closes 返回最近 limit 根 K 线的收盘价，旧的在前。
func (m *BinanceMarket) Closes(ctx context.Context, symbol, tf string, limit int) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	return GetClosesByAPI(ctx, m.client, symbol, tf, limit)
}

func setHTTPClient(c *futures.Client, proxyURL string, timeout time.Duration) error {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		proxy, err := url.Parse(proxyURL)
		if err != nil {
			return fmt.Errorf("解析代理地址失败: %w", err)
		}
		tr.Proxy = http.ProxyURL(proxy)
	}
	c.HTTPClient = &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}
	return nil
}
