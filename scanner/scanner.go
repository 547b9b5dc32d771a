package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"rsiscan/config"
	"rsiscan/logger"
	"rsiscan/metrics"
	"rsiscan/types"
	"rsiscan/utils"
)

// MarketData 是交易所的只读行情接口。
type MarketData interface {
	Symbols(ctx context.Context) ([]string, error)
	Closes(ctx context.Context, symbol, tf string, limit int) ([]float64, error)
}

type Scanner struct {
	cfg     config.Scan
	market  MarketData
	log     *logger.Logger
	metrics *metrics.Recorder
	exclude map[string]struct{}
}

func New(cfg config.Scan, market MarketData, log *logger.Logger, rec *metrics.Recorder) *Scanner {
	exclude := make(map[string]struct{}, len(cfg.Exclude))
	for _, s := range cfg.Exclude {
		exclude[s] = struct{}{}
	}
	return &Scanner{cfg: cfg, market: market, log: log, metrics: rec, exclude: exclude}
}

// Discover 返回本轮要扫描的交易对，排除名单里的会被去掉。
func (s *Scanner) Discover(ctx context.Context) ([]string, error) {
	all, err := s.market.Symbols(ctx)
	if err != nil {
		return nil, err
	}
	symbols := make([]string, 0, len(all))
	for _, sym := range all {
		if _, skip := s.exclude[sym]; skip {
			continue
		}
		symbols = append(symbols, sym)
	}
	s.metrics.RecordSymbols(len(symbols))
	return symbols, nil
}

// Sample 计算单个交易对最新的 RSI。中性区间返回 Signal 为 SignalNone 的读数。
func (s *Scanner) Sample(ctx context.Context, symbol string, now time.Time) (types.Reading, error) {
	closes, err := s.market.Closes(ctx, symbol, s.cfg.Timeframe, s.cfg.KlineLimit)
	if err != nil {
		return types.Reading{}, err
	}
	rsi, err := utils.LastRSI(closes, s.cfg.RSIPeriod)
	if err != nil {
		return types.Reading{}, fmt.Errorf("%s: %w", symbol, err)
	}
	return types.NewReading(symbol, rsi, s.cfg.Overbought, s.cfg.Oversold, now), nil
}

// SampleAll 逐个采样，单个失败只跳过该交易对。返回越界读数，按 Symbol 排序。
func (s *Scanner) SampleAll(ctx context.Context, symbols []string, now time.Time) []types.Reading {
	var (
		results []types.Reading
		resMu   sync.Mutex
		wg      sync.WaitGroup
		sem     = semaphore.NewWeighted(int64(max(s.cfg.Workers, 1)))
	)

	for _, symbol := range symbols {
		if err := sem.Acquire(ctx, 1); err != nil {
			s.log.Warn("扫描被取消", logger.Error(err))
			break
		}

		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			defer sem.Release(1)

			r, err := s.Sample(ctx, sym, now)
			if err != nil {
				s.skip(sym, err)
				return
			}
			if r.Signal == types.SignalNone {
				return
			}
			s.metrics.RecordReading(r.Signal.English())
			s.log.Debug("RSI 越界",
				logger.String("symbol", sym),
				logger.Float("rsi", r.RSI),
				logger.String("signal", r.Signal.English()))

			resMu.Lock()
			results = append(results, r)
			resMu.Unlock()
		}(symbol)
	}
	wg.Wait()

	sort.Slice(results, func(i, j int) bool { return results[i].Symbol < results[j].Symbol })
	return results
}

func (s *Scanner) skip(symbol string, err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	reason := utils.FailureReason(err)
	s.metrics.RecordFailure(reason)
	s.log.Debug("跳过交易对",
		logger.String("symbol", symbol),
		logger.String("reason", reason),
		logger.Error(err))
}
