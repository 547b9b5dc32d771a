package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"

	"rsiscan/export"
	"rsiscan/logger"
	"rsiscan/metrics"
	"rsiscan/model"
	"rsiscan/types"
)

// HistoryStore 是历史表的持久化接口，CSVStore 实现它。
type HistoryStore interface {
	Load(ctx context.Context) ([]types.Record, error)
	Save(ctx context.Context, records []types.Record) error
}

// Mirror 接收对账后的整表副本，失败不影响本轮结果。
type Mirror interface {
	Save(ctx context.Context, records []types.Record) error
}

type Options struct {
	Scanner   *Scanner
	Store     HistoryStore
	Mirror    Mirror // 可为 nil
	Exporter  *export.Exporter
	Metrics   *metrics.Recorder
	Log       *logger.Logger
	Retention time.Duration
	Location  *time.Location

	// MetricsTextfile 为空时不写指标文件。
	MetricsTextfile string

	// Now 默认 time.Now，测试里替换。
	Now func() time.Time
}

type Pipeline struct {
	opts Options
}

func NewPipeline(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Pipeline{opts: opts}
}

// Summary 描述一轮扫描的结果。
type Summary struct {
	RunID    string
	Symbols  int
	Readings int
	History  int
	Exported export.Written
	Aborted  bool
	Duration time.Duration
}

// Run 执行一轮：发现 → 采样 → 对账 → 导出。
// 发现阶段失败或为空时直接返回，不读写任何文件。
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	o := p.opts
	start := o.Now()
	sum := Summary{RunID: uuid.NewString()}
	log := o.Log.With(logger.String("run_id", sum.RunID))

	log.Info("开始扫描 Binance USDT 合约 RSI")

	// ---------- 1. 交易对 ----------
	symbols, err := o.Scanner.Discover(ctx)
	if err != nil {
		log.Error("获取交易对失败，退出", logger.Error(err))
		sum.Aborted = true
		return sum, nil
	}
	if len(symbols) == 0 {
		log.Warn("未获取到任何交易对，退出")
		sum.Aborted = true
		return sum, nil
	}
	sum.Symbols = len(symbols)
	log.Info("交易对数量", logger.Int("symbols", len(symbols)))

	// ---------- 2. 采样 ----------
	now := o.Now().In(o.Location)
	readings := o.Scanner.SampleAll(ctx, symbols, now)
	if err := ctx.Err(); err != nil {
		return sum, err
	}
	sum.Readings = len(readings)
	log.Info("扫描完成", logger.Int("signals", len(readings)))

	// ---------- 3. 对账 ----------
	history, err := p.loadHistory(ctx, log)
	if err != nil {
		return sum, err
	}
	updated := model.Reconcile(history, readings, now, o.Retention)
	sum.History = len(updated)

	if err := o.Store.Save(ctx, updated); err != nil {
		log.Error("保存历史记录失败", logger.Error(err))
		return sum, err
	}
	log.Info("历史记录已保存", logger.Int("records", len(updated)))
	o.Metrics.RecordHistory(len(updated))

	if o.Mirror != nil {
		if err := o.Mirror.Save(ctx, updated); err != nil {
			o.Metrics.RecordMirrorError()
			log.Error("同步 MySQL 失败", logger.Error(err))
		}
	}

	// ---------- 4. 导出 ----------
	written, err := o.Exporter.Export(updated)
	if err != nil {
		log.Error("生成导入文件失败", logger.Error(err))
		return sum, err
	}
	sum.Exported = written
	for list, n := range written {
		o.Metrics.RecordExport(list, n)
		log.Info("已生成 TradingView 导入文件", logger.String("list", list), logger.Int("symbols", n))
	}
	p.logRecent(log, updated)

	sum.Duration = o.Now().Sub(start)
	o.Metrics.RecordSuccess(o.Now(), sum.Duration)
	if o.MetricsTextfile != "" {
		if err := o.Metrics.WriteTextfile(o.MetricsTextfile); err != nil {
			log.Error("写入指标文件失败", logger.Error(err))
		}
	}
	return sum, nil
}

// loadHistory 文件不存在或损坏时都从空表开始，只有 ctx 取消才返回错误。
func (p *Pipeline) loadHistory(ctx context.Context, log *logger.Logger) ([]types.Record, error) {
	history, err := p.opts.Store.Load(ctx)
	switch {
	case err == nil:
		log.Info("已加载历史记录", logger.Int("records", len(history)))
		return history, nil
	case errors.Is(err, fs.ErrNotExist):
		log.Info("创建新历史记录文件")
		return nil, nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, fmt.Errorf("load history: %w", err)
	default:
		log.Warn("读取历史记录失败，从空表开始", logger.Error(err))
		return nil, nil
	}
}

func (p *Pipeline) logRecent(log *logger.Logger, records []types.Record) {
	alerts := export.Alerts(records, p.opts.Scanner.cfg.Overbought, p.opts.Scanner.cfg.Oversold)
	if len(alerts) > 5 {
		alerts = alerts[:5]
	}
	for _, r := range alerts {
		log.Info("最近异常信号",
			logger.String("symbol", r.Symbol),
			logger.Float("rsi", r.RSI),
			logger.String("signal", r.Signal.String()),
			logger.String("at", r.TimestampString(p.opts.Location)))
	}
}
