package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"

	"rsiscan/config"
	"rsiscan/export"
	"rsiscan/logger"
	"rsiscan/metrics"
	"rsiscan/model"
	"rsiscan/scanner"
	"rsiscan/utils"
)

/* ====================== 主函数 ====================== */

func main() {
	configPath := flag.String("config", "config.yaml", "config file path")
	once := flag.Bool("once", false, "run a single scan even if a schedule is configured")
	flag.Parse()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	lg, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, closeFn, err := build(ctx, cfg, lg)
	if err != nil {
		lg.Error("程序初始化失败", logger.Error(err))
		os.Exit(1)
	}
	defer closeFn()

	if cfg.Schedule == "" || *once {
		if _, err := pipeline.Run(ctx); err != nil {
			lg.Error("scan 出错", logger.Error(err))
			closeFn()
			os.Exit(1)
		}
		return
	}

	if err := runScheduled(ctx, cfg.Schedule, pipeline, lg); err != nil {
		lg.Error("定时任务启动失败", logger.Error(err))
		closeFn()
		os.Exit(1)
	}
}

/* ====================== 组装 ====================== */

func build(ctx context.Context, cfg *config.Config, lg *logger.Logger) (*scanner.Pipeline, func(), error) {
	market, err := utils.NewBinanceMarket(cfg.Exchange)
	if err != nil {
		return nil, nil, err
	}

	rec := metrics.New()
	loc := utils.LoadLocation(cfg.History.Timezone)

	opts := scanner.Options{
		Scanner:         scanner.New(cfg.Scan, market, lg, rec),
		Store:           model.NewCSVStore(cfg.History.Path, loc),
		Exporter:        export.New(cfg.Export, cfg.Scan.Overbought, cfg.Scan.Oversold),
		Metrics:         rec,
		Log:             lg,
		Retention:       cfg.History.Retention(),
		Location:        loc,
		MetricsTextfile: cfg.Metrics.Textfile,
	}

	closeFn := func() {}
	if cfg.History.MySQLDSN != "" {
		if mirror := openMirror(ctx, cfg.History.MySQLDSN, lg, rec); mirror != nil {
			opts.Mirror = mirror
			closeFn = func() { _ = mirror.Close() }
		}
	}

	return scanner.NewPipeline(opts), closeFn, nil
}

// openMirror 连接失败只记日志和指标，CSV 仍照常写。
func openMirror(ctx context.Context, dsn string, lg *logger.Logger, rec *metrics.Recorder) *model.MySQLMirror {
	db, err := model.OpenDB(ctx, dsn)
	if err != nil {
		lg.Error("MySQL 连接失败，本次不同步历史", logger.Error(err))
		rec.RecordMirrorError()
		return nil
	}
	mirror := model.NewMySQLMirror(db)
	if err := mirror.EnsureSchema(ctx); err != nil {
		lg.Error("rsi_history 建表失败，本次不同步历史", logger.Error(err))
		rec.RecordMirrorError()
		_ = mirror.Close()
		return nil
	}
	lg.Info("已连接 MySQL，历史记录将同步到 rsi_history")
	return mirror
}

/* ====================== 定时 ====================== */

// runScheduled 先立即跑一次，然后按 cron 表达式执行，上一轮没结束时跳过。
func runScheduled(ctx context.Context, spec string, p *scanner.Pipeline, lg *logger.Logger) error {
	cronLogger := cron.PrintfLogger(lg)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)

	job := cron.FuncJob(func() {
		if _, err := p.Run(ctx); err != nil {
			lg.Error("周期 scan 出错", logger.Error(err))
		}
	})
	if _, err := c.AddJob(spec, job); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", spec, err)
	}

	// 立即跑一次
	if _, err := p.Run(ctx); err != nil {
		lg.Error("首次 scan 出错", logger.Error(err))
	}

	c.Start()
	lg.Info("定时任务已启动", logger.String("schedule", spec))

	<-ctx.Done()
	lg.Info("收到退出信号，等待当前任务结束")
	<-c.Stop().Done()
	return nil
}
