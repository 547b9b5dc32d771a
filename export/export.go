// Package export 把对账后的历史表投影成 TradingView 可导入的 Symbol 列表。
package export

import (
	"fmt"
	"sort"

	"rsiscan/config"
	"rsiscan/types"
	"rsiscan/utils"
)

var header = []string{"Symbol"}

// List names, also used as metric labels.
const (
	ListAlerts     = "alerts"
	ListOverbought = "overbought"
	ListOversold   = "oversold"
)

type Exporter struct {
	cfg        config.Export
	overbought float64
	oversold   float64
}

func New(cfg config.Export, overbought, oversold float64) *Exporter {
	return &Exporter{cfg: cfg, overbought: overbought, oversold: oversold}
}

// Written 记录每个列表写了多少行。
type Written map[string]int

// Export 按模式写出一个或两个文件，每个文件整体覆盖。
func (e *Exporter) Export(records []types.Record) (Written, error) {
	switch e.cfg.Mode {
	case config.ExportDual:
		hot := Overbought(records, e.overbought)
		cold := Oversold(records, e.oversold)
		if err := writeSymbols(e.cfg.OverboughtPath, hot); err != nil {
			return nil, err
		}
		if err := writeSymbols(e.cfg.OversoldPath, cold); err != nil {
			return nil, err
		}
		return Written{ListOverbought: len(hot), ListOversold: len(cold)}, nil
	default:
		alerts := Alerts(records, e.overbought, e.oversold)
		if err := writeSymbols(e.cfg.AlertsPath, symbolsOf(alerts)); err != nil {
			return nil, err
		}
		return Written{ListAlerts: len(alerts)}, nil
	}
}

// Alerts 返回 RSI 落在 [oversold, overbought] 之外的记录，超卖在前，同类按 Symbol 排序。
func Alerts(records []types.Record, overbought, oversold float64) []types.Record {
	var out []types.Record
	for _, r := range records {
		if r.RSI > overbought || r.RSI < oversold {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := alertRank(out[i], overbought), alertRank(out[j], overbought)
		if ri != rj {
			return ri < rj
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out
}

func alertRank(r types.Record, overbought float64) int {
	if r.RSI > overbought {
		return 1
	}
	return 0
}

func Overbought(records []types.Record, threshold float64) []string {
	var out []string
	for _, r := range records {
		if r.RSI > threshold {
			out = append(out, r.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

func Oversold(records []types.Record, threshold float64) []string {
	var out []string
	for _, r := range records {
		if r.RSI < threshold {
			out = append(out, r.Symbol)
		}
	}
	sort.Strings(out)
	return out
}

func symbolsOf(records []types.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Symbol
	}
	return out
}

func writeSymbols(path string, symbols []string) error {
	rows := make([][]string, len(symbols))
	for i, s := range symbols {
		rows[i] = []string{s}
	}
	if err := utils.WriteCSVFile(path, header, rows); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
