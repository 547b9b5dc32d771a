package model

import (
	"sort"
	"time"

	"rsiscan/types"
)

// Reconcile 合并新读数、按 Symbol 去重保留最新一条、剔除超过保留期的记录。
// 返回结果按时间倒序。
func Reconcile(history []types.Record, readings []types.Reading, now time.Time, retention time.Duration) []types.Record {
	merged := Merge(history, readings)
	return Prune(Deduplicate(merged), now, retention)
}

// Merge 把新读数放在历史记录前面，时间相同时新读数优先。
func Merge(history []types.Record, readings []types.Reading) []types.Record {
	out := make([]types.Record, 0, len(history)+len(readings))
	for _, r := range readings {
		if r.Signal == types.SignalNone {
			continue
		}
		out = append(out, r.Record())
	}
	return append(out, history...)
}

// Deduplicate 稳定排序后每个 Symbol 只留第一条。
func Deduplicate(records []types.Record) []types.Record {
	sorted := make([]types.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.After(sorted[j].Timestamp)
	})

	seen := make(map[string]struct{}, len(sorted))
	out := sorted[:0]
	for _, r := range sorted {
		if _, ok := seen[r.Symbol]; ok {
			continue
		}
		seen[r.Symbol] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Prune 丢弃早于 now-retention 的记录，边界上的保留。
func Prune(records []types.Record, now time.Time, retention time.Duration) []types.Record {
	cutoff := now.Add(-retention)
	out := make([]types.Record, 0, len(records))
	for _, r := range records {
		if r.Timestamp.Before(cutoff) {
			continue
		}
		out = append(out, r)
	}
	return out
}
