package model

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"rsiscan/types"
	"rsiscan/utils"
)

// ErrCorruptHistory 历史文件存在但无法解析，调用方按空表处理。
var ErrCorruptHistory = errors.New("corrupt history file")

var historyHeader = []string{"Symbol", "RSI", "Signal", "Timestamp"}

// CSVStore 是历史表的唯一落地点。
type CSVStore struct {
	path string
	loc  *time.Location
}

func NewCSVStore(path string, loc *time.Location) *CSVStore {
	return &CSVStore{path: path, loc: loc}
}

func (s *CSVStore) Path() string { return s.path }

// Load 读取历史表。文件不存在时返回 fs.ErrNotExist，内容损坏时返回 ErrCorruptHistory。
func (s *CSVStore) Load(ctx context.Context) ([]types.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		// 空文件等同于只有表头
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %v: %w", err, ErrCorruptHistory)
	}
	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var out []types.Record
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrCorruptHistory)
		}
		rec, err := s.parseRow(row, idx)
		if err != nil {
			return nil, fmt.Errorf("line %d: %v: %w", line, err, ErrCorruptHistory)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Save 整表覆盖写入。
func (s *CSVStore) Save(_ context.Context, records []types.Record) error {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, []string{
			rec.Symbol,
			rec.RSIString(),
			rec.Signal.String(),
			rec.TimestampString(s.loc),
		})
	}
	if err := utils.WriteCSVFile(s.path, historyHeader, rows); err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range historyHeader {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing column %q: %w", col, ErrCorruptHistory)
		}
	}
	return idx, nil
}

func (s *CSVStore) parseRow(row []string, idx map[string]int) (types.Record, error) {
	get := func(col string) string {
		i := idx[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	symbol := get("Symbol")
	if symbol == "" {
		return types.Record{}, errors.New("empty symbol")
	}
	rsi, err := strconv.ParseFloat(get("RSI"), 64)
	if err != nil {
		return types.Record{}, fmt.Errorf("rsi: %w", err)
	}
	if math.IsNaN(rsi) || math.IsInf(rsi, 0) || rsi < 0 || rsi > 100 {
		return types.Record{}, fmt.Errorf("rsi %q out of range", get("RSI"))
	}
	signal, err := types.ParseSignal(get("Signal"))
	if err != nil {
		return types.Record{}, err
	}
	ts, err := parseTimestamp(get("Timestamp"), s.loc)
	if err != nil {
		return types.Record{}, fmt.Errorf("timestamp: %w", err)
	}
	return types.Record{Symbol: symbol, RSI: rsi, Signal: signal, Timestamp: ts}, nil
}

// parseTimestamp 主格式是 "2006-01-02 15:04"，兼容带秒的旧文件。
func parseTimestamp(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{types.TimestampLayout, time.DateTime} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", s)
}
