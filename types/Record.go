package types

import (
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// TimestampLayout 是历史文件中的时间格式，不带时区。
const TimestampLayout = "2006-01-02 15:04"

// Record 是历史表中的一行，逻辑主键为 Symbol。
type Record struct {
	Symbol    string
	RSI       float64
	Signal    Signal
	Timestamp time.Time
}

// RSIString 按 pandas 的写法输出，82.50 写成 82.5。
// 非有限值 decimal 会 panic，原样输出。
func (r Record) RSIString() string {
	if math.IsNaN(r.RSI) || math.IsInf(r.RSI, 0) {
		return strconv.FormatFloat(r.RSI, 'f', -1, 64)
	}
	return decimal.NewFromFloat(r.RSI).String()
}

func (r Record) TimestampString(loc *time.Location) string {
	return r.Timestamp.In(loc).Format(TimestampLayout)
}
