package utils

import "time"

// LoadLocation 加载时区；容器里缺 tzdata 时退回固定的 UTC+8。
func LoadLocation(name string) *time.Location {
	if name == "" {
		return fixedUTC8
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fixedUTC8
	}
	return loc
}

var fixedUTC8 = time.FixedZone("UTC+8", 8*60*60)
