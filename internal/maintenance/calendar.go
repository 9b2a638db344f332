package maintenance

import (
	"math"
	"time"
)

// dateOnly 截断到当天零点（保留时区）。
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// addDays 加 days 天。
func addDays(t time.Time, days int) time.Time {
	return t.AddDate(0, 0, days)
}

// daysCeil 两个时间点之间的天数，先截断到日期再按天向上取整。
// to 在 from 之前时结果为负。
func daysCeil(from, to time.Time) int {
	d := dateOnly(to).Sub(dateOnly(from))
	return int(math.Ceil(d.Hours() / 24))
}
