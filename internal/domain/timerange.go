package domain

import "time"

// TimeRange: символьный фильтр глубины выборки.
type TimeRange string

const (
	RangeLastHour TimeRange = "1h"
	Range6Hours   TimeRange = "6h"
	Range12Hours  TimeRange = "12h"
	Range24Hours  TimeRange = "24h"
	Range7Days    TimeRange = "7d"
	Range30Days   TimeRange = "30d"
)

var rangeWindows = map[TimeRange]time.Duration{
	RangeLastHour: time.Hour,
	Range6Hours:   6 * time.Hour,
	Range12Hours:  12 * time.Hour,
	Range24Hours:  24 * time.Hour,
	Range7Days:    7 * 24 * time.Hour,
	Range30Days:   30 * 24 * time.Hour,
}

// Window переводит тег в окно. Неизвестный тег: 24 часа.
func (r TimeRange) Window() time.Duration {
	if w, ok := rangeWindows[r]; ok {
		return w
	}
	return rangeWindows[Range24Hours]
}

// Since возвращает нижнюю границу выборки относительно now.
func (r TimeRange) Since(now time.Time) time.Time {
	return now.Add(-r.Window())
}
