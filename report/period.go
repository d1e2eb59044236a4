package report

import (
	"fmt"
	"time"
)

// Period 半开区间 [Start, End)，均为 UTC
type Period struct {
	Year  int
	Month int // 0 表示整年
	Start time.Time
	End   time.Time
}

// YearPeriod 整年区间
func YearPeriod(year int) (Period, error) {
	return NewPeriod(year, 0)
}

// NewPeriod month 为 0 时表示整年，否则为该年的某一个月
func NewPeriod(year, month int) (Period, error) {
	if year < 1 || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d out of range 1..9999", ErrInvalidPeriod, year)
	}
	if month < 0 || month > 12 {
		return Period{}, fmt.Errorf("%w: month %d out of range 1..12", ErrInvalidPeriod, month)
	}

	if month == 0 {
		start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
		return Period{Year: year, Start: start, End: start.AddDate(1, 0, 0)}, nil
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{Year: year, Month: month, Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// Last 区间内最后一秒，年报按闭区间 [Start, Last] 查询
func (p Period) Last() time.Time {
	return p.End.Add(-time.Second)
}

// Label "2024" 或 "2024-03"
func (p Period) Label() string {
	if p.Month == 0 {
		return fmt.Sprintf("%d", p.Year)
	}
	return fmt.Sprintf("%d-%02d", p.Year, p.Month)
}
