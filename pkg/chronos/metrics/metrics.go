// Package metrics derives display figures from a price series: the daily
// change, period statistics and returns over fixed lookback windows.
package metrics

import (
	"errors"

	"github.com/komsit37/chronos/pkg/chronos/types"
)

var (
	// ErrInsufficientData means the series has fewer points than the figure needs.
	ErrInsufficientData = errors.New("not enough data points")
	// ErrDegenerate means the base price of a percentage is zero.
	ErrDegenerate = errors.New("zero base price")
)

// DailyChange compares the last two closes of a series.
type DailyChange struct {
	Latest        float64          `json:"latest"`
	Previous      float64          `json:"previous"`
	Change        float64          `json:"change"`
	ChangePercent float64          `json:"change_percent"`
	Volume        *float64         `json:"volume"`
	Last          types.PricePoint `json:"last"`
}

// Daily computes the change between the last two closes.
func Daily(s types.PriceSeries) (DailyChange, error) {
	n := s.Len()
	if n < 2 {
		return DailyChange{}, ErrInsufficientData
	}
	last := s.Points[n-1]
	latest := last.ClosePrice()
	previous := s.Points[n-2].ClosePrice()
	if previous == 0 {
		return DailyChange{}, ErrDegenerate
	}
	change := latest - previous
	return DailyChange{
		Latest:        latest,
		Previous:      previous,
		Change:        change,
		ChangePercent: change / previous * 100,
		Volume:        last.Volume,
		Last:          last,
	}, nil
}

// PeriodSummary holds statistics over the whole series. Each figure carries
// its own error; a zero first close leaves the average intact.
type PeriodSummary struct {
	Average    float64 `json:"average"`
	Return     float64 `json:"return"`
	AverageErr error   `json:"-"`
	ReturnErr  error   `json:"-"`
}

// Average returns the mean close.
func Average(s types.PriceSeries) (float64, error) {
	if s.Len() == 0 {
		return 0, ErrInsufficientData
	}
	var sum float64
	for _, p := range s.Points {
		sum += p.ClosePrice()
	}
	return sum / float64(s.Len()), nil
}

// PercentReturn is the percent move from the first to the last close.
func PercentReturn(s types.PriceSeries) (float64, error) {
	if s.Len() < 2 {
		return 0, ErrInsufficientData
	}
	first := s.First().ClosePrice()
	if first == 0 {
		return 0, ErrDegenerate
	}
	return (s.Last().ClosePrice() - first) / first * 100, nil
}

// Period computes the average close and the return over the series.
func Period(s types.PriceSeries) PeriodSummary {
	var p PeriodSummary
	p.Average, p.AverageErr = Average(s)
	p.Return, p.ReturnErr = PercentReturn(s)
	return p
}

// Unavailable is a summary whose figures all failed with err.
func Unavailable(err error) PeriodSummary {
	return PeriodSummary{AverageErr: err, ReturnErr: err}
}
