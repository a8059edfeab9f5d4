package timerange

import (
	"strings"
)

// Range is a selectable chart range and the provider parameters it maps to.
type Range struct {
	Label    string `json:"label"`
	Period   string `json:"period"`
	Interval string `json:"interval"`
}

// Ranges lists the selectable chart ranges in display order.
var Ranges = []Range{
	{Label: "1D", Period: "1d", Interval: "5m"},
	{Label: "5D", Period: "5d", Interval: "30m"},
	{Label: "1W", Period: "7d", Interval: "1d"},
	{Label: "1M", Period: "1mo", Interval: "1d"},
	{Label: "1Y", Period: "1y", Interval: "1wk"},
	{Label: "5Y", Period: "5y", Interval: "1wk"},
	{Label: "MAX", Period: "max", Interval: "1mo"},
}

// DefaultLabel is the range selected when nothing else is chosen.
const DefaultLabel = "1D"

// Parse looks up a range by label, case-insensitively.
func Parse(label string) (Range, error) {
	l := strings.ToUpper(strings.TrimSpace(label))
	for _, r := range Ranges {
		if r.Label == l {
			return r, nil
		}
	}
	return Range{}, &UnknownRangeError{Label: label, Available: Labels()}
}

// MustParse is Parse for labels known at compile time.
func MustParse(label string) Range {
	r, err := Parse(label)
	if err != nil {
		panic(err)
	}
	return r
}

// Default returns the range for DefaultLabel.
func Default() Range { return MustParse(DefaultLabel) }

// Labels returns all range labels in display order.
func Labels() []string {
	out := make([]string, 0, len(Ranges))
	for _, r := range Ranges {
		out = append(out, r.Label)
	}
	return out
}

// Next returns the range after r, wrapping around to the first.
func Next(r Range) Range {
	for i, x := range Ranges {
		if x.Label == r.Label {
			return Ranges[(i+1)%len(Ranges)]
		}
	}
	return Ranges[0]
}

// UnknownRangeError reports an unknown range label.
type UnknownRangeError struct {
	Label     string
	Available []string
}

func (e *UnknownRangeError) Error() string {
	return "unknown time range: " + e.Label + "; available: " + strings.Join(e.Available, ", ")
}
