package timerange

import "time"

// Window is a trailing lookback span ending today. Months are 30 days and
// years 365 days; YTD starts on January 1 of the current year.
type Window struct {
	Label string
	Days  int
	YTD   bool
}

// Windows lists the lookback windows in display order.
var Windows = []Window{
	{Label: "1 Week", Days: 7},
	{Label: "1 Month", Days: 30},
	{Label: "3 Months", Days: 90},
	{Label: "YTD", YTD: true},
	{Label: "1 Year", Days: 365},
	{Label: "3 Years", Days: 3 * 365},
}

// Start returns the first calendar day of the window for the given day.
func (w Window) Start(today time.Time) time.Time {
	d := Date(today)
	if w.YTD {
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, d.Location())
	}
	return d.AddDate(0, 0, -w.Days)
}

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
