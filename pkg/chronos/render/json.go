package render

import (
	"encoding/json"
	"io"
	"time"

	"github.com/komsit37/chronos/pkg/chronos/dashboard"
	"github.com/komsit37/chronos/pkg/chronos/timerange"
	"github.com/komsit37/chronos/pkg/chronos/types"
)

// jsonView is the output shape for JSONRenderer. Figures that are not
// applicable are null.
type jsonView struct {
	Symbol       string             `json:"symbol"`
	Range        timerange.Range    `json:"range"`
	UpdatedAt    time.Time          `json:"updated_at"`
	Error        *string            `json:"error"`
	Points       []types.PricePoint `json:"points"`
	Metrics      jsonMetrics        `json:"metrics"`
	Returns      []jsonReturn       `json:"returns"`
	Profile      types.Profile      `json:"profile"`
	ProfileError *string            `json:"profile_error"`
}

type jsonMetrics struct {
	LatestClose        *float64 `json:"latest_close"`
	PreviousClose      *float64 `json:"previous_close"`
	DailyChange        *float64 `json:"daily_change"`
	DailyChangePercent *float64 `json:"daily_change_percent"`
	Volume             *float64 `json:"volume"`
	PeriodAverage      *float64 `json:"period_average"`
	PeriodReturn       *float64 `json:"period_return"`
	Error              *string  `json:"error,omitempty"`
}

type jsonReturn struct {
	Label   string   `json:"label"`
	Percent *float64 `json:"percent"`
	Reason  string   `json:"reason,omitempty"`
}

type jsonReturnsTable struct {
	Name string          `json:"name"`
	Rows []jsonReturnRow `json:"rows"`
}

type jsonReturnRow struct {
	Symbol  string       `json:"symbol"`
	Name    string       `json:"name,omitempty"`
	Returns []jsonReturn `json:"returns"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, v dashboard.View, opts Options) error {
	out := jsonView{
		Symbol:       v.State.Symbol,
		Range:        v.State.Range,
		UpdatedAt:    v.UpdatedAt,
		Error:        errString(v.SeriesErr),
		Points:       v.Series.Points,
		Returns:      jsonReturns(v.Returns),
		Profile:      v.Profile,
		ProfileError: errString(v.ProfileErr),
	}
	if out.Points == nil {
		out.Points = []types.PricePoint{}
	}
	if n := v.Series.Len(); v.SeriesErr == nil && n > 0 {
		last := v.Series.Last()
		out.Metrics.LatestClose = types.Float(last.ClosePrice())
		out.Metrics.Volume = last.Volume
		if n > 1 {
			out.Metrics.PreviousClose = types.Float(v.Series.Points[n-2].ClosePrice())
		}
	}
	if v.DailyErr == nil {
		out.Metrics.DailyChange = types.Float(v.Daily.Change)
		out.Metrics.DailyChangePercent = types.Float(v.Daily.ChangePercent)
	} else if v.SeriesErr == nil {
		out.Metrics.Error = errString(v.DailyErr)
	}
	if v.Period.AverageErr == nil {
		out.Metrics.PeriodAverage = types.Float(v.Period.Average)
	}
	if v.Period.ReturnErr == nil {
		out.Metrics.PeriodReturn = types.Float(v.Period.Return)
	}
	return encode(w, out, opts)
}

func (r *JSONRenderer) RenderReturns(w io.Writer, tables []dashboard.ReturnsTable, opts Options) error {
	out := make([]jsonReturnsTable, 0, len(tables))
	for _, t := range tables {
		rows := make([]jsonReturnRow, 0, len(t.Rows))
		for _, row := range t.Rows {
			rows = append(rows, jsonReturnRow{Symbol: row.Symbol, Name: row.Name, Returns: jsonReturns(row.Returns)})
		}
		out = append(out, jsonReturnsTable{Name: t.Name, Rows: rows})
	}
	return encode(w, out, opts)
}

func jsonReturns(figs []types.ReturnFigure) []jsonReturn {
	out := make([]jsonReturn, 0, len(figs))
	for _, f := range figs {
		jr := jsonReturn{Label: f.Label, Reason: f.Reason}
		if f.Valid {
			jr.Percent = types.Float(f.Percent)
		}
		out = append(out, jr)
	}
	return out
}

func errString(err error) *string {
	if err == nil {
		return nil
	}
	s := err.Error()
	return &s
}

func encode(w io.Writer, v any, opts Options) error {
	enc := json.NewEncoder(w)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
