package stream

import "livechart/internal/series"

// Series names shared by every chart.
const (
	SeriesRaw            = "raw"
	SeriesRunningAverage = "runningAverage"
)

// SeriesSpec describes one series at mount time.
type SeriesSpec struct {
	Name  string          `json:"name"`
	Label string          `json:"label"`
	Data  []series.Sample `json:"data"`
}

// ChartSpec is everything a renderer needs to mount a chart widget.
// Fields other than ID and Series are presentation hints.
type ChartSpec struct {
	ID                string       `json:"id"`
	Title             string       `json:"title"`
	XAxisType         string       `json:"xAxisType"`
	YAxisTitle        string       `json:"yAxisTitle"`
	YAxisMin          float64      `json:"yAxisMin"`
	PlotLines         []float64    `json:"plotLines"`
	TooltipDateFormat string       `json:"tooltipDateFormat"`
	ValueDecimals     int          `json:"valueDecimals"`
	Legend            bool         `json:"legend"`
	MaxPoints         int          `json:"maxPoints"`
	Series            []SeriesSpec `json:"series"`
}

// Renderer is the drawing side of a chart. AddPoint with redraw=false must
// defer painting until the next Redraw for that chart.
type Renderer interface {
	Mount(spec ChartSpec) error
	AddPoint(chartID, seriesName string, s series.Sample, redraw bool)
	Redraw(chartID string)
}

// SeriesLabels maps series names to display labels.
var SeriesLabels = map[string]string{
	SeriesRaw:            "Random data",
	SeriesRunningAverage: "Running average of last 10",
}

func newChartSpec(chartID string, state *ChartState) ChartSpec {
	return ChartSpec{
		ID:                chartID,
		Title:             "Recent values",
		XAxisType:         "datetime",
		YAxisTitle:        "Value",
		YAxisMin:          0,
		PlotLines:         []float64{0},
		TooltipDateFormat: "%Y-%m-%d %H:%M:%S",
		ValueDecimals:     2,
		Legend:            false,
		MaxPoints:         state.Raw.MaxPoints(),
		Series: []SeriesSpec{
			{Name: SeriesRaw, Label: SeriesLabels[SeriesRaw], Data: state.Raw.Snapshot()},
			{Name: SeriesRunningAverage, Label: SeriesLabels[SeriesRunningAverage], Data: state.RunningAverage.Snapshot()},
		},
	}
}
