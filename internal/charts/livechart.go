// Package charts renders chart snapshots as SVG.
package charts

import (
	"fmt"
	"html"
	"html/template"
	"math"
	"strings"
	"time"

	"livechart/internal/series"
)

// DataPoint is one sample on the time axis
type DataPoint struct {
	Time  time.Time
	Value float64
}

// SeriesData is one line on the chart
type SeriesData struct {
	Name   string
	Color  string
	Points []DataPoint
}

// ChartData holds everything needed to draw a live chart snapshot.
type ChartData struct {
	Title      string
	YAxisTitle string
	// YMin pins the bottom of the value axis; the top is fitted to the data.
	YMin      float64
	PlotLines []float64
	Series    []SeriesData
}

// SeriesColors are assigned in order to series without a color.
var SeriesColors = []string{"#2f7ed8", "#0d233a", "#8bbc21", "#910000"}

const (
	marginTop    = 40
	marginRight  = 20
	marginBottom = 50
	marginLeft   = 60
)

type frame struct {
	left, top, width, height int
	start, end               time.Time
	minVal, maxVal           float64
}

func (f frame) x(t time.Time) float64 {
	span := f.end.Sub(f.start)
	if span <= 0 {
		return float64(f.left) + float64(f.width)/2
	}
	ratio := float64(t.Sub(f.start)) / float64(span)
	return float64(f.left) + clamp01(ratio)*float64(f.width)
}

func (f frame) y(v float64) float64 {
	if f.maxVal == f.minVal {
		return float64(f.top) + float64(f.height)/2
	}
	normalized := clamp01((v - f.minVal) / (f.maxVal - f.minVal))
	return float64(f.top) + float64(f.height)*(1-normalized)
}

// GenerateLiveChart draws every series of data on a shared datetime axis.
func GenerateLiveChart(data ChartData, width, height int) template.HTML {
	var svg strings.Builder
	svg.Grow(4096)

	fmt.Fprintf(&svg, `<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg">`,
		width, height, width, height)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="#ffffff"/>`, width, height)
	fmt.Fprintf(&svg, `<text x="%d" y="25" text-anchor="middle" font-size="16" font-weight="bold" fill="#2d3748">%s</text>`,
		width/2, html.EscapeString(data.Title))

	start, end, ok := timeBounds(data.Series)
	if !ok {
		fmt.Fprintf(&svg, `<text x="%d" y="%d" text-anchor="middle" fill="#6c757d">No data available</text></svg>`,
			width/2, height/2)
		return template.HTML(svg.String())
	}

	f := frame{
		left:   marginLeft,
		top:    marginTop,
		width:  width - marginLeft - marginRight,
		height: height - marginTop - marginBottom,
		start:  start,
		end:    end,
		minVal: data.YMin,
		maxVal: niceCeil(maxValue(data.Series, data.YMin)),
	}

	writeGrid(&svg, f)
	writeYAxis(&svg, f, data.YAxisTitle)
	writeXAxis(&svg, f)
	for _, line := range data.PlotLines {
		if line < f.minVal || line > f.maxVal {
			continue
		}
		y := f.y(line)
		fmt.Fprintf(&svg, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#808080" stroke-width="1"/>`,
			f.left, y, f.left+f.width, y)
	}

	for i, s := range data.Series {
		color := s.Color
		if color == "" {
			color = SeriesColors[i%len(SeriesColors)]
		}
		writeSeries(&svg, f, s, color)
	}

	fmt.Fprintf(&svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="none" stroke="#dee2e6" stroke-width="1"/>`,
		f.left, f.top, f.width, f.height)
	svg.WriteString(`</svg>`)

	return template.HTML(svg.String())
}

func writeGrid(svg *strings.Builder, f frame) {
	svg.WriteString(`<g stroke="#f0f0f0" stroke-width="1">`)
	for i := 0; i <= 5; i++ {
		y := f.top + f.height*i/5
		fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d"/>`, f.left, y, f.left+f.width, y)
	}
	svg.WriteString(`</g>`)
}

func writeYAxis(svg *strings.Builder, f frame, title string) {
	svg.WriteString(`<g font-size="12" fill="#6c757d">`)
	for i := 0; i <= 5; i++ {
		y := f.top + f.height - f.height*i/5
		value := f.minVal + (f.maxVal-f.minVal)*float64(i)/5
		fmt.Fprintf(svg, `<text x="%d" y="%d" text-anchor="end" dominant-baseline="middle">%s</text>`,
			f.left-10, y, formatValue(value))
	}
	if title != "" {
		cy := f.top + f.height/2
		fmt.Fprintf(svg, `<text x="15" y="%d" text-anchor="middle" transform="rotate(-90 15 %d)">%s</text>`,
			cy, cy, html.EscapeString(title))
	}
	svg.WriteString(`</g>`)
}

func writeXAxis(svg *strings.Builder, f frame) {
	svg.WriteString(`<g font-size="11" fill="#6c757d">`)
	span := f.end.Sub(f.start)
	labels := 5
	if span <= 0 {
		labels = 1
	}
	for i := 0; i < labels; i++ {
		t := f.start
		if labels > 1 {
			t = f.start.Add(span * time.Duration(i) / time.Duration(labels-1))
		}
		x := f.x(t)
		y := f.top + f.height + 20
		fmt.Fprintf(svg, `<text x="%.1f" y="%d" text-anchor="middle">%s</text>`, x, y, formatTick(t, span))
		fmt.Fprintf(svg, `<line x1="%.1f" y1="%d" x2="%.1f" y2="%d" stroke="#dee2e6"/>`,
			x, f.top+f.height, x, f.top+f.height+5)
	}
	svg.WriteString(`</g>`)
}

func writeSeries(svg *strings.Builder, f frame, s SeriesData, color string) {
	if len(s.Points) == 0 {
		return
	}

	fmt.Fprintf(svg, `<g class="series" data-series="%s">`, html.EscapeString(s.Name))
	if len(s.Points) == 1 {
		p := s.Points[0]
		fmt.Fprintf(svg, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s">%s</circle>`,
			f.x(p.Time), f.y(p.Value), color, tooltip(s.Name, p))
		svg.WriteString(`</g>`)
		return
	}

	var points strings.Builder
	points.Grow(len(s.Points) * 16)
	for i, p := range s.Points {
		if i > 0 {
			points.WriteString(" ")
		}
		fmt.Fprintf(&points, "%.1f,%.1f", f.x(p.Time), f.y(p.Value))
	}
	fmt.Fprintf(svg, `<polyline fill="none" stroke="%s" stroke-width="2" points="%s"/>`, color, points.String())

	for _, p := range s.Points {
		fmt.Fprintf(svg, `<circle cx="%.1f" cy="%.1f" r="2" fill="%s">%s</circle>`,
			f.x(p.Time), f.y(p.Value), color, tooltip(s.Name, p))
	}
	svg.WriteString(`</g>`)
}

// tooltip renders the series name, the UTC timestamp and the value to two decimals.
func tooltip(name string, p DataPoint) string {
	return fmt.Sprintf(`<title>%s %s %.2f</title>`,
		html.EscapeString(name), p.Time.UTC().Format("2006-01-02 15:04:05"), p.Value)
}

func formatTick(t time.Time, span time.Duration) string {
	t = t.UTC()
	if span > 24*time.Hour {
		return t.Format("Jan 2 15:04")
	}
	return t.Format("15:04:05")
}

func formatValue(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.1f", v)
}

func timeBounds(all []SeriesData) (time.Time, time.Time, bool) {
	var start, end time.Time
	found := false
	for _, s := range all {
		for _, p := range s.Points {
			if !found || p.Time.Before(start) {
				start = p.Time
			}
			if !found || p.Time.After(end) {
				end = p.Time
			}
			found = true
		}
	}
	return start, end, found
}

func maxValue(all []SeriesData, floor float64) float64 {
	maxVal := math.Inf(-1)
	for _, s := range all {
		for _, p := range s.Points {
			if p.Value > maxVal {
				maxVal = p.Value
			}
		}
	}
	if math.IsInf(maxVal, -1) || maxVal <= floor {
		return floor + 1
	}
	return maxVal
}

// niceCeil rounds v up to 1, 2 or 5 times a power of ten.
func niceCeil(v float64) float64 {
	if v <= 0 {
		return v
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FromSamples converts epoch-millisecond samples into a series
func FromSamples(name string, samples []series.Sample) SeriesData {
	points := make([]DataPoint, len(samples))
	for i, s := range samples {
		points[i] = DataPoint{Time: time.UnixMilli(s.Timestamp), Value: s.Value}
	}
	return SeriesData{Name: name, Points: points}
}
