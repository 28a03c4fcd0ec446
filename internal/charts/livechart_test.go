package charts

import (
	"strings"
	"testing"
	"time"

	"livechart/internal/series"
)

func TestGenerateLiveChart(t *testing.T) {
	base := time.Date(2023, 11, 14, 22, 12, 0, 0, time.UTC)

	raw := SeriesData{Name: "Random data"}
	avg := SeriesData{Name: "Running average of last 10"}
	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * 3 * time.Second)
		raw.Points = append(raw.Points, DataPoint{Time: ts, Value: float64(40 + i)})
		avg.Points = append(avg.Points, DataPoint{Time: ts, Value: 41})
	}

	tests := []struct {
		name     string
		data     ChartData
		contains []string
		excludes []string
	}{
		{
			name: "two series",
			data: ChartData{Title: "Recent values", YAxisTitle: "Value", PlotLines: []float64{0}, Series: []SeriesData{raw, avg}},
			contains: []string{
				`<svg width="600" height="300"`,
				`Recent values`,
				`data-series="Random data"`,
				`data-series="Running average of last 10"`,
				`stroke="#2f7ed8"`,
				`stroke="#0d233a"`,
				`<title>Random data 2023-11-14 22:12:00 40.00</title>`,
				`22:12:00`,
				`stroke="#808080"`,
			},
		},
		{
			name:     "empty",
			data:     ChartData{Title: "Recent values"},
			contains: []string{`No data available`},
			excludes: []string{`<polyline`},
		},
		{
			name: "single point",
			data: ChartData{Series: []SeriesData{{Name: "raw", Points: raw.Points[:1]}}},
			contains: []string{
				`<circle`,
			},
			excludes: []string{`<polyline`},
		},
		{
			name:     "title is escaped",
			data:     ChartData{Title: `<script>`, Series: []SeriesData{raw}},
			contains: []string{`&lt;script&gt;`},
			excludes: []string{`<script>`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(GenerateLiveChart(tt.data, 600, 300))
			if !strings.HasSuffix(got, "</svg>") {
				t.Errorf("GenerateLiveChart() output not closed: %q", got[len(got)-20:])
			}
			for _, substr := range tt.contains {
				if !strings.Contains(got, substr) {
					t.Errorf("GenerateLiveChart() missing substring %q", substr)
				}
			}
			for _, substr := range tt.excludes {
				if strings.Contains(got, substr) {
					t.Errorf("GenerateLiveChart() unexpectedly contains %q", substr)
				}
			}
		})
	}
}

func TestFrameScaling(t *testing.T) {
	start := time.Unix(0, 0)
	f := frame{left: 10, top: 10, width: 100, height: 100, start: start, end: start.Add(10 * time.Second), minVal: 0, maxVal: 100}

	if x := f.x(start); x != 10 {
		t.Errorf("x(start) = %v, want 10", x)
	}
	if x := f.x(start.Add(5 * time.Second)); x != 60 {
		t.Errorf("x(mid) = %v, want 60", x)
	}
	if x := f.x(start.Add(time.Minute)); x != 110 {
		t.Errorf("x(after end) = %v, want clamped 110", x)
	}
	if y := f.y(0); y != 110 {
		t.Errorf("y(0) = %v, want 110", y)
	}
	if y := f.y(100); y != 10 {
		t.Errorf("y(100) = %v, want 10", y)
	}
	if y := f.y(-20); y != 110 {
		t.Errorf("y(-20) = %v, want clamped 110", y)
	}
}

func TestNiceCeil(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.7, 1},
		{1, 1},
		{42.5, 50},
		{100, 100},
		{101, 200},
		{0, 0},
	}
	for _, tt := range tests {
		if got := niceCeil(tt.in); got != tt.want {
			t.Errorf("niceCeil(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFromSamples(t *testing.T) {
	s := FromSamples("raw", []series.Sample{{Timestamp: 1700000060000, Value: 42.5}})
	if s.Name != "raw" || len(s.Points) != 1 {
		t.Fatalf("FromSamples() = %+v", s)
	}
	if !s.Points[0].Time.Equal(time.UnixMilli(1700000060000)) || s.Points[0].Value != 42.5 {
		t.Errorf("point = %+v", s.Points[0])
	}
}
