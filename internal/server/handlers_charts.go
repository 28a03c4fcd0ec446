package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"

	"livechart/internal/charts"
	"livechart/internal/logging"
	"livechart/internal/render"
	"livechart/internal/stream"
	"livechart/internal/system"
)

const (
	defaultSVGWidth  = 800
	defaultSVGHeight = 400
	minSVGSize       = 100
	maxSVGSize       = 4000
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := s.worker.Do(r.Context(), func() { ids = s.controller.ChartIDs() }); err != nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	data := struct {
		Title   string
		Charts  []string
		Width   int
		Height  int
		Version string
	}{
		Title:   "Live chart",
		Charts:  ids,
		Width:   defaultSVGWidth,
		Height:  defaultSVGHeight,
		Version: s.version.Version,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates["index"].Execute(w, data); err != nil {
		logging.Error("Error rendering index: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": s.version.Version,
		"dropped": s.journal.Dropped(),
	}
	if vitals, err := system.Sample(r.Context(), filepath.Dir(s.config.DatabasePath)); err != nil {
		logging.Debug("Host vitals unavailable: %v", err)
	} else {
		resp["host"] = vitals
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Error("Failed to encode health response: %v", err)
	}
}

// handleChartEvents streams mount, redraw and heartbeat events for one chart.
// The mount event carries the chart's full data at subscription time.
func (s *Server) handleChartEvents(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := render.NewClient(chartID)
	var attachErr error
	err := s.worker.Do(r.Context(), func() {
		spec, err := s.controller.Spec(chartID)
		if err != nil {
			attachErr = err
			return
		}
		attachErr = s.broadcaster.Attach(client, spec)
	})
	if err != nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	if attachErr != nil {
		writeChartError(w, chartID, attachErr)
		return
	}
	defer s.broadcaster.Detach(client)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	logging.Debug("SSE client %s attached to chart %s", client.ID, chartID)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.closing:
			return
		case <-client.Close:
			return
		case message := <-client.Messages:
			if _, err := fmt.Fprint(w, message); err != nil {
				logging.Debug("Failed to write SSE message for chart %s: %v", chartID, err)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) handleChartSnapshot(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")

	var snap stream.Snapshot
	var lookupErr error
	if err := s.worker.Do(r.Context(), func() { snap, lookupErr = s.controller.Snapshot(chartID) }); err != nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	if lookupErr != nil {
		writeChartError(w, chartID, lookupErr)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(snap); err != nil {
		logging.Error("Failed to encode snapshot for chart %s: %v", chartID, err)
	}
}

func (s *Server) handleListCharts(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if err := s.worker.Do(r.Context(), func() { ids = s.controller.ChartIDs() }); err != nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"charts": ids}); err != nil {
		logging.Error("Failed to encode chart list: %v", err)
	}
}

// handleChartSVG renders the chart's current data as a standalone SVG.
func (s *Server) handleChartSVG(w http.ResponseWriter, r *http.Request) {
	chartID := r.PathValue("id")
	width := sizeParam(r, "width", defaultSVGWidth)
	height := sizeParam(r, "height", defaultSVGHeight)

	var spec stream.ChartSpec
	var lookupErr error
	if err := s.worker.Do(r.Context(), func() { spec, lookupErr = s.controller.Spec(chartID) }); err != nil {
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}
	if lookupErr != nil {
		writeChartError(w, chartID, lookupErr)
		return
	}

	key := svgKey(spec, width, height)
	svg, ok := s.svgCache.Get(key)
	if !ok {
		svg = charts.GenerateLiveChart(chartData(spec), width, height)
		s.svgCache.Set(key, svg)
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-cache")
	fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>`+"\n") //nolint:errcheck // best effort
	fmt.Fprint(w, string(svg))                                //nolint:errcheck // best effort
}

func chartData(spec stream.ChartSpec) charts.ChartData {
	data := charts.ChartData{
		Title:      spec.Title,
		YAxisTitle: spec.YAxisTitle,
		YMin:       spec.YAxisMin,
		PlotLines:  spec.PlotLines,
	}
	for _, ss := range spec.Series {
		data.Series = append(data.Series, charts.FromSamples(ss.Label, ss.Data))
	}
	return data
}

// svgKey identifies a rendering by chart, size and both ends of each series.
func svgKey(spec stream.ChartSpec, width, height int) string {
	key := fmt.Sprintf("%s:%dx%d", spec.ID, width, height)
	for _, ss := range spec.Series {
		if n := len(ss.Data); n > 0 {
			first, last := ss.Data[0], ss.Data[n-1]
			key += fmt.Sprintf(":%d/%d/%d/%g", n, first.Timestamp, last.Timestamp, last.Value)
		}
	}
	return key
}

func sizeParam(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return def
	}
	if v < minSVGSize {
		return minSVGSize
	}
	if v > maxSVGSize {
		return maxSVGSize
	}
	return v
}

func writeChartError(w http.ResponseWriter, chartID string, err error) {
	if errors.Is(err, stream.ErrUnknownChart) {
		http.Error(w, fmt.Sprintf("Unknown chart %q", chartID), http.StatusNotFound)
		return
	}
	logging.Error("Chart %s: %v", chartID, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}
