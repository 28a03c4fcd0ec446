package server

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"livechart/internal/database"
	"livechart/internal/logging"
	"livechart/internal/realtime"
)

// newScheduler registers the periodic jobs: SSE heartbeats, log rotation,
// journal pruning and, in demo mode, the random sources.
func (s *Server) newScheduler() (*cron.Cron, error) {
	c := cron.New()

	if s.config.HeartbeatSchedule != "" {
		if _, err := c.AddFunc(s.config.HeartbeatSchedule, s.broadcaster.SendHeartbeat); err != nil {
			return nil, fmt.Errorf("invalid heartbeat schedule %q: %w", s.config.HeartbeatSchedule, err)
		}
	}

	if s.config.LogDir != "" && s.config.LogRotationSchedule != "" {
		if _, err := c.AddFunc(s.config.LogRotationSchedule, rotateLogs); err != nil {
			return nil, fmt.Errorf("invalid log rotation schedule %q: %w", s.config.LogRotationSchedule, err)
		}
	}

	if _, err := c.AddFunc("@daily", pruneRejections); err != nil {
		return nil, fmt.Errorf("failed to schedule journal pruning: %w", err)
	}

	if s.config.Demo {
		seed := time.Now().UnixNano()
		for i, chartID := range s.config.Charts {
			src := realtime.NewRandomSource(chartID, s.config.MessageType, realtime.DefaultWindow, seed+int64(i))
			job := func() {
				if err := src.Emit(s.worker.Enqueue); err != nil {
					logging.Error("Demo source for chart %s failed: %v", chartID, err)
				}
			}
			if _, err := c.AddFunc(s.config.DemoSchedule, job); err != nil {
				return nil, fmt.Errorf("invalid demo schedule %q: %w", s.config.DemoSchedule, err)
			}
		}
		logging.Info("Demo mode: feeding %d charts on %s", len(s.config.Charts), s.config.DemoSchedule)
	}

	return c, nil
}

func rotateLogs() {
	if err := logging.RotateLogs(); err != nil {
		logging.Error("Failed to rotate logs: %v", err)
		return
	}
	logging.Info("Log file rotated")
}

func pruneRejections() {
	if database.GetDB() == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	n, err := database.PruneRejections(ctx, time.Now().Add(-rejectionRetention))
	if err != nil {
		logging.Error("Failed to prune rejection journal: %v", err)
		return
	}
	if n > 0 {
		logging.Info("Pruned %d rejection journal entries", n)
	}
}
