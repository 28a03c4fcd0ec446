package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/robfig/cron/v3"

	"livechart/internal/cache"
	"livechart/internal/config"
	"livechart/internal/embeds"
	"livechart/internal/logging"
	"livechart/internal/render"
	"livechart/internal/stream"
	"livechart/internal/version"
	"livechart/internal/worker"
)

const (
	svgCacheTTL   = 30 * time.Second
	journalBuffer = 256
	// rejectionRetention bounds how long the journal keeps dropped messages
	rejectionRetention = 7 * 24 * time.Hour
)

// Server represents the HTTP server
type Server struct {
	config      *config.Config
	version     version.Info
	templates   map[string]*template.Template
	controller  *stream.Controller
	dispatcher  *stream.Dispatcher
	broadcaster *render.Broadcaster
	journal     *Journal
	worker      *worker.Worker
	scheduler   *cron.Cron
	svgCache    *cache.Cache[template.HTML]
	upgrader    websocket.Upgrader
	httpServer  *http.Server
	closing     chan struct{}
	closeOnce   sync.Once
}

// New wires the chart pipeline for cfg. Every configured chart is
// initialized before New returns.
func New(cfg *config.Config) (*Server, error) {
	s := &Server{
		config:      cfg,
		version:     version.Get(),
		templates:   make(map[string]*template.Template),
		dispatcher:  stream.NewDispatcher(),
		broadcaster: render.NewBroadcaster(),
		journal:     NewJournal(journalBuffer),
		svgCache:    cache.New[template.HTML](svgCacheTTL, time.Minute),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		closing: make(chan struct{}),
	}

	if err := s.loadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	s.controller = stream.NewController(s.broadcaster, stream.Options{
		PlaceholderCount:      cfg.PlaceholderCount,
		PlaceholderIntervalMs: cfg.PlaceholderIntervalMs,
		PlaceholderValue:      cfg.PlaceholderValue,
		MaxPoints:             cfg.MaxPoints,
		Now:                   time.Now,
	})
	for _, chartID := range cfg.Charts {
		if _, err := s.controller.InitializeChart(chartID); err != nil {
			return nil, err
		}
		logging.Info("Chart %s initialized with %d placeholder points", chartID, cfg.PlaceholderCount)
	}

	if err := s.dispatcher.Register(cfg.MessageType, s.controller.Handler()); err != nil {
		return nil, fmt.Errorf("failed to register %s handler: %w", cfg.MessageType, err)
	}

	s.worker = worker.New(s.dispatcher, s.journal, cfg.QueueSize)

	scheduler, err := s.newScheduler()
	if err != nil {
		return nil, err
	}
	s.scheduler = scheduler

	addr := cfg.ListenAddr
	if addr == "" {
		addr = config.DefaultPort
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

func (s *Server) loadTemplates() error {
	tmpl, err := embeds.ParseTemplate("templates/index.html")
	if err != nil {
		return fmt.Errorf("failed to parse index template: %w", err)
	}
	s.templates["index"] = tmpl
	return nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if static, err := embeds.StaticFS(); err == nil {
		mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	} else {
		logging.Warning("Static files unavailable: %v", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	mux.HandleFunc("GET /charts/{id}/events", s.handleChartEvents)
	mux.HandleFunc("GET /charts/{id}/snapshot.svg", s.handleChartSVG)
	mux.HandleFunc("GET /api/charts", s.handleListCharts)
	mux.HandleFunc("GET /api/charts/{id}", s.handleChartSnapshot)

	mux.HandleFunc("POST /api/messages/{type}", s.handlePostMessage)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	mux.HandleFunc("GET /api/rejections", s.handleRejections)

	return withTracing(mux)
}

// Start launches the event loop, the journal and the scheduler. It does not
// listen; see ListenAndServe.
func (s *Server) Start() {
	s.journal.Start()
	s.worker.Start()
	s.scheduler.Start()
}

// ListenAndServe starts the pipeline and serves HTTP until Shutdown.
func (s *Server) ListenAndServe() error {
	s.Start()

	logging.Info("Starting server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown ends open streams, stops accepting requests, drains queued
// messages and stops the background jobs.
func (s *Server) Shutdown(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.closing) })
	err := s.httpServer.Shutdown(ctx)

	<-s.scheduler.Stop().Done()
	s.worker.Stop()
	s.journal.Stop()
	s.svgCache.Stop()
	return err
}

// Enqueue hands env to the event loop.
func (s *Server) Enqueue(env stream.Envelope) bool {
	return s.worker.Enqueue(env)
}
