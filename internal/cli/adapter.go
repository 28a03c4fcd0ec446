package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"livechart/internal/config"
	"livechart/internal/database"
	"livechart/internal/logging"
	"livechart/internal/server"
	"livechart/internal/systemcheck"
	"livechart/internal/version"
)

const shutdownTimeout = 10 * time.Second

// NewManager returns the Manager backed by the real server and journal.
// cfgErr is reported by the operations that need configuration, so that
// commands such as version still work with a broken config file.
func NewManager(cfg *config.Config, cfgErr error) Manager {
	return &manager{cfg: cfg, cfgErr: cfgErr, client: &http.Client{Timeout: 10 * time.Second}}
}

type manager struct {
	cfg    *config.Config
	cfgErr error
	client *http.Client
}

func (m *manager) config() (*config.Config, error) {
	if m.cfgErr != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", m.cfgErr)
	}
	if m.cfg == nil {
		return nil, fmt.Errorf("no configuration loaded")
	}
	return m.cfg, nil
}

func (m *manager) Serve(ctx context.Context, opts ServeOptions) error {
	base, err := m.config()
	if err != nil {
		return err
	}
	cfg := *base
	if opts.ListenAddr != "" {
		addr, err := config.NormalizeListenAddr(opts.ListenAddr)
		if err != nil {
			return err
		}
		cfg.ListenAddr = addr
	}
	if opts.Demo {
		cfg.Demo = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if err := database.Initialize(cfg.DatabasePath); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := database.Close(); err != nil {
			logging.Error("Failed to close database: %v", err)
		}
	}()

	srv, err := server.New(&cfg)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	logging.Info("Configuration: %s", cfg.String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	shutdown := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}

	select {
	case err := <-errCh:
		if shutdownErr := shutdown(); shutdownErr != nil {
			logging.Error("Error during shutdown: %v", shutdownErr)
		}
		return err
	case <-ctx.Done():
		logging.Info("Shutting down")
		return shutdown()
	}
}

func (m *manager) Rejections(ctx context.Context, limit int) ([]database.Rejection, error) {
	cfg, err := m.config()
	if err != nil {
		return nil, err
	}
	if err := database.Initialize(cfg.DatabasePath); err != nil {
		return nil, fmt.Errorf("failed to open rejection journal: %w", err)
	}
	defer database.Close() //nolint:errcheck // read-only use

	return database.GetRecentRejections(ctx, limit)
}

func (m *manager) Send(ctx context.Context, req SendRequest) error {
	endpoint := strings.TrimRight(req.ServerURL, "/") + "/api/messages/" + url.PathEscape(req.MessageType)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.Payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", version.UserAgent())

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server rejected message: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	return nil
}

func (m *manager) Check(ctx context.Context) ([]systemcheck.CheckResult, error) {
	cfg, err := m.config()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return systemcheck.NewRunner(cfg).Run(ctx), nil
}
