//go:build !tinygo

package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"ember/app"
	"ember/hal"
	"ember/internal/metrics"

	"github.com/pelletier/go-toml/v2"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/do"
)

// options are the command line settings the services are built from.
type options struct {
	ConfigPath  string
	Beats       uint32
	TimerHz     int
	MetricsAddr string
	QuietLEDs   bool
}

func provideServices(i *do.Injector, opts options) {
	do.ProvideValue(i, opts)
	do.Provide(i, newConfig)
	do.Provide(i, newBoard)
	do.Provide(i, newSystem)
	do.Provide(i, newMetricsServer)
}

// loadConfig reads a firmware config file. Missing keys keep the values
// already in cfg.
func loadConfig(path string, cfg *app.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func newConfig(i *do.Injector) (app.Config, error) {
	opts := do.MustInvoke[options](i)
	cfg := app.DefaultConfig()
	if opts.ConfigPath != "" {
		if err := loadConfig(opts.ConfigPath, &cfg); err != nil {
			return app.Config{}, err
		}
	}
	if opts.Beats > 0 {
		cfg.Beats = opts.Beats
	}
	if opts.TimerHz > 0 {
		cfg.TimerHz = opts.TimerHz
	}
	return cfg, nil
}

func newBoard(i *do.Injector) (*hal.HostBoard, error) {
	opts := do.MustInvoke[options](i)
	return hal.NewHost(hal.HostOptions{QuietLEDs: opts.QuietLEDs}), nil
}

func newSystem(i *do.Injector) (*app.System, error) {
	board := do.MustInvoke[*hal.HostBoard](i)
	cfg, err := do.Invoke[app.Config](i)
	if err != nil {
		return nil, err
	}
	return app.New(board, cfg)
}

// metricsServer serves /metrics for the running firmware.
type metricsServer struct {
	srv *http.Server
	ln  net.Listener
}

func newMetricsServer(i *do.Injector) (*metricsServer, error) {
	opts := do.MustInvoke[options](i)
	sys, err := do.Invoke[*app.System](i)
	if err != nil {
		return nil, err
	}

	reg := prom.NewRegistry()
	if _, err := metrics.NewCollector("ember", reg, sys); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", opts.MetricsAddr)
	if err != nil {
		return nil, fmt.Errorf("metrics listen: %w", err)
	}
	s := &metricsServer{
		srv: &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		ln:  ln,
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintln(os.Stderr, "metrics:", err)
		}
	}()
	return s, nil
}

// Addr returns the address the server listens on.
func (s *metricsServer) Addr() net.Addr { return s.ln.Addr() }

// Shutdown is called by the injector on exit.
func (s *metricsServer) Shutdown() error {
	return s.srv.Close()
}
