package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultCandidates are the local addresses a hub is usually found at.
var DefaultCandidates = []string{
	"http://192.168.1.100",
	"http://192.168.1.101",
	"http://192.168.1.102",
	"http://192.168.0.100",
	"http://192.168.0.101",
}

// Platform only changes what the sweep logs and announces.
type Platform string

const (
	PlatformWeb    Platform = "web"
	PlatformNative Platform = "native"
	PlatformCLI    Platform = "cli"
)

type DiscoveryResult struct {
	Found    bool   `json:"found"`
	Endpoint string `json:"endpoint,omitempty"`
}

// Discovery probes candidates one at a time, in order, and keeps the first
// hub that answers.
type Discovery struct {
	prober     Prober
	endpoints  EndpointStore
	notifier   Notifier
	logger     *slog.Logger
	observer   Observer
	candidates []string
	timeout    time.Duration
	platform   Platform
}

type DiscoveryConfig struct {
	Candidates   []string
	ProbeTimeout time.Duration
	Platform     Platform
	Observer     Observer
}

func NewDiscovery(prober Prober, endpoints EndpointStore, notifier Notifier, logger *slog.Logger, cfg DiscoveryConfig) *Discovery {
	if len(cfg.Candidates) == 0 {
		cfg.Candidates = DefaultCandidates
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = time.Second
	}
	if cfg.Platform == "" {
		cfg.Platform = PlatformWeb
	}
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}

	return &Discovery{
		prober:     prober,
		endpoints:  endpoints,
		notifier:   notifier,
		logger:     logger,
		observer:   cfg.Observer,
		candidates: append([]string(nil), cfg.Candidates...),
		timeout:    cfg.ProbeTimeout,
		platform:   cfg.Platform,
	}
}

// Discover returns Found=false without error when no candidate answers; the
// stored endpoint is only written on success. Errors are reserved for
// cancellation and for failing to persist the found endpoint.
func (d *Discovery) Discover(ctx context.Context) (DiscoveryResult, error) {
	d.logger.Info("discovering hub", "platform", d.platform, "candidates", len(d.candidates))

	if d.platform == PlatformNative {
		d.notify(ctx, LevelInfo, "Searching for devices on your home network...")
	}

	for _, endpoint := range d.candidates {
		if err := ctx.Err(); err != nil {
			return DiscoveryResult{}, err
		}

		if err := d.prober.Status(ctx, endpoint, d.timeout); err != nil {
			d.observer.ObserveProbe(false)
			d.logger.Debug("no hub found", "endpoint", endpoint, "error", err)
			continue
		}
		d.observer.ObserveProbe(true)

		if err := d.endpoints.Configure(ctx, endpoint); err != nil {
			return DiscoveryResult{}, fmt.Errorf("saving discovered endpoint: %w", err)
		}

		d.logger.Info("hub discovered", "endpoint", endpoint)
		d.notify(ctx, LevelSuccess, "Connected to smart home hub at "+endpoint)
		return DiscoveryResult{Found: true, Endpoint: endpoint}, nil
	}

	if err := ctx.Err(); err != nil {
		return DiscoveryResult{}, err
	}

	d.logger.Info("no hub found on any candidate")
	d.notify(ctx, LevelError, "No smart home devices found on your network")
	return DiscoveryResult{Found: false}, nil
}

func (d *Discovery) notify(ctx context.Context, level Level, msg string) {
	if err := d.notifier.Notify(ctx, level, msg); err != nil {
		d.logger.Error("notifying discovery result", "error", err)
	}
}
