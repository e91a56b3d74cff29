package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"homectl/config"
	"homectl/internal/application"
	"homectl/internal/domain"
	"homectl/internal/httpapi"
	"homectl/internal/infra"
	"homectl/internal/infra/endpoint"
	"homectl/internal/infra/hub"
	"homectl/internal/infra/metrics"
	"homectl/internal/infra/mock"
	"homectl/internal/infra/mqttnotify"
	"homectl/internal/infra/pushover"
)

const usage = `usage: homectl [-config file] <command> [args]

commands:
  devices [-room id]                list devices, optionally for one room
  rooms                             list rooms
  toggle <id> on|off                switch a device on or off
  brightness <id> <1-100>           set light brightness
  temperature <id> <16-30>          set AC temperature (0.5 steps)
  speed <id> <1-5>                  set fan speed
  add-device -name n -type t -room id
  add-room <name>
  endpoint [url]                    show or set the hub endpoint
  discover                          search the local network for a hub
  pair <user-id> <device-id>        pair this device with a user
  serve                             run the HTTP bridge for the UI
`

type app struct {
	client    *application.Client
	discovery *application.Discovery
	logger    *slog.Logger
	cfg       *config.Config
}

func main() {
	configPath := flag.String("config", "homectl.yaml", "path to config file")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, cleanup, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("initializing", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	if err := a.run(ctx, flag.Arg(0), flag.Args()[1:]); err != nil {
		if errors.Is(err, errUsage) {
			flag.Usage()
			os.Exit(2)
		}
		logger.Error("command failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, logger *slog.Logger) (*app, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	endpoints, closeStore, err := createEndpointStore(cfg, logger)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeStore)

	notifier, closeNotifier, err := createNotifier(cfg.Notify, logger)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	closers = append(closers, closeNotifier)

	hubTimeout, err := config.Duration(cfg.Hub.Timeout, infra.DefaultTimeout)
	if err != nil {
		logger.Warn("invalid hub timeout, using default", "error", err)
	}
	probeTimeout, err := config.Duration(cfg.Discovery.ProbeTimeout, infra.ProbeTimeout)
	if err != nil {
		logger.Warn("invalid probe timeout, using default", "error", err)
	}

	hubClient := hub.NewClient(infra.NewFetcher(nil), hubTimeout)
	recorder := metrics.Recorder{}

	client := application.NewClient(
		hubClient,
		mock.NewStore(),
		endpoints,
		notifier,
		logger,
		application.WithObserver(recorder),
	)

	discovery := application.NewDiscovery(hubClient, endpoints, notifier, logger, application.DiscoveryConfig{
		Candidates:   cfg.Discovery.Candidates,
		ProbeTimeout: probeTimeout,
		Platform:     application.Platform(cfg.Discovery.Platform),
		Observer:     recorder,
	})

	return &app{client: client, discovery: discovery, logger: logger, cfg: cfg}, cleanup, nil
}

func createEndpointStore(cfg *config.Config, logger *slog.Logger) (application.EndpointStore, func(), error) {
	switch cfg.Store.Driver {
	case "memory":
		return endpoint.NewMemoryStore(cfg.Hub.DefaultEndpoint), func() {}, nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Store.RedisAddr, Password: cfg.Store.RedisPassword})
		store := endpoint.NewRedisStore(rdb, cfg.Store.RedisKey, cfg.Hub.DefaultEndpoint, logger)
		return store, func() { _ = rdb.Close() }, nil
	case "sqlite":
		db, err := endpoint.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return nil, func() {}, err
		}
		closeDB := func() {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		}
		store, err := endpoint.NewSQLiteStore(db, cfg.Hub.DefaultEndpoint, logger)
		if err != nil {
			closeDB()
			return nil, func() {}, err
		}
		return store, closeDB, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func createNotifier(cfg config.NotifyConfig, logger *slog.Logger) (application.Notifier, func(), error) {
	switch cfg.Driver {
	case "none":
		return &application.NoopNotifier{}, func() {}, nil
	case "pushover":
		return pushover.NewClient(cfg.Pushover.Token, cfg.Pushover.UserKey), func() {}, nil
	case "mqtt":
		cli, err := mqttnotify.Connect(cfg.MQTT.BrokerURL, logger)
		if err != nil {
			return nil, func() {}, err
		}
		return mqttnotify.New(cli, cfg.MQTT.Topic), func() { cli.Disconnect(250) }, nil
	case "log":
		return &application.LogNotifier{Logger: logger}, func() {}, nil
	default:
		logger.Warn("unknown notify driver, using log", "driver", cfg.Driver)
		return &application.LogNotifier{Logger: logger}, func() {}, nil
	}
}

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "devices":
		fs := flag.NewFlagSet("devices", flag.ContinueOnError)
		room := fs.String("room", "", "room id")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		if *room != "" {
			return printResult(a.client.DevicesByRoom(ctx, *room))
		}
		return printResult(a.client.Devices(ctx))

	case "rooms":
		return printResult(a.client.Rooms(ctx))

	case "toggle":
		if len(args) != 2 {
			return errUsage
		}
		on, err := parseOnOff(args[1])
		if err != nil {
			return err
		}
		return printResult(a.client.ToggleDevice(ctx, args[0], on))

	case "brightness":
		if len(args) != 2 {
			return errUsage
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: brightness must be an integer", domain.ErrValidation)
		}
		return printResult(a.client.SetBrightness(ctx, args[0], v))

	case "temperature":
		if len(args) != 2 {
			return errUsage
		}
		v, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("%w: temperature must be a number", domain.ErrValidation)
		}
		return printResult(a.client.SetTemperature(ctx, args[0], v))

	case "speed":
		if len(args) != 2 {
			return errUsage
		}
		v, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%w: speed must be an integer", domain.ErrValidation)
		}
		return printResult(a.client.SetSpeed(ctx, args[0], v))

	case "add-device":
		fs := flag.NewFlagSet("add-device", flag.ContinueOnError)
		name := fs.String("name", "", "device name")
		typ := fs.String("type", "light", "light, fan, ac or other")
		room := fs.String("room", "", "room id")
		if err := fs.Parse(args); err != nil {
			return errUsage
		}
		return printResult(a.client.AddDevice(ctx, domain.NewDevice{
			Name:   *name,
			Type:   domain.DeviceType(*typ),
			RoomID: *room,
		}))

	case "add-room":
		if len(args) != 1 {
			return errUsage
		}
		return printResult(a.client.AddRoom(ctx, args[0]))

	case "endpoint":
		if len(args) == 0 {
			return printResult(map[string]string{"endpoint": a.client.Endpoint(ctx)}, nil)
		}
		ep, err := a.client.ConfigureEndpoint(ctx, args[0])
		return printResult(map[string]string{"endpoint": ep}, err)

	case "discover":
		return printResult(a.discovery.Discover(ctx))

	case "pair":
		if len(args) != 2 {
			return errUsage
		}
		return printResult(application.PairDevice(args[0], args[1]))

	case "serve":
		return a.serve(ctx)

	default:
		return errUsage
	}
}

func (a *app) serve(ctx context.Context) error {
	srv := httpapi.NewServer(a.client, a.discovery, a.logger)

	httpSrv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      srv.Router(a.cfg.Server.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("bridge listening", "addr", a.cfg.Server.Addr, "endpoint", a.client.Endpoint(ctx))
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return httpSrv.Shutdown(shutdownCtx)
}

func parseOnOff(s string) (bool, error) {
	switch s {
	case "on", "true", "1":
		return true, nil
	case "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: expected on or off, got %q", domain.ErrValidation, s)
	}
}

func printResult[T any](v T, err error) error {
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	return slog.New(handler)
}
