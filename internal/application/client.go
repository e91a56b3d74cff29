package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"homectl/internal/domain"
)

const simulationWarning = "Failed to connect to device. Using simulation mode."

// Client is the device and room facade. Every call resolves the endpoint,
// tries the live hub once and, on any failure, serves the same operation from
// the catalog.
type Client struct {
	hub       HubAPI
	catalog   Catalog
	endpoints EndpointStore
	notifier  Notifier
	logger    *slog.Logger
	observer  Observer
	tracer    trace.Tracer
}

type Option func(*Client)

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func NewClient(
	hub HubAPI,
	catalog Catalog,
	endpoints EndpointStore,
	notifier Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Client {
	c := &Client{
		hub:       hub,
		catalog:   catalog,
		endpoints: endpoints,
		notifier:  notifier,
		logger:    logger,
		observer:  noopObserver{},
		tracer:    otel.Tracer("homectl/application"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Devices(ctx context.Context) ([]domain.Device, error) {
	devices, err := withFallback(ctx, c, "get_devices", false,
		func(ctx context.Context, baseURL string) ([]domain.Device, error) {
			return c.hub.Devices(ctx, baseURL)
		},
		c.catalog.Devices,
	)
	if err != nil {
		c.logger.Error("error fetching devices", "error", err)
		return nil, fmt.Errorf("failed to fetch devices: %w", err)
	}
	return devices, nil
}

func (c *Client) DevicesByRoom(ctx context.Context, roomID string) ([]domain.Device, error) {
	devices, err := withFallback(ctx, c, "get_devices_by_room", false,
		func(ctx context.Context, baseURL string) ([]domain.Device, error) {
			return c.hub.DevicesByRoom(ctx, baseURL, roomID)
		},
		func(ctx context.Context) ([]domain.Device, error) {
			return c.catalog.DevicesByRoom(ctx, roomID)
		},
	)
	if err != nil {
		c.logger.Error("error fetching devices for room", "room_id", roomID, "error", err)
		return nil, fmt.Errorf("failed to fetch devices for room %s: %w", roomID, err)
	}
	return devices, nil
}

func (c *Client) ToggleDevice(ctx context.Context, deviceID string, on bool) (domain.Device, error) {
	return c.updateDevice(ctx, "toggle_device", deviceID,
		func(ctx context.Context, baseURL string) (domain.Device, error) {
			return c.hub.SetPower(ctx, baseURL, deviceID, on)
		},
		func(d domain.Device) (domain.Device, error) { return domain.SetPower(d, on) },
	)
}

func (c *Client) SetBrightness(ctx context.Context, deviceID string, brightness int) (domain.Device, error) {
	if err := domain.ValidateBrightness(brightness); err != nil {
		return domain.Device{}, err
	}
	return c.updateDevice(ctx, "set_brightness", deviceID,
		func(ctx context.Context, baseURL string) (domain.Device, error) {
			return c.hub.SetBrightness(ctx, baseURL, deviceID, brightness)
		},
		func(d domain.Device) (domain.Device, error) { return domain.SetBrightness(d, brightness) },
	)
}

func (c *Client) SetTemperature(ctx context.Context, deviceID string, temperature float64) (domain.Device, error) {
	if err := domain.ValidateTemperature(temperature); err != nil {
		return domain.Device{}, err
	}
	return c.updateDevice(ctx, "set_temperature", deviceID,
		func(ctx context.Context, baseURL string) (domain.Device, error) {
			return c.hub.SetTemperature(ctx, baseURL, deviceID, temperature)
		},
		func(d domain.Device) (domain.Device, error) { return domain.SetTemperature(d, temperature) },
	)
}

func (c *Client) SetSpeed(ctx context.Context, deviceID string, speed int) (domain.Device, error) {
	if err := domain.ValidateSpeed(speed); err != nil {
		return domain.Device{}, err
	}
	return c.updateDevice(ctx, "set_speed", deviceID,
		func(ctx context.Context, baseURL string) (domain.Device, error) {
			return c.hub.SetSpeed(ctx, baseURL, deviceID, speed)
		},
		func(d domain.Device) (domain.Device, error) { return domain.SetSpeed(d, speed) },
	)
}

func (c *Client) AddDevice(ctx context.Context, nd domain.NewDevice) (domain.Device, error) {
	nd, err := nd.Validate()
	if err != nil {
		return domain.Device{}, err
	}

	device, err := withFallback(ctx, c, "add_device", true,
		func(ctx context.Context, baseURL string) (domain.Device, error) {
			return c.hub.AddDevice(ctx, baseURL, nd)
		},
		func(ctx context.Context) (domain.Device, error) {
			return c.catalog.AddDevice(ctx, nd)
		},
	)
	if err != nil {
		c.logger.Error("error adding device", "name", nd.Name, "error", err)
		return domain.Device{}, fmt.Errorf("adding device: %w", err)
	}
	return device, nil
}

func (c *Client) Rooms(ctx context.Context) ([]domain.Room, error) {
	rooms, err := withFallback(ctx, c, "get_rooms", false,
		func(ctx context.Context, baseURL string) ([]domain.Room, error) {
			return c.hub.Rooms(ctx, baseURL)
		},
		c.catalog.Rooms,
	)
	if err != nil {
		c.logger.Error("error fetching rooms", "error", err)
		return nil, fmt.Errorf("failed to fetch rooms: %w", err)
	}
	return rooms, nil
}

func (c *Client) AddRoom(ctx context.Context, name string) (domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Room{}, fmt.Errorf("%w: room name is required", domain.ErrValidation)
	}

	room, err := withFallback(ctx, c, "add_room", true,
		func(ctx context.Context, baseURL string) (domain.Room, error) {
			return c.hub.AddRoom(ctx, baseURL, name)
		},
		func(ctx context.Context) (domain.Room, error) {
			return c.catalog.AddRoom(ctx, name)
		},
	)
	if err != nil {
		c.logger.Error("error adding room", "name", name, "error", err)
		return domain.Room{}, fmt.Errorf("adding room: %w", err)
	}
	return room, nil
}

func (c *Client) updateDevice(
	ctx context.Context,
	op, deviceID string,
	live func(ctx context.Context, baseURL string) (domain.Device, error),
	mutate func(domain.Device) (domain.Device, error),
) (domain.Device, error) {
	device, err := withFallback(ctx, c, op, true, live,
		func(ctx context.Context) (domain.Device, error) {
			return c.catalog.UpdateDevice(ctx, deviceID, mutate)
		},
	)
	if err != nil {
		c.logger.Error("error updating device", "operation", op, "device_id", deviceID, "error", err)
		return domain.Device{}, err
	}
	return device, nil
}

// withFallback makes the single live-or-mock decision. The live attempt runs
// once; any failure it reports (timeout, network, non-2xx) is logged and the
// mock operation runs instead. Mutating operations also raise a warning toast.
func withFallback[T any](
	ctx context.Context,
	c *Client,
	op string,
	mutating bool,
	live func(ctx context.Context, baseURL string) (T, error),
	mock func(ctx context.Context) (T, error),
) (T, error) {
	ctx, span := c.tracer.Start(ctx, "client."+op)
	defer span.End()

	baseURL := c.endpoints.Current(ctx)
	span.SetAttributes(attribute.String("hub.endpoint", baseURL))

	result, liveErr := live(ctx, baseURL)
	c.observer.ObserveCall(op, SourceLive, liveErr)
	if liveErr == nil {
		span.SetAttributes(attribute.String("client.source", SourceLive))
		return result, nil
	}

	if ctx.Err() != nil {
		var zero T
		return zero, ctx.Err()
	}

	c.logger.Info("using mock data instead, couldn't connect to hub",
		"operation", op,
		"endpoint", baseURL,
		"error", liveErr,
	)
	if mutating {
		if err := c.notifier.Notify(ctx, LevelWarning, simulationWarning); err != nil {
			c.logger.Error("notifying fallback", "error", err)
		}
	}

	span.SetAttributes(attribute.String("client.source", SourceMock))
	result, err := mock(ctx)
	c.observer.ObserveCall(op, SourceMock, err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		var zero T
		return zero, err
	}
	return result, nil
}
