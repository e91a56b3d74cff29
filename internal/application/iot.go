package application

import (
	"context"
	"time"

	"homectl/internal/domain"
)

// HubAPI is the live hub, addressed by the base URL resolved for each call.
type HubAPI interface {
	Devices(ctx context.Context, baseURL string) ([]domain.Device, error)
	DevicesByRoom(ctx context.Context, baseURL, roomID string) ([]domain.Device, error)
	SetPower(ctx context.Context, baseURL, deviceID string, on bool) (domain.Device, error)
	SetBrightness(ctx context.Context, baseURL, deviceID string, brightness int) (domain.Device, error)
	SetTemperature(ctx context.Context, baseURL, deviceID string, temperature float64) (domain.Device, error)
	SetSpeed(ctx context.Context, baseURL, deviceID string, speed int) (domain.Device, error)
	AddDevice(ctx context.Context, baseURL string, nd domain.NewDevice) (domain.Device, error)
	Rooms(ctx context.Context, baseURL string) ([]domain.Room, error)
	AddRoom(ctx context.Context, baseURL, name string) (domain.Room, error)
}

// Prober checks whether a hub answers at baseURL within timeout.
type Prober interface {
	Status(ctx context.Context, baseURL string, timeout time.Duration) error
}

// Catalog is the in-memory stand-in for the hub used in fallback mode.
type Catalog interface {
	Devices(ctx context.Context) ([]domain.Device, error)
	DevicesByRoom(ctx context.Context, roomID string) ([]domain.Device, error)
	// UpdateDevice applies fn to a copy of the device and stores the result
	// only when fn succeeds.
	UpdateDevice(ctx context.Context, deviceID string, fn func(domain.Device) (domain.Device, error)) (domain.Device, error)
	AddDevice(ctx context.Context, nd domain.NewDevice) (domain.Device, error)
	Rooms(ctx context.Context) ([]domain.Room, error)
	AddRoom(ctx context.Context, name string) (domain.Room, error)
}

// EndpointStore persists the single configured hub base URL.
type EndpointStore interface {
	Configure(ctx context.Context, url string) error
	// Current never fails; it returns the default gateway when nothing is stored.
	Current(ctx context.Context) string
}
