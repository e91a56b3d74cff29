package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"homectl/internal/domain"
	"homectl/internal/infra"
)

// Client talks to a live hub. The base URL is passed on every call because the
// configured endpoint may change between calls.
type Client struct {
	fetcher *infra.Fetcher
	timeout time.Duration
}

func NewClient(fetcher *infra.Fetcher, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = infra.DefaultTimeout
	}
	return &Client{fetcher: fetcher, timeout: timeout}
}

func (c *Client) Devices(ctx context.Context, baseURL string) ([]domain.Device, error) {
	var wire []Device
	if err := c.doRequest(ctx, http.MethodGet, baseURL, "/api/devices", nil, &wire, c.timeout); err != nil {
		return nil, fmt.Errorf("fetching devices: %w", err)
	}
	return devicesToDomain(wire), nil
}

func (c *Client) DevicesByRoom(ctx context.Context, baseURL, roomID string) ([]domain.Device, error) {
	path := fmt.Sprintf("/api/rooms/%s/devices", url.PathEscape(roomID))

	var wire []Device
	if err := c.doRequest(ctx, http.MethodGet, baseURL, path, nil, &wire, c.timeout); err != nil {
		return nil, fmt.Errorf("fetching devices for room %s: %w", roomID, err)
	}
	return devicesToDomain(wire), nil
}

func (c *Client) SetPower(ctx context.Context, baseURL, deviceID string, on bool) (domain.Device, error) {
	return c.updateDevice(ctx, baseURL, deviceID, domain.SettingPower, ToggleRequest{IsOn: on})
}

func (c *Client) SetBrightness(ctx context.Context, baseURL, deviceID string, brightness int) (domain.Device, error) {
	return c.updateDevice(ctx, baseURL, deviceID, domain.SettingBrightness, BrightnessRequest{Brightness: brightness})
}

func (c *Client) SetTemperature(ctx context.Context, baseURL, deviceID string, temperature float64) (domain.Device, error) {
	return c.updateDevice(ctx, baseURL, deviceID, domain.SettingTemperature, TemperatureRequest{Temperature: temperature})
}

func (c *Client) SetSpeed(ctx context.Context, baseURL, deviceID string, speed int) (domain.Device, error) {
	return c.updateDevice(ctx, baseURL, deviceID, domain.SettingSpeed, SpeedRequest{Speed: speed})
}

func (c *Client) AddDevice(ctx context.Context, baseURL string, nd domain.NewDevice) (domain.Device, error) {
	req := AddDeviceRequest{Name: nd.Name, Type: string(nd.Type), RoomID: nd.RoomID}

	var wire Device
	if err := c.doRequest(ctx, http.MethodPost, baseURL, "/api/devices", req, &wire, c.timeout); err != nil {
		return domain.Device{}, fmt.Errorf("adding device: %w", err)
	}
	return ToDomain(wire), nil
}

func (c *Client) Rooms(ctx context.Context, baseURL string) ([]domain.Room, error) {
	var wire []Room
	if err := c.doRequest(ctx, http.MethodGet, baseURL, "/api/rooms", nil, &wire, c.timeout); err != nil {
		return nil, fmt.Errorf("fetching rooms: %w", err)
	}

	rooms := make([]domain.Room, 0, len(wire))
	for _, r := range wire {
		rooms = append(rooms, RoomToDomain(r))
	}
	return rooms, nil
}

func (c *Client) AddRoom(ctx context.Context, baseURL, name string) (domain.Room, error) {
	var wire Room
	if err := c.doRequest(ctx, http.MethodPost, baseURL, "/api/rooms", AddRoomRequest{Name: name}, &wire, c.timeout); err != nil {
		return domain.Room{}, fmt.Errorf("adding room: %w", err)
	}
	return RoomToDomain(wire), nil
}

// Status probes a candidate hub. Any 2xx answer means a hub lives there.
func (c *Client) Status(ctx context.Context, baseURL string, timeout time.Duration) error {
	if err := c.doRequest(ctx, http.MethodGet, baseURL, "/api/status", nil, nil, timeout); err != nil {
		return fmt.Errorf("probing %s: %w", baseURL, err)
	}
	return nil
}

func (c *Client) updateDevice(ctx context.Context, baseURL, deviceID string, setting domain.Setting, payload any) (domain.Device, error) {
	path := fmt.Sprintf("/api/devices/%s/%s", url.PathEscape(deviceID), setting)

	var wire Device
	if err := c.doRequest(ctx, http.MethodPut, baseURL, path, payload, &wire, c.timeout); err != nil {
		return domain.Device{}, fmt.Errorf("updating %s of device %s: %w", setting, deviceID, err)
	}
	return ToDomain(wire), nil
}

func (c *Client) doRequest(ctx context.Context, method, baseURL, path string, payload, out any, timeout time.Duration) error {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
	}

	resp, err := c.fetcher.Fetch(ctx, method, strings.TrimSuffix(baseURL, "/")+path, body, timeout)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return &domain.HTTPError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(resp.Body))}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}

func devicesToDomain(wire []Device) []domain.Device {
	devices := make([]domain.Device, 0, len(wire))
	for _, w := range wire {
		devices = append(devices, ToDomain(w))
	}
	return devices
}
