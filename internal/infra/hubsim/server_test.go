package hubsim_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"homectl/internal/application"
	"homectl/internal/domain"
	"homectl/internal/infra"
	"homectl/internal/infra/endpoint"
	"homectl/internal/infra/hub"
	"homectl/internal/infra/hubsim"
	"homectl/internal/infra/mock"
)

func newServer(opts hubsim.Options) (*hubsim.Server, *mock.Store) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := mock.NewStore()
	return hubsim.NewServer(":0", store, logger, opts), store
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_ListDevices(t *testing.T) {
	srv, _ := newServer(hubsim.Options{})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/devices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d, want 200", rec.Code)
	}

	var devices []hub.Device
	if err := json.NewDecoder(rec.Body).Decode(&devices); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if len(devices) != 3 {
		t.Fatalf("devices count: got %d, want 3", len(devices))
	}
	if devices[0].Brightness == nil || *devices[0].Brightness != 70 {
		t.Errorf("light brightness: got %v", devices[0].Brightness)
	}
	if devices[1].Brightness != nil || devices[1].Temperature == nil {
		t.Errorf("ac controls: got %+v", devices[1])
	}
}

func TestServer_UpdateErrors(t *testing.T) {
	srv, store := newServer(hubsim.Options{})

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"unknown device", "/api/devices/999/toggle", `{"is_on":true}`, http.StatusNotFound},
		{"brightness on fan", "/api/devices/3/brightness", `{"brightness":50}`, http.StatusConflict},
		{"out of range", "/api/devices/1/brightness", `{"brightness":150}`, http.StatusBadRequest},
		{"bad json", "/api/devices/1/toggle", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv.Handler(), http.MethodPut, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("status code: got %d, want %d", rec.Code, tt.want)
			}
		})
	}

	fan, _ := store.Device(context.Background(), "3")
	if s, _ := fan.Speed(); s != 3 {
		t.Errorf("fan speed changed to %d", s)
	}
}

func TestServer_AddDeviceChecksRoom(t *testing.T) {
	srv, _ := newServer(hubsim.Options{})

	rec := do(t, srv.Handler(), http.MethodPost, "/api/devices", `{"name":"Lamp","type":"light","room_id":"42"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown room: got %d, want 404", rec.Code)
	}

	rec = do(t, srv.Handler(), http.MethodPost, "/api/devices", `{"name":"Lamp","type":"light","room_id":"1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status code: got %d, want 201", rec.Code)
	}
	var d hub.Device
	json.NewDecoder(rec.Body).Decode(&d)
	if d.ID != "4" || d.IsOn || d.Brightness == nil || *d.Brightness != 100 {
		t.Errorf("device: got %+v", d)
	}
}

func TestServer_AddDeviceMixedCaseType(t *testing.T) {
	srv, store := newServer(hubsim.Options{})

	rec := do(t, srv.Handler(), http.MethodPost, "/api/devices", `{"name":"Lamp","type":"Light","room_id":"1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status code: got %d, want 201", rec.Code)
	}

	var d hub.Device
	if err := json.NewDecoder(rec.Body).Decode(&d); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if d.Type != "light" || d.Brightness == nil || *d.Brightness != 100 {
		t.Errorf("device: got %+v, want a light with brightness 100", d)
	}

	stored, err := store.Device(context.Background(), string(d.ID))
	if err != nil {
		t.Fatalf("Device error: %v", err)
	}
	if _, ok := stored.Brightness(); !ok {
		t.Errorf("stored device lost its brightness: %#v", stored)
	}
}

func TestServer_AddRoomRejectsBlankName(t *testing.T) {
	srv, store := newServer(hubsim.Options{})

	rec := do(t, srv.Handler(), http.MethodPost, "/api/rooms", `{"name":"   "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status code: got %d, want 400", rec.Code)
	}

	rooms, _ := store.Rooms(context.Background())
	if len(rooms) != 3 {
		t.Errorf("rooms count: got %d, want 3", len(rooms))
	}
}

func TestServer_RoomDevices(t *testing.T) {
	srv, _ := newServer(hubsim.Options{})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/rooms/2/devices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status code: got %d", rec.Code)
	}
	var devices []hub.Device
	json.NewDecoder(rec.Body).Decode(&devices)
	if len(devices) != 1 || devices[0].Name != "Bedroom AC" {
		t.Errorf("devices: got %+v", devices)
	}

	if rec := do(t, srv.Handler(), http.MethodGet, "/api/rooms/77/devices", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown room: got %d, want 404", rec.Code)
	}
}

func TestServer_RateLimit(t *testing.T) {
	srv, _ := newServer(hubsim.Options{RateLimit: 2})

	for i := 0; i < 2; i++ {
		if rec := do(t, srv.Handler(), http.MethodGet, "/api/status", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: got %d", i, rec.Code)
		}
	}
	if rec := do(t, srv.Handler(), http.MethodGet, "/api/status", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("third request: got %d, want 429", rec.Code)
	}
	if rec := do(t, srv.Handler(), http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("health is not limited: got %d", rec.Code)
	}
}

// TestServer_EndToEnd drives the client against the simulator over HTTP and
// checks that live mode reaches it and that a slow hub triggers fallback.
func TestServer_EndToEnd(t *testing.T) {
	srv, hubStore := newServer(hubsim.Options{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hubClient := hub.NewClient(infra.NewFetcher(nil), time.Second)
	catalog := mock.NewStore()
	client := application.NewClient(hubClient, catalog, endpoint.NewMemoryStore(ts.URL), &application.NoopNotifier{}, logger)
	ctx := context.Background()

	d, err := client.SetTemperature(ctx, "2", 18.5)
	if err != nil {
		t.Fatalf("SetTemperature error: %v", err)
	}
	if temp, _ := d.Temperature(); temp != 18.5 {
		t.Errorf("temperature: got %v", temp)
	}

	onHub, _ := hubStore.Device(ctx, "2")
	if temp, _ := onHub.Temperature(); temp != 18.5 {
		t.Errorf("hub temperature: got %v, want 18.5", temp)
	}
	local, _ := catalog.Device(ctx, "2")
	if temp, _ := local.Temperature(); temp != 22 {
		t.Errorf("catalog touched in live mode: %v", temp)
	}

	// The hub answers 409; the client falls back to its own catalog,
	// which rejects the mismatch the same way.
	_, err = client.SetSpeed(ctx, "1", 2)
	if !errors.Is(err, domain.ErrTypeMismatch) {
		t.Errorf("got %v, want ErrTypeMismatch", err)
	}
}

func TestServer_SlowHubFallsBack(t *testing.T) {
	srv, _ := newServer(hubsim.Options{Latency: 500 * time.Millisecond})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hubClient := hub.NewClient(infra.NewFetcher(nil), 50*time.Millisecond)
	catalog := mock.NewStore()
	client := application.NewClient(hubClient, catalog, endpoint.NewMemoryStore(ts.URL), &application.NoopNotifier{}, logger)

	d, err := client.ToggleDevice(context.Background(), "3", true)
	if err != nil {
		t.Fatalf("ToggleDevice error: %v", err)
	}
	if !d.IsOn {
		t.Error("device should be on")
	}
	local, _ := catalog.Device(context.Background(), "3")
	if !local.IsOn {
		t.Error("fallback did not update the catalog")
	}
}

func TestServer_StartStop(t *testing.T) {
	srv, _ := newServer(hubsim.Options{})
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}
	if err := srv.Stop(); err != nil {
		t.Fatalf("second Stop error: %v", err)
	}
}
