package hub_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homectl/internal/domain"
	"homectl/internal/infra"
	"homectl/internal/infra/hub"
)

func newClient() *hub.Client {
	return hub.NewClient(infra.NewFetcher(nil), time.Second)
}

func TestClient_Devices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/devices" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(`[
			{"id": 1, "name": "Living Room Light", "type": "light", "room_id": 1, "is_on": true, "brightness": 70},
			{"id": "2", "name": "Bedroom AC", "type": "ac", "room_id": "2", "is_on": false, "temperature": 22.5},
			{"id": 3, "name": "Kitchen Fan", "type": "fan", "room_id": 3, "is_on": false},
			{"id": 4, "name": "Speaker", "type": "speaker", "room_id": 1, "is_on": false}
		]`))
	}))
	defer server.Close()

	devices, err := newClient().Devices(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Devices error: %v", err)
	}

	if len(devices) != 4 {
		t.Fatalf("devices count: got %d, want 4", len(devices))
	}

	if devices[0].ID != "1" || devices[0].RoomID != "1" {
		t.Errorf("numeric ids: got id=%q room=%q", devices[0].ID, devices[0].RoomID)
	}
	if b, ok := devices[0].Brightness(); !ok || b != 70 {
		t.Errorf("brightness: got %d %v, want 70", b, ok)
	}
	if temp, ok := devices[1].Temperature(); !ok || temp != 22.5 {
		t.Errorf("temperature: got %v %v, want 22.5", temp, ok)
	}
	if s, ok := devices[2].Speed(); !ok || s != domain.DefaultSpeed {
		t.Errorf("missing speed should default: got %d %v", s, ok)
	}
	if devices[3].Type() != domain.DeviceTypeOther {
		t.Errorf("unknown type: got %s, want other", devices[3].Type())
	}
}

func TestClient_SetBrightness(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Write([]byte(`{"id": "1", "name": "Lamp", "type": "light", "room_id": "1", "is_on": true, "brightness": 40}`))
	}))
	defer server.Close()

	device, err := newClient().SetBrightness(context.Background(), server.URL+"/", "1", 40)
	if err != nil {
		t.Fatalf("SetBrightness error: %v", err)
	}

	if gotMethod != http.MethodPut || gotPath != "/api/devices/1/brightness" {
		t.Errorf("request: got %s %s", gotMethod, gotPath)
	}
	if gotBody["brightness"] != float64(40) {
		t.Errorf("body: got %v", gotBody)
	}
	if b, _ := device.Brightness(); b != 40 {
		t.Errorf("brightness: got %d, want 40", b)
	}
}

func TestClient_SetPowerBody(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/devices/3/toggle" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"id": 3, "name": "Fan", "type": "fan", "room_id": 3, "is_on": true, "speed": 3}`))
	}))
	defer server.Close()

	device, err := newClient().SetPower(context.Background(), server.URL, "3", true)
	if err != nil {
		t.Fatalf("SetPower error: %v", err)
	}
	if gotBody["is_on"] != true {
		t.Errorf("body: got %v, want is_on=true", gotBody)
	}
	if !device.IsOn {
		t.Error("device should be on")
	}
}

func TestClient_AddDevice(t *testing.T) {
	var got hub.AddDeviceRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/devices" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 9, "name": "Desk Lamp", "type": "light", "room_id": "1", "is_on": false, "brightness": 100}`))
	}))
	defer server.Close()

	device, err := newClient().AddDevice(context.Background(), server.URL,
		domain.NewDevice{Name: "Desk Lamp", Type: domain.DeviceTypeLight, RoomID: "1"})
	if err != nil {
		t.Fatalf("AddDevice error: %v", err)
	}
	if got.RoomID != "1" || got.Type != "light" {
		t.Errorf("request: got %+v", got)
	}
	if device.ID != "9" {
		t.Errorf("id: got %q, want 9", device.ID)
	}
}

func TestClient_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "device missing", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := newClient().SetSpeed(context.Background(), server.URL, "42", 2)

	var httpErr *domain.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("got %v, want *domain.HTTPError", err)
	}
	if httpErr.StatusCode != http.StatusNotFound || httpErr.Body != "device missing" {
		t.Errorf("http error: got %d %q", httpErr.StatusCode, httpErr.Body)
	}
}

func TestClient_RoomsAndStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/rooms":
			w.Write([]byte(`[{"id": 1, "name": "Living Room"}, {"id": "2", "name": "Bedroom"}]`))
		default:
			http.Error(w, "not found", http.StatusNotFound)
		}
	}))
	defer server.Close()

	c := newClient()

	rooms, err := c.Rooms(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Rooms error: %v", err)
	}
	if len(rooms) != 2 || rooms[0].ID != "1" || rooms[1].Name != "Bedroom" {
		t.Errorf("rooms: got %+v", rooms)
	}

	if err := c.Status(context.Background(), server.URL, time.Second); err != nil {
		t.Errorf("Status error: %v", err)
	}
}

func TestWire_RoundTrip(t *testing.T) {
	d := domain.Device{ID: "2", Name: "AC", RoomID: "2", IsOn: true, Control: domain.ACControl{Temperature: 24}}
	if got := hub.ToDomain(hub.FromDomain(d)); got != d {
		t.Errorf("got %#v, want %#v", got, d)
	}
}
