// Package hubsim serves the hub wire protocol from an in-memory catalog so the
// client's live mode and discovery can run without hardware.
package hubsim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"homectl/internal/domain"
	"homectl/internal/infra/hub"
	"homectl/internal/infra/metrics"
	"homectl/internal/infra/mock"
)

type Options struct {
	// RateLimit is requests per minute per client IP; zero disables it.
	RateLimit int
	// Latency delays every API answer.
	Latency time.Duration
}

type Server struct {
	addr    string
	store   *mock.Store
	logger  *slog.Logger
	latency time.Duration
	router  chi.Router

	mu      sync.Mutex
	server  *http.Server
	running bool
}

func NewServer(addr string, store *mock.Store, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		addr:    addr,
		store:   store,
		logger:  logger,
		latency: opts.Latency,
	}

	limiter := NewRateLimiter(opts.RateLimit, time.Minute)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.countRequests)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Use(s.delay)

		r.Get("/status", s.handleStatus)
		r.Get("/devices", s.handleListDevices)
		r.Post("/devices", s.handleAddDevice)
		r.Put("/devices/{id}/toggle", s.handleToggle)
		r.Put("/devices/{id}/brightness", s.handleBrightness)
		r.Put("/devices/{id}/temperature", s.handleTemperature)
		r.Put("/devices/{id}/speed", s.handleSpeed)
		r.Get("/rooms", s.handleListRooms)
		r.Post("/rooms", s.handleAddRoom)
		r.Get("/rooms/{id}/devices", s.handleRoomDevices)
	})

	s.router = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		s.logger.Info("hub simulator listening", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("hub simulator server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown failed, forcing close", "error", err)
		if err := s.server.Close(); err != nil {
			return fmt.Errorf("closing server: %w", err)
		}
	}

	s.running = false
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	devices, _ := s.store.Devices(r.Context())
	rooms, _ := s.store.Rooms(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"devices": len(devices),
		"rooms":   len(rooms),
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.Devices(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWire(devices))
}

func (s *Server) handleRoomDevices(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if _, err := s.store.Room(r.Context(), roomID); err != nil {
		s.writeError(w, err)
		return
	}

	devices, err := s.store.DevicesByRoom(r.Context(), roomID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toWire(devices))
}

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var req hub.AddDeviceRequest
	if !decode(w, r, &req) {
		return
	}

	nd, err := domain.NewDevice{Name: req.Name, Type: domain.DeviceType(req.Type), RoomID: req.RoomID}.Validate()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.store.Room(r.Context(), nd.RoomID); err != nil {
		s.writeError(w, err)
		return
	}

	device, err := s.store.AddDevice(r.Context(), nd)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("device added", "id", device.ID, "type", device.Type())
	writeJSON(w, http.StatusCreated, hub.FromDomain(device))
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req hub.ToggleRequest
	if !decode(w, r, &req) {
		return
	}
	s.update(w, r, func(d domain.Device) (domain.Device, error) {
		return domain.SetPower(d, req.IsOn)
	})
}

func (s *Server) handleBrightness(w http.ResponseWriter, r *http.Request) {
	var req hub.BrightnessRequest
	if !decode(w, r, &req) {
		return
	}
	if err := domain.ValidateBrightness(req.Brightness); err != nil {
		s.writeError(w, err)
		return
	}
	s.update(w, r, func(d domain.Device) (domain.Device, error) {
		return domain.SetBrightness(d, req.Brightness)
	})
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	var req hub.TemperatureRequest
	if !decode(w, r, &req) {
		return
	}
	if err := domain.ValidateTemperature(req.Temperature); err != nil {
		s.writeError(w, err)
		return
	}
	s.update(w, r, func(d domain.Device) (domain.Device, error) {
		return domain.SetTemperature(d, req.Temperature)
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req hub.SpeedRequest
	if !decode(w, r, &req) {
		return
	}
	if err := domain.ValidateSpeed(req.Speed); err != nil {
		s.writeError(w, err)
		return
	}
	s.update(w, r, func(d domain.Device) (domain.Device, error) {
		return domain.SetSpeed(d, req.Speed)
	})
}

func (s *Server) update(w http.ResponseWriter, r *http.Request, fn func(domain.Device) (domain.Device, error)) {
	device, err := s.store.UpdateDevice(r.Context(), chi.URLParam(r, "id"), fn)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, hub.FromDomain(device))
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.store.Rooms(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]hub.Room, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, hub.RoomFromDomain(room))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	var req hub.AddRoomRequest
	if !decode(w, r, &req) {
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		http.Error(w, "room name is required", http.StatusBadRequest)
		return
	}

	room, err := s.store.AddRoom(r.Context(), name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hub.RoomFromDomain(room))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrTypeMismatch):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		s.logger.Error("hub simulator request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			select {
			case <-time.After(s.latency):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.ObserveHubRequest(route, r.Method, strconv.Itoa(status))
	})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func toWire(devices []domain.Device) []hub.Device {
	out := make([]hub.Device, 0, len(devices))
	for _, d := range devices {
		out = append(out, hub.FromDomain(d))
	}
	return out
}
