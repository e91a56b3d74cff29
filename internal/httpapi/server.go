// Package httpapi exposes the device client to the presentation layer as a
// camelCase JSON API.
package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"homectl/internal/application"
	"homectl/internal/domain"
)

type Server struct {
	client    *application.Client
	discovery *application.Discovery
	logger    *slog.Logger
}

func NewServer(client *application.Client, discovery *application.Discovery, logger *slog.Logger) *Server {
	return &Server{client: client, discovery: discovery, logger: logger}
}

// Router builds the full handler tree. An empty origins list allows any origin.
func (s *Server) Router(corsOrigins []string) http.Handler {
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", s.RegisterRoutes)
	return r
}

func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/devices", s.handleListDevices)
	r.Post("/devices", s.handleAddDevice)
	r.Put("/devices/{id}/toggle", s.handleToggle)
	r.Put("/devices/{id}/brightness", s.handleBrightness)
	r.Put("/devices/{id}/temperature", s.handleTemperature)
	r.Put("/devices/{id}/speed", s.handleSpeed)

	r.Get("/rooms", s.handleListRooms)
	r.Post("/rooms", s.handleAddRoom)
	r.Get("/rooms/{id}/devices", s.handleRoomDevices)

	r.Get("/endpoint", s.handleGetEndpoint)
	r.Put("/endpoint", s.handleSetEndpoint)
	r.Post("/discover", s.handleDiscover)
	r.Post("/pair", s.handlePair)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	var (
		devices []domain.Device
		err     error
	)
	if roomID := r.URL.Query().Get("roomId"); roomID != "" {
		devices, err = s.client.DevicesByRoom(r.Context(), roomID)
	} else {
		devices, err = s.client.Devices(r.Context())
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleRoomDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.client.DevicesByRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleAddDevice(w http.ResponseWriter, r *http.Request) {
	var req domain.NewDevice
	if !decode(w, r, &req) {
		return
	}
	device, err := s.client.AddDevice(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, device)
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IsOn *bool `json:"isOn"`
	}
	if !decode(w, r, &req) {
		return
	}
	if req.IsOn == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "isOn is required", Code: http.StatusBadRequest})
		return
	}
	device, err := s.client.ToggleDevice(r.Context(), chi.URLParam(r, "id"), *req.IsOn)
	s.writeDevice(w, device, err)
}

func (s *Server) handleBrightness(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Brightness int `json:"brightness"`
	}
	if !decode(w, r, &req) {
		return
	}
	device, err := s.client.SetBrightness(r.Context(), chi.URLParam(r, "id"), req.Brightness)
	s.writeDevice(w, device, err)
}

func (s *Server) handleTemperature(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Temperature float64 `json:"temperature"`
	}
	if !decode(w, r, &req) {
		return
	}
	device, err := s.client.SetTemperature(r.Context(), chi.URLParam(r, "id"), req.Temperature)
	s.writeDevice(w, device, err)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Speed int `json:"speed"`
	}
	if !decode(w, r, &req) {
		return
	}
	device, err := s.client.SetSpeed(r.Context(), chi.URLParam(r, "id"), req.Speed)
	s.writeDevice(w, device, err)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := s.client.Rooms(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleAddRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decode(w, r, &req) {
		return
	}
	room, err := s.client.AddRoom(r.Context(), strings.TrimSpace(req.Name))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (s *Server) handleGetEndpoint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"endpoint": s.client.Endpoint(r.Context())})
}

func (s *Server) handleSetEndpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Endpoint string `json:"endpoint"`
	}
	if !decode(w, r, &req) {
		return
	}
	endpoint, err := s.client.ConfigureEndpoint(r.Context(), req.Endpoint)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"endpoint": endpoint})
}

func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	result, err := s.discovery.Discover(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handlePair(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		DeviceID string `json:"deviceId"`
	}
	if !decode(w, r, &req) {
		return
	}
	user, err := application.PairDevice(req.UserID, req.DeviceID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) writeDevice(w http.ResponseWriter, device domain.Device, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// writeError maps the error taxonomy to statuses; prior state is untouched
// for every rejected call.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrTypeMismatch):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	default:
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error(), Code: status})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(io.LimitReader(r.Body, 64*1024)).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid json", Code: http.StatusBadRequest})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
