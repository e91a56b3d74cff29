package mock

import (
	"context"
	"strconv"
	"sync"

	"homectl/internal/domain"
)

// Store is the in-memory device and room catalog served when the hub is out
// of reach. Each Store owns its collections; construct one per process or test.
type Store struct {
	mu      sync.RWMutex
	devices []domain.Device
	rooms   []domain.Room

	nextDeviceID int
	nextRoomID   int
}

// SeedDevices is the starter catalog: one device of each controllable type.
func SeedDevices() []domain.Device {
	return []domain.Device{
		{ID: "1", Name: "Living Room Light", RoomID: "1", Control: domain.LightControl{Brightness: 70}},
		{ID: "2", Name: "Bedroom AC", RoomID: "2", Control: domain.ACControl{Temperature: 22}},
		{ID: "3", Name: "Kitchen Fan", RoomID: "3", Control: domain.FanControl{Speed: 3}},
	}
}

func SeedRooms() []domain.Room {
	return []domain.Room{
		{ID: "1", Name: "Living Room"},
		{ID: "2", Name: "Bedroom"},
		{ID: "3", Name: "Kitchen"},
	}
}

// NewStore returns a store holding the starter catalog.
func NewStore() *Store {
	return NewStoreWith(SeedDevices(), SeedRooms())
}

// NewStoreWith returns a store holding copies of the given collections. New
// ids continue after the highest numeric id present.
func NewStoreWith(devices []domain.Device, rooms []domain.Room) *Store {
	s := &Store{
		devices: append([]domain.Device(nil), devices...),
		rooms:   append([]domain.Room(nil), rooms...),
	}
	for _, d := range s.devices {
		s.nextDeviceID = max(s.nextDeviceID, numericID(d.ID))
	}
	for _, r := range s.rooms {
		s.nextRoomID = max(s.nextRoomID, numericID(r.ID))
	}
	return s
}

func (s *Store) Devices(_ context.Context) ([]domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Device, len(s.devices))
	copy(result, s.devices)
	return result, nil
}

func (s *Store) DevicesByRoom(_ context.Context, roomID string) ([]domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Device, 0)
	for _, d := range s.devices {
		if d.RoomID == roomID {
			result = append(result, d)
		}
	}
	return result, nil
}

func (s *Store) Device(_ context.Context, deviceID string) (domain.Device, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(deviceID)
	if i < 0 {
		return domain.Device{}, domain.DeviceNotFound(deviceID)
	}
	return s.devices[i], nil
}

// UpdateDevice finds the device by id and replaces it with fn's result. When
// fn fails the stored device is left as it was.
func (s *Store) UpdateDevice(_ context.Context, deviceID string, fn func(domain.Device) (domain.Device, error)) (domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(deviceID)
	if i < 0 {
		return domain.Device{}, domain.DeviceNotFound(deviceID)
	}

	updated, err := fn(s.devices[i])
	if err != nil {
		return domain.Device{}, err
	}
	updated.ID = s.devices[i].ID
	s.devices[i] = updated
	return updated, nil
}

// AddDevice appends a powered-off device with the default control for its type.
func (s *Store) AddDevice(_ context.Context, nd domain.NewDevice) (domain.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextDeviceID++
	d := nd.Build(strconv.Itoa(s.nextDeviceID))
	s.devices = append(s.devices, d)
	return d, nil
}

func (s *Store) Rooms(_ context.Context) ([]domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Room, len(s.rooms))
	copy(result, s.rooms)
	return result, nil
}

func (s *Store) Room(_ context.Context, roomID string) (domain.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rooms {
		if r.ID == roomID {
			return r, nil
		}
	}
	return domain.Room{}, domain.RoomNotFound(roomID)
}

func (s *Store) AddRoom(_ context.Context, name string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextRoomID++
	r := domain.Room{ID: strconv.Itoa(s.nextRoomID), Name: name}
	s.rooms = append(s.rooms, r)
	return r, nil
}

func (s *Store) indexOf(deviceID string) int {
	for i := range s.devices {
		if s.devices[i].ID == deviceID {
			return i
		}
	}
	return -1
}

func numericID(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
