package hub

import (
	"bytes"
	"encoding/json"
	"fmt"

	"homectl/internal/domain"
)

// ID is a hub identifier. Hubs send ids either as JSON strings or as
// numbers; both decode to the same string.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Device is the snake_case device shape spoken by the hub.
type Device struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	RoomID      ID       `json:"room_id"`
	IsOn        bool     `json:"is_on"`
	Brightness  *int     `json:"brightness,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
	Speed       *int     `json:"speed,omitempty"`
}

type Room struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

type ToggleRequest struct {
	IsOn bool `json:"is_on"`
}

type BrightnessRequest struct {
	Brightness int `json:"brightness"`
}

type TemperatureRequest struct {
	Temperature float64 `json:"temperature"`
}

type SpeedRequest struct {
	Speed int `json:"speed"`
}

type AddDeviceRequest struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	RoomID string `json:"room_id"`
}

type AddRoomRequest struct {
	Name string `json:"name"`
}

// ToDomain maps a wire device to the entity shape, attaching only the control
// that matches its type. A missing control value falls back to the type's
// default; unknown types become "other".
func ToDomain(w Device) domain.Device {
	d := domain.Device{
		ID:     string(w.ID),
		Name:   w.Name,
		RoomID: string(w.RoomID),
		IsOn:   w.IsOn,
	}

	switch domain.DeviceType(w.Type) {
	case domain.DeviceTypeLight:
		c := domain.LightControl{Brightness: domain.DefaultBrightness}
		if w.Brightness != nil {
			c.Brightness = *w.Brightness
		}
		d.Control = c
	case domain.DeviceTypeAC:
		c := domain.ACControl{Temperature: domain.DefaultTemperature}
		if w.Temperature != nil {
			c.Temperature = *w.Temperature
		}
		d.Control = c
	case domain.DeviceTypeFan:
		c := domain.FanControl{Speed: domain.DefaultSpeed}
		if w.Speed != nil {
			c.Speed = *w.Speed
		}
		d.Control = c
	default:
		d.Control = domain.OtherControl{}
	}

	return d
}

// FromDomain is the inverse of ToDomain.
func FromDomain(d domain.Device) Device {
	w := Device{
		ID:     ID(d.ID),
		Name:   d.Name,
		Type:   string(d.Type()),
		RoomID: ID(d.RoomID),
		IsOn:   d.IsOn,
	}
	switch c := d.Control.(type) {
	case domain.LightControl:
		w.Brightness = &c.Brightness
	case domain.ACControl:
		w.Temperature = &c.Temperature
	case domain.FanControl:
		w.Speed = &c.Speed
	}
	return w
}

func RoomToDomain(r Room) domain.Room {
	return domain.Room{ID: string(r.ID), Name: r.Name}
}

func RoomFromDomain(r domain.Room) Room {
	return Room{ID: ID(r.ID), Name: r.Name}
}
