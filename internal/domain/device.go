package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

type DeviceType string

const (
	DeviceTypeLight DeviceType = "light"
	DeviceTypeFan   DeviceType = "fan"
	DeviceTypeAC    DeviceType = "ac"
	DeviceTypeOther DeviceType = "other"
)

// ParseDeviceType accepts only the closed set of device types.
func ParseDeviceType(s string) (DeviceType, error) {
	switch t := DeviceType(strings.ToLower(strings.TrimSpace(s))); t {
	case DeviceTypeLight, DeviceTypeFan, DeviceTypeAC, DeviceTypeOther:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown device type %q", ErrValidation, s)
	}
}

// Control is the type-specific part of a device. Exactly one variant exists
// per device type and it carries only the field relevant to that type.
type Control interface {
	Type() DeviceType
	isControl()
}

type LightControl struct{ Brightness int }

type FanControl struct{ Speed int }

type ACControl struct{ Temperature float64 }

type OtherControl struct{}

func (LightControl) Type() DeviceType { return DeviceTypeLight }
func (FanControl) Type() DeviceType   { return DeviceTypeFan }
func (ACControl) Type() DeviceType    { return DeviceTypeAC }
func (OtherControl) Type() DeviceType { return DeviceTypeOther }

func (LightControl) isControl() {}
func (FanControl) isControl()   {}
func (ACControl) isControl()    {}
func (OtherControl) isControl() {}

// DefaultControl returns the control a freshly added device of type t starts with.
func DefaultControl(t DeviceType) Control {
	switch t {
	case DeviceTypeLight:
		return LightControl{Brightness: DefaultBrightness}
	case DeviceTypeAC:
		return ACControl{Temperature: DefaultTemperature}
	case DeviceTypeFan:
		return FanControl{Speed: DefaultSpeed}
	default:
		return OtherControl{}
	}
}

type Device struct {
	ID      string
	Name    string
	RoomID  string
	IsOn    bool
	Control Control
}

func (d Device) Type() DeviceType {
	if d.Control == nil {
		return DeviceTypeOther
	}
	return d.Control.Type()
}

// Brightness reports the brightness of a light.
func (d Device) Brightness() (int, bool) {
	c, ok := d.Control.(LightControl)
	return c.Brightness, ok
}

// Temperature reports the set point of an AC.
func (d Device) Temperature() (float64, bool) {
	c, ok := d.Control.(ACControl)
	return c.Temperature, ok
}

// Speed reports the speed of a fan.
func (d Device) Speed() (int, bool) {
	c, ok := d.Control.(FanControl)
	return c.Speed, ok
}

// deviceJSON is the camelCase entity shape handed to the presentation layer.
type deviceJSON struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Type        DeviceType `json:"type"`
	RoomID      string     `json:"roomId"`
	IsOn        bool       `json:"isOn"`
	Brightness  *int       `json:"brightness,omitempty"`
	Temperature *float64   `json:"temperature,omitempty"`
	Speed       *int       `json:"speed,omitempty"`
}

func (d Device) MarshalJSON() ([]byte, error) {
	out := deviceJSON{
		ID:     d.ID,
		Name:   d.Name,
		Type:   d.Type(),
		RoomID: d.RoomID,
		IsOn:   d.IsOn,
	}
	switch c := d.Control.(type) {
	case LightControl:
		out.Brightness = &c.Brightness
	case ACControl:
		out.Temperature = &c.Temperature
	case FanControl:
		out.Speed = &c.Speed
	}
	return json.Marshal(out)
}

func (d *Device) UnmarshalJSON(data []byte) error {
	var in deviceJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	d.ID = in.ID
	d.Name = in.Name
	d.RoomID = in.RoomID
	d.IsOn = in.IsOn
	switch in.Type {
	case DeviceTypeLight:
		c := LightControl{}
		if in.Brightness != nil {
			c.Brightness = *in.Brightness
		}
		d.Control = c
	case DeviceTypeAC:
		c := ACControl{}
		if in.Temperature != nil {
			c.Temperature = *in.Temperature
		}
		d.Control = c
	case DeviceTypeFan:
		c := FanControl{}
		if in.Speed != nil {
			c.Speed = *in.Speed
		}
		d.Control = c
	default:
		d.Control = OtherControl{}
	}
	return nil
}

// NewDevice is the caller-supplied part of an added device.
type NewDevice struct {
	Name   string     `json:"name"`
	Type   DeviceType `json:"type"`
	RoomID string     `json:"roomId"`
}

// Validate checks the request and returns it normalized: name and room
// trimmed, type lowercased to one of the closed set.
func (n NewDevice) Validate() (NewDevice, error) {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		return NewDevice{}, fmt.Errorf("%w: device name is required", ErrValidation)
	}
	t, err := ParseDeviceType(string(n.Type))
	if err != nil {
		return NewDevice{}, err
	}
	roomID := strings.TrimSpace(n.RoomID)
	if roomID == "" {
		return NewDevice{}, fmt.Errorf("%w: room is required", ErrValidation)
	}
	return NewDevice{Name: name, Type: t, RoomID: roomID}, nil
}

// Build turns the request into a device with the given id, powered off and
// carrying the default control for its type. The type is parsed so that
// "Light" and "light" build the same device.
func (n NewDevice) Build(id string) Device {
	t, err := ParseDeviceType(string(n.Type))
	if err != nil {
		t = DeviceTypeOther
	}
	return Device{
		ID:      id,
		Name:    n.Name,
		RoomID:  n.RoomID,
		IsOn:    false,
		Control: DefaultControl(t),
	}
}

type Room struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DeviceID     string `json:"deviceId"`
	IsAuthorized bool   `json:"isAuthorized"`
	SessionToken string `json:"sessionToken,omitempty"`
}
