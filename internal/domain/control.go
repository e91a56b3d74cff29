package domain

import (
	"fmt"
	"math"
)

const (
	DefaultBrightness  = 100
	DefaultTemperature = 22.0
	DefaultSpeed       = 3

	MinBrightness  = 1
	MaxBrightness  = 100
	MinTemperature = 16.0
	MaxTemperature = 30.0
	MinSpeed       = 1
	MaxSpeed       = 5
)

// Setting names a control attribute that can be changed on a device.
type Setting string

const (
	SettingPower       Setting = "toggle"
	SettingBrightness  Setting = "brightness"
	SettingTemperature Setting = "temperature"
	SettingSpeed       Setting = "speed"
)

// DeviceType returns the device type a setting applies to. Power applies to
// every type and reports ok=false.
func (s Setting) DeviceType() (DeviceType, bool) {
	switch s {
	case SettingBrightness:
		return DeviceTypeLight, true
	case SettingTemperature:
		return DeviceTypeAC, true
	case SettingSpeed:
		return DeviceTypeFan, true
	default:
		return "", false
	}
}

func ValidateBrightness(v int) error {
	if v < MinBrightness || v > MaxBrightness {
		return fmt.Errorf("%w: brightness %d out of range %d-%d", ErrValidation, v, MinBrightness, MaxBrightness)
	}
	return nil
}

// ValidateTemperature accepts 16-30 in half-degree steps.
func ValidateTemperature(v float64) error {
	if math.IsNaN(v) || v < MinTemperature || v > MaxTemperature {
		return fmt.Errorf("%w: temperature %.1f out of range %.0f-%.0f", ErrValidation, v, MinTemperature, MaxTemperature)
	}
	if v*2 != math.Trunc(v*2) {
		return fmt.Errorf("%w: temperature %g is not a multiple of 0.5", ErrValidation, v)
	}
	return nil
}

func ValidateSpeed(v int) error {
	if v < MinSpeed || v > MaxSpeed {
		return fmt.Errorf("%w: speed %d out of range %d-%d", ErrValidation, v, MinSpeed, MaxSpeed)
	}
	return nil
}

// SetPower, SetBrightness, SetTemperature and SetSpeed return a copy of d with
// the change applied. Setting a control that does not belong to the device's
// type fails with ErrTypeMismatch and leaves d untouched.

func SetPower(d Device, on bool) (Device, error) {
	d.IsOn = on
	return d, nil
}

func SetBrightness(d Device, v int) (Device, error) {
	if _, ok := d.Control.(LightControl); !ok {
		return d, mismatch(d, SettingBrightness)
	}
	d.Control = LightControl{Brightness: v}
	return d, nil
}

func SetTemperature(d Device, v float64) (Device, error) {
	if _, ok := d.Control.(ACControl); !ok {
		return d, mismatch(d, SettingTemperature)
	}
	d.Control = ACControl{Temperature: v}
	return d, nil
}

func SetSpeed(d Device, v int) (Device, error) {
	if _, ok := d.Control.(FanControl); !ok {
		return d, mismatch(d, SettingSpeed)
	}
	d.Control = FanControl{Speed: v}
	return d, nil
}

func mismatch(d Device, s Setting) error {
	want, _ := s.DeviceType()
	return fmt.Errorf("%w: device %s is a %s, %s needs a %s", ErrTypeMismatch, d.ID, d.Type(), s, want)
}
