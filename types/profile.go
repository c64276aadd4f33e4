package types

import "alertbadge-go/x/strx"

// FieldWidth is the usable width of every persisted text field. The record
// stores 32 bytes per field, one of which is the terminating NUL.
const FieldWidth = 31

// DeviceProfile is the persisted identity of the badge.
// When Configured is false the other fields are not trusted.
type DeviceProfile struct {
	SSID       string `json:"ssid"`
	Passphrase string `json:"-"`
	DeviceName string `json:"device_name"`
	Configured bool   `json:"configured"`
}

// Trusted returns p if it is configured and the zero profile otherwise.
func (p DeviceProfile) Trusted() DeviceProfile {
	if !p.Configured {
		return DeviceProfile{}
	}
	return p
}

// Clamp truncates every text field to FieldWidth bytes.
func (p DeviceProfile) Clamp() DeviceProfile {
	p.SSID = strx.Truncate(p.SSID, FieldWidth)
	p.Passphrase = strx.Truncate(p.Passphrase, FieldWidth)
	p.DeviceName = strx.Truncate(p.DeviceName, FieldWidth)
	return p
}

// ProfileSummary is the secret-free view published on the bus.
type ProfileSummary struct {
	Configured bool   `json:"configured"`
	SSID       string `json:"ssid,omitempty"`
	DeviceName string `json:"device_name,omitempty"`
}

// Summary drops the passphrase and anything untrusted.
func (p DeviceProfile) Summary() ProfileSummary {
	t := p.Trusted()
	return ProfileSummary{Configured: t.Configured, SSID: t.SSID, DeviceName: t.DeviceName}
}
