package device

import (
	"context"
	"time"
)

// Device represents a controllable media device managed by the hub
type Device interface {
	// Process handles a JSON-encoded action and executes the corresponding operation
	Process(ctx context.Context, actionJSON []byte) (*ActionResponse, error)

	// Poll refreshes and returns the current state snapshot of the device
	Poll(ctx context.Context) State

	// GetDeviceInfo returns basic information about the device
	GetDeviceInfo() DeviceInfo
}

// DeviceInfo contains basic information about a device
type DeviceInfo struct {
	Type         string   `json:"type"`
	Model        string   `json:"model"`
	Address      string   `json:"address"`
	Capabilities []string `json:"capabilities"`
}

// ActionType represents the type of action to perform
type ActionType string

const (
	ActionTypeRemote ActionType = "remote"
	ActionTypeQuery  ActionType = "query"
)

// ActionRequest represents a JSON action request
type ActionRequest struct {
	Type       ActionType             `json:"type"`
	Action     string                 `json:"action"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// ActionResponse represents the response from processing an action
type ActionResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// State is the entity-facing snapshot of a media player, refreshed
// wholesale on each poll cycle. VolumeLevel is VolumeOppo/100.
type State struct {
	Available   bool      `json:"available"`
	Power       string    `json:"power"`
	VolumeOppo  int       `json:"volume_oppo"`
	VolumeLevel float64   `json:"volume_level"`
	Muted       bool      `json:"muted"`
	Playback    string    `json:"playback"`
	Source      string    `json:"source"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RemoteAction represents available remote control actions
type RemoteAction string

const (
	RemoteActionPowerOn      RemoteAction = "power_on"
	RemoteActionPowerOff     RemoteAction = "power_off"
	RemoteActionPowerToggle  RemoteAction = "power_toggle"
	RemoteActionVolumeUp     RemoteAction = "volume_up"
	RemoteActionVolumeDown   RemoteAction = "volume_down"
	RemoteActionMute         RemoteAction = "mute"
	RemoteActionPlay         RemoteAction = "play"
	RemoteActionPause        RemoteAction = "pause"
	RemoteActionStop         RemoteAction = "stop"
	RemoteActionNext         RemoteAction = "next"
	RemoteActionPrevious     RemoteAction = "previous"
	RemoteActionUp           RemoteAction = "up"
	RemoteActionDown         RemoteAction = "down"
	RemoteActionLeft         RemoteAction = "left"
	RemoteActionRight        RemoteAction = "right"
	RemoteActionSelect       RemoteAction = "select"
	RemoteActionHome         RemoteAction = "home"
	RemoteActionSourceDisc   RemoteAction = "source_disc"
	RemoteActionSourceHDMIIn RemoteAction = "source_hdmi_in"
	RemoteActionSourceARC    RemoteAction = "source_arc"
)

// QueryAction represents available status query actions
type QueryAction string

const (
	QueryActionPower    QueryAction = "power"
	QueryActionVolume   QueryAction = "volume"
	QueryActionPlayback QueryAction = "playback"
	QueryActionStatus   QueryAction = "status"
)
