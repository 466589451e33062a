// Copyright 2026 The Otto Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"otto/internal/device"
	"otto/internal/logger"
)

const (
	payloadOnline  = "online"
	payloadOffline = "offline"
)

// Bridge is the host-platform adapter: it announces every player to
// Home Assistant via MQTT discovery, republishes each poll snapshot to
// the state topic and routes command topics back through the device
// manager. Publishing a logical action name to <prefix>/<id>/command is
// the send_command(entity_id, command) service call.
type Bridge struct {
	conn    MQTTConn
	manager *DeviceManager
	config  *Config
	logger  zerolog.Logger
}

// commandEnvelope is the optional JSON form of a command payload. A bare
// action name works too; the envelope adds a nonce for idempotent retries.
type commandEnvelope struct {
	Command    string                 `json:"command"`
	Nonce      string                 `json:"nonce,omitempty"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// commandResult is published to <prefix>/<id>/result after each command.
type commandResult struct {
	Command string      `json:"command"`
	Nonce   string      `json:"nonce,omitempty"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// discoveryPayload announces one player to the host's entity registry.
type discoveryPayload struct {
	Name              string          `json:"name"`
	UniqueID          string          `json:"unique_id"`
	StateTopic        string          `json:"state_topic"`
	CommandTopic      string          `json:"command_topic"`
	AvailabilityTopic string          `json:"availability_topic"`
	Device            discoveryDevice `json:"device"`
}

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// NewBridge creates a bridge over an established MQTT connection.
func NewBridge(conn MQTTConn, manager *DeviceManager, config *Config) *Bridge {
	return &Bridge{
		conn:    conn,
		manager: manager,
		config:  config,
		logger:  logger.New().With().Str("component", "bridge").Logger(),
	}
}

// Start announces every device and subscribes to its command topics.
func (b *Bridge) Start(ctx context.Context) error {
	for _, deviceConfig := range b.config.Devices {
		if err := b.announce(deviceConfig); err != nil {
			return fmt.Errorf("failed to announce device %s: %w", deviceConfig.ID, err)
		}
		if err := b.subscribe(ctx, deviceConfig.ID); err != nil {
			return fmt.Errorf("failed to subscribe for device %s: %w", deviceConfig.ID, err)
		}
	}

	b.logger.Info().
		Int("device_count", len(b.config.Devices)).
		Str("topic_prefix", b.config.MQTT.TopicPrefix).
		Msg("Bridge started")

	return nil
}

// Stop marks every device offline and disconnects from the broker.
func (b *Bridge) Stop() {
	for _, deviceConfig := range b.config.Devices {
		if err := b.conn.Publish(b.availabilityTopic(deviceConfig.ID), []byte(payloadOffline), 1, true); err != nil {
			b.logger.Error().Err(err).Str("device_id", deviceConfig.ID).Msg("Failed to publish offline state")
		}
	}
	b.conn.Disconnect(250)
}

// PublishState is the poller's PublishFunc: it rebroadcasts the snapshot
// and flips the availability topic to match.
func (b *Bridge) PublishState(deviceID string, state device.State) {
	payload, err := json.Marshal(state)
	if err != nil {
		b.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to marshal state")
		return
	}

	if err := b.conn.Publish(b.stateTopic(deviceID), payload, 1, true); err != nil {
		b.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to publish state")
		return
	}

	availability := payloadOffline
	if state.Available {
		availability = payloadOnline
	}
	if err := b.conn.Publish(b.availabilityTopic(deviceID), []byte(availability), 1, true); err != nil {
		b.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to publish availability")
	}
}

// announce publishes the retained discovery config for one device.
func (b *Bridge) announce(deviceConfig DeviceConfig) error {
	info, err := b.manager.GetDevice(deviceConfig.ID)
	if err != nil {
		return err
	}
	deviceInfo := info.GetDeviceInfo()

	payload := discoveryPayload{
		Name:              deviceConfig.Name,
		UniqueID:          fmt.Sprintf("otto_%s", deviceConfig.ID),
		StateTopic:        b.stateTopic(deviceConfig.ID),
		CommandTopic:      b.commandTopic(deviceConfig.ID),
		AvailabilityTopic: b.availabilityTopic(deviceConfig.ID),
		Device: discoveryDevice{
			Identifiers:  []string{fmt.Sprintf("otto_%s", deviceConfig.ID)},
			Name:         deviceConfig.Name,
			Manufacturer: "Oppo",
			Model:        deviceInfo.Model,
		},
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal discovery payload: %w", err)
	}

	topic := fmt.Sprintf("%s/media_player/%s/config", b.config.MQTT.DiscoveryPrefix, payload.UniqueID)
	return b.conn.Publish(topic, data, 1, true)
}

// subscribe wires the command, volume and source topics of one device.
func (b *Bridge) subscribe(ctx context.Context, deviceID string) error {
	if err := b.conn.Subscribe(b.commandTopic(deviceID), 1, func(_ string, payload []byte) {
		b.handleCommand(ctx, deviceID, payload)
	}); err != nil {
		return err
	}

	if err := b.conn.Subscribe(b.topic(deviceID, "volume/set"), 1, func(_ string, payload []byte) {
		b.handleVolumeSet(ctx, deviceID, payload)
	}); err != nil {
		return err
	}

	return b.conn.Subscribe(b.topic(deviceID, "source/set"), 1, func(_ string, payload []byte) {
		b.handleSourceSet(ctx, deviceID, payload)
	})
}

// handleCommand routes a command payload through the device manager.
func (b *Bridge) handleCommand(ctx context.Context, deviceID string, payload []byte) {
	envelope := commandEnvelope{Command: strings.TrimSpace(string(payload))}
	if len(payload) > 0 && payload[0] == '{' {
		if err := json.Unmarshal(payload, &envelope); err != nil {
			b.publishResult(deviceID, commandResult{
				Success: false,
				Error:   fmt.Sprintf("malformed command envelope: %v", err),
			})
			return
		}
	}

	if envelope.Command == "" {
		b.publishResult(deviceID, commandResult{Success: false, Error: "command is required"})
		return
	}

	actionJSON, err := json.Marshal(device.ActionRequest{
		Type:       device.ActionTypeRemote,
		Action:     envelope.Command,
		Parameters: envelope.Parameters,
	})
	if err != nil {
		b.publishResult(deviceID, commandResult{
			Command: envelope.Command,
			Nonce:   envelope.Nonce,
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	response, err := b.manager.ProcessDeviceActionWithNonce(ctx, deviceID, envelope.Nonce, actionJSON)
	if err != nil {
		b.publishResult(deviceID, commandResult{
			Command: envelope.Command,
			Nonce:   envelope.Nonce,
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	b.publishResult(deviceID, commandResult{
		Command: envelope.Command,
		Nonce:   envelope.Nonce,
		Success: response.Success,
		Data:    response.Data,
		Error:   response.Error,
	})
}

// handleVolumeSet accepts a bare 0-100 integer payload.
func (b *Bridge) handleVolumeSet(ctx context.Context, deviceID string, payload []byte) {
	volume, err := strconv.Atoi(strings.TrimSpace(string(payload)))
	if err != nil {
		b.publishResult(deviceID, commandResult{
			Command: "set_volume",
			Success: false,
			Error:   fmt.Sprintf("invalid volume payload %q", payload),
		})
		return
	}

	envelope, _ := json.Marshal(commandEnvelope{
		Command:    "set_volume",
		Parameters: map[string]interface{}{"volume": volume},
	})
	b.handleCommand(ctx, deviceID, envelope)
}

// handleSourceSet accepts an entity source name and maps it to the
// matching source action.
func (b *Bridge) handleSourceSet(ctx context.Context, deviceID string, payload []byte) {
	var action string
	switch strings.TrimSpace(string(payload)) {
	case "Disc":
		action = string(device.RemoteActionSourceDisc)
	case "HDMI In":
		action = string(device.RemoteActionSourceHDMIIn)
	case "ARC: HDMI Out":
		action = string(device.RemoteActionSourceARC)
	default:
		b.publishResult(deviceID, commandResult{
			Command: "select_source",
			Success: false,
			Error:   fmt.Sprintf("unknown source %q", payload),
		})
		return
	}

	b.handleCommand(ctx, deviceID, []byte(action))
}

func (b *Bridge) publishResult(deviceID string, result commandResult) {
	payload, err := json.Marshal(result)
	if err != nil {
		b.logger.Error().Err(err).Msg("Failed to marshal command result")
		return
	}
	if err := b.conn.Publish(b.topic(deviceID, "result"), payload, 1, false); err != nil {
		b.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to publish command result")
	}
}

func (b *Bridge) topic(deviceID, suffix string) string {
	return fmt.Sprintf("%s/%s/%s", b.config.MQTT.TopicPrefix, deviceID, suffix)
}

func (b *Bridge) stateTopic(deviceID string) string {
	return b.topic(deviceID, "state")
}

func (b *Bridge) commandTopic(deviceID string) string {
	return b.topic(deviceID, "command")
}

func (b *Bridge) availabilityTopic(deviceID string) string {
	return b.topic(deviceID, "availability")
}
