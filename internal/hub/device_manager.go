package hub

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"otto/internal/device"
	"otto/internal/logger"
	"otto/internal/oppo"
)

// DeviceManager manages the lifecycle and access to configured players
type DeviceManager struct {
	devices map[string]device.Device
	config  *Config
	mutex   sync.RWMutex
	logger  zerolog.Logger
	dedup   *DedupCache
}

// NewDeviceManager creates a new device manager
func NewDeviceManager(config *Config) *DeviceManager {
	return &DeviceManager{
		devices: make(map[string]device.Device),
		config:  config,
		logger:  logger.New(),
		dedup:   NewDedupCache(256, time.Hour),
	}
}

// Initialize creates all devices from configuration
func (dm *DeviceManager) Initialize() error {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.logger.Info().
		Int("device_count", len(dm.config.Devices)).
		Msg("Initializing devices")

	for _, deviceConfig := range dm.config.Devices {
		dev, err := dm.createDevice(deviceConfig)
		if err != nil {
			return fmt.Errorf("failed to create device %s: %w", deviceConfig.ID, err)
		}

		dm.devices[deviceConfig.ID] = dev
		dm.logger.Info().
			Str("device_id", deviceConfig.ID).
			Str("device_type", deviceConfig.Type).
			Str("device_address", deviceConfig.Address).
			Msg("Device initialized")
	}

	return nil
}

// createDevice creates a device instance based on its configuration
func (dm *DeviceManager) createDevice(config DeviceConfig) (device.Device, error) {
	switch config.Type {
	case "oppo":
		return oppo.NewPlayer(config.Address, oppo.WithPort(config.Port)), nil
	default:
		return nil, fmt.Errorf("unsupported device type: %s", config.Type)
	}
}

// GetDevice returns a device by ID
func (dm *DeviceManager) GetDevice(id string) (device.Device, error) {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	dev, exists := dm.devices[id]
	if !exists {
		return nil, fmt.Errorf("device not found: %s", id)
	}

	return dev, nil
}

// DeviceIDs returns the IDs of all managed devices
func (dm *DeviceManager) DeviceIDs() []string {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	ids := make([]string, 0, len(dm.devices))
	for id := range dm.devices {
		ids = append(ids, id)
	}
	return ids
}

// GetAllDeviceInfo returns information for all devices
func (dm *DeviceManager) GetAllDeviceInfo() map[string]device.DeviceInfo {
	dm.mutex.RLock()
	defer dm.mutex.RUnlock()

	deviceInfos := make(map[string]device.DeviceInfo)
	for id, dev := range dm.devices {
		deviceInfos[id] = dev.GetDeviceInfo()
	}

	return deviceInfos
}

// ProcessDeviceAction processes an action for a specific device
func (dm *DeviceManager) ProcessDeviceAction(ctx context.Context, deviceID string, actionJSON []byte) (*device.ActionResponse, error) {
	dev, err := dm.GetDevice(deviceID)
	if err != nil {
		return &device.ActionResponse{
			Success: false,
			Error:   fmt.Sprintf("device not found: %s", deviceID),
		}, nil
	}

	dm.logger.Debug().
		Str("device_id", deviceID).
		RawJSON("action", actionJSON).
		Msg("Processing device action")

	response, err := dev.Process(ctx, actionJSON)
	if err != nil {
		dm.logger.Error().
			Str("device_id", deviceID).
			Err(err).
			Msg("Device action processing failed")
		return &device.ActionResponse{
			Success: false,
			Error:   fmt.Sprintf("action processing failed: %v", err),
		}, nil
	}

	dm.logger.Info().
		Str("device_id", deviceID).
		Bool("success", response.Success).
		Msg("Device action processed")

	return response, nil
}

// ProcessDeviceActionWithNonce deduplicates repeated nonces: a command
// envelope retried with the same nonce replays the cached response
// instead of hitting the wire again.
func (dm *DeviceManager) ProcessDeviceActionWithNonce(ctx context.Context, deviceID, nonce string, actionJSON []byte) (*device.ActionResponse, error) {
	if cached, found := dm.dedup.Check(deviceID, nonce); found {
		dm.logger.Info().
			Str("device_id", deviceID).
			Str("nonce", nonce).
			Msg("Replaying cached response for duplicate nonce")
		return cached, nil
	}

	response, err := dm.ProcessDeviceAction(ctx, deviceID, actionJSON)
	if err != nil {
		return response, err
	}

	dm.dedup.Store(deviceID, nonce, response)

	return response, nil
}

// PollDevice refreshes and returns the state snapshot of one device
func (dm *DeviceManager) PollDevice(ctx context.Context, deviceID string) (device.State, error) {
	dev, err := dm.GetDevice(deviceID)
	if err != nil {
		return device.State{}, err
	}
	return dev.Poll(ctx), nil
}

// Shutdown clears the registry and the dedup cache
func (dm *DeviceManager) Shutdown() {
	dm.mutex.Lock()
	defer dm.mutex.Unlock()

	dm.logger.Info().
		Int("device_count", len(dm.devices)).
		Msg("Shutting down device manager")

	dm.dedup.Purge()
	dm.devices = make(map[string]device.Device)
}
