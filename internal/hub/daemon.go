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
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"otto/internal/device"
	"otto/internal/logger"
)

// shutdownTimeout bounds the HTTP server drain on shutdown.
const shutdownTimeout = 5 * time.Second

// Daemon is the bridge daemon: it polls every configured player and
// keeps the MQTT bus and the HTTP API in sync with what it sees.
type Daemon struct {
	config  *Config
	manager *DeviceManager
	journal *Journal
	bridge  *Bridge
	poller  *Poller
	api     *APIServer
	logger  zerolog.Logger

	states     map[string]device.State
	stateMutex sync.RWMutex

	running bool
	mutex   sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewDaemon creates a daemon from a configuration file.
func NewDaemon(configPath string) (*Daemon, error) {
	config, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	daemon := &Daemon{
		config: config,
		logger: logger.New(),
		states: make(map[string]device.State),
		ctx:    ctx,
		cancel: cancel,
	}

	daemon.manager = NewDeviceManager(config)
	daemon.api = NewAPIServer(daemon, config.Hub.HTTPPort)

	return daemon, nil
}

// LastState returns the latest published snapshot for a device.
func (d *Daemon) LastState(deviceID string) (device.State, bool) {
	d.stateMutex.RLock()
	defer d.stateMutex.RUnlock()
	state, ok := d.states[deviceID]
	return state, ok
}

// Start runs the daemon until a shutdown signal arrives.
func (d *Daemon) Start() error {
	d.mutex.Lock()
	if d.running {
		d.mutex.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.mutex.Unlock()

	d.logger.Info().
		Str("hub_id", d.config.Hub.ID).
		Str("broker", d.config.MQTT.Broker).
		Msg("Starting otto bridge daemon")

	if err := d.manager.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize devices: %w", err)
	}

	if d.config.Hub.JournalPath != "" {
		journal, err := OpenJournal(d.config.Hub.JournalPath)
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		d.journal = journal
	}

	// The will topic keeps the whole hub's availability honest if the
	// process dies without a clean shutdown
	willTopic := fmt.Sprintf("%s/%s/availability", d.config.MQTT.TopicPrefix, d.config.Hub.ID)
	conn, err := ConnectMQTT(d.config.MQTT, willTopic)
	if err != nil {
		return fmt.Errorf("failed to connect to mqtt broker: %w", err)
	}
	if err := conn.Publish(willTopic, []byte(payloadOnline), 1, true); err != nil {
		d.logger.Warn().Err(err).Msg("Failed to publish hub availability")
	}

	d.bridge = NewBridge(conn, d.manager, d.config)
	if err := d.bridge.Start(d.ctx); err != nil {
		return fmt.Errorf("failed to start bridge: %w", err)
	}

	d.poller = NewPoller(d.manager, d.config.Hub.PollInterval.Std(), d.publishState)
	d.poller.Start(d.ctx)

	if err := d.api.Start(); err != nil {
		return fmt.Errorf("failed to start HTTP API: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	d.logger.Info().
		Int("device_count", len(d.manager.DeviceIDs())).
		Dur("poll_interval", d.config.Hub.PollInterval.Std()).
		Msg("Bridge daemon started")

	select {
	case sig := <-sigChan:
		d.logger.Info().
			Str("signal", sig.String()).
			Msg("Received shutdown signal")
		return d.Stop()
	case <-d.ctx.Done():
		return d.Stop()
	}
}

// Stop shuts everything down in reverse start order.
func (d *Daemon) Stop() error {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return nil
	}
	d.running = false
	d.mutex.Unlock()

	d.logger.Info().Msg("Stopping bridge daemon")

	d.cancel()

	if d.poller != nil {
		d.poller.Wait()
	}

	if d.bridge != nil {
		d.bridge.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := d.api.Stop(shutdownCtx); err != nil {
		d.logger.Error().Err(err).Msg("Error stopping HTTP API")
	}

	d.manager.Shutdown()

	if d.journal != nil {
		if err := d.journal.Close(); err != nil {
			d.logger.Error().Err(err).Msg("Error closing journal")
		}
	}

	d.logger.Info().Msg("Bridge daemon stopped")
	return nil
}

// publishState is the poller sink: remember the snapshot, journal the
// transition, hand it to the bridge.
func (d *Daemon) publishState(deviceID string, state device.State) {
	d.stateMutex.Lock()
	d.states[deviceID] = state
	d.stateMutex.Unlock()

	if d.journal != nil {
		if _, err := d.journal.Record(deviceID, state); err != nil {
			d.logger.Error().Err(err).Str("device_id", deviceID).Msg("Failed to journal state")
		}
	}

	if d.bridge != nil {
		d.bridge.PublishState(deviceID, state)
	}
}
