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
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the bridge daemon configuration structure
type Config struct {
	MQTT    MQTTConfig     `yaml:"mqtt"`
	Hub     HubConfig      `yaml:"hub"`
	Devices []DeviceConfig `yaml:"devices"`
}

// MQTTConfig contains broker connection settings
type MQTTConfig struct {
	Broker          string `yaml:"broker"`           // e.g. tcp://homeassistant.local:1883 (required)
	ClientID        string `yaml:"client_id"`        // defaults to otto-<hub id>
	Username        string `yaml:"username"`
	Password        string `yaml:"password"`
	TopicPrefix     string `yaml:"topic_prefix"`     // defaults to otto
	DiscoveryPrefix string `yaml:"discovery_prefix"` // defaults to homeassistant
}

// HubConfig contains daemon-wide settings
type HubConfig struct {
	ID           string   `yaml:"id"`
	HTTPPort     int      `yaml:"http_port"`
	PollInterval Duration `yaml:"poll_interval"`
	JournalPath  string   `yaml:"journal_path"`
}

// Duration wraps time.Duration so YAML accepts values like "10s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DeviceConfig represents a single player configuration
type DeviceConfig struct {
	ID      string `yaml:"id"`
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// SaveConfig writes a configuration to a YAML file
func SaveConfig(config *Config, filepath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// NewDefaultConfig returns a configuration template with example settings
func NewDefaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:          "tcp://localhost:1883",
			TopicPrefix:     "otto",
			DiscoveryPrefix: "homeassistant",
		},
		Hub: HubConfig{
			ID:           "otto",
			HTTPPort:     8089,
			PollInterval: Duration(10 * time.Second),
			JournalPath:  "otto.db",
		},
		Devices: []DeviceConfig{
			{
				ID:      "living_room_oppo",
				Name:    "Living Room Oppo",
				Type:    "oppo",
				Address: "192.168.1.50",
				Port:    23,
			},
		},
	}
}

func (c *Config) applyDefaults() {
	if c.Hub.ID == "" {
		c.Hub.ID = "otto"
	}
	if c.Hub.HTTPPort == 0 {
		c.Hub.HTTPPort = 8089
	}
	if c.Hub.PollInterval == 0 {
		c.Hub.PollInterval = Duration(10 * time.Second)
	}
	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = "otto-" + c.Hub.ID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = "otto"
	}
	if c.MQTT.DiscoveryPrefix == "" {
		c.MQTT.DiscoveryPrefix = "homeassistant"
	}
	for i := range c.Devices {
		if c.Devices[i].Port == 0 {
			c.Devices[i].Port = 23
		}
		if c.Devices[i].Type == "" {
			c.Devices[i].Type = "oppo"
		}
		if c.Devices[i].Name == "" {
			c.Devices[i].Name = c.Devices[i].ID
		}
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	if c.Hub.PollInterval.Std() < time.Second {
		return fmt.Errorf("hub.poll_interval must be at least 1s")
	}

	if len(c.Devices) == 0 {
		return fmt.Errorf("at least one device must be configured")
	}

	deviceIDs := make(map[string]bool)
	for i, device := range c.Devices {
		if device.ID == "" {
			return fmt.Errorf("device[%d].id is required", i)
		}
		if deviceIDs[device.ID] {
			return fmt.Errorf("duplicate device ID: %s", device.ID)
		}
		deviceIDs[device.ID] = true

		if device.Address == "" {
			return fmt.Errorf("device[%d].address is required", i)
		}
		if device.Type != "oppo" {
			return fmt.Errorf("device[%d]: unsupported device type: %s", i, device.Type)
		}
	}

	return nil
}
