package hub

import (
	"context"
	"sync"

	"otto/internal/device"
)

// stubDevice records processed actions and serves canned poll snapshots.
type stubDevice struct {
	mutex     sync.Mutex
	info      device.DeviceInfo
	state     device.State
	response  *device.ActionResponse
	processed [][]byte
}

func newStubDevice() *stubDevice {
	return &stubDevice{
		info: device.DeviceInfo{
			Type:    "oppo_udp20x",
			Model:   "Oppo UDP-203",
			Address: "192.168.1.50:23",
		},
		state: device.State{
			Available:   true,
			Power:       "on",
			VolumeOppo:  50,
			VolumeLevel: 0.5,
			Playback:    "playing",
			Source:      "Disc",
		},
		response: &device.ActionResponse{Success: true, Data: "@OK"},
	}
}

func (s *stubDevice) Process(_ context.Context, actionJSON []byte) (*device.ActionResponse, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.processed = append(s.processed, actionJSON)
	return s.response, nil
}

func (s *stubDevice) Poll(_ context.Context) device.State {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.state
}

func (s *stubDevice) GetDeviceInfo() device.DeviceInfo {
	return s.info
}

func (s *stubDevice) processedActions() [][]byte {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	actions := make([][]byte, len(s.processed))
	copy(actions, s.processed)
	return actions
}

func (s *stubDevice) setState(state device.State) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.state = state
}

// fakeMQTT captures publishes and lets tests inject inbound messages.
type fakeMQTT struct {
	mutex     sync.Mutex
	published []fakeMessage
	handlers  map[string]func(topic string, payload []byte)
}

type fakeMessage struct {
	topic    string
	payload  []byte
	retained bool
}

func newFakeMQTT() *fakeMQTT {
	return &fakeMQTT{handlers: make(map[string]func(topic string, payload []byte))}
}

func (f *fakeMQTT) Publish(topic string, payload []byte, _ byte, retained bool) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.published = append(f.published, fakeMessage{topic: topic, payload: payload, retained: retained})
	return nil
}

func (f *fakeMQTT) Subscribe(topic string, _ byte, handler func(topic string, payload []byte)) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.handlers[topic] = handler
	return nil
}

func (f *fakeMQTT) Disconnect(uint) {}

// deliver simulates an inbound message on a subscribed topic.
func (f *fakeMQTT) deliver(topic string, payload []byte) bool {
	f.mutex.Lock()
	handler, ok := f.handlers[topic]
	f.mutex.Unlock()

	if !ok {
		return false
	}
	handler(topic, payload)
	return true
}

func (f *fakeMQTT) messages(topic string) []fakeMessage {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	var matched []fakeMessage
	for _, msg := range f.published {
		if msg.topic == topic {
			matched = append(matched, msg)
		}
	}
	return matched
}

// newTestManager builds a manager whose registry holds the given stubs.
func newTestManager(config *Config, stubs map[string]*stubDevice) *DeviceManager {
	manager := NewDeviceManager(config)
	for id, stub := range stubs {
		manager.devices[id] = stub
	}
	return manager
}

func testConfig() *Config {
	config := &Config{
		MQTT: MQTTConfig{Broker: "tcp://localhost:1883"},
		Devices: []DeviceConfig{
			{ID: "player1", Name: "Player One", Type: "oppo", Address: "192.168.1.50"},
		},
	}
	config.applyDefaults()
	return config
}
