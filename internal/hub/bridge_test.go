package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otto/internal/device"
)

func newTestBridge(t *testing.T) (*Bridge, *fakeMQTT, *stubDevice) {
	t.Helper()

	config := testConfig()
	stub := newStubDevice()
	manager := newTestManager(config, map[string]*stubDevice{"player1": stub})
	conn := newFakeMQTT()
	bridge := NewBridge(conn, manager, config)

	require.NoError(t, bridge.Start(context.Background()))
	return bridge, conn, stub
}

func TestBridgeStart(t *testing.T) {
	t.Run("announces devices via discovery", func(t *testing.T) {
		_, conn, _ := newTestBridge(t)

		messages := conn.messages("homeassistant/media_player/otto_player1/config")
		require.Len(t, messages, 1)
		assert.True(t, messages[0].retained)

		var payload discoveryPayload
		require.NoError(t, json.Unmarshal(messages[0].payload, &payload))
		assert.Equal(t, "Player One", payload.Name)
		assert.Equal(t, "otto/player1/state", payload.StateTopic)
		assert.Equal(t, "otto/player1/command", payload.CommandTopic)
		assert.Equal(t, "Oppo", payload.Device.Manufacturer)
	})

	t.Run("subscribes to command topics", func(t *testing.T) {
		_, conn, _ := newTestBridge(t)

		for _, topic := range []string{
			"otto/player1/command",
			"otto/player1/volume/set",
			"otto/player1/source/set",
		} {
			assert.Contains(t, conn.handlers, topic)
		}
	})
}

func TestBridgePublishState(t *testing.T) {
	bridge, conn, _ := newTestBridge(t)

	bridge.PublishState("player1", device.State{
		Available:   true,
		Power:       "on",
		VolumeOppo:  63,
		VolumeLevel: 0.63,
		Playback:    "playing",
		Source:      "Disc",
		UpdatedAt:   time.Now(),
	})

	states := conn.messages("otto/player1/state")
	require.Len(t, states, 1)
	assert.True(t, states[0].retained)

	var state device.State
	require.NoError(t, json.Unmarshal(states[0].payload, &state))
	assert.Equal(t, 0.63, state.VolumeLevel)

	availability := conn.messages("otto/player1/availability")
	require.Len(t, availability, 1)
	assert.Equal(t, "online", string(availability[0].payload))

	// An unavailable snapshot flips the availability topic
	bridge.PublishState("player1", device.State{Available: false})
	availability = conn.messages("otto/player1/availability")
	require.Len(t, availability, 2)
	assert.Equal(t, "offline", string(availability[1].payload))
}

func TestBridgeCommands(t *testing.T) {
	t.Run("bare action name routes to the device", func(t *testing.T) {
		_, conn, stub := newTestBridge(t)

		require.True(t, conn.deliver("otto/player1/command", []byte("play")))

		actions := stub.processedActions()
		require.Len(t, actions, 1)

		var request device.ActionRequest
		require.NoError(t, json.Unmarshal(actions[0], &request))
		assert.Equal(t, device.ActionTypeRemote, request.Type)
		assert.Equal(t, "play", request.Action)

		results := conn.messages("otto/player1/result")
		require.Len(t, results, 1)

		var result commandResult
		require.NoError(t, json.Unmarshal(results[0].payload, &result))
		assert.True(t, result.Success)
		assert.Equal(t, "play", result.Command)
	})

	t.Run("json envelope with nonce deduplicates", func(t *testing.T) {
		_, conn, stub := newTestBridge(t)

		envelope := []byte(`{"command":"power_on","nonce":"abc-123"}`)
		require.True(t, conn.deliver("otto/player1/command", envelope))
		require.True(t, conn.deliver("otto/player1/command", envelope))

		// Second delivery replayed from the dedup cache
		assert.Len(t, stub.processedActions(), 1)
		assert.Len(t, conn.messages("otto/player1/result"), 2)
	})

	t.Run("empty command publishes an error result", func(t *testing.T) {
		_, conn, stub := newTestBridge(t)

		require.True(t, conn.deliver("otto/player1/command", []byte("  ")))

		assert.Empty(t, stub.processedActions())
		results := conn.messages("otto/player1/result")
		require.Len(t, results, 1)

		var result commandResult
		require.NoError(t, json.Unmarshal(results[0].payload, &result))
		assert.False(t, result.Success)
	})

	t.Run("volume set builds a set_volume action", func(t *testing.T) {
		_, conn, stub := newTestBridge(t)

		require.True(t, conn.deliver("otto/player1/volume/set", []byte("63")))

		actions := stub.processedActions()
		require.Len(t, actions, 1)

		var request device.ActionRequest
		require.NoError(t, json.Unmarshal(actions[0], &request))
		assert.Equal(t, "set_volume", request.Action)
		assert.Equal(t, float64(63), request.Parameters["volume"])
	})

	t.Run("invalid volume payload never reaches the device", func(t *testing.T) {
		_, conn, stub := newTestBridge(t)

		require.True(t, conn.deliver("otto/player1/volume/set", []byte("loud")))

		assert.Empty(t, stub.processedActions())
	})

	t.Run("source set maps entity names to actions", func(t *testing.T) {
		_, conn, stub := newTestBridge(t)

		require.True(t, conn.deliver("otto/player1/source/set", []byte("HDMI In")))

		actions := stub.processedActions()
		require.Len(t, actions, 1)

		var request device.ActionRequest
		require.NoError(t, json.Unmarshal(actions[0], &request))
		assert.Equal(t, "source_hdmi_in", request.Action)
	})

	t.Run("unknown source is rejected", func(t *testing.T) {
		_, conn, stub := newTestBridge(t)

		require.True(t, conn.deliver("otto/player1/source/set", []byte("Betamax")))

		assert.Empty(t, stub.processedActions())
	})
}

func TestBridgeStop(t *testing.T) {
	bridge, conn, _ := newTestBridge(t)

	bridge.Stop()

	availability := conn.messages("otto/player1/availability")
	require.Len(t, availability, 1)
	assert.Equal(t, "offline", string(availability[0].payload))
	assert.True(t, availability[0].retained)
}
