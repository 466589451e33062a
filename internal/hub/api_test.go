package hub

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otto/internal/device"
	"otto/internal/logger"
)

func newTestAPI(t *testing.T) (*APIServer, *Daemon, *stubDevice) {
	t.Helper()

	config := testConfig()
	stub := newStubDevice()
	daemon := &Daemon{
		config:  config,
		manager: newTestManager(config, map[string]*stubDevice{"player1": stub}),
		states:  make(map[string]device.State),
		logger:  logger.New(),
	}

	return NewAPIServer(daemon, 0), daemon, stub
}

func doRequest(t *testing.T, api *APIServer, method, path string, body []byte) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()

	request := httptest.NewRequest(method, path, bytes.NewReader(body))
	recorder := httptest.NewRecorder()
	api.Handler().ServeHTTP(recorder, request)

	var response APIResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))

	return recorder, response
}

func TestAPIHealth(t *testing.T) {
	api, _, _ := newTestAPI(t)

	recorder, response := doRequest(t, api, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.True(t, response.Success)
}

func TestAPIDeviceList(t *testing.T) {
	api, _, _ := newTestAPI(t)

	recorder, response := doRequest(t, api, http.MethodGet, "/devices", nil)

	assert.Equal(t, http.StatusOK, recorder.Code)
	require.True(t, response.Success)

	devices, ok := response.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, devices, "player1")
}

func TestAPIDeviceState(t *testing.T) {
	t.Run("returns the last published snapshot", func(t *testing.T) {
		api, daemon, _ := newTestAPI(t)
		daemon.publishState("player1", device.State{
			Available:   true,
			Power:       "on",
			VolumeLevel: 0.63,
			UpdatedAt:   time.Now(),
		})

		recorder, response := doRequest(t, api, http.MethodGet, "/devices/player1/state", nil)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.True(t, response.Success)

		state, ok := response.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, 0.63, state["volume_level"])
	})

	t.Run("unknown device is a 404", func(t *testing.T) {
		api, _, _ := newTestAPI(t)

		recorder, response := doRequest(t, api, http.MethodGet, "/devices/ghost/state", nil)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
		assert.False(t, response.Success)
	})
}

func TestAPIDeviceCommand(t *testing.T) {
	t.Run("routes command to the device", func(t *testing.T) {
		api, _, stub := newTestAPI(t)

		body := []byte(`{"command":"play"}`)
		recorder, response := doRequest(t, api, http.MethodPost, "/devices/player1/command", body)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.True(t, response.Success)

		actions := stub.processedActions()
		require.Len(t, actions, 1)

		var request device.ActionRequest
		require.NoError(t, json.Unmarshal(actions[0], &request))
		assert.Equal(t, "play", request.Action)
	})

	t.Run("nonce deduplicates retries", func(t *testing.T) {
		api, _, stub := newTestAPI(t)

		body := []byte(`{"command":"play","nonce":"xyz-789"}`)
		doRequest(t, api, http.MethodPost, "/devices/player1/command", body)
		doRequest(t, api, http.MethodPost, "/devices/player1/command", body)

		assert.Len(t, stub.processedActions(), 1)
	})

	t.Run("missing command is a 400", func(t *testing.T) {
		api, _, _ := newTestAPI(t)

		recorder, response := doRequest(t, api, http.MethodPost, "/devices/player1/command", []byte(`{}`))

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
		assert.False(t, response.Success)
	})

	t.Run("unknown device is a 404", func(t *testing.T) {
		api, _, _ := newTestAPI(t)

		body := []byte(`{"command":"play"}`)
		recorder, _ := doRequest(t, api, http.MethodPost, "/devices/ghost/command", body)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestAPIDeviceJournal(t *testing.T) {
	t.Run("returns recent transitions", func(t *testing.T) {
		api, daemon, _ := newTestAPI(t)

		journal := openTestJournal(t)
		daemon.journal = journal
		daemon.publishState("player1", snapshotAt("on", 50, time.Now()))

		recorder, response := doRequest(t, api, http.MethodGet, "/devices/player1/journal", nil)

		assert.Equal(t, http.StatusOK, recorder.Code)
		require.True(t, response.Success)

		entries, ok := response.Data.([]interface{})
		require.True(t, ok)
		assert.Len(t, entries, 1)
	})

	t.Run("invalid limit is a 400", func(t *testing.T) {
		api, _, _ := newTestAPI(t)

		recorder, _ := doRequest(t, api, http.MethodGet, "/devices/player1/journal?limit=zero", nil)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
