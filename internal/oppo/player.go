package oppo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"otto/internal/device"
	"otto/internal/logger"
)

// Player is an Oppo UDP-20x player exposed as a hub device. It owns the
// Telnet client and the last known state snapshot; commands and polls go
// through the client one at a time.
type Player struct {
	client *Client
	info   device.DeviceInfo
	state  PlayerState
	mutex  sync.RWMutex
	logger zerolog.Logger
}

// NewPlayer creates a Player for the device at host.
func NewPlayer(host string, options ...ClientOption) *Player {
	client := NewClient(host, options...)

	return &Player{
		client: client,
		state:  NewPlayerState(),
		logger: logger.New(),
		info: device.DeviceInfo{
			Type:    "oppo_udp20x",
			Model:   "Oppo UDP-203",
			Address: client.Address(),
			Capabilities: []string{
				"power",
				"volume",
				"mute",
				"playback",
				"navigation",
				"source_select",
			},
		},
	}
}

// GetDeviceInfo returns information about this player.
func (p *Player) GetDeviceInfo() device.DeviceInfo {
	return p.info
}

// State returns the last known snapshot without touching the device.
func (p *Player) State() PlayerState {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.state
}

// Process handles JSON action requests and routes them to the player.
func (p *Player) Process(ctx context.Context, actionJSON []byte) (*device.ActionResponse, error) {
	request, err := parseActionRequest(actionJSON)
	if err != nil {
		return &device.ActionResponse{Success: false, Error: err.Error()}, nil
	}

	switch request.Type {
	case device.ActionTypeRemote:
		return p.processRemoteAction(ctx, request)
	case device.ActionTypeQuery:
		return p.processQueryAction(ctx, request)
	default:
		return &device.ActionResponse{
			Success: false,
			Error:   fmt.Sprintf("unsupported action type: %s", request.Type),
		}, nil
	}
}

// processRemoteAction resolves a logical action name and sends its wire codes.
func (p *Player) processRemoteAction(ctx context.Context, request *device.ActionRequest) (*device.ActionResponse, error) {
	// set_volume carries a parameter, so it bypasses the fixed table
	if request.Action == "set_volume" {
		volume, err := volumeParameter(request.Parameters)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		level, err := p.SetVolume(ctx, volume)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		return &device.ActionResponse{Success: true, Data: map[string]float64{"volume_level": level}}, nil
	}

	codes, err := Resolve(request.Action)
	if err != nil {
		return &device.ActionResponse{Success: false, Error: err.Error()}, nil
	}

	reply, err := p.client.Exec(ctx, codes...)
	if err != nil {
		return &device.ActionResponse{
			Success: false,
			Error:   fmt.Sprintf("remote action failed: %v", err),
		}, nil
	}

	p.applyOptimistic(device.RemoteAction(request.Action))

	return &device.ActionResponse{Success: true, Data: reply}, nil
}

// processQueryAction runs status queries and returns parsed fields.
func (p *Player) processQueryAction(ctx context.Context, request *device.ActionRequest) (*device.ActionResponse, error) {
	switch device.QueryAction(request.Action) {
	case device.QueryActionPower:
		reply, err := p.client.Send(ctx, QueryPower)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		power, err := parsePowerReply(reply)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		return &device.ActionResponse{Success: true, Data: string(power)}, nil

	case device.QueryActionVolume:
		reply, err := p.client.Send(ctx, QueryVolume)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		volume, muted, err := parseVolumeReply(reply)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		return &device.ActionResponse{
			Success: true,
			Data: map[string]interface{}{
				"volume_oppo":  volume,
				"volume_level": float64(volume) / 100.0,
				"muted":        muted,
			},
		}, nil

	case device.QueryActionPlayback:
		reply, err := p.client.Send(ctx, QueryPlayback)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		playback, err := parsePlaybackReply(reply)
		if err != nil {
			return &device.ActionResponse{Success: false, Error: err.Error()}, nil
		}
		return &device.ActionResponse{Success: true, Data: string(playback)}, nil

	case device.QueryActionStatus:
		return &device.ActionResponse{Success: true, Data: p.Poll(ctx)}, nil

	default:
		return &device.ActionResponse{
			Success: false,
			Error:   fmt.Sprintf("unsupported query action: %s", request.Action),
		}, nil
	}
}

// Poll refreshes the snapshot from the device. Each field is parsed
// independently; a malformed single-field reply keeps that field at its
// last known value while the others still update. A connection or
// timeout failure on the power query marks the snapshot unavailable.
func (p *Player) Poll(ctx context.Context) device.State {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	next := p.state
	next.UpdatedAt = time.Now()

	powerReply, err := p.client.Send(ctx, QueryPower)
	if err != nil {
		if errors.Is(err, ErrConnection) || errors.Is(err, ErrTimeout) {
			p.logger.Warn().
				Str("address", p.info.Address).
				Err(err).
				Msg("Player unreachable, marking unavailable")
			next.Available = false
			p.state = next
			return p.deviceState()
		}
	}
	next.Available = true

	if power, perr := parsePowerReply(powerReply); perr != nil {
		p.logger.Warn().Err(perr).Msg("Skipping power field")
	} else {
		next.Power = power
	}

	if volumeReply, verr := p.client.Send(ctx, QueryVolume); verr != nil {
		p.logger.Warn().Err(verr).Msg("Volume query failed")
	} else if volume, muted, perr := parseVolumeReply(volumeReply); perr != nil {
		p.logger.Warn().Err(perr).Msg("Skipping volume field")
	} else if muted {
		next.Muted = true
	} else {
		next.Muted = false
		next.VolumeOppo = volume
		next.VolumeLevel = float64(volume) / 100.0
	}

	if playbackReply, qerr := p.client.Send(ctx, QueryPlayback); qerr != nil {
		p.logger.Warn().Err(qerr).Msg("Playback query failed")
	} else if playback, perr := parsePlaybackReply(playbackReply); perr != nil {
		p.logger.Warn().Err(perr).Msg("Skipping playback field")
	} else {
		next.Playback = playback
	}

	p.state = next
	return p.deviceState()
}

// deviceState converts the snapshot to the entity shape. Callers hold the mutex.
func (p *Player) deviceState() device.State {
	return device.State{
		Available:   p.state.Available,
		Power:       string(p.state.Power),
		VolumeOppo:  p.state.VolumeOppo,
		VolumeLevel: p.state.VolumeLevel,
		Muted:       p.state.Muted,
		Playback:    string(p.state.Playback),
		Source:      string(p.state.Source),
		UpdatedAt:   p.state.UpdatedAt,
	}
}

// applyOptimistic updates fields the poller cannot observe immediately,
// before the next poll cycle confirms them. Source has no query code at
// all, so the last selected source is the only record of it.
func (p *Player) applyOptimistic(action device.RemoteAction) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	switch action {
	case device.RemoteActionPowerOn:
		p.state.Power = PowerOnState
	case device.RemoteActionPowerOff:
		p.state.Power = PowerOffState
	case device.RemoteActionPlay:
		p.state.Playback = PlaybackPlaying
	case device.RemoteActionPause:
		p.state.Playback = PlaybackPaused
	case device.RemoteActionStop:
		p.state.Playback = PlaybackStopped
	case device.RemoteActionMute:
		p.state.Muted = !p.state.Muted
	case device.RemoteActionSourceDisc:
		p.state.Source = SourceDisc
	case device.RemoteActionSourceHDMIIn:
		p.state.Source = SourceHDMIIn
	case device.RemoteActionSourceARC:
		p.state.Source = SourceARC
	}
}

// TurnOn powers the player on.
func (p *Player) TurnOn(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionPowerOn)
}

// TurnOff powers the player off.
func (p *Player) TurnOff(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionPowerOff)
}

// Play starts playback.
func (p *Player) Play(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionPlay)
}

// Pause pauses playback.
func (p *Player) Pause(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionPause)
}

// Stop stops playback.
func (p *Player) Stop(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionStop)
}

// NextTrack skips forward.
func (p *Player) NextTrack(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionNext)
}

// PreviousTrack skips backward.
func (p *Player) PreviousTrack(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionPrevious)
}

// MuteToggle toggles mute.
func (p *Player) MuteToggle(ctx context.Context) error {
	return p.sendAction(ctx, device.RemoteActionMute)
}

// SelectSource switches the player input.
func (p *Player) SelectSource(ctx context.Context, source SourceName) error {
	switch source {
	case SourceDisc:
		return p.sendAction(ctx, device.RemoteActionSourceDisc)
	case SourceHDMIIn:
		return p.sendAction(ctx, device.RemoteActionSourceHDMIIn)
	case SourceARC:
		return p.sendAction(ctx, device.RemoteActionSourceARC)
	}
	return fmt.Errorf("unknown source: %s", source)
}

// SetVolume sets the raw 0-100 volume, re-queries it and returns the
// confirmed 0.0-1.0 level.
func (p *Player) SetVolume(ctx context.Context, volume int) (float64, error) {
	code, err := SetVolumeCommand(volume)
	if err != nil {
		return 0, err
	}

	if _, err := p.client.Send(ctx, code); err != nil {
		return 0, err
	}

	reply, err := p.client.Send(ctx, QueryVolume)
	if err != nil {
		return 0, err
	}
	confirmed, muted, err := parseVolumeReply(reply)
	if err != nil {
		return 0, err
	}

	p.mutex.Lock()
	p.state.Muted = muted
	if !muted {
		p.state.VolumeOppo = confirmed
		p.state.VolumeLevel = float64(confirmed) / 100.0
	}
	level := p.state.VolumeLevel
	p.mutex.Unlock()

	return level, nil
}

// SendRaw transmits a wire code verbatim and returns the reply line.
func (p *Player) SendRaw(ctx context.Context, code string) (string, error) {
	return p.client.Send(ctx, WireCode(code))
}

// SendAction resolves a logical action name and sends it.
func (p *Player) SendAction(ctx context.Context, action string) (string, error) {
	codes, err := Resolve(action)
	if err != nil {
		return "", err
	}
	reply, err := p.client.Exec(ctx, codes...)
	if err != nil {
		return "", err
	}
	p.applyOptimistic(device.RemoteAction(action))
	return reply, nil
}

func (p *Player) sendAction(ctx context.Context, action device.RemoteAction) error {
	_, err := p.SendAction(ctx, string(action))
	return err
}

// volumeParameter extracts the raw volume from request parameters.
func volumeParameter(parameters map[string]interface{}) (int, error) {
	if parameters == nil {
		return 0, errors.New("volume parameter is required for set_volume")
	}
	value, ok := parameters["volume"]
	if !ok {
		return 0, errors.New("volume parameter is required for set_volume")
	}
	switch v := value.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	case string:
		volume, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid volume parameter: %q", v)
		}
		return volume, nil
	default:
		return 0, errors.New("invalid volume parameter type")
	}
}

// parseActionRequest parses JSON input into an ActionRequest.
func parseActionRequest(actionJSON []byte) (*device.ActionRequest, error) {
	var request device.ActionRequest
	if err := json.Unmarshal(actionJSON, &request); err != nil {
		return nil, fmt.Errorf("failed to parse action request: %w", err)
	}

	if request.Type == "" {
		return nil, errors.New("action type is required")
	}
	if request.Action == "" {
		return nil, errors.New("action is required")
	}

	return &request, nil
}
