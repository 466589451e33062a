package oppo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrParse means a status reply did not match the expected shape. It is
// field-scoped: the affected field keeps its previous value and the rest
// of the poll proceeds.
var ErrParse = errors.New("malformed reply")

// PowerState is the reported power state of the player.
type PowerState string

const (
	PowerOnState  PowerState = "on"
	PowerOffState PowerState = "off"
)

// PlaybackState is the reported transport state of the player.
type PlaybackState string

const (
	PlaybackPlaying PlaybackState = "playing"
	PlaybackPaused  PlaybackState = "paused"
	PlaybackStopped PlaybackState = "stopped"
)

// SourceName is an input source of the player.
type SourceName string

const (
	SourceDisc   SourceName = "Disc"
	SourceHDMIIn SourceName = "HDMI In"
	SourceARC    SourceName = "ARC: HDMI Out"
)

// PlayerState is the wholesale state snapshot refreshed on each poll cycle.
type PlayerState struct {
	Available   bool
	Power       PowerState
	VolumeOppo  int
	VolumeLevel float64
	Muted       bool
	Playback    PlaybackState
	Source      SourceName
	UpdatedAt   time.Time
}

// NewPlayerState returns the state assumed before the first poll.
func NewPlayerState() PlayerState {
	return PlayerState{
		Power:    PowerOffState,
		Playback: PlaybackStopped,
		Source:   SourceDisc,
	}
}

// replyPayload strips the @OK prefix and returns the payload token.
// An @ER reply or anything not prefixed with @OK is malformed.
func replyPayload(reply string) (string, error) {
	fields := strings.Fields(reply)
	if len(fields) < 2 || fields[0] != replyOK {
		return "", fmt.Errorf("%w: %q", ErrParse, reply)
	}
	return fields[len(fields)-1], nil
}

// parsePowerReply interprets the reply to #QPW.
func parsePowerReply(reply string) (PowerState, error) {
	payload, err := replyPayload(reply)
	if err != nil {
		return "", err
	}
	switch strings.ToUpper(payload) {
	case "ON", "1":
		return PowerOnState, nil
	case "OFF", "0":
		return PowerOffState, nil
	}
	return "", fmt.Errorf("%w: power reply %q", ErrParse, reply)
}

// parseVolumeReply interprets the reply to #QVL. While muted the player
// reports MUT instead of a number, so one query feeds both fields.
func parseVolumeReply(reply string) (volume int, muted bool, err error) {
	payload, err := replyPayload(reply)
	if err != nil {
		return 0, false, err
	}
	token := strings.ToUpper(payload)
	if token == replyMuted || token == "MUTE" {
		return 0, true, nil
	}
	volume, err = strconv.Atoi(payload)
	if err != nil || volume < 0 || volume > 100 {
		return 0, false, fmt.Errorf("%w: volume reply %q", ErrParse, reply)
	}
	return volume, false, nil
}

// parsePlaybackReply interprets the reply to #QPL. The player reports
// states like PLAY, PAUSE, STOP and NO DISC; anything without a disc in
// motion counts as stopped.
func parsePlaybackReply(reply string) (PlaybackState, error) {
	fields := strings.Fields(reply)
	if len(fields) < 2 || fields[0] != replyOK {
		return "", fmt.Errorf("%w: playback reply %q", ErrParse, reply)
	}
	status := strings.ToUpper(strings.Join(fields[1:], " "))
	switch {
	case strings.Contains(status, "PAUS"):
		return PlaybackPaused, nil
	case strings.Contains(status, "PLAY"):
		return PlaybackPlaying, nil
	case strings.Contains(status, "STOP"), strings.Contains(status, "NO DISC"),
		strings.Contains(status, "OPEN"), strings.Contains(status, "CLOSE"),
		strings.Contains(status, "HOME"):
		return PlaybackStopped, nil
	}
	return "", fmt.Errorf("%w: playback reply %q", ErrParse, reply)
}
