package oppo

import (
	"errors"
	"fmt"

	"otto/internal/device"
)

// ErrUnknownCommand is returned by Resolve for unrecognized action names.
var ErrUnknownCommand = errors.New("unknown command")

// commandTable maps logical action names to the wire-code sequence they
// resolve to. Most actions are a single code; HDMI In is a fixed two-step
// macro because the player cycles sources on each #SRC.
var commandTable = map[device.RemoteAction][]WireCode{
	device.RemoteActionPowerOn:      {PowerOn},
	device.RemoteActionPowerOff:     {PowerOff},
	device.RemoteActionPowerToggle:  {PowerToggle},
	device.RemoteActionVolumeUp:     {VolumeUp},
	device.RemoteActionVolumeDown:   {VolumeDown},
	device.RemoteActionMute:         {Mute},
	device.RemoteActionPlay:         {Play},
	device.RemoteActionPause:        {Pause},
	device.RemoteActionStop:         {Stop},
	device.RemoteActionNext:         {Next},
	device.RemoteActionPrevious:     {Previous},
	device.RemoteActionUp:           {Up},
	device.RemoteActionDown:         {Down},
	device.RemoteActionLeft:         {Left},
	device.RemoteActionRight:        {Right},
	device.RemoteActionSelect:       {Select},
	device.RemoteActionHome:         {Home},
	device.RemoteActionSourceDisc:   {Source},
	device.RemoteActionSourceHDMIIn: {Source, Source},
	device.RemoteActionSourceARC:    {Source, Source, Source},
}

// Resolve maps a logical action name to its wire-code sequence.
func Resolve(action string) ([]WireCode, error) {
	codes, ok := commandTable[device.RemoteAction(action)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, action)
	}
	return codes, nil
}

// Actions returns every logical action name the command table supports.
func Actions() []device.RemoteAction {
	actions := make([]device.RemoteAction, 0, len(commandTable))
	for action := range commandTable {
		actions = append(actions, action)
	}
	return actions
}

// SetVolumeCommand builds the #SVL<nnn> code for a raw 0-100 volume.
func SetVolumeCommand(volume int) (WireCode, error) {
	if volume < 0 || volume > 100 {
		return "", fmt.Errorf("volume %d out of range 0-100", volume)
	}
	return WireCode(fmt.Sprintf("#SVL%03d", volume)), nil
}
