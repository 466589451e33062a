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

package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"otto/internal/device"
	"otto/internal/logger"
)

// commandTimeout bounds a single Telnet exchange triggered from the TUI.
const commandTimeout = 10 * time.Second

// LogEntry represents a log entry for display
type LogEntry struct {
	Timestamp time.Time
	Level     string // INF, DBG, ERR
	Message   string
	Action    string
}

// ControlModel handles the remote control screen
type ControlModel struct {
	// Connected player
	device     device.Device
	deviceInfo device.DeviceInfo

	// Remote control state
	selectedButton  remoteButton
	lastButtonPress time.Time

	// Response and history
	lastResponse  *device.ActionResponse
	actionHistory []actionHistoryEntry

	// Flags
	debugMode bool

	// Screen dimensions for responsive layout
	width  int
	height int

	// Log display
	logBuffer   []LogEntry
	maxLogLines int
}

// NewControlModel creates a new remote control screen model
func NewControlModel(dev device.Device, info device.DeviceInfo, debug bool) ControlModel {
	return ControlModel{
		device:        dev,
		deviceInfo:    info,
		actionHistory: []actionHistoryEntry{},
		debugMode:     debug,
		logBuffer:     []LogEntry{},
		maxLogLines:   6,
	}
}

// Update handles remote control screen messages
func (m ControlModel) Update(msg tea.Msg) (ControlModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		// Navigation keys
		case "up":
			return m.handleRemoteButton(buttonUp)
		case "down":
			return m.handleRemoteButton(buttonDown)
		case "left":
			return m.handleRemoteButton(buttonLeft)
		case "right":
			return m.handleRemoteButton(buttonRight)
		case "enter":
			return m.handleRemoteButton(buttonSelect)

		// Power
		case "p":
			return m.handleRemoteButton(buttonPowerOn)
		case "o":
			return m.handleRemoteButton(buttonPowerOff)

		// Playback
		case " ":
			return m.handleRemoteButton(buttonPlay)
		case "a":
			return m.handleRemoteButton(buttonPause)
		case "x":
			return m.handleRemoteButton(buttonStop)
		case "n", ".":
			return m.handleRemoteButton(buttonNext)
		case "b", ",":
			return m.handleRemoteButton(buttonPrevious)

		// Volume
		case "+", "=":
			return m.handleRemoteButton(buttonVolumeUp)
		case "-":
			return m.handleRemoteButton(buttonVolumeDown)
		case "m":
			return m.handleRemoteButton(buttonMute)

		// Function keys
		case "h":
			return m.handleRemoteButton(buttonHome)

		// Sources
		case "f1":
			return m.handleRemoteButton(buttonSourceDisc)
		case "f2":
			return m.handleRemoteButton(buttonSourceHDMIIn)
		case "f3":
			return m.handleRemoteButton(buttonSourceARC)
		}
	}

	return m, nil
}

// View renders the remote control screen
func (m ControlModel) View() string {
	var sections []string

	// Header
	sections = append(sections, titleStyle.Render("Otto - Player Remote Control"))

	// Player Info (compact single line)
	playerInfo := successStyle.Render("▶ " + m.deviceInfo.Model)
	sections = append(sections, playerInfo)

	// Remote Control Layout
	sections = append(sections, m.renderHorizontalRemoteLayout())

	// Status (if recent action)
	if m.lastResponse != nil {
		sections = append(sections, m.renderStatusBar())
	}

	// Log Display (if debug mode)
	if m.debugMode {
		logDisplay := m.renderLogDisplay()
		if logDisplay != "" {
			sections = append(sections, logDisplay)
		}
	}

	// Help Text
	sections = append(sections, m.renderHelpText())

	return strings.Join(sections, "\n\n")
}

// renderHorizontalRemoteLayout creates a horizontal remote control layout
func (m ControlModel) renderHorizontalRemoteLayout() string {
	getButtonStyle := func(btn remoteButton) lipgloss.Style {
		base := remoteButtonStyle
		if m.selectedButton == btn && time.Since(m.lastButtonPress) < 200*time.Millisecond {
			base = remoteButtonActiveStyle
		}
		return base
	}

	// Left column: Power & Navigation
	navColumn := lipgloss.JoinVertical(lipgloss.Center,
		lipgloss.JoinHorizontal(lipgloss.Center,
			getButtonStyle(buttonPowerOn).Render(" ON   "),
			getButtonStyle(buttonPowerOff).Render(" OFF  ")),
		"",
		getButtonStyle(buttonUp).Render("  ↑   "),
		lipgloss.JoinHorizontal(lipgloss.Center,
			getButtonStyle(buttonLeft).Render("  ←   "),
			getButtonStyle(buttonSelect).Render(" SEL  "),
			getButtonStyle(buttonRight).Render("  →   ")),
		getButtonStyle(buttonDown).Render("  ↓   "),
		getButtonStyle(buttonHome).Render(" HOME "),
	)

	// Middle column: Playback & Volume
	playbackColumn := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD")).Render("Playback & Volume:"),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonPlay).Render("PLAY  "),
			" ",
			getButtonStyle(buttonPause).Render("PAUSE "),
			" ",
			getButtonStyle(buttonStop).Render("STOP  ")),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonPrevious).Render("PREV  "),
			" ",
			getButtonStyle(buttonNext).Render("NEXT  ")),
		lipgloss.JoinHorizontal(lipgloss.Left,
			getButtonStyle(buttonVolumeUp).Render("VOL + "),
			" ",
			getButtonStyle(buttonVolumeDown).Render("VOL - "),
			" ",
			getButtonStyle(buttonMute).Render("MUTE  ")),
	)

	// Right column: Sources
	sourceColumn := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB86C")).Render("Sources:"),
		getButtonStyle(buttonSourceDisc).Render("DISC     "),
		getButtonStyle(buttonSourceHDMIIn).Render("HDMI IN  "),
		getButtonStyle(buttonSourceARC).Render("ARC      "),
	)

	navHeader := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#50FA7B")).
		Render("Power & Navigation:")

	navColumnWithHeader := lipgloss.JoinVertical(lipgloss.Center,
		navHeader,
		navColumn,
	)

	return lipgloss.JoinHorizontal(lipgloss.Top,
		navColumnWithHeader,
		strings.Repeat(" ", 6),
		playbackColumn,
		strings.Repeat(" ", 6),
		sourceColumn,
	)
}

// renderStatusBar creates the status bar with last action result
func (m ControlModel) renderStatusBar() string {
	if m.lastResponse == nil {
		return ""
	}

	var status string
	if m.lastResponse.Success {
		status = successStyle.Render("✓ Action successful")
		if m.lastResponse.Data != nil {
			status += fmt.Sprintf(": %v", m.lastResponse.Data)
		}
	} else {
		status = errorStyle.Render("✗ " + m.lastResponse.Error)
	}

	return status
}

// renderLogDisplay creates a simple 3-line log display area
func (m ControlModel) renderLogDisplay() string {
	if len(m.logBuffer) == 0 {
		return ""
	}

	maxLines := 3

	start := 0
	if len(m.logBuffer) > maxLines {
		start = len(m.logBuffer) - maxLines
	}

	var logLines []string

	hasMoreLogs := len(m.logBuffer) > maxLines
	autoScrollIcon := ""
	if hasMoreLogs {
		autoScrollIcon = " ↓"
	}

	header := fmt.Sprintf("─── LOGS%s ───", autoScrollIcon)
	logLines = append(logLines, lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6272A4")).
		Render(header))

	for i := 0; i < maxLines; i++ {
		if start+i < len(m.logBuffer) {
			entry := m.logBuffer[start+i]
			timestamp := entry.Timestamp.Format("15:04:05")

			var levelStyle lipgloss.Style
			switch entry.Level {
			case "ERR":
				levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
			case "DBG":
				levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))
			default: // INF
				levelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
			}

			logLine := fmt.Sprintf("%s [%s] %s",
				timestamp,
				levelStyle.Render(entry.Level),
				entry.Message)

			if len(logLine) > 70 {
				logLine = logLine[:67] + "..."
			}

			logLines = append(logLines, logLine)
		} else {
			logLines = append(logLines, "")
		}
	}

	return strings.Join(logLines, "\n")
}

// addLogEntry adds a new log entry to the buffer
func (m *ControlModel) addLogEntry(level, message, action string) {
	entry := LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   message,
		Action:    action,
	}

	m.logBuffer = append(m.logBuffer, entry)

	// Keep more in buffer than we display
	if len(m.logBuffer) > 20 {
		m.logBuffer = m.logBuffer[1:]
	}
}

// renderHelpText creates the help text at the bottom
func (m ControlModel) renderHelpText() string {
	help := "Arrows: Navigate • Enter: Select • P/O: Power • Space: Play • A: Pause • X: Stop • +/-: Volume • M: Mute"
	if m.width > 100 {
		help += " • N/B: Next/Prev • H: Home • F1-F3: Source • q: Disconnect"
	} else {
		help += " • q: Disconnect"
	}

	return "\n" + helpStyle.Render(help)
}

// handleRemoteButton executes a remote control action
func (m ControlModel) handleRemoteButton(button remoteButton) (ControlModel, tea.Cmd) {
	if m.device == nil {
		return m, nil
	}

	var actionName string
	switch button {
	case buttonPowerOn:
		actionName = string(device.RemoteActionPowerOn)
	case buttonPowerOff:
		actionName = string(device.RemoteActionPowerOff)
	case buttonPlay:
		actionName = string(device.RemoteActionPlay)
	case buttonPause:
		actionName = string(device.RemoteActionPause)
	case buttonStop:
		actionName = string(device.RemoteActionStop)
	case buttonNext:
		actionName = string(device.RemoteActionNext)
	case buttonPrevious:
		actionName = string(device.RemoteActionPrevious)
	case buttonVolumeUp:
		actionName = string(device.RemoteActionVolumeUp)
	case buttonVolumeDown:
		actionName = string(device.RemoteActionVolumeDown)
	case buttonMute:
		actionName = string(device.RemoteActionMute)
	case buttonUp:
		actionName = string(device.RemoteActionUp)
	case buttonDown:
		actionName = string(device.RemoteActionDown)
	case buttonLeft:
		actionName = string(device.RemoteActionLeft)
	case buttonRight:
		actionName = string(device.RemoteActionRight)
	case buttonSelect:
		actionName = string(device.RemoteActionSelect)
	case buttonHome:
		actionName = string(device.RemoteActionHome)
	case buttonSourceDisc:
		actionName = string(device.RemoteActionSourceDisc)
	case buttonSourceHDMIIn:
		actionName = string(device.RemoteActionSourceHDMIIn)
	case buttonSourceARC:
		actionName = string(device.RemoteActionSourceARC)
	default:
		return m, nil
	}

	request := device.ActionRequest{
		Type:   device.ActionTypeRemote,
		Action: actionName,
	}

	actionJSON, err := json.Marshal(request)
	if err != nil {
		m.lastResponse = &device.ActionResponse{
			Success: false,
			Error:   err.Error(),
		}
		return m, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	response, err := m.device.Process(ctx, actionJSON)
	if err != nil {
		response = &device.ActionResponse{
			Success: false,
			Error:   err.Error(),
		}
	}

	m.lastResponse = response
	m.selectedButton = button
	m.lastButtonPress = time.Now()

	if m.debugMode {
		var logLevel string
		var logMessage string

		if response.Success {
			logLevel = "INF"
			logMessage = fmt.Sprintf("%s action completed successfully", actionName)
		} else {
			logLevel = "ERR"
			logMessage = fmt.Sprintf("%s failed: %s", actionName, response.Error)
		}

		m.addLogEntry(logLevel, logMessage, actionName)
	}

	// Add to history
	entry := actionHistoryEntry{
		Timestamp: time.Now(),
		Action:    string(actionJSON),
		Success:   response.Success,
	}

	if response.Success {
		if data, err := json.MarshalIndent(response.Data, "", "  "); err == nil {
			entry.Response = string(data)
		} else {
			entry.Response = fmt.Sprintf("%v", response.Data)
		}
	} else {
		entry.Error = response.Error
	}

	m.actionHistory = append([]actionHistoryEntry{entry}, m.actionHistory...)
	if len(m.actionHistory) > 50 {
		m.actionHistory = m.actionHistory[:50]
	}

	log := logger.New()
	log.Info().
		Str("action", string(actionJSON)).
		Bool("success", response.Success).
		Msg("Remote button pressed")

	return m, nil
}
