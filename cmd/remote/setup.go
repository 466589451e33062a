package remote

import (
	"net"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"otto/internal/device"
	"otto/internal/logger"
	"otto/internal/oppo"
)

// Setup screen input fields
type setupField int

const (
	setupFieldPlayerType setupField = iota
	setupFieldHostAddress
	setupFieldConnect
)

// SetupModel handles the player setup screen
type SetupModel struct {
	// Navigation
	focusedField setupField

	// Player selection
	playerTypes    []string
	selectedPlayer int

	// Input fields
	hostAddress       string
	hostAddressCursor int

	// Connection state
	connecting      bool
	connectionError string

	// Connected player (when setup complete)
	device     device.Device
	deviceInfo device.DeviceInfo

	// Flags
	debugMode bool
}

// NewSetupModel creates a new setup screen model. A non-empty host
// pre-fills the address input.
func NewSetupModel(host string, debug bool) SetupModel {
	focused := setupFieldPlayerType
	if host != "" {
		focused = setupFieldConnect
	}
	return SetupModel{
		focusedField:      focused,
		playerTypes:       []string{"Oppo UDP-20x"},
		selectedPlayer:    0,
		hostAddress:       host,
		hostAddressCursor: len(host),
		debugMode:         debug,
	}
}

// Update handles setup screen messages
func (m SetupModel) Update(msg tea.Msg) (SetupModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab":
			return m.handleTabNavigation(msg.String() == "shift+tab"), nil

		case "enter":
			if m.focusedField == setupFieldConnect {
				return m.handleConnect()
			}
			return m, nil

		case "up":
			if m.focusedField == setupFieldPlayerType && m.selectedPlayer > 0 {
				m.selectedPlayer--
			}
			return m, nil

		case "down":
			if m.focusedField == setupFieldPlayerType && m.selectedPlayer < len(m.playerTypes)-1 {
				m.selectedPlayer++
			}
			return m, nil

		case "left":
			if m.focusedField == setupFieldHostAddress && m.hostAddressCursor > 0 {
				m.hostAddressCursor--
			}
			return m, nil

		case "right":
			if m.focusedField == setupFieldHostAddress && m.hostAddressCursor < len(m.hostAddress) {
				m.hostAddressCursor++
			}
			return m, nil

		case "backspace":
			if m.focusedField == setupFieldHostAddress && m.hostAddressCursor > 0 && len(m.hostAddress) > 0 {
				m.hostAddress = deleteCharAt(m.hostAddress, m.hostAddressCursor-1)
				m.hostAddressCursor--
			}
			return m, nil

		case "delete":
			if m.focusedField == setupFieldHostAddress && m.hostAddressCursor < len(m.hostAddress) {
				m.hostAddress = deleteCharAt(m.hostAddress, m.hostAddressCursor)
			}
			return m, nil

		case "home":
			if m.focusedField == setupFieldHostAddress {
				m.hostAddressCursor = 0
			}
			return m, nil

		case "end":
			if m.focusedField == setupFieldHostAddress {
				m.hostAddressCursor = len(m.hostAddress)
			}
			return m, nil

		default:
			return m.handleTextInput(msg.String()), nil
		}
	}

	return m, nil
}

// View renders the setup screen
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Otto - Player Setup"))
	b.WriteString("\n\n")

	// Player Type Selection
	b.WriteString(subtitleStyle.Render("Player Type:"))
	b.WriteString("\n")
	for i, playerType := range m.playerTypes {
		cursor := "  "
		if i == m.selectedPlayer {
			cursor = "> "
		}

		style := lipgloss.NewStyle()
		if m.focusedField == setupFieldPlayerType && i == m.selectedPlayer {
			style = style.Foreground(lipgloss.Color("#FF79C6"))
		}

		b.WriteString(style.Render(cursor + playerType))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	// Host Address Input
	b.WriteString(subtitleStyle.Render("Host Address (IP or IP:Port):"))
	b.WriteString("\n")
	hostStyle := inputStyle
	showCursor := m.focusedField == setupFieldHostAddress
	if showCursor {
		hostStyle = inputFocusedStyle
	}
	hostText := renderTextWithCursor(m.hostAddress, m.hostAddressCursor, showCursor)
	b.WriteString(hostStyle.Render(hostText))
	b.WriteString("\n\n")

	// Connect Button
	connectStyle := buttonStyle
	if m.focusedField == setupFieldConnect {
		connectStyle = buttonActiveStyle
	}

	connectText := "Connect"
	if m.connecting {
		connectText = "Connecting..."
	}
	b.WriteString(connectStyle.Render(connectText))
	b.WriteString("\n\n")

	// Connection Error
	if m.connectionError != "" {
		b.WriteString(errorStyle.Render("Error: " + m.connectionError))
		b.WriteString("\n\n")
	}

	// Help
	b.WriteString(helpStyle.Render("↑/↓: Navigate • Tab: Next field • Enter: Connect • ←/→: Move cursor • q: Quit"))

	return b.String()
}

// handleTabNavigation moves between input fields
func (m SetupModel) handleTabNavigation(reverse bool) SetupModel {
	fields := []setupField{setupFieldPlayerType, setupFieldHostAddress, setupFieldConnect}

	currentIndex := -1
	for i, field := range fields {
		if field == m.focusedField {
			currentIndex = i
			break
		}
	}

	if reverse {
		currentIndex--
		if currentIndex < 0 {
			currentIndex = len(fields) - 1
		}
	} else {
		currentIndex++
		if currentIndex >= len(fields) {
			currentIndex = 0
		}
	}

	m.focusedField = fields[currentIndex]
	if m.hostAddressCursor > len(m.hostAddress) {
		m.hostAddressCursor = len(m.hostAddress)
	}
	return m
}

// handleConnect sets up the player connection
func (m SetupModel) handleConnect() (SetupModel, tea.Cmd) {
	if m.connecting {
		return m, nil
	}

	if m.hostAddress == "" {
		m.connectionError = "Host address is required"
		return m, nil
	}

	host, port, ok := m.splitHostAddress(m.hostAddress)
	if !ok {
		m.connectionError = "Invalid host address format"
		return m, nil
	}

	m.connecting = true
	m.connectionError = ""

	// The Telnet connection itself is made per command, so setup only
	// needs to build the player
	player := oppo.NewPlayer(host, oppo.WithPort(port))
	deviceInfo := player.GetDeviceInfo()

	m.device = player
	m.deviceInfo = deviceInfo
	m.connecting = false

	log := logger.New()
	log.Info().
		Str("device_type", deviceInfo.Type).
		Str("device_model", deviceInfo.Model).
		Str("address", m.hostAddress).
		Msg("Player connected")

	return m, nil
}

// handleTextInput handles character input
func (m SetupModel) handleTextInput(input string) SetupModel {
	if len(input) == 0 || input == "\x00" {
		return m
	}

	printableInput := ""
	for _, r := range input {
		if r >= 32 && r < 127 || r > 127 {
			printableInput += string(r)
		}
	}

	if len(printableInput) == 0 {
		return m
	}

	if m.focusedField == setupFieldHostAddress {
		m.hostAddress = insertText(m.hostAddress, m.hostAddressCursor, printableInput)
		m.hostAddressCursor += len(printableInput)
	}
	return m
}

// splitHostAddress validates the address and extracts host and port.
// Without an explicit port the player default applies.
func (m SetupModel) splitHostAddress(address string) (string, int, bool) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		host = address
		portStr = ""
	}

	if net.ParseIP(host) == nil {
		matched, _ := regexp.MatchString(`^[a-zA-Z0-9.-]+$`, host)
		if !matched {
			return "", 0, false
		}
	}

	port := oppo.DefaultPort
	if portStr != "" {
		port, err = strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return "", 0, false
		}
	}

	return host, port, true
}

// IsConnected returns true if a player has been set up
func (m SetupModel) IsConnected() bool {
	return m.device != nil
}

// GetDevice returns the connected player
func (m SetupModel) GetDevice() device.Device {
	return m.device
}

// GetDeviceInfo returns the player info
func (m SetupModel) GetDeviceInfo() device.DeviceInfo {
	return m.deviceInfo
}
