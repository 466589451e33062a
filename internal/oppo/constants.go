package oppo

// WireCode is the fixed ASCII command string sent to the player over Telnet.
type WireCode string

// Remote control codes for Oppo UDP-20x players
const (
	PowerOn     WireCode = "#PON"
	PowerOff    WireCode = "#POF"
	PowerToggle WireCode = "#POW"

	// Volume controls
	VolumeUp   WireCode = "#VUP"
	VolumeDown WireCode = "#VDN"
	Mute       WireCode = "#MUT"

	// Playback transport
	Play     WireCode = "#PLA"
	Stop     WireCode = "#STP"
	Pause    WireCode = "#PAU"
	Next     WireCode = "#NXT"
	Previous WireCode = "#PRE"

	// Navigation
	Up     WireCode = "#NUP"
	Down   WireCode = "#NDN"
	Left   WireCode = "#NLT"
	Right  WireCode = "#NRT"
	Select WireCode = "#SEL"
	Home   WireCode = "#HOM"

	// Source cycles through Disc -> HDMI In -> ARC
	Source WireCode = "#SRC"
)

// Status query codes
const (
	QueryPower    WireCode = "#QPW"
	QueryVolume   WireCode = "#QVL"
	QueryPlayback WireCode = "#QPL"
)

// Wire framing and reply tokens
const (
	// DefaultPort is the Telnet command port on UDP-20x players
	DefaultPort = 23

	// lineTerminator ends every command sent to the player
	lineTerminator = "\r"

	replyOK    = "@OK"
	replyError = "@ER"

	// QueryVolume reports this token instead of a number while muted
	replyMuted = "MUT"
)
