package oppo_test

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"otto/internal/oppo"
)

// fakePlayer simulates the UDP-20x Telnet command channel: one command
// line per connection, one reply line back. It keeps enough state for
// volume round trips and records every wire code it receives.
type fakePlayer struct {
	listener net.Listener

	mutex     sync.Mutex
	received  []string
	overrides map[string]string
	power     string
	playback  string
	volume    int
	muted     bool
}

func newFakePlayer(t *testing.T) *fakePlayer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	f := &fakePlayer{
		listener:  listener,
		overrides: make(map[string]string),
		power:     "ON",
		playback:  "PLAY",
		volume:    50,
	}
	go f.serve()
	t.Cleanup(func() { listener.Close() })

	return f
}

func (f *fakePlayer) serve() {
	for {
		conn, err := f.listener.Accept()
		if err != nil {
			return
		}
		go f.handle(conn)
	}
}

func (f *fakePlayer) handle(conn net.Conn) {
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\r')
	if err != nil {
		return
	}
	code := strings.TrimSpace(line)

	f.mutex.Lock()
	f.received = append(f.received, code)
	reply := f.reply(code)
	f.mutex.Unlock()

	if reply != "" {
		conn.Write([]byte(reply + "\r"))
	}
}

// reply computes the response for a wire code. Callers hold the mutex.
func (f *fakePlayer) reply(code string) string {
	if override, ok := f.overrides[code]; ok {
		return override
	}

	switch {
	case code == "#QPW":
		return "@OK " + f.power
	case code == "#QVL":
		if f.muted {
			return "@OK MUT"
		}
		return fmt.Sprintf("@OK %d", f.volume)
	case code == "#QPL":
		return "@OK " + f.playback
	case strings.HasPrefix(code, "#SVL"):
		if n, err := strconv.Atoi(code[len("#SVL"):]); err == nil {
			f.volume = n
		}
		return "@OK"
	case code == "#MUT":
		f.muted = !f.muted
		return "@OK"
	case code == "#PON":
		f.power = "ON"
		return "@OK"
	case code == "#POF":
		f.power = "OFF"
		return "@OK"
	default:
		return "@OK"
	}
}

func (f *fakePlayer) setOverride(code, reply string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.overrides[code] = reply
}

func (f *fakePlayer) setPower(power string) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.power = power
}

func (f *fakePlayer) receivedCodes() []string {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	codes := make([]string, len(f.received))
	copy(codes, f.received)
	return codes
}

// hostPort splits the listener address for NewClient/NewPlayer.
func (f *fakePlayer) hostPort(t *testing.T) (string, int) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(f.listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return host, port
}

func (f *fakePlayer) newPlayer(t *testing.T) *oppo.Player {
	t.Helper()

	host, port := f.hostPort(t)
	return oppo.NewPlayer(host, oppo.WithPort(port))
}
