package oppo

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"otto/internal/logger"
)

// Error taxonomy for the Telnet exchange. Callers check with errors.Is.
var (
	// ErrConnection means the player was unreachable
	ErrConnection = errors.New("connection failed")
	// ErrTimeout means the player accepted the command but never replied
	ErrTimeout = errors.New("reply timeout")
)

// Client is a line-oriented Telnet client for the Oppo command channel.
// A connection is opened per exchange and closed after the reply; the
// protocol keeps no session state. The mutex serializes exchanges so
// command and response bytes never interleave on the wire.
type Client struct {
	host        string
	port        int
	dialTimeout time.Duration
	readTimeout time.Duration
	mutex       sync.Mutex
	logger      zerolog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithPort overrides the default Telnet port.
func WithPort(port int) ClientOption {
	return func(c *Client) {
		c.port = port
	}
}

// WithTimeouts overrides the dial and read timeouts.
func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(c *Client) {
		c.dialTimeout = dial
		c.readTimeout = read
	}
}

// NewClient creates a client for the player at host.
func NewClient(host string, options ...ClientOption) *Client {
	client := &Client{
		host:        host,
		port:        DefaultPort,
		dialTimeout: 5 * time.Second,
		readTimeout: 3 * time.Second,
		logger:      logger.New(),
	}
	for _, option := range options {
		option(client)
	}
	return client
}

// Address returns the host:port the client talks to.
func (c *Client) Address() string {
	return net.JoinHostPort(c.host, fmt.Sprintf("%d", c.port))
}

// Send transmits a single wire code and returns the reply line.
func (c *Client) Send(ctx context.Context, code WireCode) (string, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.exchange(ctx, code)
}

// Exec transmits a wire-code sequence under one lock acquisition so a
// fixed macro (HDMI In) cannot interleave with another caller. The reply
// of the last code is returned.
func (c *Client) Exec(ctx context.Context, codes ...WireCode) (string, error) {
	if len(codes) == 0 {
		return "", errors.New("no wire codes to send")
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	var reply string
	for _, code := range codes {
		var err error
		reply, err = c.exchange(ctx, code)
		if err != nil {
			return "", err
		}
	}
	return reply, nil
}

// exchange performs one connect/write/read/close cycle. Callers hold the mutex.
func (c *Client) exchange(ctx context.Context, code WireCode) (string, error) {
	dialer := net.Dialer{Timeout: c.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", c.Address())
	if err != nil {
		return "", fmt.Errorf("%w: dial %s: %v", ErrConnection, c.Address(), err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(string(code) + lineTerminator)); err != nil {
		return "", fmt.Errorf("%w: write %s: %v", ErrConnection, code, err)
	}

	deadline := time.Now().Add(c.readTimeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("%w: set deadline: %v", ErrConnection, err)
	}

	line, err := bufio.NewReader(conn).ReadString('\r')
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w: no reply to %s within %s", ErrTimeout, code, c.readTimeout)
		}
		return "", fmt.Errorf("%w: read reply to %s: %v", ErrConnection, code, err)
	}

	reply := strings.TrimSpace(line)

	c.logger.Debug().
		Str("host", c.host).
		Str("code", string(code)).
		Str("reply", reply).
		Msg("Telnet exchange completed")

	return reply, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
