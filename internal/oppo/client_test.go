package oppo_test

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otto/internal/oppo"
)

func TestClientSend(t *testing.T) {
	t.Run("sends command and reads one reply line", func(t *testing.T) {
		fake := newFakePlayer(t)
		host, port := fake.hostPort(t)
		client := oppo.NewClient(host, oppo.WithPort(port))

		reply, err := client.Send(context.Background(), oppo.QueryPower)
		require.NoError(t, err)
		assert.Equal(t, "@OK ON", reply)
		assert.Equal(t, []string{"#QPW"}, fake.receivedCodes())
	})

	t.Run("unreachable device fails with connection error", func(t *testing.T) {
		// Grab a free port and close it again so nothing listens there
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		host, port := mustSplitHostPort(t, listener.Addr().String())
		listener.Close()

		client := oppo.NewClient(host,
			oppo.WithPort(port),
			oppo.WithTimeouts(200*time.Millisecond, 200*time.Millisecond))

		_, err = client.Send(context.Background(), oppo.PowerOn)
		assert.ErrorIs(t, err, oppo.ErrConnection)
	})

	t.Run("silent device fails with timeout error", func(t *testing.T) {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		t.Cleanup(func() { listener.Close() })

		// Accept connections but never reply
		go func() {
			for {
				conn, err := listener.Accept()
				if err != nil {
					return
				}
				defer conn.Close()
			}
		}()

		host, port := mustSplitHostPort(t, listener.Addr().String())
		client := oppo.NewClient(host,
			oppo.WithPort(port),
			oppo.WithTimeouts(time.Second, 100*time.Millisecond))

		_, err = client.Send(context.Background(), oppo.QueryVolume)
		assert.ErrorIs(t, err, oppo.ErrTimeout)
	})
}

func TestClientExec(t *testing.T) {
	t.Run("sends sequence and returns last reply", func(t *testing.T) {
		fake := newFakePlayer(t)
		host, port := fake.hostPort(t)
		client := oppo.NewClient(host, oppo.WithPort(port))

		reply, err := client.Exec(context.Background(), oppo.Source, oppo.Source)
		require.NoError(t, err)
		assert.Equal(t, "@OK", reply)
		assert.Equal(t, []string{"#SRC", "#SRC"}, fake.receivedCodes())
	})

	t.Run("empty sequence fails", func(t *testing.T) {
		client := oppo.NewClient("127.0.0.1")
		_, err := client.Exec(context.Background())
		assert.Error(t, err)
	})
}

func TestClientAddress(t *testing.T) {
	client := oppo.NewClient("192.168.1.50")
	assert.Equal(t, "192.168.1.50:23", client.Address())

	client = oppo.NewClient("192.168.1.50", oppo.WithPort(2323))
	assert.Equal(t, "192.168.1.50:2323", client.Address())
}

func mustSplitHostPort(t *testing.T, address string) (string, int) {
	t.Helper()

	host, portStr, err := net.SplitHostPort(address)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return host, port
}
