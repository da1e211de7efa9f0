package metric

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishinsevens/Jassistant/errors"
)

// freePort asks the kernel for an unused TCP port.
func freePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := listener.Addr().(*net.TCPAddr).Port
	require.NoError(t, listener.Close())
	return port
}

func TestServerStartServeStop(t *testing.T) {
	registry := NewMetricsRegistry()
	registry.CoreMetrics().AdminOperations.WithLabelValues("stats").Inc()

	port := freePort(t)
	server := NewServer(port, "/metrics", registry)
	require.NoError(t, server.Start())

	url := fmt.Sprintf("http://127.0.0.1:%d/metrics", port)
	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return false
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)
		return true
	}, 5*time.Second, 20*time.Millisecond)
	assert.Contains(t, body, "jassistant_cache_admin_operations_total")

	// A second Start while running is a caller bug, not a restart.
	err := server.Start()
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	require.NoError(t, server.Stop(context.Background()))

	// Stop is idempotent, and the port is released.
	require.NoError(t, server.Stop(context.Background()))
	require.Eventually(t, func() bool {
		_, err := http.Get(url)
		return err != nil
	}, 5*time.Second, 20*time.Millisecond)
}

func TestServerRestartAfterStop(t *testing.T) {
	registry := NewMetricsRegistry()

	port := freePort(t)
	server := NewServer(port, "", registry)

	require.NoError(t, server.Start())
	require.NoError(t, server.Stop(context.Background()))
	require.NoError(t, server.Start())
	require.NoError(t, server.Stop(context.Background()))
}
