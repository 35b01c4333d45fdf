package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnreachableBackendReportsDisconnected(t *testing.T) {
	// Port 1 is never a Redis server, so the connection test must fail while
	// the client itself still exists for later retries.
	t.Setenv("CACHE_HOST", "127.0.0.1")
	t.Setenv("CACHE_PORT", "1")

	SetupCache()

	assert.NotNil(t, GetClient())
	assert.False(t, IsConnected())
}
