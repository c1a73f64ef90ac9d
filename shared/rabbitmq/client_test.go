package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisconnectedClient(t *testing.T) {
	c := &Client{logger: slog.New(slog.DiscardHandler)}

	assert.False(t, c.IsConnected())

	err := c.PublishJobReady(context.Background(), "job-1", "generate")
	assert.Error(t, err)

	_, err = c.Consume("tag")
	assert.Error(t, err)

	require.NoError(t, c.Close())
	assert.False(t, c.IsConnected())
}

func TestConnectionFlagConcurrentAccess(t *testing.T) {
	c := &Client{logger: slog.New(slog.DiscardHandler)}
	c.isConnected.Store(true)

	// Close flips the flag while other goroutines read it; run under
	// -race this catches unsynchronized access.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IsConnected()
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.Close()
	}()

	wg.Wait()
	assert.False(t, c.IsConnected())
}
