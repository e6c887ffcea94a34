package control

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_SendReachesEveryReceiver(t *testing.T) {
	b := NewBroadcaster(DefaultCapacity)
	first := b.Subscribe()
	second := b.Subscribe()

	assert.Equal(t, 2, b.Send(Shutdown))
	assert.Equal(t, Shutdown, <-first)
	assert.Equal(t, Shutdown, <-second)
}

func TestBroadcaster_CloseIsObservedByAllTasks(t *testing.T) {
	b := NewBroadcaster(1)

	var wg sync.WaitGroup
	exited := make(chan string, 3)
	for _, name := range []string{"session", "poller", "relay"} {
		rx := b.Subscribe()
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-rx
			exited <- name
		}()
	}

	b.Shutdown()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not observe shutdown")
	}
	assert.Len(t, exited, 3)
}

func TestBroadcaster_FullReceiverStillSeesClose(t *testing.T) {
	b := NewBroadcaster(1)
	rx := b.Subscribe()

	assert.Equal(t, 1, b.Send(Shutdown))
	assert.Equal(t, 0, b.Send(Shutdown), "buffer is full")

	b.Shutdown()
	sig, ok := <-rx
	require.True(t, ok)
	assert.Equal(t, Shutdown, sig)
	_, ok = <-rx
	assert.False(t, ok)
}

func TestBroadcaster_SubscribeAfterClose(t *testing.T) {
	b := NewBroadcaster(DefaultCapacity)
	b.Close()
	b.Close()

	_, ok := <-b.Subscribe()
	assert.False(t, ok)
	assert.Equal(t, 0, b.Send(Shutdown))
}
