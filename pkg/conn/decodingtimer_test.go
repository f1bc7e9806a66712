package conn

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

func TestDecodingTimerFiresOnStall(t *testing.T) {
	state := newProtocolState()
	events := make(chan rtsp.CodecEvent, 1)
	done := make(chan struct{})

	go func() {
		runDecodingTimer(state, events, 20*time.Millisecond)
		close(done)
	}()

	events <- rtsp.DecodingStarted

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("decoding timer never fired")
	}

	snap := state.snapshot()
	require.True(t, snap.Read.IsError())
	assert.ErrorIs(t, snap.Read.Err(), ErrDecodingTimedOut)
}

func TestDecodingTimerDisarmsOnCompletion(t *testing.T) {
	state := newProtocolState()
	events := make(chan rtsp.CodecEvent, 2)
	done := make(chan struct{})

	go func() {
		runDecodingTimer(state, events, 30*time.Millisecond)
		close(done)
	}()

	events <- rtsp.DecodingStarted
	events <- rtsp.DecodingEnded

	// The timer should not fire after disarming; closing the event stream
	// is the only thing that ends the task from here.
	time.Sleep(60 * time.Millisecond)
	assert.False(t, state.snapshot().Read.IsError())

	close(events)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("decoding timer did not exit on event stream close")
	}
	assert.True(t, state.snapshot().Read.IsNone())
}
