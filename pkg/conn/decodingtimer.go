package conn

import (
	"time"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// runDecodingTimer watches the codec's lifecycle events and declares the
// read half dead if a decode starts but does not finish within timeout.
// Encoding events are ignored; they say nothing about whether the peer is
// still readable. The event stream ends when the codec is closed, which
// closes the transport in both directions, so the connection is fully
// closed.
//
// Grounded on create_decoding_timer_task: a timer starts disarmed, arms on
// DecodingStarted, and disarms on DecodingEnded, racing the timer against
// the next event each iteration.
func runDecodingTimer(state *protocolState, events <-chan rtsp.CodecEvent, timeout time.Duration) {
	var timer *time.Timer
	var timerC <-chan time.Time

	disarm := func() {
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}
	defer disarm()

	for {
		select {
		case <-timerC:
			state.updateState(readError(ErrDecodingTimedOut), writeResponse())
			return

		case event, ok := <-events:
			if !ok {
				state.updateState(readNone(), writeNone())
				return
			}
			switch event {
			case rtsp.DecodingStarted:
				disarm()
				timer = time.NewTimer(timeout)
				timerC = timer.C
			case rtsp.DecodingEnded:
				disarm()
			}
		}
	}
}
