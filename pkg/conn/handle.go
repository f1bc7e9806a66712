package conn

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// Handle is the application-facing capability to send requests over a
// Connection and await their responses. It is safe for concurrent use by
// multiple goroutines.
type Handle struct {
	nextCSeq atomic.Uint32

	updates  chan<- pendingUpdate
	requests chan<- rtsp.Message
	state    *protocolState

	defaultTimeout time.Duration
	serverAddress  string
}

func newHandle(updates chan<- pendingUpdate, requests chan<- rtsp.Message, state *protocolState, defaultTimeout time.Duration, serverAddress string) *Handle {
	return &Handle{updates: updates, requests: requests, state: state, defaultTimeout: defaultTimeout, serverAddress: serverAddress}
}

// ServerAddress returns the remote endpoint this Handle's Connection is
// talking to, or "" for a transport that is not a net.Conn.
func (h *Handle) ServerAddress() string { return h.serverAddress }

// writeClosed returns the protocol state's write-closed signal, or a
// channel that never fires for a Handle constructed without a state (test
// doubles only — every real Handle has one).
func (h *Handle) writeClosed() <-chan struct{} {
	if h.state == nil {
		return nil
	}
	return h.state.WriteClosed()
}

// SendRequest assigns the next outbound CSeq, registers a pending
// correlation entry, injects the request into the sender's input set, and
// waits for a terminal outcome: a final response, cancellation (the
// connection's inbound response stream ended), or the caller's deadline
// expiring. 100 Continue responses extend the wait without completing it,
// matching RTSP 2.0's provisional-response semantics.
//
// Grounded on Client::send_request; the one-shot channel per pending
// request is this module's analog of Rust's oneshot::channel.
func (h *Handle) SendRequest(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
	cseq := rtsp.CSeq(h.nextCSeq.Add(1) - 1)
	req.Header.SetCSeq(cseq)

	if h.state != nil {
		if pair := h.state.snapshot(); !pair.Write.RequestsAllowed() {
			return nil, ErrConnectionClosed
		}
	}

	parent := ctx
	defaulted := false
	var cancel context.CancelFunc = func() {}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && h.defaultTimeout > 0 {
		ctx, cancel = context.WithTimeout(parent, h.defaultTimeout)
		defaulted = true
	}
	defer func() { cancel() }()

	ch := make(chan outcome, 1)
	select {
	case h.updates <- pendingUpdate{add: true, cseq: cseq, ch: ch}:
	case <-ctx.Done():
		return nil, ErrRequestTimedOut
	case <-h.writeClosed():
		return nil, ErrConnectionClosed
	}

	select {
	case h.requests <- rtsp.Message{Request: req}:
	case <-ctx.Done():
		h.removePending(cseq)
		return nil, ErrRequestTimedOut
	case <-h.writeClosed():
		h.removePending(cseq)
		return nil, ErrConnectionClosed
	}

	for {
		select {
		case o := <-ch:
			switch {
			case o.response != nil:
				return o.response, nil
			case o.cont != nil:
				ch = o.cont
				if defaulted {
					// A 100 Continue restarts the default per-request deadline.
					cancel()
					ctx, cancel = context.WithTimeout(parent, h.defaultTimeout)
				}
			case o.none:
				return nil, ErrRequestCancelled
			}

		case <-ctx.Done():
			h.removePending(cseq)
			return nil, ErrRequestTimedOut

		case <-h.writeClosed():
			h.removePending(cseq)
			return nil, ErrConnectionClosed
		}
	}
}

func (h *Handle) removePending(cseq rtsp.CSeq) {
	select {
	case h.updates <- pendingUpdate{add: false, removeOf: cseq}:
	default:
	}
}
