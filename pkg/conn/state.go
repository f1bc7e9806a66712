package conn

import (
	"sync"

	"github.com/ethan/rtsp2-conn/pkg/logger"
)

// stateKind distinguishes the tagged values a ReadState/WriteState can
// hold; the payload for stateError lives alongside it rather than in a
// separate field, mirroring the Rust source's `Error(Error)` variant.
type stateKind int

const (
	stateAll stateKind = iota
	stateRequest
	stateResponse
	stateNone
	stateError
)

// ReadState describes which kinds of inbound messages the connection will
// still accept.
type ReadState struct {
	kind stateKind
	err  error
}

// WriteState describes which kinds of outbound messages the connection
// will still emit.
type WriteState struct {
	kind stateKind
	err  error
}

func readAll() ReadState           { return ReadState{kind: stateAll} }
func readRequest() ReadState       { return ReadState{kind: stateRequest} }
func readResponse() ReadState      { return ReadState{kind: stateResponse} }
func readNone() ReadState          { return ReadState{kind: stateNone} }
func readError(err error) ReadState { return ReadState{kind: stateError, err: err} }

func writeAll() WriteState           { return WriteState{kind: stateAll} }
func writeRequest() WriteState       { return WriteState{kind: stateRequest} }
func writeResponse() WriteState      { return WriteState{kind: stateResponse} }
func writeNone() WriteState          { return WriteState{kind: stateNone} }
func writeError(err error) WriteState { return WriteState{kind: stateError, err: err} }

// RequestsAllowed reports whether requests may still be read (ReadState) or
// sent (WriteState).
func (s ReadState) RequestsAllowed() bool  { return s.kind == stateAll || s.kind == stateRequest }
func (s ReadState) ResponsesAllowed() bool { return s.kind == stateAll || s.kind == stateResponse }
func (s ReadState) IsNone() bool           { return s.kind == stateNone }
func (s ReadState) IsError() bool          { return s.kind == stateError }
func (s ReadState) Err() error             { return s.err }

func (s WriteState) RequestsAllowed() bool  { return s.kind == stateAll || s.kind == stateRequest }
func (s WriteState) ResponsesAllowed() bool { return s.kind == stateAll || s.kind == stateResponse }
func (s WriteState) IsNone() bool           { return s.kind == stateNone }
func (s WriteState) IsError() bool          { return s.kind == stateError }
func (s WriteState) Err() error             { return s.err }

func (s ReadState) String() string  { return stateKindString(s.kind, s.err) }
func (s WriteState) String() string { return stateKindString(s.kind, s.err) }

func stateKindString(k stateKind, err error) string {
	switch k {
	case stateAll:
		return "All"
	case stateRequest:
		return "Request"
	case stateResponse:
		return "Response"
	case stateNone:
		return "None"
	case stateError:
		return "Error(" + err.Error() + ")"
	default:
		return "Unknown"
	}
}

// tryUpdateReadState applies the same narrowing rule the Rust
// `state_type!` macro generates for both ReadState and WriteState: `All`
// is never accepted as an update, `Error` always wins over any non-error
// state, and `Request`/`Response` collapse an opposing in-progress state
// to `None` rather than being rejected outright.
func tryUpdateReadState(cur *ReadState, next ReadState) bool {
	switch next.kind {
	case stateAll:
		return false
	case stateRequest:
		if cur.kind == stateAll {
			*cur = readRequest()
			return true
		}
		if cur.kind == stateResponse {
			*cur = readNone()
			return true
		}
		return false
	case stateResponse:
		if cur.kind == stateAll {
			*cur = readResponse()
			return true
		}
		if cur.kind == stateRequest {
			*cur = readNone()
			return true
		}
		return false
	case stateNone:
		if cur.kind != stateNone && cur.kind != stateError {
			*cur = readNone()
			return true
		}
		return false
	case stateError:
		if cur.kind != stateError {
			*cur = next
			return true
		}
		return false
	}
	return false
}

func tryUpdateWriteState(cur *WriteState, next WriteState) bool {
	switch next.kind {
	case stateAll:
		return false
	case stateRequest:
		if cur.kind == stateAll {
			*cur = writeRequest()
			return true
		}
		if cur.kind == stateResponse {
			*cur = writeNone()
			return true
		}
		return false
	case stateResponse:
		if cur.kind == stateAll {
			*cur = writeResponse()
			return true
		}
		if cur.kind == stateRequest {
			*cur = writeNone()
			return true
		}
		return false
	case stateNone:
		if cur.kind != stateNone && cur.kind != stateError {
			*cur = writeNone()
			return true
		}
		return false
	case stateError:
		if cur.kind != stateError {
			*cur = next
			return true
		}
		return false
	}
	return false
}

// StatePair is a snapshot of both halves of the protocol state, broadcast
// to every task whenever either half changes.
type StatePair struct {
	Read  ReadState
	Write WriteState
}

// protocolState is the single piece of shared mutable state every task in
// a Connection coordinates through. It is deliberately narrow: a mutex
// around two tagged values plus a fan-out of change notifications, with no
// other responsibility.
type protocolState struct {
	mu    sync.Mutex
	read  ReadState
	write WriteState

	subsMu sync.Mutex
	subs   []chan StatePair

	writeClosedOnce sync.Once
	writeClosed     chan struct{}
}

func newProtocolState() *protocolState {
	return &protocolState{read: readAll(), write: writeAll(), writeClosed: make(chan struct{})}
}

// WriteClosed returns a channel that is closed the moment the write half
// narrows to where it no longer accepts outbound requests (Response, None,
// or Error — the lattice only narrows, so this is permanent once it
// happens). Handle.SendRequest selects on this to return
// ErrConnectionClosed promptly instead of waiting out the caller's
// deadline or silently having its request dropped by the sender.
func (p *protocolState) WriteClosed() <-chan struct{} { return p.writeClosed }

// terminalErr reports the OperationError a Connection should surface once
// either half of the protocol state has recorded a terminal error, or nil
// while the connection is still healthy.
func (p *protocolState) terminalErr() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.write.IsError() {
		return &OperationError{Cause: p.write.Err()}
	}
	if p.read.IsError() {
		return &OperationError{Cause: p.read.Err()}
	}
	return nil
}

func (p *protocolState) noteWriteTerminal(w WriteState) {
	if !w.RequestsAllowed() {
		p.writeClosedOnce.Do(func() { close(p.writeClosed) })
	}
}

func (p *protocolState) snapshot() StatePair {
	p.mu.Lock()
	defer p.mu.Unlock()
	return StatePair{Read: p.read, Write: p.write}
}

// subscribe returns a channel that receives every subsequent state
// transition. The channel is unbounded in practice: transitions are rare
// (there are at most a handful over a connection's lifetime since the
// lattice only narrows), so a modest buffer never fills.
func (p *protocolState) subscribe() <-chan StatePair {
	ch := make(chan StatePair, 16)
	p.subsMu.Lock()
	p.subs = append(p.subs, ch)
	p.subsMu.Unlock()
	return ch
}

func (p *protocolState) broadcast(pair StatePair) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, ch := range p.subs {
		select {
		case ch <- pair:
		default:
			// A slow subscriber does not block state transitions; a
			// notification that finds its buffer full is dropped for that
			// subscriber. With at most a handful of transitions per
			// connection, the buffer of 16 does not fill in practice.
		}
	}
}

func (p *protocolState) updateReadState(next ReadState) {
	p.mu.Lock()
	before := p.read
	changed := tryUpdateReadState(&p.read, next)
	pair := StatePair{Read: p.read, Write: p.write}
	p.mu.Unlock()
	if changed {
		logger.Default().DebugStateTransition("read", before, pair.Read)
		p.broadcast(pair)
	}
}

func (p *protocolState) updateWriteState(next WriteState) {
	p.mu.Lock()
	before := p.write
	changed := tryUpdateWriteState(&p.write, next)
	pair := StatePair{Read: p.read, Write: p.write}
	p.mu.Unlock()
	if changed {
		logger.Default().DebugStateTransition("write", before, pair.Write)
		p.noteWriteTerminal(pair.Write)
		p.broadcast(pair)
	}
}

func (p *protocolState) updateState(nextRead ReadState, nextWrite WriteState) {
	p.mu.Lock()
	beforeRead, beforeWrite := p.read, p.write
	changedRead := tryUpdateReadState(&p.read, nextRead)
	changedWrite := tryUpdateWriteState(&p.write, nextWrite)
	pair := StatePair{Read: p.read, Write: p.write}
	p.mu.Unlock()
	if changedRead {
		logger.Default().DebugStateTransition("read", beforeRead, pair.Read)
	}
	if changedWrite {
		logger.Default().DebugStateTransition("write", beforeWrite, pair.Write)
		p.noteWriteTerminal(pair.Write)
	}
	if changedRead || changedWrite {
		p.broadcast(pair)
	}
}
