package conn

import (
	"context"
	"io"
	"net"

	"golang.org/x/time/rate"

	"github.com/ethan/rtsp2-conn/pkg/logger"
	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// Connection is one live RTSP 2.0 duplex session: six cooperating
// goroutines sharing a single protocolState, a codec owning the
// transport, and a Handle for sending outbound requests. Construct with
// New or NewServer.
type Connection struct {
	state  *protocolState
	codec  *rtsp.Codec
	cancel context.CancelFunc
	done   chan struct{}
}

// New wires a Connection around rw with no inbound Service: incoming
// requests are answered 501 Not Implemented, matching a pure client that
// never expects the peer to originate requests of its own (PLAY_NOTIFY,
// REDIRECT aside).
func New(rw io.ReadWriteCloser, opts ...Option) (*Connection, *Handle) {
	return NewServer(rw, ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		cseq, _ := req.Header.CSeq()
		return rtsp.NotImplementedResponse(cseq), nil
	}), opts...)
}

// NewServer wires a Connection around rw that answers inbound requests
// using svc. Both client and server connections use this same
// constructor: RTSP 2.0 is peer-symmetric, so "server" here just means
// "has an application-level request handler", not a distinct wire role.
func NewServer(rw io.ReadWriteCloser, svc Service, opts ...Option) (*Connection, *Handle) {
	cfg := newConfig(opts)
	codec := rtsp.NewCodec(rw)
	state := newProtocolState()
	ctx, cancel := context.WithCancel(context.Background())

	decoded := make(chan decodeItem)
	incomingRequests := make(chan *rtsp.Request, cfg.RequestsBufferSize)
	incomingResponses := make(chan *rtsp.Response, cfg.ResponsesBufferSize)
	orderedRequests := make(chan *rtsp.Request)
	handlerResponses := make(chan rtsp.Message)
	errorResponses := make(chan rtsp.Message)
	outboundRequests := make(chan rtsp.Message)
	pendingUpdates := make(chan pendingUpdate)

	shedLimiter := rate.NewLimiter(rate.Limit(cfg.ShedRateLimit), cfg.ShedBurst)

	go runDecodeLoop(codec, decoded)
	go runDecodingTimer(state, codec.Events(), cfg.DecodeTimeout)
	go runSplitter(state, decoded, incomingRequests, incomingResponses, errorResponses)
	go runOrderer(ctx, state, cfg.RequestsBufferSize, shedLimiter, incomingRequests, orderedRequests, errorResponses)
	go runDriver(ctx, svc, orderedRequests, handlerResponses)
	go runCorrelator(incomingResponses, pendingUpdates)
	go runSender(state, []<-chan rtsp.Message{outboundRequests, handlerResponses, errorResponses}, codec.WriteMessage)

	conn := &Connection{state: state, codec: codec, cancel: cancel, done: make(chan struct{})}
	handle := newHandle(pendingUpdates, outboundRequests, state, cfg.RequestTimeout, serverAddress(rw))
	return conn, handle
}

// serverAddress reports rw's remote endpoint when rw is a net.Conn (net.Pipe
// included, which reports "pipe"), or "" for a transport that is not a
// net.Conn.
func serverAddress(rw io.ReadWriteCloser) string {
	if nc, ok := rw.(net.Conn); ok {
		if addr := nc.RemoteAddr(); addr != nil {
			return addr.String()
		}
	}
	return ""
}

// runDecodeLoop repeatedly calls codec.Decode, forwarding each result (or
// terminal error) onto decoded and then exiting. This is the bridge
// between the codec's synchronous Decode method and the splitter's
// channel-based event loop.
func runDecodeLoop(codec *rtsp.Codec, decoded chan<- decodeItem) {
	defer close(decoded)
	for {
		result, err := codec.Decode()
		if err != nil {
			decoded <- decodeItem{err: err}
			return
		}
		logger.Default().DebugRecv("message decoded", "valid", result.Message != nil)
		decoded <- decodeItem{result: result}
	}
}

// State returns a snapshot of the connection's current read/write state.
func (c *Connection) State() StatePair { return c.state.snapshot() }

// Err returns the *OperationError wrapping the terminal decode or sink
// failure that put either half of the connection into its Error state, or
// nil while the connection is healthy (or merely wound down cleanly via
// None, which carries no error). Request-scoped failures
// (ErrRequestTimedOut, ErrRequestCancelled, ErrConnectionClosed) are
// returned directly from Handle.SendRequest instead of through this
// accessor.
func (c *Connection) Err() error { return c.state.terminalErr() }

// Close tears the connection down: it cancels the context shared by the
// orderer/driver and closes the underlying codec, which in turn closes the
// transport and ends the decode loop.
func (c *Connection) Close() error {
	c.cancel()
	return c.codec.Close()
}
