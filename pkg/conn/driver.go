package conn

import (
	"context"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

// Service is the application-provided capability that answers inbound
// requests. It mirrors the backpressure contract tower's Service trait
// provides in Rust: callers must call PollReady before Call and must not
// call Call after PollReady returns a non-nil error.
type Service interface {
	// PollReady returns nil, after blocking if it needs to, once the
	// service can accept another Call. The
	// driver calls it for each ordered request it has taken, before
	// calling Call with that request; a non-nil error stops the driver, so
	// that request and every later one go unanswered.
	PollReady(ctx context.Context) error

	// Call answers a single request. Returning an error causes the driver
	// to synthesize a 500 Internal Server Error carrying the request's
	// CSeq rather than propagate the error anywhere else.
	Call(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error)
}

// ServiceFunc adapts a plain function to Service for handlers that need no
// backpressure signal of their own.
type ServiceFunc func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error)

func (f ServiceFunc) PollReady(ctx context.Context) error { return nil }
func (f ServiceFunc) Call(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
	return f(ctx, req)
}

// runDriver pulls ordered requests one at a time, waits for the service to
// report readiness, invokes it, and enqueues the resulting response (or a
// synthesized 500) onto the outgoing channel. It owns stamping the
// request's CSeq onto the response so application Service implementations
// are not required to do so themselves.
func runDriver(ctx context.Context, svc Service, ordered <-chan *rtsp.Request, outgoing chan<- rtsp.Message) {
	defer close(outgoing)

	for req := range ordered {
		if err := svc.PollReady(ctx); err != nil {
			return
		}

		resp, err := svc.Call(ctx, req)
		cseq, _ := req.Header.CSeq()

		if err != nil {
			resp = rtsp.InternalServerErrorResponse(cseq)
		} else if resp != nil {
			if resp.Header == nil {
				resp.Header = rtsp.NewHeader()
			}
			if _, err := resp.Header.CSeq(); err != nil {
				resp.Header.SetCSeq(cseq)
			}
		}

		select {
		case outgoing <- rtsp.Message{Response: resp}:
		case <-ctx.Done():
			return
		}
	}
}
