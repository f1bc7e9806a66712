package conn

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ethan/rtsp2-conn/pkg/rtsp"
)

func TestConnectionFullRoundTrip(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()

	serverSvc := ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		resp := rtsp.NewResponse(rtsp.OK)
		resp.Header.Set("Public", "OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN")
		return resp, nil
	})

	serverConn, _ := NewServer(serverRaw, serverSvc)
	defer serverConn.Close()

	clientConn, clientHandle := New(clientRaw)
	defer clientConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := rtsp.NewRequest(rtsp.Options, mustParseURIConn(t, "*"))
	resp, err := clientHandle.SendRequest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, rtsp.OK, resp.StatusCode)
	assert.Equal(t, "OPTIONS, DESCRIBE, SETUP, PLAY, TEARDOWN", resp.Header.Get("Public"))
}

func TestConnectionServerAnswersUnsupportedMethodNotImplemented(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()

	serverConn, _ := NewServer(serverRaw, ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		return rtsp.NotImplementedResponse(mustCSeq(t, req)), nil
	}))
	defer serverConn.Close()

	clientConn, clientHandle := New(clientRaw)
	defer clientConn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req := rtsp.NewRequest(rtsp.Announce, mustParseURIConn(t, "rtsp://example.com/stream1"))
	resp, err := clientHandle.SendRequest(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, rtsp.NotImplemented, resp.StatusCode)
}

func TestConnectionClosePropagatesToPeer(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()

	serverConn, _ := NewServer(serverRaw, ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		return rtsp.NewResponse(rtsp.OK), nil
	}))

	clientConn, clientHandle := New(clientRaw)
	defer clientConn.Close()

	require.NoError(t, serverConn.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := clientHandle.SendRequest(ctx, rtsp.NewRequest(rtsp.Options, mustParseURIConn(t, "*")))
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestConnectionErrReportsDecodeFailureAfterPeerCloses(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()

	serverConn, _ := NewServer(serverRaw, ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		return rtsp.NewResponse(rtsp.OK), nil
	}))
	require.NoError(t, serverConn.Close())

	clientConn, _ := New(clientRaw)
	defer clientConn.Close()

	require.Eventually(t, func() bool {
		return clientConn.Err() != nil
	}, time.Second, 5*time.Millisecond)

	var opErr *OperationError
	assert.ErrorAs(t, clientConn.Err(), &opErr)
}

func TestHandleServerAddressReflectsTransport(t *testing.T) {
	clientRaw, serverRaw := net.Pipe()

	serverConn, _ := NewServer(serverRaw, ServiceFunc(func(ctx context.Context, req *rtsp.Request) (*rtsp.Response, error) {
		return rtsp.NewResponse(rtsp.OK), nil
	}))
	defer serverConn.Close()

	clientConn, clientHandle := New(clientRaw)
	defer clientConn.Close()

	assert.NotEmpty(t, clientHandle.ServerAddress())
}

func mustParseURIConn(t *testing.T, raw string) rtsp.URI {
	t.Helper()
	u, err := rtsp.ParseURI(raw)
	require.NoError(t, err)
	return u
}

func mustCSeq(t *testing.T, req *rtsp.Request) rtsp.CSeq {
	t.Helper()
	c, err := req.Header.CSeq()
	require.NoError(t, err)
	return c
}
