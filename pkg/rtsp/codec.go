package rtsp

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
)

// CodecEvent marks the start and end of a single decode or encode
// operation. The decoding timer in package conn watches these to detect a
// peer that starts sending a message and then stalls mid-frame.
type CodecEvent int

const (
	DecodingStarted CodecEvent = iota
	DecodingEnded
	EncodingStarted
	EncodingEnded
)

// Codec turns a byte-oriented duplex connection into a stream of decoded
// messages plus a side channel of lifecycle events, and accepts Message
// values to serialize back onto the wire. It mirrors the framing the
// teacher's RTSP client used for its own response parser, generalized to
// also decode request lines so either side of a connection can read the
// other's requests.
type Codec struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer

	writeMu sync.Mutex
	events  chan CodecEvent
}

// eventBufferSize is generous enough that a codec never blocks emitting an
// event into it under normal request/response traffic; the decoding timer
// drains it continuously.
const eventBufferSize = 64

// NewCodec wraps rw for framed RTSP message exchange.
func NewCodec(rw io.ReadWriteCloser) *Codec {
	return &Codec{
		reader: bufio.NewReaderSize(rw, 65536),
		writer: rw,
		closer: rw,
		events: make(chan CodecEvent, eventBufferSize),
	}
}

// Events returns the codec's lifecycle event stream. It is closed when the
// codec is closed.
func (c *Codec) Events() <-chan CodecEvent { return c.events }

// Close closes the underlying connection and the event stream. Call it at
// most once. A Decode or WriteMessage still running at that point is not
// waited for: its I/O fails once the transport is closed, and emit drops
// events sent after the event stream is closed (package conn closes the
// codec precisely to end its running decode loop).
func (c *Codec) Close() error {
	close(c.events)
	return c.closer.Close()
}

func (c *Codec) emit(e CodecEvent) {
	defer func() { recover() }() // events channel may already be closed during shutdown
	c.events <- e
}

// Decode reads the next complete message off the wire. It returns a
// DecodeResult describing either a well-formed Message or a recoverable
// InvalidMessage. It returns a non-nil error only for transport-level
// failures (I/O error, EOF, corrupted framing) that make it impossible to
// find the next message boundary; such an error ends the decode stream
// permanently.
func (c *Codec) Decode() (DecodeResult, error) {
	// Peek blocks until at least one byte is available (or the transport
	// fails/closes) without consuming it. Only once a message has actually
	// started arriving do we emit DecodingStarted, so the decoding timer
	// bounds a stuck partial decode rather than ordinary idle time between
	// messages.
	if _, err := c.reader.Peek(1); err != nil {
		return DecodeResult{}, err
	}

	c.emit(DecodingStarted)
	defer c.emit(DecodingEnded)

	startLine, err := c.reader.ReadString('\n')
	if err != nil {
		return DecodeResult{}, err
	}
	startLine = strings.TrimRight(startLine, "\r\n")

	header, body, err := c.readHeaderAndBody()
	if err != nil {
		return DecodeResult{}, err
	}

	if strings.HasPrefix(startLine, "RTSP/") {
		return c.decodeResponse(startLine, header, body)
	}
	return c.decodeRequest(startLine, header, body)
}

func (c *Codec) readHeaderAndBody() (Header, []byte, error) {
	header := NewHeader()
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return nil, nil, err
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		idx := strings.IndexByte(line, ':')
		if idx <= 0 {
			continue
		}
		header.Add(strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]))
	}

	var body []byte
	if cl := header.Get("Content-Length"); cl != "" {
		n, err := strconv.Atoi(strings.TrimSpace(cl))
		if err == nil && n > 0 {
			body = make([]byte, n)
			if _, err := io.ReadFull(c.reader, body); err != nil {
				return nil, nil, err
			}
		}
	}
	return header, body, nil
}

func (c *Codec) decodeRequest(startLine string, header Header, body []byte) (DecodeResult, error) {
	parts := strings.SplitN(startLine, " ", 3)
	if len(parts) != 3 {
		return DecodeResult{Invalid: &InvalidMessage{Request: true, Err: errInvalidRequestLine}}, nil
	}

	uri, err := ParseURI(parts[1])
	if err != nil {
		return DecodeResult{Invalid: &InvalidMessage{Request: true, Err: err}}, nil
	}

	if _, err := header.CSeq(); err != nil {
		return DecodeResult{Invalid: &InvalidMessage{Request: true, Err: err}}, nil
	}

	req := &Request{
		Method:  Method(parts[0]),
		URI:     uri,
		Version: parts[2],
		Header:  header,
		Body:    body,
	}
	return DecodeResult{Message: &Message{Request: req}}, nil
}

func (c *Codec) decodeResponse(startLine string, header Header, body []byte) (DecodeResult, error) {
	parts := strings.SplitN(startLine, " ", 3)
	if len(parts) < 2 {
		return DecodeResult{Invalid: &InvalidMessage{Request: false, Err: errInvalidStatusLine}}, nil
	}
	code, err := strconv.Atoi(parts[1])
	if err != nil {
		return DecodeResult{Invalid: &InvalidMessage{Request: false, Err: errInvalidStatusLine}}, nil
	}

	resp := &Response{
		Version:    parts[0],
		StatusCode: StatusCode(code),
		Header:     header,
		Body:       body,
	}
	return DecodeResult{Message: &Message{Response: resp}}, nil
}

// WriteMessage serializes and writes a single message, guarded by a mutex
// so concurrent callers cannot interleave their bytes (within package conn
// the sender task is the only caller).
func (c *Codec) WriteMessage(m Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.emit(EncodingStarted)
	defer c.emit(EncodingEnded)

	var b strings.Builder
	switch {
	case m.Request != nil:
		writeRequestLine(&b, m.Request)
		writeHeaderBlock(&b, m.Request.Header, len(m.Request.Body))
	case m.Response != nil:
		writeStatusLine(&b, m.Response)
		writeHeaderBlock(&b, m.Response.Header, len(m.Response.Body))
	default:
		return fmt.Errorf("rtsp: message has neither request nor response")
	}

	if _, err := io.WriteString(c.writer, b.String()); err != nil {
		return err
	}
	if m.Request != nil && len(m.Request.Body) > 0 {
		if _, err := c.writer.Write(m.Request.Body); err != nil {
			return err
		}
	}
	if m.Response != nil && len(m.Response.Body) > 0 {
		if _, err := c.writer.Write(m.Response.Body); err != nil {
			return err
		}
	}
	return nil
}

func writeRequestLine(b *strings.Builder, r *Request) {
	fmt.Fprintf(b, "%s %s %s\r\n", r.Method, r.URI.String(), r.Version)
}

func writeStatusLine(b *strings.Builder, r *Response) {
	fmt.Fprintf(b, "RTSP/2.0 %s\r\n", r.StatusCode.String())
}

func writeHeaderBlock(b *strings.Builder, h Header, bodyLen int) {
	for name, values := range h {
		for _, v := range values {
			fmt.Fprintf(b, "%s: %s\r\n", name, v)
		}
	}
	if bodyLen > 0 && h.Get("Content-Length") == "" {
		fmt.Fprintf(b, "Content-Length: %d\r\n", bodyLen)
	}
	b.WriteString("\r\n")
}
