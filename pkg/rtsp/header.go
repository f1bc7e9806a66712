package rtsp

import "net/textproto"

// Header is an RTSP header block. Header names are case-insensitive on the
// wire; Header canonicalizes them the same way net/textproto does for HTTP,
// which is the convention the rest of the Go ecosystem already expects.
type Header map[string][]string

// NewHeader returns an empty header block.
func NewHeader() Header { return make(Header) }

// Set replaces any existing values for key with a single value.
func (h Header) Set(key, value string) { h[textproto.CanonicalMIMEHeaderKey(key)] = []string{value} }

// Add appends value to any existing values for key.
func (h Header) Add(key, value string) {
	key = textproto.CanonicalMIMEHeaderKey(key)
	h[key] = append(h[key], value)
}

// Get returns the first value associated with key, or "" if absent.
func (h Header) Get(key string) string {
	values := h[textproto.CanonicalMIMEHeaderKey(key)]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// Values returns all values associated with key.
func (h Header) Values(key string) []string { return h[textproto.CanonicalMIMEHeaderKey(key)] }

// Del removes key entirely.
func (h Header) Del(key string) { delete(h, textproto.CanonicalMIMEHeaderKey(key)) }

// CSeq is a typed accessor for the "CSeq" header.
func (h Header) CSeq() (CSeq, error) { return ParseCSeq(h.Values("CSeq")) }

// SetCSeq stamps the "CSeq" header.
func (h Header) SetCSeq(c CSeq) { h.Set("CSeq", c.String()) }

// Clone returns a deep copy of the header block.
func (h Header) Clone() Header {
	out := make(Header, len(h))
	for k, v := range h {
		cp := make([]string, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
