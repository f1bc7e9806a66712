package rtsp

import (
	"net/url"
	"strings"
)

// URI wraps a parsed request URI. RTSP request lines can carry an asterisk
// ("*") in place of a URI for connection-wide requests such as OPTIONS.
type URI struct {
	raw      string
	parsed   *url.URL
	asterisk bool
}

// ParseURI parses a request-target as it appears on an RTSP request line.
func ParseURI(raw string) (URI, error) {
	if raw == "*" {
		return URI{raw: raw, asterisk: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return URI{}, err
	}
	return URI{raw: raw, parsed: u}, nil
}

// IsAsterisk reports whether the URI is the connection-wide "*" form.
func (u URI) IsAsterisk() bool { return u.asterisk }

// String returns the URI in the form it should appear on the wire.
func (u URI) String() string {
	if u.asterisk {
		return "*"
	}
	if u.parsed != nil {
		return u.parsed.String()
	}
	return u.raw
}

// Normalize lower-cases the host. The path, including any trailing slash,
// is left as it is.
func (u *URI) Normalize() {
	if u.asterisk || u.parsed == nil {
		return
	}
	u.parsed.Host = strings.ToLower(u.parsed.Host)
}

// Hostname returns the URI's host, excluding any port, or "" for an
// asterisk URI.
func (u URI) Hostname() string {
	if u.parsed == nil {
		return ""
	}
	return u.parsed.Hostname()
}

// Port returns the URI's port, or "" if none was specified.
func (u URI) Port() string {
	if u.parsed == nil {
		return ""
	}
	return u.parsed.Port()
}
