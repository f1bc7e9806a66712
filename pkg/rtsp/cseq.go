package rtsp

import (
	"strconv"
	"strings"
)

// CSeq is the Command Sequence header value: a 32-bit counter that wraps on
// overflow and is used to correlate a request with its response(s).
type CSeq uint32

// ParseCSeq parses the raw header value(s) found under the "CSeq" header
// name. RTSP requires exactly one CSeq value per message; zero or more than
// one is an error.
func ParseCSeq(values []string) (CSeq, error) {
	if len(values) != 1 {
		return 0, errInvalidCSeq
	}
	v := strings.TrimSpace(values[0])
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		return 0, errInvalidCSeq
	}
	return CSeq(n), nil
}

// Next returns the next sequence number, wrapping from the maximum uint32
// back to zero.
func (c CSeq) Next() CSeq { return c + 1 }

// Distance returns the wrapping forward distance from other to c, i.e. the
// number of increments needed to reach c starting at other.
func (c CSeq) Distance(other CSeq) uint32 { return uint32(c - other) }

func (c CSeq) String() string { return strconv.FormatUint(uint64(c), 10) }
