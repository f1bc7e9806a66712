package rtsp

import "fmt"

// StatusCode is an RTSP 2.0 response status code. RTSP reuses most of
// HTTP's numbering scheme but defines its own reason phrases and adds a
// handful of RTSP-specific codes.
type StatusCode int

const (
	Continue StatusCode = 100

	OK StatusCode = 200

	BadRequest                    StatusCode = 400
	Unauthorized                  StatusCode = 401
	Forbidden                     StatusCode = 403
	NotFound                      StatusCode = 404
	MethodNotAllowed              StatusCode = 405
	RequestTimeout                StatusCode = 408
	SessionNotFound               StatusCode = 454
	HeaderFieldNotValidForResource StatusCode = 456
	InvalidRange                  StatusCode = 457

	InternalServerError StatusCode = 500
	NotImplemented      StatusCode = 501
	ServiceUnavailable  StatusCode = 503
	VersionNotSupported StatusCode = 505
)

// IsInformational reports whether the code is a 1xx provisional response
// such as 100 Continue.
func (s StatusCode) IsInformational() bool { return s >= 100 && s < 200 }

// IsSuccess reports whether the code is a 2xx final response.
func (s StatusCode) IsSuccess() bool { return s >= 200 && s < 300 }

func (s StatusCode) String() string {
	if phrase, ok := reasonPhrases[s]; ok {
		return fmt.Sprintf("%d %s", int(s), phrase)
	}
	return fmt.Sprintf("%d", int(s))
}

var reasonPhrases = map[StatusCode]string{
	Continue:                       "Continue",
	OK:                             "OK",
	BadRequest:                     "Bad Request",
	Unauthorized:                   "Unauthorized",
	Forbidden:                      "Forbidden",
	NotFound:                       "Not Found",
	MethodNotAllowed:               "Method Not Allowed",
	RequestTimeout:                 "Request Timeout",
	SessionNotFound:                "Session Not Found",
	HeaderFieldNotValidForResource: "Header Field Not Valid for Resource",
	InvalidRange:                   "Invalid Range",
	InternalServerError:            "Internal Server Error",
	NotImplemented:                 "Not Implemented",
	ServiceUnavailable:             "Service Unavailable",
	VersionNotSupported:            "RTSP Version Not Supported",
}
