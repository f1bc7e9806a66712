package conn

import "time"

// Config holds the tunables for a Connection. New and NewServer build it
// from DefaultConfig plus a set of Option values, grpc-go's DialOption
// style — the zero value is
// never used directly because the defaults below are meaningful RTSP 2.0
// behavior, not just zero-friendly placeholders.
type Config struct {
	DecodeTimeout       time.Duration
	RequestsBufferSize  int
	ResponsesBufferSize int
	RequestTimeout      time.Duration
	ShedRateLimit       float64
	ShedBurst           int
}

// Option configures a Connection at construction time.
type Option func(*Config)

// DefaultConfig returns the configuration defaults called out in the
// external interfaces table: a 10s decode timeout, a reordering/queue
// depth of 10 messages in each direction, a 30s default per-request
// timeout, and a 5/s (burst 5) ceiling on synthesized 503 responses.
func DefaultConfig() Config {
	return Config{
		DecodeTimeout:       10 * time.Second,
		RequestsBufferSize:  10,
		ResponsesBufferSize: 10,
		RequestTimeout:      30 * time.Second,
		ShedRateLimit:       5,
		ShedBurst:           5,
	}
}

// WithDecodeTimeout overrides the maximum wall-clock time permitted
// between a DecodingStarted and DecodingEnded codec event.
func WithDecodeTimeout(d time.Duration) Option {
	return func(c *Config) { c.DecodeTimeout = d }
}

// WithRequestsBufferSize overrides both the out-of-order CSeq reordering
// window and the splitter's inbound request queue depth.
func WithRequestsBufferSize(n int) Option {
	return func(c *Config) { c.RequestsBufferSize = n }
}

// WithResponsesBufferSize overrides the splitter's inbound response queue
// depth.
func WithResponsesBufferSize(n int) Option {
	return func(c *Config) { c.ResponsesBufferSize = n }
}

// WithRequestTimeout overrides the default per-call deadline used by
// Handle.SendRequest when the caller's context carries none of its own.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Config) { c.RequestTimeout = d }
}

// WithShedRateLimit overrides the token-bucket rate (and burst) at which
// the orderer is willing to synthesize 503 Service Unavailable responses,
// bounding how much a peer flooding far-future CSeqs can turn the shedding
// mechanism itself into an amplification vector.
func WithShedRateLimit(perSecond float64, burst int) Option {
	return func(c *Config) {
		c.ShedRateLimit = perSecond
		c.ShedBurst = burst
	}
}

func newConfig(opts []Option) Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
