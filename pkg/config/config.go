package config

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethan/rtsp2-conn/pkg/conn"
)

// Config holds the operational tunables for an rtspserver/rtspclient
// process: where to listen or dial, and the connection engine's timeouts
// and buffer depths.
type Config struct {
	ListenAddr string

	DecodeTimeout       time.Duration
	RequestsBufferSize  int
	ResponsesBufferSize int
	RequestTimeout      time.Duration
	ShedRateLimit       float64
	ShedBurst           int
}

// Load reads configuration from a .env-style file: blank lines and lines
// starting with "#" are skipped, everything else is a "key=value" pair.
// Values are URL-unescaped the same way the original deployment's secrets
// file was, in case an operator copies a value straight out of a URL query
// string.
func Load(envPath string) (*Config, error) {
	file, err := os.Open(envPath)
	if err != nil {
		return nil, fmt.Errorf("open env file: %w", err)
	}
	defer file.Close()

	cfg := defaultConfig()
	scanner := bufio.NewScanner(file)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		// URL decode values that might be encoded
		decodedValue, err := url.QueryUnescape(value)
		if err != nil {
			// If decode fails, use original value
			decodedValue = value
		}

		if err := cfg.set(key, decodedValue); err != nil {
			return nil, fmt.Errorf("line %q: %w", line, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan env file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func defaultConfig() *Config {
	d := conn.DefaultConfig()
	return &Config{
		ListenAddr:          ":5540",
		DecodeTimeout:       d.DecodeTimeout,
		RequestsBufferSize:  d.RequestsBufferSize,
		ResponsesBufferSize: d.ResponsesBufferSize,
		RequestTimeout:      d.RequestTimeout,
		ShedRateLimit:       d.ShedRateLimit,
		ShedBurst:           d.ShedBurst,
	}
}

func (c *Config) set(key, value string) error {
	switch key {
	case "listen_addr":
		c.ListenAddr = value
	case "decode_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("decode_timeout: %w", err)
		}
		c.DecodeTimeout = d
	case "requests_buffer_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("requests_buffer_size: %w", err)
		}
		c.RequestsBufferSize = n
	case "responses_buffer_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("responses_buffer_size: %w", err)
		}
		c.ResponsesBufferSize = n
	case "request_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		c.RequestTimeout = d
	case "shed_rate_limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("shed_rate_limit: %w", err)
		}
		c.ShedRateLimit = f
	case "shed_burst":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("shed_burst: %w", err)
		}
		c.ShedBurst = n
	}
	return nil
}

// Validate checks that all configuration fields hold sane values.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("missing listen_addr")
	}
	if c.DecodeTimeout <= 0 {
		return fmt.Errorf("decode_timeout must be positive")
	}
	if c.RequestsBufferSize <= 0 {
		return fmt.Errorf("requests_buffer_size must be positive")
	}
	if c.ResponsesBufferSize <= 0 {
		return fmt.Errorf("responses_buffer_size must be positive")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.ShedRateLimit <= 0 {
		return fmt.Errorf("shed_rate_limit must be positive")
	}
	if c.ShedBurst <= 0 {
		return fmt.Errorf("shed_burst must be positive")
	}
	return nil
}

// ConnOptions converts Config into the functional options pkg/conn expects.
func (c *Config) ConnOptions() []conn.Option {
	return []conn.Option{
		conn.WithDecodeTimeout(c.DecodeTimeout),
		conn.WithRequestsBufferSize(c.RequestsBufferSize),
		conn.WithResponsesBufferSize(c.ResponsesBufferSize),
		conn.WithRequestTimeout(c.RequestTimeout),
		conn.WithShedRateLimit(c.ShedRateLimit, c.ShedBurst),
	}
}
