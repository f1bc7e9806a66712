package logger

import (
	"flag"
	"fmt"
	"strings"
)

// Flags holds all logging-related command-line flags
type Flags struct {
	LogLevel    string
	LogFormat   string
	LogFile     string
	DebugState  bool
	DebugCSeq   bool
	DebugSend   bool
	DebugRecv   bool
	DebugAll    bool
}

// RegisterFlags registers logging flags with the given FlagSet
func RegisterFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}

	fs.StringVar(&f.LogLevel, "log-level", "info",
		"Log level: debug, info, warn, error")
	fs.StringVar(&f.LogLevel, "l", "info",
		"Log level (shorthand)")

	fs.StringVar(&f.LogFormat, "log-format", "text",
		"Log output format: text, json")

	fs.StringVar(&f.LogFile, "log-file", "",
		"Log output file path (default: stdout)")
	fs.StringVar(&f.LogFile, "o", "",
		"Log output file path (shorthand)")

	// Debug category flags
	fs.BoolVar(&f.DebugState, "debug-state", false,
		"Enable ProtocolState transition debugging")
	fs.BoolVar(&f.DebugCSeq, "debug-cseq", false,
		"Enable orderer CSeq reordering/shedding debugging")
	fs.BoolVar(&f.DebugSend, "debug-send", false,
		"Enable outbound message debugging")
	fs.BoolVar(&f.DebugRecv, "debug-recv", false,
		"Enable inbound message debugging")
	fs.BoolVar(&f.DebugAll, "debug-all", false,
		"Enable all debug categories")

	return f
}

// ToConfig converts Flags to a logger Config
func (f *Flags) ToConfig() (*Config, error) {
	cfg := NewConfig()

	// Parse log level
	level, err := ParseLevel(f.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg.Level = level

	// Parse format
	format, err := ParseFormat(f.LogFormat)
	if err != nil {
		return nil, err
	}
	cfg.Format = format

	// Set output file
	cfg.OutputFile = f.LogFile

	// Enable debug categories
	if f.DebugAll {
		cfg.EnableCategory(DebugAll)
		// Force debug level when any debug category is enabled
		cfg.Level = LevelDebug
	} else {
		if f.DebugState {
			cfg.EnableCategory(DebugState)
			cfg.Level = LevelDebug
		}
		if f.DebugCSeq {
			cfg.EnableCategory(DebugCSeq)
			cfg.Level = LevelDebug
		}
		if f.DebugSend {
			cfg.EnableCategory(DebugSend)
			cfg.Level = LevelDebug
		}
		if f.DebugRecv {
			cfg.EnableCategory(DebugRecv)
			cfg.Level = LevelDebug
		}
	}

	return cfg, nil
}

// PrintUsageExamples prints usage examples for logging flags
func PrintUsageExamples() {
	examples := `
Logging Examples:

  Basic usage (INFO level, text format to stdout):
    ./rtspserver

  Enable DEBUG level:
    ./rtspserver --log-level debug
    ./rtspserver -l debug

  Log to file:
    ./rtspserver --log-file server.log
    ./rtspserver -o server.log

  JSON format for structured logging:
    ./rtspserver --log-format json -o server.json

  Debug protocol state transitions only:
    ./rtspserver --debug-state

  Debug CSeq reordering decisions only:
    ./rtspserver --debug-cseq

  Debug multiple categories:
    ./rtspserver --debug-state --debug-cseq --debug-send

  Debug everything:
    ./rtspserver --debug-all -o debug.log

  Production logging (WARN level, JSON to file):
    ./rtspserver -l warn --log-format json -o production.log
`
	fmt.Println(examples)
}

// String returns a string representation of enabled flags
func (f *Flags) String() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("level=%s", f.LogLevel))
	parts = append(parts, fmt.Sprintf("format=%s", f.LogFormat))

	if f.LogFile != "" {
		parts = append(parts, fmt.Sprintf("output=%s", f.LogFile))
	} else {
		parts = append(parts, "output=stdout")
	}

	var debugCategories []string
	if f.DebugAll {
		debugCategories = append(debugCategories, "all")
	} else {
		if f.DebugState {
			debugCategories = append(debugCategories, "state")
		}
		if f.DebugCSeq {
			debugCategories = append(debugCategories, "cseq")
		}
		if f.DebugSend {
			debugCategories = append(debugCategories, "send")
		}
		if f.DebugRecv {
			debugCategories = append(debugCategories, "recv")
		}
	}

	if len(debugCategories) > 0 {
		parts = append(parts, fmt.Sprintf("debug=[%s]", strings.Join(debugCategories, ",")))
	}

	return strings.Join(parts, " ")
}
