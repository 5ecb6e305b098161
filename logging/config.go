package logging

import "time"

// Config controls the event router and the sinks built for it.
type Config struct {
	// EnabledSinks names the sinks to attach, matching NamedSink names.
	EnabledSinks []string
	// BufferSize bounds the central queue. Full means drop, never block.
	BufferSize int
	// MinimumSeverity filters events before fan-out.
	MinimumSeverity Severity
	// Fields is merged into every routed event's Extra map.
	Fields map[string]any

	JSON    JSONConfig
	Console ConsoleConfig

	// DropWarnInterval rate-limits the stderr line written when the queue
	// overflows.
	DropWarnInterval time.Duration
}

// JSONConfig tunes the newline-delimited file sink.
type JSONConfig struct {
	FilePath string
	// MaxBatch is how many records may accumulate before a forced flush.
	MaxBatch int
	// FlushInterval is the wall-clock flush period.
	FlushInterval time.Duration
}

// ConsoleConfig tunes the human-readable sink.
type ConsoleConfig struct {
	// UseColor highlights warn and error lines with ANSI colors.
	UseColor bool
}

func DefaultConfig() Config {
	return Config{
		EnabledSinks:     []string{"console"},
		BufferSize:       512,
		MinimumSeverity:  SeverityInfo,
		DropWarnInterval: 5 * time.Second,
		JSON: JSONConfig{
			MaxBatch:      32,
			FlushInterval: 2 * time.Second,
		},
	}
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.EnabledSinks {
		if s == name {
			return true
		}
	}
	return false
}

func (c Config) CloneFields() map[string]any {
	if len(c.Fields) == 0 {
		return nil
	}
	cloned := make(map[string]any, len(c.Fields))
	for k, v := range c.Fields {
		cloned[k] = v
	}
	return cloned
}
