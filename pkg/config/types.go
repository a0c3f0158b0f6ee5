package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Config represents the persistent ragembed configuration stored as
// config.toml in the .ragembed/ directory. The TOML layout uses sections for
// logical grouping.
type Config struct {
	Version     int               `toml:"version"`
	Engine      EngineConfig      `toml:"engine"`
	VectorStore VectorStoreConfig `toml:"vector_store"`
	Ingest      IngestConfig      `toml:"ingest"`
	Events      EventsConfig      `toml:"events"`
}

// EngineConfig holds inference engine settings. The model itself is always
// given on the command line.
type EngineConfig struct {
	Provider    string `toml:"provider,omitempty"`
	Target      string `toml:"target,omitempty"`
	APIKey      string `toml:"api_key,omitempty"`
	ContextSize uint   `toml:"context_size,omitempty"`

	// Timeout is a Go duration string ("30s", "2m"). Empty means no timeout.
	Timeout string `toml:"timeout,omitempty"`

	// OutputBufferSize overrides the size of the buffer the embedding output
	// is read into. Zero derives it from the vector size.
	OutputBufferSize uint `toml:"output_buffer_size,omitempty"`
}

// TimeoutDuration parses Timeout. An empty value yields zero.
func (e EngineConfig) TimeoutDuration() (time.Duration, error) {
	if e.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid engine timeout %q: %w", e.Timeout, err)
	}
	return d, nil
}

// VectorStoreConfig holds vector store settings.
type VectorStoreConfig struct {
	Provider string `toml:"provider,omitempty"`
	Target   string `toml:"target,omitempty"`
	APIKey   string `toml:"api_key,omitempty"`
}

// IngestConfig holds defaults for the ingest command's optional parameters.
type IngestConfig struct {
	MaxContextLength uint   `toml:"max_context_length,omitempty"`
	StartVectorID    uint64 `toml:"start_vector_id,omitempty"`
}

// EventsConfig holds diagnostic event publisher settings.
type EventsConfig struct {
	Provider string `toml:"provider,omitempty"`

	// Brokers is a comma-separated list of host:port pairs.
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// BrokerList splits Brokers on commas, dropping empty entries.
func (e EventsConfig) BrokerList() []string {
	return SplitList(e.Brokers)
}

// SplitList splits a comma-separated string into trimmed, non-empty parts.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func formatUint(n uint64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatUint(n, 10)
}

// MaxStartVectorID is the largest start id config.toml can hold. TOML
// integers are signed 64-bit.
const MaxStartVectorID uint64 = math.MaxInt64

// ValidateStartVectorID rejects start ids that config.toml cannot store.
func ValidateStartVectorID(id uint64) error {
	if id > MaxStartVectorID {
		return fmt.Errorf("invalid value for ingest.start_vector_id: %d exceeds %d", id, MaxStartVectorID)
	}
	return nil
}

func parseUint(key, v string) (uint64, error) {
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", key, err)
	}
	return n, nil
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"engine.provider": {
		get: func(c *Config) string { return c.Engine.Provider },
		set: func(c *Config, v string) error { c.Engine.Provider = v; return nil },
	},
	"engine.target": {
		get: func(c *Config) string { return c.Engine.Target },
		set: func(c *Config, v string) error { c.Engine.Target = v; return nil },
	},
	"engine.api_key": {
		get: func(c *Config) string { return c.Engine.APIKey },
		set: func(c *Config, v string) error { c.Engine.APIKey = v; return nil },
	},
	"engine.context_size": {
		get: func(c *Config) string { return formatUint(uint64(c.Engine.ContextSize)) },
		set: func(c *Config, v string) error {
			n, err := parseUint("engine.context_size", v)
			if err != nil {
				return err
			}
			c.Engine.ContextSize = uint(n)
			return nil
		},
	},
	"engine.timeout": {
		get: func(c *Config) string { return c.Engine.Timeout },
		set: func(c *Config, v string) error {
			if v != "" {
				if _, err := time.ParseDuration(v); err != nil {
					return fmt.Errorf("invalid value for engine.timeout: %w", err)
				}
			}
			c.Engine.Timeout = v
			return nil
		},
	},
	"engine.output_buffer_size": {
		get: func(c *Config) string { return formatUint(uint64(c.Engine.OutputBufferSize)) },
		set: func(c *Config, v string) error {
			n, err := parseUint("engine.output_buffer_size", v)
			if err != nil {
				return err
			}
			c.Engine.OutputBufferSize = uint(n)
			return nil
		},
	},
	"vector_store.provider": {
		get: func(c *Config) string { return c.VectorStore.Provider },
		set: func(c *Config, v string) error { c.VectorStore.Provider = v; return nil },
	},
	"vector_store.target": {
		get: func(c *Config) string { return c.VectorStore.Target },
		set: func(c *Config, v string) error { c.VectorStore.Target = v; return nil },
	},
	"vector_store.api_key": {
		get: func(c *Config) string { return c.VectorStore.APIKey },
		set: func(c *Config, v string) error { c.VectorStore.APIKey = v; return nil },
	},
	"ingest.max_context_length": {
		get: func(c *Config) string { return formatUint(uint64(c.Ingest.MaxContextLength)) },
		set: func(c *Config, v string) error {
			n, err := parseUint("ingest.max_context_length", v)
			if err != nil {
				return err
			}
			c.Ingest.MaxContextLength = uint(n)
			return nil
		},
	},
	"ingest.start_vector_id": {
		get: func(c *Config) string { return strconv.FormatUint(c.Ingest.StartVectorID, 10) },
		set: func(c *Config, v string) error {
			n, err := parseUint("ingest.start_vector_id", v)
			if err != nil {
				return err
			}
			if err := ValidateStartVectorID(n); err != nil {
				return err
			}
			c.Ingest.StartVectorID = n
			return nil
		},
	},
	"events.provider": {
		get: func(c *Config) string { return c.Events.Provider },
		set: func(c *Config, v string) error { c.Events.Provider = v; return nil },
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
