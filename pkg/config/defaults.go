package config

const (
	defaultEngineProvider    = "ollama"
	defaultEngineTarget      = "http://localhost:11434"
	defaultEngineContextSize = 4096

	defaultVectorProvider = "qdrant"
	defaultVectorTarget   = "localhost:6334"

	defaultEventsProvider = "none"
	defaultEventsBrokers  = "localhost:9092"
	defaultEventsTopic    = "ragembed.sections"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Engine: EngineConfig{
			Provider:    defaultEngineProvider,
			Target:      defaultEngineTarget,
			ContextSize: defaultEngineContextSize,
		},
		VectorStore: VectorStoreConfig{
			Provider: defaultVectorProvider,
			Target:   defaultVectorTarget,
		},
		Events: EventsConfig{
			Provider: defaultEventsProvider,
			Brokers:  defaultEventsBrokers,
			Topic:    defaultEventsTopic,
		},
	}
}
