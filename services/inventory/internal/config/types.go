package config

// Config carries the runtime settings of the inventory daemon.
type Config struct {
	DB   DBConfig
	NATS NATSConfig
	HTTP HTTPConfig
}

// DBConfig holds the assembled PostgreSQL connection string.
type DBConfig struct {
	URI string
}

// NATSConfig names the broker endpoint and the stream topics the daemon
// consumes and produces.
type NATSConfig struct {
	URL           string
	ProfileTopic  string
	EventTopic    string
	ConsumerGroup string
}

// HTTPConfig controls the API listener.
type HTTPConfig struct {
	Port int
}
