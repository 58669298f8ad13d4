package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
)

// Load reads the daemon configuration from the environment. Every setting
// has a development default so a bare `inventoryd` starts against local
// services.
func Load() (Config, error) {
	cfg := Config{}

	cfg.DB.URI = getEnv("INVENTORY_DB_URI", "")
	if cfg.DB.URI == "" {
		user := getEnv("INVENTORY_DB_USER", "insights")
		pass := getEnv("INVENTORY_DB_PASS", "insights")
		host := getEnv("INVENTORY_DB_HOST", "localhost:5432")
		name := getEnv("INVENTORY_DB_NAME", "insights")
		cfg.DB.URI = fmt.Sprintf("postgres://%s:%s@%s/%s", url.QueryEscape(user), url.QueryEscape(pass), host, name)
	}

	cfg.NATS.URL = getEnv("NATS_URL", "nats://127.0.0.1:4222")
	cfg.NATS.ProfileTopic = getEnv("INVENTORY_PROFILE_TOPIC", "platform.system-profile")
	cfg.NATS.EventTopic = getEnv("INVENTORY_EVENT_TOPIC", "platform.inventory.events")
	cfg.NATS.ConsumerGroup = getEnv("INVENTORY_CONSUMER_GROUP", "inventory")
	if cfg.NATS.ProfileTopic == cfg.NATS.EventTopic {
		return Config{}, fmt.Errorf("profile topic and event topic must differ: %q", cfg.NATS.EventTopic)
	}

	port, err := getEnvInt("INVENTORY_HTTP_PORT", 8080)
	if err != nil {
		return Config{}, err
	}
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid INVENTORY_HTTP_PORT: %d", port)
	}
	cfg.HTTP.Port = port

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}
