package msgsql

import (
	"fmt"

	"github.com/rzpsarthak13/msgsql/internal/config"
)

// Config represents the root configuration for the msgsql client.
type Config = config.Config

// DatabaseConfig contains the MySQL connection settings.
type DatabaseConfig = config.DatabaseConfig

// ExecutorConfig contains executor tuning.
type ExecutorConfig = config.ExecutorConfig

// JournalConfig selects and configures the statement journal.
type JournalConfig = config.JournalConfig

// RedisJournalConfig configures the Redis list journal.
type RedisJournalConfig = config.RedisJournalConfig

// KafkaJournalConfig configures the Kafka topic journal.
type KafkaJournalConfig = config.KafkaJournalConfig

// DynamoDBJournalConfig configures the DynamoDB table journal.
type DynamoDBJournalConfig = config.DynamoDBJournalConfig

// TableConfig binds a logical name to a database table and an optional
// raw predicate.
type TableConfig = config.TableConfig

// DefaultConfig returns a configuration with sensible defaults.
// Callers should override at least the database credentials.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// LoadConfig loads configuration from a YAML or JSON file, applies
// MSGSQL_* environment overrides on top and validates the result.
// An empty path loads defaults and environment only.
func LoadConfig(path string) (*Config, error) {
	cm := config.NewConfigManager()
	if path != "" {
		if err := cm.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := cm.LoadFromEnv(); err != nil {
		return nil, err
	}

	cfg := cm.GetConfig()
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
