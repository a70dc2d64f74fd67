package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment variable read by LoadFromEnv.
const EnvPrefix = "MSGSQL_"

// JournalValidator validates the configuration of one journal type.
// Each journal implementation registers its validator from init().
type JournalValidator interface {
	// Validate checks the journal section for this type.
	Validate(config *Config) error

	// Type returns the journal type identifier (e.g. "redis", "kafka").
	Type() string
}

var (
	// validatorRegistry stores all registered journal validators.
	validatorRegistry = make(map[string]JournalValidator)

	// validatorRegistryMutex protects the validator registry from concurrent access.
	validatorRegistryMutex sync.RWMutex
)

// RegisterValidator registers a journal validator.
// Panics if validator is nil, type is empty, or type is already registered.
func RegisterValidator(validator JournalValidator) {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if validator.Type() == "" {
		panic("validator type cannot be empty")
	}

	validatorRegistryMutex.Lock()
	defer validatorRegistryMutex.Unlock()

	if _, exists := validatorRegistry[validator.Type()]; exists {
		panic(fmt.Sprintf("validator for type %q is already registered", validator.Type()))
	}
	validatorRegistry[validator.Type()] = validator
}

// GetValidator retrieves a validator by journal type.
func GetValidator(journalType string) (JournalValidator, bool) {
	validatorRegistryMutex.RLock()
	defer validatorRegistryMutex.RUnlock()

	validator, exists := validatorRegistry[journalType]
	return validator, exists
}

// ConfigManager handles loading and managing configuration from various sources.
type ConfigManager struct {
	config *Config
}

// NewConfigManager creates a new configuration manager with default configuration.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: DefaultConfig(),
	}
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Host:              "localhost",
			Port:              3306,
			Username:          "root",
			AutoCommit:        true,
			ConnectionTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
		},
		Journal: JournalConfig{
			Type: "none",
			Redis: RedisJournalConfig{
				Endpoint:     "localhost:6379",
				Key:          "msgsql:journal",
				MaxLen:       10000,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
			Kafka: KafkaJournalConfig{
				Brokers:      []string{"localhost:9092"},
				Topic:        "msgsql-journal",
				RequiredAcks: -1, // all replicas
				BatchTimeout: 10 * time.Millisecond,
				WriteTimeout: 10 * time.Second,
			},
			DynamoDB: DynamoDBJournalConfig{
				Region:    "us-east-1",
				TableName: "msgsql_journal",
				TTL:       7 * 24 * time.Hour,
			},
		},
		Tables: make(map[string]TableConfig),
	}
}

// LoadFromFile loads configuration from a YAML or JSON file.
// The file format is determined by the file extension (.yaml, .yml, or .json).
func (cm *ConfigManager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return cm.LoadFromYAML(data)
	case ".json":
		return cm.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data.
func (cm *ConfigManager) LoadFromYAML(data []byte) error {
	config := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromJSON loads configuration from JSON data. Durations are given in
// nanoseconds.
func (cm *ConfigManager) LoadFromJSON(data []byte) error {
	config := DefaultConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return cm.apply(config)
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables follow the pattern: MSGSQL_<SECTION>_<KEY>
// Examples:
//   - MSGSQL_DATABASE_HOST=localhost
//   - MSGSQL_DATABASE_PORT=3306
//   - MSGSQL_EXECUTOR_STATEMENT_RATE=200
//   - MSGSQL_JOURNAL_TYPE=kafka
//   - MSGSQL_JOURNAL_KAFKA_BROKERS=localhost:9092,localhost:9093
//
// Variables override the current configuration, so calling LoadFromEnv
// after LoadFromFile keeps every setting the environment does not name.
func (cm *ConfigManager) LoadFromEnv() error {
	config := cm.config.clone()

	// Database configuration
	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.Username, "DATABASE_USERNAME")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.Database, "DATABASE_DATABASE")
	setBool(&config.Database.AutoCommit, "DATABASE_AUTOCOMMIT")
	setDuration(&config.Database.ConnectionTimeout, "DATABASE_CONNECTION_TIMEOUT")
	setDuration(&config.Database.ReadTimeout, "DATABASE_READ_TIMEOUT")
	setDuration(&config.Database.WriteTimeout, "DATABASE_WRITE_TIMEOUT")

	// Executor configuration
	setInt(&config.Executor.StatementRate, "EXECUTOR_STATEMENT_RATE")

	// Journal configuration
	setString(&config.Journal.Type, "JOURNAL_TYPE")
	setString(&config.Journal.Redis.Endpoint, "JOURNAL_REDIS_ENDPOINT")
	setString(&config.Journal.Redis.Password, "JOURNAL_REDIS_PASSWORD")
	setInt(&config.Journal.Redis.DB, "JOURNAL_REDIS_DB")
	setString(&config.Journal.Redis.Key, "JOURNAL_REDIS_KEY")
	if val := os.Getenv(EnvPrefix + "JOURNAL_REDIS_MAX_LEN"); val != "" {
		if n, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Journal.Redis.MaxLen = n
		}
	}
	if val := os.Getenv(EnvPrefix + "JOURNAL_KAFKA_BROKERS"); val != "" {
		config.Journal.Kafka.Brokers = strings.Split(val, ",")
	}
	setString(&config.Journal.Kafka.Topic, "JOURNAL_KAFKA_TOPIC")
	setInt(&config.Journal.Kafka.RequiredAcks, "JOURNAL_KAFKA_REQUIRED_ACKS")
	setString(&config.Journal.DynamoDB.Region, "JOURNAL_DYNAMODB_REGION")
	setString(&config.Journal.DynamoDB.TableName, "JOURNAL_DYNAMODB_TABLE_NAME")
	setString(&config.Journal.DynamoDB.Endpoint, "JOURNAL_DYNAMODB_ENDPOINT")
	setString(&config.Journal.DynamoDB.AccessKeyID, "JOURNAL_DYNAMODB_ACCESS_KEY_ID")
	setString(&config.Journal.DynamoDB.SecretAccessKey, "JOURNAL_DYNAMODB_SECRET_ACCESS_KEY")
	setDuration(&config.Journal.DynamoDB.TTL, "JOURNAL_DYNAMODB_TTL")

	return cm.apply(config)
}

func setString(dst *string, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val == "true" || val == "1"
	}
}

func setDuration(dst *time.Duration, key string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

// clone returns a copy of c that shares no slices or maps with it.
func (c *Config) clone() *Config {
	out := *c
	out.Journal.Kafka.Brokers = append([]string(nil), c.Journal.Kafka.Brokers...)
	out.Tables = make(map[string]TableConfig, len(c.Tables))
	for name, table := range c.Tables {
		out.Tables[name] = table
	}
	return &out
}

func (cm *ConfigManager) apply(config *Config) error {
	if config.Tables == nil {
		config.Tables = make(map[string]TableConfig)
	}
	if err := Validate(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cm.config = config
	return nil
}

// GetConfig returns the current configuration.
func (cm *ConfigManager) GetConfig() *Config {
	return cm.config
}

// GetTableConfig returns the binding for a logical table name. Missing
// database and table fields default to the connection database and the
// name itself.
func (cm *ConfigManager) GetTableConfig(name string) (TableConfig, bool) {
	return cm.config.Table(name)
}

// Table returns the binding for a logical table name, see
// ConfigManager.GetTableConfig.
func (c *Config) Table(name string) (TableConfig, bool) {
	table, exists := c.Tables[name]
	if !exists {
		return TableConfig{}, false
	}
	if table.Database == "" {
		table.Database = c.Database.Database
	}
	if table.Table == "" {
		table.Table = name
	}
	return table, true
}

// Validate validates the configuration and returns an error if invalid.
// Journal sections are validated by the validator registered for the
// selected type.
func Validate(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Database.Port <= 0 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if config.Database.Username == "" {
		return fmt.Errorf("database.username is required")
	}
	if config.Database.ConnectionTimeout < 0 || config.Database.ReadTimeout < 0 || config.Database.WriteTimeout < 0 {
		return fmt.Errorf("database timeouts must be non-negative")
	}

	if config.Executor.StatementRate < 0 {
		return fmt.Errorf("executor.statement_rate must be non-negative")
	}

	for _, journalType := range config.Journal.Types() {
		validator, exists := GetValidator(journalType)
		if !exists {
			return fmt.Errorf("unsupported journal type: %s", journalType)
		}
		if err := validator.Validate(config); err != nil {
			return fmt.Errorf("journal validation failed: %w", err)
		}
	}

	for name := range config.Tables {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("tables: binding name cannot be empty")
		}
	}

	return nil
}
