package config

import (
	"strings"
	"time"
)

// Config is the complete msgsql configuration.
type Config struct {
	Database DatabaseConfig         `yaml:"database" json:"database"`
	Executor ExecutorConfig         `yaml:"executor" json:"executor"`
	Journal  JournalConfig          `yaml:"journal" json:"journal"`
	Tables   map[string]TableConfig `yaml:"tables" json:"tables"`
}

// DatabaseConfig holds the MySQL connection settings.
type DatabaseConfig struct {
	Host              string        `yaml:"host" json:"host"`
	Port              int           `yaml:"port" json:"port"`
	Username          string        `yaml:"username" json:"username"`
	Password          string        `yaml:"password" json:"password"`
	Database          string        `yaml:"database" json:"database"`
	AutoCommit        bool          `yaml:"autocommit" json:"autocommit"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout"`
	ReadTimeout       time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// ExecutorConfig holds executor tuning.
type ExecutorConfig struct {
	// StatementRate caps multi-statement Update and Delete, in statements
	// per second. Zero means unlimited.
	StatementRate int `yaml:"statement_rate" json:"statement_rate"`
}

// JournalConfig selects and configures the statement journal.
type JournalConfig struct {
	// Type is none, or a comma separated list of log, redis, kafka and
	// dynamodb. Several types fan out to every listed sink.
	Type     string                `yaml:"type" json:"type"`
	Redis    RedisJournalConfig    `yaml:"redis" json:"redis"`
	Kafka    KafkaJournalConfig    `yaml:"kafka" json:"kafka"`
	DynamoDB DynamoDBJournalConfig `yaml:"dynamodb" json:"dynamodb"`
}

// Types returns the selected journal types. It is empty for none.
func (j JournalConfig) Types() []string {
	var types []string
	for _, t := range strings.Split(j.Type, ",") {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && t != "none" {
			types = append(types, t)
		}
	}
	return types
}

// RedisJournalConfig configures the Redis list journal.
type RedisJournalConfig struct {
	Endpoint     string        `yaml:"endpoint" json:"endpoint"`
	Password     string        `yaml:"password" json:"password"`
	DB           int           `yaml:"db" json:"db"`
	Key          string        `yaml:"key" json:"key"`
	MaxLen       int64         `yaml:"max_len" json:"max_len"`
	DialTimeout  time.Duration `yaml:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// KafkaJournalConfig configures the Kafka topic journal.
type KafkaJournalConfig struct {
	Brokers      []string      `yaml:"brokers" json:"brokers"`
	Topic        string        `yaml:"topic" json:"topic"`
	RequiredAcks int           `yaml:"required_acks" json:"required_acks"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// DynamoDBJournalConfig configures the DynamoDB table journal.
type DynamoDBJournalConfig struct {
	Region          string        `yaml:"region" json:"region"`
	TableName       string        `yaml:"table_name" json:"table_name"`
	Endpoint        string        `yaml:"endpoint" json:"endpoint"`
	AccessKeyID     string        `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key" json:"secret_access_key"`
	TTL             time.Duration `yaml:"ttl" json:"ttl"`
}

// TableConfig binds a logical name to a table and an optional raw
// predicate.
type TableConfig struct {
	Database string `yaml:"database" json:"database"`
	Table    string `yaml:"table" json:"table"`
	Where    string `yaml:"where" json:"where"`
}
