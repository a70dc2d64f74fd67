package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type topicValidator struct{}

func (topicValidator) Type() string {
	return "test-topic"
}

func (topicValidator) Validate(config *Config) error {
	if config.Journal.Kafka.Topic == "" {
		return errors.New("kafka.topic is required")
	}
	return nil
}

func init() {
	RegisterValidator(topicValidator{})
}

func TestDefaults(t *testing.T) {
	cm := NewConfigManager()
	cfg := cm.GetConfig()

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.True(t, cfg.Database.AutoCommit)
	assert.Equal(t, "none", cfg.Journal.Type)
	assert.Equal(t, 0, cfg.Executor.StatementRate)
	assert.NoError(t, Validate(cfg))
}

func TestLoadFromYAML(t *testing.T) {
	data := []byte(`
database:
  host: db.internal
  port: 3307
  username: app
  password: secret
  database: mytest
  autocommit: false
  connection_timeout: 2s
executor:
  statement_rate: 200
journal:
  type: test-topic
  kafka:
    brokers: [k1:9092, k2:9092]
    topic: journal
tables:
  test:
    table: t_test
  scoped:
    database: other
    where: "  where keyid > 10"
`)

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromYAML(data))
	cfg := cm.GetConfig()

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.False(t, cfg.Database.AutoCommit)
	assert.Equal(t, 2*time.Second, cfg.Database.ConnectionTimeout)
	assert.Equal(t, 30*time.Second, cfg.Database.ReadTimeout, "unset keys keep defaults")
	assert.Equal(t, 200, cfg.Executor.StatementRate)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Journal.Kafka.Brokers)

	test, ok := cm.GetTableConfig("test")
	require.True(t, ok)
	assert.Equal(t, TableConfig{Database: "mytest", Table: "t_test"}, test)

	scoped, ok := cm.GetTableConfig("scoped")
	require.True(t, ok)
	assert.Equal(t, TableConfig{Database: "other", Table: "scoped", Where: "  where keyid > 10"}, scoped)

	_, ok = cm.GetTableConfig("missing")
	assert.False(t, ok)
}

func TestLoadFromJSON(t *testing.T) {
	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromJSON([]byte(`{"database": {"host": "h", "port": 3306, "username": "u", "database": "d"}}`)))
	assert.Equal(t, "h", cm.GetConfig().Database.Host)
	assert.Equal(t, "d", cm.GetConfig().Database.Database)
	assert.NotNil(t, cm.GetConfig().Tables)

	err := cm.LoadFromJSON([]byte(`{"database": `))
	assert.Error(t, err)
	assert.Equal(t, "h", cm.GetConfig().Database.Host, "failed loads keep the previous config")
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "msgsql.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("database:\n  host: filehost\n"), 0o600))
	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromFile(yamlPath))
	assert.Equal(t, "filehost", cm.GetConfig().Database.Host)

	tomlPath := filepath.Join(dir, "msgsql.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o600))
	assert.Error(t, cm.LoadFromFile(tomlPath))

	assert.Error(t, cm.LoadFromFile(filepath.Join(dir, "absent.yaml")))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("MSGSQL_DATABASE_HOST", "envhost")
	t.Setenv("MSGSQL_DATABASE_PORT", "3310")
	t.Setenv("MSGSQL_DATABASE_AUTOCOMMIT", "0")
	t.Setenv("MSGSQL_DATABASE_CONNECTION_TIMEOUT", "750ms")
	t.Setenv("MSGSQL_EXECUTOR_STATEMENT_RATE", "50")
	t.Setenv("MSGSQL_JOURNAL_TYPE", "test-topic")
	t.Setenv("MSGSQL_JOURNAL_KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("MSGSQL_JOURNAL_KAFKA_TOPIC", "events")
	t.Setenv("MSGSQL_JOURNAL_REDIS_MAX_LEN", "42")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromEnv())
	cfg := cm.GetConfig()

	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, 3310, cfg.Database.Port)
	assert.False(t, cfg.Database.AutoCommit)
	assert.Equal(t, 750*time.Millisecond, cfg.Database.ConnectionTimeout)
	assert.Equal(t, 50, cfg.Executor.StatementRate)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Journal.Kafka.Brokers)
	assert.Equal(t, "events", cfg.Journal.Kafka.Topic)
	assert.Equal(t, int64(42), cfg.Journal.Redis.MaxLen)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"missing host", func(c *Config) { c.Database.Host = "" }, "database.host"},
		{"bad port", func(c *Config) { c.Database.Port = 70000 }, "database.port"},
		{"missing username", func(c *Config) { c.Database.Username = "" }, "database.username"},
		{"negative timeout", func(c *Config) { c.Database.ReadTimeout = -time.Second }, "timeouts"},
		{"negative rate", func(c *Config) { c.Executor.StatementRate = -1 }, "statement_rate"},
		{"unknown journal", func(c *Config) { c.Journal.Type = "carrier-pigeon" }, "unsupported journal type"},
		{"journal validator", func(c *Config) {
			c.Journal.Type = "test-topic"
			c.Journal.Kafka.Topic = ""
		}, "kafka.topic"},
		{"empty table name", func(c *Config) { c.Tables[" "] = TableConfig{} }, "binding name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRegisterValidatorPanics(t *testing.T) {
	assert.Panics(t, func() { RegisterValidator(nil) })
	assert.Panics(t, func() { RegisterValidator(topicValidator{}) }, "duplicate registration")
}

func TestJournalTypes(t *testing.T) {
	assert.Empty(t, JournalConfig{Type: "none"}.Types())
	assert.Empty(t, JournalConfig{}.Types())
	assert.Equal(t, []string{"log", "kafka"}, JournalConfig{Type: " log, Kafka ,"}.Types())

	cfg := DefaultConfig()
	cfg.Journal.Type = "test-topic,none"
	assert.NoError(t, Validate(cfg))
}

func TestLoadFromEnvKeepsFileSettings(t *testing.T) {
	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromYAML([]byte(`
database:
  database: mytest
  port: 3307
journal:
  type: test-topic
  kafka:
    brokers: [k1:9092]
    topic: from-file
tables:
  test:
    table: t_test
`)))
	fromFile := cm.GetConfig()

	t.Setenv("MSGSQL_DATABASE_HOST", "envhost")
	t.Setenv("MSGSQL_JOURNAL_KAFKA_BROKERS", "e1:9092,e2:9092")
	require.NoError(t, cm.LoadFromEnv())
	cfg := cm.GetConfig()

	assert.Equal(t, "envhost", cfg.Database.Host)
	assert.Equal(t, "mytest", cfg.Database.Database)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, "test-topic", cfg.Journal.Type)
	assert.Equal(t, "from-file", cfg.Journal.Kafka.Topic)
	assert.Equal(t, []string{"e1:9092", "e2:9092"}, cfg.Journal.Kafka.Brokers)
	assert.Contains(t, cfg.Tables, "test")

	assert.Equal(t, "localhost", fromFile.Database.Host, "the previous config is not modified")
	assert.Equal(t, []string{"k1:9092"}, fromFile.Journal.Kafka.Brokers)
}
