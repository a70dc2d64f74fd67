package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/msgsql/internal/config"
	"github.com/rzpsarthak13/msgsql/internal/core"
)

func testEvent() *core.Event {
	return &core.Event{
		ID:           "3f1c2a7e-0000-4000-8000-000000000001",
		Type:         core.EventStatement,
		Operation:    core.OperationInsert,
		Database:     "mytest",
		Table:        "t_test",
		SQL:          "insert into mytest.t_test (keyid) values (1)",
		RowsAffected: 1,
		Timestamp:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

type fakeRedis struct {
	pushed  map[string][]string
	trims   [][2]int64
	pushErr error
	closed  bool
}

func (f *fakeRedis) RPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	if f.pushed == nil {
		f.pushed = make(map[string][]string)
	}
	for _, v := range values {
		f.pushed[key] = append(f.pushed[key], string(v.([]byte)))
	}
	return redis.NewIntResult(int64(len(f.pushed[key])), nil)
}

func (f *fakeRedis) LTrim(_ context.Context, _ string, start, stop int64) *redis.StatusCmd {
	f.trims = append(f.trims, [2]int64{start, stop})
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Close() error {
	f.closed = true
	return nil
}

func TestRedisSink(t *testing.T) {
	client := &fakeRedis{}
	sink := newRedisSink(client, "msgsql:journal", 100)

	require.NoError(t, sink.Emit(context.Background(), testEvent()))
	require.Len(t, client.pushed["msgsql:journal"], 1)

	var decoded core.Event
	require.NoError(t, json.Unmarshal([]byte(client.pushed["msgsql:journal"][0]), &decoded))
	assert.Equal(t, *testEvent(), decoded)
	assert.Equal(t, [][2]int64{{-100, -1}}, client.trims)

	require.NoError(t, sink.Close())
	assert.True(t, client.closed)
	assert.Error(t, sink.Emit(context.Background(), testEvent()))
	assert.NoError(t, sink.Close(), "close is idempotent")
}

func TestRedisSinkUnbounded(t *testing.T) {
	client := &fakeRedis{}
	sink := newRedisSink(client, "k", 0)
	require.NoError(t, sink.Emit(context.Background(), testEvent()))
	assert.Empty(t, client.trims)
}

func TestRedisSinkPushError(t *testing.T) {
	client := &fakeRedis{pushErr: errors.New("connection refused")}
	sink := newRedisSink(client, "k", 10)
	err := sink.Emit(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Empty(t, client.trims)
}

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaSink(t *testing.T) {
	writer := &fakeWriter{}
	sink := newKafkaSink(writer, "msgsql-journal")

	require.NoError(t, sink.Emit(context.Background(), testEvent()))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, []byte("t_test"), msg.Key)
	assert.Equal(t, testEvent().Timestamp, msg.Time)
	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, map[string]string{"type": "STATEMENT", "operation": "INSERT", "table": "t_test"}, headers)

	var decoded core.Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "insert into mytest.t_test (keyid) values (1)", decoded.SQL)

	writer.err = errors.New("leader not available")
	err := sink.Emit(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "msgsql-journal")

	require.NoError(t, sink.Close())
	assert.True(t, writer.closed)
}

type fakePutItem struct {
	inputs []*dynamodb.PutItemInput
}

func (f *fakePutItem) PutItem(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.inputs = append(f.inputs, params)
	return &dynamodb.PutItemOutput{}, nil
}

func stringAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	switch v := item[name].(type) {
	case *types.AttributeValueMemberS:
		return v.Value
	case *types.AttributeValueMemberN:
		return v.Value
	default:
		t.Fatalf("attribute %s has unexpected type %T", name, item[name])
		return ""
	}
}

func TestDynamoDBSink(t *testing.T) {
	client := &fakePutItem{}
	sink := newDynamoDBSink(client, "msgsql_journal", time.Hour)

	event := testEvent()
	require.NoError(t, sink.Emit(context.Background(), event))
	require.Len(t, client.inputs, 1)

	input := client.inputs[0]
	assert.Equal(t, "msgsql_journal", *input.TableName)
	assert.Equal(t, event.ID, stringAttr(t, input.Item, "id"))
	assert.Equal(t, "STATEMENT", stringAttr(t, input.Item, "type"))
	assert.Equal(t, "mytest.t_test", stringAttr(t, input.Item, "table"))
	assert.Equal(t, "1", stringAttr(t, input.Item, "rows_affected"))
	assert.Equal(t, fmt.Sprint(event.Timestamp.Add(time.Hour).Unix()), stringAttr(t, input.Item, "ttl"))
	assert.NotContains(t, input.Item, "error")

	failed := testEvent()
	failed.Type = core.EventQueryError
	failed.Error = "Duplicate entry '1' for key 'PRIMARY'"
	require.NoError(t, sink.Emit(context.Background(), failed))
	assert.Equal(t, failed.Error, stringAttr(t, client.inputs[1].Item, "error"))

	require.NoError(t, sink.Close())
	assert.Error(t, sink.Emit(context.Background(), event))
}

func TestDynamoDBSinkWithoutTTL(t *testing.T) {
	client := &fakePutItem{}
	sink := newDynamoDBSink(client, "t", 0)
	require.NoError(t, sink.Emit(context.Background(), testEvent()))
	assert.NotContains(t, client.inputs[0].Item, "ttl")
}

type recordingSink struct {
	events []*core.Event
	err    error
	closed bool
}

func (r *recordingSink) Emit(_ context.Context, event *core.Event) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recordingSink) Close() error {
	r.closed = true
	return r.err
}

func TestMultiSink(t *testing.T) {
	first := &recordingSink{err: errors.New("first down")}
	second := &recordingSink{}
	multi := NewMultiSink(first, second)

	err := multi.Emit(context.Background(), testEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "first down")
	assert.Len(t, first.events, 1)
	assert.Len(t, second.events, 1, "a failing sink does not starve the rest")

	assert.Error(t, multi.Close())
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

type lines struct {
	out []string
}

func (l *lines) Printf(format string, v ...interface{}) {
	l.out = append(l.out, fmt.Sprintf(format, v...))
}

func TestLogSink(t *testing.T) {
	logger := &lines{}
	sink := NewLogSink(logger)

	require.NoError(t, sink.Emit(context.Background(), testEvent()))
	failed := testEvent()
	failed.Type = core.EventQueryError
	failed.Error = "boom"
	require.NoError(t, sink.Emit(context.Background(), failed))

	require.Len(t, logger.out, 2)
	assert.Contains(t, logger.out[0], "[JOURNAL] STATEMENT INSERT mytest.t_test rows=1")
	assert.Contains(t, logger.out[1], `error="boom"`)
}

func TestFactoryRegistry(t *testing.T) {
	assert.Equal(t, []string{"dynamodb", "kafka", "log", "redis"}, GetRegisteredTypes())
	assert.True(t, IsTypeRegistered("kafka"))
	assert.False(t, IsTypeRegistered("none"))

	assert.Panics(t, func() { RegisterFactory(nil) })
	assert.Panics(t, func() { RegisterFactory(&LogSinkFactory{}) })
}

func TestCreate(t *testing.T) {
	sink, err := Create(config.JournalConfig{Type: "none"})
	require.NoError(t, err)
	assert.Equal(t, Discard, sink)

	sink, err = Create(config.JournalConfig{Type: "log"})
	require.NoError(t, err)
	assert.IsType(t, &LogSink{}, sink)

	sink, err = Create(config.JournalConfig{Type: "log, kafka", Kafka: config.KafkaJournalConfig{
		Brokers: []string{"localhost:9092"},
		Topic:   "msgsql-journal",
	}})
	require.NoError(t, err)
	assert.IsType(t, &MultiSink{}, sink)
	assert.NoError(t, sink.Close())

	_, err = Create(config.JournalConfig{Type: "carrier-pigeon"})
	assert.ErrorContains(t, err, "unsupported journal type")

	_, err = Create(config.JournalConfig{Type: "kafka"})
	assert.ErrorContains(t, err, "journal.kafka.brokers")
}

func TestFactoryValidate(t *testing.T) {
	defaults := config.DefaultConfig().Journal
	for _, f := range []SinkFactory{&LogSinkFactory{}, &RedisSinkFactory{}, &KafkaSinkFactory{}, &DynamoDBSinkFactory{}} {
		assert.NoError(t, f.Validate(defaults), f.Type())
	}

	bad := defaults
	bad.Redis.MaxLen = -1
	assert.Error(t, (&RedisSinkFactory{}).Validate(bad))

	bad = defaults
	bad.Kafka.RequiredAcks = 2
	assert.Error(t, (&KafkaSinkFactory{}).Validate(bad))

	bad = defaults
	bad.DynamoDB.AccessKeyID = "AKIA"
	assert.Error(t, (&DynamoDBSinkFactory{}).Validate(bad))
}

func TestConfigValidatorsRegistered(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Journal.Type = "redis,kafka"
	assert.NoError(t, config.Validate(cfg))

	cfg.Journal.Redis.Endpoint = ""
	assert.ErrorContains(t, config.Validate(cfg), "journal.redis.endpoint")
}
