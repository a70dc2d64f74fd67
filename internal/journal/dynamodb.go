package journal

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/rzpsarthak13/msgsql/internal/config"
	"github.com/rzpsarthak13/msgsql/internal/core"
)

// putItemAPI is the part of *dynamodb.Client the sink uses.
type putItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoDBSink stores one item per event, keyed by event id. Items carry a
// ttl attribute (epoch seconds) when a TTL is configured.
type DynamoDBSink struct {
	client    putItemAPI
	tableName string
	ttl       time.Duration
	closed    bool
}

// NewDynamoDBSink creates a DynamoDB sink and verifies the table exists.
func NewDynamoDBSink(cfg config.DynamoDBJournalConfig) (*DynamoDBSink, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Override credentials if provided
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	clientOptions := []func(*dynamodb.Options){}
	if cfg.Endpoint != "" {
		// Custom endpoint (e.g., for LocalStack)
		clientOptions = append(clientOptions, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}
	client := dynamodb.NewFromConfig(awsCfg, clientOptions...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(cfg.TableName),
	}); err != nil {
		return nil, fmt.Errorf("failed to connect to DynamoDB table %s: %w", cfg.TableName, err)
	}

	return newDynamoDBSink(client, cfg.TableName, cfg.TTL), nil
}

func newDynamoDBSink(client putItemAPI, tableName string, ttl time.Duration) *DynamoDBSink {
	return &DynamoDBSink{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
	}
}

// Emit implements core.Sink.
func (s *DynamoDBSink) Emit(ctx context.Context, event *core.Event) error {
	if s.closed {
		return fmt.Errorf("dynamodb journal is closed")
	}

	item := map[string]types.AttributeValue{
		"id":            &types.AttributeValueMemberS{Value: event.ID},
		"type":          &types.AttributeValueMemberS{Value: string(event.Type)},
		"operation":     &types.AttributeValueMemberS{Value: string(event.Operation)},
		"table":         &types.AttributeValueMemberS{Value: event.Database + "." + event.Table},
		"rows_affected": &types.AttributeValueMemberN{Value: strconv.FormatInt(event.RowsAffected, 10)},
		"created_at":    &types.AttributeValueMemberS{Value: event.Timestamp.UTC().Format(time.RFC3339Nano)},
	}
	if event.SQL != "" {
		item["sql"] = &types.AttributeValueMemberS{Value: event.SQL}
	}
	if event.Error != "" {
		item["error"] = &types.AttributeValueMemberS{Value: event.Error}
	}
	if s.ttl > 0 {
		expiresAt := event.Timestamp.Add(s.ttl).Unix()
		item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(expiresAt, 10)}
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put journal event into %s: %w", s.tableName, err)
	}
	return nil
}

// Close implements core.Sink. The DynamoDB client holds no connection state.
func (s *DynamoDBSink) Close() error {
	s.closed = true
	return nil
}

// DynamoDBSinkFactory creates DynamoDB sinks.
type DynamoDBSinkFactory struct{}

// Type returns the type identifier for this factory.
func (f *DynamoDBSinkFactory) Type() string {
	return "dynamodb"
}

// Validate validates the DynamoDB journal configuration.
func (f *DynamoDBSinkFactory) Validate(cfg config.JournalConfig) error {
	if cfg.DynamoDB.Region == "" {
		return fmt.Errorf("journal.dynamodb.region is required")
	}
	if cfg.DynamoDB.TableName == "" {
		return fmt.Errorf("journal.dynamodb.table_name is required")
	}
	if cfg.DynamoDB.TTL < 0 {
		return fmt.Errorf("journal.dynamodb.ttl must be non-negative")
	}
	if (cfg.DynamoDB.AccessKeyID == "") != (cfg.DynamoDB.SecretAccessKey == "") {
		return fmt.Errorf("journal.dynamodb.access_key_id and secret_access_key must be set together")
	}
	return nil
}

// Create creates a DynamoDB sink.
func (f *DynamoDBSinkFactory) Create(cfg config.JournalConfig) (core.Sink, error) {
	return NewDynamoDBSink(cfg.DynamoDB)
}

func init() {
	register(&DynamoDBSinkFactory{})
}
