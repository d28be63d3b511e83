package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"infinite-dialog/internal/domain"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// LatestItem is the newest record in the conversation partition. When the
// partition holds only the metadata sentinel, Datetime is zero and Message is
// the zero value.
type LatestItem struct {
	Datetime int64
	Message  domain.ChatMessage
}

// IsMetadataSentinel reports whether the newest record is the metadata row,
// meaning no real message has ever been posted.
func (l LatestItem) IsMetadataSentinel() bool {
	return l.Datetime == domain.MetadataDatetime
}

// Client wraps the DynamoDB conversation table. All records share the
// partition key value "chat" and are sorted by millisecond timestamp; the
// metadata row lives at the reserved timestamp zero. A secondary index keyed
// by sender email serves the rate-limit lookup.
type Client struct {
	api        dynamodbAPI
	tableName  string
	emailIndex string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName, emailIndex string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if strings.TrimSpace(emailIndex) == "" {
		return nil, errors.New("repository: email index name must not be empty")
	}
	return &Client{api: api, tableName: tableName, emailIndex: emailIndex}, nil
}

func recordKey(datetime int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id":       &types.AttributeValueMemberS{Value: domain.PartitionID},
		"datetime": &types.AttributeValueMemberN{Value: strconv.FormatInt(datetime, 10)},
	}
}

// GetMetadata reads the singleton metadata record. The second return value is
// false when the record has never been bootstrapped.
func (c *Client) GetMetadata(ctx context.Context) (domain.ChatMetadata, bool, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            recordKey(domain.MetadataDatetime),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return domain.ChatMetadata{}, false, fmt.Errorf("repository: GetMetadata get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return domain.ChatMetadata{}, false, nil
	}

	meta, err := itemToMetadata(out.Item)
	if err != nil {
		return domain.ChatMetadata{}, false, fmt.Errorf("repository: GetMetadata decode: %w", err)
	}
	return meta, true, nil
}

// GetLatestItem returns the newest record in the partition, metadata sentinel
// included. The second return value is false when the partition is empty.
func (c *Client) GetLatestItem(ctx context.Context) (LatestItem, bool, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("id = :id"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":id": &types.AttributeValueMemberS{Value: domain.PartitionID},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return LatestItem{}, false, fmt.Errorf("repository: GetLatestItem query: %w", err)
	}
	if out == nil || len(out.Items) == 0 {
		return LatestItem{}, false, nil
	}

	item := out.Items[0]
	datetime, err := int64Attr(item, "datetime")
	if err != nil {
		return LatestItem{}, false, fmt.Errorf("repository: GetLatestItem decode: %w", err)
	}
	if datetime == domain.MetadataDatetime {
		return LatestItem{Datetime: domain.MetadataDatetime}, true, nil
	}

	msg, err := itemToMessage(item)
	if err != nil {
		return LatestItem{}, false, fmt.Errorf("repository: GetLatestItem decode: %w", err)
	}
	return LatestItem{Datetime: datetime, Message: msg}, true, nil
}

// LatestSenderTimestamp returns the timestamp of the most recent message
// carrying the given email, via the email secondary index. The second return
// value is false when the sender has never posted.
func (c *Client) LatestSenderTimestamp(ctx context.Context, email string) (int64, bool, error) {
	if strings.TrimSpace(email) == "" {
		return 0, false, errors.New("repository: LatestSenderTimestamp: email is required")
	}

	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		IndexName:              aws.String(c.emailIndex),
		KeyConditionExpression: aws.String("email = :email"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":email": &types.AttributeValueMemberS{Value: email},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return 0, false, fmt.Errorf("repository: LatestSenderTimestamp query: %w", err)
	}
	if out == nil || len(out.Items) == 0 {
		return 0, false, nil
	}

	datetime, err := int64Attr(out.Items[0], "datetime")
	if err != nil {
		return 0, false, fmt.Errorf("repository: LatestSenderTimestamp decode: %w", err)
	}
	return datetime, true, nil
}

// PutMessage persists a new message record. The key-collision condition keeps
// a same-millisecond duplicate from silently overwriting an existing turn.
func (c *Client) PutMessage(ctx context.Context, msg domain.ChatMessage) error {
	item, err := messageItem(msg)
	if err != nil {
		return fmt.Errorf("repository: PutMessage encode: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id) AND attribute_not_exists(#dt)"),
		ExpressionAttributeNames: map[string]string{
			"#dt": "datetime",
		},
	})
	if err != nil {
		return fmt.Errorf("repository: PutMessage: %w", err)
	}
	return nil
}

// PutMetadata writes the singleton metadata record. Used by the bootstrap
// path only; the orchestrator advances the index through CommitTurn.
func (c *Client) PutMetadata(ctx context.Context, meta domain.ChatMetadata) error {
	item, err := metadataItem(meta)
	if err != nil {
		return fmt.Errorf("repository: PutMetadata encode: %w", err)
	}

	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(c.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("repository: PutMetadata: %w", err)
	}
	return nil
}

// MarkProcessed flips a message's isProcessed flag, guarded so a concurrent
// invocation that already consumed the message fails the condition instead of
// re-consuming it.
func (c *Client) MarkProcessed(ctx context.Context, datetime int64) error {
	if datetime <= domain.MetadataDatetime {
		return fmt.Errorf("repository: MarkProcessed: datetime %d is not a message timestamp", datetime)
	}

	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 recordKey(datetime),
		UpdateExpression:    aws.String("SET isProcessed = :true"),
		ConditionExpression: aws.String("isProcessed = :false"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":true":  &types.AttributeValueMemberBOOL{Value: true},
			":false": &types.AttributeValueMemberBOOL{Value: false},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: MarkProcessed: %w", err)
	}
	return nil
}

// CommitTurn applies one orchestrator turn as a single transaction: insert
// the new AI message, consume the triggering message, advance the speaker
// pointer. The isProcessed condition makes the whole transaction fail when a
// concurrent tick already consumed the trigger, so no reader ever observes a
// partial turn.
func (c *Client) CommitTurn(ctx context.Context, newMsg domain.ChatMessage, processedDatetime int64, nextSpeakerIndex int) error {
	if processedDatetime <= domain.MetadataDatetime {
		return fmt.Errorf("repository: CommitTurn: datetime %d is not a message timestamp", processedDatetime)
	}
	if nextSpeakerIndex < 0 {
		return fmt.Errorf("repository: CommitTurn: negative speaker index %d", nextSpeakerIndex)
	}
	item, err := messageItem(newMsg)
	if err != nil {
		return fmt.Errorf("repository: CommitTurn encode: %w", err)
	}

	_, err = c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(c.tableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(id) AND attribute_not_exists(#dt)"),
					ExpressionAttributeNames: map[string]string{
						"#dt": "datetime",
					},
				},
			},
			{
				Update: &types.Update{
					TableName:           aws.String(c.tableName),
					Key:                 recordKey(processedDatetime),
					UpdateExpression:    aws.String("SET isProcessed = :true"),
					ConditionExpression: aws.String("isProcessed = :false"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":true":  &types.AttributeValueMemberBOOL{Value: true},
						":false": &types.AttributeValueMemberBOOL{Value: false},
					},
				},
			},
			{
				Update: &types.Update{
					TableName:        aws.String(c.tableName),
					Key:              recordKey(domain.MetadataDatetime),
					UpdateExpression: aws.String("SET nextSpeakerIndex = :idx"),
					ExpressionAttributeValues: map[string]types.AttributeValue{
						":idx": &types.AttributeValueMemberN{Value: strconv.Itoa(nextSpeakerIndex)},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: CommitTurn: %w", err)
	}
	return nil
}
