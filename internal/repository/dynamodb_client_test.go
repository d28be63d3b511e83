package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"infinite-dialog/internal/domain"
)

type fakeDynamo struct {
	getOut   *dynamodb.GetItemOutput
	getErr   error
	putErr   error
	queryOut *dynamodb.QueryOutput
	queryErr error
	updErr   error
	txErr    error

	lastGetInput    *dynamodb.GetItemInput
	lastPutInput    *dynamodb.PutItemInput
	lastQueryInput  *dynamodb.QueryInput
	lastUpdateInput *dynamodb.UpdateItemInput
	lastTxInput     *dynamodb.TransactWriteItemsInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGetInput = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPutInput = in
	return &dynamodb.PutItemOutput{}, f.putErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQueryInput = in
	return f.queryOut, f.queryErr
}

func (f *fakeDynamo) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.lastUpdateInput = in
	return &dynamodb.UpdateItemOutput{}, f.updErr
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTxInput = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

func newTestClient(t *testing.T, api *fakeDynamo) *Client {
	t.Helper()
	c, err := New(api, "chat-table", "email-datetime-index")
	require.NoError(t, err)
	return c
}

func validMessage() domain.ChatMessage {
	return domain.ChatMessage{
		ID:          domain.PartitionID,
		Datetime:    1700000000000,
		Sender:      domain.SenderUser,
		Message:     "hello everyone",
		Email:       "alice@example.com",
		IsProcessed: false,
	}
}

func validMetadata() domain.ChatMetadata {
	return domain.ChatMetadata{
		ID:       domain.PartitionID,
		Datetime: domain.MetadataDatetime,
		LLMParticipants: []domain.Participant{
			{Name: "gemini", Provider: domain.ProviderGoogle, Personality: domain.Personality{Moods: []string{"cheerful"}, Phrase: "The Optimist"}},
			{Name: "claude", Provider: domain.ProviderAnthropic, Personality: domain.Personality{Moods: []string{"thoughtful", "skeptical"}, Phrase: "The Philosopher"}},
		},
		NextSpeakerIndex: 1,
	}
}

func TestNew_ValidatesArguments(t *testing.T) {
	_, err := New(nil, "chat-table", "email-datetime-index")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, " ", "email-datetime-index")
	require.Error(t, err)

	_, err = New(&fakeDynamo{}, "chat-table", " ")
	require.Error(t, err)
}

func TestMessageItem_RoundTrip(t *testing.T) {
	msg := validMessage()
	item, err := messageItem(msg)
	require.NoError(t, err)

	back, err := itemToMessage(item)
	require.NoError(t, err)
	require.Equal(t, msg, back)
}

func TestMessageItem_RoundTripWithoutEmail(t *testing.T) {
	msg := validMessage()
	msg.Sender = "claude"
	msg.Email = ""
	msg.IsProcessed = true

	item, err := messageItem(msg)
	require.NoError(t, err)
	_, hasEmail := item["email"]
	require.False(t, hasEmail)

	back, err := itemToMessage(item)
	require.NoError(t, err)
	require.Equal(t, msg, back)
}

func TestMessageItem_RejectsInvalidBeforeEncoding(t *testing.T) {
	msg := validMessage()
	msg.Sender = "robot"
	_, err := messageItem(msg)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestItemToMessage_RejectsInvalidAfterDecoding(t *testing.T) {
	item, err := messageItem(validMessage())
	require.NoError(t, err)
	item["sender"] = &types.AttributeValueMemberS{Value: "robot"}

	_, err = itemToMessage(item)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestMetadataItem_RoundTrip(t *testing.T) {
	meta := validMetadata()
	item, err := metadataItem(meta)
	require.NoError(t, err)

	back, err := itemToMetadata(item)
	require.NoError(t, err)
	require.Equal(t, meta, back)
}

func TestMetadataItem_RejectsOutOfRangeIndex(t *testing.T) {
	meta := validMetadata()
	meta.NextSpeakerIndex = 5
	_, err := metadataItem(meta)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestItemToMetadata_RejectsCorruptIndex(t *testing.T) {
	item, err := metadataItem(validMetadata())
	require.NoError(t, err)
	item["nextSpeakerIndex"] = &types.AttributeValueMemberN{Value: "9"}

	_, err = itemToMetadata(item)
	var vErr *domain.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestGetMetadata_Found(t *testing.T) {
	item, err := metadataItem(validMetadata())
	require.NoError(t, err)
	api := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: item}}
	c := newTestClient(t, api)

	meta, found, err := c.GetMetadata(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, validMetadata(), meta)

	key := api.lastGetInput.Key
	require.Equal(t, &types.AttributeValueMemberS{Value: "chat"}, key["id"])
	require.Equal(t, &types.AttributeValueMemberN{Value: "0"}, key["datetime"])
	require.True(t, *api.lastGetInput.ConsistentRead)
}

func TestGetMetadata_Absent(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})

	_, found, err := c.GetMetadata(context.Background())
	require.NoError(t, err)
	require.False(t, found)
}

func TestGetMetadata_APIError(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{getErr: errors.New("throttled")})

	_, _, err := c.GetMetadata(context.Background())
	require.ErrorContains(t, err, "GetMetadata")
}

func TestGetLatestItem_ReturnsNewestMessage(t *testing.T) {
	item, err := messageItem(validMessage())
	require.NoError(t, err)
	api := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}}
	c := newTestClient(t, api)

	latest, found, err := c.GetLatestItem(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.False(t, latest.IsMetadataSentinel())
	require.Equal(t, validMessage(), latest.Message)

	require.False(t, *api.lastQueryInput.ScanIndexForward)
	require.Equal(t, int32(1), *api.lastQueryInput.Limit)
	require.Nil(t, api.lastQueryInput.IndexName)
}

func TestGetLatestItem_MetadataSentinel(t *testing.T) {
	item, err := metadataItem(validMetadata())
	require.NoError(t, err)
	c := newTestClient(t, &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{item}}})

	latest, found, err := c.GetLatestItem(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, latest.IsMetadataSentinel())
}

func TestGetLatestItem_EmptyPartition(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{queryOut: &dynamodb.QueryOutput{}})

	_, found, err := c.GetLatestItem(context.Background())
	require.NoError(t, err)
	require.False(t, found)
}

func TestLatestSenderTimestamp_QueriesEmailIndex(t *testing.T) {
	api := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		{
			"email":    &types.AttributeValueMemberS{Value: "alice@example.com"},
			"datetime": &types.AttributeValueMemberN{Value: "1700000000000"},
		},
	}}}
	c := newTestClient(t, api)

	ts, found, err := c.LatestSenderTimestamp(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(1700000000000), ts)

	require.Equal(t, "email-datetime-index", *api.lastQueryInput.IndexName)
	require.False(t, *api.lastQueryInput.ScanIndexForward)
	require.Equal(t, int32(1), *api.lastQueryInput.Limit)
}

func TestLatestSenderTimestamp_NoPriorMessage(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{queryOut: &dynamodb.QueryOutput{}})

	_, found, err := c.LatestSenderTimestamp(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.False(t, found)
}

func TestLatestSenderTimestamp_EmptyEmailRejected(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	_, _, err := c.LatestSenderTimestamp(context.Background(), " ")
	require.Error(t, err)
	require.Nil(t, api.lastQueryInput)
}

func TestPutMessage_GuardsAgainstKeyCollision(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	require.NoError(t, c.PutMessage(context.Background(), validMessage()))
	require.Contains(t, *api.lastPutInput.ConditionExpression, "attribute_not_exists")
	require.Equal(t, "chat-table", *api.lastPutInput.TableName)
}

func TestPutMessage_InvalidMessageNeverReachesStore(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	msg := validMessage()
	msg.Message = ""
	require.Error(t, c.PutMessage(context.Background(), msg))
	require.Nil(t, api.lastPutInput)
}

func TestMarkProcessed_ConditionalFlip(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	require.NoError(t, c.MarkProcessed(context.Background(), 1700000000000))
	require.Equal(t, "SET isProcessed = :true", *api.lastUpdateInput.UpdateExpression)
	require.Equal(t, "isProcessed = :false", *api.lastUpdateInput.ConditionExpression)
	require.Equal(t, &types.AttributeValueMemberN{Value: "1700000000000"}, api.lastUpdateInput.Key["datetime"])
}

func TestMarkProcessed_RejectsSentinelDatetime(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	require.Error(t, c.MarkProcessed(context.Background(), 0))
	require.Nil(t, api.lastUpdateInput)
}

func TestCommitTurn_SingleTransaction(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	reply := validMessage()
	reply.Datetime = 1700000050000
	reply.Sender = "claude"
	reply.Email = ""

	require.NoError(t, c.CommitTurn(context.Background(), reply, 1700000000000, 2))
	require.Len(t, api.lastTxInput.TransactItems, 3)

	put := api.lastTxInput.TransactItems[0].Put
	require.NotNil(t, put)
	require.Contains(t, *put.ConditionExpression, "attribute_not_exists")
	require.Equal(t, &types.AttributeValueMemberN{Value: "1700000050000"}, put.Item["datetime"])

	mark := api.lastTxInput.TransactItems[1].Update
	require.NotNil(t, mark)
	require.Equal(t, "isProcessed = :false", *mark.ConditionExpression)
	require.Equal(t, &types.AttributeValueMemberN{Value: "1700000000000"}, mark.Key["datetime"])

	advance := api.lastTxInput.TransactItems[2].Update
	require.NotNil(t, advance)
	require.Equal(t, "SET nextSpeakerIndex = :idx", *advance.UpdateExpression)
	require.Equal(t, &types.AttributeValueMemberN{Value: "0"}, advance.Key["datetime"])
	require.Equal(t, &types.AttributeValueMemberN{Value: "2"}, advance.ExpressionAttributeValues[":idx"])
}

func TestCommitTurn_InvalidReplyNeverReachesStore(t *testing.T) {
	api := &fakeDynamo{}
	c := newTestClient(t, api)

	reply := validMessage()
	reply.Sender = "robot"
	require.Error(t, c.CommitTurn(context.Background(), reply, 1700000000000, 1))
	require.Nil(t, api.lastTxInput)
}

func TestCommitTurn_TransactionErrorSurfaces(t *testing.T) {
	api := &fakeDynamo{txErr: errors.New("TransactionCanceledException")}
	c := newTestClient(t, api)

	reply := validMessage()
	reply.Datetime = 1700000050000
	err := c.CommitTurn(context.Background(), reply, 1700000000000, 1)
	require.ErrorContains(t, err, "CommitTurn")
}
