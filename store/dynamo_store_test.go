package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDynamo records requests and replays canned errors.
type fakeDynamo struct {
	puts         []*dynamodb.PutItemInput
	transactions []*dynamodb.TransactWriteItemsInput
	queries      []*dynamodb.QueryInput
	pages        []*dynamodb.QueryOutput
	getOutput    *dynamodb.GetItemOutput
	err          error
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.getOutput == nil {
		return &dynamodb.GetItemOutput{}, nil
	}
	return f.getOutput, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.puts = append(f.puts, in)
	return &dynamodb.PutItemOutput{}, f.err
}

func (f *fakeDynamo) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queries = append(f.queries, in)
	if len(f.pages) == 0 {
		return &dynamodb.QueryOutput{}, nil
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func (f *fakeDynamo) TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.transactions = append(f.transactions, in)
	return &dynamodb.TransactWriteItemsOutput{}, f.err
}

func TestCondition(t *testing.T) {
	tests := []struct {
		name  string
		write Write
		want  string
	}{
		{"always", Put(Key{PK: "A", SK: "1"}, record{}), ""},
		{"if absent", PutIfAbsent(Key{PK: "A", SK: "1"}, record{}), "attribute_not_exists(#pk)"},
		{"if version zero", PutIfVersion(Key{PK: "A", SK: "1"}, record{}, 0), "attribute_not_exists(#pk)"},
		{"if version", PutIfVersion(Key{PK: "A", SK: "1"}, record{}, 4), "#v = :v"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, _, _ := condition(tt.write)
			assert.Equal(t, tt.want, aws.ToString(expr))
		})
	}
}

func TestDynamoStore_SingleWriteUsesConditionalPut(t *testing.T) {
	fake := &fakeDynamo{}
	s := NewDynamoStore(fake, "VenueMatch")

	require.NoError(t, s.Write(context.Background(), PutIfVersion(Key{PK: "PAIR#a#b", SK: "STATE"}, record{Name: "x"}, 3)))
	require.Len(t, fake.puts, 1)
	put := fake.puts[0]
	assert.Equal(t, "#v = :v", aws.ToString(put.ConditionExpression))
	assert.Equal(t, &types.AttributeValueMemberN{Value: "3"}, put.ExpressionAttributeValues[":v"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "4"}, put.Item[AttrVersion])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "PAIR#a#b"}, put.Item[AttrPK])
}

func TestDynamoStore_BatchUsesTransaction(t *testing.T) {
	fake := &fakeDynamo{}
	s := NewDynamoStore(fake, "VenueMatch")

	err := s.Write(context.Background(),
		PutIfAbsent(Key{PK: "MATCH#1", SK: "META"}, record{}),
		PutIfVersion(Key{PK: "PAIR#a#b", SK: "STATE"}, record{}, 0),
	)
	require.NoError(t, err)
	require.Len(t, fake.transactions, 1)
	assert.Len(t, fake.transactions[0].TransactItems, 2)
	assert.Empty(t, fake.puts)
}

func TestDynamoStore_TranslatesConditionFailures(t *testing.T) {
	ctx := context.Background()

	single := &fakeDynamo{err: &types.ConditionalCheckFailedException{Message: aws.String("nope")}}
	err := NewDynamoStore(single, "T").Write(ctx, PutIfAbsent(Key{PK: "A", SK: "1"}, record{}))
	assert.ErrorIs(t, err, ErrConditionFailed)

	cancelled := &fakeDynamo{err: &types.TransactionCanceledException{
		CancellationReasons: []types.CancellationReason{{Code: aws.String("None")}, {Code: aws.String("ConditionalCheckFailed")}},
	}}
	err = NewDynamoStore(cancelled, "T").Write(ctx,
		PutIfAbsent(Key{PK: "A", SK: "1"}, record{}),
		PutIfAbsent(Key{PK: "A", SK: "2"}, record{}),
	)
	assert.ErrorIs(t, err, ErrConditionFailed)

	broken := &fakeDynamo{err: errors.New("throttled")}
	err = NewDynamoStore(broken, "T").Write(ctx, Put(Key{PK: "A", SK: "1"}, record{}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConditionFailed)
}

func TestDynamoStore_GetMissing(t *testing.T) {
	s := NewDynamoStore(&fakeDynamo{}, "T")
	var r record
	_, err := s.Get(context.Background(), Key{PK: "A", SK: "1"}, &r)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDynamoStore_GetDecodesVersion(t *testing.T) {
	fake := &fakeDynamo{getOutput: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		AttrPK:      &types.AttributeValueMemberS{Value: "A"},
		AttrSK:      &types.AttributeValueMemberS{Value: "1"},
		AttrVersion: &types.AttributeValueMemberN{Value: "7"},
		"name":      &types.AttributeValueMemberS{Value: "n"},
	}}}
	var r record
	version, err := NewDynamoStore(fake, "T").Get(context.Background(), Key{PK: "A", SK: "1"}, &r)
	require.NoError(t, err)
	assert.Equal(t, int64(7), version)
	assert.Equal(t, "n", r.Name)
}

func TestDynamoStore_QueryFollowsPages(t *testing.T) {
	fake := &fakeDynamo{pages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{{"name": &types.AttributeValueMemberS{Value: "one"}}},
			LastEvaluatedKey: map[string]types.AttributeValue{AttrPK: &types.AttributeValueMemberS{Value: "M"}},
		},
		{
			Items: []map[string]types.AttributeValue{{"name": &types.AttributeValueMemberS{Value: "two"}}},
		},
	}}
	var got []record
	require.NoError(t, NewDynamoStore(fake, "T").Query(context.Background(), "M", "MSG#", &got))
	require.Len(t, got, 2)
	assert.Equal(t, "two", got[1].Name)
	require.Len(t, fake.queries, 2)
	assert.Equal(t, "#pk = :pk AND begins_with(#sk, :sk)", aws.ToString(fake.queries[0].KeyConditionExpression))
	assert.True(t, aws.ToBool(fake.queries[0].ConsistentRead))
}
