package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// DynamoStore keeps every record in one table keyed by string PK and SK.
type DynamoStore struct {
	Client    DynamoAPI
	TableName string
}

// NewDynamoDBClient loads the default AWS config for region. A non-empty
// endpoint points the client at a local DynamoDB.
func NewDynamoDBClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewDynamoStore wraps client for table.
func NewDynamoStore(client DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{Client: client, TableName: table}
}

func (ds *DynamoStore) Get(ctx context.Context, key Key, out any) (int64, error) {
	output, err := ds.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &ds.TableName,
		Key:            keyAttributes(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get item %s from table '%s': %w", key, ds.TableName, err)
	}
	if output.Item == nil {
		return 0, ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(output.Item, out); err != nil {
		return 0, fmt.Errorf("failed to unmarshal item %s: %w", key, err)
	}
	return itemVersion(output.Item)
}

func (ds *DynamoStore) Query(ctx context.Context, pk, skPrefix string, out any) error {
	input := queryInput(ds.TableName, pk, skPrefix)

	var items []map[string]types.AttributeValue
	paginator := dynamodb.NewQueryPaginator(ds.Client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("failed to query table '%s' for %s: %w", ds.TableName, pk, err)
		}
		items = append(items, page.Items...)
	}

	if err := attributevalue.UnmarshalListOfMaps(items, out); err != nil {
		return fmt.Errorf("failed to unmarshal query result for %s: %w", pk, err)
	}
	return nil
}

func (ds *DynamoStore) Write(ctx context.Context, writes ...Write) error {
	if err := validateBatch(writes); err != nil {
		return err
	}

	if len(writes) == 1 {
		input, err := putInput(ds.TableName, writes[0])
		if err != nil {
			return err
		}
		_, err = ds.Client.PutItem(ctx, input)
		return ds.translateWriteError(err, writes)
	}

	items, err := transactItems(ds.TableName, writes)
	if err != nil {
		return err
	}
	_, err = ds.Client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return ds.translateWriteError(err, writes)
}

func (ds *DynamoStore) translateWriteError(err error, writes []Write) error {
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("put %s: %w", writes[0].Key, ErrConditionFailed)
	}
	var tce *types.TransactionCanceledException
	if errors.As(err, &tce) {
		for i, reason := range tce.CancellationReasons {
			code := aws.ToString(reason.Code)
			if code == "ConditionalCheckFailed" || code == "TransactionConflict" {
				log.Printf("⚠️ Transaction on table '%s' cancelled at item %d (%s): %s", ds.TableName, i, code, describeWrite(writes, i))
				return fmt.Errorf("transaction item %d (%s): %w", i, code, ErrConditionFailed)
			}
		}
	}
	return fmt.Errorf("failed to write %d item(s) to table '%s': %w", len(writes), ds.TableName, err)
}

func describeWrite(writes []Write, i int) string {
	if i < 0 || i >= len(writes) {
		return "?"
	}
	return writes[i].Key.String()
}

func keyAttributes(key Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		AttrPK: &types.AttributeValueMemberS{Value: key.PK},
		AttrSK: &types.AttributeValueMemberS{Value: key.SK},
	}
}

func queryInput(table, pk, skPrefix string) *dynamodb.QueryInput {
	keyCondition := "#pk = :pk"
	names := map[string]string{"#pk": AttrPK}
	values := map[string]types.AttributeValue{
		":pk": &types.AttributeValueMemberS{Value: pk},
	}
	if skPrefix != "" {
		keyCondition += " AND begins_with(#sk, :sk)"
		names["#sk"] = AttrSK
		values[":sk"] = &types.AttributeValueMemberS{Value: skPrefix}
	}
	return &dynamodb.QueryInput{
		TableName:                 aws.String(table),
		KeyConditionExpression:    aws.String(keyCondition),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
		ConsistentRead:            aws.Bool(true),
		ScanIndexForward:          aws.Bool(true),
	}
}

// condition renders the DynamoDB condition for w. A nil expression means unconditional.
func condition(w Write) (*string, map[string]string, map[string]types.AttributeValue) {
	switch w.Cond {
	case IfAbsent:
		return aws.String("attribute_not_exists(#pk)"), map[string]string{"#pk": AttrPK}, nil
	case IfVersion:
		if w.Version == 0 {
			return aws.String("attribute_not_exists(#pk)"), map[string]string{"#pk": AttrPK}, nil
		}
		return aws.String("#v = :v"),
			map[string]string{"#v": AttrVersion},
			map[string]types.AttributeValue{":v": &types.AttributeValueMemberN{Value: strconv.FormatInt(w.Version, 10)}}
	}
	return nil, nil, nil
}

func putInput(table string, w Write) (*dynamodb.PutItemInput, error) {
	item, err := encodeItem(w.Key, w.Item, nextVersion(w))
	if err != nil {
		return nil, err
	}
	expr, names, values := condition(w)
	return &dynamodb.PutItemInput{
		TableName:                 aws.String(table),
		Item:                      item,
		ConditionExpression:       expr,
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	}, nil
}

func transactItems(table string, writes []Write) ([]types.TransactWriteItem, error) {
	items := make([]types.TransactWriteItem, 0, len(writes))
	for _, w := range writes {
		item, err := encodeItem(w.Key, w.Item, nextVersion(w))
		if err != nil {
			return nil, err
		}
		expr, names, values := condition(w)
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{
				TableName:                 aws.String(table),
				Item:                      item,
				ConditionExpression:       expr,
				ExpressionAttributeNames:  names,
				ExpressionAttributeValues: values,
			},
		})
	}
	return items, nil
}
