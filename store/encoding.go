package store

import (
	"fmt"
	"strconv"

	"venuematch_server/utils"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// encodeItem marshals item and stamps the reserved key and version attributes.
func encodeItem(key Key, item any, version int64) (map[string]types.AttributeValue, error) {
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item %s: %w", key, err)
	}
	av[AttrPK] = &types.AttributeValueMemberS{Value: key.PK}
	av[AttrSK] = &types.AttributeValueMemberS{Value: key.SK}
	av[AttrVersion] = &types.AttributeValueMemberN{Value: strconv.FormatInt(version, 10)}
	return av, nil
}

// itemVersion reads the reserved version attribute; absent means 0.
func itemVersion(av map[string]types.AttributeValue) (int64, error) {
	if _, ok := av[AttrVersion]; !ok {
		return 0, nil
	}
	v, ok := utils.ExtractInt64(av, AttrVersion)
	if !ok {
		return 0, fmt.Errorf("version attribute is not a number: %v", av[AttrVersion])
	}
	return v, nil
}
