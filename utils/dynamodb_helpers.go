package utils

import (
	"strconv"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// ExtractInt64 safely extracts a number from a DynamoDB attribute map
func ExtractInt64(item map[string]types.AttributeValue, field string) (int64, bool) {
	attr, ok := item[field]
	if !ok {
		return 0, false
	}
	v, ok := attr.(*types.AttributeValueMemberN)
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(v.Value, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
