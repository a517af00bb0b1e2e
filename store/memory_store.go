package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// MemoryStore is an in-process Store. Items are kept in their DynamoDB
// attribute form so both backends share the same encoding rules.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]map[string]map[string]types.AttributeValue // PK -> SK -> item
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]map[string]map[string]types.AttributeValue)}
}

func (s *MemoryStore) Get(ctx context.Context, key Key, out any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	item, ok := s.items[key.PK][key.SK]
	s.mu.RUnlock()
	if !ok {
		return 0, ErrNotFound
	}
	if err := attributevalue.UnmarshalMap(item, out); err != nil {
		return 0, fmt.Errorf("failed to unmarshal item %s: %w", key, err)
	}
	return itemVersion(item)
}

func (s *MemoryStore) Query(ctx context.Context, pk, skPrefix string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	partition := s.items[pk]
	sks := make([]string, 0, len(partition))
	for sk := range partition {
		if strings.HasPrefix(sk, skPrefix) {
			sks = append(sks, sk)
		}
	}
	sort.Strings(sks)
	rows := make([]map[string]types.AttributeValue, 0, len(sks))
	for _, sk := range sks {
		rows = append(rows, partition[sk])
	}
	s.mu.RUnlock()

	if err := attributevalue.UnmarshalListOfMaps(rows, out); err != nil {
		return fmt.Errorf("failed to unmarshal query result for %s: %w", pk, err)
	}
	return nil
}

func (s *MemoryStore) Write(ctx context.Context, writes ...Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateBatch(writes); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	encoded := make([]map[string]types.AttributeValue, len(writes))
	for i, w := range writes {
		current, exists := s.items[w.Key.PK][w.Key.SK]
		var version int64
		if exists {
			v, err := itemVersion(current)
			if err != nil {
				return err
			}
			version = v
		}
		switch w.Cond {
		case IfAbsent:
			if exists {
				return fmt.Errorf("%s on %s: %w", w.Cond, w.Key, ErrConditionFailed)
			}
		case IfVersion:
			if version != w.Version {
				return fmt.Errorf("%s on %s (have %d, want %d): %w", w.Cond, w.Key, version, w.Version, ErrConditionFailed)
			}
		}
		av, err := encodeItem(w.Key, w.Item, nextVersion(w))
		if err != nil {
			return err
		}
		encoded[i] = av
	}

	for i, w := range writes {
		partition, ok := s.items[w.Key.PK]
		if !ok {
			partition = make(map[string]map[string]types.AttributeValue)
			s.items[w.Key.PK] = partition
		}
		partition[w.Key.SK] = encoded[i]
	}
	return nil
}

// Len reports the number of stored items.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, partition := range s.items {
		n += len(partition)
	}
	return n
}
