package store

import (
	"context"
	"errors"
	"fmt"
)

// Reserved attribute names added to every stored item.
const (
	AttrPK      = "PK"
	AttrSK      = "SK"
	AttrVersion = "version"
)

var (
	// ErrNotFound is returned by Get when no item exists under the key.
	ErrNotFound = errors.New("item not found")
	// ErrConditionFailed is returned by Write when any condition in the batch fails.
	ErrConditionFailed = errors.New("condition failed")
)

// MaxBatch is the largest number of writes accepted by one Write call.
const MaxBatch = 100

// Key locates an item in the single table.
type Key struct {
	PK string
	SK string
}

func (k Key) String() string { return k.PK + "|" + k.SK }

// Cond is the precondition attached to a write.
type Cond int

const (
	// Always overwrites unconditionally and restarts the item at version 1.
	// Use it only for items nobody compare-and-sets.
	Always Cond = iota
	// IfAbsent succeeds only when no item exists under the key.
	IfAbsent
	// IfVersion succeeds only when the stored version equals Write.Version.
	// Version 0 means "absent".
	IfVersion
)

func (c Cond) String() string {
	switch c {
	case Always:
		return "always"
	case IfAbsent:
		return "if-absent"
	case IfVersion:
		return "if-version"
	}
	return fmt.Sprintf("cond(%d)", int(c))
}

// nextVersion is the version a successful write stores.
func nextVersion(w Write) int64 {
	if w.Cond == IfVersion {
		return w.Version + 1
	}
	return 1
}

// Write is one conditional put.
type Write struct {
	Key     Key
	Item    any
	Cond    Cond
	Version int64
}

// PutIfAbsent builds a put-if-absent write.
func PutIfAbsent(key Key, item any) Write {
	return Write{Key: key, Item: item, Cond: IfAbsent}
}

// PutIfVersion builds a compare-and-set write against version.
func PutIfVersion(key Key, item any, version int64) Write {
	return Write{Key: key, Item: item, Cond: IfVersion, Version: version}
}

// Put builds an unconditional write.
func Put(key Key, item any) Write {
	return Write{Key: key, Item: item, Cond: Always}
}

// Store is the durable record store behind the engine. A Write call is
// all-or-nothing: either every write in the batch is applied or none is.
type Store interface {
	// Get decodes the item at key into out and returns its version.
	Get(ctx context.Context, key Key, out any) (int64, error)
	// Query decodes every item under pk whose SK starts with skPrefix into out,
	// which must be a pointer to a slice. Items come back in ascending SK order.
	Query(ctx context.Context, pk, skPrefix string, out any) error
	// Write applies the batch atomically.
	Write(ctx context.Context, writes ...Write) error
}

func validateBatch(writes []Write) error {
	if len(writes) == 0 {
		return errors.New("write batch is empty")
	}
	if len(writes) > MaxBatch {
		return fmt.Errorf("write batch of %d exceeds limit of %d", len(writes), MaxBatch)
	}
	seen := make(map[Key]struct{}, len(writes))
	for _, w := range writes {
		if w.Key.PK == "" || w.Key.SK == "" {
			return errors.New("write key cannot be empty")
		}
		if _, dup := seen[w.Key]; dup {
			return fmt.Errorf("duplicate key %s in write batch", w.Key)
		}
		seen[w.Key] = struct{}{}
	}
	return nil
}
