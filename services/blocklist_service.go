package services

import (
	"context"
	"sync"

	"venuematch_server/redis"
)

// BlockList answers whether either user has blocked the other. It is owned
// outside the engine.
type BlockList interface {
	IsBlocked(ctx context.Context, userA, userB string) (bool, error)
}

// MemoryBlockList is an in-process block list.
type MemoryBlockList struct {
	mu     sync.RWMutex
	blocks map[string]map[string]struct{}
}

func NewMemoryBlockList() *MemoryBlockList {
	return &MemoryBlockList{blocks: make(map[string]map[string]struct{})}
}

// Block records that blocker blocked blocked.
func (b *MemoryBlockList) Block(blocker, blocked string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set, ok := b.blocks[blocker]
	if !ok {
		set = make(map[string]struct{})
		b.blocks[blocker] = set
	}
	set[blocked] = struct{}{}
}

func (b *MemoryBlockList) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ab := b.blocks[userA][userB]
	_, ba := b.blocks[userB][userA]
	return ab || ba, nil
}

// RedisBlockList reads sets at blocks:<user> holding the users they blocked.
type RedisBlockList struct {
	Redis *redis.Service
}

func blocksKey(userID string) string { return "blocks:" + userID }

// Block records that blocker blocked blocked.
func (r *RedisBlockList) Block(ctx context.Context, blocker, blocked string) error {
	return r.Redis.AddToSet(ctx, blocksKey(blocker), blocked)
}

func (r *RedisBlockList) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	blocked, err := r.Redis.IsMember(ctx, blocksKey(userA), userB)
	if err != nil || blocked {
		return blocked, err
	}
	return r.Redis.IsMember(ctx, blocksKey(userB), userA)
}
