package sharding

import "hash/fnv"

type ShardRouter struct {
	ShardCount int // Number of shards
}

func NewShardRouter(shardCount int) *ShardRouter {
	if shardCount < 1 {
		shardCount = 1
	}
	return &ShardRouter{ShardCount: shardCount}
}

// GetShard maps a user id to a shard index. All rows owned by one user land
// on the same shard, so a cart merge and the purchase insert can share one
// transaction.
func (r *ShardRouter) GetShard(userID string) int {
	h := fnv.New32a()
	h.Write([]byte(userID))
	// Mod in uint32 space: int(Sum32()) can be negative on 32-bit ints.
	return int(h.Sum32() % uint32(r.ShardCount))
}
