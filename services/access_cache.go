package services

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docveil/models"
)

// DecisionCache keeps recent permission decisions in redis under a short TTL.
// Permission checks tolerate transient staleness, so a cached decision may
// briefly survive a grant or revoke; the TTL bounds the window. A nil client
// disables caching entirely.
type DecisionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewDecisionCache(client *redis.Client, ttl time.Duration) *DecisionCache {
	return &DecisionCache{client: client, ttl: ttl}
}

// decisionKey spans everything the evaluator reads from the identity: the
// user and the group set. Keying on the user alone would keep serving a
// decision earned through a group the user has since left.
func decisionKey(kind models.ResourceKind, resourceID primitive.ObjectID, identity *models.Identity, action models.PermissionType) string {
	return fmt.Sprintf("perm:%s:%s:%s:%s:%s", kind, resourceID.Hex(), identity.UserID.Hex(), groupSetHash(identity.GroupIDs), action)
}

// groupSetHash digests a group-id set order-independently.
func groupSetHash(groupIDs []primitive.ObjectID) string {
	if len(groupIDs) == 0 {
		return "-"
	}
	hexes := make([]string, len(groupIDs))
	for i, id := range groupIDs {
		hexes[i] = id.Hex()
	}
	sort.Strings(hexes)
	h := fnv.New64a()
	for _, hex := range hexes {
		h.Write([]byte(hex))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Get returns the cached decision and whether one was present. Redis errors
// count as a miss.
func (c *DecisionCache) Get(ctx context.Context, kind models.ResourceKind, resourceID primitive.ObjectID, identity *models.Identity, action models.PermissionType) (bool, bool) {
	if c == nil || c.client == nil {
		return false, false
	}
	val, err := c.client.Get(ctx, decisionKey(kind, resourceID, identity, action)).Result()
	if err != nil {
		return false, false
	}
	return val == "1", true
}

// Set stores a decision best-effort.
func (c *DecisionCache) Set(ctx context.Context, kind models.ResourceKind, resourceID primitive.ObjectID, identity *models.Identity, action models.PermissionType, allowed bool) {
	if c == nil || c.client == nil {
		return
	}
	val := "0"
	if allowed {
		val = "1"
	}
	c.client.Set(ctx, decisionKey(kind, resourceID, identity, action), val, c.ttl)
}

// InvalidateResource drops every cached decision for one resource. Decisions
// cached under descendants that inherited from this resource are left to
// expire with the TTL.
func (c *DecisionCache) InvalidateResource(ctx context.Context, kind models.ResourceKind, resourceID primitive.ObjectID) {
	if c == nil || c.client == nil {
		return
	}
	pattern := fmt.Sprintf("perm:%s:%s:*", kind, resourceID.Hex())
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		c.client.Del(ctx, iter.Val())
	}
}
