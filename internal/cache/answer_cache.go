package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// AnswerCache keeps recently generated answers per tenant so repeated
// questions skip retrieval and generation. Keys include the company id,
// so one tenant's cached answers are invisible to another's queries.
type AnswerCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewAnswerCache(client *redisv9.Client, ttl time.Duration) *AnswerCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnswerCache{client: client, ttl: ttl}
}

func (c *AnswerCache) Get(ctx context.Context, companyID uint, query string) (string, bool, error) {
	raw, err := c.client.Get(ctx, c.key(companyID, query)).Result()
	if err == redisv9.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get answer failed: %w", err)
	}
	return raw, true, nil
}

func (c *AnswerCache) Set(ctx context.Context, companyID uint, query, answer string) error {
	if err := c.client.Set(ctx, c.key(companyID, query), answer, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set answer failed: %w", err)
	}
	return nil
}

// InvalidateCompany drops all cached answers for one tenant, used when its
// corpus changes.
func (c *AnswerCache) InvalidateCompany(ctx context.Context, companyID uint) error {
	pattern := fmt.Sprintf("qa:answer:%d:*", companyID)
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis delete answer failed: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan answers failed: %w", err)
	}
	return nil
}

func (c *AnswerCache) key(companyID uint, query string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(query))))
	return fmt.Sprintf("qa:answer:%d:%s", companyID, hex.EncodeToString(sum[:16]))
}
