package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/edututor/edututor-backend/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisBackend keeps each document in a hash and orders them through sorted-set
// indexes scored by a first-insertion sequence number.
type RedisBackend struct {
	rdb *redis.Client
}

// NewRedisBackend creates a new RedisBackend.
func NewRedisBackend(rdb *redis.Client) *RedisBackend {
	return &RedisBackend{rdb: rdb}
}

func (b *RedisBackend) Upsert(ctx context.Context, doc Document) error {
	recordKey := config.CacheKey.MetadataRecordKey(doc.ID)

	prev, err := b.rdb.HMGet(ctx, recordKey, "seq", "type", "email").Result()
	if err != nil {
		return fmt.Errorf("read record %s: %w", doc.ID, err)
	}

	var seq int64
	if s, ok := prev[0].(string); ok {
		seq, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("corrupt sequence on %s: %w", doc.ID, err)
		}
	} else {
		seq, err = b.rdb.Incr(ctx, config.CacheKey.MetadataSequenceKey()).Result()
		if err != nil {
			return fmt.Errorf("next sequence: %w", err)
		}
	}

	_, err = b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		// Drop stale index entries when a replace moves the record.
		if oldType, ok := prev[1].(string); ok {
			oldEmail, _ := prev[2].(string)
			if oldType != string(doc.Type) || oldEmail != doc.Email {
				pipe.ZRem(ctx, config.CacheKey.MetadataTypeIndexKey(oldType), doc.ID)
				pipe.ZRem(ctx, config.CacheKey.MetadataEmailIndexKey(oldType, oldEmail), doc.ID)
			}
		}

		pipe.HSet(ctx, recordKey, map[string]any{
			"seq":      seq,
			"type":     string(doc.Type),
			"email":    doc.Email,
			"metadata": string(doc.Metadata),
		})
		member := redis.Z{Score: float64(seq), Member: doc.ID}
		pipe.ZAdd(ctx, config.CacheKey.MetadataTypeIndexKey(string(doc.Type)), member)
		pipe.ZAdd(ctx, config.CacheKey.MetadataEmailIndexKey(string(doc.Type), doc.Email), member)
		return nil
	})
	return err
}

func (b *RedisBackend) Query(ctx context.Context, q Query) ([]Document, error) {
	if q.Limit <= 0 {
		return nil, nil
	}

	indexKey := config.CacheKey.MetadataTypeIndexKey(string(q.Type))
	if q.Email != "" {
		indexKey = config.CacheKey.MetadataEmailIndexKey(string(q.Type), q.Email)
	}

	ids, err := b.rdb.ZRange(ctx, indexKey, 0, int64(q.Limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read index %s: %w", indexKey, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := b.rdb.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, config.CacheKey.MetadataRecordKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read records: %w", err)
	}

	docs := make([]Document, 0, len(ids))
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			// Index entry outlived its record.
			continue
		}
		docs = append(docs, Document{
			ID:       ids[i],
			Type:     RecordType(fields["type"]),
			Email:    fields["email"],
			Metadata: []byte(fields["metadata"]),
		})
	}
	return docs, nil
}

func (b *RedisBackend) Ping(ctx context.Context) error {
	return b.rdb.Ping(ctx).Err()
}
