package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tdvu/marketsnap/internal/core/domain"
)

// FailedProtoRepo tracks protos whose pricing exhausted its retries,
// backed by Redis so the requeue worker survives restarts.
type FailedProtoRepo struct {
	rdb        *redis.Client
	collection string
}

// NewFailedProtoRepo creates a new Redis-backed failed proto repository.
func NewFailedProtoRepo(client *Client, collection string) *FailedProtoRepo {
	return &FailedProtoRepo{
		rdb:        client.rdb,
		collection: collection,
	}
}

// Key helpers
func (r *FailedProtoRepo) queueKey() string {
	return fmt.Sprintf("failed_protos:%s", r.collection)
}

func (r *FailedProtoRepo) protoKey(proto domain.ProtoID) string {
	return fmt.Sprintf("failed_proto:%s:%s", r.collection, proto)
}

// Add adds a failed proto to the queue.
func (r *FailedProtoRepo) Add(ctx context.Context, fp *domain.FailedProto) error {
	data, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("failed to marshal failed proto: %w", err)
	}

	if err := r.rdb.Set(ctx, r.protoKey(fp.Proto), data, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set failed proto: %w", err)
	}

	// Score = retry count, so the least-retried proto is picked up first
	if err := r.rdb.ZAdd(ctx, r.queueKey(), redis.Z{
		Score:  float64(fp.RetryCount),
		Member: fp.Proto.String(),
	}).Err(); err != nil {
		return fmt.Errorf("failed to add to queue: %w", err)
	}

	return nil
}

// GetNext retrieves the next failed proto to retry. Returns (nil, nil)
// when the queue is empty.
func (r *FailedProtoRepo) GetNext(ctx context.Context) (*domain.FailedProto, error) {
	results, err := r.rdb.ZRange(ctx, r.queueKey(), 0, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	if len(results) == 0 {
		return nil, nil
	}

	member := results[0]
	id, err := strconv.ParseInt(member, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid proto member %q: %w", member, err)
	}
	proto := domain.ProtoID(id)

	data, err := r.rdb.Get(ctx, r.protoKey(proto)).Bytes()
	if err == redis.Nil {
		// Data expired but member still in queue, remove it
		r.rdb.ZRem(ctx, r.queueKey(), member)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed proto: %w", err)
	}

	var fp domain.FailedProto
	if err := json.Unmarshal(data, &fp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed proto: %w", err)
	}

	return &fp, nil
}

// IncrementRetry increments retry count and updates the last attempt.
func (r *FailedProtoRepo) IncrementRetry(ctx context.Context, proto domain.ProtoID) error {
	data, err := r.rdb.Get(ctx, r.protoKey(proto)).Bytes()
	if err != nil {
		return fmt.Errorf("failed to get failed proto: %w", err)
	}

	var fp domain.FailedProto
	if err := json.Unmarshal(data, &fp); err != nil {
		return fmt.Errorf("failed to unmarshal failed proto: %w", err)
	}

	fp.RetryCount++
	fp.LastAttempt = time.Now()

	newData, err := json.Marshal(fp)
	if err != nil {
		return fmt.Errorf("failed to marshal failed proto: %w", err)
	}

	if err := r.rdb.Set(ctx, r.protoKey(proto), newData, 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set failed proto: %w", err)
	}

	if err := r.rdb.ZAdd(ctx, r.queueKey(), redis.Z{
		Score:  float64(fp.RetryCount),
		Member: proto.String(),
	}).Err(); err != nil {
		return fmt.Errorf("failed to update queue: %w", err)
	}

	return nil
}

// MarkResolved removes a failed proto (successfully priced on retry).
func (r *FailedProtoRepo) MarkResolved(ctx context.Context, proto domain.ProtoID) error {
	if err := r.rdb.ZRem(ctx, r.queueKey(), proto.String()).Err(); err != nil {
		return fmt.Errorf("failed to remove from queue: %w", err)
	}

	if err := r.rdb.Del(ctx, r.protoKey(proto)).Err(); err != nil {
		return fmt.Errorf("failed to delete failed proto: %w", err)
	}

	return nil
}

// GetAll retrieves all failed protos currently queued.
func (r *FailedProtoRepo) GetAll(ctx context.Context) ([]*domain.FailedProto, error) {
	members, err := r.rdb.ZRange(ctx, r.queueKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("zrange failed: %w", err)
	}

	protos := make([]*domain.FailedProto, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		proto := domain.ProtoID(id)

		data, err := r.rdb.Get(ctx, r.protoKey(proto)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get failed proto: %w", err)
		}

		var fp domain.FailedProto
		if err := json.Unmarshal(data, &fp); err != nil {
			continue
		}
		protos = append(protos, &fp)
	}

	return protos, nil
}

// Count returns the number of queued failed protos.
func (r *FailedProtoRepo) Count(ctx context.Context) (int, error) {
	count, err := r.rdb.ZCard(ctx, r.queueKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}
