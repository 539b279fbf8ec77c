/*
[AI GENERATED - GOVERNANCE PROTOCOL]
──────────────────────────────────────────────────────────────
Model:       Claude Opus 4.6
Tier:        L4
Logic:       Distributed Counter Store Adapter (C1) over Redis.
             Atomicity is realized with a WATCH/MULTI/EXEC
             optimistic-transaction loop: watch the three counter
             keys, prune + read inside the transaction function,
             evaluate the admission predicate, and queue the
             charge writes in the MULTI block so a concurrent
             writer touching any watched key aborts and retries
             the whole decision rather than racing it.
Root Cause:  Sprint task — distributed rate limit core (C1),
             multi-node backend.
Context:     This is the component multiple stateless gateway
             nodes share; the store, not the controller, owns
             the atomicity guarantee (SPEC_FULL.md §4.1, §5).
Suitability: L4 — correctness under concurrent, cross-node
             access is the hardest property in this system.
──────────────────────────────────────────────────────────────
*/

package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store over a go-redis/v9 client.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore wraps an existing go-redis client.
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

const maxAdmitRetries = 10

// AdmitAndCharge implements Store using a WATCH/MULTI/EXEC retry loop.
// On redis.TxFailedErr (another writer touched a watched key mid-flight)
// the whole decision is retried; any other error is fail-closed.
func (s *RedisStore) AdmitAndCharge(ctx context.Context, keys CounterKeys, now, windowStart int64, inputUnits, outputUnits, requestUnits int64, limits BudgetTriple) (bool, string, error) {
	windowStartScore := strconv.FormatInt(windowStart, 10)

	var admitted bool
	var reason string

	txf := func(tx *redis.Tx) error {
		if err := tx.ZRemRangeByScore(ctx, keys.Input, "-inf", windowStartScore).Err(); err != nil {
			return err
		}
		if err := tx.ZRemRangeByScore(ctx, keys.Output, "-inf", windowStartScore).Err(); err != nil {
			return err
		}
		if err := tx.ZRemRangeByScore(ctx, keys.Request, "-inf", windowStartScore).Err(); err != nil {
			return err
		}

		ci, err := tx.ZCard(ctx, keys.Input).Result()
		if err != nil {
			return err
		}
		co, err := tx.ZCard(ctx, keys.Output).Result()
		if err != nil {
			return err
		}
		cr, err := tx.ZCard(ctx, keys.Request).Result()
		if err != nil {
			return err
		}

		switch {
		case ci+inputUnits > int64(limits.InputTPM):
			admitted, reason = false, ReasonInputExceeded
			return nil
		case co+outputUnits > int64(limits.OutputTPM):
			admitted, reason = false, ReasonOutputExceeded
			return nil
		case cr+requestUnits > int64(limits.RPM):
			admitted, reason = false, ReasonRequestsExceeded
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			addMembers(pipe, ctx, keys.Input, inputUnits, now)
			addMembers(pipe, ctx, keys.Output, outputUnits, now)
			addMembers(pipe, ctx, keys.Request, requestUnits, now)
			pipe.Expire(ctx, keys.Input, KeyTTL*time.Second)
			pipe.Expire(ctx, keys.Output, KeyTTL*time.Second)
			pipe.Expire(ctx, keys.Request, KeyTTL*time.Second)
			return nil
		})
		if err != nil {
			return err
		}

		admitted, reason = true, ReasonOK
		return nil
	}

	for attempt := 0; attempt < maxAdmitRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, keys.Input, keys.Output, keys.Request)
		if err == nil {
			return admitted, reason, nil
		}
		if err == redis.TxFailedErr {
			continue
		}
		return false, "", fmt.Errorf("redis transaction: %w", err)
	}

	return false, "", fmt.Errorf("redis transaction: exceeded %d retries under contention", maxAdmitRetries)
}

func addMembers(pipe redis.Pipeliner, ctx context.Context, key string, n, now int64) {
	for i := int64(0); i < n; i++ {
		member := strconv.FormatInt(now, 10) + ":" + strconv.FormatUint(rand.Uint64(), 36)
		pipe.ZAdd(ctx, key, redis.Z{Score: float64(now), Member: member})
	}
}

// Usage implements Store. Non-mutating: counts entries in range without pruning.
func (s *RedisStore) Usage(ctx context.Context, keys CounterKeys, now, windowStart int64, limits BudgetTriple) (Usage, error) {
	from := strconv.FormatInt(windowStart, 10)
	to := strconv.FormatInt(now, 10)

	pipe := s.rdb.Pipeline()
	iCmd := pipe.ZCount(ctx, keys.Input, from, to)
	oCmd := pipe.ZCount(ctx, keys.Output, from, to)
	rCmd := pipe.ZCount(ctx, keys.Request, from, to)

	if _, err := pipe.Exec(ctx); err != nil {
		return Usage{}, fmt.Errorf("redis usage query: %w", err)
	}

	return Usage{
		InputTokensUsed:   iCmd.Val(),
		InputTokensLimit:  limits.InputTPM,
		OutputTokensUsed:  oCmd.Val(),
		OutputTokensLimit: limits.OutputTPM,
		RequestsUsed:      rCmd.Val(),
		RequestsLimit:     limits.RPM,
		WindowSeconds:     Window,
	}, nil
}
