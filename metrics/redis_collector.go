package metrics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/marcelsud/teams-inbox/consumer"
	"github.com/marcelsud/teams-inbox/inbox"
	inboxredis "github.com/marcelsud/teams-inbox/inbox/redis"
	"github.com/redis/go-redis/v9"
)

const scanBatch = 1000

// RedisCollector implements the Collector interface for the Redis-backed inbox
type RedisCollector struct {
	client    *redis.Client
	consumers consumer.Registry
	workers   *inboxredis.Repository
	now       func() time.Time
}

func NewRedisCollector(client *redis.Client, consumers consumer.Registry) *RedisCollector {
	return &RedisCollector{
		client:    client,
		consumers: consumers,
		workers:   inboxredis.NewRepositoryWithClient(client),
		now:       time.Now,
	}
}

// Collect gathers all metrics from Redis
func (c *RedisCollector) Collect(ctx context.Context) (Metrics, error) {
	queueLengths, err := c.GetQueueLengths(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting queue lengths: %w", err)
	}

	statusCounts, err := c.GetStatusCounts(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting status counts: %w", err)
	}

	throughput, err := c.GetThroughput(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting throughput: %w", err)
	}

	workers, err := c.GetActiveWorkers(ctx)
	if err != nil {
		return Metrics{}, fmt.Errorf("getting active workers: %w", err)
	}

	return Metrics{
		QueueLengths: queueLengths,
		StatusCounts: statusCounts,
		Throughput:   throughput,
		Workers:      workers,
		Timestamp:    c.now(),
	}, nil
}

// GetQueueLengths returns the number of events waiting for each consumer,
// in its stream or scheduled for a retry
func (c *RedisCollector) GetQueueLengths(ctx context.Context) (map[string]int64, error) {
	registrations, err := c.consumers.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing consumers: %w", err)
	}

	queueLengths := make(map[string]int64, len(registrations))
	for _, reg := range registrations {
		length, err := c.client.XLen(ctx, inboxredis.StreamKey(reg.ID)).Result()
		if err != nil && err != redis.Nil {
			// Continue even if one stream fails
			continue
		}
		scheduled := c.client.ZCard(ctx, inboxredis.RetryKey(reg.ID)).Val()
		queueLengths[reg.ID] = length + scheduled
	}
	return queueLengths, nil
}

// GetStatusCounts returns counts of stored events grouped by status
func (c *RedisCollector) GetStatusCounts(ctx context.Context) (map[string]int64, error) {
	statusCounts := make(map[string]int64, len(inbox.Statuses))
	for _, s := range inbox.Statuses {
		statusCounts[s.String()] = 0
	}

	err := c.scanEvents(ctx, func(status string, _ int64) {
		if _, exists := statusCounts[status]; exists {
			statusCounts[status]++
		}
	})
	if err != nil {
		return nil, err
	}
	return statusCounts, nil
}

// GetThroughput counts events delivered over the last 1, 5 and 15 minutes
func (c *RedisCollector) GetThroughput(ctx context.Context) (ThroughputMetrics, error) {
	now := c.now()
	oneMinuteAgo := now.Add(-1 * time.Minute).Unix()
	fiveMinutesAgo := now.Add(-5 * time.Minute).Unix()
	fifteenMinutesAgo := now.Add(-15 * time.Minute).Unix()

	var tp ThroughputMetrics
	err := c.scanEvents(ctx, func(status string, updatedAt int64) {
		if status != inbox.Delivered.String() || updatedAt < fifteenMinutesAgo {
			return
		}
		tp.LastFifteenMinutes++
		if updatedAt >= fiveMinutesAgo {
			tp.LastFiveMinutes++
			if updatedAt >= oneMinuteAgo {
				tp.LastMinute++
			}
		}
	})
	if err != nil {
		return ThroughputMetrics{}, err
	}
	return tp, nil
}

// scanEvents visits status and updated_at of every stored event
func (c *RedisCollector) scanEvents(ctx context.Context, visit func(status string, updatedAt int64)) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, inboxredis.EventKey("*"), scanBatch).Result()
		if err != nil {
			return fmt.Errorf("scanning event keys: %w", err)
		}

		if len(keys) > 0 {
			pipe := c.client.Pipeline()
			cmds := make([]*redis.SliceCmd, len(keys))
			for i, key := range keys {
				cmds[i] = pipe.HMGet(ctx, key, "status", "updated_at")
			}
			if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
				return fmt.Errorf("executing pipeline: %w", err)
			}

			for _, cmd := range cmds {
				values, err := cmd.Result()
				if err != nil || len(values) < 2 {
					continue
				}
				status, _ := values[0].(string)
				raw, _ := values[1].(string)
				updatedAt, _ := strconv.ParseInt(raw, 10, 64)
				visit(status, updatedAt)
			}
		}

		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// GetActiveWorkers returns the workers whose heartbeat has not expired
func (c *RedisCollector) GetActiveWorkers(ctx context.Context) (map[string]WorkerInfo, error) {
	beats, err := c.workers.ActiveWorkers(ctx)
	if err != nil {
		return nil, err
	}

	workers := make(map[string]WorkerInfo, len(beats))
	for id, hb := range beats {
		workers[id] = WorkerInfo{
			ConsumerID:    hb.ConsumerID,
			Status:        hb.Status,
			LastHeartbeat: hb.LastHeartbeat,
		}
	}
	return workers, nil
}
