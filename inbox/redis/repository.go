package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/marcelsud/teams-inbox/inbox"
	"github.com/redis/go-redis/v9"
)

/* Redis implementation of inbox.Repository
 * One stream per consumer (inbox:stream:{consumer_id}) read through a consumer group,
 * one hash per event (inbox:event:{id}) and one marker per dedup key.
 * Retries wait in a sorted set per consumer (inbox:retry:{consumer_id}) scored
 * by due time in unix milliseconds until PromoteDue moves them back.
 */

const (
	streamPrefix = "inbox:stream"
	eventPrefix  = "inbox:event"
	dedupPrefix  = "inbox:dedup"
	retryPrefix  = "inbox:retry"
	groupName    = "inbox-workers"
	consumerName = "worker"
	readCount    = 10
)

type Repository struct {
	client *redis.Client
}

func NewRepository(addr, password string, db int) (*Repository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to Redis: %w", err)
	}
	return &Repository{client: client}, nil
}

// NewRepositoryWithClient shares an existing connection pool
func NewRepositoryWithClient(client *redis.Client) *Repository {
	return &Repository{client: client}
}

func (r *Repository) Enqueue(ctx context.Context, events []inbox.Event, dedupTTL time.Duration) (int, error) {
	var claimed []string
	accepted := make([]inbox.Event, 0, len(events))
	for _, ev := range events {
		if ev.DedupKey != "" {
			key := DedupKey(ev.DedupKey)
			fresh, err := r.client.SetNX(ctx, key, ev.ID, dedupTTL).Result()
			if err != nil {
				r.release(ctx, claimed)
				return 0, fmt.Errorf("claiming dedup key: %w", err)
			}
			if !fresh {
				continue
			}
			claimed = append(claimed, key)
		}
		accepted = append(accepted, ev)
	}
	if len(accepted) == 0 {
		return 0, nil
	}

	for _, ev := range accepted {
		if err := r.ensureGroup(ctx, StreamKey(ev.ConsumerID)); err != nil {
			r.release(ctx, claimed)
			return 0, err
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, ev := range accepted {
			pipe.HSet(ctx, EventKey(ev.ID), eventFields(ev))
			pipe.XAdd(ctx, &redis.XAddArgs{
				Stream: StreamKey(ev.ConsumerID),
				Values: map[string]any{"event_id": ev.ID},
			})
		}
		return nil
	})
	if err != nil {
		r.release(ctx, claimed)
		return 0, fmt.Errorf("storing events: %w", err)
	}
	return len(accepted), nil
}

// release forgets dedup claims of an enqueue that did not happen
func (r *Repository) release(ctx context.Context, keys []string) {
	if len(keys) > 0 {
		r.client.Del(ctx, keys...)
	}
}

func (r *Repository) Get(ctx context.Context, id string) (inbox.Event, error) {
	data, err := r.client.HGetAll(ctx, EventKey(id)).Result()
	if err != nil {
		return inbox.Event{}, fmt.Errorf("getting event: %w", err)
	}
	if len(data) == 0 {
		return inbox.Event{}, fmt.Errorf("%w: %s", inbox.ErrNotFound, id)
	}

	return inbox.Event{
		ID:          data["id"],
		ConsumerID:  data["consumer_id"],
		Type:        data["type"],
		Resource:    data["resource"],
		DedupKey:    data["dedup_key"],
		Payload:     []byte(data["payload"]),
		Status:      inbox.Status(data["status"]),
		RetryCount:  parseInt(data["retry_count"]),
		MaxRetries:  parseInt(data["max_retries"]),
		LastError:   data["last_error"],
		NextRetryAt: parseTime(data["next_retry_at"]),
		CreatedAt:   time.Unix(int64(parseInt(data["created_at"])), 0),
		UpdatedAt:   time.Unix(int64(parseInt(data["updated_at"])), 0),
	}, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status inbox.Status) error {
	err := r.client.HSet(ctx, EventKey(id),
		"status", status.String(),
		"updated_at", time.Now().Unix(),
	).Err()
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}
	return nil
}

func (r *Repository) Requeue(ctx context.Context, ev inbox.Event, lastError string, delay time.Duration) error {
	stream := StreamKey(ev.ConsumerID)
	now := time.Now()
	due := now.Add(delay)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, EventKey(ev.ID), "retry_count", 1)
		pipe.HSet(ctx, EventKey(ev.ID),
			"status", inbox.Retrying.String(),
			"last_error", lastError,
			"next_retry_at", due.Unix(),
			"updated_at", now.Unix(),
		)
		if delay > 0 {
			pipe.ZAdd(ctx, RetryKey(ev.ConsumerID), redis.Z{Score: float64(due.UnixMilli()), Member: ev.ID})
		} else {
			pipe.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: map[string]any{"event_id": ev.ID}})
		}
		if ev.StreamID != "" {
			pipe.XAck(ctx, stream, groupName, ev.StreamID)
			pipe.XDel(ctx, stream, ev.StreamID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("requeuing event: %w", err)
	}
	return nil
}

// PromoteDue appends the retries of consumerID that are due at now to its stream
func (r *Repository) PromoteDue(ctx context.Context, consumerID string, now time.Time) (int, error) {
	key := RetryKey(consumerID)
	ids, err := r.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("reading due retries: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	stream := StreamKey(consumerID)
	if err := r.ensureGroup(ctx, stream); err != nil {
		return 0, err
	}
	members := make([]any, 0, len(ids))
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range ids {
			pipe.XAdd(ctx, &redis.XAddArgs{Stream: stream, Values: map[string]any{"event_id": id}})
			members = append(members, id)
		}
		pipe.ZRem(ctx, key, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("promoting due retries: %w", err)
	}
	return len(ids), nil
}

func (r *Repository) Finish(ctx context.Context, ev inbox.Event, status inbox.Status, lastError string, ttl time.Duration) error {
	if !status.IsFinal() {
		return fmt.Errorf("status %s is not final", status)
	}
	stream := StreamKey(ev.ConsumerID)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, EventKey(ev.ID),
			"status", status.String(),
			"last_error", lastError,
			"updated_at", time.Now().Unix(),
		)
		pipe.Expire(ctx, EventKey(ev.ID), ttl)
		if ev.StreamID != "" {
			pipe.XAck(ctx, stream, groupName, ev.StreamID)
			pipe.XDel(ctx, stream, ev.StreamID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("finishing event: %w", err)
	}
	return nil
}

// Consume reads new entries; block <= 0 returns immediately
func (r *Repository) Consume(ctx context.Context, consumerID string, block time.Duration) ([]inbox.Event, error) {
	if block <= 0 {
		block = -1
	}
	events, _, err := r.read(ctx, consumerID, ">", block)
	return events, err
}

// Recover pages through the whole pending history of the consumer, batch by batch
func (r *Repository) Recover(ctx context.Context, consumerID string) ([]inbox.Event, error) {
	recovered := []inbox.Event{}
	start := "0"
	for {
		events, last, err := r.read(ctx, consumerID, start, -1)
		if err != nil {
			return nil, err
		}
		recovered = append(recovered, events...)
		if last == "" || last == start {
			return recovered, nil
		}
		start = last
	}
}

// read returns the events of one batch and the ID of the last entry read,
// orphans included, or "" when the batch was empty
func (r *Repository) read(ctx context.Context, consumerID, start string, block time.Duration) ([]inbox.Event, string, error) {
	stream := StreamKey(consumerID)
	if err := r.ensureGroup(ctx, stream); err != nil {
		return nil, "", err
	}

	streams, err := r.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    groupName,
		Consumer: consumerName,
		Streams:  []string{stream, start},
		Count:    readCount,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return []inbox.Event{}, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("reading from stream: %w", err)
	}

	events := []inbox.Event{}
	last := ""
	for _, s := range streams {
		for _, msg := range s.Messages {
			last = msg.ID
			eventID, _ := msg.Values["event_id"].(string)
			ev, err := r.Get(ctx, eventID)
			if errors.Is(err, inbox.ErrNotFound) {
				// expired or malformed entry, nothing left to deliver
				r.client.XAck(ctx, stream, groupName, msg.ID)
				r.client.XDel(ctx, stream, msg.ID)
				continue
			}
			if err != nil {
				return nil, "", err
			}
			ev.StreamID = msg.ID
			events = append(events, ev)
		}
	}
	return events, last, nil
}

func (r *Repository) ensureGroup(ctx context.Context, stream string) error {
	err := r.client.XGroupCreateMkStream(ctx, stream, groupName, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("creating consumer group: %w", err)
	}
	return nil
}

func (r *Repository) Close(ctx context.Context) error {
	return r.client.Close()
}

// GetClient returns the underlying Redis client for advanced operations
func (r *Repository) GetClient() *redis.Client {
	return r.client
}

func StreamKey(consumerID string) string {
	return streamPrefix + ":" + consumerID
}

func EventKey(id string) string {
	return eventPrefix + ":" + id
}

func DedupKey(key string) string {
	return dedupPrefix + ":" + key
}

func RetryKey(consumerID string) string {
	return retryPrefix + ":" + consumerID
}

func eventFields(ev inbox.Event) map[string]any {
	return map[string]any{
		"id":          ev.ID,
		"consumer_id": ev.ConsumerID,
		"type":        ev.Type,
		"resource":    ev.Resource,
		"dedup_key":   ev.DedupKey,
		"payload":     ev.Payload,
		"status":      ev.Status.String(),
		"retry_count": ev.RetryCount,
		"max_retries": ev.MaxRetries,
		"last_error":  ev.LastError,
		"created_at":  ev.CreatedAt.Unix(),
		"updated_at":  ev.UpdatedAt.Unix(),
	}
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// parseTime reads unix seconds, zero when unset
func parseTime(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n == 0 {
		return time.Time{}
	}
	return time.Unix(n, 0)
}
