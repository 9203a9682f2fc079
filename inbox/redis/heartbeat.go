package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	heartbeatPrefix = "inbox:worker"

	// Workers beat every cycle; a worker silent for longer is considered gone
	HeartbeatTTL = 60 * time.Second
)

type Heartbeat struct {
	ConsumerID    string    `json:"consumer_id"`
	Status        string    `json:"status"` // "idle", "delivering"
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

func (r *Repository) SetHeartbeat(ctx context.Context, consumerID, status string) error {
	data, err := json.Marshal(Heartbeat{
		ConsumerID:    consumerID,
		Status:        status,
		LastHeartbeat: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshaling heartbeat: %w", err)
	}
	if err := r.client.Set(ctx, heartbeatPrefix+":"+consumerID, data, HeartbeatTTL).Err(); err != nil {
		return fmt.Errorf("setting heartbeat: %w", err)
	}
	return nil
}

// ActiveWorkers returns the live heartbeat of every consumer worker
func (r *Repository) ActiveWorkers(ctx context.Context) (map[string]Heartbeat, error) {
	workers := make(map[string]Heartbeat)
	iter := r.client.Scan(ctx, 0, heartbeatPrefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		data, err := r.client.Get(ctx, iter.Val()).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("getting worker heartbeat: %w", err)
		}
		var hb Heartbeat
		if err := json.Unmarshal([]byte(data), &hb); err != nil {
			continue
		}
		workers[hb.ConsumerID] = hb
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scanning worker keys: %w", err)
	}
	return workers, nil
}
