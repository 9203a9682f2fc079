package metrics

import (
	"context"
	"time"
)

// Metrics represents the current state of the consumer inboxes.
type Metrics struct {
	// QueueLengths maps consumer_id to the number of events waiting in its stream or retry set
	QueueLengths map[string]int64 `json:"queue_lengths"`

	// StatusCounts maps status name to count of events in that status
	StatusCounts map[string]int64 `json:"status_counts"`

	// Throughput represents events delivered per time window
	Throughput ThroughputMetrics `json:"throughput"`

	// Workers maps consumer_id to its delivery worker
	Workers map[string]WorkerInfo `json:"workers"`

	Timestamp time.Time `json:"timestamp"`
}

type ThroughputMetrics struct {
	LastMinute         int64 `json:"last_minute"`
	LastFiveMinutes    int64 `json:"last_five_minutes"`
	LastFifteenMinutes int64 `json:"last_fifteen_minutes"`
}

// WorkerInfo is the last heartbeat of a delivery worker.
type WorkerInfo struct {
	ConsumerID    string    `json:"consumer_id"`
	Status        string    `json:"status"` // "idle", "delivering"
	LastHeartbeat time.Time `json:"last_heartbeat"`
}

// Collector defines the interface for collecting metrics from the inbox.
type Collector interface {
	// Collect gathers current metrics from the system
	Collect(ctx context.Context) (Metrics, error)

	// GetQueueLengths returns the number of waiting events per consumer
	GetQueueLengths(ctx context.Context) (map[string]int64, error)

	// GetStatusCounts returns the count of events by status
	GetStatusCounts(ctx context.Context) (map[string]int64, error)

	// GetThroughput returns events delivered over time windows
	GetThroughput(ctx context.Context) (ThroughputMetrics, error)

	// GetActiveWorkers returns the live delivery workers per consumer
	GetActiveWorkers(ctx context.Context) (map[string]WorkerInfo, error)
}
