// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultQueueName is the Redis list that receives finished turns.
const DefaultQueueName = "taboo_turns"

// ErrBadRecord marks a queue entry that is not a valid TurnRecord. The entry
// has already been removed from the queue.
var ErrBadRecord = errors.New("invalid turn record")

// TurnRecord describes one finished turn for downstream consumers.
type TurnRecord struct {
	RoomCode      string `json:"room_code"`
	DescriberID   string `json:"describer_id"`
	DescriberName string `json:"describer_name"`
	Word          string `json:"word"`
	Reason        string `json:"reason"`
	Scored        bool   `json:"scored"`
	Timestamp     int64  `json:"timestamp"`
}

// TurnQueue is a Redis list of turn records. The server pushes onto it and
// the historian pops from it.
type TurnQueue struct {
	client *redis.Client
	queue  string
}

// NewTurnQueue connects to Redis and verifies the connection with PING.
func NewTurnQueue(ctx context.Context, addr string, db int, queue string) (*TurnQueue, error) {
	if queue == "" {
		queue = DefaultQueueName
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &TurnQueue{client: client, queue: queue}, nil
}

// Queue is the name of the list records are pushed onto.
func (r *TurnQueue) Queue() string {
	return r.queue
}

// RecordTurn serializes the record to JSON and RPUSHes it.
func (r *TurnQueue) RecordTurn(ctx context.Context, rec TurnRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal TurnRecord: %w", err)
	}
	if err := r.client.RPush(ctx, r.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", r.queue, err)
	}
	return nil
}

// PopTurn blocks up to timeout for the next record. It returns nil, nil when
// the queue stayed empty.
func (r *TurnQueue) PopTurn(ctx context.Context, timeout time.Duration) (*TurnRecord, error) {
	res, err := r.client.BLPop(ctx, timeout, r.queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("BLPop on '%s': %w", r.queue, err)
	}
	if len(res) < 2 {
		return nil, nil
	}
	// res[0] is the list name, res[1] the payload
	var rec TurnRecord
	if err := json.Unmarshal([]byte(res[1]), &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadRecord, err)
	}
	return &rec, nil
}

// Close releases the underlying client.
func (r *TurnQueue) Close() error {
	return r.client.Close()
}
