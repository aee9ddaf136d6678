// Package redisrelay fans hub room broadcasts out across server instances
// over Redis pub/sub. Each instance delivers locally first, publishes, and
// ignores its own frames when they come back.
package redisrelay

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "teamverse:ws:rooms"

// Deliverer receives frames published by other instances.
type Deliverer interface {
	DeliverRemote(room string, data []byte)
}

type envelope struct {
	Node    string          `json:"node"`
	Room    string          `json:"room"`
	Payload json.RawMessage `json:"payload"`
}

// Relay publishes and receives room frames.
type Relay struct {
	rdb     *redis.Client
	channel string
	nodeID  string
}

// Connect opens a client and pings it.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

// New creates a relay on channel with a fresh node identity.
func New(rdb *redis.Client, channel string) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{rdb: rdb, channel: channel, nodeID: uuid.NewString()}
}

// Publish implements ws.Relay.
func (r *Relay) Publish(ctx context.Context, room string, payload []byte) error {
	data, err := json.Marshal(envelope{Node: r.nodeID, Room: room, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal relay envelope: %w", err)
	}
	return r.rdb.Publish(ctx, r.channel, data).Err()
}

// Listen subscribes and forwards foreign frames to d until ctx ends. It
// returns once the subscription is confirmed.
func (r *Relay) Listen(ctx context.Context, d Deliverer) error {
	pubsub := r.rdb.Subscribe(ctx, r.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	go func() {
		defer pubsub.Close()
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				r.handle(msg.Payload, d)
			}
		}
	}()

	log.Printf("[relay] listening on %s as node %s", r.channel, r.nodeID)
	return nil
}

func (r *Relay) handle(raw string, d Deliverer) {
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		log.Printf("[relay] decode failed: %v", err)
		return
	}
	if env.Node == r.nodeID || env.Room == "" {
		return
	}
	d.DeliverRemote(env.Room, env.Payload)
}
