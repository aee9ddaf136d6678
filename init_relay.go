// Package main: cross-instance fan-out.
package main

import (
	"context"
	"log"

	"github.com/Fasilurahman/TeamVerse-sub001/config"
	"github.com/Fasilurahman/TeamVerse-sub001/ws"
	"github.com/Fasilurahman/TeamVerse-sub001/ws/redisrelay"
)

// startRelay connects the hub to Redis when REDIS_ADDR is set, so room
// broadcasts reach sockets held by other instances. The returned func
// closes the connection; it is a no-op when no relay runs.
func startRelay(ctx context.Context, hub *ws.Hub, cfg config.RedisConfig) (func(), error) {
	if cfg.Addr == "" {
		log.Println("[main] redis relay disabled (single instance)")
		return func() {}, nil
	}

	rdb, err := redisrelay.Connect(ctx, cfg.Addr, cfg.Password, cfg.DB)
	if err != nil {
		return nil, err
	}

	relay := redisrelay.New(rdb, cfg.Channel)
	if err := relay.Listen(ctx, hub); err != nil {
		rdb.Close()
		return nil, err
	}
	hub.SetRelay(relay)

	log.Printf("[main] redis relay on %s (channel %s)", cfg.Addr, cfg.Channel)
	return func() { rdb.Close() }, nil
}
