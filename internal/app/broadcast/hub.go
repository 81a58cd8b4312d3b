package broadcast

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 16
)

type subscriber struct {
	send chan LeaderboardEvent
}

// Hub fans leaderboard events out to websocket viewers. Each viewer follows
// one contest; events arrive over redis pub/sub so delivery is decoupled from
// the judge path that produced them.
type Hub struct {
	rdb     *redis.Client
	channel string

	mu          sync.RWMutex
	subscribers map[string]map[*subscriber]struct{} // contestID -> viewers
}

func NewHub(rdb *redis.Client, channel string) *Hub {
	return &Hub{
		rdb:         rdb,
		channel:     channel,
		subscribers: make(map[string]map[*subscriber]struct{}),
	}
}

// Run consumes the redis channel until ctx is cancelled. Intended as a
// long-lived goroutine started from main.
func (h *Hub) Run(ctx context.Context) {
	pubsub := h.rdb.Subscribe(ctx, h.channel)
	defer pubsub.Close()

	log.Printf("Broadcast hub listening on channel %q", h.channel)
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Println("Broadcast hub stopping...")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var event LeaderboardEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("WARN: dropping malformed broadcast payload: %v", err)
				continue
			}
			h.dispatch(event)
		}
	}
}

func (h *Hub) dispatch(event LeaderboardEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subscribers[event.ContestID] {
		select {
		case sub.send <- event:
		default:
			// Slow viewer, drop the frame rather than block the hub.
		}
	}
}

// ServeConn pumps events for one contest to a websocket connection until the
// client disconnects or ctx is cancelled. The connection is write-only from
// our side; CloseRead keeps consuming control frames so a client disconnect
// cancels ctx instead of leaving the subscriber parked.
func (h *Hub) ServeConn(ctx context.Context, conn *websocket.Conn, contestID string) {
	ctx = conn.CloseRead(ctx)

	sub := &subscriber{send: make(chan LeaderboardEvent, sendBufferSize)}
	h.add(contestID, sub)
	defer h.remove(contestID, sub)

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return
		case event := <-sub.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := wsjson.Write(writeCtx, conn, event)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) add(contestID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subscribers[contestID] == nil {
		h.subscribers[contestID] = make(map[*subscriber]struct{})
	}
	h.subscribers[contestID][sub] = struct{}{}
}

func (h *Hub) remove(contestID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscribers[contestID], sub)
	if len(h.subscribers[contestID]) == 0 {
		delete(h.subscribers, contestID)
	}
}
