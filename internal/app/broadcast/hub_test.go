package broadcast

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"algoarena/internal/domain/model"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

func subscriberCount(h *Hub, contestID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[contestID])
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newHubServer(t *testing.T, hub *Hub, contestID string) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "closed")
		hub.ServeConn(r.Context(), conn, contestID)
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	return conn
}

func TestHubDeliversEventsToContestViewers(t *testing.T) {
	hub := NewHub(nil, "ch")
	conn := newHubServer(t, hub, "c1")
	defer conn.Close(websocket.StatusNormalClosure, "")

	waitFor(t, "viewer registration", func() bool { return subscriberCount(hub, "c1") == 1 })

	// An event for another contest must not reach this viewer.
	hub.dispatch(LeaderboardEvent{Type: EventLeaderboardUpdate, ContestID: "other"})
	hub.dispatch(LeaderboardEvent{
		Type:        EventLeaderboardUpdate,
		ContestID:   "c1",
		Leaderboard: []model.LeaderboardEntry{{Rank: 1, Score: 30}},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var got LeaderboardEvent
	if err := wsjson.Read(ctx, conn, &got); err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got.ContestID != "c1" {
		t.Fatalf("expected event for c1, got %q", got.ContestID)
	}
	if len(got.Leaderboard) != 1 || got.Leaderboard[0].Score != 30 {
		t.Fatalf("unexpected leaderboard: %+v", got.Leaderboard)
	}
}

func TestHubUnregistersViewerOnClientClose(t *testing.T) {
	hub := NewHub(nil, "ch")
	conn := newHubServer(t, hub, "c1")

	waitFor(t, "viewer registration", func() bool { return subscriberCount(hub, "c1") == 1 })

	// Closing from the client side must unregister the viewer even though the
	// hub never writes to an idle contest.
	conn.Close(websocket.StatusNormalClosure, "")
	waitFor(t, "viewer removal", func() bool { return subscriberCount(hub, "c1") == 0 })
}
