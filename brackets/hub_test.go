package brackets

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func waitForRoomSize(t *testing.T, h *Hub, room string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if h.RoomSize(room) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s size = %d, want %d", room, h.RoomSize(room), want)
}

func TestHubPublishToTournamentRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(nil)
	go h.Run(ctx)

	subscribed := NewClient(h, nil, TournamentRoom(1))
	other := NewClient(h, nil, TournamentRoom(2))
	h.Register(subscribed)
	h.Register(other)
	waitForRoomSize(t, h, TournamentRoom(1), 1)

	h.Publish(ctx, 1, EventMatchUpdated, map[string]int{"match_id": 9})

	select {
	case raw := <-subscribed.send:
		var msg WebSocketMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if msg.Type != EventMatchUpdated || msg.RoomID != "tournament_1" {
			t.Errorf("got message %+v", msg)
		}
	case <-time.After(time.Second):
		t.Fatal("subscribed client did not receive the event")
	}

	select {
	case raw := <-other.send:
		t.Fatalf("client of another tournament received %s", raw)
	default:
	}

	h.Unregister(subscribed)
	waitForRoomSize(t, h, TournamentRoom(1), 0)
	if _, ok := <-subscribed.send; ok {
		t.Error("send channel should be closed after unregister")
	}
}

func TestHubStoppedDoesNotBlock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(nil)
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()

	live := NewClient(h, nil, TournamentRoom(1))
	h.Register(live)
	waitForRoomSize(t, h, TournamentRoom(1), 1)

	cancel()
	<-stopped

	late := NewClient(h, nil, TournamentRoom(1))
	returned := make(chan struct{})
	go func() {
		h.Register(late)
		h.Unregister(live)
		h.Unregister(late)
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(time.Second):
		t.Fatal("register/unregister blocked after the hub stopped")
	}

	if _, ok := <-late.send; ok {
		t.Error("client registered after stop should be closed")
	}
	if _, ok := <-live.send; ok {
		t.Error("live client should be closed on stop")
	}
}
