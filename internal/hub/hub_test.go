package hub

import (
	"context"
	"testing"
	"time"

	"contactgame/internal/lobby"
	"contactgame/internal/types"
)

func getLobby(h *Hub, id string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- GetLobby{ID: id, Reply: reply}
	return <-reply
}

func ensureLobby(h *Hub, id string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- EnsureLobby{ID: id, Reply: reply}
	return <-reply
}

func TestHub_Ensure_Get_SamePointer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, nil, nil)

	lb1 := ensureLobby(h, "ROOM42")
	lb2 := getLobby(h, "ROOM42")
	lb3 := ensureLobby(h, "ROOM42")

	if lb1 == nil || lb1 != lb2 || lb1 != lb3 {
		t.Fatalf("expected same lobby pointer for one id")
	}
}

func TestHub_Get_MissingLobbyIsNil(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, nil, nil)

	if lb := getLobby(h, "NOPE"); lb != nil {
		t.Fatalf("expected nil for unknown lobby id")
	}
}

func TestHub_LastDisconnectRemovesLobby(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := NewHub(ctx, nil, nil)
	lb := ensureLobby(h, "ROOM42")

	out := make(chan types.ServerMessage, 8)
	lb.Inbox() <- lobby.Join{PlayerID: "p1", Name: "p1", Outbox: out}
	lb.Inbox() <- lobby.Leave{PlayerID: "p1"}

	// Removal flows back through the hub inbox; poll until it lands.
	deadline := time.After(time.Second)
	for getLobby(h, "ROOM42") != nil {
		select {
		case <-deadline:
			t.Fatalf("empty lobby was never removed from the registry")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// A fresh join to the same id builds a brand-new lobby.
	lb2 := ensureLobby(h, "ROOM42")
	if lb2 == nil || lb2 == lb {
		t.Fatalf("expected a new lobby after removal")
	}
}
