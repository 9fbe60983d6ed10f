// Package hub owns the lobby registry: an actor mapping lobby ids to live
// lobbies. Lobbies are created on first join and removed when their roster
// empties.
package hub

import (
	"context"

	"go.uber.org/zap"

	"contactgame/internal/game"
	"contactgame/internal/lobby"
)

type HubMsg interface{ isHubMsg() }

// EnsureLobby returns the lobby for ID, creating it if absent.
type EnsureLobby struct {
	ID    string
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	ID    string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	ID string
}

type ShutdownHub struct{}

func (EnsureLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox    chan HubMsg
	lobbies  map[string]*lobby.Lobby
	newState func() game.State
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewHub starts the registry loop. newState produces the initial state for
// freshly created lobbies; nil means game.NewState defaults.
func NewHub(parent context.Context, log *zap.Logger, newState func() game.State) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if newState == nil {
		newState = func() game.State { return game.NewState(0) }
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		lobbies:  make(map[string]*lobby.Lobby),
		newState: newState,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case EnsureLobby:
				if lb := h.lobbies[msg.ID]; lb != nil {
					msg.Reply <- lb
					break
				}
				msg.Reply <- h.create(msg.ID)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.ID] // May be nil

			case RemoveLobby:
				delete(h.lobbies, msg.ID)
				h.log.Info("lobby removed", zap.String("lobby", msg.ID))

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) create(id string) *lobby.Lobby {
	// The lobby reports back through the inbox when its last player leaves,
	// so removal follows the same total order as every other registry event.
	lb := lobby.NewLobby(h.ctx, h.newState(), h.log.With(zap.String("lobby", id)), func() {
		h.inbox <- RemoveLobby{ID: id}
	})
	h.lobbies[id] = lb
	h.log.Info("lobby created", zap.String("lobby", id))
	return lb
}

func (h *Hub) shutdown() {
	for _, lb := range h.lobbies {
		lb.Inbox() <- lobby.Shutdown{}
	}
	clear(h.lobbies)
	h.cancel()
}
