// Package lobby runs one game session as an actor: a single goroutine owns
// the state and consumes player messages, connection lifecycle events and
// countdown ticks from one inbox, so every lobby observes a strict total
// order of events without locks.
//
// Dropped commands are the protocol, not an accident: unknown types,
// out-of-phase events and malformed payloads are tolerated silently to cope
// with stray or late frames from real-time clients.
package lobby

import (
	"context"
	"time"

	"go.uber.org/zap"

	"contactgame/internal/game"
	"contactgame/internal/types"
)

type Msg interface{ isLobbyMsg() }

type FromClient struct {
	Cmd game.Command
}

func (FromClient) isLobbyMsg() {}

type Join struct {
	PlayerID string
	Name     string
	Outbox   chan types.ServerMessage // where this player receives messages
}

func (Join) isLobbyMsg() {}

type Leave struct{ PlayerID string }

func (Leave) isLobbyMsg() {}

type Shutdown struct{}

func (Shutdown) isLobbyMsg() {}

// GetState reflects internal state without data races; test-only.
type GetState struct {
	Reply chan View
}

func (GetState) isLobbyMsg() {}

type View struct {
	NumClients int
	State      game.State
}

// timerFired carries the generation of the countdown that produced it, so
// ticks from an already-cancelled round are dropped instead of mutating a
// newer one.
type timerFired struct{ gen int }

func (timerFired) isLobbyMsg() {}

// tickEvery is the countdown resolution; a var so tests can shrink it.
var tickEvery = time.Second

type Lobby struct {
	inbox     chan Msg
	state     game.State
	clients   map[string]chan types.ServerMessage
	timerGen  int
	timerStop chan struct{}
	onEmpty   func()
	closed    bool
	log       *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewLobby starts the lobby loop. onEmpty is invoked from the loop when the
// last player leaves, right before the lobby shuts itself down; the registry
// uses it to drop its entry. It may be nil.
func NewLobby(parent context.Context, initial game.State, log *zap.Logger, onEmpty func()) *Lobby {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)

	l := &Lobby{
		inbox:     make(chan Msg, 64),
		state:     initial,
		clients:   make(map[string]chan types.ServerMessage),
		onEmpty:   onEmpty,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
	}

	go l.loop()
	return l
}

// Expose the inbox so tests or the WS layer can send messages.
func (l *Lobby) Inbox() chan<- Msg { return l.inbox }

func (l *Lobby) loop() {
	for {
		select {
		case <-l.ctx.Done():
			l.shutdown()
			return

		case m := <-l.inbox:
			l.handle(m)
			if l.closed {
				return
			}
		}
	}
}

func (l *Lobby) handle(m Msg) {
	switch msg := m.(type) {
	case Join:
		l.clients[msg.PlayerID] = msg.Outbox
		l.apply(game.Command{Type: game.CmdJoin, PlayerID: msg.PlayerID, Name: msg.Name})

	case Leave:
		if ch, ok := l.clients[msg.PlayerID]; ok {
			close(ch)
			delete(l.clients, msg.PlayerID)
		}
		l.apply(game.Command{Type: game.CmdLeave, PlayerID: msg.PlayerID})

	case FromClient:
		l.apply(msg.Cmd)

	case timerFired:
		if msg.gen != l.timerGen {
			break // stale fire from a cancelled countdown
		}
		l.apply(game.Command{Type: game.CmdTimerTick})

	case GetState:
		msg.Reply <- View{NumClients: len(l.clients), State: l.state}

	case Shutdown:
		l.shutdown()
	}
}

func (l *Lobby) apply(cmd game.Command) {
	events, newState, err := game.Apply(l.state, cmd)
	if err != nil {
		if cmd.Type == game.CmdTimerTick {
			// The round this countdown belonged to is gone.
			l.stopTicker()
		}
		l.log.Debug("command dropped",
			zap.String("cmd", string(cmd.Type)),
			zap.Error(err))
		return
	}
	l.state = newState
	l.dispatch(events)
}

func (l *Lobby) dispatch(events []game.Event) {
	for _, evt := range events {
		switch evt.Type {
		case game.EvtLobbyUpdate:
			pub := l.state.Public()
			l.broadcast(types.ServerMessage{Type: types.TypeLobbyUpdate, Lobby: &pub})

		case game.EvtContactStarted:
			l.broadcast(types.ServerMessage{Type: types.TypeContactStarted, Contact: l.contactPayload(evt)})

		case game.EvtContactUpdate:
			l.broadcast(types.ServerMessage{Type: types.TypeContactUpdate, Contact: l.contactPayload(evt)})

		case game.EvtContactFinished:
			l.broadcast(types.ServerMessage{Type: types.TypeContactFinished, Contact: l.contactPayload(evt)})

		case game.EvtTimerTick:
			l.broadcast(types.ServerMessage{Type: types.TypeTimer, Timer: l.state.Timer})

		case game.EvtChat:
			l.broadcast(types.ServerMessage{Type: types.TypeChat, Chat: l.state.Chat})

		case game.EvtPrivateError:
			if ch, ok := l.clients[evt.PlayerID]; ok {
				select {
				case ch <- types.ServerMessage{Type: types.TypeError, Text: evt.Text}:
				default:
					close(ch)
					delete(l.clients, evt.PlayerID)
					l.apply(game.Command{Type: game.CmdLeave, PlayerID: evt.PlayerID})
				}
			}

		case game.EvtTimerArmed:
			l.armTimer()

		case game.EvtTimerStopped:
			l.stopTicker()

		case game.EvtLobbyEmpty:
			l.log.Info("lobby empty, shutting down")
			if l.onEmpty != nil {
				l.onEmpty()
			}
			l.shutdown()
			return
		}
	}
}

// contactPayload prefers the snapshot the state machine attached to the
// event; contact_update on the round-completing word must show the round
// before the finish flag flipped.
func (l *Lobby) contactPayload(evt game.Event) *game.Contact {
	if evt.Contact != nil {
		return evt.Contact
	}
	return l.state.Contact
}

func (l *Lobby) broadcast(msg types.ServerMessage) {
	var dropped []string
	for id, ch := range l.clients {
		select {
		case ch <- msg:
			// ok
		default:
			// Client is slow/full - drop them like any disconnect.
			close(ch)
			delete(l.clients, id)
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		l.log.Warn("dropping slow client", zap.String("player", id))
		l.apply(game.Command{Type: game.CmdLeave, PlayerID: id})
	}
}

// armTimer starts a fresh countdown goroutine for the active contact. Ticks
// are delivered back through the inbox so they interleave with player events
// in a strict order. Any previously armed countdown is cancelled first.
func (l *Lobby) armTimer() {
	l.stopTicker()
	l.timerGen++
	gen := l.timerGen
	stop := make(chan struct{})
	l.timerStop = stop

	go func() {
		t := time.NewTicker(tickEvery)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-l.ctx.Done():
				return
			case <-t.C:
				select {
				case l.inbox <- timerFired{gen: gen}:
				case <-stop:
					return
				case <-l.ctx.Done():
					return
				}
			}
		}
	}()
}

func (l *Lobby) stopTicker() {
	if l.timerStop != nil {
		close(l.timerStop)
		l.timerStop = nil
	}
}

func (l *Lobby) shutdown() {
	if l.closed {
		return
	}
	l.closed = true
	l.stopTicker()
	for id, ch := range l.clients {
		close(ch) // Tell client no more messages
		delete(l.clients, id)
	}
	l.cancel()
}
