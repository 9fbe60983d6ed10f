package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"contactgame/internal/game"
	"contactgame/internal/hub"
	"contactgame/internal/lobby"
	"contactgame/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler upgrades the connection and bridges it to a lobby. The lobby is
// chosen by the first "join" frame; everything arriving before that (other
// than join) is dropped, matching the silent-drop policy for events against
// lobbies that don't exist.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true, // clients connect from the statically served page
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		playerID := uuid.NewString()
		out := make(chan types.ServerMessage, 16)
		var lb *lobby.Lobby

		defer func() {
			if lb != nil {
				// The lobby closes the outbox when it processes the leave.
				lb.Inbox() <- lobby.Leave{PlayerID: playerID}
				return
			}
			// Never attached to a lobby; nothing else will close the
			// outbox, so do it here or the writer blocks forever.
			close(out)
		}()

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for msg := range out {
				payload, err := json.Marshal(msg)
				if err != nil {
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, writeTimeout)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(r.Context())
			if err != nil {
				// Clean close, going-away, or broken pipe all end the same
				// way: the deferred Leave tells the lobby.
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				log.Debug("dropping unparseable frame", zap.String("player", playerID))
				continue
			}

			if cm.Type == "join" {
				if lb != nil || cm.LobbyID == "" {
					continue
				}
				reply := make(chan *lobby.Lobby, 1)
				h.Inbox() <- hub.EnsureLobby{ID: cm.LobbyID, Reply: reply}
				lb = <-reply
				lb.Inbox() <- lobby.Join{PlayerID: playerID, Name: cm.Name, Outbox: out}
				continue
			}

			if lb == nil {
				continue // no lobby yet; stray frame
			}

			cmd, ok := toCommand(cm, playerID)
			if !ok {
				log.Debug("dropping unknown event type",
					zap.String("type", cm.Type),
					zap.String("player", playerID))
				continue
			}
			lb.Inbox() <- lobby.FromClient{Cmd: cmd}
		}
	}
}

// toCommand maps a client frame to a game command. The sender identity on
// contact_word and send_chat is the connection's own id, never a payload
// field, so players cannot speak as each other.
func toCommand(m types.ClientMessage, playerID string) (game.Command, bool) {
	switch m.Type {
	case "shuffle_lead":
		return game.Command{Type: game.CmdShuffleLead}, true
	case "set_lead":
		return game.Command{Type: game.CmdSetLead, PlayerID: m.PlayerID}, true
	case "start_game":
		return game.Command{Type: game.CmdStartGame}, true
	case "set_word":
		return game.Command{Type: game.CmdSetWord, Word: m.Word}, true
	case "start_contact":
		return game.Command{Type: game.CmdStartContact, FromID: m.FromID, ToID: m.ToID}, true
	case "contact_word":
		return game.Command{Type: game.CmdContactWord, PlayerID: playerID, Word: m.Word}, true
	case "contact_result":
		return game.Command{Type: game.CmdContactResult, Success: m.Success, UsedWords: m.UsedWords}, true
	case "send_chat":
		return game.Command{Type: game.CmdSendChat, PlayerID: playerID, Text: m.Text}, true
	case "reset":
		return game.Command{Type: game.CmdReset}, true
	default:
		return game.Command{}, false
	}
}
