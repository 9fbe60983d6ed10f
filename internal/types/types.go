package types

import "contactgame/internal/game"

// Client -> Server, one JSON frame per event. Unknown types and frames that
// fail to parse are dropped without a reply.
//
// join:           lobbyId, name
// shuffle_lead:   {}
// set_lead:       playerId
// start_game:     {}
// set_word:       word
// start_contact:  fromId, toId
// contact_word:   word
// contact_result: success, usedWords
// send_chat:      text
// reset:          {}
type ClientMessage struct {
	Type      string   `json:"type"`
	LobbyID   string   `json:"lobbyId,omitempty"`
	Name      string   `json:"name,omitempty"`
	PlayerID  string   `json:"playerId,omitempty"`
	Word      string   `json:"word,omitempty"`
	FromID    string   `json:"fromId,omitempty"`
	ToID      string   `json:"toId,omitempty"`
	Success   bool     `json:"success,omitempty"`
	UsedWords []string `json:"usedWords,omitempty"`
	Text      string   `json:"text,omitempty"`
}

// Server -> Client message types.
const (
	TypeLobbyUpdate     = "lobby_update"
	TypeContactStarted  = "contact_started"
	TypeContactUpdate   = "contact_update"
	TypeContactFinished = "contact_finished"
	TypeTimer           = "timer"
	TypeChat            = "chat"
	TypeError           = "error" // sent to one player only
)

type ServerMessage struct {
	Type    string             `json:"type"`
	Lobby   *game.PublicState  `json:"lobby,omitempty"`
	Contact *game.Contact      `json:"contact,omitempty"`
	Timer   *int               `json:"timer,omitempty"`
	Chat    []game.ChatMessage `json:"chat,omitempty"`
	Text    string             `json:"text,omitempty"`
}
