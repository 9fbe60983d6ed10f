package game

import (
	"errors"
	"strings"
)

var ErrWrongPhase = errors.New("event not valid in current phase")
var ErrNoPlayers = errors.New("no players in lobby")
var ErrEmptyWord = errors.New("empty word")
var ErrUnknownPlayer = errors.New("player not in lobby")
var ErrContactActive = errors.New("contact already active")
var ErrNoContact = errors.New("no active contact")
var ErrContactFinished = errors.New("contact already finished")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseWordInput   Phase = "word_input"
	PhaseAssociation Phase = "association"
	PhaseFinished    Phase = "finished"
)

// DefaultContactSeconds is the countdown a contact round starts with.
const DefaultContactSeconds = 20

type Player struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsHost bool   `json:"isHost"`
	IsLead bool   `json:"isLead"`
}

// Contact is one timed guessing round between two players. At most one
// exists per lobby at a time.
type Contact struct {
	FromID   string            `json:"fromId"`
	ToID     string            `json:"toId"`
	Words    map[string]string `json:"words"`
	Timer    int               `json:"timer"`
	Finished bool              `json:"finished"`
}

type ChatMessage struct {
	PlayerID string `json:"playerId"`
	Text     string `json:"text"`
}

// State is the full server-side view of one lobby, secret word included.
// It is owned by a single lobby loop; Apply never does I/O.
type State struct {
	Players         []Player
	Phase           Phase
	Word            string // secret, never serialized
	WordLength      int
	WordFirstLetter string
	Opened          string
	UsedWords       []string
	Contact         *Contact
	Timer           *int
	Chat            []ChatMessage
	Rules           string
	LeadID          string
	ContactSeconds  int
}

type CommandType string

const (
	CmdJoin          CommandType = "join"
	CmdShuffleLead   CommandType = "shuffle_lead"
	CmdSetLead       CommandType = "set_lead"
	CmdStartGame     CommandType = "start_game"
	CmdSetWord       CommandType = "set_word"
	CmdStartContact  CommandType = "start_contact"
	CmdContactWord   CommandType = "contact_word"
	CmdContactResult CommandType = "contact_result"
	CmdSendChat      CommandType = "send_chat"
	CmdReset         CommandType = "reset"

	// Internal commands, never sent by clients.
	CmdLeave     CommandType = "leave"
	CmdTimerTick CommandType = "timer_tick"
)

type Command struct {
	Type      CommandType
	PlayerID  string
	Name      string
	Word      string
	FromID    string
	ToID      string
	Success   bool
	UsedWords []string
	Text      string
}

type EventType string

const (
	EvtLobbyUpdate     EventType = "LobbyUpdate"
	EvtContactStarted  EventType = "ContactStarted"
	EvtContactUpdate   EventType = "ContactUpdate"
	EvtContactFinished EventType = "ContactFinished"
	EvtTimerTick       EventType = "TimerTick"
	EvtChat            EventType = "Chat"
	EvtPrivateError    EventType = "PrivateError" // delivered to PlayerID only
	EvtTimerArmed      EventType = "TimerArmed"   // lobby should start the countdown
	EvtTimerStopped    EventType = "TimerStopped" // lobby should cancel the countdown
	EvtLobbyEmpty      EventType = "LobbyEmpty"   // roster emptied, registry should drop the lobby
)

type Event struct {
	Type     EventType
	PlayerID string // target for EvtPrivateError
	Text     string
	Contact  *Contact // payload snapshot for contact lifecycle events
}

// Apply validates cmd against the current phase, returns the next state and
// the effects the lobby should perform. An error means the command is
// dropped with no state change; rule violations that must reach one client
// come back as EvtPrivateError instead.
func Apply(s State, cmd Command) ([]Event, State, error) {
	newState := s

	switch cmd.Type {
	case CmdJoin:
		p := Player{
			ID:     cmd.PlayerID,
			Name:   cmd.Name,
			IsHost: len(s.Players) == 0, // first joiner hosts, permanently
		}
		newState.Players = append(newState.Players, p)
		return []Event{{Type: EvtLobbyUpdate}}, newState, nil

	case CmdShuffleLead:
		if s.Phase != PhaseLobby {
			return nil, s, ErrWrongPhase
		}
		if len(s.Players) == 0 {
			return nil, s, ErrNoPlayers
		}
		idx := leadIndex(len(s.Players))
		for i := range newState.Players {
			newState.Players[i].IsLead = i == idx
		}
		newState.LeadID = newState.Players[idx].ID
		return []Event{{Type: EvtLobbyUpdate}}, newState, nil

	case CmdSetLead:
		if s.Phase != PhaseLobby {
			return nil, s, ErrWrongPhase
		}
		for i := range newState.Players {
			newState.Players[i].IsLead = newState.Players[i].ID == cmd.PlayerID
		}
		newState.LeadID = cmd.PlayerID
		return []Event{{Type: EvtLobbyUpdate}}, newState, nil

	case CmdStartGame:
		if s.Phase != PhaseLobby {
			return nil, s, ErrWrongPhase
		}
		newState.Phase = PhaseWordInput
		return []Event{{Type: EvtLobbyUpdate}}, newState, nil

	case CmdSetWord:
		if s.Phase != PhaseWordInput {
			return nil, s, ErrWrongPhase
		}
		word := strings.TrimSpace(cmd.Word)
		if word == "" {
			return nil, s, ErrEmptyWord
		}
		runes := []rune(word)
		newState.Word = word
		newState.WordLength = len(runes)
		newState.WordFirstLetter = string(runes[0])
		newState.Opened = string(runes[0]) + strings.Repeat("_", len(runes)-1)
		newState.Phase = PhaseAssociation
		newState.UsedWords = []string{}
		newState.Contact = nil
		newState.Chat = []ChatMessage{}
		return []Event{{Type: EvtLobbyUpdate}}, newState, nil

	case CmdStartContact:
		if s.Phase != PhaseAssociation {
			return nil, s, ErrWrongPhase
		}
		if s.Contact != nil {
			return nil, s, ErrContactActive
		}
		secs := s.ContactSeconds
		if secs <= 0 {
			secs = DefaultContactSeconds
		}
		newState.Contact = &Contact{
			FromID: cmd.FromID,
			ToID:   cmd.ToID,
			Words:  map[string]string{},
			Timer:  secs,
		}
		t := secs
		newState.Timer = &t
		return []Event{
			{Type: EvtContactStarted, Contact: newState.Contact},
			{Type: EvtTimerArmed},
		}, newState, nil

	case CmdContactWord:
		if s.Contact == nil {
			return nil, s, ErrNoContact
		}
		if s.Contact.Finished {
			return nil, s, ErrContactFinished
		}
		word := strings.TrimSpace(cmd.Word)
		if word == "" {
			return nil, s, ErrEmptyWord
		}
		if containsFold(s.UsedWords, word) {
			// Reject to the submitter only; nothing else changes.
			evt := Event{Type: EvtPrivateError, PlayerID: cmd.PlayerID, Text: "Word already used!"}
			return []Event{evt}, s, nil
		}
		newState.Contact.Words[cmd.PlayerID] = word
		// The update snapshot is taken before any finish flag flips, so
		// clients see the round complete in two steps like the countdown
		// path: an update with both words, then contact_finished.
		updated := *newState.Contact
		events := []Event{{Type: EvtContactUpdate, Contact: &updated}}
		if newState.Contact.Words[newState.Contact.FromID] != "" &&
			newState.Contact.Words[newState.Contact.ToID] != "" {
			// Both sides answered before the countdown ran out.
			newState.Contact.Finished = true
			events = append(events,
				Event{Type: EvtTimerStopped},
				Event{Type: EvtContactFinished, Contact: newState.Contact})
		}
		return events, newState, nil

	case CmdContactResult:
		if s.Contact == nil {
			return nil, s, ErrNoContact
		}
		if cmd.Success {
			// Letters open strictly left to right.
			newState.Opened = revealNext(s.Opened, s.Word)
			newState.UsedWords = append(newState.UsedWords, cmd.UsedWords...)
			if strings.ContainsRune(newState.Opened, '_') {
				newState.Phase = PhaseAssociation
			} else {
				newState.Phase = PhaseFinished
			}
		}
		newState.Contact = nil
		newState.Timer = nil
		return []Event{{Type: EvtTimerStopped}, {Type: EvtLobbyUpdate}}, newState, nil

	case CmdSendChat:
		newState.Chat = append(newState.Chat, ChatMessage{PlayerID: cmd.PlayerID, Text: cmd.Text})
		return []Event{{Type: EvtChat}}, newState, nil

	case CmdReset:
		events := []Event{}
		if s.Contact != nil {
			events = append(events, Event{Type: EvtTimerStopped})
		}
		newState.Phase = PhaseLobby
		newState.Word = ""
		newState.WordLength = 0
		newState.WordFirstLetter = ""
		newState.Opened = ""
		newState.UsedWords = []string{}
		newState.Contact = nil
		newState.Timer = nil
		newState.Chat = []ChatMessage{}
		newState.LeadID = ""
		for i := range newState.Players {
			newState.Players[i].IsLead = false
		}
		return append(events, Event{Type: EvtLobbyUpdate}), newState, nil

	case CmdLeave:
		kept := make([]Player, 0, len(s.Players))
		for _, p := range s.Players {
			if p.ID != cmd.PlayerID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(s.Players) {
			// Already removed, e.g. dropped as a slow client before the
			// connection's own leave arrived. Nothing to broadcast.
			return nil, s, ErrUnknownPlayer
		}
		newState.Players = kept
		if len(kept) == 0 {
			return []Event{{Type: EvtLobbyEmpty}}, newState, nil
		}
		if s.LeadID == cmd.PlayerID {
			newState.LeadID = ""
			for i := range newState.Players {
				newState.Players[i].IsLead = false
			}
		}
		return []Event{{Type: EvtLobbyUpdate}}, newState, nil

	case CmdTimerTick:
		if s.Contact == nil || s.Contact.Finished {
			// Round ended by other means; the caller stops its ticker.
			return nil, s, ErrNoContact
		}
		newState.Contact.Timer--
		t := newState.Contact.Timer
		newState.Timer = &t
		events := []Event{{Type: EvtTimerTick}}
		if t <= 0 {
			newState.Contact.Finished = true
			events = append(events,
				Event{Type: EvtContactFinished, Contact: newState.Contact},
				Event{Type: EvtTimerStopped})
		}
		return events, newState, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}
