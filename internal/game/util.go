package game

import (
	"math/rand"
	"strings"
)

func NewState(contactSeconds int) State {
	if contactSeconds <= 0 {
		contactSeconds = DefaultContactSeconds
	}
	return State{
		Phase:          PhaseLobby,
		UsedWords:      []string{},
		Chat:           []ChatMessage{},
		ContactSeconds: contactSeconds,
	}
}

// PublicState is everything safe to disclose to every player in the lobby.
// The secret word itself stays server-side.
type PublicState struct {
	Players         []Player      `json:"players"`
	State           Phase         `json:"state"`
	WordLength      int           `json:"wordLength"`
	Opened          string        `json:"opened"`
	UsedWords       []string      `json:"usedWords"`
	Contact         *Contact      `json:"contact"`
	Timer           *int          `json:"timer"`
	Chat            []ChatMessage `json:"chat"`
	Rules           string        `json:"rules"`
	LeadID          string        `json:"leadId"`
	WordFirstLetter string        `json:"wordFirstLetter"`
}

func (s State) Public() PublicState {
	return PublicState{
		Players:         s.Players,
		State:           s.Phase,
		WordLength:      s.WordLength,
		Opened:          s.Opened,
		UsedWords:       s.UsedWords,
		Contact:         s.Contact,
		Timer:           s.Timer,
		Chat:            s.Chat,
		Rules:           s.Rules,
		LeadID:          s.LeadID,
		WordFirstLetter: s.WordFirstLetter,
	}
}

// leadIndex picks the shuffled lead; a var so tests can stub it.
var leadIndex = func(n int) int {
	return rand.Intn(n)
}

func containsFold(words []string, w string) bool {
	for _, used := range words {
		if strings.EqualFold(used, w) {
			return true
		}
	}
	return false
}

// revealNext opens the leftmost masked position of opened using word.
// Both strings are compared rune-wise so multibyte letters line up.
func revealNext(opened, word string) string {
	or := []rune(opened)
	wr := []rune(word)
	for i, r := range or {
		if r == '_' && i < len(wr) {
			or[i] = wr[i]
			return string(or)
		}
	}
	return opened
}
