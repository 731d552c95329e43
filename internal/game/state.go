// Package game holds the room state machine: turn and round
// progression, scoring, word masking and disconnect reconciliation.
// Apply and Reconcile are pure: they return the events to broadcast
// and the next state, and on error leave the input state untouched.
package game

import "errors"

var (
	ErrNotOwner         = errors.New("only the room owner can do that")
	ErrNotDrawer        = errors.New("only the current drawer can do that")
	ErrWrongPhase       = errors.New("action not valid in current phase")
	ErrNotEnoughWords   = errors.New("not enough words for this room size")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
	ErrWordNotOffered   = errors.New("word was not among the offered choices")
	ErrMemberNotFound   = errors.New("member not in room")
	ErrNothingToReveal  = errors.New("no masked characters remain")
	ErrInvariant        = errors.New("game state invariant violated")
	ErrUnsupported      = errors.New("unsupported command")
)

type Phase string

const (
	PhaseLobby      Phase = "lobby"
	PhasePreTurn    Phase = "preTurn"
	PhaseActiveTurn Phase = "activeTurn"
	PhaseScoreboard Phase = "scoreboard"
	PhaseEndGame    Phase = "endGame"
)

const (
	DrawerBonus      = 10
	DefaultMaxRounds = 2
	// Turn duration bounds, milliseconds.
	MinTurnDurationMS     = 60000
	DefaultTurnDurationMS = 120000
	MaxTurnDurationMS     = 180000
	// A match needs at least this many players to start and to keep
	// running; dropping below it cancels back to the lobby.
	MinPlayers = 3
	// Words offered to the drawer each turn.
	wordsPerTurn = 3
)

type Member struct {
	ID    string
	Name  string
	Color string
}

type Score struct {
	Name  string
	Value int
}

// TurnAdvance is a fully derived next-turn decision. It is either
// applied on the spot or queued on State.Pending until the current
// turn completes naturally.
type TurnAdvance struct {
	Turn     int
	Round    int
	DrawerID string
}

type State struct {
	// Members order is the canonical turn order. Turn indexes into it.
	Members []Member
	OwnerID string

	Phase          Phase
	Category       string
	MaxRounds      int
	Round          int
	Turn           int
	CurrentWord    string
	MaskedWord     string
	TurnDurationMS int
	DrawerID       string
	WordPool       []string
	WordsConsumed  int
	DrawerChoices  []string
	UsersGuessing  int
	TurnScores     map[string]Score
	TotalScores    map[string]Score
	// Idle members joined mid-turn and sit out until the next one.
	Idle map[string]bool
	// Pending holds a turn advance stashed by a mid-turn disconnect.
	Pending *TurnAdvance
}

func NewState() State {
	return State{
		Phase:       PhaseLobby,
		TurnScores:  map[string]Score{},
		TotalScores: map[string]Score{},
		Idle:        map[string]bool{},
	}
}

func (s State) Started() bool { return s.Phase != PhaseLobby }
func (s State) PreTurn() bool { return s.Phase == PhasePreTurn }

func (s State) memberIndex(id string) int {
	for i, m := range s.Members {
		if m.ID == id {
			return i
		}
	}
	return -1
}

func (s State) member(id string) (Member, bool) {
	if i := s.memberIndex(id); i >= 0 {
		return s.Members[i], true
	}
	return Member{}, false
}

// clone deep-copies the mutable parts so Apply can build a new state
// without aliasing the caller's maps and slices.
func (s State) clone() State {
	n := s
	n.Members = append([]Member(nil), s.Members...)
	n.WordPool = append([]string(nil), s.WordPool...)
	n.DrawerChoices = append([]string(nil), s.DrawerChoices...)
	n.TurnScores = make(map[string]Score, len(s.TurnScores))
	for k, v := range s.TurnScores {
		n.TurnScores[k] = v
	}
	n.TotalScores = make(map[string]Score, len(s.TotalScores))
	for k, v := range s.TotalScores {
		n.TotalScores[k] = v
	}
	n.Idle = make(map[string]bool, len(s.Idle))
	for k, v := range s.Idle {
		n.Idle[k] = v
	}
	if s.Pending != nil {
		p := *s.Pending
		n.Pending = &p
	}
	return n
}

type CommandType string

const (
	CmdAddMember          CommandType = "AddMember"
	CmdInitGame           CommandType = "InitGame"
	CmdSetDrawerWord      CommandType = "SetDrawerWord"
	CmdStartingTurn       CommandType = "StartingTurn"
	CmdChat               CommandType = "Chat"
	CmdTurnFinished       CommandType = "TurnFinished"
	CmdScoreboardFinished CommandType = "ScoreboardFinished"
	CmdRestartGame        CommandType = "RestartGame"
	CmdCheckClues         CommandType = "CheckClues"
)

type Command struct {
	Type     CommandType
	MemberID string // sender

	Member Member // AddMember

	// InitGame
	DurationMS  int
	Category    string
	CustomWords []string
	MaxRounds   int
	WordPool    []string // resolved by the caller from category or custom list

	Word string // SetDrawerWord

	// Chat
	Text         string
	RemainingSec int

	PercentRemaining int // CheckClues
}

type EventType string

const (
	EvtUserListUpdated  EventType = "UserListUpdated"
	EvtGameStateUpdated EventType = "GameStateUpdated"
	EvtPreTurnDrawer    EventType = "PreTurnDrawer"
	EvtPreTurnNoDrawer  EventType = "PreTurnNoDrawer"
	EvtPreDrawCountdown EventType = "PreDrawCountdown"
	EvtTurnCountdown    EventType = "TurnCountdown"
	EvtChatRelayed      EventType = "ChatRelayed"
	EvtWordGuessed      EventType = "WordGuessed"
	EvtClueRevealed     EventType = "ClueRevealed"
	EvtScoreboard       EventType = "Scoreboard"
	EvtGameEnded        EventType = "GameEnded"
	EvtGameCancelled    EventType = "GameCancelled"
	EvtGameRestarted    EventType = "GameRestarted"
)

// Event describes one broadcast the room gateway must perform. To
// limits delivery to a single member; Except excludes one; both empty
// means the whole room.
type Event struct {
	Type   EventType
	To     string
	Except string

	Members          []Member
	Action           string
	Message          string
	Words            []string
	GuesserID        string
	UpdatedCountdown int
	GuesserCount     int
	MaskedWord       string
	OwnerID          string
	// Ledger snapshots taken when the event fired; the state may have
	// moved on (turn reset) by the time the event is serialized.
	TurnScores  map[string]Score
	TotalScores map[string]Score
}
