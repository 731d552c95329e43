// Package wire defines the JSON envelopes exchanged over the room
// publish/subscribe channel. Every message, both directions, is an
// Envelope whose Payload is decoded according to Event.
package wire

import "encoding/json"

type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server events.
const (
	EvRegister             = "register"
	EvCreateRoom           = "create room"
	EvJoinRoom             = "join room"
	EvCheckRoomCredentials = "check room credentials"
	EvChatMsg              = "chat msg"
	EvNewSegment           = "new segment"
	EvClearBoard           = "clear board"
	EvInitGame             = "init game"
	EvSetDrawerWord        = "set drawer word"
	EvStartingTurn         = "starting turn"
	EvTurnFinished         = "turn finished"
	EvScoreboardFinished   = "scoreboard finished"
	EvRestartGame          = "restart game"
	EvHydrateNewPlayer     = "hydrate new player"
	EvCheckForClues        = "check for clues"
)

// Server -> Client events.
const (
	EvRegistered          = "registered"
	EvCreateRoomResponse  = "create room response"
	EvJoinRoomResponse    = "join room response"
	EvCredentialsResponse = "room credentials response"
	EvUpdateUserList      = "update user list"
	EvUpdateGameState     = "update game state front"
	EvPreTurnDrawer       = "pre turn drawer"
	EvPreTurnNoDrawer     = "pre turn no drawer"
	EvCountdownPreDraw    = "countdown preDraw start"
	EvCountdownTurn       = "countdown turn"
	EvGuessedWord         = "guessed word"
	EvShowScoreboard      = "show scoreboard"
	EvGameEnded           = "game ended"
	EvGameCancelled       = "game cancelled"
	EvUpdateLinesState    = "update lines state"
	EvGameConfiguration   = "game configuration"
	EvDesync              = "desync"
)

type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type Score struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// Stroke is an opaque drawing segment. The server relays and caches it
// without interpreting the geometry.
type Stroke = json.RawMessage

type Register struct {
	Name string `json:"name"`
}

type Registered struct {
	ID string `json:"id"`
}

type CreateRoom struct {
	Room     int    `json:"room"`
	Password string `json:"password"`
}

type JoinRoom struct {
	Room     int    `json:"room"`
	Password string `json:"password"`
}

type CheckRoomCredentials struct {
	Room     int    `json:"room"`
	Password string `json:"password"`
}

type RoomResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Room    int      `json:"room,omitempty"`
	Members []Member `json:"members,omitempty"`
}

type ChatMsg struct {
	Room          int    `json:"room"`
	Text          string `json:"text"`
	RemainingTime int    `json:"remainingTime,omitempty"` // seconds, client reported
}

type ChatRelay struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Text  string `json:"text"`
}

type NewSegment struct {
	Room    int    `json:"room"`
	Length  int    `json:"length"`
	Segment Stroke `json:"segment"`
}

type ClearBoard struct {
	Room int `json:"room"`
}

type InitGame struct {
	Room        int      `json:"room"`
	Duration    int      `json:"duration,omitempty"` // milliseconds
	Category    string   `json:"category,omitempty"`
	CustomWords []string `json:"customWords,omitempty"`
	MaxRounds   int      `json:"maxRounds,omitempty"`
}

type SetDrawerWord struct {
	Room int    `json:"room"`
	Word string `json:"word"`
}

type RoomOnly struct {
	Room int `json:"room"`
}

type HydrateNewPlayer struct {
	Room          int      `json:"room"`
	NewMemberID   string   `json:"newMemberId"`
	RemainingTime int      `json:"remainingTime,omitempty"`
	Drawing       []Stroke `json:"drawing,omitempty"`
}

type CheckForClues struct {
	Room             int `json:"room"`
	PercentRemaining int `json:"percentRemaining"`
}

type UpdateUserList struct {
	Members []Member `json:"newUsers"`
	Action  string   `json:"action"` // "join" | "left"
	Message string   `json:"msg"`
}

// GameStateFront is the client-visible projection of the game state.
// The secret word never crosses the wire here, only its masked form.
type GameStateFront struct {
	Started       bool             `json:"started"`
	PreTurn       bool             `json:"preTurn"`
	Category      string           `json:"category,omitempty"`
	Round         int              `json:"round"`
	MaxRounds     int              `json:"maxRounds"`
	Turn          int              `json:"turn"`
	MaskedWord    string           `json:"cryptedWord,omitempty"`
	TurnDuration  int              `json:"turnDuration,omitempty"` // milliseconds
	DrawerID      string           `json:"drawerId,omitempty"`
	DrawerName    string           `json:"drawerName,omitempty"`
	UsersGuessing int              `json:"usersGuessing"`
	TurnScores    map[string]Score `json:"turnScores,omitempty"`
	TotalScores   map[string]Score `json:"totalScores,omitempty"`
	EndGame       bool             `json:"endGame"`
}

type PreTurnDrawer struct {
	Words []string `json:"possibleWords"`
}

type PreTurnNoDrawer struct {
	Message string `json:"message"`
}

type CountdownTurn struct {
	UsersGuessing int `json:"usersGuessing"`
}

type GuessedWord struct {
	ID               string           `json:"id"`
	Message          string           `json:"msg"`
	TurnScores       map[string]Score `json:"turnScores"`
	TotalScores      map[string]Score `json:"totalScores"`
	UpdatedCountdown int              `json:"updatedTime"`
}

type GameEnded struct {
	OwnerID string `json:"owner"`
}

type GameCancelled struct {
	Message string `json:"msg"`
}

type UpdateLinesState struct {
	Drawing       []Stroke `json:"lines"`
	RemainingTime int      `json:"remainingTime,omitempty"`
}

type GameConfiguration struct {
	Categories            []string      `json:"categories"`
	PossibleTurnDurations TurnDurations `json:"possibleTurnDurations"`
}

type TurnDurations struct {
	Min     int `json:"min"`
	Default int `json:"default"`
	Max     int `json:"max"`
}

type Desync struct {
	Message string `json:"msg"`
}

// Pack wraps a payload into an Envelope. Marshal errors are impossible
// for the fixed payload types above, so they are swallowed here.
func Pack(event string, payload any) Envelope {
	if payload == nil {
		return Envelope{Event: event}
	}
	raw, _ := json.Marshal(payload)
	return Envelope{Event: event, Payload: raw}
}
