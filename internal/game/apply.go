package game

import "fmt"

func joinMessage(name string) string {
	return fmt.Sprintf("El usuario %s se conectó a la sala", name)
}

func leftMessage(name string) string {
	return fmt.Sprintf("El usuario %s se desconectó de la sala", name)
}

func choosingWordMessage(name string) string {
	return fmt.Sprintf("%s está eligiendo palabra", name)
}

func guessedMessage(name string) string {
	return fmt.Sprintf("¡%s ha adivinado la palabra!", name)
}

const cancelledMessage = "Partida cancelada: no quedan suficientes jugadores"

// Apply runs one command against the state machine. It returns the
// broadcasts to perform and the next state; on error the returned
// state is the input state, unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdAddMember:
		return applyAddMember(s, cmd)
	case CmdInitGame:
		return applyInitGame(s, cmd)
	case CmdSetDrawerWord:
		return applySetDrawerWord(s, cmd)
	case CmdStartingTurn:
		return applyStartingTurn(s, cmd)
	case CmdChat:
		return applyChat(s, cmd)
	case CmdTurnFinished:
		return applyTurnFinished(s, cmd)
	case CmdScoreboardFinished:
		return applyScoreboardFinished(s, cmd)
	case CmdRestartGame:
		return applyRestartGame(s, cmd)
	case CmdCheckClues:
		return applyCheckClues(s, cmd)
	default:
		return nil, s, ErrUnsupported
	}
}

func applyAddMember(s State, cmd Command) ([]Event, State, error) {
	if cmd.Member.ID == "" {
		return nil, s, ErrMemberNotFound
	}
	next := s.clone()
	m := cmd.Member
	m.Color = AllocateColor(Palette, usedColors(next.Members))
	next.Members = append(next.Members, m)
	if len(next.Members) == 1 {
		next.OwnerID = m.ID
	}
	if next.Started() {
		// Joined mid-match: visible on the scoreboard at zero, but
		// sits out until the next turn starts.
		next.TotalScores[m.ID] = Score{Name: m.Name, Value: 0}
		next.Idle[m.ID] = true
	}
	events := []Event{{
		Type:    EvtUserListUpdated,
		Members: next.Members,
		Action:  "join",
		Message: joinMessage(m.Name),
	}}
	if next.Started() {
		events = append(events, Event{Type: EvtGameStateUpdated})
	}
	return events, next, nil
}

func applyInitGame(s State, cmd Command) ([]Event, State, error) {
	if cmd.MemberID != s.OwnerID {
		return nil, s, ErrNotOwner
	}
	if s.Phase != PhaseLobby {
		return nil, s, ErrWrongPhase
	}
	if len(s.Members) < MinPlayers {
		return nil, s, ErrNotEnoughPlayers
	}
	if len(cmd.WordPool) < wordsPerTurn*len(s.Members) {
		return nil, s, ErrNotEnoughWords
	}

	next := s.clone()
	next.Phase = PhasePreTurn
	next.Category = cmd.Category
	next.MaxRounds = cmd.MaxRounds
	if next.MaxRounds <= 0 {
		next.MaxRounds = DefaultMaxRounds
	}
	next.TurnDurationMS = clampDuration(cmd.DurationMS)
	next.Round = 1
	next.Turn = 0
	next.DrawerID = next.Members[0].ID
	next.WordPool = shufflePool(cmd.WordPool)
	next.WordsConsumed = 0
	next.DrawerChoices = drawerChoices(next.WordPool, 0)
	next.CurrentWord = ""
	next.MaskedWord = ""
	next.UsersGuessing = len(next.Members) - 1
	next.Pending = nil
	next.Idle = map[string]bool{}
	next.TurnScores = map[string]Score{}
	next.TotalScores = make(map[string]Score, len(next.Members))
	for _, m := range next.Members {
		next.TotalScores[m.ID] = Score{Name: m.Name, Value: 0}
	}

	drawer := next.Members[0]
	return []Event{
		{Type: EvtGameStateUpdated},
		{Type: EvtPreTurnDrawer, To: drawer.ID, Words: next.DrawerChoices},
		{Type: EvtPreTurnNoDrawer, Except: drawer.ID, Message: choosingWordMessage(drawer.Name)},
	}, next, nil
}

func clampDuration(ms int) int {
	switch {
	case ms == 0:
		return DefaultTurnDurationMS
	case ms < MinTurnDurationMS:
		return MinTurnDurationMS
	case ms > MaxTurnDurationMS:
		return MaxTurnDurationMS
	default:
		return ms
	}
}

func applySetDrawerWord(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhasePreTurn {
		return nil, s, ErrWrongPhase
	}
	if cmd.MemberID != s.DrawerID {
		return nil, s, ErrNotDrawer
	}
	if !containsWord(s.DrawerChoices, cmd.Word) {
		return nil, s, ErrWordNotOffered
	}

	next := s.clone()
	next.Phase = PhaseActiveTurn
	next.CurrentWord = cmd.Word
	next.MaskedWord = Mask(cmd.Word)
	next.UsersGuessing = len(next.Members) - 1
	next.Idle = map[string]bool{}
	next.TurnScores = map[string]Score{}

	return []Event{
		{Type: EvtGameStateUpdated},
		{Type: EvtPreDrawCountdown},
	}, next, nil
}

func applyStartingTurn(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseActiveTurn {
		return nil, s, ErrWrongPhase
	}
	return []Event{{Type: EvtTurnCountdown, GuesserCount: s.UsersGuessing}}, s, nil
}

func applyChat(s State, cmd Command) ([]Event, State, error) {
	sender, ok := s.member(cmd.MemberID)
	if !ok {
		return nil, s, ErrMemberNotFound
	}

	relay := Event{
		Type:      EvtChatRelayed,
		GuesserID: sender.ID,
		Message:   cmd.Text,
	}

	// Guesses only count during an active turn, never from the drawer,
	// never twice from the same member, and never from late joiners
	// sitting out the turn.
	if s.Phase != PhaseActiveTurn ||
		sender.ID == s.DrawerID ||
		s.Idle[sender.ID] ||
		hasScored(s, sender.ID) ||
		!MatchesWord(cmd.Text, s.CurrentWord) {
		return []Event{relay}, s, nil
	}

	next := s.clone()
	firstGuesser := len(next.TurnScores) == 0
	totalSec := next.TurnDurationMS / 1000
	res := ScoreGuess(cmd.RemainingSec, totalSec, firstGuesser)

	addScore(next.TurnScores, sender.ID, sender.Name, res.Score)
	addScore(next.TotalScores, sender.ID, sender.Name, res.Score)

	// Drawer bonus, once per distinct guesser: a member enters
	// TurnScores at most once, so crediting here is enough.
	if drawer, ok := next.member(next.DrawerID); ok {
		addScore(next.TurnScores, drawer.ID, drawer.Name, DrawerBonus)
		addScore(next.TotalScores, drawer.ID, drawer.Name, DrawerBonus)
	}

	events := []Event{{
		Type:             EvtWordGuessed,
		GuesserID:        sender.ID,
		Message:          guessedMessage(sender.Name),
		UpdatedCountdown: res.UpdatedCountdown,
		TurnScores:       copyScores(next.TurnScores),
		TotalScores:      copyScores(next.TotalScores),
	}}

	if turnComplete(next) {
		advEvents, advanced, err := advanceTurn(next)
		if err != nil {
			return nil, s, err
		}
		return append(events, advEvents...), advanced, nil
	}
	return events, next, nil
}

func hasScored(s State, id string) bool {
	_, ok := s.TurnScores[id]
	return ok
}

func copyScores(m map[string]Score) map[string]Score {
	out := make(map[string]Score, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func addScore(m map[string]Score, id, name string, delta int) {
	sc := m[id]
	sc.Name = name
	sc.Value += delta
	m[id] = sc
}

// turnComplete is the early-completion short circuit: every eligible
// guesser plus the drawer has an entry in the turn ledger.
func turnComplete(s State) bool {
	return len(s.TurnScores) >= s.UsersGuessing+1
}

func applyTurnFinished(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseActiveTurn {
		return nil, s, ErrWrongPhase
	}
	return advanceTurn(s.clone())
}

// advanceTurn moves the machine to the scoreboard for the next turn,
// or to the end of the game. A pending advance stashed by a mid-turn
// disconnect takes precedence over the natural derivation.
func advanceTurn(s State) ([]Event, State, error) {
	if len(s.Members) == 0 {
		return nil, s, ErrInvariant
	}
	adv := nextTurnAdvance(s)
	if s.Pending != nil {
		adv = *s.Pending
	}
	return applyAdvance(s, adv)
}

// nextTurnAdvance derives the natural successor: next index in member
// order, wrapping into a new round.
func nextTurnAdvance(s State) TurnAdvance {
	n := len(s.Members)
	nextTurn := (s.Turn + 1) % n
	nextRound := s.Round
	if nextTurn == 0 {
		nextRound++
	}
	return TurnAdvance{
		Turn:     nextTurn,
		Round:    nextRound,
		DrawerID: s.Members[nextTurn].ID,
	}
}

// applyAdvance commits a turn advance: words move on, turn ledger
// resets, and the room lands on the scoreboard or the final screen.
func applyAdvance(s State, adv TurnAdvance) ([]Event, State, error) {
	s.Pending = nil
	s.WordsConsumed += wordsPerTurn
	s.CurrentWord = ""
	s.MaskedWord = ""
	s.DrawerChoices = nil
	s.TurnScores = map[string]Score{}
	s.Idle = map[string]bool{}

	if adv.Round > s.MaxRounds {
		s.Phase = PhaseEndGame
		return []Event{
			{Type: EvtGameStateUpdated},
			{Type: EvtGameEnded, OwnerID: s.OwnerID},
		}, s, nil
	}

	s.Phase = PhaseScoreboard
	s.Turn = adv.Turn
	s.Round = adv.Round
	s.DrawerID = adv.DrawerID
	s.UsersGuessing = len(s.Members) - 1
	return []Event{
		{Type: EvtGameStateUpdated},
		{Type: EvtScoreboard},
	}, s, nil
}

func applyScoreboardFinished(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseScoreboard {
		return nil, s, ErrWrongPhase
	}
	drawer, ok := s.member(s.DrawerID)
	if !ok {
		return nil, s, ErrInvariant
	}

	next := s.clone()
	next.Phase = PhasePreTurn
	next.DrawerChoices = drawerChoices(next.WordPool, next.WordsConsumed)

	return []Event{
		{Type: EvtGameStateUpdated},
		{Type: EvtPreTurnDrawer, To: drawer.ID, Words: next.DrawerChoices},
		{Type: EvtPreTurnNoDrawer, Except: drawer.ID, Message: choosingWordMessage(drawer.Name)},
	}, next, nil
}

func applyRestartGame(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseEndGame {
		return nil, s, ErrWrongPhase
	}
	if cmd.MemberID != s.OwnerID {
		return nil, s, ErrNotOwner
	}

	next := s.clone()
	next.Phase = PhaseLobby
	next.Category = ""
	next.Round = 0
	next.Turn = 0
	next.CurrentWord = ""
	next.MaskedWord = ""
	next.DrawerID = ""
	next.WordPool = nil
	next.WordsConsumed = 0
	next.DrawerChoices = nil
	next.UsersGuessing = 0
	next.TurnScores = map[string]Score{}
	next.TotalScores = map[string]Score{}
	next.Idle = map[string]bool{}
	next.Pending = nil

	return []Event{
		{Type: EvtGameStateUpdated},
		{Type: EvtGameRestarted, To: next.OwnerID, OwnerID: next.OwnerID},
	}, next, nil
}

func applyCheckClues(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhaseActiveTurn || s.CurrentWord == "" {
		return nil, s, ErrWrongPhase
	}
	st := CheckWordStatus(s.MaskedWord)
	if !shouldRevealClue(st, cmd.PercentRemaining) {
		return nil, s, nil
	}
	revealed, err := RevealOne(s.MaskedWord, s.CurrentWord)
	if err != nil {
		// Nothing left to uncover; not a caller mistake.
		return nil, s, nil
	}
	next := s.clone()
	next.MaskedWord = revealed
	return []Event{
		{Type: EvtClueRevealed, MaskedWord: revealed, Except: next.DrawerID},
	}, next, nil
}
