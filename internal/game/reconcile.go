package game

// Reconcile removes a member from the room and re-derives every
// scheduler and ledger invariant the removal disturbs. The branches
// are evaluated in order and each is terminal. When the returned state
// has no members left the caller must delete the room in the same
// handling step.
func Reconcile(s State, leaverID string) ([]Event, State, error) {
	idx := s.memberIndex(leaverID)
	if idx < 0 {
		return nil, s, ErrMemberNotFound
	}

	leaver := s.Members[idx]
	wasOwner := s.OwnerID == leaverID
	wasDrawer := s.DrawerID == leaverID
	drawerIdx := s.Turn
	n := len(s.Members)

	// Last member out: the room dies with them, nobody left to tell.
	if n == 1 {
		next := s.clone()
		next.Members = nil
		return nil, next, nil
	}

	next := s.clone()
	next.Members = append(next.Members[:idx], next.Members[idx+1:]...)
	if wasOwner {
		next.OwnerID = next.Members[0].ID
	}
	_, scoredThisTurn := s.TurnScores[leaverID]
	delete(next.TurnScores, leaverID)
	delete(next.TotalScores, leaverID)
	delete(next.Idle, leaverID)

	var events []Event

	switch {
	case !s.Started():
		// Lobby: membership bookkeeping only.

	case s.Phase == PhaseEndGame && wasOwner:
		// The restart offer moves to the next member in order.
		events = append(events, Event{Type: EvtGameEnded, OwnerID: next.OwnerID})

	case s.Phase == PhaseEndGame:
		// Final screen stays up for the rest.

	case n-1 < MinPlayers:
		// Too few players to keep the match alive.
		next = cancelMatch(next)
		events = append(events, Event{Type: EvtGameCancelled, Message: cancelledMessage})

	case s.Phase == PhaseActiveTurn && wasDrawer:
		// The turn in progress is void: undo every point it produced,
		// guesses and drawer bonus alike, and hand the brush onward.
		for id, sc := range s.TurnScores {
			if id == leaverID {
				continue
			}
			subtractScore(next.TotalScores, id, sc.Value)
		}
		next.TurnScores = map[string]Score{}
		adv := drawerLeavingAdvance(next, idx, n)
		advEvents, advanced, err := applyAdvance(next, adv)
		if err != nil {
			return nil, s, err
		}
		next = advanced
		events = append(events, advEvents...)

	case s.Phase == PhaseActiveTurn && scoredThisTurn:
		// Their guess and the bonus it earned the drawer come back out.
		subtractScore(next.TurnScores, s.DrawerID, DrawerBonus)
		subtractScore(next.TotalScores, s.DrawerID, DrawerBonus)
		next.UsersGuessing = max(0, next.UsersGuessing-1)
		if idx < drawerIdx {
			next.Turn--
		}
		if next.Pending != nil {
			// An earlier departure stashed the successor over the old
			// member list; the leaver may be that successor, or their
			// removal may have shifted its index. Re-derive it.
			adv := nextTurnAdvance(next)
			next.Pending = &adv
		}

	case s.Phase == PhaseActiveTurn:
		// A pending guesser is gone. Derive what the next turn now
		// looks like; apply it if they were the last one standing,
		// otherwise queue it for the natural completion.
		next.UsersGuessing = max(0, next.UsersGuessing-1)
		if idx < drawerIdx {
			next.Turn--
		}
		adv := nextTurnAdvance(next)
		if turnComplete(next) {
			advEvents, advanced, err := applyAdvance(next, adv)
			if err != nil {
				return nil, s, err
			}
			next = advanced
			events = append(events, advEvents...)
		} else {
			next.Pending = &adv
		}

	default:
		// preTurn or scoreboard: between turns, no live ledger to fix.
		next.UsersGuessing = max(0, next.UsersGuessing-1)
		if wasDrawer {
			preEvents, promoted, err := promoteNextDrawer(next, idx, n)
			if err != nil {
				return nil, s, err
			}
			next = promoted
			events = append(events, preEvents...)
		} else if idx < drawerIdx {
			// Leaver already drew this round; their slot collapses.
			next.Turn--
		}
	}

	events = append(events, Event{
		Type:    EvtUserListUpdated,
		Members: next.Members,
		Action:  "left",
		Message: leftMessage(leaver.Name),
	})
	if next.Started() {
		events = append(events, Event{Type: EvtGameStateUpdated})
	}
	return events, next, nil
}

// drawerLeavingAdvance derives the successor turn when the drawer
// leaves mid-turn. Indices are relative to the post-removal list: the
// member after the leaver slides into their slot, and a leaver who was
// last in order wraps the round.
func drawerLeavingAdvance(s State, leaverIdx, before int) TurnAdvance {
	if leaverIdx >= before-1 {
		return TurnAdvance{Turn: 0, Round: s.Round + 1, DrawerID: s.Members[0].ID}
	}
	return TurnAdvance{Turn: leaverIdx, Round: s.Round, DrawerID: s.Members[leaverIdx].ID}
}

// promoteNextDrawer hands the upcoming turn to the next member when
// the designated drawer leaves during preTurn or the scoreboard.
func promoteNextDrawer(s State, leaverIdx, before int) ([]Event, State, error) {
	adv := drawerLeavingAdvance(s, leaverIdx, before)
	if adv.Round > s.MaxRounds {
		s.Phase = PhaseEndGame
		s.DrawerID = ""
		s.DrawerChoices = nil
		return []Event{{Type: EvtGameEnded, OwnerID: s.OwnerID}}, s, nil
	}

	s.Turn = adv.Turn
	s.Round = adv.Round
	s.DrawerID = adv.DrawerID

	if s.Phase != PhasePreTurn {
		// Scoreboard: the fresh offer goes out on scoreboard finished.
		return nil, s, nil
	}

	drawer, ok := s.member(s.DrawerID)
	if !ok {
		return nil, s, ErrInvariant
	}
	s.DrawerChoices = drawerChoices(s.WordPool, s.WordsConsumed)
	return []Event{
		{Type: EvtPreTurnDrawer, To: drawer.ID, Words: s.DrawerChoices},
		{Type: EvtPreTurnNoDrawer, Except: drawer.ID, Message: choosingWordMessage(drawer.Name)},
	}, s, nil
}

// cancelMatch drops the room back to the lobby, wiping match state.
func cancelMatch(s State) State {
	s.Phase = PhaseLobby
	s.Category = ""
	s.Round = 0
	s.Turn = 0
	s.CurrentWord = ""
	s.MaskedWord = ""
	s.DrawerID = ""
	s.WordPool = nil
	s.WordsConsumed = 0
	s.DrawerChoices = nil
	s.UsersGuessing = 0
	s.TurnScores = map[string]Score{}
	s.TotalScores = map[string]Score{}
	s.Idle = map[string]bool{}
	s.Pending = nil
	return s
}

func subtractScore(m map[string]Score, id string, delta int) {
	sc, ok := m[id]
	if !ok {
		return
	}
	sc.Value -= delta
	if sc.Value < 0 {
		sc.Value = 0
	}
	m[id] = sc
}
