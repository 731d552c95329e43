package game

import (
	"errors"
	"testing"
)

func sumScores(m map[string]Score) int {
	total := 0
	for _, sc := range m {
		total += sc.Value
	}
	return total
}

// guess drives one correct guess through the reducer.
func guess(t *testing.T, s State, memberID string, remaining int) State {
	t.Helper()
	_, next, err := Apply(s, Command{Type: CmdChat, MemberID: memberID, Text: s.CurrentWord, RemainingSec: remaining})
	if err != nil {
		t.Fatalf("guess by %s: %v", memberID, err)
	}
	return next
}

func TestReconcileUnknownMember(t *testing.T) {
	s := lobbyState(4)
	if _, _, err := Reconcile(s, "nadie"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestReconcileLastMemberEmptiesRoom(t *testing.T) {
	s := lobbyState(1)
	events, next, err := Reconcile(s, s.Members[0].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(next.Members) != 0 {
		t.Fatalf("room should be empty")
	}
	if len(events) != 0 {
		t.Fatalf("nobody is left to broadcast to: %+v", events)
	}
}

func TestReconcileLobbyLeaveReassignsOwner(t *testing.T) {
	s := lobbyState(4)
	leaver := s.Members[0]

	events, next, err := Reconcile(s, leaver.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(next.Members) != 3 {
		t.Fatalf("member not removed")
	}
	if next.OwnerID != next.Members[0].ID {
		t.Fatalf("ownership should pass to the first remaining member")
	}
	list := findEvent(t, events, EvtUserListUpdated)
	if list.Action != "left" || len(list.Members) != 3 {
		t.Fatalf("member list broadcast wrong: %+v", list)
	}
}

func TestReconcileEndGameOwnerHandsOff(t *testing.T) {
	s := startedState(t, 4)
	s.Phase = PhaseEndGame

	events, next, err := Reconcile(s, s.OwnerID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Phase != PhaseEndGame {
		t.Fatalf("end game screen should survive the owner leaving")
	}
	ended := findEvent(t, events, EvtGameEnded)
	if ended.OwnerID != next.OwnerID || next.OwnerID != next.Members[0].ID {
		t.Fatalf("restart offer should move to the next member: %+v", ended)
	}
}

func TestReconcileCancelsWhenTooFewRemain(t *testing.T) {
	s := startedState(t, 3)
	leaver := s.Members[2]

	events, next, err := Reconcile(s, leaver.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Phase != PhaseLobby || next.Started() {
		t.Fatalf("match should cancel back to lobby, got %s", next.Phase)
	}
	if !hasEvent(events, EvtGameCancelled) {
		t.Fatalf("missing cancellation notice")
	}
	if len(next.Members) != 2 {
		t.Fatalf("leaver still present")
	}
	if len(next.TotalScores) != 0 || next.CurrentWord != "" {
		t.Fatalf("cancelled match left state behind")
	}
}

// A drawer leaving mid-turn voids the turn: every point the turn
// produced is rolled back, the next member inherits the brush, and the
// ledgers stay exactly balanced.
func TestReconcileDrawerLeavesMidTurn(t *testing.T) {
	s := startedState(t, 4)
	drawer := s.DrawerID

	// 2 of 3 guessers have scored.
	s = guess(t, s, s.Members[1].ID, 100)
	s = guess(t, s, s.Members[2].ID, 80)

	totalBefore := sumScores(s.TotalScores)
	turnContribution := sumScores(s.TurnScores)

	events, next, err := Reconcile(s, drawer)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if got := sumScores(next.TotalScores); got != totalBefore-turnContribution {
		t.Fatalf("totals after = %d, want %d - %d", got, totalBefore, turnContribution)
	}
	if len(next.TurnScores) != 0 {
		t.Fatalf("turn ledger should be cleared: %v", next.TurnScores)
	}
	if _, ok := next.TotalScores[drawer]; ok {
		t.Fatalf("leaving drawer kept a total score entry")
	}
	if next.Phase != PhaseScoreboard {
		t.Fatalf("expected scoreboard, got %s", next.Phase)
	}
	if next.DrawerID != next.Members[0].ID || next.Turn != 0 || next.Round != 1 {
		t.Fatalf("succession wrong: drawer=%s turn=%d round=%d", next.DrawerID, next.Turn, next.Round)
	}
	if !hasEvent(events, EvtScoreboard) || !hasEvent(events, EvtUserListUpdated) {
		t.Fatalf("missing broadcasts: %+v", events)
	}
}

func TestReconcileLastDrawerLeavingWrapsRound(t *testing.T) {
	s := startedState(t, 4)

	// Walk the match to the last turn of round 1, then put the brush
	// in the last member's hands.
	s.Turn = 3
	s.DrawerID = s.Members[3].ID

	_, next, err := Reconcile(s, s.Members[3].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Turn != 0 || next.Round != 2 {
		t.Fatalf("expected wrap to round 2, got turn=%d round=%d", next.Turn, next.Round)
	}
	if next.DrawerID != next.Members[0].ID {
		t.Fatalf("drawer should wrap to the first member")
	}
}

func TestReconcileScoredGuesserLeaves(t *testing.T) {
	s := startedState(t, 4)
	drawer := s.DrawerID
	leaver := s.Members[1]

	s = guess(t, s, leaver.ID, 100)
	s = guess(t, s, s.Members[2].ID, 80)

	drawerTotalBefore := s.TotalScores[drawer].Value
	guessingBefore := s.UsersGuessing

	_, next, err := Reconcile(s, leaver.ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if _, ok := next.TurnScores[leaver.ID]; ok {
		t.Fatalf("leaver kept a turn score entry")
	}
	if _, ok := next.TotalScores[leaver.ID]; ok {
		t.Fatalf("leaver kept a total score entry")
	}
	if got := next.TotalScores[drawer].Value; got != drawerTotalBefore-DrawerBonus {
		t.Fatalf("drawer total = %d, want %d", got, drawerTotalBefore-DrawerBonus)
	}
	if got := next.TurnScores[drawer].Value; got != drawerTotalBefore-DrawerBonus {
		t.Fatalf("drawer turn score = %d, want %d", got, drawerTotalBefore-DrawerBonus)
	}
	if next.UsersGuessing != guessingBefore-1 {
		t.Fatalf("usersGuessing = %d, want %d", next.UsersGuessing, guessingBefore-1)
	}
	if next.Phase != PhaseActiveTurn {
		t.Fatalf("turn should keep running, got %s", next.Phase)
	}
}

func TestReconcilePendingGuesserStashesAdvance(t *testing.T) {
	s := startedState(t, 5)
	word := s.CurrentWord

	// One of four guessers scores, another one disconnects unresolved.
	s = guess(t, s, s.Members[1].ID, 100)
	_, s, err := Reconcile(s, s.Members[4].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	if s.Phase != PhaseActiveTurn {
		t.Fatalf("turn should continue, got %s", s.Phase)
	}
	if s.Pending == nil {
		t.Fatalf("expected a stashed next-turn decision")
	}
	if s.Pending.Turn != 1 || s.Pending.Round != 1 || s.Pending.DrawerID != s.Members[1].ID {
		t.Fatalf("stash wrong: %+v", s.Pending)
	}
	if s.UsersGuessing != 3 {
		t.Fatalf("usersGuessing = %d, want 3", s.UsersGuessing)
	}

	// Remaining guessers finish the turn; the stash drives the advance.
	s = guess(t, s, s.Members[2].ID, 70)
	s = guess(t, s, s.Members[3].ID, 40)
	if s.Phase != PhaseScoreboard {
		t.Fatalf("turn should have completed, got %s (word %q)", s.Phase, word)
	}
	if s.Turn != 1 || s.DrawerID != s.Members[1].ID || s.Pending != nil {
		t.Fatalf("stash not applied: turn=%d drawer=%s pending=%v", s.Turn, s.DrawerID, s.Pending)
	}
}

// A stashed next-turn decision must survive further departures: when
// the stashed successor themselves leaves, the stash is re-derived over
// the remaining members instead of advancing onto a ghost drawer.
func TestReconcileStashedSuccessorLeaves(t *testing.T) {
	s := startedState(t, 5)

	// One guesser scores, an unresolved one leaves and stashes the
	// successor, then the scored guesser (the stashed successor) leaves.
	s = guess(t, s, s.Members[1].ID, 100)
	_, s, err := Reconcile(s, s.Members[4].ID)
	if err != nil {
		t.Fatalf("reconcile unresolved guesser: %v", err)
	}
	stashed := s.Pending.DrawerID
	_, s, err = Reconcile(s, stashed)
	if err != nil {
		t.Fatalf("reconcile stashed successor: %v", err)
	}
	if s.Pending == nil {
		t.Fatalf("stash should survive re-derived, not vanish")
	}
	if s.Pending.DrawerID == stashed {
		t.Fatalf("stash still points at the departed member %s", stashed)
	}
	if s.memberIndex(s.Pending.DrawerID) != s.Pending.Turn {
		t.Fatalf("stash inconsistent: turn=%d drawer=%s members=%v",
			s.Pending.Turn, s.Pending.DrawerID, s.Members)
	}

	// The remaining guessers finish the turn; the advance must land on
	// a member who is actually in the room.
	s = guess(t, s, s.Members[1].ID, 70)
	s = guess(t, s, s.Members[2].ID, 40)
	if s.Phase != PhaseScoreboard {
		t.Fatalf("turn should have completed, got %s", s.Phase)
	}
	if s.memberIndex(s.DrawerID) != s.Turn {
		t.Fatalf("drawer invariant broken: drawer=%s turn=%d members=%v",
			s.DrawerID, s.Turn, s.Members)
	}
	if _, _, err := Apply(s, Command{Type: CmdScoreboardFinished}); err != nil {
		t.Fatalf("scoreboard finished after re-derived stash: %v", err)
	}
}

func TestReconcileLastPendingGuesserAdvancesImmediately(t *testing.T) {
	s := startedState(t, 4)

	s = guess(t, s, s.Members[1].ID, 100)
	s = guess(t, s, s.Members[2].ID, 80)

	// The only unresolved guesser disconnects: nobody is left to wait
	// for, so the turn completes in the same step.
	_, next, err := Reconcile(s, s.Members[3].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Phase != PhaseScoreboard {
		t.Fatalf("expected immediate advance, got %s", next.Phase)
	}
	if next.Turn != 1 || next.DrawerID != next.Members[1].ID {
		t.Fatalf("advance wrong: turn=%d drawer=%s", next.Turn, next.DrawerID)
	}
}

func TestReconcilePendingGuesserBeforeDrawerCompensatesTurn(t *testing.T) {
	s := startedState(t, 5)

	// Move the brush to the third member, as if two turns had passed.
	s.Turn = 2
	s.DrawerID = s.Members[2].ID

	// The first member (already drew this round) leaves unresolved.
	_, next, err := Reconcile(s, s.Members[0].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Turn != 1 {
		t.Fatalf("turn index should shift down, got %d", next.Turn)
	}
	if next.Members[next.Turn].ID != next.DrawerID {
		t.Fatalf("drawer invariant broken: members[%d]=%s drawer=%s",
			next.Turn, next.Members[next.Turn].ID, next.DrawerID)
	}
	if next.Pending == nil || next.Pending.Turn != 2 {
		t.Fatalf("stash should point at the drawer's successor: %+v", next.Pending)
	}
}

func TestReconcilePreTurnDrawerLeavesPromotesNext(t *testing.T) {
	s := startedState(t, 5)

	// Back to a preTurn with the second member about to draw.
	s.Phase = PhasePreTurn
	s.CurrentWord = ""
	s.MaskedWord = ""
	s.Turn = 1
	s.DrawerID = s.Members[1].ID

	events, next, err := Reconcile(s, s.Members[1].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Turn != 1 || next.Round != 1 {
		t.Fatalf("schedule wrong: turn=%d round=%d", next.Turn, next.Round)
	}
	if next.DrawerID != next.Members[1].ID {
		t.Fatalf("successor should inherit the slot, drawer=%s", next.DrawerID)
	}
	offer := findEvent(t, events, EvtPreTurnDrawer)
	if offer.To != next.DrawerID || len(offer.Words) != 3 {
		t.Fatalf("fresh offer wrong: %+v", offer)
	}
}

func TestReconcilePreTurnEarlierMemberLeavesDecrementsTurn(t *testing.T) {
	s := startedState(t, 5)

	s.Phase = PhasePreTurn
	s.Turn = 2
	s.DrawerID = s.Members[2].ID

	_, next, err := Reconcile(s, s.Members[0].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Turn != 1 {
		t.Fatalf("turn should compensate for the vacated slot, got %d", next.Turn)
	}
	if next.Members[next.Turn].ID != next.DrawerID {
		t.Fatalf("drawer invariant broken after compensation")
	}
}

func TestReconcilePreTurnLastDrawerEndsGame(t *testing.T) {
	s := startedState(t, 4)

	// Final round, last member about to draw, and they bail.
	s.Phase = PhasePreTurn
	s.Round = s.MaxRounds
	s.Turn = 3
	s.DrawerID = s.Members[3].ID

	events, next, err := Reconcile(s, s.Members[3].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if next.Phase != PhaseEndGame {
		t.Fatalf("expected endGame, got %s", next.Phase)
	}
	if !hasEvent(events, EvtGameEnded) {
		t.Fatalf("missing game ended broadcast")
	}
}

// Turn/round bookkeeping never moves backwards across a plain
// completion cycle, whatever order members leave in.
func TestReconcileMonotonicSchedule(t *testing.T) {
	s := startedState(t, 5)
	s = guess(t, s, s.Members[1].ID, 90)

	prevRound, prevTurn := s.Round, s.Turn
	_, s, err := Reconcile(s, s.Members[4].ID)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if s.Round < prevRound {
		t.Fatalf("round went backwards: %d -> %d", prevRound, s.Round)
	}
	if s.Turn < prevTurn {
		t.Fatalf("turn compensated without cause: %d -> %d", prevTurn, s.Turn)
	}
}
