// Package room runs one actor goroutine per room. The actor owns the
// game state and the member outboxes; every inbound message is handled
// to completion before the next, so gameplay mutation is serialized
// without locks.
package room

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/pinta2/pinta2-backend/internal/game"
	"github.com/pinta2/pinta2-backend/internal/words"
	"github.com/pinta2/pinta2-backend/pkg/wire"
)

// hydrationDelay lets a late joiner's subscription settle before the
// board snapshot is pushed at them. Fire-and-forget, not cancellable.
const hydrationDelay = 300 * time.Millisecond

type Msg interface{ isRoomMsg() }

type Join struct {
	Member game.Member
	Outbox chan wire.Envelope
	Reply  chan JoinResult
}

type JoinResult struct {
	Members []game.Member
}

type Leave struct{ MemberID string }

type FromClient struct {
	MemberID string
	Cmd      game.Command
}

type Stroke struct {
	MemberID string
	Segment  wire.Stroke
}

type ClearBoard struct{ MemberID string }

type Hydrate struct {
	MemberID      string
	NewMemberID   string
	RemainingTime int
	Drawing       []wire.Stroke
}

type GetView struct{ Reply chan View }

type Shutdown struct{}

// deliverHydration re-enters the actor after the settle delay so the
// snapshot send happens on the actor goroutine.
type deliverHydration struct {
	MemberID string
	Env      wire.Envelope
}

func (Join) isRoomMsg()             {}
func (Leave) isRoomMsg()            {}
func (FromClient) isRoomMsg()       {}
func (Stroke) isRoomMsg()           {}
func (ClearBoard) isRoomMsg()       {}
func (Hydrate) isRoomMsg()          {}
func (GetView) isRoomMsg()          {}
func (Shutdown) isRoomMsg()         {}
func (deliverHydration) isRoomMsg() {}

// View reflects actor internals for tests without data races.
type View struct {
	Number     int
	NumClients int
	State      game.State
	Strokes    int
}

type Room struct {
	number  int
	inbox   chan Msg
	state   game.State
	clients map[string]chan wire.Envelope
	strokes []wire.Stroke
	catalog *words.Catalog
	onEmpty func(number int)
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

// New spawns the actor. onEmpty is called from the actor goroutine in
// the same handling step that removes the last member, so the registry
// can delete the room synchronously with its own serialization.
func New(parent context.Context, number int, catalog *words.Catalog, onEmpty func(number int), log *zap.Logger) *Room {
	ctx, cancel := context.WithCancel(parent)
	r := &Room{
		number:  number,
		inbox:   make(chan Msg, 64),
		state:   game.NewState(),
		clients: make(map[string]chan wire.Envelope),
		catalog: catalog,
		onEmpty: onEmpty,
		log:     log.With(zap.Int("room", number)),
		ctx:     ctx,
		cancel:  cancel,
	}
	go r.loop()
	return r
}

func (r *Room) Inbox() chan<- Msg { return r.inbox }
func (r *Room) Number() int       { return r.number }

// Done closes once the actor has stopped; senders can select on it to
// avoid blocking on a dead room.
func (r *Room) Done() <-chan struct{} { return r.ctx.Done() }

func (r *Room) loop() {
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				r.handleJoin(msg)

			case Leave:
				if r.handleLeave(msg.MemberID) {
					return
				}

			case FromClient:
				r.handleCommand(msg)

			case Stroke:
				r.strokes = append(r.strokes, msg.Segment)
				r.publishExcept(msg.MemberID, wire.Pack(wire.EvNewSegment, wire.NewSegment{
					Room:    r.number,
					Length:  len(r.strokes),
					Segment: msg.Segment,
				}))

			case ClearBoard:
				r.strokes = nil
				r.publishExcept(msg.MemberID, wire.Pack(wire.EvClearBoard, wire.RoomOnly{Room: r.number}))

			case Hydrate:
				r.handleHydrate(msg)

			case deliverHydration:
				r.publishTo(msg.MemberID, msg.Env)

			case GetView:
				msg.Reply <- View{
					Number:     r.number,
					NumClients: len(r.clients),
					State:      r.state,
					Strokes:    len(r.strokes),
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

func (r *Room) handleJoin(msg Join) {
	events, next, err := game.Apply(r.state, game.Command{Type: game.CmdAddMember, Member: msg.Member})
	if err != nil {
		r.log.Warn("join rejected", zap.String("member", msg.Member.ID), zap.Error(err))
		msg.Reply <- JoinResult{}
		return
	}
	r.state = next
	r.clients[msg.Member.ID] = msg.Outbox
	msg.Reply <- JoinResult{Members: next.Members}
	r.dispatch(events)

	// The creator gets the category and duration menu right away.
	if len(next.Members) == 1 {
		r.publishTo(msg.Member.ID, wire.Pack(wire.EvGameConfiguration, Configuration(r.catalog.Categories())))
	}
}

// handleLeave reconciles a disconnect. Returns true when the room is
// now empty and the actor has stopped.
func (r *Room) handleLeave(memberID string) bool {
	out, ok := r.clients[memberID]
	if ok {
		close(out)
		delete(r.clients, memberID)
	}

	events, next, err := game.Reconcile(r.state, memberID)
	if err != nil {
		r.log.Warn("disconnect reconciliation failed", zap.String("member", memberID), zap.Error(err))
		return false
	}
	r.state = next

	if len(next.Members) == 0 {
		r.onEmpty(r.number)
		r.shutdown()
		return true
	}
	r.dispatch(events)
	return false
}

func (r *Room) handleCommand(msg FromClient) {
	cmd := msg.Cmd
	cmd.MemberID = msg.MemberID

	if cmd.Type == game.CmdInitGame {
		if len(cmd.CustomWords) > 0 {
			cmd.WordPool = cmd.CustomWords
		} else {
			cmd.WordPool = r.catalog.Pool(cmd.Category)
		}
	}

	events, next, err := game.Apply(r.state, cmd)
	if err != nil {
		r.log.Warn("command rejected",
			zap.String("member", msg.MemberID),
			zap.String("command", string(cmd.Type)),
			zap.Error(err))
		r.publishTo(msg.MemberID, wire.Pack(wire.EvDesync, wire.Desync{Message: err.Error()}))
		return
	}
	r.state = next

	// A fresh turn starts with a clean board.
	switch cmd.Type {
	case game.CmdSetDrawerWord, game.CmdScoreboardFinished, game.CmdRestartGame:
		r.strokes = nil
	}
	r.dispatch(events)
}

func (r *Room) handleHydrate(msg Hydrate) {
	if _, ok := r.clients[msg.NewMemberID]; !ok {
		return
	}
	drawing := msg.Drawing
	if len(drawing) == 0 {
		drawing = append([]wire.Stroke(nil), r.strokes...)
	}
	env := wire.Pack(wire.EvUpdateLinesState, wire.UpdateLinesState{
		Drawing:       drawing,
		RemainingTime: msg.RemainingTime,
	})
	newMemberID := msg.NewMemberID
	time.AfterFunc(hydrationDelay, func() {
		select {
		case r.inbox <- deliverHydration{MemberID: newMemberID, Env: env}:
		default:
		}
	})
}

// dispatch translates engine events into wire envelopes and routes
// them to the room, a single member, or everyone but one.
func (r *Room) dispatch(events []game.Event) {
	for _, ev := range events {
		env, ok := r.toEnvelope(ev)
		if !ok {
			continue
		}
		switch {
		case ev.To != "":
			r.publishTo(ev.To, env)
		case ev.Except != "":
			r.publishExcept(ev.Except, env)
		default:
			r.publish(env)
		}
	}
}

func (r *Room) toEnvelope(ev game.Event) (wire.Envelope, bool) {
	switch ev.Type {
	case game.EvtUserListUpdated:
		return wire.Pack(wire.EvUpdateUserList, wire.UpdateUserList{
			Members: toWireMembers(ev.Members),
			Action:  ev.Action,
			Message: ev.Message,
		}), true
	case game.EvtGameStateUpdated:
		return wire.Pack(wire.EvUpdateGameState, GameStateFront(r.state)), true
	case game.EvtPreTurnDrawer:
		return wire.Pack(wire.EvPreTurnDrawer, wire.PreTurnDrawer{Words: ev.Words}), true
	case game.EvtPreTurnNoDrawer:
		return wire.Pack(wire.EvPreTurnNoDrawer, wire.PreTurnNoDrawer{Message: ev.Message}), true
	case game.EvtPreDrawCountdown:
		return wire.Pack(wire.EvCountdownPreDraw, nil), true
	case game.EvtTurnCountdown:
		return wire.Pack(wire.EvCountdownTurn, wire.CountdownTurn{UsersGuessing: ev.GuesserCount}), true
	case game.EvtChatRelayed:
		sender, ok := memberByID(r.state.Members, ev.GuesserID)
		if !ok {
			return wire.Envelope{}, false
		}
		return wire.Pack(wire.EvChatMsg, wire.ChatRelay{
			ID:    sender.ID,
			Name:  sender.Name,
			Color: sender.Color,
			Text:  ev.Message,
		}), true
	case game.EvtWordGuessed:
		return wire.Pack(wire.EvGuessedWord, wire.GuessedWord{
			ID:               ev.GuesserID,
			Message:          ev.Message,
			TurnScores:       toWireScores(ev.TurnScores),
			TotalScores:      toWireScores(ev.TotalScores),
			UpdatedCountdown: ev.UpdatedCountdown,
		}), true
	case game.EvtClueRevealed:
		return wire.Pack(wire.EvUpdateGameState, GameStateFront(r.state)), true
	case game.EvtScoreboard:
		return wire.Pack(wire.EvShowScoreboard, nil), true
	case game.EvtGameEnded:
		return wire.Pack(wire.EvGameEnded, wire.GameEnded{OwnerID: ev.OwnerID}), true
	case game.EvtGameCancelled:
		return wire.Pack(wire.EvGameCancelled, wire.GameCancelled{Message: ev.Message}), true
	case game.EvtGameRestarted:
		return wire.Pack(wire.EvGameConfiguration, Configuration(r.catalog.Categories())), true
	default:
		return wire.Envelope{}, false
	}
}

func (r *Room) publish(env wire.Envelope) {
	for id, ch := range r.clients {
		r.send(id, ch, env)
	}
}

func (r *Room) publishExcept(exceptID string, env wire.Envelope) {
	for id, ch := range r.clients {
		if id == exceptID {
			continue
		}
		r.send(id, ch, env)
	}
}

func (r *Room) publishTo(memberID string, env wire.Envelope) {
	if ch, ok := r.clients[memberID]; ok {
		r.send(memberID, ch, env)
	}
}

func (r *Room) send(id string, ch chan wire.Envelope, env wire.Envelope) {
	select {
	case ch <- env:
	default:
		// Slow or stuck client: drop them rather than block the room.
		r.log.Warn("dropping slow client", zap.String("member", id))
		close(ch)
		delete(r.clients, id)
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch)
		delete(r.clients, id)
	}
	r.cancel()
}

func memberByID(members []game.Member, id string) (game.Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return game.Member{}, false
}

func toWireMembers(members []game.Member) []wire.Member {
	out := make([]wire.Member, 0, len(members))
	for _, m := range members {
		out = append(out, wire.Member{ID: m.ID, Name: m.Name, Color: m.Color})
	}
	return out
}

func toWireScores(scores map[string]game.Score) map[string]wire.Score {
	out := make(map[string]wire.Score, len(scores))
	for id, sc := range scores {
		out[id] = wire.Score{Name: sc.Name, Value: sc.Value}
	}
	return out
}

// GameStateFront projects the engine state into its client-visible
// form. The secret word stays server-side.
func GameStateFront(s game.State) wire.GameStateFront {
	front := wire.GameStateFront{
		Started:       s.Started(),
		PreTurn:       s.PreTurn(),
		Category:      s.Category,
		Round:         s.Round,
		MaxRounds:     s.MaxRounds,
		Turn:          s.Turn,
		MaskedWord:    s.MaskedWord,
		TurnDuration:  s.TurnDurationMS,
		DrawerID:      s.DrawerID,
		UsersGuessing: s.UsersGuessing,
		TurnScores:    toWireScores(s.TurnScores),
		TotalScores:   toWireScores(s.TotalScores),
		EndGame:       s.Phase == game.PhaseEndGame,
	}
	if drawer, ok := memberByID(s.Members, s.DrawerID); ok {
		front.DrawerName = drawer.Name
	}
	return front
}

// Configuration is the category and duration menu offered to the room
// owner in the lobby and after a restart.
func Configuration(categories []string) wire.GameConfiguration {
	return wire.GameConfiguration{
		Categories: categories,
		PossibleTurnDurations: wire.TurnDurations{
			Min:     game.MinTurnDurationMS,
			Default: game.DefaultTurnDurationMS,
			Max:     game.MaxTurnDurationMS,
		},
	}
}
