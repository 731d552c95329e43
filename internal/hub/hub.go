// Package hub owns the two global registries: connected members and
// live rooms. A single actor goroutine serializes every mutation, so
// handlers hold no locks and see consistent registry state.
package hub

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pinta2/pinta2-backend/internal/game"
	"github.com/pinta2/pinta2-backend/internal/room"
	"github.com/pinta2/pinta2-backend/internal/words"
)

type HubMsg interface{ isHubMsg() }

type Register struct {
	Name  string
	Reply chan game.Member
}

type Lookup struct {
	MemberID string
	Reply    chan LookupResult
}

type LookupResult struct {
	Member game.Member
	Room   *room.Room
	Found  bool
}

type Remove struct{ MemberID string }

type CreateRoom struct {
	MemberID string
	Number   int
	Password string
	Reply    chan RoomResult
}

type JoinRoom struct {
	MemberID string
	Number   int
	Password string
	Reply    chan RoomResult
}

type CheckCredentials struct {
	Number   int
	Password string
	Reply    chan CredentialsResult
}

type RemoveRoom struct{ Number int }

type ShutdownHub struct{}

func (Register) isHubMsg()         {}
func (Lookup) isHubMsg()           {}
func (Remove) isHubMsg()           {}
func (CreateRoom) isHubMsg()       {}
func (JoinRoom) isHubMsg()         {}
func (CheckCredentials) isHubMsg() {}
func (RemoveRoom) isHubMsg()       {}
func (ShutdownHub) isHubMsg()      {}

type RoomResult struct {
	Room    *room.Room
	Member  game.Member
	Message string
}

type CredentialsResult struct {
	Exists     bool
	PasswordOK bool
}

// Validation messages travel to the requesting client verbatim.
const (
	MsgRoomTaken     = "Ese número de sala ya está en uso"
	MsgRoomNotFound  = "La sala no existe"
	MsgWrongPassword = "Contraseña incorrecta"
	MsgNotRegistered = "Usuario no registrado"
	MsgAlreadyInRoom = "Ya estás en una sala"
)

type session struct {
	member game.Member
	room   *room.Room
}

type roomEntry struct {
	room     *room.Room
	password string
}

type Hub struct {
	inbox    chan HubMsg
	sessions map[string]*session
	rooms    map[int]*roomEntry
	catalog  *words.Catalog
	log      *zap.Logger
	ctx      context.Context
	cancel   context.CancelFunc
}

func NewHub(parent context.Context, catalog *words.Catalog, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		sessions: make(map[string]*session),
		rooms:    make(map[int]*roomEntry),
		catalog:  catalog,
		log:      log.Named("hub"),
		ctx:      ctx,
		cancel:   cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Register:
				member := game.Member{ID: uuid.NewString(), Name: msg.Name}
				h.sessions[member.ID] = &session{member: member}
				h.log.Info("member registered",
					zap.String("member", member.ID),
					zap.String("name", member.Name),
					zap.Int("connections", len(h.sessions)))
				msg.Reply <- member

			case Lookup:
				if s, ok := h.sessions[msg.MemberID]; ok {
					msg.Reply <- LookupResult{Member: s.member, Room: s.room, Found: true}
					break
				}
				msg.Reply <- LookupResult{}

			case Remove:
				if s, ok := h.sessions[msg.MemberID]; ok {
					delete(h.sessions, msg.MemberID)
					h.log.Info("member removed",
						zap.String("member", msg.MemberID),
						zap.String("name", s.member.Name),
						zap.Int("connections", len(h.sessions)))
				}

			case CreateRoom:
				msg.Reply <- h.createRoom(msg)

			case JoinRoom:
				msg.Reply <- h.joinRoom(msg)

			case CheckCredentials:
				entry, ok := h.rooms[msg.Number]
				msg.Reply <- CredentialsResult{
					Exists:     ok,
					PasswordOK: ok && entry.password == msg.Password,
				}

			case RemoveRoom:
				delete(h.rooms, msg.Number)
				h.log.Info("room removed", zap.Int("room", msg.Number))

			case ShutdownHub:
				for _, entry := range h.rooms {
					entry.room.Inbox() <- room.Shutdown{}
				}
				clear(h.rooms)
				h.cancel()
			}
		}
	}
}

func (h *Hub) createRoom(msg CreateRoom) RoomResult {
	s, ok := h.sessions[msg.MemberID]
	if !ok {
		return RoomResult{Message: MsgNotRegistered}
	}
	if s.room != nil {
		return RoomResult{Message: MsgAlreadyInRoom}
	}
	if _, taken := h.rooms[msg.Number]; taken {
		return RoomResult{Message: MsgRoomTaken}
	}

	rm := room.New(h.ctx, msg.Number, h.catalog, h.onRoomEmpty, h.log)
	h.rooms[msg.Number] = &roomEntry{room: rm, password: msg.Password}
	s.room = rm
	h.log.Info("room created", zap.Int("room", msg.Number), zap.String("owner", msg.MemberID))
	return RoomResult{Room: rm, Member: s.member}
}

func (h *Hub) joinRoom(msg JoinRoom) RoomResult {
	s, ok := h.sessions[msg.MemberID]
	if !ok {
		return RoomResult{Message: MsgNotRegistered}
	}
	if s.room != nil {
		return RoomResult{Message: MsgAlreadyInRoom}
	}
	entry, ok := h.rooms[msg.Number]
	if !ok {
		return RoomResult{Message: MsgRoomNotFound}
	}
	if entry.password != msg.Password {
		return RoomResult{Message: MsgWrongPassword}
	}
	s.room = entry.room
	return RoomResult{Room: entry.room, Member: s.member}
}

// onRoomEmpty runs on the emptying room's goroutine; the registry
// entry disappears through the hub's own inbox so map access stays
// single-owner.
func (h *Hub) onRoomEmpty(number int) {
	select {
	case h.inbox <- RemoveRoom{Number: number}:
	default:
		go func() { h.inbox <- RemoveRoom{Number: number} }()
	}
}
