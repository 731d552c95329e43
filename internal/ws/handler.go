// Package ws bridges one websocket connection to the hub and room
// actors: inbound envelopes become hub or room messages, room
// broadcasts flow back through the connection's outbox.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/pinta2/pinta2-backend/internal/game"
	"github.com/pinta2/pinta2-backend/internal/hub"
	"github.com/pinta2/pinta2-backend/internal/room"
	"github.com/pinta2/pinta2-backend/pkg/wire"
)

const writeTimeout = 3 * time.Second

func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		c := &client{
			hub:    h,
			conn:   conn,
			outbox: make(chan wire.Envelope, 32),
			log:    log.Named("ws"),
		}
		c.serve(r.Context())
	}
}

type client struct {
	hub    *hub.Hub
	conn   *websocket.Conn
	outbox chan wire.Envelope
	member game.Member
	room   *room.Room
	log    *zap.Logger
}

func (c *client) serve(ctx context.Context) {
	defer c.disconnect()

	writeCtx, writeCancel := context.WithCancel(ctx)
	defer writeCancel()
	go c.writeLoop(writeCtx)

	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return
			}
			return
		}

		var env wire.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.reply(ctx, wire.Pack(wire.EvDesync, wire.Desync{Message: "bad json"}))
			continue
		}
		c.handle(ctx, env)
	}
}

func (c *client) writeLoop(ctx context.Context) {
	for env := range c.outbox {
		payload, _ := json.Marshal(env)
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		_ = c.conn.Write(wctx, websocket.MessageText, payload)
		cancel()
	}
}

// reply writes a direct response on the caller's goroutine, bypassing
// the outbox so validation errors reach only this connection.
func (c *client) reply(ctx context.Context, env wire.Envelope) {
	payload, _ := json.Marshal(env)
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = c.conn.Write(wctx, websocket.MessageText, payload)
}

func (c *client) disconnect() {
	if c.room != nil {
		select {
		case c.room.Inbox() <- room.Leave{MemberID: c.member.ID}:
		case <-c.room.Done():
		}
	}
	if c.member.ID != "" {
		c.hub.Inbox() <- hub.Remove{MemberID: c.member.ID}
	}
}

func (c *client) handle(ctx context.Context, env wire.Envelope) {
	switch env.Event {
	case wire.EvRegister:
		var p wire.Register
		if !c.decode(ctx, env.Payload, &p) {
			return
		}
		reply := make(chan game.Member, 1)
		c.hub.Inbox() <- hub.Register{Name: p.Name, Reply: reply}
		c.member = <-reply
		c.reply(ctx, wire.Pack(wire.EvRegistered, wire.Registered{ID: c.member.ID}))

	case wire.EvCreateRoom:
		var p wire.CreateRoom
		if !c.decode(ctx, env.Payload, &p) {
			return
		}
		reply := make(chan hub.RoomResult, 1)
		c.hub.Inbox() <- hub.CreateRoom{MemberID: c.member.ID, Number: p.Room, Password: p.Password, Reply: reply}
		c.enterRoom(ctx, <-reply, wire.EvCreateRoomResponse, p.Room)

	case wire.EvJoinRoom:
		var p wire.JoinRoom
		if !c.decode(ctx, env.Payload, &p) {
			return
		}
		reply := make(chan hub.RoomResult, 1)
		c.hub.Inbox() <- hub.JoinRoom{MemberID: c.member.ID, Number: p.Room, Password: p.Password, Reply: reply}
		c.enterRoom(ctx, <-reply, wire.EvJoinRoomResponse, p.Room)

	case wire.EvCheckRoomCredentials:
		var p wire.CheckRoomCredentials
		if !c.decode(ctx, env.Payload, &p) {
			return
		}
		reply := make(chan hub.CredentialsResult, 1)
		c.hub.Inbox() <- hub.CheckCredentials{Number: p.Room, Password: p.Password, Reply: reply}
		res := <-reply
		resp := wire.RoomResponse{Success: res.Exists && res.PasswordOK, Room: p.Room}
		switch {
		case !res.Exists:
			resp.Message = hub.MsgRoomNotFound
		case !res.PasswordOK:
			resp.Message = hub.MsgWrongPassword
		}
		c.reply(ctx, wire.Pack(wire.EvCredentialsResponse, resp))

	case wire.EvNewSegment:
		var p wire.NewSegment
		if !c.decode(ctx, env.Payload, &p) {
			return
		}
		c.toRoom(room.Stroke{MemberID: c.member.ID, Segment: p.Segment})

	case wire.EvClearBoard:
		c.toRoom(room.ClearBoard{MemberID: c.member.ID})

	case wire.EvHydrateNewPlayer:
		var p wire.HydrateNewPlayer
		if !c.decode(ctx, env.Payload, &p) {
			return
		}
		c.toRoom(room.Hydrate{
			MemberID:      c.member.ID,
			NewMemberID:   p.NewMemberID,
			RemainingTime: p.RemainingTime,
			Drawing:       p.Drawing,
		})

	default:
		cmd, ok := c.toCommand(ctx, env)
		if !ok {
			c.reply(ctx, wire.Pack(wire.EvDesync, wire.Desync{Message: "unknown event"}))
			return
		}
		c.toRoom(room.FromClient{MemberID: c.member.ID, Cmd: cmd})
	}
}

func (c *client) toCommand(ctx context.Context, env wire.Envelope) (game.Command, bool) {
	switch env.Event {
	case wire.EvChatMsg:
		var p wire.ChatMsg
		if !c.decode(ctx, env.Payload, &p) {
			return game.Command{}, false
		}
		return game.Command{Type: game.CmdChat, Text: p.Text, RemainingSec: p.RemainingTime}, true

	case wire.EvInitGame:
		var p wire.InitGame
		if !c.decode(ctx, env.Payload, &p) {
			return game.Command{}, false
		}
		return game.Command{
			Type:        game.CmdInitGame,
			DurationMS:  p.Duration,
			Category:    p.Category,
			CustomWords: p.CustomWords,
			MaxRounds:   p.MaxRounds,
		}, true

	case wire.EvSetDrawerWord:
		var p wire.SetDrawerWord
		if !c.decode(ctx, env.Payload, &p) {
			return game.Command{}, false
		}
		return game.Command{Type: game.CmdSetDrawerWord, Word: p.Word}, true

	case wire.EvStartingTurn:
		return game.Command{Type: game.CmdStartingTurn}, true

	case wire.EvTurnFinished:
		return game.Command{Type: game.CmdTurnFinished}, true

	case wire.EvScoreboardFinished:
		return game.Command{Type: game.CmdScoreboardFinished}, true

	case wire.EvRestartGame:
		return game.Command{Type: game.CmdRestartGame}, true

	case wire.EvCheckForClues:
		var p wire.CheckForClues
		if !c.decode(ctx, env.Payload, &p) {
			return game.Command{}, false
		}
		return game.Command{Type: game.CmdCheckClues, PercentRemaining: p.PercentRemaining}, true

	default:
		return game.Command{}, false
	}
}

// enterRoom completes a create or join: the hub already validated the
// request, including that this session is not in a room yet, so what
// remains is subscribing this connection to the room broadcasts.
func (c *client) enterRoom(ctx context.Context, res hub.RoomResult, event string, number int) {
	if res.Room == nil {
		c.reply(ctx, wire.Pack(event, wire.RoomResponse{Success: false, Message: res.Message}))
		return
	}

	reply := make(chan room.JoinResult, 1)
	select {
	case res.Room.Inbox() <- room.Join{Member: res.Member, Outbox: c.outbox, Reply: reply}:
	case <-res.Room.Done():
		c.reply(ctx, wire.Pack(event, wire.RoomResponse{Success: false, Message: hub.MsgRoomNotFound}))
		return
	}

	join := <-reply
	if len(join.Members) == 0 {
		c.reply(ctx, wire.Pack(event, wire.RoomResponse{Success: false, Message: hub.MsgRoomNotFound}))
		return
	}

	c.room = res.Room
	members := make([]wire.Member, 0, len(join.Members))
	for _, m := range join.Members {
		members = append(members, wire.Member{ID: m.ID, Name: m.Name, Color: m.Color})
	}
	c.reply(ctx, wire.Pack(event, wire.RoomResponse{
		Success: true,
		Room:    number,
		Members: members,
	}))
}

func (c *client) toRoom(msg room.Msg) {
	if c.room == nil {
		return
	}
	select {
	case c.room.Inbox() <- msg:
	case <-c.room.Done():
	}
}

func (c *client) decode(ctx context.Context, raw json.RawMessage, v any) bool {
	if err := json.Unmarshal(raw, v); err != nil {
		c.reply(ctx, wire.Pack(wire.EvDesync, wire.Desync{Message: "bad payload"}))
		return false
	}
	return true
}
