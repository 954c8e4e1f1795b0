package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/engine"
	"github.com/DoyleJ11/autobattler-backend/internal/grid"
	"github.com/DoyleJ11/autobattler-backend/internal/hub"
	"github.com/DoyleJ11/autobattler-backend/internal/lobby"
	"github.com/DoyleJ11/autobattler-backend/internal/types"
)

const (
	writeTimeout = 3 * time.Second
	readTimeout  = 5 * time.Minute
)

// Handler upgrades /ws?code=&player=&name= and bridges the connection to the
// game's lobby. A missing player id gets a fresh one.
func Handler(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	log = log.Named("ws")
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		code := q.Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		playerID := q.Get("player")
		if playerID == "" {
			playerID = uuid.NewString()
		}

		lb := h.Lookup(r.Context(), code)
		if lb == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}

		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		clientID := uuid.NewString()
		out := make(chan lobby.Snapshot, 16)
		joined := make(chan error, 1)
		if !send(lb, lobby.Join{ClientID: clientID, PlayerID: playerID, Name: q.Get("name"), Outbox: out, Reply: joined}) {
			return
		}
		select {
		case err = <-joined:
		case <-lb.Done():
			return
		}
		if err != nil {
			writeError(r.Context(), conn, err.Error())
			conn.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}
		defer send(lb, lobby.Leave{ClientID: clientID})

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()
		go writeLoop(ctx, conn, out)

		for {
			readCtx, readCancel := context.WithTimeout(ctx, readTimeout)
			var cm types.ClientMessage
			err := wsjson.Read(readCtx, conn, &cm)
			readCancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					log.Debug("read ended", zap.String("player_id", playerID), zap.Error(err))
				}
				return
			}

			msg, ok := toLobbyMsg(clientID, playerID, out, cm)
			if !ok {
				writeError(ctx, conn, "unknown type "+cm.Type)
				continue
			}
			if !send(lb, msg) {
				return
			}
		}
	}
}

// writeLoop forwards lobby snapshots until the lobby closes the outbox or
// the handler returns.
func writeLoop(ctx context.Context, conn *websocket.Conn, out <-chan lobby.Snapshot) {
	for {
		var snap lobby.Snapshot
		select {
		case <-ctx.Done():
			return
		case s, ok := <-out:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "game closed")
				return
			}
			snap = s
		}
		msg := types.ServerMessage{Type: types.MsgStateSnapshot, Version: snap.Version, State: &snap.State, Events: snap.Events}
		if snap.Err != nil {
			msg = types.ServerMessage{Type: types.MsgError, Version: snap.Version, Error: snap.Err.Error()}
		}
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, conn, msg)
		cancel()
		if err != nil {
			return
		}
	}
}

func writeError(ctx context.Context, conn *websocket.Conn, text string) {
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	_ = wsjson.Write(wctx, conn, types.ServerMessage{Type: types.MsgError, Error: text})
}

func send(lb *lobby.Lobby, msg lobby.Msg) bool {
	select {
	case lb.Inbox() <- msg:
		return true
	case <-lb.Done():
		return false
	}
}

func toLobbyMsg(clientID, playerID string, out chan lobby.Snapshot, m types.ClientMessage) (lobby.Msg, bool) {
	tile := grid.Coord{X: m.X, Y: m.Y}
	var cmd engine.Command
	switch m.Type {
	case types.MsgJoinGame:
		return lobby.Join{ClientID: clientID, PlayerID: playerID, Name: m.Name, Outbox: out}, true
	case types.MsgStartGame:
		return lobby.StartGame{ClientID: clientID}, true
	case types.MsgBuy:
		cmd = engine.Command{Type: engine.CmdBuy, HeroID: m.HeroID}
	case types.MsgSell:
		cmd = engine.Command{Type: engine.CmdSell, UnitID: m.UnitID}
	case types.MsgPlace:
		cmd = engine.Command{Type: engine.CmdPlace, UnitID: m.UnitID, Tile: tile}
	case types.MsgWithdraw:
		cmd = engine.Command{Type: engine.CmdWithdraw, UnitID: m.UnitID}
	case types.MsgMove:
		cmd = engine.Command{Type: engine.CmdMove, UnitID: m.UnitID, Tile: tile}
	default:
		return nil, false
	}
	return lobby.FromClient{ClientID: clientID, Cmd: cmd}, true
}
