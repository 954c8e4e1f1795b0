// Package hub is the registry of running lobbies, keyed by game code.
package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/lobby"
)

// Factory starts a lobby for a new game code.
type Factory func(ctx context.Context, code string) *lobby.Lobby

type HubMsg interface{ isHubMsg() }

type CreateLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type GetLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

// EnsureLobby returns the lobby for Code, creating it when missing.
type EnsureLobby struct {
	Code  string
	Reply chan *lobby.Lobby
}

type RemoveLobby struct {
	Code string
}

type ShutdownHub struct{}

func (CreateLobby) isHubMsg() {}
func (GetLobby) isHubMsg()    {}
func (EnsureLobby) isHubMsg() {}
func (RemoveLobby) isHubMsg() {}
func (ShutdownHub) isHubMsg() {}

type Hub struct {
	inbox   chan HubMsg
	lobbies map[string]*lobby.Lobby
	newLb   Factory
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewHub(parent context.Context, newLobby Factory, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		lobbies: make(map[string]*lobby.Lobby),
		newLb:   newLobby,
		log:     log.Named("hub"),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Done is closed once the hub and every lobby it started have stopped.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Lookup returns the lobby running under code. It returns nil when there is
// none, the hub has stopped, or ctx ends first.
func (h *Hub) Lookup(ctx context.Context, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	return h.request(ctx, GetLobby{Code: code, Reply: reply}, reply)
}

// Ensure returns the lobby for code, starting one when missing. Nil means the
// hub is gone or ctx ended first.
func (h *Hub) Ensure(ctx context.Context, code string) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	return h.request(ctx, EnsureLobby{Code: code, Reply: reply}, reply)
}

func (h *Hub) request(ctx context.Context, msg HubMsg, reply <-chan *lobby.Lobby) *lobby.Lobby {
	select {
	case h.inbox <- msg:
	case <-h.done:
		return nil
	case <-ctx.Done():
		return nil
	}
	select {
	case lb := <-reply:
		return lb
	case <-h.done:
		return nil
	case <-ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateLobby:
				msg.Reply <- h.ensure(msg.Code)

			case GetLobby:
				msg.Reply <- h.lobbies[msg.Code] // May be nil

			case EnsureLobby:
				msg.Reply <- h.ensure(msg.Code)

			case RemoveLobby:
				if lb := h.lobbies[msg.Code]; lb != nil {
					lb.Inbox() <- lobby.Shutdown{}
					delete(h.lobbies, msg.Code)
					h.log.Info("lobby removed", zap.String("code", msg.Code))
				}

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) ensure(code string) *lobby.Lobby {
	if lb := h.lobbies[code]; lb != nil {
		return lb
	}
	lb := h.newLb(h.ctx, code)
	h.lobbies[code] = lb
	h.log.Info("lobby created", zap.String("code", code), zap.Int("lobbies", len(h.lobbies)))
	return lb
}

// shutdown stops every lobby and waits for their goroutines to exit.
func (h *Hub) shutdown() {
	h.cancel()
	for code, lb := range h.lobbies {
		<-lb.Done()
		delete(h.lobbies, code)
	}
}
