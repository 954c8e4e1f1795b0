package hub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/lobby"
	"github.com/DoyleJ11/autobattler-backend/internal/match"
)

func newHub(t *testing.T) *Hub {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	factory := func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, lobby.Config{Code: code, Rules: match.DefaultRules(), Catalog: cat}, log)
	}
	h := NewHub(context.Background(), factory, zap.NewNop())
	t.Cleanup(func() {
		h.Inbox() <- ShutdownHub{}
		<-h.Done()
	})
	return h
}

func ask(h *Hub, msg func(chan *lobby.Lobby) HubMsg) *lobby.Lobby {
	reply := make(chan *lobby.Lobby, 1)
	h.Inbox() <- msg(reply)
	return <-reply
}

func TestHub_Create_Get_SamePointer(t *testing.T) {
	h := newHub(t)

	lb1 := ask(h, func(r chan *lobby.Lobby) HubMsg { return CreateLobby{Code: "ZED123", Reply: r} })
	lb2 := ask(h, func(r chan *lobby.Lobby) HubMsg { return GetLobby{Code: "ZED123", Reply: r} })
	lb3 := ask(h, func(r chan *lobby.Lobby) HubMsg { return EnsureLobby{Code: "ZED123", Reply: r} })

	require.NotNil(t, lb1)
	assert.Same(t, lb1, lb2)
	assert.Same(t, lb1, lb3)
	assert.Equal(t, "ZED123", lb1.Code())
}

func TestHub_GetMissing(t *testing.T) {
	h := newHub(t)
	assert.Nil(t, ask(h, func(r chan *lobby.Lobby) HubMsg { return GetLobby{Code: "NOPE", Reply: r} }))
}

func TestHub_RemoveStopsLobby(t *testing.T) {
	h := newHub(t)
	lb := ask(h, func(r chan *lobby.Lobby) HubMsg { return CreateLobby{Code: "GONE", Reply: r} })

	h.Inbox() <- RemoveLobby{Code: "GONE"}
	select {
	case <-lb.Done():
	case <-time.After(time.Second):
		t.Fatalf("lobby still running")
	}
	assert.Nil(t, ask(h, func(r chan *lobby.Lobby) HubMsg { return GetLobby{Code: "GONE", Reply: r} }))
}

func TestHub_ShutdownStopsEverything(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	factory := func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, lobby.Config{Code: code, Rules: match.DefaultRules(), Catalog: cat}, zap.NewNop())
	}
	h := NewHub(context.Background(), factory, zap.NewNop())
	lb := ask(h, func(r chan *lobby.Lobby) HubMsg { return CreateLobby{Code: "A", Reply: r} })

	h.Inbox() <- ShutdownHub{}
	select {
	case <-h.Done():
	case <-time.After(time.Second):
		t.Fatalf("hub did not stop")
	}
	<-lb.Done()
}

func TestHub_LookupAndEnsure(t *testing.T) {
	h := newHub(t)

	assert.Nil(t, h.Lookup(context.Background(), "NEW1"))
	lb := h.Ensure(context.Background(), "NEW1")
	require.NotNil(t, lb)
	assert.Same(t, lb, h.Lookup(context.Background(), "NEW1"))
	assert.Same(t, lb, h.Ensure(context.Background(), "NEW1"))
}

func TestHub_RequestsReturnAfterShutdown(t *testing.T) {
	h := newHub(t)
	require.NotNil(t, h.Ensure(context.Background(), "LIVE"))
	h.Inbox() <- ShutdownHub{}
	<-h.Done()

	tests := []struct {
		name string
		call func(context.Context) *lobby.Lobby
	}{
		{"lookup", func(ctx context.Context) *lobby.Lobby { return h.Lookup(ctx, "LIVE") }},
		{"ensure", func(ctx context.Context) *lobby.Lobby { return h.Ensure(ctx, "LATE") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(chan *lobby.Lobby, 1)
			go func() { got <- tt.call(context.Background()) }()
			select {
			case lb := <-got:
				assert.Nil(t, lb)
			case <-time.After(time.Second):
				t.Fatalf("%s blocked on a stopped hub", tt.name)
			}
		})
	}
}

func TestHub_RequestHonoursContext(t *testing.T) {
	h := NewHub(context.Background(), nil, zap.NewNop())
	t.Cleanup(func() {
		h.Inbox() <- ShutdownHub{}
		<-h.Done()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, h.Lookup(ctx, "ANY"))
}
