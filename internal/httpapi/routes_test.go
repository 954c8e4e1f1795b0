package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/hub"
	"github.com/DoyleJ11/autobattler-backend/internal/lobby"
	"github.com/DoyleJ11/autobattler-backend/internal/match"
	"github.com/DoyleJ11/autobattler-backend/internal/store"
	"github.com/DoyleJ11/autobattler-backend/internal/types"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	log := zap.NewNop()
	h := hub.NewHub(context.Background(), func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, lobby.Config{Code: code, Rules: match.DefaultRules(), Catalog: cat}, log)
	}, log)
	srv := httptest.NewServer(SetupRoutes(Deps{Hub: h, Catalog: cat, Recorder: store.NopRecorder{}, Log: log}))
	t.Cleanup(func() {
		h.Inbox() <- hub.ShutdownHub{}
		<-h.Done()
		srv.Close()
	})
	return srv
}

func createGame(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Post(srv.URL+"/games", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Code, codeLength)
	return body.Code
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	assert.Equal(t, strings.ToUpper(code), code)
}

func TestRoutes(t *testing.T) {
	srv := newServer(t)
	code := createGame(t, srv)

	tests := []struct {
		path   string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/heroes", http.StatusOK},
		{"/games/" + code, http.StatusOK},
		{"/games/NOPE00", http.StatusNotFound},
		{"/games/" + code + "/rounds", http.StatusOK},
		{"/ws", http.StatusBadRequest},
		{"/ws?code=NOPE00", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHeroes(t *testing.T) {
	srv := newServer(t)
	resp, err := http.Get(srv.URL + "/heroes")
	require.NoError(t, err)
	defer resp.Body.Close()

	var heroes []catalog.HeroDefinition
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&heroes))
	assert.NotEmpty(t, heroes)
}

func TestWebsocket_JoinAndReject(t *testing.T) {
	srv := newServer(t)
	code := createGame(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?code=" + code + "&player=p1&name=Ana"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.Close(websocket.StatusNormalClosure, "")

	var msg types.ServerMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, types.MsgStateSnapshot, msg.Type)
	require.NotNil(t, msg.State)
	require.Len(t, msg.State.Players, 1)
	assert.Equal(t, "Ana", msg.State.Players[0].Name)

	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: types.MsgStartGame}))
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, types.MsgError, msg.Type)
	assert.Contains(t, msg.Error, "not enough players")

	require.NoError(t, wsjson.Write(ctx, conn, types.ClientMessage{Type: "dance"}))
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, types.MsgError, msg.Type)
}

func TestRoutes_AfterHubShutdown(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	log := zap.NewNop()
	h := hub.NewHub(context.Background(), func(ctx context.Context, code string) *lobby.Lobby {
		return lobby.NewLobby(ctx, lobby.Config{Code: code, Rules: match.DefaultRules(), Catalog: cat}, log)
	}, log)
	srv := httptest.NewServer(SetupRoutes(Deps{Hub: h, Catalog: cat, Recorder: store.NopRecorder{}, Log: log}))
	t.Cleanup(srv.Close)
	code := createGame(t, srv)
	h.Inbox() <- hub.ShutdownHub{}
	<-h.Done()

	client := &http.Client{Timeout: 2 * time.Second}
	tests := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/games/" + code, http.StatusNotFound},
		{http.MethodGet, "/ws?code=" + code, http.StatusNotFound},
		{http.MethodPost, "/games", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, nil)
			require.NoError(t, err)
			resp, err := client.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}
