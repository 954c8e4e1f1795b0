package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/autobattler-backend/internal/catalog"
	"github.com/DoyleJ11/autobattler-backend/internal/hub"
	"github.com/DoyleJ11/autobattler-backend/internal/lobby"
	"github.com/DoyleJ11/autobattler-backend/internal/store"
)

const codeLength = 6

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateGame(h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if h.Lookup(r.Context(), c) == nil {
				code = c
				break
			}
			log.Debug("collision on code, regenerating", zap.String("code", c))
		}

		if h.Ensure(r.Context(), code) == nil {
			http.Error(w, "failed to create game", http.StatusServiceUnavailable)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func GameState(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lb := h.Lookup(r.Context(), chi.URLParam(r, "code"))
		if lb == nil {
			http.Error(w, "game not found", http.StatusNotFound)
			return
		}
		reply := make(chan lobby.View, 1)
		select {
		case lb.Inbox() <- lobby.GetState{Reply: reply}:
		case <-lb.Done():
			http.Error(w, "game closed", http.StatusGone)
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, struct {
				Version int `json:"version"`
				State   any `json:"state"`
			}{Version: v.Version, State: v.State})
		case <-r.Context().Done():
		}
	}
}

func Rounds(rec store.Recorder, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		rounds, err := rec.ListRounds(r.Context(), code)
		if err != nil {
			log.Error("list rounds failed", zap.String("code", code), zap.Error(err))
			http.Error(w, "failed to load rounds", http.StatusInternalServerError)
			return
		}
		if rounds == nil {
			rounds = []store.RoundRecord{}
		}
		writeJSON(w, http.StatusOK, rounds)
	}
}

func Heroes(cat catalog.Provider) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, cat.AllHeroes())
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
