package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gabo-game/gabo-server/internal/session"
)

const clientIDHeader = "X-Client-Id"

type createGameRequest struct {
	Config *session.Options `json:"config"`
}

type createGameResponse struct {
	GameID  string `json:"gameId"`
	JoinURL string `json:"joinUrl"`
	Status  string `json:"status"`
}

type healthResponse struct {
	Status      string        `json:"status"`
	Timestamp   string        `json:"timestamp"`
	Stats       session.Stats `json:"stats"`
	Connections int           `json:"connections"`
}

// NewHandler builds the REST and WebSocket routes.
func NewHandler(sessions *session.Manager, hub *Hub, allowedOrigins []string, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	api := &api{sessions: sessions, hub: hub, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", api.health)
	mux.HandleFunc("GET /api/stats", api.stats)
	mux.HandleFunc("POST /api/games", api.createGame)
	mux.HandleFunc("GET /api/games", api.listGames)
	mux.HandleFunc("GET /api/games/{id}", api.getGame)
	mux.HandleFunc("DELETE /api/games/{id}", api.deleteGame)
	mux.HandleFunc("GET /ws", hub.ServeWS)
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	return withLogging(logger, withCORS(allowedOrigins, mux))
}

type api struct {
	sessions *session.Manager
	hub      *Hub
	logger   *zap.Logger
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "healthy",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Stats:       a.sessions.Stats(),
		Connections: a.hub.ClientCount(),
	})
}

func (a *api) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.sessions.Stats())
}

func (a *api) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Config == nil {
		writeError(w, http.StatusBadRequest, "game config is required")
		return
	}
	opts := *req.Config
	opts.CreatedBy = r.Header.Get(clientIDHeader)
	if opts.CreatedBy == "" {
		opts.CreatedBy = "anonymous"
	}

	s, err := a.sessions.CreateSession(opts)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, session.ErrTooManySessions) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, createGameResponse{
		GameID:  s.ID,
		JoinURL: "ws://" + r.Host + "/ws?gameId=" + s.ID,
		Status:  "created",
	})
}

func (a *api) listGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]session.Info{"games": a.sessions.ListPublic()})
}

func (a *api) getGame(w http.ResponseWriter, r *http.Request) {
	s, ok := a.sessions.GetSession(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	writeJSON(w, http.StatusOK, s.Snapshot())
}

func (a *api) deleteGame(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, ok := a.sessions.GetSession(id)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if s.CreatedBy != r.Header.Get(clientIDHeader) {
		writeError(w, http.StatusForbidden, "only the creator can delete the game")
		return
	}
	a.sessions.DeleteSession(id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "game deleted"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func withCORS(allowed []string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case len(allowed) == 0 || slices.Contains(allowed, "*"):
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case slices.Contains(allowed, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", strings.Join([]string{"Content-Type", "Authorization", clientIDHeader}, ", "))

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withLogging(logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("remote", r.RemoteAddr),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
