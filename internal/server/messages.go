package server

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/session"
)

// Message types exchanged over the WebSocket.
const (
	MsgWelcome        = "welcome"
	MsgPing           = "ping"
	MsgPong           = "pong"
	MsgEcho           = "echo"
	MsgBroadcast      = "broadcast"
	MsgJoinGame       = "joinGame"
	MsgGameJoined     = "gameJoined"
	MsgPlayerJoined   = "playerJoined"
	MsgLeaveGame      = "leaveGame"
	MsgGameLeft       = "gameLeft"
	MsgPlayerLeft     = "playerLeft"
	MsgStartGame      = "startGame"
	MsgGameStarted    = "gameStarted"
	MsgGameAction     = "gameAction"
	MsgGameUpdate     = "gameUpdate"
	MsgReveal         = "reveal"
	MsgGameMessage    = "gameMessage"
	MsgError          = "error"
	MsgServerShutdown = "serverShutdown"
)

// ClientMessage is what clients send.
type ClientMessage struct {
	Type   string          `json:"type"`
	GameID string          `json:"gameId,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is what the server sends.
type ServerMessage struct {
	Type      string `json:"type"`
	GameID    string `json:"gameId,omitempty"`
	Data      any    `json:"data,omitempty"`
	Timestamp string `json:"timestamp"`
	ClientID  string `json:"clientId,omitempty"`
}

func newMessage(msgType, gameID string, data any) ServerMessage {
	return ServerMessage{
		Type:      msgType,
		GameID:    gameID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

type errorData struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func errorMessage(gameID string, err error) ServerMessage {
	data := errorData{Error: err.Error()}
	var failure *game.ActionFailure
	if errors.As(err, &failure) {
		data.Error = failure.Message
		data.Kind = failure.Kind.String()
	}
	return newMessage(MsgError, gameID, data)
}

type joinRequest struct {
	GameID     string `json:"gameId"`
	PlayerName string `json:"playerName"`
	Password   string `json:"password"`
}

type gameRequest struct {
	GameID string `json:"gameId"`
}

type actionRequest struct {
	GameID string `json:"gameId"`
	session.Command
}

// PlayerView is a player as every client may see it: mats face down.
type PlayerView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	CardCount   int    `json:"cardCount"`
	HasHeldCard bool   `json:"hasHeldCard"`
}

// GameView is the public projection of a game.
type GameView struct {
	State              game.State   `json:"state"`
	CurrentPlayerID    string       `json:"currentPlayerId,omitempty"`
	DeckSize           int          `json:"deckSize"`
	StackSize          int          `json:"stackSize"`
	StackTop           *card.Card   `json:"stackTop,omitempty"`
	Players            []PlayerView `json:"players"`
	GaboPlayers        []string     `json:"gaboPlayers"`
	CounterGaboPlayers []string     `json:"counterGaboPlayers"`
}

// PublicView hides every card that is not face up on the stack.
func PublicView(g game.Game) GameView {
	view := GameView{
		State:              g.State,
		CurrentPlayerID:    g.CurrentPlayerID,
		DeckSize:           game.DeckSize(g),
		StackSize:          len(g.Stack),
		Players:            make([]PlayerView, 0, len(g.Players)),
		GaboPlayers:        append([]string{}, g.GaboPlayers...),
		CounterGaboPlayers: append([]string{}, g.CounterGaboPlayers...),
	}
	if top, ok := game.StackTop(g); ok {
		view.StackTop = &top
	}
	for _, p := range g.Players {
		view.Players = append(view.Players, PlayerView{
			ID:          p.ID,
			Name:        p.Name,
			Score:       p.Score,
			CardCount:   len(p.CardMat),
			HasHeldCard: p.HasHeldCard(),
		})
	}
	return view
}

type updateData struct {
	Event         string                 `json:"event"`
	PlayerID      string                 `json:"playerId"`
	Game          GameView               `json:"game"`
	PendingEffect *session.PendingEffect `json:"pendingEffect,omitempty"`
	Round         *roundView             `json:"round,omitempty"`
}

type roundView struct {
	Scores []game.RoundScore `json:"scores"`
	Losers []string          `json:"losers"`
}

type revealData struct {
	Event    string    `json:"event"`
	Card     card.Card `json:"card"`
	Decision bool      `json:"decision"`
}
