package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/gabo-game/gabo-server/internal/session"
)

var errGameIDRequired = errors.New("gameId is required")

func (h *Hub) handleMessage(c *Client, raw []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.logger.Debug("invalid client message", zap.String("client_id", c.ID), zap.Error(err))
		h.sendToClient(c.ID, errorMessage("", errors.New("invalid message format")))
		return
	}
	h.logger.Debug("message received", zap.String("client_id", c.ID), zap.String("type", msg.Type))

	switch msg.Type {
	case MsgPing:
		h.sendToClient(c.ID, newMessage(MsgPong, "", map[string]string{"message": "pong!"}))
	case MsgEcho:
		h.sendToClient(c.ID, newMessage(MsgEcho, "", msg.Data))
	case MsgBroadcast:
		h.broadcastAll(newMessage(MsgBroadcast, "", withSender(msg.Data, c.ID)))
	case MsgJoinGame:
		h.handleJoin(c, msg)
	case MsgLeaveGame:
		h.handleLeave(c, msg)
	case MsgStartGame:
		h.handleStart(c, msg)
	case MsgGameAction:
		h.handleAction(c, msg)
	case MsgGameMessage:
		h.handleGameMessage(c, msg)
	default:
		h.sendToClient(c.ID, errorMessage("", fmt.Errorf("unknown message type: %s", msg.Type)))
	}
}

// withSender adds a "from" field to an object payload. Other payloads are
// wrapped under "message".
func withSender(data json.RawMessage, from string) map[string]any {
	fields := map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fields); err != nil {
			fields = map[string]any{"message": data}
		}
	}
	fields["from"] = from
	return fields
}

// decode reads msg.Data into v and falls back to the envelope's gameId.
func decode(msg ClientMessage, v any, gameID *string) error {
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, v); err != nil {
			return fmt.Errorf("invalid %s payload: %w", msg.Type, err)
		}
	}
	if *gameID == "" {
		*gameID = msg.GameID
	}
	if *gameID == "" {
		return errGameIDRequired
	}
	return nil
}

func (h *Hub) handleJoin(c *Client, msg ClientMessage) {
	var req joinRequest
	if err := decode(msg, &req, &req.GameID); err != nil {
		h.sendToClient(c.ID, errorMessage("", err))
		return
	}
	info, err := h.sessions.Join(req.GameID, c.ID, req.PlayerName, req.Password)
	if err != nil {
		h.sendToClient(c.ID, errorMessage(req.GameID, err))
		return
	}
	name := info.Members[len(info.Members)-1].Name
	h.sendToClient(c.ID, newMessage(MsgGameJoined, req.GameID, map[string]any{
		"message":    "Joined the game",
		"playerName": name,
		"game":       info,
	}))
	h.broadcastToGame(req.GameID, newMessage(MsgPlayerJoined, req.GameID, map[string]string{
		"playerId":   c.ID,
		"playerName": name,
	}), c.ID)
}

func (h *Hub) handleLeave(c *Client, msg ClientMessage) {
	var req gameRequest
	if err := decode(msg, &req, &req.GameID); err != nil {
		h.sendToClient(c.ID, errorMessage("", err))
		return
	}
	if _, err := h.sessions.Leave(req.GameID, c.ID); err != nil {
		h.sendToClient(c.ID, errorMessage(req.GameID, err))
		return
	}
	h.sendToClient(c.ID, newMessage(MsgGameLeft, req.GameID, map[string]string{"message": "Left the game"}))
	h.broadcastToGame(req.GameID, newMessage(MsgPlayerLeft, req.GameID, map[string]string{"playerId": c.ID}), c.ID)
}

func (h *Hub) handleStart(c *Client, msg ClientMessage) {
	var req gameRequest
	if err := decode(msg, &req, &req.GameID); err != nil {
		h.sendToClient(c.ID, errorMessage("", err))
		return
	}
	g, err := h.sessions.Start(req.GameID, c.ID)
	if err != nil {
		h.sendToClient(c.ID, errorMessage(req.GameID, err))
		return
	}
	h.broadcastToGame(req.GameID, newMessage(MsgGameStarted, req.GameID, map[string]any{
		"message": "The game has started",
		"game":    PublicView(g),
	}), "")
}

func (h *Hub) handleAction(c *Client, msg ClientMessage) {
	var req actionRequest
	if err := decode(msg, &req, &req.GameID); err != nil {
		h.sendToClient(c.ID, errorMessage("", err))
		return
	}
	cmd := req.Command
	cmd.PlayerID = c.ID

	res, err := h.sessions.Apply(req.GameID, cmd)
	if err != nil {
		h.sendToClient(c.ID, errorMessage(req.GameID, err))
		return
	}

	update := updateData{Event: res.Event, PlayerID: c.ID, Game: PublicView(res.Game), PendingEffect: res.Pending}
	if res.Round != nil {
		update.Round = &roundView{Scores: res.Round.Scores, Losers: res.Round.Losers}
	}
	h.broadcastToGame(req.GameID, newMessage(MsgGameUpdate, req.GameID, update), "")
	if res.Revealed != nil {
		h.sendToClient(c.ID, newMessage(MsgReveal, req.GameID, revealData{
			Event:    res.Event,
			Card:     *res.Revealed,
			Decision: res.Decision,
		}))
	}
}

func (h *Hub) handleGameMessage(c *Client, msg ClientMessage) {
	var req gameRequest
	if err := decode(msg, &req, &req.GameID); err != nil {
		h.sendToClient(c.ID, errorMessage("", err))
		return
	}
	s, ok := h.sessions.GetSession(req.GameID)
	if !ok || !s.IsMember(c.ID) {
		h.sendToClient(c.ID, errorMessage(req.GameID, session.ErrNotMember))
		return
	}
	h.broadcastToGame(req.GameID, newMessage(MsgGameMessage, req.GameID, withSender(msg.Data, c.ID)), c.ID)
}
