// Package session hosts live Gabo tables: it owns one game.Game value per
// session, serialises every mutation on it and keeps the interactive state a
// pure game value cannot hold (pending card effects and decisions).
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/game/card"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrTooManySessions   = errors.New("too many sessions")
	ErrWrongPassword     = errors.New("wrong session password")
	ErrNotCreator        = errors.New("only the creator can start the game")
	ErrNotMember         = errors.New("client is not a member of the session")
	ErrAlreadyMember     = errors.New("client already joined the session")
	ErrNoPendingEffect   = errors.New("no card effect is waiting to be resolved")
	ErrNoPendingDecision = errors.New("no decision is waiting")
	ErrPendingAction     = errors.New("a card effect must be resolved first")
	ErrUnknownCommand    = errors.New("unknown command")
)

// Options describes a new session.
type Options struct {
	Name       string `json:"gameName"`
	MaxPlayers int    `json:"maxPlayers"`
	Private    bool   `json:"isPrivate"`
	Password   string `json:"password,omitempty"`
	CreatedBy  string `json:"-"`
}

// Member is a connected client seated at the table.
type Member struct {
	ClientID string    `json:"id"`
	Name     string    `json:"playerName"`
	JoinedAt time.Time `json:"joinedAt"`
}

// PendingEffect is a played special card waiting for its target.
type PendingEffect struct {
	PlayerID string        `json:"playerId"`
	Card     card.Card     `json:"card"`
	Rule     game.CardRule `json:"-"`
	Effect   string        `json:"effect"`
}

// PendingDecision is a suspended lookup-and-exchange waiting for the caster's
// choice. Resume is consumed at most once.
type PendingDecision struct {
	PlayerID string      `json:"playerId"`
	Card     card.Card   `json:"-"`
	Resume   game.Resume `json:"-"`
}

// Session is one table. All fields behind mu are read through Snapshot or
// mutated through the Manager.
type Session struct {
	ID        string
	Name      string
	Private   bool
	CreatedBy string
	CreatedAt time.Time

	password string

	mu              sync.Mutex
	game            game.Game
	members         map[string]Member
	order           []string
	lastActivity    time.Time
	pendingEffect   *PendingEffect
	pendingDecision *PendingDecision
}

// Info is a consistent copy of the session for listings and transports.
type Info struct {
	ID              string         `json:"id"`
	Name            string         `json:"gameName"`
	Private         bool           `json:"isPrivate"`
	CreatedBy       string         `json:"createdBy"`
	Status          game.State     `json:"status"`
	PlayerCount     int            `json:"playerCount"`
	MaxPlayers      int            `json:"maxPlayers"`
	Members         []Member       `json:"players"`
	CreatedAt       time.Time      `json:"createdAt"`
	LastActivity    time.Time      `json:"lastActivity"`
	PendingEffect   *PendingEffect `json:"pendingEffect,omitempty"`
	AwaitsDecision  string         `json:"awaitsDecision,omitempty"`
	CurrentPlayerID string         `json:"currentPlayerId,omitempty"`
}

// Game returns the current game value.
func (s *Session) Game() game.Game {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game
}

// IsMember reports whether clientID joined the session.
func (s *Session) IsMember(clientID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.members[clientID]
	return ok
}

// MemberIDs lists member client IDs in join order.
func (s *Session) MemberIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.infoLocked()
}

func (s *Session) infoLocked() Info {
	members := make([]Member, 0, len(s.order))
	for _, id := range s.order {
		members = append(members, s.members[id])
	}
	info := Info{
		ID:              s.ID,
		Name:            s.Name,
		Private:         s.Private,
		CreatedBy:       s.CreatedBy,
		Status:          s.game.State,
		PlayerCount:     len(s.order),
		MaxPlayers:      s.game.Config.Players,
		Members:         members,
		CreatedAt:       s.CreatedAt,
		LastActivity:    s.lastActivity,
		CurrentPlayerID: s.game.CurrentPlayerID,
	}
	if s.pendingEffect != nil {
		pending := *s.pendingEffect
		info.PendingEffect = &pending
	}
	if s.pendingDecision != nil {
		info.AwaitsDecision = s.pendingDecision.PlayerID
	}
	return info
}

func (s *Session) removeMemberLocked(clientID string) {
	delete(s.members, clientID)
	for i, id := range s.order {
		if id == clientID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// releaseTurnLocked clears the pending effect or decision owned by a player
// who left and discards their held card if it was their turn. The member
// must already be removed.
func (s *Session) releaseTurnLocked(playerID string) {
	if s.pendingEffect != nil && s.pendingEffect.PlayerID == playerID {
		s.pendingEffect = nil
	}
	if s.pendingDecision != nil && s.pendingDecision.PlayerID == playerID {
		s.pendingDecision = nil
	}
	if p := game.PlayerByID(s.game, playerID); p.IsSuccess() && p.Value().HasHeldCard() {
		if discarded := game.DiscardHeldCard(s.game, playerID); discarded.IsSuccess() {
			s.game = discarded.Value()
		}
	}
	s.skipAbsentLocked()
}

// skipAbsentLocked moves the turn past seats whose player has left.
func (s *Session) skipAbsentLocked() {
	for range s.game.Players {
		if _, ok := s.members[s.game.CurrentPlayerID]; ok || len(s.members) == 0 {
			return
		}
		next := advance(s.game)
		if next.IsFailure() {
			return
		}
		s.game = next.Value()
	}
}
