package session

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// RulesFunc builds the rule set for a table with the given number of seats.
type RulesFunc func(players int) (game.Config, error)

// Option configures a Manager.
type Option func(*Manager)

// WithRecorder records every accepted command into rr.
func WithRecorder(rr *game.ReplayRecorder) Option {
	return func(m *Manager) { m.recorder = rr }
}

// WithRand makes shuffles deterministic by drawing each session's random
// source from newRand.
func WithRand(newRand func() *rand.Rand) Option {
	return func(m *Manager) { m.newRand = newRand }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Stats summarises the sessions held by a Manager.
type Stats struct {
	TotalGames    int `json:"totalGames"`
	WaitingGames  int `json:"waitingGames"`
	PlayingGames  int `json:"playingGames"`
	FinishedGames int `json:"finishedGames"`
	TotalPlayers  int `json:"totalPlayers"`
}

// Manager manages sessions.
type Manager struct {
	sessions    map[string]*Session
	mu          sync.RWMutex
	rules       RulesFunc
	maxSessions int
	recorder    *game.ReplayRecorder
	newRand     func() *rand.Rand
	now         func() time.Time
	logger      *zap.Logger
}

// NewManager creates a session manager. maxSessions <= 0 means unlimited.
func NewManager(rules RulesFunc, maxSessions int, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		sessions:    make(map[string]*Session),
		rules:       rules,
		maxSessions: maxSessions,
		now:         time.Now,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// CreateSession opens a waiting table. MaxPlayers defaults to 4.
func (m *Manager) CreateSession(opts Options) (*Session, error) {
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = 4
	}
	if opts.MaxPlayers < game.MinPlayers || opts.MaxPlayers > game.MaxPlayers {
		return nil, fmt.Errorf("maxPlayers must be between %d and %d, got %d",
			game.MinPlayers, game.MaxPlayers, opts.MaxPlayers)
	}
	cfg, err := m.rules(opts.MaxPlayers)
	if err != nil {
		return nil, fmt.Errorf("failed to build rules: %w", err)
	}
	created := game.CreateGame(cfg)
	if created.IsFailure() {
		return nil, created.Err()
	}

	id := uuid.NewString()
	if opts.Name == "" {
		opts.Name = "Game " + id[:8]
	}
	now := m.now()
	s := &Session{
		ID:           id,
		Name:         opts.Name,
		Private:      opts.Private,
		CreatedBy:    opts.CreatedBy,
		CreatedAt:    now,
		password:     opts.Password,
		game:         created.Value(),
		members:      make(map[string]Member),
		lastActivity: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		return nil, ErrTooManySessions
	}
	m.sessions[id] = s

	m.logger.Info("session created",
		zap.String("game_id", id),
		zap.String("name", s.Name),
		zap.String("created_by", s.CreatedBy),
		zap.Int("max_players", opts.MaxPlayers),
		zap.Bool("private", s.Private),
	)
	return s, nil
}

// GetSession retrieves a session by ID.
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) lookup(id string) (*Session, error) {
	s, ok := m.GetSession(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// DeleteSession removes a session and drops its replay. It reports whether
// the session existed.
func (m *Manager) DeleteSession(id string) bool {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		if m.recorder != nil {
			m.recorder.ClearReplay(id)
		}
		m.logger.Info("session deleted", zap.String("game_id", id))
	}
	return ok
}

// ListPublic returns public sessions, oldest first.
func (m *Manager) ListPublic() []Info {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if !s.Private {
			sessions = append(sessions, s)
		}
	}
	m.mu.RUnlock()

	infos := make([]Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Snapshot())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.Before(infos[j].CreatedAt)
	})
	return infos
}

// Join seats clientID at the table under name.
func (m *Manager) Join(id, clientID, name, password string) (Info, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	if name == "" {
		name = "Player_" + shortID(clientID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Private && s.password != password {
		return Info{}, ErrWrongPassword
	}
	if _, ok := s.members[clientID]; ok {
		return Info{}, ErrAlreadyMember
	}
	added := game.AddPlayer(s.game, game.CreatePlayer(clientID, name))
	if added.IsFailure() {
		return Info{}, added.Err()
	}
	s.game = added.Value()
	s.members[clientID] = Member{ClientID: clientID, Name: name, JoinedAt: m.now()}
	s.order = append(s.order, clientID)
	s.lastActivity = m.now()

	m.logger.Info("player joined",
		zap.String("game_id", id),
		zap.String("player_id", clientID),
		zap.String("player_name", name),
	)
	return s.infoLocked(), nil
}

// Leave removes clientID from the session. A waiting game also unseats the
// player; a running game keeps the seat but drops whatever the player was
// blocking the table with. The session is deleted once empty, and the
// returned flag reports that.
func (m *Manager) Leave(id, clientID string) (bool, error) {
	s, err := m.lookup(id)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	if _, ok := s.members[clientID]; !ok {
		s.mu.Unlock()
		return false, ErrNotMember
	}
	if s.game.State == game.StateWaiting {
		removed := game.RemovePlayer(s.game, clientID)
		if removed.IsFailure() {
			s.mu.Unlock()
			return false, removed.Err()
		}
		s.game = removed.Value()
		s.removeMemberLocked(clientID)
	} else {
		s.removeMemberLocked(clientID)
		s.releaseTurnLocked(clientID)
	}
	s.lastActivity = m.now()
	empty := len(s.members) == 0
	s.mu.Unlock()

	m.logger.Info("player left", zap.String("game_id", id), zap.String("player_id", clientID))
	if empty {
		m.DeleteSession(id)
	}
	return empty, nil
}

// LeaveAll removes clientID from every session it joined and returns the IDs
// of the sessions it left.
func (m *Manager) LeaveAll(clientID string) []string {
	m.mu.RLock()
	var joined []string
	for id, s := range m.sessions {
		if s.IsMember(clientID) {
			joined = append(joined, id)
		}
	}
	m.mu.RUnlock()

	left := make([]string, 0, len(joined))
	for _, id := range joined {
		if _, err := m.Leave(id, clientID); err == nil {
			left = append(left, id)
		}
	}
	sort.Strings(left)
	return left
}

// Start shuffles, deals and starts the game. Only the creator may start it.
func (m *Manager) Start(id, requester string) (game.Game, error) {
	s, err := m.lookup(id)
	if err != nil {
		return game.Game{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.CreatedBy != requester {
		return game.Game{}, ErrNotCreator
	}

	var rng *rand.Rand
	if m.newRand != nil {
		rng = m.newRand()
	}
	started := outcome.FlatMap(
		outcome.FlatMap(game.InitializeWithRand(s.game, rng), game.DistributeCards),
		game.Start,
	)
	if started.IsFailure() {
		m.logger.Warn("start rejected",
			zap.String("game_id", id),
			zap.String("kind", started.Err().Kind.String()),
			zap.String("reason", started.Err().Message),
		)
		return game.Game{}, started.Err()
	}
	s.game = started.Value()
	s.lastActivity = m.now()

	if m.recorder != nil {
		m.recorder.StartRecording(id)
		m.recorder.RecordState(id, s.game, "start")
	}
	m.logger.Info("game started",
		zap.String("game_id", id),
		zap.Int("players", len(s.game.Players)),
		zap.String("current_player", s.game.CurrentPlayerID),
	)
	return s.game, nil
}

// CleanupInactive deletes finished sessions and sessions idle for longer
// than maxAge. It returns how many were removed.
func (m *Manager) CleanupInactive(maxAge time.Duration) int {
	cutoff := m.now().Add(-maxAge)

	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		s.mu.Lock()
		if s.game.State == game.StateFinished || s.lastActivity.Before(cutoff) {
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	removed := 0
	for _, id := range stale {
		if m.DeleteSession(id) {
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("inactive sessions cleaned", zap.Int("removed", removed))
	}
	return removed
}

// RunCleanup calls CleanupInactive every interval until ctx is done.
func (m *Manager) RunCleanup(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session cleanup stopped")
			return
		case <-ticker.C:
			m.CleanupInactive(maxAge)
		}
	}
}

// Stats counts sessions per status and seated members.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := Stats{TotalGames: len(m.sessions)}
	for _, s := range m.sessions {
		s.mu.Lock()
		stats.TotalPlayers += len(s.members)
		switch s.game.State {
		case game.StateWaiting:
			stats.WaitingGames++
		case game.StatePlaying, game.StateGabo:
			stats.PlayingGames++
		case game.StateFinished:
			stats.FinishedGames++
		}
		s.mu.Unlock()
	}
	return stats
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
