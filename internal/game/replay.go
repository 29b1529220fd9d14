package game

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

const replayVersion = 1

// ErrNoReplay is returned when a session has no replay in memory.
var ErrNoReplay = errors.New("no replay recorded")

// Replay is the ordered list of snapshots of one game session, with a
// playback cursor.
type Replay struct {
	GameID string

	mu     sync.RWMutex
	states []*Snapshot
	cursor int
}

// NewReplay creates an empty replay.
func NewReplay(gameID string) *Replay {
	return &Replay{GameID: gameID, states: make([]*Snapshot, 0)}
}

// Record appends a snapshot.
func (r *Replay) Record(s *Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

// Start rewinds the cursor.
func (r *Replay) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursor = 0
}

// Next returns the snapshot under the cursor and advances it, or nil at the end.
func (r *Replay) Next() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor >= len(r.states) {
		return nil
	}
	s := r.states[r.cursor]
	r.cursor++
	return s
}

// Previous steps the cursor back and returns that snapshot, or nil at the start.
func (r *Replay) Previous() *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cursor == 0 {
		return nil
	}
	r.cursor--
	return r.states[r.cursor]
}

// Skip moves the cursor by count, clamped to the recorded range.
func (r *Replay) Skip(count int) *Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.states) == 0 {
		return nil
	}
	r.cursor = min(max(r.cursor+count, 0), len(r.states)-1)
	return r.states[r.cursor]
}

// Size is the number of recorded snapshots.
func (r *Replay) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.states)
}

// StateAt returns snapshot i, or nil when out of range.
func (r *Replay) StateAt(i int) *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.states) {
		return nil
	}
	return r.states[i]
}

type replayHeader struct {
	GameID     string
	SavedAt    time.Time
	Version    int
	StateCount int
}

// ReplayPath is where a replay for gameID lives inside dir.
func ReplayPath(dir, gameID string) string {
	return filepath.Join(dir, gameID+".replay")
}

// SaveToFile writes the replay as a gzip-compressed gob stream.
func (r *Replay) SaveToFile(dir string) (err error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create replay directory: %w", err)
	}
	file, err := os.Create(ReplayPath(dir, r.GameID))
	if err != nil {
		return fmt.Errorf("failed to create replay file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close replay file: %w", cerr)
		}
	}()

	zw := gzip.NewWriter(file)
	enc := gob.NewEncoder(zw)
	header := replayHeader{GameID: r.GameID, SavedAt: time.Now().UTC(), Version: replayVersion, StateCount: len(r.states)}
	if err := enc.Encode(&header); err != nil {
		return fmt.Errorf("failed to encode replay header: %w", err)
	}
	for i, s := range r.states {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("failed to encode snapshot %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// LoadReplayFile reads a replay written by SaveToFile.
func LoadReplayFile(path string) (*Replay, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open replay: %w", err)
	}
	defer file.Close()

	zr, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read replay: %w", err)
	}
	defer zr.Close()

	dec := gob.NewDecoder(zr)
	var header replayHeader
	if err := dec.Decode(&header); err != nil {
		return nil, fmt.Errorf("failed to decode replay header: %w", err)
	}
	if header.Version != replayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", header.Version)
	}
	replay := NewReplay(header.GameID)
	for i := range header.StateCount {
		var s Snapshot
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("failed to decode snapshot %d: %w", i, err)
		}
		replay.states = append(replay.states, &s)
	}
	return replay, nil
}

// ReplayRecorder keeps one replay per running game session.
type ReplayRecorder struct {
	logger *zap.Logger
	dir    string

	mu      sync.RWMutex
	replays map[string]*Replay
}

// NewReplayRecorder creates a recorder saving into dir.
func NewReplayRecorder(logger *zap.Logger, dir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{logger: logger, dir: dir, replays: make(map[string]*Replay)}
}

// StartRecording begins a fresh replay for gameID.
func (rr *ReplayRecorder) StartRecording(gameID string) {
	rr.mu.Lock()
	rr.replays[gameID] = NewReplay(gameID)
	rr.mu.Unlock()
	rr.logger.Info("started replay recording", zap.String("game_id", gameID))
}

// IsRecording reports whether gameID has a replay in memory.
func (rr *ReplayRecorder) IsRecording(gameID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	_, ok := rr.replays[gameID]
	return ok
}

// RecordState snapshots g if gameID is being recorded.
func (rr *ReplayRecorder) RecordState(gameID string, g Game, action string) {
	rr.mu.RLock()
	replay, ok := rr.replays[gameID]
	rr.mu.RUnlock()
	if !ok {
		return
	}
	replay.Record(TakeSnapshot(g, replay.Size(), action))
	rr.logger.Debug("recorded replay state",
		zap.String("game_id", gameID),
		zap.String("action", action),
		zap.Int("state_count", replay.Size()),
	)
}

// Replay returns the in-memory replay for gameID.
func (rr *ReplayRecorder) Replay(gameID string) (*Replay, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()
	replay, ok := rr.replays[gameID]
	return replay, ok
}

// SaveReplay writes gameID's replay to disk and drops it from memory.
func (rr *ReplayRecorder) SaveReplay(gameID string) error {
	rr.mu.Lock()
	replay, ok := rr.replays[gameID]
	delete(rr.replays, gameID)
	rr.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w for game %s", ErrNoReplay, gameID)
	}
	if err := replay.SaveToFile(rr.dir); err != nil {
		return fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("game_id", gameID),
		zap.Int("state_count", replay.Size()),
		zap.String("directory", rr.dir),
	)
	return nil
}

// LoadReplay reads gameID's replay back from the recorder directory.
func (rr *ReplayRecorder) LoadReplay(gameID string) (*Replay, error) {
	replay, err := LoadReplayFile(ReplayPath(rr.dir, gameID))
	if err != nil {
		return nil, err
	}
	rr.logger.Info("loaded replay from disk",
		zap.String("game_id", gameID),
		zap.Int("state_count", replay.Size()),
	)
	return replay, nil
}

// ClearReplay drops gameID's replay without saving it.
func (rr *ReplayRecorder) ClearReplay(gameID string) {
	rr.mu.Lock()
	delete(rr.replays, gameID)
	rr.mu.Unlock()
	rr.logger.Debug("cleared replay from memory", zap.String("game_id", gameID))
}
