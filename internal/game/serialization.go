package game

import (
	"bytes"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
)

// Snapshot is a config-free copy of a game at one point of a session, used
// for replays and integrity checks.
type Snapshot struct {
	Sequence           int
	Action             string
	Timestamp          time.Time
	State              State
	Deck               card.Deck
	Stack              card.Stack
	Players            []player.Player
	CurrentPlayerID    string
	GaboPlayers        []string
	CounterGaboPlayers []string
}

// TakeSnapshot copies g. action labels what produced this state.
func TakeSnapshot(g Game, sequence int, action string) *Snapshot {
	cpy := g.Clone()
	return &Snapshot{
		Sequence:           sequence,
		Action:             action,
		Timestamp:          time.Now().UTC(),
		State:              cpy.State,
		Deck:               cpy.Deck,
		Stack:              cpy.Stack,
		Players:            cpy.Players,
		CurrentPlayerID:    cpy.CurrentPlayerID,
		GaboPlayers:        cpy.GaboPlayers,
		CounterGaboPlayers: cpy.CounterGaboPlayers,
	}
}

// Restore rebuilds a game from the snapshot under cfg.
func (s *Snapshot) Restore(cfg Config) Game {
	g := Game{
		Config:             cfg,
		State:              s.State,
		Deck:               s.Deck,
		Stack:              s.Stack,
		Players:            s.Players,
		CurrentPlayerID:    s.CurrentPlayerID,
		GaboPlayers:        s.GaboPlayers,
		CounterGaboPlayers: s.CounterGaboPlayers,
	}
	return g.Clone()
}

// Checksum is a SHA-256 digest of a snapshot's deterministic rendering.
type Checksum struct {
	Hash      string
	Timestamp string
	Version   int
}

// ComputeChecksum hashes everything but the timestamp.
func (s *Snapshot) ComputeChecksum() (*Checksum, error) {
	hash := sha256.New()
	if _, err := hash.Write([]byte(s.canonical())); err != nil {
		return nil, fmt.Errorf("failed to compute hash: %w", err)
	}
	return &Checksum{
		Hash:      hex.EncodeToString(hash.Sum(nil)),
		Timestamp: s.Timestamp.Format("2006-01-02T15:04:05.000Z"),
		Version:   1,
	}, nil
}

func joinCards(cards []card.Card) string {
	parts := make([]string, len(cards))
	for i, c := range cards {
		parts[i] = fmt.Sprintf("%d%d", c.Rank, c.Suit)
	}
	return strings.Join(parts, ",")
}

func sortedCopy(ids []string) []string {
	cpy := append([]string(nil), ids...)
	sort.Strings(cpy)
	return cpy
}

// canonical renders the snapshot so that equal games give equal text.
// Seat and card order matter and are kept; declaration sets are sorted.
func (s *Snapshot) canonical() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "GAME:%d|%s|%s|%s\n", s.Sequence, s.Action, s.State, s.CurrentPlayerID)
	fmt.Fprintf(&buf, "DECK:%s\n", joinCards(s.Deck))
	fmt.Fprintf(&buf, "STACK:%s\n", joinCards(s.Stack))
	for _, p := range s.Players {
		held := "-"
		if p.HeldCard != nil {
			held = joinCards([]card.Card{*p.HeldCard})
		}
		fmt.Fprintf(&buf, "PLAYER:%s|%s|%d|%s|%s\n", p.ID, p.Name, p.Score, held, joinCards(p.CardMat))
	}
	fmt.Fprintf(&buf, "GABO:%s\n", strings.Join(sortedCopy(s.GaboPlayers), ","))
	fmt.Fprintf(&buf, "COUNTER:%s\n", strings.Join(sortedCopy(s.CounterGaboPlayers), ","))
	return buf.String()
}

// VerifyChecksum reports whether the snapshot still hashes to expected.
func (s *Snapshot) VerifyChecksum(expected *Checksum) (bool, error) {
	computed, err := s.ComputeChecksum()
	if err != nil {
		return false, fmt.Errorf("failed to compute checksum: %w", err)
	}
	return computed.Hash == expected.Hash, nil
}

// SerializeToBytes gob-encodes the snapshot.
func (s *Snapshot) SerializeToBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// DeserializeFromBytes decodes a snapshot written by SerializeToBytes.
func DeserializeFromBytes(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return &s, nil
}

// ValidateSerializationRoundtrip checks that encoding and decoding s keeps its checksum.
func ValidateSerializationRoundtrip(s *Snapshot) error {
	original, err := s.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute original checksum: %w", err)
	}
	data, err := s.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("failed to serialize: %w", err)
	}
	decoded, err := DeserializeFromBytes(data)
	if err != nil {
		return fmt.Errorf("failed to deserialize: %w", err)
	}
	roundtrip, err := decoded.ComputeChecksum()
	if err != nil {
		return fmt.Errorf("failed to compute deserialized checksum: %w", err)
	}
	if original.Hash != roundtrip.Hash {
		return fmt.Errorf("checksum mismatch: original=%s, deserialized=%s", original.Hash, roundtrip.Hash)
	}
	return nil
}
