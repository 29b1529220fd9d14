// Package player implements the pure operations on a player's mat and held card.
package player

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// ErrInvalidIndex is matched by every mat index failure.
var ErrInvalidIndex = errors.New("invalid mat index")

// IndexOutOfRangeError reports a mat index outside [0, Size).
type IndexOutOfRangeError struct {
	Index int
	Size  int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("invalid mat index: %d, must be between 0 and %d", e.Index, e.Size-1)
}

// Is lets errors.Is match ErrInvalidIndex.
func (e *IndexOutOfRangeError) Is(target error) bool {
	return target == ErrInvalidIndex
}

// Mat is the ordered grid of face-down cards a player holds.
type Mat []card.Card

// Player is a seat in a game. ID never changes once created.
type Player struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Score    int        `json:"score"`
	CardMat  Mat        `json:"cardMat"`
	HeldCard *card.Card `json:"heldCard"`
}

// Exchanged is the player after a mat swap and the card that was displaced.
type Exchanged struct {
	Player Player
	Card   card.Card
}

// New creates a player with an empty mat and no held card.
func New(id, name string) Player {
	return Player{
		ID:      id,
		Name:    name,
		CardMat: Mat{},
	}
}

// Clone deep-copies the player.
func (p Player) Clone() Player {
	cpy := p
	cpy.CardMat = slices.Clone(p.CardMat)
	if p.HeldCard != nil {
		held := *p.HeldCard
		cpy.HeldCard = &held
	}
	return cpy
}

// HasHeldCard reports whether a drawn card is waiting to be resolved.
func (p Player) HasHeldCard() bool {
	return p.HeldCard != nil
}

// IsValidMatIndex checks that index addresses a card in the mat.
func IsValidMatIndex(p Player, index int) outcome.Outcome[bool, error] {
	if index < 0 || index >= len(p.CardMat) {
		return outcome.Failure[bool, error](&IndexOutOfRangeError{Index: index, Size: len(p.CardMat)})
	}
	return outcome.Success[bool, error](true)
}

// ExchangeCard replaces the card at index with newCard and returns the displaced card.
func ExchangeCard(p Player, index int, newCard card.Card) outcome.Outcome[Exchanged, error] {
	return outcome.FlatMap(IsValidMatIndex(p, index), func(bool) outcome.Outcome[Exchanged, error] {
		next := p.Clone()
		old := next.CardMat[index]
		next.CardMat[index] = newCard
		return outcome.Success[Exchanged, error](Exchanged{Player: next, Card: old})
	})
}

// DiscardCard removes the card at index from the mat.
func DiscardCard(p Player, index int) outcome.Outcome[Player, error] {
	return outcome.FlatMap(IsValidMatIndex(p, index), func(bool) outcome.Outcome[Player, error] {
		next := p.Clone()
		next.CardMat = append(next.CardMat[:index], next.CardMat[index+1:]...)
		return outcome.Success[Player, error](next)
	})
}

// AddCard appends c to the end of the mat.
func AddCard(p Player, c card.Card) Player {
	next := p.Clone()
	next.CardMat = append(next.CardMat, c)
	return next
}

// SetHeldCard puts c in the player's hand.
func SetHeldCard(p Player, c card.Card) Player {
	next := p.Clone()
	next.HeldCard = &c
	return next
}

// ClearHeldCard empties the player's hand.
func ClearHeldCard(p Player) Player {
	next := p.Clone()
	next.HeldCard = nil
	return next
}

// AddScore adds points to the running score.
func AddScore(p Player, points int) Player {
	next := p.Clone()
	next.Score += points
	return next
}
