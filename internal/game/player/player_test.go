package player

import (
	"testing"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func playerWithMat(cards ...card.Card) Player {
	p := New("1", "Alice")
	for _, c := range cards {
		p = AddCard(p, c)
	}
	return p
}

var (
	aceHearts   = card.New(card.Ace, card.Hearts)
	fiveClubs   = card.New(card.Five, card.Clubs)
	kingSpades  = card.New(card.King, card.Spades)
	queenDiamon = card.New(card.Queen, card.Diamonds)
)

func TestNew(t *testing.T) {
	p := New("42", "Bob")
	assert.Equal(t, "42", p.ID)
	assert.Equal(t, "Bob", p.Name)
	assert.Zero(t, p.Score)
	assert.Empty(t, p.CardMat)
	assert.False(t, p.HasHeldCard())
}

func TestIsValidMatIndex(t *testing.T) {
	p := playerWithMat(aceHearts, fiveClubs)

	tests := []struct {
		name  string
		index int
		valid bool
	}{
		{"first", 0, true},
		{"last", 1, true},
		{"negative", -1, false},
		{"past end", 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValidMatIndex(p, tt.index)
			assert.Equal(t, tt.valid, result.IsSuccess())
			if !tt.valid {
				assert.ErrorIs(t, result.Err(), ErrInvalidIndex)
				var rangeErr *IndexOutOfRangeError
				require.ErrorAs(t, result.Err(), &rangeErr)
				assert.Equal(t, tt.index, rangeErr.Index)
			}
		})
	}
}

func TestExchangeCard(t *testing.T) {
	p := playerWithMat(aceHearts, fiveClubs)

	result := ExchangeCard(p, 1, kingSpades)
	require.True(t, result.IsSuccess())
	assert.Equal(t, fiveClubs, result.Value().Card)
	assert.Equal(t, Mat{aceHearts, kingSpades}, result.Value().Player.CardMat)
	assert.Equal(t, Mat{aceHearts, fiveClubs}, p.CardMat, "input player must be unchanged")

	bad := ExchangeCard(p, 5, kingSpades)
	assert.ErrorIs(t, bad.Err(), ErrInvalidIndex)
	assert.EqualError(t, bad.Err(), "invalid mat index: 5, must be between 0 and 1")
}

func TestDiscardCard(t *testing.T) {
	p := playerWithMat(aceHearts, fiveClubs, kingSpades)

	result := DiscardCard(p, 1)
	require.True(t, result.IsSuccess())
	assert.Equal(t, Mat{aceHearts, kingSpades}, result.Value().CardMat)
	assert.Len(t, p.CardMat, 3)

	assert.True(t, DiscardCard(p, -1).IsFailure())
}

func TestHeldCard(t *testing.T) {
	p := New("1", "Alice")
	held := SetHeldCard(p, queenDiamon)
	require.True(t, held.HasHeldCard())
	assert.Equal(t, queenDiamon, *held.HeldCard)
	assert.False(t, p.HasHeldCard())

	cleared := ClearHeldCard(held)
	assert.False(t, cleared.HasHeldCard())
	assert.True(t, held.HasHeldCard())
}

func TestCloneIsDeep(t *testing.T) {
	p := SetHeldCard(playerWithMat(aceHearts), fiveClubs)
	cpy := p.Clone()
	cpy.CardMat[0] = kingSpades
	*cpy.HeldCard = kingSpades

	assert.Equal(t, aceHearts, p.CardMat[0])
	assert.Equal(t, fiveClubs, *p.HeldCard)
}

func TestAddScore(t *testing.T) {
	p := AddScore(AddScore(New("1", "Alice"), 10), 5)
	assert.Equal(t, 15, p.Score)
}
