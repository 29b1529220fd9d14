// Package card implements the playing cards, the draw deck and the discard stack.
package card

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/gabo-game/gabo-server/internal/outcome"
)

var (
	// ErrEmptyDeck is returned when drawing from a deck with no cards left.
	ErrEmptyDeck = errors.New("cannot draw a card from an empty deck")
	// ErrEmptyStack is returned when drawing from an empty discard stack.
	ErrEmptyStack = errors.New("cannot draw a card from an empty stack")
	// ErrUnknownRank is returned when parsing an unrecognised rank name.
	ErrUnknownRank = errors.New("unknown card rank")
	// ErrUnknownSuit is returned when parsing an unrecognised suit name.
	ErrUnknownSuit = errors.New("unknown card suit")
)

// Rank is the value of a card, Ace through King.
type Rank int

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

var rankNames = map[Rank]string{
	Ace:   "Ace",
	Two:   "2",
	Three: "3",
	Four:  "4",
	Five:  "5",
	Six:   "6",
	Seven: "7",
	Eight: "8",
	Nine:  "9",
	Ten:   "10",
	Jack:  "Jack",
	Queen: "Queen",
	King:  "King",
}

// Ranks lists every rank in deck order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

func (r Rank) String() string {
	if name, ok := rankNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RANK_%d", int(r))
}

// Valid reports whether r is one of the 13 ranks.
func (r Rank) Valid() bool {
	return r >= Ace && r <= King
}

// ParseRank accepts a rank name such as "Ace", "7" or "queen".
func ParseRank(s string) (Rank, error) {
	s = strings.TrimSpace(s)
	for _, r := range Ranks {
		if strings.EqualFold(rankNames[r], s) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownRank, s)
}

// Suit is cosmetic for scoring but kept for display and identity.
type Suit int

const (
	Hearts Suit = iota + 1
	Diamonds
	Clubs
	Spades
)

var suitNames = map[Suit]string{
	Hearts:   "Hearts",
	Diamonds: "Diamonds",
	Clubs:    "Clubs",
	Spades:   "Spades",
}

// Suits lists every suit in deck order.
var Suits = []Suit{Hearts, Diamonds, Clubs, Spades}

func (s Suit) String() string {
	if name, ok := suitNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SUIT_%d", int(s))
}

// Valid reports whether s is one of the 4 suits.
func (s Suit) Valid() bool {
	return s >= Hearts && s <= Spades
}

// ParseSuit accepts a suit name such as "Hearts" or "spades".
func ParseSuit(s string) (Suit, error) {
	s = strings.TrimSpace(s)
	for _, suit := range Suits {
		if strings.EqualFold(suitNames[suit], s) {
			return suit, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSuit, s)
}

// Card is an immutable playing card.
type Card struct {
	Rank Rank `json:"value"`
	Suit Suit `json:"suit"`
}

// New builds a card.
func New(rank Rank, suit Suit) Card {
	return Card{Rank: rank, Suit: suit}
}

func (c Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}

// Equal compares cards by rank only. Suits never matter for the scoring rules.
func Equal(a, b Card) bool {
	return a.Rank == b.Rank
}

// Deck is consumed from the front.
type Deck []Card

// Stack is the discard pile; index 0 is the top card.
type Stack []Card

// Drawn is a card taken from the front of a deck together with the remaining deck.
type Drawn struct {
	Card Card
	Deck Deck
}

// Popped is the top card of a stack together with the remaining stack.
type Popped struct {
	Card  Card
	Stack Stack
}

// DeckSize is the number of cards in a full deck.
const DeckSize = 52

// NewOrderedDeck returns the 52 cards, suit by suit, Ace to King.
func NewOrderedDeck() Deck {
	deck := make(Deck, 0, DeckSize)
	for _, suit := range Suits {
		for _, rank := range Ranks {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}

// Shuffle permutes deck in place with a Fisher-Yates shuffle and returns it.
// A nil rng uses the package-level random source.
func Shuffle(deck Deck, rng *rand.Rand) Deck {
	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}
	for i := len(deck) - 1; i > 0; i-- {
		j := intN(i + 1)
		deck[i], deck[j] = deck[j], deck[i]
	}
	return deck
}

// Draw takes the front card. The input deck is left untouched.
func Draw(deck Deck) outcome.Outcome[Drawn, error] {
	if len(deck) == 0 {
		return outcome.Failure[Drawn](ErrEmptyDeck)
	}
	remaining := make(Deck, len(deck)-1)
	copy(remaining, deck[1:])
	return outcome.Success[Drawn, error](Drawn{Card: deck[0], Deck: remaining})
}

// NewStack returns an empty discard stack.
func NewStack() Stack {
	return Stack{}
}

// Push puts card on top of the stack and returns the new stack.
func Push(stack Stack, c Card) Stack {
	next := make(Stack, 0, len(stack)+1)
	next = append(next, c)
	return append(next, stack...)
}

// DrawFromStack pops the top card. The input stack is left untouched.
func DrawFromStack(stack Stack) outcome.Outcome[Popped, error] {
	if len(stack) == 0 {
		return outcome.Failure[Popped](ErrEmptyStack)
	}
	remaining := make(Stack, len(stack)-1)
	copy(remaining, stack[1:])
	return outcome.Success[Popped, error](Popped{Card: stack[0], Stack: remaining})
}

// Top returns the visible card of the stack.
func (s Stack) Top() (Card, bool) {
	if len(s) == 0 {
		return Card{}, false
	}
	return s[0], true
}

// Clone copies the deck.
func (d Deck) Clone() Deck {
	return slices.Clone(d)
}

// Clone copies the stack.
func (s Stack) Clone() Stack {
	return slices.Clone(s)
}

// MarshalText renders the rank name.
func (r Rank) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownRank, int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText parses a rank name.
func (r *Rank) UnmarshalText(text []byte) error {
	parsed, err := ParseRank(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// MarshalText renders the suit name.
func (s Suit) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSuit, int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText parses a suit name.
func (s *Suit) UnmarshalText(text []byte) error {
	parsed, err := ParseSuit(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
