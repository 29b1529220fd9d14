package game

import (
	"fmt"

	"github.com/gabo-game/gabo-server/internal/game/card"
)

// CheckCardConservation verifies that, once cards are in play, the deck, the
// stack, every mat and every held card together hold each of the 52 cards
// exactly once. Cards are identified by rank and suit here.
func CheckCardConservation(g Game) error {
	if g.State == StateWaiting && len(g.Deck) == 0 {
		return nil
	}
	seen := make(map[card.Card]string, card.DeckSize)
	add := func(c card.Card, where string) error {
		if prev, dup := seen[c]; dup {
			return fmt.Errorf("card %s found in %s and %s", c, prev, where)
		}
		seen[c] = where
		return nil
	}
	for _, c := range g.Deck {
		if err := add(c, "deck"); err != nil {
			return err
		}
	}
	for _, c := range g.Stack {
		if err := add(c, "stack"); err != nil {
			return err
		}
	}
	for _, p := range g.Players {
		for i, c := range p.CardMat {
			if err := add(c, fmt.Sprintf("mat of %s at %d", p.ID, i)); err != nil {
				return err
			}
		}
		if p.HeldCard != nil {
			if err := add(*p.HeldCard, "hand of "+p.ID); err != nil {
				return err
			}
		}
	}
	if len(seen) != card.DeckSize {
		return fmt.Errorf("expected %d cards in play, found %d", card.DeckSize, len(seen))
	}
	return nil
}
