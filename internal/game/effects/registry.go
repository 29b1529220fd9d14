package effects

import (
	"fmt"
	"sort"

	"github.com/gabo-game/gabo-server/internal/game"
	"github.com/gabo-game/gabo-server/internal/game/card"
)

// Rule names accepted in configuration files.
const (
	NameExchange          = "exchange"
	NameLookupOwn         = "lookup_own"
	NameLookupOthers      = "lookup_others"
	NameLookupAndExchange = "lookup_and_exchange"
)

var registry = map[string]game.Effect{
	NameExchange:          ExchangeMatCard,
	NameLookupOwn:         LookupOwnCard,
	NameLookupOthers:      LookupOthersCard,
	NameLookupAndExchange: LookupAndMaybeExchangeCard,
}

// Lookup returns the effect registered under name.
func Lookup(name string) (game.Effect, error) {
	effect, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown card effect %q", name)
	}
	return effect, nil
}

// Names lists the registered effect names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rule builds a card rule for rank bound to the named effect.
func Rule(rank card.Rank, name string) (game.CardRule, error) {
	effect, err := Lookup(name)
	if err != nil {
		return game.CardRule{}, err
	}
	if !rank.Valid() {
		return game.CardRule{}, fmt.Errorf("rule %s: %w", name, card.ErrUnknownRank)
	}
	// Rules match by rank, so the suit is arbitrary.
	return game.CardRule{Card: card.New(rank, card.Hearts), Name: name, Effect: effect}, nil
}

// DefaultRules is the usual table: sevens and eights peek at your own cards,
// nines and tens at an opponent's, jacks swap blind and queens peek then swap.
func DefaultRules() []game.CardRule {
	rule := func(rank card.Rank, name string) game.CardRule {
		return game.CardRule{Card: card.New(rank, card.Hearts), Name: name, Effect: registry[name]}
	}
	return []game.CardRule{
		rule(card.Seven, NameLookupOwn),
		rule(card.Eight, NameLookupOwn),
		rule(card.Nine, NameLookupOthers),
		rule(card.Ten, NameLookupOthers),
		rule(card.Jack, NameExchange),
		rule(card.Queen, NameLookupAndExchange),
	}
}
