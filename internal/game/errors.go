package game

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gabo-game/gabo-server/internal/game/card"
	"github.com/gabo-game/gabo-server/internal/game/player"
	"github.com/gabo-game/gabo-server/internal/outcome"
)

// FailureKind classifies an ActionFailure.
type FailureKind int

const (
	KindUnknown FailureKind = iota
	KindWrongState
	KindNotCurrentPlayer
	KindPlayerAlreadyExists
	KindPlayerNotFound
	KindMaxPlayersExceeded
	KindNotEnoughPlayers
	KindEmptyDeck
	KindEmptyStack
	KindInvalidIndex
	KindInsufficientCards
	KindNoHeldCard
	KindNotOwnCard
	KindCannotLookupOwnCard
	KindNotCounterEligible
	KindAlreadyDeclaredGabo
	KindNoCurrentPlayer
	KindWrongPlayerCount
	KindAlreadyHoldingCard
)

var kindNames = map[FailureKind]string{
	KindUnknown:             "Unknown",
	KindWrongState:          "WrongState",
	KindNotCurrentPlayer:    "NotCurrentPlayer",
	KindPlayerAlreadyExists: "PlayerAlreadyExists",
	KindPlayerNotFound:      "PlayerNotFound",
	KindMaxPlayersExceeded:  "MaxPlayersExceeded",
	KindNotEnoughPlayers:    "NotEnoughPlayers",
	KindEmptyDeck:           "EmptyDeck",
	KindEmptyStack:          "EmptyStack",
	KindInvalidIndex:        "InvalidIndex",
	KindInsufficientCards:   "InsufficientCards",
	KindNoHeldCard:          "NoHeldCard",
	KindNotOwnCard:          "NotOwnCard",
	KindCannotLookupOwnCard: "CannotLookupOwnCard",
	KindNotCounterEligible:  "NotCounterEligible",
	KindAlreadyDeclaredGabo: "AlreadyDeclaredGabo",
	KindNoCurrentPlayer:     "NoCurrentPlayer",
	KindWrongPlayerCount:    "WrongPlayerCount",
	KindAlreadyHoldingCard:  "AlreadyHoldingCard",
}

func (k FailureKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("KIND_%d", int(k))
}

// ActionFailure is the failure value of every game operation. Game is the
// snapshot at the point of failure.
type ActionFailure struct {
	Kind    FailureKind
	Message string
	Game    Game
	cause   error
}

func (f *ActionFailure) Error() string {
	return f.Message
}

// Unwrap exposes the primitive error the failure was built from, if any.
func (f *ActionFailure) Unwrap() error {
	return f.cause
}

// Is matches another *ActionFailure of the same kind, so callers can write
// errors.Is(err, game.ErrWrongState).
func (f *ActionFailure) Is(target error) bool {
	other, ok := target.(*ActionFailure)
	return ok && other.Kind == f.Kind
}

// MarshalJSON omits the game snapshot; transports send it separately.
func (f *ActionFailure) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Error string `json:"error"`
	}{Kind: f.Kind.String(), Error: f.Message})
}

// Sentinels for errors.Is.
var (
	ErrWrongState          = &ActionFailure{Kind: KindWrongState, Message: "wrong state"}
	ErrNotCurrentPlayer    = &ActionFailure{Kind: KindNotCurrentPlayer, Message: "not current player"}
	ErrPlayerAlreadyExists = &ActionFailure{Kind: KindPlayerAlreadyExists, Message: "player already exists"}
	ErrPlayerNotFound      = &ActionFailure{Kind: KindPlayerNotFound, Message: "player not found"}
	ErrMaxPlayersExceeded  = &ActionFailure{Kind: KindMaxPlayersExceeded, Message: "max players exceeded"}
	ErrNotEnoughPlayers    = &ActionFailure{Kind: KindNotEnoughPlayers, Message: "not enough players"}
	ErrEmptyDeck           = &ActionFailure{Kind: KindEmptyDeck, Message: "empty deck"}
	ErrEmptyStack          = &ActionFailure{Kind: KindEmptyStack, Message: "empty stack"}
	ErrInvalidIndex        = &ActionFailure{Kind: KindInvalidIndex, Message: "invalid index"}
	ErrInsufficientCards   = &ActionFailure{Kind: KindInsufficientCards, Message: "insufficient cards"}
	ErrNoHeldCard          = &ActionFailure{Kind: KindNoHeldCard, Message: "no held card"}
	ErrNotOwnCard          = &ActionFailure{Kind: KindNotOwnCard, Message: "not own card"}
	ErrCannotLookupOwnCard = &ActionFailure{Kind: KindCannotLookupOwnCard, Message: "cannot look up own card"}
	ErrNotCounterEligible  = &ActionFailure{Kind: KindNotCounterEligible, Message: "not counter eligible"}
	ErrAlreadyDeclaredGabo = &ActionFailure{Kind: KindAlreadyDeclaredGabo, Message: "already declared gabo"}
	ErrNoCurrentPlayer     = &ActionFailure{Kind: KindNoCurrentPlayer, Message: "no current player"}
	ErrWrongPlayerCount    = &ActionFailure{Kind: KindWrongPlayerCount, Message: "wrong player count"}
	ErrAlreadyHoldingCard  = &ActionFailure{Kind: KindAlreadyHoldingCard, Message: "already holding a card"}
)

// Fail builds a failure of the given kind carrying g.
func Fail(kind FailureKind, g Game, format string, args ...any) *ActionFailure {
	return &ActionFailure{Kind: kind, Message: fmt.Sprintf(format, args...), Game: g}
}

// AsFailure converts a primitive error into an ActionFailure carrying g.
func AsFailure(err error, g Game) *ActionFailure {
	var existing *ActionFailure
	if errors.As(err, &existing) {
		return &ActionFailure{Kind: existing.Kind, Message: existing.Message, Game: g, cause: existing.cause}
	}
	kind := KindUnknown
	switch {
	case errors.Is(err, card.ErrEmptyDeck):
		kind = KindEmptyDeck
	case errors.Is(err, card.ErrEmptyStack):
		kind = KindEmptyStack
	case errors.Is(err, player.ErrInvalidIndex):
		kind = KindInvalidIndex
	}
	return &ActionFailure{Kind: kind, Message: err.Error(), Game: g, cause: err}
}

// failed wraps a failure in a Result.
func failed(f *ActionFailure) Result {
	return outcome.Failure[Game](f)
}

func succeeded(g Game) Result {
	return outcome.Success[Game, *ActionFailure](g)
}

// IsInState succeeds when g is in one of the allowed states.
func IsInState(g Game, allowed ...State) Result {
	if slices.Contains(allowed, g.State) {
		return succeeded(g)
	}
	names := make([]string, len(allowed))
	for i, s := range allowed {
		names[i] = string(s)
	}
	return failed(Fail(KindWrongState, g,
		"Game is in state %s, expected one of: %s", g.State, strings.Join(names, ", ")))
}
