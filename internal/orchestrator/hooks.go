// internal/orchestrator/hooks.go
//
// Observers of committed game transitions.
// Responsibilities:
//   - Describe why a game ended (guessed, tries, timeout).
//   - Define the Hooks interface used by history and metrics, and fan-out via MultiHooks.

package orchestrator

import (
	"context"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/session"
)

// FinishReason tells why a game ended.
type FinishReason string

const (
	ReasonGuessed        FinishReason = "guessed"
	ReasonTriesExhausted FinishReason = "tries"
	ReasonTimeout        FinishReason = "timeout"
)

// Result describes a finished game.
type Result struct {
	SessionID actor.MessageID
	Outcome   session.Outcome
	Reason    FinishReason
	Tries     uint8
}

// Hooks observe committed game transitions. Implementations must not block and
// must not fail the execution; errors are theirs to log.
type Hooks interface {
	GameStarted(ctx context.Context, player actor.ID, sessionID actor.MessageID)
	GuessChecked(ctx context.Context, player actor.ID, tries uint8)
	GameFinished(ctx context.Context, player actor.ID, r Result)
}

// MultiHooks fans every call out to each element in order.
type MultiHooks []Hooks

func (m MultiHooks) GameStarted(ctx context.Context, player actor.ID, sessionID actor.MessageID) {
	for _, h := range m {
		h.GameStarted(ctx, player, sessionID)
	}
}

func (m MultiHooks) GuessChecked(ctx context.Context, player actor.ID, tries uint8) {
	for _, h := range m {
		h.GuessChecked(ctx, player, tries)
	}
}

func (m MultiHooks) GameFinished(ctx context.Context, player actor.ID, r Result) {
	for _, h := range m {
		h.GameFinished(ctx, player, r)
	}
}
