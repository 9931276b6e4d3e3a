// internal/orchestrator/actions.go
//
// Player-facing contract of the game-session orchestrator.
// Defines:
//   - Actions players send: StartGame, CheckWord.
//   - The self-addressed timeout action: CheckGameStatus.
//   - Events players receive: StartSuccess, CheckWordResult, GameOver.
//   - Sentinel errors for rejected actions.

package orchestrator

import (
	"errors"
	"fmt"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/evaluation"
	"github.com/robalobadob/wordle-session/internal/session"
	"github.com/robalobadob/wordle-session/internal/words"
)

// StartGame begins a new game for the sender.
type StartGame struct{}

// CheckWord submits a guess for the sender's current game.
type CheckWord struct {
	Word string
}

// CheckGameStatus is the delayed timeout check the orchestrator sends to itself.
// It is only honoured when it originates from the orchestrator.
type CheckGameStatus struct {
	User      actor.ID
	SessionID actor.MessageID
}

// StartSuccess confirms that the evaluation service selected a target.
type StartSuccess struct{}

// CheckWordResult carries the positional result of a guess that did not end the game.
type CheckWordResult struct {
	CorrectPositions []uint8
	ContainedInWord  []uint8
}

// GameOver reports a finished game. It is a reply to the final guess, or an unsolicited
// notification when the game timed out.
type GameOver struct {
	Outcome session.Outcome
}

var (
	ErrInvalidEvaluatorID = errors.New("orchestrator: invalid evaluator id")
	ErrInvalidWord        = errors.New("orchestrator: invalid word")
	ErrAlreadyInGame      = errors.New("orchestrator: player already in a game")
	ErrNotInGame          = errors.New("orchestrator: player not in a game")
	ErrEvaluationPending  = errors.New("orchestrator: evaluation already pending")
	ErrStartPending       = errors.New("orchestrator: game start not yet acknowledged")
	ErrUnknownAction      = errors.New("orchestrator: unknown action")
)

// ValidateWord checks the shape of a guess: five lowercase ASCII letters.
func ValidateWord(word string) error {
	if len(word) != evaluation.WordLength {
		return fmt.Errorf("%w: must be %d characters long", ErrInvalidWord, evaluation.WordLength)
	}
	if !words.IsAlpha(word) {
		return fmt.Errorf("%w: must contain only lowercase letters", ErrInvalidWord)
	}
	return nil
}

// eventFor converts a cached evaluation reply into the event a player sees.
func eventFor(ev evaluation.Event) any {
	switch e := ev.(type) {
	case evaluation.WordChecked:
		return CheckWordResult{
			CorrectPositions: e.CorrectPositions,
			ContainedInWord:  e.ContainedInWord,
		}
	default:
		return StartSuccess{}
	}
}
