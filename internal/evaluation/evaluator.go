// internal/evaluation/evaluator.go
//
// In-process word-evaluation service.
// Responsibilities:
//   - Pick a target per player on StartGame and acknowledge with GameStarted.
//   - Score CheckWord guesses against the player's target.

package evaluation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-session/internal/actor"
)

var (
	ErrNoGame         = errors.New("evaluation: player has no game")
	ErrUnknownRequest = errors.New("evaluation: unknown request")
)

// Evaluator is an in-process word-evaluation service. It keeps one target per player.
type Evaluator struct {
	picker  TargetPicker
	targets map[actor.ID]string
}

// NewEvaluator returns an evaluator drawing targets from picker.
func NewEvaluator(picker TargetPicker) *Evaluator {
	if picker == nil {
		picker = RandomPicker{}
	}
	return &Evaluator{picker: picker, targets: make(map[actor.ID]string)}
}

// Handle answers StartGame with GameStarted and CheckWord with WordChecked.
func (e *Evaluator) Handle(ctx *actor.Context) error {
	switch req := ctx.Message().Payload.(type) {
	case StartGame:
		target := e.picker.Pick(req.User)
		e.targets[req.User] = target
		log.Debug().Str("player", string(req.User)).Msg("target selected")
		return ctx.Reply(GameStarted{User: req.User})

	case CheckWord:
		target, ok := e.targets[req.User]
		if !ok {
			return fmt.Errorf("%w: %s", ErrNoGame, req.User)
		}
		correct, contained := Score(target, strings.ToLower(req.Word))
		return ctx.Reply(WordChecked{
			User:             req.User,
			CorrectPositions: correct,
			ContainedInWord:  contained,
		})

	default:
		return fmt.Errorf("%w: %T", ErrUnknownRequest, req)
	}
}

// HandleReply ignores replies; the evaluator never sends requests of its own.
func (e *Evaluator) HandleReply(*actor.Context) error { return nil }
