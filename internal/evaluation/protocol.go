// internal/evaluation/protocol.go
//
// Request/response contract with the word-evaluation service.
// Defines:
//   - StartGame / CheckWord: requests the orchestrator sends.
//   - GameStarted / WordChecked: events the service replies with.
//
// Every event embeds the player it concerns, so a reply can be routed back to the
// right session without any other lookup.

package evaluation

import "github.com/robalobadob/wordle-session/internal/actor"

// WordLength is the number of letters in every target and guess.
const WordLength = 5

// StartGame asks the service to select a target word for User.
type StartGame struct {
	User actor.ID
}

// CheckWord asks the service to score Word against User's target.
type CheckWord struct {
	User actor.ID
	Word string
}

// Event is a reply from the evaluation service.
type Event interface {
	Player() actor.ID
}

// GameStarted acknowledges that a target was selected for User.
type GameStarted struct {
	User actor.ID
}

func (e GameStarted) Player() actor.ID { return e.User }

// WordChecked reports, by position index, the exact matches and the letters present elsewhere.
type WordChecked struct {
	User             actor.ID
	CorrectPositions []uint8
	ContainedInWord  []uint8
}

func (e WordChecked) Player() actor.ID { return e.User }

// Guessed reports whether every position was matched.
func (e WordChecked) Guessed() bool {
	if len(e.CorrectPositions) != WordLength {
		return false
	}
	for _, pos := range e.CorrectPositions {
		if pos >= WordLength {
			return false
		}
	}
	return true
}
