// internal/session/session.go
//
// Per-player game session and its lifecycle.
// Defines:
//   - Status:  init → in_progress → reply_received → in_progress | game_over.
//   - Outcome: win / lose, set once the session reaches game_over.
//   - Session: correlation identifiers plus tries and status for one player.
//
// Notes:
//   - A missing session is an implicit Init; sessions are never deleted, a finished one
//     is recycled by the next game start.
//   - Reply is only set while Status is reply_received.

package session

import (
	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/evaluation"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusInit          Status = "init"
	StatusInProgress    Status = "in_progress"
	StatusReplyReceived Status = "reply_received"
	StatusGameOver      Status = "game_over"
)

// Outcome is the result of a finished game.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
)

// Session is the state of one player's current (or last) game.
type Session struct {
	SessionID               actor.MessageID // start request that owns the game; validates timeouts
	OriginalRequestID       actor.MessageID // parked player request to wake on reply
	OutstandingEvaluationID actor.MessageID // request sent to the evaluation service
	Tries                   uint8
	Status                  Status
	Reply                   evaluation.Event // cached reply while reply_received
	Outcome                 Outcome          // set once game_over
	Awaiting                bool             // an evaluation request is outstanding
}

// New returns a session in the Init state.
func New() Session { return Session{Status: StatusInit} }

func (s *Session) IsInit() bool       { return s.Status == StatusInit || s.Status == "" }
func (s *Session) IsGameOver() bool   { return s.Status == StatusGameOver }
func (s *Session) HasReply() bool     { return s.Status == StatusReplyReceived }
func (s *Session) IsInProgress() bool { return s.Status == StatusInProgress }

// IsActive reports whether a game is running (waiting or holding a reply).
func (s *Session) IsActive() bool { return s.IsInProgress() || s.HasReply() }

// CanStartNewGame reports whether a new game may start from the current state.
func (s *Session) CanStartNewGame() bool { return s.IsInit() || s.IsGameOver() }

// AwaitingReply reports whether a correlated evaluation reply may be accepted.
func (s *Session) AwaitingReply() bool { return s.IsInProgress() && s.Awaiting }

// Begin starts a new game owned by the start request sessionID.
func (s *Session) Begin(sessionID, evaluationID actor.MessageID) {
	s.SessionID = sessionID
	s.Tries = 0
	s.Outcome = ""
	s.Reply = nil
	s.Status = StatusInProgress
	s.Await(sessionID, evaluationID)
}

// Await records a new outstanding evaluation request made on behalf of original.
func (s *Session) Await(original, evaluationID actor.MessageID) {
	s.OriginalRequestID = original
	s.OutstandingEvaluationID = evaluationID
	s.Awaiting = true
}

// Receive stores the evaluation reply until the parked request resumes.
func (s *Session) Receive(ev evaluation.Event) {
	s.Status = StatusReplyReceived
	s.Reply = ev
	s.Awaiting = false
}

// Resume consumes the cached reply and returns to in_progress.
func (s *Session) Resume() evaluation.Event {
	ev := s.Reply
	s.Reply = nil
	s.Status = StatusInProgress
	return ev
}

// IncrementTries counts one consumed guess and returns the new total.
func (s *Session) IncrementTries() uint8 {
	s.Tries++
	return s.Tries
}

// Finish ends the game with outcome.
func (s *Session) Finish(outcome Outcome) {
	s.Status = StatusGameOver
	s.Outcome = outcome
	s.Reply = nil
	s.Awaiting = false
}
