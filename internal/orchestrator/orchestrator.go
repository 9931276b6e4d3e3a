// internal/orchestrator/orchestrator.go
//
// Game-session orchestrator: mediates a guessing game between players and a separate
// word-evaluation service.
// Responsibilities:
//   - StartGame: ask the evaluation service for a target, arm the game timeout, park the caller.
//   - CheckWord: validate the guess, forward it for scoring, park the caller; once the
//     reply is in, count the try and decide win / lose / continue.
//   - CheckGameStatus: self-addressed timeout that forces a loss on a stalled game.
//   - HandleReply: correlate evaluation replies to sessions and wake the parked caller.
//
// Notes:
//   - A parked caller re-executes with the same message when woken, and finds its result
//     cached in the session (status reply_received).
//   - Session status is the only lock: every entry point checks it before mutating.
//   - Every outbound send happens before the session is saved, so a failed send leaves
//     the stored session untouched.

package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/evaluation"
	"github.com/robalobadob/wordle-session/internal/session"
)

const (
	// TriesLimit is the number of guesses in one game.
	TriesLimit = 5

	// DefaultTimeoutBlocks is the game duration, in host blocks, before a forced loss.
	DefaultTimeoutBlocks = 200
)

// Precedence decides how a final-try guess that is also a full match resolves.
type Precedence int

const (
	// LimitFirst checks the tries limit before the win, so a winning fifth guess loses.
	LimitFirst Precedence = iota
	// WinFirst lets a full match win even on the final try.
	WinFirst
)

// ErrUnexpectedReply is returned for evaluation replies that carry an unknown payload.
var ErrUnexpectedReply = errors.New("orchestrator: unexpected evaluation reply")

// Init is the initialization input of an orchestrator.
type Init struct {
	EvaluatorID actor.ID
}

// Validate checks the evaluator identity.
func (i Init) Validate() error {
	if i.EvaluatorID.IsZero() {
		return ErrInvalidEvaluatorID
	}
	return nil
}

// State is a snapshot of the orchestrator for the state query.
type State struct {
	EvaluatorID actor.ID
	Sessions    []session.Entry
}

// Orchestrator is the root object owning the evaluator identity and all sessions.
type Orchestrator struct {
	evaluatorID   actor.ID
	sessions      session.Store
	timeoutBlocks uint64
	precedence    Precedence
	dictionary    func(string) bool
	hooks         MultiHooks
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithStore replaces the default in-memory session store.
func WithStore(s session.Store) Option { return func(o *Orchestrator) { o.sessions = s } }

// WithTimeoutBlocks sets the delay of the game timeout check.
func WithTimeoutBlocks(n uint64) Option { return func(o *Orchestrator) { o.timeoutBlocks = n } }

// WithPrecedence sets how a winning final try resolves.
func WithPrecedence(p Precedence) Option { return func(o *Orchestrator) { o.precedence = p } }

// WithDictionary rejects well-formed guesses for which allowed returns false.
func WithDictionary(allowed func(string) bool) Option {
	return func(o *Orchestrator) { o.dictionary = allowed }
}

// WithHooks installs observers of game transitions.
func WithHooks(h ...Hooks) Option {
	return func(o *Orchestrator) { o.hooks = append(o.hooks, h...) }
}

// New builds an orchestrator. It fails when the evaluator identity is empty.
func New(init Init, opts ...Option) (*Orchestrator, error) {
	if err := init.Validate(); err != nil {
		return nil, err
	}
	o := &Orchestrator{
		evaluatorID:   init.EvaluatorID,
		sessions:      session.NewMemoryStore(),
		timeoutBlocks: DefaultTimeoutBlocks,
		precedence:    LimitFirst,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// EvaluatorID returns the evaluation service identity.
func (o *Orchestrator) EvaluatorID() actor.ID { return o.evaluatorID }

// State returns the evaluator identity and every player's session.
func (o *Orchestrator) State(ctx context.Context) (State, error) {
	entries, err := o.sessions.List(ctx)
	if err != nil {
		return State{}, err
	}
	return State{EvaluatorID: o.evaluatorID, Sessions: entries}, nil
}

// Handle dispatches player actions and the self-addressed timeout check.
func (o *Orchestrator) Handle(ctx *actor.Context) error {
	switch a := ctx.Message().Payload.(type) {
	case StartGame:
		return o.startGame(ctx)
	case CheckWord:
		return o.checkWord(ctx, a.Word)
	case CheckGameStatus:
		return o.checkGameStatus(ctx, a)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAction, a)
	}
}

func (o *Orchestrator) startGame(ctx *actor.Context) error {
	player := ctx.Source()
	s, err := o.load(ctx, player)
	if err != nil {
		return err
	}

	switch {
	case s.HasReply():
		// Only the start acknowledgement may be handed out here; a cached guess
		// result belongs to a CheckWord caller.
		if _, ok := s.Reply.(evaluation.GameStarted); !ok {
			return ErrAlreadyInGame
		}
		if err := ctx.Reply(eventFor(s.Reply)); err != nil {
			return err
		}
		s.Resume()
		if err := o.sessions.Save(ctx, player, s); err != nil {
			return err
		}
		log.Info().Str("player", string(player)).Str("session", string(s.SessionID)).Msg("game started")
		return nil

	case s.CanStartNewGame():
		evalID, err := ctx.Send(o.evaluatorID, evaluation.StartGame{User: player})
		if err != nil {
			return fmt.Errorf("send start to evaluator: %w", err)
		}
		timeout := CheckGameStatus{User: player, SessionID: ctx.MessageID()}
		if _, err := ctx.SendDelayed(ctx.ProgramID(), timeout, o.timeoutBlocks); err != nil {
			return fmt.Errorf("schedule timeout: %w", err)
		}
		s.Begin(ctx.MessageID(), evalID)
		if err := o.sessions.Save(ctx, player, s); err != nil {
			return err
		}
		ctx.Wait()
		o.hooks.GameStarted(ctx, player, s.SessionID)
		log.Debug().Str("player", string(player)).Str("msg_id", string(ctx.MessageID())).Msg("start forwarded")
		return nil

	default:
		return ErrAlreadyInGame
	}
}

func (o *Orchestrator) checkWord(ctx *actor.Context, word string) error {
	if err := ValidateWord(word); err != nil {
		return err
	}
	if o.dictionary != nil && !o.dictionary(word) {
		return fmt.Errorf("%w: not in word list", ErrInvalidWord)
	}

	player := ctx.Source()
	s, err := o.load(ctx, player)
	if err != nil {
		return err
	}

	switch {
	case s.HasReply():
		checked, ok := s.Reply.(evaluation.WordChecked)
		if !ok {
			return ErrStartPending
		}
		return o.resolveGuess(ctx, player, s, checked)

	case s.IsInProgress():
		if s.Awaiting {
			return ErrEvaluationPending
		}
		evalID, err := ctx.Send(o.evaluatorID, evaluation.CheckWord{User: player, Word: word})
		if err != nil {
			return fmt.Errorf("send word to evaluator: %w", err)
		}
		s.Await(ctx.MessageID(), evalID)
		if err := o.sessions.Save(ctx, player, s); err != nil {
			return err
		}
		ctx.Wait()
		log.Debug().Str("player", string(player)).Str("msg_id", string(ctx.MessageID())).Msg("word forwarded")
		return nil

	default:
		return ErrNotInGame
	}
}

// resolveGuess consumes a cached WordChecked reply for the resumed caller.
func (o *Orchestrator) resolveGuess(ctx *actor.Context, player actor.ID, s session.Session, checked evaluation.WordChecked) error {
	tries := s.IncrementTries()
	limit := tries >= TriesLimit
	won := checked.Guessed()

	var r *Result
	switch {
	case won && (o.precedence == WinFirst || !limit):
		r = &Result{Outcome: session.OutcomeWin, Reason: ReasonGuessed}
	case limit:
		r = &Result{Outcome: session.OutcomeLose, Reason: ReasonTriesExhausted}
	}

	if r == nil {
		if err := ctx.Reply(eventFor(s.Resume())); err != nil {
			return err
		}
	} else {
		if err := ctx.Reply(GameOver{Outcome: r.Outcome}); err != nil {
			return err
		}
		s.Finish(r.Outcome)
	}
	if err := o.sessions.Save(ctx, player, s); err != nil {
		return err
	}

	o.hooks.GuessChecked(ctx, player, tries)
	if r != nil {
		r.SessionID, r.Tries = s.SessionID, tries
		o.hooks.GameFinished(ctx, player, *r)
		log.Info().
			Str("player", string(player)).
			Str("session", string(s.SessionID)).
			Str("outcome", string(r.Outcome)).
			Uint8("tries", tries).
			Msg("game over")
	}
	return nil
}

func (o *Orchestrator) checkGameStatus(ctx *actor.Context, a CheckGameStatus) error {
	if ctx.Source() != ctx.ProgramID() {
		log.Warn().Str("source", string(ctx.Source())).Msg("ignoring timeout check from foreign sender")
		return nil
	}
	s, err := o.sessions.Get(ctx, a.User)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.SessionID != a.SessionID || s.IsGameOver() {
		log.Debug().Str("player", string(a.User)).Str("session", string(a.SessionID)).Msg("stale timeout")
		return nil
	}

	if _, err := ctx.Send(a.User, GameOver{Outcome: session.OutcomeLose}); err != nil {
		return fmt.Errorf("notify player: %w", err)
	}
	// The evaluation never answered: the parked caller would wait forever.
	if s.Awaiting {
		ctx.Forget(s.OriginalRequestID)
	}
	s.Finish(session.OutcomeLose)
	if err := o.sessions.Save(ctx, a.User, s); err != nil {
		return err
	}
	o.hooks.GameFinished(ctx, a.User, Result{
		SessionID: s.SessionID,
		Outcome:   session.OutcomeLose,
		Reason:    ReasonTimeout,
		Tries:     s.Tries,
	})
	log.Info().Str("player", string(a.User)).Str("session", string(s.SessionID)).Msg("game timed out")
	return nil
}

// HandleReply correlates an evaluation reply with its session and wakes the parked caller.
// Stale, duplicate and foreign replies are dropped.
func (o *Orchestrator) HandleReply(ctx *actor.Context) error {
	msg := ctx.Message()
	if msg.Source != o.evaluatorID {
		log.Debug().Str("source", string(msg.Source)).Msg("reply from unknown source")
		return nil
	}
	if msg.Err != nil {
		log.Warn().Err(msg.Err).Str("reply_to", string(msg.ReplyTo)).Msg("evaluation request failed")
		return nil
	}
	ev, ok := msg.Payload.(evaluation.Event)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnexpectedReply, msg.Payload)
	}

	player := ev.Player()
	s, err := o.sessions.Get(ctx, player)
	if errors.Is(err, session.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if msg.ReplyTo != s.OutstandingEvaluationID || !s.AwaitingReply() {
		log.Debug().Str("player", string(player)).Str("reply_to", string(msg.ReplyTo)).Msg("stale reply")
		return nil
	}

	if err := ctx.Wake(s.OriginalRequestID); err != nil {
		return err
	}
	s.Receive(ev)
	return o.sessions.Save(ctx, player, s)
}

// load returns the player's session, or a fresh Init session when none exists.
func (o *Orchestrator) load(ctx context.Context, player actor.ID) (session.Session, error) {
	s, err := o.sessions.Get(ctx, player)
	if errors.Is(err, session.ErrNotFound) {
		return session.New(), nil
	}
	return s, err
}
