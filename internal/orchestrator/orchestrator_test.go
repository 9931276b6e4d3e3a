package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/evaluation"
	"github.com/robalobadob/wordle-session/internal/session"
)

const (
	gameSessionID actor.ID = "game-session"
	wordleID      actor.ID = "wordle"
	alice         actor.ID = "alice"
	bob           actor.ID = "bob"
)

// newGame hosts the orchestrator next to an in-process evaluator whose target is "horse".
func newGame(t *testing.T, opts ...Option) (*actor.Host, *Orchestrator) {
	t.Helper()
	h, o := newRemoteGame(t, opts...)
	require.NoError(t, h.Register(wordleID, evaluation.NewEvaluator(evaluation.FixedPicker("horse"))))
	return h, o
}

// newRemoteGame hosts only the orchestrator; requests to the evaluator land in the
// test's hands and replies are injected with Host.SendReply.
func newRemoteGame(t *testing.T, opts ...Option) (*actor.Host, *Orchestrator) {
	t.Helper()
	h := actor.NewHost()
	o, err := New(Init{EvaluatorID: wordleID}, opts...)
	require.NoError(t, err)
	require.NoError(t, h.Register(gameSessionID, o))
	return h, o
}

func sessionOf(t *testing.T, o *Orchestrator, player actor.ID) session.Session {
	t.Helper()
	s, err := o.sessions.Get(context.Background(), player)
	require.NoError(t, err)
	return s
}

// awaitingReply reports sessionOf(player).AwaitingReply().
func awaitingReply(t *testing.T, o *Orchestrator, player actor.ID) bool {
	t.Helper()
	s := sessionOf(t, o, player)
	return s.AwaitingReply()
}

// evaluatorRequest returns the request the orchestrator sent to the evaluator during res.
func evaluatorRequest(t *testing.T, res actor.Result) actor.Message {
	t.Helper()
	for _, m := range res.Log {
		if m.Dest == wordleID {
			return m
		}
	}
	require.FailNow(t, "no evaluator request in log")
	return actor.Message{}
}

func startGame(t *testing.T, h *actor.Host, player actor.ID) actor.Result {
	t.Helper()
	res := h.Send(player, gameSessionID, StartGame{})
	require.False(t, res.Failed, "start game: %v", res.Err)
	return res
}

func TestNew_RejectsEmptyEvaluator(t *testing.T) {
	_, err := New(Init{})
	assert.ErrorIs(t, err, ErrInvalidEvaluatorID)
}

func TestBasicGameFlow(t *testing.T) {
	h, o := newGame(t)

	res := startGame(t, h, alice)
	assert.True(t, res.Contains(alice, StartSuccess{}))
	s := sessionOf(t, o, alice)
	assert.Equal(t, session.StatusInProgress, s.Status)
	assert.Equal(t, res.MessageID, s.SessionID)

	res = h.Send(alice, gameSessionID, CheckWord{Word: "ab@cd"})
	assert.True(t, res.Failed)
	assert.ErrorIs(t, res.Err, ErrInvalidWord)

	res = h.Send(alice, gameSessionID, CheckWord{Word: "horse"})
	require.False(t, res.Failed)
	reply, ok := res.ReplyTo(res.MessageID)
	require.True(t, ok)
	assert.Equal(t, GameOver{Outcome: session.OutcomeWin}, reply.Payload)

	s = sessionOf(t, o, alice)
	assert.Equal(t, session.StatusGameOver, s.Status)
	assert.Equal(t, session.OutcomeWin, s.Outcome)
	assert.Equal(t, uint8(1), s.Tries)
}

func TestInvalidWordsDoNotConsumeTries(t *testing.T) {
	h, o := newGame(t)
	startGame(t, h, alice)

	for _, w := range []string{"ab@cd", "abcd", "abcdef", "HORSE", ""} {
		res := h.Send(alice, gameSessionID, CheckWord{Word: w})
		assert.True(t, res.Failed, w)
		assert.ErrorIs(t, res.Err, ErrInvalidWord, w)
	}

	s := sessionOf(t, o, alice)
	assert.Equal(t, uint8(0), s.Tries)
	assert.Equal(t, session.StatusInProgress, s.Status)
	assert.False(t, s.Awaiting)

	res := h.Send(alice, gameSessionID, CheckWord{Word: "shore"})
	require.False(t, res.Failed)
	assert.True(t, res.Contains(alice, CheckWordResult{
		CorrectPositions: []uint8{4},
		ContainedInWord:  []uint8{0, 1, 2, 3},
	}))
	assert.Equal(t, uint8(1), sessionOf(t, o, alice).Tries)
}

func TestFiveMissesLose(t *testing.T) {
	h, o := newGame(t)
	startGame(t, h, alice)

	guesses := []string{"table", "chair", "mouse", "phone", "plank"}
	for i, w := range guesses {
		res := h.Send(alice, gameSessionID, CheckWord{Word: w})
		require.False(t, res.Failed, w)
		reply, ok := res.ReplyTo(res.MessageID)
		require.True(t, ok)

		s := sessionOf(t, o, alice)
		assert.Equal(t, uint8(i+1), s.Tries)
		if i < len(guesses)-1 {
			assert.IsType(t, CheckWordResult{}, reply.Payload)
			assert.Equal(t, session.StatusInProgress, s.Status)
		} else {
			assert.Equal(t, GameOver{Outcome: session.OutcomeLose}, reply.Payload)
			assert.Equal(t, session.StatusGameOver, s.Status)
		}
	}

	res := h.Send(alice, gameSessionID, CheckWord{Word: "horse"})
	assert.ErrorIs(t, res.Err, ErrNotInGame)
	assert.Equal(t, uint8(TriesLimit), sessionOf(t, o, alice).Tries)
}

func TestWinningFinalTry(t *testing.T) {
	tests := []struct {
		name       string
		precedence Precedence
		want       session.Outcome
	}{
		{"limit checked first", LimitFirst, session.OutcomeLose},
		{"win checked first", WinFirst, session.OutcomeWin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, o := newGame(t, WithPrecedence(tt.precedence))
			startGame(t, h, alice)

			var last actor.Result
			for _, w := range []string{"table", "chair", "mouse", "phone", "horse"} {
				last = h.Send(alice, gameSessionID, CheckWord{Word: w})
				require.False(t, last.Failed, w)
			}
			assert.True(t, last.Contains(alice, GameOver{Outcome: tt.want}))
			s := sessionOf(t, o, alice)
			assert.Equal(t, tt.want, s.Outcome)
			assert.Equal(t, uint8(TriesLimit), s.Tries)
		})
	}
}

func TestGameTimeout(t *testing.T) {
	h, o := newGame(t)
	startGame(t, h, alice)

	assert.Empty(t, h.SpendBlocks(DefaultTimeoutBlocks-1))
	assert.Equal(t, session.StatusInProgress, sessionOf(t, o, alice).Status)

	results := h.SpendBlocks(1)
	require.Len(t, results, 1)
	assert.True(t, results[0].Contains(alice, GameOver{Outcome: session.OutcomeLose}))

	s := sessionOf(t, o, alice)
	assert.Equal(t, session.StatusGameOver, s.Status)
	assert.Equal(t, session.OutcomeLose, s.Outcome)

	// pushed as a notification, not a reply
	box := h.Mailbox(alice)
	require.Len(t, box, 1)
	assert.False(t, box[0].IsReply())
	assert.Equal(t, GameOver{Outcome: session.OutcomeLose}, box[0].Payload)
}

func TestTimeoutWithoutEvaluatorReply(t *testing.T) {
	h, o := newRemoteGame(t, WithTimeoutBlocks(10))
	res := startGame(t, h, alice)
	assert.True(t, h.Waiting(res.MessageID))

	results := h.SpendBlocks(10)
	require.Len(t, results, 1)
	assert.True(t, results[0].Contains(alice, GameOver{Outcome: session.OutcomeLose}))
	assert.Equal(t, session.StatusGameOver, sessionOf(t, o, alice).Status)
	assert.False(t, h.Waiting(res.MessageID), "timed-out caller is released from the waitlist")

	// the late reply is stale now
	req := evaluatorRequest(t, res)
	late := h.SendReply(wordleID, gameSessionID, req.ID, evaluation.GameStarted{User: alice})
	assert.False(t, late.Failed)
	assert.Empty(t, late.Log)
	assert.Equal(t, session.OutcomeLose, sessionOf(t, o, alice).Outcome)
}

func TestStaleTimeoutIsNoop(t *testing.T) {
	h, o := newGame(t)
	startGame(t, h, alice)
	h.SpendBlocks(50)

	res := h.Send(alice, gameSessionID, CheckWord{Word: "horse"})
	require.True(t, res.Contains(alice, GameOver{Outcome: session.OutcomeWin}))

	second := startGame(t, h, alice)
	assert.Equal(t, second.MessageID, sessionOf(t, o, alice).SessionID)

	// first game's timeout fires at block 200 and must not end the second game
	results := h.SpendBlocks(150)
	require.Len(t, results, 1)
	assert.False(t, results[0].Failed)
	assert.Empty(t, results[0].Log)
	assert.Equal(t, session.StatusInProgress, sessionOf(t, o, alice).Status)

	results = h.SpendBlocks(50)
	require.Len(t, results, 1)
	assert.True(t, results[0].Contains(alice, GameOver{Outcome: session.OutcomeLose}))
}

func TestTimeoutAfterGameOverIsNoop(t *testing.T) {
	h, o := newGame(t)
	startGame(t, h, alice)
	h.Send(alice, gameSessionID, CheckWord{Word: "horse"})

	results := h.SpendBlocks(DefaultTimeoutBlocks)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Log)
	assert.Equal(t, session.OutcomeWin, sessionOf(t, o, alice).Outcome)
}

func TestTimeoutCheckFromForeignSenderIgnored(t *testing.T) {
	h, o := newGame(t)
	res := startGame(t, h, alice)

	forged := h.Send(alice, gameSessionID, CheckGameStatus{User: alice, SessionID: res.MessageID})
	assert.False(t, forged.Failed)
	assert.Empty(t, forged.Log)
	assert.Equal(t, session.StatusInProgress, sessionOf(t, o, alice).Status)
}

func TestRestartAfterWin(t *testing.T) {
	h, o := newRemoteGame(t)

	first := startGame(t, h, alice)
	req := evaluatorRequest(t, first)
	assert.Equal(t, evaluation.StartGame{User: alice}, req.Payload)
	require.True(t, h.SendReply(wordleID, gameSessionID, req.ID, evaluation.GameStarted{User: alice}).
		Contains(alice, StartSuccess{}))

	check := h.Send(alice, gameSessionID, CheckWord{Word: "horse"})
	req = evaluatorRequest(t, check)
	assert.Equal(t, evaluation.CheckWord{User: alice, Word: "horse"}, req.Payload)
	won := h.SendReply(wordleID, gameSessionID, req.ID, evaluation.WordChecked{
		User:             alice,
		CorrectPositions: []uint8{0, 1, 2, 3, 4},
		ContainedInWord:  []uint8{},
	})
	reply, ok := won.ReplyTo(check.MessageID)
	require.True(t, ok)
	assert.Equal(t, GameOver{Outcome: session.OutcomeWin}, reply.Payload)

	again := startGame(t, h, alice)
	req = evaluatorRequest(t, again)
	assert.Equal(t, evaluation.StartGame{User: alice}, req.Payload)

	s := sessionOf(t, o, alice)
	assert.Equal(t, uint8(0), s.Tries)
	assert.Equal(t, again.MessageID, s.SessionID)
	assert.Equal(t, req.ID, s.OutstandingEvaluationID)
	assert.Equal(t, session.StatusInProgress, s.Status)
	assert.True(t, s.Awaiting)
}

func TestStartWhileInGameRejected(t *testing.T) {
	t.Run("awaiting the start acknowledgement", func(t *testing.T) {
		h, o := newRemoteGame(t)
		startGame(t, h, alice)
		before := sessionOf(t, o, alice)

		res := h.Send(alice, gameSessionID, StartGame{})
		assert.ErrorIs(t, res.Err, ErrAlreadyInGame)
		assert.Equal(t, before, sessionOf(t, o, alice))
	})

	t.Run("between turns", func(t *testing.T) {
		h, o := newGame(t)
		startGame(t, h, alice)
		h.Send(alice, gameSessionID, CheckWord{Word: "table"})
		before := sessionOf(t, o, alice)

		res := h.Send(alice, gameSessionID, StartGame{})
		assert.ErrorIs(t, res.Err, ErrAlreadyInGame)
		assert.Equal(t, before, sessionOf(t, o, alice))
	})
}

func TestStartWithCachedReply(t *testing.T) {
	store := session.NewMemoryStore()
	h, o := newRemoteGame(t, WithStore(store))
	ctx := context.Background()

	t.Run("cached guess result is not handed to a start", func(t *testing.T) {
		s := session.New()
		s.Begin("start-1", "eval-1")
		s.Receive(evaluation.WordChecked{User: alice, CorrectPositions: []uint8{1}, ContainedInWord: []uint8{}})
		require.NoError(t, store.Save(ctx, alice, s))

		res := h.Send(alice, gameSessionID, StartGame{})
		assert.ErrorIs(t, res.Err, ErrAlreadyInGame)
		assert.Equal(t, s, sessionOf(t, o, alice))
	})

	t.Run("cached start acknowledgement is handed to a retried start", func(t *testing.T) {
		s := session.New()
		s.Begin("start-2", "eval-2")
		s.Receive(evaluation.GameStarted{User: bob})
		require.NoError(t, store.Save(ctx, bob, s))

		res := h.Send(bob, gameSessionID, StartGame{})
		require.False(t, res.Failed)
		reply, ok := res.ReplyTo(res.MessageID)
		require.True(t, ok)
		assert.Equal(t, StartSuccess{}, reply.Payload)
		// no new evaluation request
		assert.Len(t, res.Log, 1)

		got := sessionOf(t, o, bob)
		assert.Equal(t, session.StatusInProgress, got.Status)
		assert.Equal(t, actor.MessageID("start-2"), got.SessionID)
	})

	t.Run("guess while the start acknowledgement is unconsumed", func(t *testing.T) {
		s := session.New()
		s.Begin("start-3", "eval-3")
		s.Receive(evaluation.GameStarted{User: "carol"})
		require.NoError(t, store.Save(ctx, "carol", s))

		res := h.Send("carol", gameSessionID, CheckWord{Word: "horse"})
		assert.ErrorIs(t, res.Err, ErrStartPending)
		assert.Equal(t, s, sessionOf(t, o, "carol"))
	})
}

func TestCheckWordStateGates(t *testing.T) {
	h, o := newRemoteGame(t)

	res := h.Send(alice, gameSessionID, CheckWord{Word: "horse"})
	assert.ErrorIs(t, res.Err, ErrNotInGame)
	_, err := o.sessions.Get(context.Background(), alice)
	assert.ErrorIs(t, err, session.ErrNotFound)

	start := startGame(t, h, alice)
	h.SendReply(wordleID, gameSessionID, evaluatorRequest(t, start).ID, evaluation.GameStarted{User: alice})

	first := h.Send(alice, gameSessionID, CheckWord{Word: "table"})
	require.False(t, first.Failed)
	before := sessionOf(t, o, alice)

	second := h.Send(alice, gameSessionID, CheckWord{Word: "chair"})
	assert.ErrorIs(t, second.Err, ErrEvaluationPending)
	assert.Equal(t, before, sessionOf(t, o, alice))
}

func TestStaleAndDuplicateReplies(t *testing.T) {
	h, o := newRemoteGame(t)
	start := startGame(t, h, alice)
	req := evaluatorRequest(t, start)

	wrong := h.SendReply(wordleID, gameSessionID, "not-the-request", evaluation.GameStarted{User: alice})
	assert.False(t, wrong.Failed)
	assert.Empty(t, wrong.Log)
	assert.True(t, awaitingReply(t, o, alice))

	foreign := h.SendReply("mallory", gameSessionID, req.ID, evaluation.GameStarted{User: alice})
	assert.Empty(t, foreign.Log)
	assert.True(t, awaitingReply(t, o, alice))

	ok := h.SendReply(wordleID, gameSessionID, req.ID, evaluation.GameStarted{User: alice})
	assert.True(t, ok.Contains(alice, StartSuccess{}))

	dup := h.SendReply(wordleID, gameSessionID, req.ID, evaluation.GameStarted{User: alice})
	assert.False(t, dup.Failed)
	assert.Empty(t, dup.Log)
	assert.Equal(t, session.StatusInProgress, sessionOf(t, o, alice).Status)

	unknown := h.SendReply(wordleID, gameSessionID, req.ID, evaluation.GameStarted{User: "nobody"})
	assert.False(t, unknown.Failed)

	bad := h.SendReply(wordleID, gameSessionID, req.ID, "not an event")
	assert.ErrorIs(t, bad.Err, ErrUnexpectedReply)
}

func TestRepliesAreIsolatedPerPlayer(t *testing.T) {
	h, o := newRemoteGame(t)
	aliceStart := startGame(t, h, alice)
	bobStart := startGame(t, h, bob)
	aliceReq := evaluatorRequest(t, aliceStart)
	bobReq := evaluatorRequest(t, bobStart)

	// bob's event correlated with alice's request id matches neither session
	crossed := h.SendReply(wordleID, gameSessionID, aliceReq.ID, evaluation.GameStarted{User: bob})
	assert.Empty(t, crossed.Log)
	assert.True(t, awaitingReply(t, o, alice))
	assert.True(t, awaitingReply(t, o, bob))

	// out-of-order delivery across sessions
	res := h.SendReply(wordleID, gameSessionID, bobReq.ID, evaluation.GameStarted{User: bob})
	reply, ok := res.ReplyTo(bobStart.MessageID)
	require.True(t, ok)
	assert.Equal(t, bob, reply.Dest)
	assert.True(t, awaitingReply(t, o, alice))

	res = h.SendReply(wordleID, gameSessionID, aliceReq.ID, evaluation.GameStarted{User: alice})
	reply, ok = res.ReplyTo(aliceStart.MessageID)
	require.True(t, ok)
	assert.Equal(t, alice, reply.Dest)
}

type failingEvaluator struct{}

func (failingEvaluator) Handle(*actor.Context) error      { return errors.New("dictionary offline") }
func (failingEvaluator) HandleReply(*actor.Context) error { return nil }

func TestEvaluatorFailureResolvedByTimeout(t *testing.T) {
	h, o := newRemoteGame(t, WithTimeoutBlocks(5))
	require.NoError(t, h.Register(wordleID, failingEvaluator{}))

	res := startGame(t, h, alice)
	assert.Empty(t, res.Log)
	assert.True(t, awaitingReply(t, o, alice))

	results := h.SpendBlocks(5)
	require.Len(t, results, 1)
	assert.True(t, results[0].Contains(alice, GameOver{Outcome: session.OutcomeLose}))
	assert.False(t, h.Waiting(res.MessageID))
}

func TestUnknownAction(t *testing.T) {
	h, _ := newGame(t)
	res := h.Send(alice, gameSessionID, "dance")
	assert.ErrorIs(t, res.Err, ErrUnknownAction)
}

func TestDictionary(t *testing.T) {
	allowed := map[string]bool{"horse": true}
	h, o := newGame(t, WithDictionary(func(w string) bool { return allowed[w] }))
	startGame(t, h, alice)

	res := h.Send(alice, gameSessionID, CheckWord{Word: "qwert"})
	assert.ErrorIs(t, res.Err, ErrInvalidWord)
	assert.Equal(t, uint8(0), sessionOf(t, o, alice).Tries)

	res = h.Send(alice, gameSessionID, CheckWord{Word: "horse"})
	assert.True(t, res.Contains(alice, GameOver{Outcome: session.OutcomeWin}))
}

func TestState(t *testing.T) {
	h, o := newGame(t)
	startGame(t, h, bob)
	startGame(t, h, alice)

	st, err := o.State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, wordleID, st.EvaluatorID)
	require.Len(t, st.Sessions, 2)
	assert.Equal(t, alice, st.Sessions[0].Player)
	assert.Equal(t, bob, st.Sessions[1].Player)
}

type recordingHooks struct {
	started  []actor.ID
	checked  []uint8
	finished []Result
}

func (r *recordingHooks) GameStarted(_ context.Context, p actor.ID, _ actor.MessageID) {
	r.started = append(r.started, p)
}
func (r *recordingHooks) GuessChecked(_ context.Context, _ actor.ID, tries uint8) {
	r.checked = append(r.checked, tries)
}
func (r *recordingHooks) GameFinished(_ context.Context, _ actor.ID, res Result) {
	r.finished = append(r.finished, res)
}

func TestHooks(t *testing.T) {
	rec := &recordingHooks{}
	h, _ := newGame(t, WithHooks(rec))

	start := startGame(t, h, alice)
	h.Send(alice, gameSessionID, CheckWord{Word: "table"})
	h.Send(alice, gameSessionID, CheckWord{Word: "horse"})

	startGame(t, h, bob)
	h.SpendBlocks(DefaultTimeoutBlocks)

	assert.Equal(t, []actor.ID{alice, bob}, rec.started)
	assert.Equal(t, []uint8{1, 2}, rec.checked)
	require.Len(t, rec.finished, 2)
	assert.Equal(t, Result{SessionID: start.MessageID, Outcome: session.OutcomeWin, Reason: ReasonGuessed, Tries: 2}, rec.finished[0])
	assert.Equal(t, session.OutcomeLose, rec.finished[1].Outcome)
	assert.Equal(t, ReasonTimeout, rec.finished[1].Reason)
}

func TestValidateWord(t *testing.T) {
	assert.NoError(t, ValidateWord("horse"))
	assert.ErrorIs(t, ValidateWord("ab@cd"), ErrInvalidWord)
	assert.ErrorIs(t, ValidateWord("abcd"), ErrInvalidWord)
	assert.ErrorIs(t, ValidateWord("abcdef"), ErrInvalidWord)
}

func TestTimeoutReleasesParkedGuess(t *testing.T) {
	h, o := newRemoteGame(t, WithTimeoutBlocks(10))
	res := startGame(t, h, alice)
	req := evaluatorRequest(t, res)
	h.SendReply(wordleID, gameSessionID, req.ID, evaluation.GameStarted{User: alice})

	guess := h.Send(alice, gameSessionID, CheckWord{Word: "crane"})
	require.False(t, guess.Failed)
	require.True(t, h.Waiting(guess.MessageID))

	h.SpendBlocks(10)
	assert.False(t, h.Waiting(guess.MessageID))
	assert.Equal(t, session.StatusGameOver, sessionOf(t, o, alice).Status)
}
