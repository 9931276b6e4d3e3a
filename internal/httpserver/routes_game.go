// internal/httpserver/routes_game.go
//
// Game routes. Each request becomes one message from the player to the orchestrator:
//   - POST /game/start         → StartGame
//   - POST /game/check {guess} → CheckWord
//   - GET  /game/notifications → drains unsolicited events (timeout GameOver)
//   - GET  /state              → orchestrator snapshot

package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle-session/internal/actor"
	"github.com/robalobadob/wordle-session/internal/orchestrator"
)

// event is the wire form of an orchestrator event.
type event struct {
	Type             string `json:"type"`
	MessageID        string `json:"messageId,omitempty"`
	CorrectPositions []int  `json:"correctPositions,omitempty"`
	ContainedInWord  []int  `json:"containedInWord,omitempty"`
	Outcome          string `json:"outcome,omitempty"`
}

type checkReq struct {
	Guess string `json:"guess"`
}

type sessionView struct {
	Player    string `json:"player"`
	SessionID string `json:"sessionId,omitempty"`
	Status    string `json:"status"`
	Tries     uint8  `json:"tries"`
	Awaiting  bool   `json:"awaiting"`
	Outcome   string `json:"outcome,omitempty"`
}

type stateView struct {
	EvaluatorID string        `json:"evaluatorId"`
	Height      uint64        `json:"height"`
	Sessions    []sessionView `json:"sessions"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	player := s.player(w, r)
	s.respond(w, s.Host.Send(player, s.OrchestratorID, orchestrator.StartGame{}))
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	var body checkReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	player := s.player(w, r)
	s.respond(w, s.Host.Send(player, s.OrchestratorID, orchestrator.CheckWord{Word: body.Guess}))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	player := s.player(w, r)
	out := []event{}
	for _, m := range s.Host.Mailbox(player) {
		ev := toEvent(m.Payload)
		ev.MessageID = string(m.ID)
		out = append(out, ev)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	var (
		st  orchestrator.State
		err error
	)
	found := s.Host.Inspect(s.OrchestratorID, func(p actor.Program) {
		o, ok := p.(*orchestrator.Orchestrator)
		if !ok {
			err = errors.New("orchestrator not registered")
			return
		}
		st, err = o.State(r.Context())
	})
	if !found || err != nil {
		log.Warn().Err(err).Bool("found", found).Msg("state query")
		writeError(w, http.StatusInternalServerError, "state_unavailable")
		return
	}

	view := stateView{EvaluatorID: string(st.EvaluatorID), Height: s.Host.Height(), Sessions: []sessionView{}}
	for _, e := range st.Sessions {
		view.Sessions = append(view.Sessions, sessionView{
			Player:    string(e.Player),
			SessionID: string(e.Session.SessionID),
			Status:    string(e.Session.Status),
			Tries:     e.Session.Tries,
			Awaiting:  e.Session.Awaiting,
			Outcome:   string(e.Session.Outcome),
		})
	}
	writeJSON(w, http.StatusOK, view)
}

// respond maps the run result of a player message to an HTTP response.
func (s *Server) respond(w http.ResponseWriter, res actor.Result) {
	if res.Failed {
		writeError(w, statusFor(res.Err), res.Err.Error())
		return
	}
	reply, ok := res.ReplyTo(res.MessageID)
	if !ok {
		writeJSON(w, http.StatusAccepted, event{Type: "pending", MessageID: string(res.MessageID)})
		return
	}
	if reply.Err != nil {
		writeError(w, statusFor(reply.Err), reply.Err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toEvent(reply.Payload))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, orchestrator.ErrInvalidWord):
		return http.StatusBadRequest
	case errors.Is(err, orchestrator.ErrAlreadyInGame),
		errors.Is(err, orchestrator.ErrNotInGame),
		errors.Is(err, orchestrator.ErrEvaluationPending),
		errors.Is(err, orchestrator.ErrStartPending):
		return http.StatusConflict
	case errors.Is(err, actor.ErrQueueFull):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func toEvent(payload any) event {
	switch p := payload.(type) {
	case orchestrator.StartSuccess:
		return event{Type: "start_success"}
	case orchestrator.CheckWordResult:
		return event{
			Type:             "check_word_result",
			CorrectPositions: positions(p.CorrectPositions),
			ContainedInWord:  positions(p.ContainedInWord),
		}
	case orchestrator.GameOver:
		return event{Type: "game_over", Outcome: string(p.Outcome)}
	default:
		return event{Type: "unknown"}
	}
}

// positions widens indexes so they encode as a JSON array rather than base64.
func positions(in []uint8) []int {
	out := make([]int, len(in))
	for i, v := range in {
		out[i] = int(v)
	}
	return out
}
