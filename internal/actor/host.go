// internal/actor/host.go
//
// Cooperative, single-threaded message host.
// Responsibilities:
//   - Route messages to registered programs, one at a time, each to completion.
//   - Deliver messages addressed to unregistered (external) actors into a per-actor mailbox.
//   - Keep the waitlist of parked messages and re-queue them on Wake.
//   - Hold delayed messages until the block height reaches their due block.
//
// Notes:
//   - Every public method takes the host lock, so HTTP handlers and the block ticker
//     can share one host without racing program state.
//   - A failed execution leaves no trace besides the error reply to its sender.

package actor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultCapacity = 1024

type scheduled struct {
	due uint64
	msg Message
}

// Host runs programs and carries messages between actors.
type Host struct {
	mu        sync.Mutex
	programs  map[ID]Program
	queue     []Message
	waitlist  map[MessageID]Message
	delayed   []scheduled
	mailboxes map[ID][]Message
	height    uint64
	capacity  int
}

// Option configures a Host.
type Option func(*Host)

// WithCapacity bounds the number of queued messages.
func WithCapacity(n int) Option {
	return func(h *Host) {
		if n > 0 {
			h.capacity = n
		}
	}
}

// NewHost constructs an empty host at block height 0.
func NewHost(opts ...Option) *Host {
	h := &Host{
		programs:  make(map[ID]Program),
		waitlist:  make(map[MessageID]Message),
		mailboxes: make(map[ID][]Message),
		capacity:  defaultCapacity,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Register installs p under id.
func (h *Host) Register(id ID, p Program) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id.IsZero() {
		return ErrInvalidDestination
	}
	if _, ok := h.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateProgram, id)
	}
	h.programs[id] = p
	return nil
}

// Send delivers payload from an external actor to dest and runs the host until idle.
func (h *Host) Send(from, to ID, payload any) Result {
	return h.inject(Message{ID: newMessageID(), Source: from, Dest: to, Payload: payload})
}

// SendReply delivers a reply from an external actor, e.g. an evaluation service living
// outside the host answering a request it found in its mailbox.
func (h *Host) SendReply(from, to ID, replyTo MessageID, payload any) Result {
	return h.inject(Message{ID: newMessageID(), Source: from, Dest: to, Payload: payload, ReplyTo: replyTo})
}

func (h *Host) inject(m Message) Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	res := Result{MessageID: m.ID}
	if m.Dest.IsZero() {
		res.Failed, res.Err = true, ErrInvalidDestination
		return res
	}
	if len(h.queue) >= h.capacity {
		res.Failed, res.Err = true, ErrQueueFull
		return res
	}
	h.queue = append(h.queue, m)
	h.runUntilIdle(&res)
	return res
}

// SpendBlocks advances the block height n times, delivering delayed messages as they fall due.
// One Result is returned per delivered delayed message.
func (h *Host) SpendBlocks(n uint64) []Result {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []Result
	for i := uint64(0); i < n; i++ {
		h.height++
		for _, m := range h.takeDue() {
			res := Result{MessageID: m.ID}
			h.queue = append(h.queue, m)
			h.runUntilIdle(&res)
			out = append(out, res)
		}
	}
	return out
}

// Run advances one block per interval until ctx is cancelled.
func (h *Host) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			for _, res := range h.SpendBlocks(1) {
				if res.Failed {
					log.Warn().Err(res.Err).Str("msg_id", string(res.MessageID)).Msg("delayed message failed")
				}
			}
		}
	}
}

// Height returns the current block height.
func (h *Host) Height() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.height
}

// Mailbox drains the unsolicited (non-reply) messages delivered to an external actor.
func (h *Host) Mailbox(id ID) []Message {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.mailboxes[id]
	delete(h.mailboxes, id)
	return out
}

// Waiting reports whether id is parked in the waitlist.
func (h *Host) Waiting(id MessageID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.waitlist[id]
	return ok
}

// Inspect calls fn with the program registered under id while holding the host lock.
func (h *Host) Inspect(id ID, fn func(Program)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	p, ok := h.programs[id]
	if ok {
		fn(p)
	}
	return ok
}

// takeDue removes and returns the delayed messages due at the current height, oldest first.
func (h *Host) takeDue() []Message {
	var due []Message
	kept := h.delayed[:0]
	for _, s := range h.delayed {
		if s.due <= h.height {
			due = append(due, s.msg)
		} else {
			kept = append(kept, s)
		}
	}
	h.delayed = kept
	return due
}

func (h *Host) runUntilIdle(res *Result) {
	for len(h.queue) > 0 {
		m := h.queue[0]
		h.queue = h.queue[1:]
		h.dispatch(m, res)
	}
}

func (h *Host) dispatch(m Message, res *Result) {
	p, ok := h.programs[m.Dest]
	if !ok {
		res.Log = append(res.Log, m)
		if !m.IsReply() {
			h.mailboxes[m.Dest] = append(h.mailboxes[m.Dest], m)
		}
		return
	}

	ctx := &Context{Context: context.Background(), host: h, self: m.Dest, msg: m}
	err := execute(p, ctx)
	if err != nil {
		log.Debug().Err(err).
			Str("program", string(m.Dest)).
			Str("source", string(m.Source)).
			Str("msg_id", string(m.ID)).
			Msg("execution failed")
		if m.ID == res.MessageID {
			res.Failed, res.Err = true, err
		}
		if !m.IsReply() {
			h.queue = append(h.queue, Message{
				ID:      newMessageID(),
				Source:  m.Dest,
				Dest:    m.Source,
				ReplyTo: m.ID,
				Err:     err,
			})
		}
		return
	}
	h.commit(ctx)
}

// execute runs the handler, turning a panic into an execution error.
func execute(p Program, ctx *Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("actor: panic: %v", r)
		}
	}()
	if ctx.msg.IsReply() {
		return p.HandleReply(ctx)
	}
	return p.Handle(ctx)
}

func (h *Host) commit(ctx *Context) {
	h.queue = append(h.queue, ctx.outbox...)
	for _, d := range ctx.delayed {
		h.delayed = append(h.delayed, scheduled{due: h.height + d.delay, msg: d.msg})
	}
	for _, id := range ctx.wakes {
		if m, ok := h.waitlist[id]; ok {
			delete(h.waitlist, id)
			h.queue = append(h.queue, m)
		}
	}
	for _, id := range ctx.forgets {
		delete(h.waitlist, id)
	}
	if ctx.waiting {
		h.waitlist[ctx.msg.ID] = ctx.msg
	}
}
