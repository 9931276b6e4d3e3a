// internal/actor/context.go
//
// Execution context handed to a program for one message.
// Responsibilities:
//   - Expose the current message, its sender and the host's block height.
//   - Buffer sends, delayed sends, the reply, wakes and forgets until the host commits them.
//   - Park the current message (Wait) for re-execution on Wake.

package actor

import (
	"context"
)

// Program is a message handler hosted by a Host.
// Handle receives ordinary messages, HandleReply receives replies to messages the program sent.
// Returning an error aborts the execution: nothing sent through the Context is delivered.
type Program interface {
	Handle(ctx *Context) error
	HandleReply(ctx *Context) error
}

type delayedSend struct {
	msg   Message
	delay uint64
}

// Context is the execution context of one message. It embeds a context.Context so it can be
// handed straight to storage calls.
//
// Outbound effects are buffered and only committed by the host when the handler succeeds.
type Context struct {
	context.Context

	host    *Host
	self    ID
	msg     Message
	outbox  []Message
	delayed []delayedSend
	wakes   []MessageID
	forgets []MessageID
	replied bool
	waiting bool
}

// Message returns the message being executed.
func (c *Context) Message() Message { return c.msg }

// Source is the sender of the current message.
func (c *Context) Source() ID { return c.msg.Source }

// MessageID is the identifier of the current message.
func (c *Context) MessageID() MessageID { return c.msg.ID }

// ProgramID is the identity of the executing program.
func (c *Context) ProgramID() ID { return c.self }

// BlockHeight is the host's current block height.
func (c *Context) BlockHeight() uint64 { return c.host.height }

// Send queues payload for dest and returns the new message's ID.
func (c *Context) Send(dest ID, payload any) (MessageID, error) {
	if err := c.checkCapacity(dest); err != nil {
		return "", err
	}
	m := Message{ID: newMessageID(), Source: c.self, Dest: dest, Payload: payload}
	c.outbox = append(c.outbox, m)
	return m.ID, nil
}

// SendDelayed queues payload for dest, delivered once the host has advanced delay blocks.
func (c *Context) SendDelayed(dest ID, payload any, delay uint64) (MessageID, error) {
	if dest.IsZero() {
		return "", ErrInvalidDestination
	}
	m := Message{ID: newMessageID(), Source: c.self, Dest: dest, Payload: payload}
	c.delayed = append(c.delayed, delayedSend{msg: m, delay: delay})
	return m.ID, nil
}

// Reply answers the current message. A message can be replied to once.
func (c *Context) Reply(payload any) error {
	if c.msg.IsReply() {
		return ErrNoReplyTarget
	}
	if c.replied {
		return ErrAlreadyReplied
	}
	if err := c.checkCapacity(c.msg.Source); err != nil {
		return err
	}
	c.outbox = append(c.outbox, Message{
		ID:      newMessageID(),
		Source:  c.self,
		Dest:    c.msg.Source,
		Payload: payload,
		ReplyTo: c.msg.ID,
	})
	c.replied = true
	return nil
}

// Wait parks the current message once the handler returns successfully.
// The message runs Handle again, unchanged, after someone calls Wake with its ID.
func (c *Context) Wait() { c.waiting = true }

// Wake re-queues a parked message.
func (c *Context) Wake(id MessageID) error {
	if _, ok := c.host.waitlist[id]; !ok {
		return ErrNotWaiting
	}
	c.wakes = append(c.wakes, id)
	return nil
}

// Forget drops a parked message without running it again. Unknown ids are ignored.
func (c *Context) Forget(id MessageID) {
	c.forgets = append(c.forgets, id)
}

func (c *Context) checkCapacity(dest ID) error {
	if dest.IsZero() {
		return ErrInvalidDestination
	}
	if len(c.host.queue)+len(c.outbox)+len(c.wakes) >= c.host.capacity {
		return ErrQueueFull
	}
	return nil
}
