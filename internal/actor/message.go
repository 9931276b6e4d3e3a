// internal/actor/message.go
//
// Message and identity types shared by every program running on a Host.
// Defines:
//   - ID:        identity of an actor (program or external player/service).
//   - MessageID: unique identifier of one message, used for replies and wakes.
//   - Message:   an envelope carrying an arbitrary Go payload.
//   - Result:    what a caller observes after the host has run a message to idle.

package actor

import (
	"errors"
	"reflect"

	"github.com/google/uuid"
)

// ID identifies an actor. The empty ID is never a valid destination.
type ID string

// IsZero reports whether id is the empty identity.
func (id ID) IsZero() bool { return id == "" }

// MessageID identifies a single message on the host.
type MessageID string

// newMessageID returns a fresh random message identifier.
func newMessageID() MessageID { return MessageID(uuid.NewString()) }

// Message is the unit of delivery between actors.
type Message struct {
	ID      MessageID
	Source  ID
	Dest    ID
	Payload any
	ReplyTo MessageID // set on replies only
	Err     error     // set on error replies produced by a failed execution
}

// IsReply reports whether m answers an earlier message.
func (m Message) IsReply() bool { return m.ReplyTo != "" }

var (
	ErrInvalidDestination = errors.New("actor: invalid destination")
	ErrQueueFull          = errors.New("actor: message queue is full")
	ErrAlreadyReplied     = errors.New("actor: message already replied")
	ErrNoReplyTarget      = errors.New("actor: replies cannot be answered")
	ErrNotWaiting         = errors.New("actor: message is not in the waitlist")
	ErrDuplicateProgram   = errors.New("actor: program already registered")
)

// Result is returned by Host.Send, Host.SendReply and Host.SpendBlocks.
type Result struct {
	MessageID MessageID // the message that started this run
	Failed    bool      // an execution of MessageID returned an error
	Err       error     // the last execution error of MessageID
	Log       []Message // messages delivered to external actors during the run
}

// ReplyTo returns the reply delivered for id during this run, if any.
func (r Result) ReplyTo(id MessageID) (Message, bool) {
	for _, m := range r.Log {
		if m.ReplyTo == id {
			return m, true
		}
	}
	return Message{}, false
}

// Contains reports whether a message with the given destination and payload was delivered.
func (r Result) Contains(dest ID, payload any) bool {
	for _, m := range r.Log {
		if m.Dest == dest && reflect.DeepEqual(m.Payload, payload) {
			return true
		}
	}
	return false
}
