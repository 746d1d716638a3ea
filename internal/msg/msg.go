// Package msg carries messages between simulation actors: a broadcast
// fan-out for hub-wide signals and bounded mailboxes for point-to-point
// delivery.
package msg

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// Delivery errors.
var (
	ErrMailboxFull  = errors.New("msg: mailbox full")
	ErrReceiverGone = errors.New("msg: receiver gone")
)

// Publisher is implemented by anything actors can subscribe to.
type Publisher[T any] interface {
	Subscribe(pid uuid.UUID) <-chan Msg[T]
	Unsubscribe(pid uuid.UUID)
}

// Msg is an envelope tagging a payload with its sender's PID.
type Msg[T any] struct {
	Sender  uuid.UUID
	Payload T
}

// New wraps payload in an envelope from sender.
func New[T any](sender uuid.UUID, payload T) Msg[T] {
	return Msg[T]{Sender: sender, Payload: payload}
}

// Broadcaster delivers every published message to every subscriber.
// Delivery never blocks: a subscriber whose buffer is full loses its
// copy and nobody else is affected.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]chan Msg[T]
	buffer int
	closed bool
}

// NewBroadcaster returns a broadcaster whose subscriber channels hold
// buffer messages each.
func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	if buffer < 1 {
		buffer = 1
	}
	return &Broadcaster[T]{
		subs:   make(map[uuid.UUID]chan Msg[T]),
		buffer: buffer,
	}
}

// Subscribe registers pid and returns its receive channel. Subscribing
// twice returns the same channel. After Close the channel is already
// closed.
func (b *Broadcaster[T]) Subscribe(pid uuid.UUID) <-chan Msg[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[pid]; ok {
		return ch
	}
	ch := make(chan Msg[T], b.buffer)
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[pid] = ch
	return ch
}

// Unsubscribe removes pid and closes its channel.
func (b *Broadcaster[T]) Unsubscribe(pid uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[pid]; ok {
		delete(b.subs, pid)
		close(ch)
	}
}

// Publish sends payload to every subscriber and returns the PIDs that
// could not take it.
func (b *Broadcaster[T]) Publish(sender uuid.UUID, payload T) []uuid.UUID {
	m := New(sender, payload)
	b.mu.RLock()
	defer b.mu.RUnlock()
	var failed []uuid.UUID
	for pid, ch := range b.subs {
		select {
		case ch <- m:
		default:
			failed = append(failed, pid)
		}
	}
	return failed
}

// Subscribers returns the number of live subscriptions.
func (b *Broadcaster[T]) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close closes every subscriber channel. Later publishes reach no one.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for pid, ch := range b.subs {
		close(ch)
		delete(b.subs, pid)
	}
}

// Mailbox is a bounded FIFO addressed to a single receiver.
type Mailbox[T any] struct {
	mu     sync.RWMutex
	owner  uuid.UUID
	ch     chan Msg[T]
	closed bool
}

// NewMailbox returns a mailbox for owner holding up to size messages.
func NewMailbox[T any](owner uuid.UUID, size int) *Mailbox[T] {
	if size < 1 {
		size = 1
	}
	return &Mailbox[T]{owner: owner, ch: make(chan Msg[T], size)}
}

// Owner is the receiver's PID.
func (m *Mailbox[T]) Owner() uuid.UUID { return m.owner }

// Send enqueues payload without blocking.
func (m *Mailbox[T]) Send(sender uuid.UUID, payload T) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrReceiverGone
	}
	select {
	case m.ch <- New(sender, payload):
		return nil
	default:
		return ErrMailboxFull
	}
}

// C is the receive side.
func (m *Mailbox[T]) C() <-chan Msg[T] { return m.ch }

// Len is the number of queued messages.
func (m *Mailbox[T]) Len() int { return len(m.ch) }

// Close marks the receiver gone. Queued messages can still be drained.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.closed {
		m.closed = true
		close(m.ch)
	}
}
