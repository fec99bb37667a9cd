package cloud

import (
	"context"
	"errors"
	"sync"

	"github.com/hishboy/gocommons/lang"
)

// DefaultMailboxSize bounds the number of calls waiting for the loop.
const DefaultMailboxSize = 32

// ErrMailboxFull is returned when the loop has not drained the mailbox fast
// enough to accept another call.
var ErrMailboxFull = errors.New("cloud: mailbox full")

// Request is a queued function call.
type Request struct {
	Function string
	Command  string
	// Ctx, if set, is checked before the call runs. A request whose context
	// is done is answered with the context error and never reaches the
	// registry.
	Ctx context.Context
	// Reply, if set, is called from the draining goroutine with the result.
	// It must not block.
	Reply func(result int, err error)
}

// Mailbox queues calls from any goroutine for execution on the loop
// goroutine.
type Mailbox struct {
	mu    sync.Mutex
	queue *lang.Queue
	size  int
	ready chan struct{}
}

// NewMailbox creates a mailbox holding at most size pending calls.
func NewMailbox(size int) *Mailbox {
	if size <= 0 {
		size = DefaultMailboxSize
	}
	return &Mailbox{
		queue: lang.NewQueue(),
		size:  size,
		ready: make(chan struct{}, 1),
	}
}

// Post queues req without waiting for it to run.
func (m *Mailbox) Post(req Request) error {
	m.mu.Lock()
	if m.queue.Len() >= m.size {
		m.mu.Unlock()
		return ErrMailboxFull
	}
	m.queue.Push(req)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return nil
}

// Call queues a call and waits for the loop to run it.
func (m *Mailbox) Call(ctx context.Context, function, command string) (int, error) {
	type reply struct {
		result int
		err    error
	}
	ch := make(chan reply, 1)
	err := m.Post(Request{
		Function: function,
		Command:  command,
		Ctx:      ctx,
		Reply:    func(result int, err error) { ch <- reply{result, err} },
	})
	if err != nil {
		return 0, err
	}

	select {
	case r := <-ch:
		return r.result, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Ready is signalled when calls are waiting.
func (m *Mailbox) Ready() <-chan struct{} {
	return m.ready
}

// Len returns the number of pending calls.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queue.Len()
}

// Drain runs every pending call against reg in arrival order and returns the
// number of calls run. Calls whose context is already done are dropped.
func (m *Mailbox) Drain(reg *Registry) int {
	n := 0
	for {
		m.mu.Lock()
		if m.queue.Len() == 0 {
			m.mu.Unlock()
			return n
		}
		req := m.queue.Poll().(Request)
		m.mu.Unlock()

		if req.Ctx != nil && req.Ctx.Err() != nil {
			if req.Reply != nil {
				req.Reply(0, req.Ctx.Err())
			}
			continue
		}

		result, err := reg.Call(req.Function, req.Command)
		if req.Reply != nil {
			req.Reply(result, err)
		}
		n++
	}
}
