package cloud

import (
	"context"
	"errors"
	"testing"
	"time"
)

func echoRegistry(calls *[]string) *Registry {
	r := NewRegistry()
	r.RegisterFunction("go", func(cmd string) int {
		*calls = append(*calls, cmd)
		return len(*calls)
	})
	return r
}

func TestMailboxDrainInOrder(t *testing.T) {
	var calls []string
	reg := echoRegistry(&calls)
	m := NewMailbox(0)

	var results []int
	for _, cmd := range []string{"a", "b", "c"} {
		err := m.Post(Request{Function: "go", Command: cmd, Reply: func(r int, err error) {
			results = append(results, r)
		}})
		if err != nil {
			t.Fatalf("post: %v", err)
		}
	}
	if m.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", m.Len())
	}

	if n := m.Drain(reg); n != 3 {
		t.Errorf("Drain: got %d, want 3", n)
	}
	if len(calls) != 3 || calls[0] != "a" || calls[2] != "c" {
		t.Errorf("calls out of order: %v", calls)
	}
	if len(results) != 3 || results[0] != 1 || results[2] != 3 {
		t.Errorf("unexpected results: %v", results)
	}
	if m.Len() != 0 {
		t.Errorf("expected empty mailbox, got %d", m.Len())
	}
}

func TestMailboxReadySignal(t *testing.T) {
	m := NewMailbox(4)
	select {
	case <-m.Ready():
		t.Fatal("ready before any post")
	default:
	}

	m.Post(Request{Function: "go"})
	m.Post(Request{Function: "go"})

	select {
	case <-m.Ready():
	default:
		t.Fatal("expected ready signal after post")
	}
}

func TestMailboxFull(t *testing.T) {
	m := NewMailbox(2)
	m.Post(Request{Function: "go"})
	m.Post(Request{Function: "go"})
	if err := m.Post(Request{Function: "go"}); !errors.Is(err, ErrMailboxFull) {
		t.Errorf("expected ErrMailboxFull, got %v", err)
	}
}

func TestMailboxUnknownFunctionReply(t *testing.T) {
	m := NewMailbox(0)
	var gotErr error
	m.Post(Request{Function: "launch", Reply: func(_ int, err error) { gotErr = err }})
	m.Drain(NewRegistry())
	if !errors.Is(gotErr, ErrUnknownFunction) {
		t.Errorf("expected ErrUnknownFunction, got %v", gotErr)
	}
}

func TestMailboxCall(t *testing.T) {
	var calls []string
	reg := echoRegistry(&calls)
	m := NewMailbox(0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range m.Ready() {
			if m.Drain(reg) > 0 {
				return
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	result, err := m.Call(ctx, "go", "relay")
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result != 1 {
		t.Errorf("result: got %d, want 1", result)
	}
	<-done
}

func TestMailboxCallContextCanceled(t *testing.T) {
	m := NewMailbox(0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := m.Call(ctx, "go", "relay"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMailboxDrainSkipsExpiredCall(t *testing.T) {
	var calls []string
	reg := echoRegistry(&calls)
	m := NewMailbox(0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := m.Call(ctx, "go", "relay"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}

	// A later call must still run.
	var live []int
	m.Post(Request{Function: "go", Command: "set", Reply: func(r int, _ error) { live = append(live, r) }})

	if n := m.Drain(reg); n != 1 {
		t.Errorf("Drain: got %d, want 1", n)
	}
	if len(calls) != 1 || calls[0] != "set" {
		t.Errorf("expired call reached the registry: %v", calls)
	}
	if len(live) != 1 || live[0] != 1 {
		t.Errorf("live reply: got %v", live)
	}
}

func TestMailboxDrainRepliesCanceled(t *testing.T) {
	var calls []string
	reg := echoRegistry(&calls)
	m := NewMailbox(0)

	ctx, cancel := context.WithCancel(context.Background())
	var gotErr error
	m.Post(Request{Function: "go", Command: "relay", Ctx: ctx, Reply: func(_ int, err error) { gotErr = err }})
	cancel()

	m.Drain(reg)
	if !errors.Is(gotErr, context.Canceled) {
		t.Errorf("expected context.Canceled reply, got %v", gotErr)
	}
	if len(calls) != 0 {
		t.Errorf("canceled call ran: %v", calls)
	}
}
