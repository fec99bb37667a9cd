package mqtt

import (
	"sync"

	"github.com/sweeney/garage-controller/internal/logic"
)

// FakePublisher records published messages for test assertions.
// It is safe for concurrent use; read the recorded fields directly only once
// all publishers have finished, otherwise use the accessor methods.
type FakePublisher struct {
	mu sync.Mutex

	// Events contains all audit events that were published.
	Events []logic.Event

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// Variables holds the last value published for each variable, and
	// VariableUpdates counts the publishes.
	Variables       map[string]int
	VariableUpdates int

	// Results contains all call results that were published.
	Results []CallResult

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// OnCall receives calls injected with Deliver.
	OnCall CallHandler

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Variables: make(map[string]int)}
}

// Publish records the audit event.
func (f *FakePublisher) Publish(event logic.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishError != nil {
		return f.PublishError
	}

	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

// PublishVariable records the variable value.
func (f *FakePublisher) PublishVariable(name string, value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Variables == nil {
		f.Variables = make(map[string]int)
	}
	f.Variables[name] = value
	f.VariableUpdates++
	return nil
}

// PublishResult records the call result.
func (f *FakePublisher) PublishResult(result CallResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Results = append(f.Results, result)
	return nil
}

// Deliver simulates a call arriving on the functions topic.
func (f *FakePublisher) Deliver(function, command string) {
	f.mu.Lock()
	h := f.OnCall
	f.mu.Unlock()
	if h != nil {
		h(function, command)
	}
}

// PublishedEvents returns a copy of the recorded audit events.
func (f *FakePublisher) PublishedEvents() []logic.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]logic.Event(nil), f.Events...)
}

// PublishedResults returns a copy of the recorded call results.
func (f *FakePublisher) PublishedResults() []CallResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CallResult(nil), f.Results...)
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Events = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Variables = make(map[string]int)
	f.VariableUpdates = 0
	f.Results = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.Connected = false
}
