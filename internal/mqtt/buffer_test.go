package mqtt

import (
	"testing"
)

func eventMsg(i int) bufferedMsg {
	return bufferedMsg{topic: "garage/events", payload: []byte{byte(i)}, qos: 1}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got, dropped := rb.drainAll()
	if got != nil || dropped != 0 {
		t.Errorf("expected nothing from empty drain, got %d items, %d dropped", len(got), dropped)
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(eventMsg(i))
	}

	got, _ := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].payload[0] != byte(i) {
			t.Errorf("item %d: expected payload %d, got %d", i, i, got[i].payload[0])
		}
	}

	if got2, _ := rb.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	const capacity = 5
	rb := newRingBuffer(capacity)
	for i := 0; i < capacity+3; i++ {
		rb.push(eventMsg(i))
	}
	if rb.len() != capacity {
		t.Fatalf("expected len %d, got %d", capacity, rb.len())
	}

	got, dropped := rb.drainAll()
	if dropped != 3 {
		t.Errorf("dropped: got %d, want 3", dropped)
	}
	for i := range got {
		if want := byte(i + 3); got[i].payload[0] != want {
			t.Errorf("item %d: expected payload %d, got %d", i, want, got[i].payload[0])
		}
	}

	// The drop count resets with the drain.
	rb.push(eventMsg(9))
	if _, dropped := rb.drainAll(); dropped != 0 {
		t.Errorf("dropped after reset: got %d", dropped)
	}
}

func TestRingBufferCoalescesRetained(t *testing.T) {
	rb := newRingBuffer(10)
	door := func(v string) bufferedMsg {
		return bufferedMsg{topic: "garage/variables/doorState", payload: []byte(v), qos: 1, retained: true}
	}

	rb.push(door("-1"))
	rb.push(eventMsg(0))
	rb.push(door("0"))
	rb.push(eventMsg(1))
	rb.push(door("1"))

	got, _ := rb.drainAll()
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	// The variable keeps its original slot with the newest value.
	if got[0].topic != "garage/variables/doorState" || string(got[0].payload) != "1" {
		t.Errorf("item 0: got %s=%s", got[0].topic, got[0].payload)
	}
	if got[1].payload[0] != 0 || got[2].payload[0] != 1 {
		t.Errorf("events out of order: %v, %v", got[1].payload, got[2].payload)
	}
}

func TestRingBufferEventsNotCoalesced(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(eventMsg(0))
	rb.push(eventMsg(1))
	if rb.len() != 2 {
		t.Errorf("expected 2 events, got %d", rb.len())
	}
}

func TestRingBufferCoalesceAfterWrap(t *testing.T) {
	rb := newRingBuffer(3)
	rb.push(eventMsg(0))
	rb.push(eventMsg(1))
	rb.push(bufferedMsg{topic: "garage/system", payload: []byte("a"), retained: true})
	rb.push(eventMsg(2)) // wraps, drops event 0
	rb.push(bufferedMsg{topic: "garage/system", payload: []byte("b"), retained: true})

	got, dropped := rb.drainAll()
	if dropped != 1 {
		t.Errorf("dropped: got %d, want 1", dropped)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 items, got %d", len(got))
	}
	if got[0].payload[0] != 1 || string(got[1].payload) != "b" || got[2].payload[0] != 2 {
		t.Errorf("unexpected order after wrap: %v", got)
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 3; i++ {
		rb.push(eventMsg(i))
	}
	if got, _ := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(eventMsg(i))
	}
	got, _ := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, msg := range got {
		if want := byte(10 + i); msg.payload[0] != want {
			t.Errorf("cycle 2 item %d: expected %d, got %d", i, want, msg.payload[0])
		}
	}
}

func TestRingBufferPreservesFields(t *testing.T) {
	rb := newRingBuffer(10)
	rb.push(bufferedMsg{
		topic:    "garage/system",
		payload:  []byte(`{"test":true}`),
		qos:      1,
		retained: true,
	})

	got, _ := rb.drainAll()
	if len(got) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got))
	}
	if got[0].topic != "garage/system" {
		t.Errorf("topic: got %s, want garage/system", got[0].topic)
	}
	if string(got[0].payload) != `{"test":true}` {
		t.Errorf("payload: got %s", got[0].payload)
	}
	if got[0].qos != 1 {
		t.Errorf("qos: got %d, want 1", got[0].qos)
	}
	if !got[0].retained {
		t.Error("retained: got false, want true")
	}
}
