package led

import (
	"testing"
	"time"

	"github.com/sweeney/garage-controller/internal/logic"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func ms(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Millisecond)
}

func TestNewRendererOff(t *testing.T) {
	r := NewRenderer()
	if r.Current() != logic.Off() {
		t.Errorf("expected OFF, got %s", r.Current())
	}
	if lvl := r.Update(t0); lvl != LevelOff {
		t.Errorf("expected level 0, got %d", lvl)
	}
	if r.Cycle() != CycleOff {
		t.Errorf("expected cycle %d, got %d", CycleOff, r.Cycle())
	}
}

func TestSteadyEffects(t *testing.T) {
	tests := []struct {
		effect logic.Effect
		want   uint8
	}{
		{logic.On(), 255},
		{logic.Off(), 0},
		{logic.Dim(50), 50},
		{logic.Dim(-3), 0},
		{logic.Dim(900), 255},
	}
	for _, tt := range tests {
		t.Run(tt.effect.String(), func(t *testing.T) {
			r := NewRenderer()
			r.Apply(tt.effect, t0)
			for _, at := range []int{0, 10, 5000} {
				if got := r.Update(ms(at)); got != tt.want {
					t.Errorf("%dms: got %d, want %d", at, got, tt.want)
				}
			}
		})
	}
}

func TestBlink(t *testing.T) {
	r := NewRenderer()
	r.Apply(logic.Blink(125), t0)

	tests := []struct {
		at   int
		want uint8
	}{
		{0, 255},
		{124, 255},
		{125, 0},
		{249, 0},
		{250, 255},
		{375, 0},
	}
	for _, tt := range tests {
		if got := r.Update(ms(tt.at)); got != tt.want {
			t.Errorf("%dms: got %d, want %d", tt.at, got, tt.want)
		}
	}
}

func TestBreathRisesAndFalls(t *testing.T) {
	r := NewRenderer()
	r.Apply(logic.Breath(25), t0)

	if got := r.Update(t0); got != 0 {
		t.Errorf("start: got %d, want 0", got)
	}
	// 51 steps of 5 reach full brightness
	if got := r.Update(ms(51 * 25)); got != 255 {
		t.Errorf("peak: got %d, want 255", got)
	}
	if got := r.Update(ms(61 * 25)); got != 205 {
		t.Errorf("falling: got %d, want 205", got)
	}
	if got := r.Update(ms(102 * 25)); got != 0 {
		t.Errorf("trough: got %d, want 0", got)
	}
	// Long uptimes keep cycling
	if got := r.Update(t0.Add(40 * 24 * time.Hour)); got > 255 {
		t.Errorf("unexpected level %d", got)
	}
}

func TestFades(t *testing.T) {
	r := NewRenderer()
	r.Apply(logic.FadeUp(10), t0)
	if got := r.Update(ms(100)); got != 50 {
		t.Errorf("fade up: got %d, want 50", got)
	}
	if got := r.Update(ms(10000)); got != 255 {
		t.Errorf("fade up holds: got %d, want 255", got)
	}

	r.Apply(logic.FadeDown(10), ms(10000))
	if got := r.Update(ms(10100)); got != 205 {
		t.Errorf("fade down: got %d, want 205", got)
	}
	if got := r.Update(ms(20000)); got != 0 {
		t.Errorf("fade down holds: got %d, want 0", got)
	}
}

func TestApplyIgnoresNoneAndRepeats(t *testing.T) {
	r := NewRenderer()
	if !r.Apply(logic.Blink(500), t0) {
		t.Fatal("expected effect change")
	}
	if r.Apply(logic.Effect{}, ms(100)) {
		t.Error("empty request should be ignored")
	}
	if r.Apply(logic.Blink(500), ms(600)) {
		t.Error("repeat request should be ignored")
	}
	// Phase still runs from t0: 600ms into a 500ms blink is the off half.
	if got := r.Update(ms(600)); got != 0 {
		t.Errorf("blink phase was restarted, got level %d", got)
	}
	if r.Current() != logic.Blink(500) {
		t.Errorf("unexpected effect %s", r.Current())
	}
	if r.Level() != 0 {
		t.Errorf("Level() = %d, want 0", r.Level())
	}
}

func TestCycleOf(t *testing.T) {
	tests := []struct {
		effect logic.Effect
		want   int
	}{
		{logic.Off(), CycleOff},
		{logic.On(), CycleOn},
		{logic.Breath(25), CycleBreath},
		{logic.FadeDown(30), CycleFadeDown},
		{logic.FadeUp(10), CycleFadeUp},
		{logic.Blink(250), CycleBlink},
		{logic.Dim(50), CycleDim},
		{logic.Effect{}, CycleOff},
	}
	for _, tt := range tests {
		if got := CycleOf(tt.effect); got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.effect, got, tt.want)
		}
	}
}
