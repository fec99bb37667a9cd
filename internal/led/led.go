// Package led renders named LED effects into a brightness level.
// The renderer is driven by the polling loop; time is always injected.
package led

import (
	"time"

	"github.com/sweeney/garage-controller/internal/logic"
)

// Brightness limits.
const (
	LevelOff uint8 = 0
	LevelMax uint8 = 255
)

// rampStep is the brightness change per breath/fade interval.
const rampStep = 5

// Cycle tags reported by get("ledState").
const (
	CycleOff      = 0
	CycleOn       = 1
	CycleBreath   = 2
	CycleFadeDown = 3
	CycleFadeUp   = 4
	CycleBlink    = 5
	CycleDim      = 6
)

// StartupEffect is shown until the door state is known.
var StartupEffect = logic.Breath(30)

// Renderer holds the active effect and computes its level over time.
type Renderer struct {
	effect logic.Effect
	start  time.Time
	level  uint8
}

// NewRenderer creates a renderer with the LED off.
func NewRenderer() *Renderer {
	return &Renderer{effect: logic.Off()}
}

// Apply switches to effect e. Empty requests and requests for the effect
// already running are ignored so an animation is not restarted every tick.
// It reports whether the effect changed.
func (r *Renderer) Apply(e logic.Effect, now time.Time) bool {
	if e.IsNone() || e == r.effect {
		return false
	}
	r.effect = e
	r.start = now
	return true
}

// Update computes and returns the brightness for now.
func (r *Renderer) Update(now time.Time) uint8 {
	r.level = levelAt(r.effect, now.Sub(r.start))
	return r.level
}

// Current returns the active effect.
func (r *Renderer) Current() logic.Effect {
	return r.effect
}

// Level returns the brightness computed by the last Update.
func (r *Renderer) Level() uint8 {
	return r.level
}

// Cycle returns the numeric tag of the active effect.
func (r *Renderer) Cycle() int {
	return CycleOf(r.effect)
}

// CycleOf maps an effect to its numeric tag.
func CycleOf(e logic.Effect) int {
	switch e.Kind {
	case logic.EffectOn:
		return CycleOn
	case logic.EffectBreath:
		return CycleBreath
	case logic.EffectFadeDown:
		return CycleFadeDown
	case logic.EffectFadeUp:
		return CycleFadeUp
	case logic.EffectBlink:
		return CycleBlink
	case logic.EffectDim:
		return CycleDim
	default:
		return CycleOff
	}
}

func levelAt(e logic.Effect, elapsed time.Duration) uint8 {
	switch e.Kind {
	case logic.EffectOn:
		return LevelMax
	case logic.EffectDim:
		return clamp(int64(e.Param))
	case logic.EffectBlink:
		period := millis(e.Param)
		if period <= 0 {
			return LevelMax
		}
		if (elapsed/period)%2 == 0 {
			return LevelMax
		}
		return LevelOff
	case logic.EffectBreath:
		const span = 2 * int64(LevelMax)
		phase := ramp(e.Param, elapsed) % span
		if phase > int64(LevelMax) {
			phase = span - phase
		}
		return uint8(phase)
	case logic.EffectFadeUp:
		return clamp(ramp(e.Param, elapsed))
	case logic.EffectFadeDown:
		return clamp(int64(LevelMax) - ramp(e.Param, elapsed))
	default:
		return LevelOff
	}
}

// ramp returns the brightness travelled after elapsed at one step per rate ms.
// It is int64 so long uptimes do not overflow on 32-bit boards.
func ramp(rate int, elapsed time.Duration) int64 {
	interval := millis(rate)
	if interval <= 0 {
		return int64(LevelMax)
	}
	return int64(elapsed/interval) * rampStep
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func clamp(v int64) uint8 {
	if v < 0 {
		return LevelOff
	}
	if v > int64(LevelMax) {
		return LevelMax
	}
	return uint8(v)
}
