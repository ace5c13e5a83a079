package utils

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of a run.
type Phase struct {
	Name      string
	StartTime time.Time
	Duration  time.Duration
	completed bool
}

// PhaseTimer is returned by Timer.Start and is meant to be stopped with defer.
type PhaseTimer struct {
	timer *Timer
	name  string
}

// Stop stops the phase and returns its duration.
// Safe to call multiple times; only the first call has effect.
func (pt *PhaseTimer) Stop() time.Duration {
	return pt.timer.StopPhase(pt.name)
}

// Timer records the duration of named phases in insertion order.
type Timer struct {
	mu        sync.Mutex
	name      string
	startTime time.Time
	phases    map[string]*Phase
	order     []string
	clock     Clock
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithClock sets a custom clock for testability.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:   name,
		phases: make(map[string]*Phase),
		clock:  NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.startTime = t.clock.Now()
	return t
}

// Start starts timing a new phase.
func (t *Timer) Start(name string) *PhaseTimer {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.phases[name]; !exists {
		t.order = append(t.order, name)
	}
	t.phases[name] = &Phase{Name: name, StartTime: t.clock.Now()}
	return &PhaseTimer{timer: t, name: name}
}

// StopPhase stops timing a phase and returns its duration.
func (t *Timer) StopPhase(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()

	phase, ok := t.phases[name]
	if !ok {
		return 0
	}
	if !phase.completed {
		phase.Duration = t.clock.Since(phase.StartTime)
		phase.completed = true
	}
	return phase.Duration
}

// TimeFunc times fn as a phase and returns its error.
func (t *Timer) TimeFunc(name string, fn func() error) error {
	pt := t.Start(name)
	defer pt.Stop()
	return fn()
}

// Duration returns the recorded duration of a phase.
func (t *Timer) Duration(name string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if phase, ok := t.phases[name]; ok {
		return phase.Duration
	}
	return 0
}

// Total returns the time elapsed since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clock.Since(t.startTime)
}

// Phases returns copies of all phases in insertion order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Phase, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, *t.phases[name])
	}
	return out
}

// Summary returns a one-line-per-phase description.
func (t *Timer) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "=== %s timing ===\n", t.name)
	for i, p := range t.Phases() {
		fmt.Fprintf(&sb, "%d. %s: %v\n", i+1, p.Name, p.Duration)
	}
	fmt.Fprintf(&sb, "total: %v\n", t.Total())
	return sb.String()
}

// Log writes the summary to logger at debug level.
func (t *Timer) Log(logger Logger) {
	if logger == nil {
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(t.Summary()), "\n") {
		logger.Debug("%s", line)
	}
}

// ToMap returns the timing data for serialization.
func (t *Timer) ToMap() map[string]interface{} {
	phases := t.Phases()
	out := make([]map[string]interface{}, 0, len(phases))
	for _, p := range phases {
		out = append(out, map[string]interface{}{
			"name": p.Name,
			"ms":   float64(p.Duration.Microseconds()) / 1000,
		})
	}
	return map[string]interface{}{
		"name":     t.name,
		"total_ms": float64(t.Total().Microseconds()) / 1000,
		"phases":   out,
	}
}
