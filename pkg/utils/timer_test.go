package utils

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockTimer() (*Timer, *MockClock) {
	clock := NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	return NewTimer("analysis", WithClock(clock)), clock
}

func TestTimer_Phases(t *testing.T) {
	timer, clock := newMockTimer()

	sample := timer.Start("sample")
	clock.Advance(10 * time.Millisecond)
	sample.Stop()

	solve := timer.Start("solve")
	clock.Advance(5 * time.Millisecond)
	solve.Stop()

	phases := timer.Phases()
	require.Len(t, phases, 2)
	assert.Equal(t, "sample", phases[0].Name)
	assert.Equal(t, 10*time.Millisecond, phases[0].Duration)
	assert.Equal(t, "solve", phases[1].Name)
	assert.Equal(t, 5*time.Millisecond, timer.Duration("solve"))
	assert.Equal(t, 15*time.Millisecond, timer.Total())
}

func TestTimer_StopIdempotent(t *testing.T) {
	timer, clock := newMockTimer()

	pt := timer.Start("plot")
	clock.Advance(time.Millisecond)
	first := pt.Stop()
	clock.Advance(time.Second)
	second := pt.Stop()

	assert.Equal(t, first, second)
	assert.Equal(t, time.Duration(0), timer.StopPhase("missing"))
}

func TestTimer_TimeFunc(t *testing.T) {
	timer, clock := newMockTimer()
	wantErr := errors.New("boom")

	err := timer.TimeFunc("write", func() error {
		clock.Advance(3 * time.Millisecond)
		return wantErr
	})

	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 3*time.Millisecond, timer.Duration("write"))
}

func TestTimer_SummaryAndMap(t *testing.T) {
	timer, clock := newMockTimer()
	pt := timer.Start("update")
	clock.Advance(2 * time.Millisecond)
	pt.Stop()

	summary := timer.Summary()
	assert.Contains(t, summary, "=== analysis timing ===")
	assert.Contains(t, summary, "1. update: 2ms")

	m := timer.ToMap()
	assert.Equal(t, "analysis", m["name"])
	assert.Equal(t, 2.0, m["total_ms"])
	phases := m["phases"].([]map[string]interface{})
	require.Len(t, phases, 1)
	assert.Equal(t, 2.0, phases[0]["ms"])

	buf := &bytes.Buffer{}
	timer.Log(NewDefaultLogger(LevelDebug, buf))
	assert.Contains(t, buf.String(), "update: 2ms")
}
