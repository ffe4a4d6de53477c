package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

func at(hh, mm int) time.Time {
	return time.Date(2026, 10, 19, hh, mm, 0, 0, ist)
}

func TestEvaluateBoundaries(t *testing.T) {
	h := DefaultHours()
	h.Location = ist

	cases := []struct {
		t    time.Time
		want Phase
	}{
		{at(0, 0), Closed},
		{at(8, 59), Closed},
		{at(9, 0), PreOpen},
		{at(9, 14), PreOpen},
		{at(9, 15), Open},
		{at(12, 0), Open},
		{at(15, 29), Open},
		{at(15, 30), Closed},
		{at(23, 59), Closed},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, h.Evaluate(c.t), c.t.Format("15:04"))
	}
}

func TestEvaluateConvertsToLocation(t *testing.T) {
	h := DefaultHours()
	h.Location = ist
	// 04:00 UTC is 09:30 IST
	utc := time.Date(2026, 10, 19, 4, 0, 0, 0, time.UTC)
	assert.Equal(t, Open, h.Evaluate(utc))
}

func TestNewHoursAlternateOpen(t *testing.T) {
	h, err := NewHours("", "09:00", "09:13", "15:30")
	require.NoError(t, err)
	h.Location = ist
	assert.Equal(t, Open, h.Evaluate(at(9, 13)))
	assert.Equal(t, PreOpen, h.Evaluate(at(9, 12)))
}

func TestNewHoursRejectsBadInput(t *testing.T) {
	_, err := NewHours("Mars/Olympus", "", "", "")
	assert.Error(t, err)

	_, err = NewHours("", "09:00", "nine", "15:30")
	assert.Error(t, err)

	_, err = NewHours("", "10:00", "09:15", "15:30")
	assert.Error(t, err)
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("15:30")
	require.NoError(t, err)
	assert.Equal(t, 930, m)

	m, err = ParseClock(" 09:13:45 ")
	require.NoError(t, err)
	assert.Equal(t, 553, m)

	_, err = ParseClock("")
	assert.Error(t, err)
}

func TestEvaluatorUsesInjectedClock(t *testing.T) {
	h := DefaultHours()
	h.Location = ist
	now := at(9, 5)
	e := NewEvaluator(h, func() time.Time { return now })
	assert.Equal(t, PreOpen, e.Phase())

	now = at(10, 0)
	assert.Equal(t, Open, e.Phase())
}

func TestStatusFor(t *testing.T) {
	assert.True(t, StatusFor(Open).Pulse)
	assert.Equal(t, "Market Open", StatusFor(Open).Label)
	assert.Equal(t, "amber", StatusFor(PreOpen).Tone)
	assert.Equal(t, "Closed", StatusFor(Closed).Label)
}
