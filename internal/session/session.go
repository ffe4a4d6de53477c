package session

import (
	"fmt"
	"strings"
	"time"
)

type Phase int

const (
	Closed Phase = iota
	PreOpen
	Open
)

func (p Phase) String() string {
	switch p {
	case PreOpen:
		return "Pre-Open"
	case Open:
		return "Market Open"
	default:
		return "Closed"
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Hours holds the session boundaries as minutes since midnight in Location.
// Windows are half-open: [PreOpenAt, OpenAt) is PreOpen, [OpenAt, CloseAt) is Open.
type Hours struct {
	PreOpenAt int
	OpenAt    int
	CloseAt   int
	Location  *time.Location
}

func DefaultHours() Hours {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		loc = time.FixedZone("IST", 5*3600+30*60)
	}
	return Hours{
		PreOpenAt: 9 * 60,
		OpenAt:    9*60 + 15,
		CloseAt:   15*60 + 30,
		Location:  loc,
	}
}

// NewHours builds Hours from "HH:MM" strings and an IANA zone name.
func NewHours(tz, preOpen, open, closeAt string) (Hours, error) {
	h := DefaultHours()
	if strings.TrimSpace(tz) != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Hours{}, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		h.Location = loc
	}
	var err error
	if preOpen != "" {
		if h.PreOpenAt, err = ParseClock(preOpen); err != nil {
			return Hours{}, fmt.Errorf("pre_open_at: %w", err)
		}
	}
	if open != "" {
		if h.OpenAt, err = ParseClock(open); err != nil {
			return Hours{}, fmt.Errorf("open_at: %w", err)
		}
	}
	if closeAt != "" {
		if h.CloseAt, err = ParseClock(closeAt); err != nil {
			return Hours{}, fmt.Errorf("close_at: %w", err)
		}
	}
	if !(h.PreOpenAt <= h.OpenAt && h.OpenAt < h.CloseAt) {
		return Hours{}, fmt.Errorf("session bounds out of order: pre_open=%d open=%d close=%d", h.PreOpenAt, h.OpenAt, h.CloseAt)
	}
	return h, nil
}

// Evaluate classifies t by its wall clock in h.Location. Seconds are ignored,
// so 15:29:59 is still Open.
func (h Hours) Evaluate(t time.Time) Phase {
	if h.Location != nil {
		t = t.In(h.Location)
	}
	hh, mm, _ := t.Clock()
	m := hh*60 + mm

	switch {
	case m >= h.PreOpenAt && m < h.OpenAt:
		return PreOpen
	case m >= h.OpenAt && m < h.CloseAt:
		return Open
	default:
		return Closed
	}
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into minutes since midnight.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

type Clock func() time.Time

type Evaluator struct {
	hours Hours
	now   Clock
}

func NewEvaluator(h Hours, now Clock) *Evaluator {
	if now == nil {
		now = time.Now
	}
	return &Evaluator{hours: h, now: now}
}

func (e *Evaluator) Phase() Phase {
	return e.hours.Evaluate(e.now())
}

func (e *Evaluator) Now() time.Time {
	return e.now().In(e.hours.Location)
}

func (e *Evaluator) Hours() Hours {
	return e.hours
}

// Status is the header badge for a phase.
type Status struct {
	Phase Phase  `json:"phase"`
	Label string `json:"label"`
	Tone  string `json:"tone"`
	Pulse bool   `json:"pulse"`
}

func StatusFor(p Phase) Status {
	switch p {
	case PreOpen:
		return Status{Phase: p, Label: p.String(), Tone: "amber"}
	case Open:
		return Status{Phase: p, Label: p.String(), Tone: "emerald", Pulse: true}
	default:
		return Status{Phase: p, Label: p.String(), Tone: "gray"}
	}
}
