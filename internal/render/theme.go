package render

import (
	"fmt"
	"time"
	_ "time/tzdata"
)

// Theme decides between the day and night palettes from the wall clock in
// a fixed time zone.
type Theme struct {
	Zone       string
	NightStart int // hour at which night begins
	NightEnd   int // hour at which day begins
	DayColor   string
	NightColor string

	loc *time.Location
}

// DefaultTheme is the Las Vegas clock with pink days and purple nights.
func DefaultTheme() Theme {
	return Theme{
		Zone:       "America/Los_Angeles",
		NightStart: 18,
		NightEnd:   6,
		DayColor:   "#f2a6c7",
		NightColor: "#1a1028",
	}
}

// withDefaults fills the fields left empty from DefaultTheme. Hours are
// taken from the default only when both are zero.
func (t Theme) withDefaults() Theme {
	def := DefaultTheme()
	if t.Zone == "" {
		t.Zone = def.Zone
	}
	if t.NightStart == 0 && t.NightEnd == 0 {
		t.NightStart, t.NightEnd = def.NightStart, def.NightEnd
	}
	if t.DayColor == "" {
		t.DayColor = def.DayColor
	}
	if t.NightColor == "" {
		t.NightColor = def.NightColor
	}
	return t
}

// Load validates the hours and resolves the zone. An unloaded theme reads
// the clock in UTC.
func (t *Theme) Load() error {
	if t.NightStart < 0 || t.NightStart > 23 || t.NightEnd < 0 || t.NightEnd > 23 {
		return fmt.Errorf("night hours must be within 0-23, got %d-%d", t.NightStart, t.NightEnd)
	}
	loc, err := time.LoadLocation(t.Zone)
	if err != nil {
		return fmt.Errorf("loading time zone %q: %w", t.Zone, err)
	}
	t.loc = loc
	return nil
}

// Mode is the palette in effect.
type Mode int

const (
	ModeDay Mode = iota
	ModeNight
)

func (m Mode) String() string {
	if m == ModeNight {
		return "dark"
	}
	return "light"
}

// At returns the mode for the wall clock at now.
func (t Theme) At(now time.Time) Mode {
	loc := t.loc
	if loc == nil {
		loc = time.UTC
	}
	h := now.In(loc).Hour()
	night := h >= t.NightStart && h < t.NightEnd
	if t.NightStart > t.NightEnd {
		night = h >= t.NightStart || h < t.NightEnd
	}
	if night {
		return ModeNight
	}
	return ModeDay
}

// Night reports whether now falls in the night window.
func (t Theme) Night(now time.Time) bool { return t.At(now) == ModeNight }

// Color returns the browser theme color for now.
func (t Theme) Color(now time.Time) string {
	if t.Night(now) {
		return t.NightColor
	}
	return t.DayColor
}
