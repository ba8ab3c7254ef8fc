package clock

import "time"

// Clock supplies the current instant and the reference timezone against
// which calendar days are computed. Injected so the daily reset window can
// be tested deterministically.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type realClock struct {
	loc *time.Location
}

// New returns a wall clock pinned to the named reference timezone.
func New(timezone string) (Clock, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	return &realClock{loc: loc}, nil
}

func (c *realClock) Now() time.Time {
	return time.Now().In(c.loc)
}

func (c *realClock) Location() *time.Location {
	return c.loc
}

// StartOfDay truncates t to local midnight in the clock's reference zone.
func StartOfDay(c Clock, t time.Time) time.Time {
	local := t.In(c.Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.Location())
}

// NextReset returns the local midnight following t in the reference zone.
// AddDate handles DST transitions, so the result is always wall-clock
// midnight even on 23h/25h days.
func NextReset(c Clock, t time.Time) time.Time {
	return StartOfDay(c, t).AddDate(0, 0, 1)
}

// SameDay reports whether a and b fall on the same calendar day in the
// reference zone.
func SameDay(c Clock, a, b time.Time) bool {
	return StartOfDay(c, a).Equal(StartOfDay(c, b))
}

// Fake is a manually advanced clock for tests.
type Fake struct {
	Current time.Time
	Loc     *time.Location
}

func NewFake(at time.Time, loc *time.Location) *Fake {
	return &Fake{Current: at.In(loc), Loc: loc}
}

func (f *Fake) Now() time.Time {
	return f.Current
}

func (f *Fake) Location() *time.Location {
	return f.Loc
}

// Advance moves the fake clock forward.
func (f *Fake) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}

// Set moves the fake clock to an absolute instant.
func (f *Fake) Set(at time.Time) {
	f.Current = at.In(f.Loc)
}
