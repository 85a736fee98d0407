package utils

import (
	"fmt"
	"sync"
	"time"

	"github.com/julianstephens/hard75/internal/constants"
)

// Clock supplies the local calendar date used to evaluate the challenge.
type Clock interface {
	Today() string
}

// SystemClock reads the wall clock in a fixed location.
type SystemClock struct {
	loc *time.Location
}

// NewSystemClock returns a clock for the named IANA timezone. "" and "Local"
// mean the system timezone.
func NewSystemClock(timezone string) (*SystemClock, error) {
	loc, err := LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	return &SystemClock{loc: loc}, nil
}

func (c *SystemClock) Today() string {
	return time.Now().In(c.loc).Format(constants.DateFormat)
}

// FixedClock always reports the same date. Tests move it with Set or Advance.
type FixedClock struct {
	mu   sync.Mutex
	date string
}

func NewFixedClock(date string) *FixedClock {
	return &FixedClock{date: date}
}

func (c *FixedClock) Today() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.date
}

func (c *FixedClock) Set(date string) {
	c.mu.Lock()
	c.date = date
	c.mu.Unlock()
}

// Advance moves the clock forward n calendar days.
func (c *FixedClock) Advance(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next, err := AddDays(c.date, n)
	if err != nil {
		panic(err)
	}
	c.date = next
}

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ValidateTimezone checks if the timezone name is valid.
func ValidateTimezone(timezone string) bool {
	_, err := LoadLocation(timezone)
	return err == nil
}

// ParseDate parses a YYYY-MM-DD date as midnight UTC. Calendar arithmetic is
// done in UTC so DST transitions never shift a date.
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// ValidateDate reports whether date is a real YYYY-MM-DD calendar date.
func ValidateDate(date string) bool {
	_, err := ParseDate(date)
	return err == nil
}

// AddDays returns the date n calendar days after date.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(constants.DateFormat), nil
}
