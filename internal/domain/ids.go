package domain

import (
	"fmt"
	"time"

	"github.com/rs/xid"
	"golang.org/x/text/language"
)

const secondsPerDay = 24 * 60 * 60

// NewID returns a fresh 12-byte time-sortable identifier.
func NewID() xid.ID { return xid.New() }

// Day is a UTC calendar day counted from the Unix epoch.
type Day int32

// DayOf returns the UTC calendar day containing t.
func DayOf(t time.Time) Day {
	sec := t.Unix()
	d := sec / secondsPerDay
	if sec < 0 && sec%secondsPerDay != 0 {
		d--
	}
	return Day(d)
}

// IDDay returns the day embedded in the timestamp of an id.
func IDDay(id xid.ID) Day { return DayOf(id.Time()) }

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Day) String() string { return d.Time().Format(time.DateOnly) }

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return 0, fmt.Errorf("parse day %q: %w", s, err)
	}
	return DayOf(t), nil
}

// DayRange returns all days from..to inclusive, newest first.
func DayRange(from, to Day) []Day {
	if to < from {
		return nil
	}
	days := make([]Day, 0, to-from+1)
	for d := to; d >= from; d-- {
		days = append(days, d)
	}
	return days
}

// UnixMillis returns t as Unix milliseconds, the timestamp unit of all rows
// except subscription expiry.
func UnixMillis(t time.Time) int64 { return t.UnixMilli() }

// Language is an ISO 639-3 three-letter code such as "eng" or "fra".
type Language string

func (l Language) String() string { return string(l) }

// ParseLanguage normalizes any BCP 47 or ISO 639 input to its ISO 639-3 code.
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return "", NewValidationError("language", "required")
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "", NewValidationError("language", fmt.Sprintf("unknown language %q", s))
	}
	// Base infers a likely language for "und"; only an explicit base counts.
	base, conf := tag.Base()
	if conf != language.Exact {
		return "", NewValidationError("language", fmt.Sprintf("unknown language %q", s))
	}
	code := base.ISO3()
	if code == "" || code == "und" {
		return "", NewValidationError("language", fmt.Sprintf("unknown language %q", s))
	}
	return Language(code), nil
}

// IsValid reports whether l is already in canonical ISO 639-3 form.
func (l Language) IsValid() bool {
	got, err := ParseLanguage(string(l))
	return err == nil && got == l
}

// NextUpdatedAt returns the updated_at for a write following one stamped
// prev. It is strictly greater than prev so it always changes the compare
// token, even when clocks collide.
func NextUpdatedAt(prev int64, now time.Time) int64 {
	if ms := now.UnixMilli(); ms > prev {
		return ms
	}
	return prev + 1
}
