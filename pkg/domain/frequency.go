package domain

import (
	"strings"
	"time"
)

// Frequency is the time window of a news summary.
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Frequencies lists the supported windows in display order.
var Frequencies = []Frequency{Daily, Weekly, Monthly}

// ParseFrequency accepts "Daily", "daily", " WEEKLY " and so on.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case Daily, Weekly, Monthly:
		return f, nil
	}
	return "", &InvalidFrequencyError{Value: s}
}

// Key is the durable store key for artifacts of this frequency.
func (f Frequency) Key() string {
	return string(f)
}

// Label is the capitalized display form ("Daily").
func (f Frequency) Label() string {
	if f == "" {
		return ""
	}
	return strings.ToUpper(string(f[:1])) + string(f[1:])
}

// Window is the look-back period covered by a summary.
func (f Frequency) Window() time.Duration {
	switch f {
	case Weekly:
		return 7 * 24 * time.Hour
	case Monthly:
		return 30 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// Days is Window expressed in whole days.
func (f Frequency) Days() int {
	return int(f.Window() / (24 * time.Hour))
}
