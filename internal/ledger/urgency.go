package ledger

import (
	"math"
	"time"
)

// Urgency classifies how overdue a due action is. It is a presentation
// concern and is never stored.
type Urgency string

const (
	// UrgencyRed marks actions more than three days overdue
	UrgencyRed Urgency = "red"
	// UrgencyYellow marks actions one to three days overdue
	UrgencyYellow Urgency = "yellow"
	// UrgencyBlue marks actions due today or in the future
	UrgencyBlue Urgency = "blue"
)

// ClassifyUrgency returns the urgency tier for an action due at
// nextActionAt, evaluated on the calendar day of today. Both timestamps
// are truncated to local midnight before comparing, so an action due any
// time today counts as zero days overdue.
func ClassifyUrgency(nextActionAt, today time.Time) Urgency {
	// Rounding keeps the whole-day count stable across DST transitions,
	// where the span between two midnights is not exactly 24h.
	daysOverdue := int(math.Round(startOfDay(today).Sub(startOfDay(nextActionAt)).Hours() / 24))
	switch {
	case daysOverdue > 3:
		return UrgencyRed
	case daysOverdue >= 1:
		return UrgencyYellow
	default:
		return UrgencyBlue
	}
}
