package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Record is the domain view of a persisted client record.
type Record struct {
	ID                   uuid.UUID
	FirstName            string
	LastName             string
	Email                *string
	Phone                *string
	Stage                Stage
	EstimatedMRRCents    int64
	LifetimeRevenueCents int64
	ProgramStartDate     *time.Time
	ProgramEndDate       *time.Time
	ProgramDurationDays  *int
	StripeCustomerID     *string
	SortOrders           map[Stage]int
	CreatedAt            time.Time
}

// DisplayName returns "first last" with surrounding whitespace collapsed,
// or the empty string when both parts are empty.
func (r Record) DisplayName() string {
	first := strings.TrimSpace(r.FirstName)
	last := strings.TrimSpace(r.LastName)
	switch {
	case first == "" && last == "":
		return ""
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}

// ProgressPercentAt derives the program progress percentage at the given
// time: days elapsed since the program start over the program duration,
// times 100. Values past 100 are NOT clamped since overshoot is meaningful
// (an expired program). Returns nil when the record has no program timeline.
func (r Record) ProgressPercentAt(at time.Time) *float64 {
	if r.ProgramStartDate == nil || r.ProgramDurationDays == nil || *r.ProgramDurationDays <= 0 {
		return nil
	}

	elapsed := at.Sub(*r.ProgramStartDate).Hours() / 24
	if elapsed < 0 {
		elapsed = 0
	}

	progress := elapsed / float64(*r.ProgramDurationDays) * 100
	return &progress
}

// SortOrderFor returns the manual sort position for a stage, defaulting to 0.
func (r Record) SortOrderFor(stage Stage) int {
	if r.SortOrders == nil {
		return 0
	}
	return r.SortOrders[stage]
}
