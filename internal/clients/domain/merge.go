package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// UnnamedClientPlaceholder is shown when no member of a merged identity
// carries a usable name.
const UnnamedClientPlaceholder = "Unnamed Client"

// Merged is a synthesized view entity representing one or more underlying
// client records sharing the same identity. It is derived on every read and
// never persisted.
type Merged struct {
	// Record holds the representative's fields with lifecycle_state and the
	// monetary fields overwritten by the merge rules.
	Record
	// MergedClientIDs lists every member record, representative included.
	MergedClientIDs []uuid.UUID
	// MergedNames is the consolidated display name.
	MergedNames string
}

// MergeGroup collapses an identity group into a single Merged entity,
// evaluated at the given time (progress overrides are time-dependent).
//
// The representative is the earliest-created member. Display names are
// unioned. The monetary fields take the group maximum: revenue fields are
// non-decreasing per record, so the maximum approximates the freshest
// duplicate. An empty group produces nothing; this is not an error.
func MergeGroup(group []Record, at time.Time) (Merged, bool) {
	if len(group) == 0 {
		return Merged{}, false
	}

	members := sortMembers(group)
	rep := members[0]

	merged := Merged{
		Record:      rep,
		MergedNames: consolidatedName(members),
	}
	merged.MergedClientIDs = make([]uuid.UUID, len(members))
	for i, m := range members {
		merged.MergedClientIDs[i] = m.ID
		if m.EstimatedMRRCents > merged.EstimatedMRRCents {
			merged.EstimatedMRRCents = m.EstimatedMRRCents
		}
		if m.LifetimeRevenueCents > merged.LifetimeRevenueCents {
			merged.LifetimeRevenueCents = m.LifetimeRevenueCents
		}
	}
	merged.Stage = ArbitrateStage(members, at)

	return merged, true
}

// Consolidate groups and merges a flat record list into the board's view
// entities in one pass.
func Consolidate(records []Record, at time.Time) []Merged {
	groups := GroupRecords(records)
	merged := make([]Merged, 0, len(groups))
	for _, group := range groups {
		if m, ok := MergeGroup(group, at); ok {
			merged = append(merged, m)
		}
	}
	return merged
}

func consolidatedName(members []Record) string {
	seen := make(map[string]struct{}, len(members))
	var names []string
	for _, m := range members {
		name := m.DisplayName()
		if name == "" {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return UnnamedClientPlaceholder
	}
	return strings.Join(names, " / ")
}
