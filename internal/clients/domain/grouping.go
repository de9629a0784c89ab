package domain

import (
	"sort"
	"strings"
	"unicode"
)

// NormalizeEmail canonicalizes an email for identity grouping: all whitespace
// removed, lowercased. Returns the empty string when nothing remains, which
// callers must treat as "no email".
func NormalizeEmail(email string) string {
	var b strings.Builder
	for _, r := range email {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// GroupRecords partitions records into identity groups: records sharing a
// normalized email belong together; records WITHOUT a derivable email fall
// back to grouping by Stripe customer ID; records with neither are singleton
// groups.
//
// Email grouping takes strict precedence: a record that has an email never
// joins a Stripe-ID group, even if its Stripe ID matches. The partition is a
// pure function of the input set: members within a group are ordered by
// creation time (then ID), and groups by their first member, so shuffling
// the input yields the identical result.
func GroupRecords(records []Record) [][]Record {
	byEmail := make(map[string][]Record)
	byStripeID := make(map[string][]Record)
	var singletons []Record

	for _, rec := range records {
		if rec.Email != nil {
			if key := NormalizeEmail(*rec.Email); key != "" {
				byEmail[key] = append(byEmail[key], rec)
				continue
			}
		}
		if rec.StripeCustomerID != nil && strings.TrimSpace(*rec.StripeCustomerID) != "" {
			byStripeID[strings.TrimSpace(*rec.StripeCustomerID)] = append(byStripeID[strings.TrimSpace(*rec.StripeCustomerID)], rec)
			continue
		}
		singletons = append(singletons, rec)
	}

	groups := make([][]Record, 0, len(byEmail)+len(byStripeID)+len(singletons))
	for _, group := range byEmail {
		groups = append(groups, sortMembers(group))
	}
	for _, group := range byStripeID {
		groups = append(groups, sortMembers(group))
	}
	for _, rec := range singletons {
		groups = append(groups, []Record{rec})
	}

	sort.Slice(groups, func(i, j int) bool {
		return recordBefore(groups[i][0], groups[j][0])
	})

	return groups
}

func sortMembers(group []Record) []Record {
	sorted := append([]Record(nil), group...)
	sort.Slice(sorted, func(i, j int) bool {
		return recordBefore(sorted[i], sorted[j])
	})
	return sorted
}

// recordBefore is the canonical total order over records: creation time
// ascending, ties broken by ID so the order never depends on input order.
func recordBefore(a, b Record) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}
