// Package domain provides core business rules for the clients bounded context:
// lifecycle stages, identity consolidation, state arbitration, and kanban
// board ordering. Everything in this package is pure and side-effect free.
package domain

import "time"

// Stage is a client's lifecycle pipeline stage.
type Stage string

const (
	StageColdLead    Stage = "cold_lead"
	StageWarmLead    Stage = "warm_lead"
	StageActive      Stage = "active"
	StageOffboarding Stage = "offboarding"
	StageDead        Stage = "dead"
)

// Program progress thresholds driving automatic stage transitions.
// A client at or past the end of their program is dead; one in the final
// quarter is offboarding. These overrides always beat activity priority.
const (
	ProgressOffboardingThreshold = 75.0
	ProgressDeadThreshold        = 100.0
)

// stagePriority orders stages by commercial "aliveness". Higher wins when
// arbitrating conflicting duplicate records.
var stagePriority = map[Stage]int{
	StageActive:      4,
	StageWarmLead:    3,
	StageColdLead:    2,
	StageOffboarding: 1,
	StageDead:        0,
}

// AllStages returns the stages in board column order.
func AllStages() []Stage {
	return []Stage{StageColdLead, StageWarmLead, StageActive, StageOffboarding, StageDead}
}

// IsKnownStage reports whether stage is a member of the closed enumeration.
func IsKnownStage(stage Stage) bool {
	_, ok := stagePriority[stage]
	return ok
}

// StageFromProgress returns the stage forced by a program progress percentage,
// if any. Progress >= 100 forces dead; 75 <= progress < 100 forces offboarding.
func StageFromProgress(progress *float64) (Stage, bool) {
	if progress == nil {
		return "", false
	}
	switch {
	case *progress >= ProgressDeadThreshold:
		return StageDead, true
	case *progress >= ProgressOffboardingThreshold:
		return StageOffboarding, true
	default:
		return "", false
	}
}

// ArbitrateStage resolves a single lifecycle stage for a group of records
// believed to be the same person, evaluated at the given time.
//
// Progress overrides win first: any member with a completed program makes the
// merged entity dead, any member in the final program quarter makes it
// offboarding. Otherwise the member stage with the highest activity priority
// wins. Ties between equal-priority stages are impossible since priority is a
// total order over the enumeration; any consistent tie-break would do.
func ArbitrateStage(group []Record, at time.Time) Stage {
	if len(group) == 0 {
		return StageColdLead
	}

	anyOffboarding := false
	for i := range group {
		forced, ok := StageFromProgress(group[i].ProgressPercentAt(at))
		if !ok {
			continue
		}
		if forced == StageDead {
			return StageDead
		}
		anyOffboarding = true
	}
	if anyOffboarding {
		return StageOffboarding
	}

	best := group[0].Stage
	for _, rec := range group[1:] {
		if stagePriority[rec.Stage] > stagePriority[best] {
			best = rec.Stage
		}
	}
	return best
}
