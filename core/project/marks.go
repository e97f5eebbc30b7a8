package project

import (
	"fmt"
	"math"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

// Stage is an evaluation stage of the project.
type Stage string

const (
	StageInitialDefense Stage = "initial-defense"
	StageSrsSds         Stage = "srs-sds"
	StageFinal          Stage = "final"
)

var AllStages = []Stage{StageInitialDefense, StageSrsSds, StageFinal}

// Evaluator slots
const (
	SlotCoordinator = "coordinator"
	SlotSupervisor  = "supervisor"
	SlotPanel       = "panel"
	SlotExternal    = "external"
)

const (
	// PassMark is the minimum mark to clear the initial defense & the SRS/SDS review.
	PassMark = 2.5

	maxStageMark = 5.
	maxFinalMark = 30.
)

var (
	FinalSlots = []string{SlotCoordinator, SlotSupervisor, SlotPanel, SlotExternal}

	stageSlots = map[Stage]map[string]string{ // {stage: {role: slot}}
		StageInitialDefense: {user.RoleBoard: SlotPanel},
		StageSrsSds:         {user.RoleBoard: SlotPanel},
		StageFinal: {
			user.RoleCoordinator: SlotCoordinator,
			user.RoleSupervisor:  SlotSupervisor,
			user.RoleBoard:       SlotPanel,
			user.RoleExternal:    SlotExternal,
		},
	}
)

func ParseStage(s string) (Stage, bool) {
	s = core.CleanString(s, true /* lower */)
	for _, st := range AllStages {
		if string(st) == s {
			return st, true
		}
	}
	return "", false
}

// MaxMark returns the upper bound of the marks of the stage (the lower bound is always 0).
func (s Stage) MaxMark() float64 {
	if s == StageFinal {
		return maxFinalMark
	}
	return maxStageMark
}

// CheckMark verifies that the mark is a number within the stage bounds.
func (s Stage) CheckMark(mark float64) error {
	if math.IsNaN(mark) || math.IsInf(mark, 0) || mark < 0 || mark > s.MaxMark() {
		text := fmt.Sprintf("mark must be between 0 and %g", s.MaxMark())
		return core.NewValidationError(nil, core.FieldError{Field: "mark", Error: text})
	}
	return nil
}

// Slot returns the evaluator slot a role fills at the stage.
func (s Stage) Slot(role string) (string, bool) {
	slot, ok := stageSlots[s][role]
	return slot, ok
}

// Statuses returns the project statuses in which the stage is relevant.
func (s Stage) Statuses() []Status {
	switch s {
	case StageInitialDefense:
		return []Status{StatusReadyForDefense, StatusDefenseScheduled, StatusDefenseChangesRequired, StatusDefenseCleared}
	case StageFinal:
		return []Status{StatusFinalDefenseScheduled, StatusCompleted}
	}
	return nil
}

// IsComplete reports whether all the given slots are populated.
func (m Marks) IsComplete(slots ...string) bool {
	for _, slot := range slots {
		if _, ok := m[slot]; !ok {
			return false
		}
	}
	return true
}

// ComputeFinalGrade aggregates the four final-defense marks. Values are rounded to two decimals.
func ComputeFinalGrade(marks Marks) FinalGrade {
	var total float64
	for _, slot := range FinalSlots {
		total += marks[slot].Mark
	}
	maxTotal := maxFinalMark * float64(len(FinalSlots))
	return FinalGrade{
		Total:      round2(total),
		Average:    round2(total / float64(len(FinalSlots))),
		Percentage: round2(total / maxTotal * 100),
	}
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
