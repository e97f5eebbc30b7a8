package project

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

func TestStage_CheckMark(t *testing.T) {
	tests := []struct {
		stage  Stage
		mark   float64
		wantOK bool
	}{
		{StageInitialDefense, 0, true},
		{StageInitialDefense, 2.5, true},
		{StageInitialDefense, 5, true},
		{StageInitialDefense, 5.01, false},
		{StageInitialDefense, 7, false},
		{StageInitialDefense, -0.5, false},
		{StageSrsSds, 5, true},
		{StageSrsSds, 6, false},
		{StageFinal, 0, true},
		{StageFinal, 28, true},
		{StageFinal, 30, true},
		{StageFinal, 30.5, false},
		{StageFinal, -1, false},
		{StageFinal, math.NaN(), false},
		{StageFinal, math.Inf(1), false},
	}
	for _, tt := range tests {
		err := tt.stage.CheckMark(tt.mark)
		if tt.wantOK {
			assert.NoError(t, err, "%s %g", tt.stage, tt.mark)
			continue
		}
		if assert.Error(t, err, "%s %g", tt.stage, tt.mark) {
			vErr, ok := err.(*core.ValidationError)
			if assert.True(t, ok) && assert.Len(t, vErr.Fields, 1) {
				assert.Equal(t, "mark", vErr.Fields[0].Field)
			}
		}
	}
}

func TestStage_Slot(t *testing.T) {
	slot, ok := StageInitialDefense.Slot(user.RoleBoard)
	assert.True(t, ok)
	assert.Equal(t, SlotPanel, slot)

	_, ok = StageInitialDefense.Slot(user.RoleCoordinator)
	assert.False(t, ok)
	_, ok = StageSrsSds.Slot(user.RoleExternal)
	assert.False(t, ok)

	for role, want := range map[string]string{
		user.RoleCoordinator: SlotCoordinator,
		user.RoleSupervisor:  SlotSupervisor,
		user.RoleBoard:       SlotPanel,
		user.RoleExternal:    SlotExternal,
	} {
		slot, ok = StageFinal.Slot(role)
		assert.True(t, ok, role)
		assert.Equal(t, want, slot)
	}
	_, ok = StageFinal.Slot(user.RoleStudent)
	assert.False(t, ok)
}

func TestComputeFinalGrade(t *testing.T) {
	marks := Marks{
		SlotCoordinator: {Mark: 25},
		SlotSupervisor:  {Mark: 27.5},
		SlotPanel:       {Mark: 20},
		SlotExternal:    {Mark: 28},
	}
	assert.True(t, marks.IsComplete(FinalSlots...))
	assert.Equal(t, FinalGrade{Total: 100.5, Average: 25.13, Percentage: 83.75}, ComputeFinalGrade(marks))

	delete(marks, SlotExternal)
	assert.False(t, marks.IsComplete(FinalSlots...))
}

func TestParseStage(t *testing.T) {
	st, ok := ParseStage(" Initial-Defense ")
	assert.True(t, ok)
	assert.Equal(t, StageInitialDefense, st)

	_, ok = ParseStage("midterm")
	assert.False(t, ok)
}
