package project

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

func TestCanFire(t *testing.T) {
	tests := []struct {
		ev   Event
		from Status
		role string
		want bool
	}{
		{EventSubmitProposal, StatusNone, user.RoleStudent, true},
		{EventSubmitProposal, StatusRejected, user.RoleStudent, true},
		{EventSubmitProposal, StatusModificationsRequired, user.RoleStudent, true},
		{EventSubmitProposal, StatusPendingReview, user.RoleStudent, false},
		{EventSubmitProposal, StatusNone, user.RoleCoordinator, false},
		{EventApprove, StatusPendingReview, user.RoleCoordinator, true},
		{EventApprove, StatusAwaitingConsent, user.RoleCoordinator, false},
		{EventApprove, StatusPendingReview, user.RoleSupervisor, false},
		{EventConsentAccept, StatusAwaitingConsent, user.RoleSupervisor, true},
		{EventScheduleDefense, StatusReadyForDefense, user.RoleCoordinator, true},
		{EventScheduleDefense, StatusDefenseChangesRequired, user.RoleCoordinator, true},
		{EventScheduleDefense, StatusDefenseCleared, user.RoleCoordinator, false},
		{EventInitialDefenseMark, StatusDefenseScheduled, user.RoleBoard, true},
		{EventInitialDefenseMark, StatusDefenseScheduled, user.RoleExternal, false},
		{EventSrsSdsMark, StatusDefenseCleared, user.RoleBoard, true},
		{EventScheduleFinalDefense, StatusDevelopment, user.RoleCoordinator, true},
		{EventFinalMark, StatusFinalDefenseScheduled, user.RoleExternal, true},
		{EventFinalMark, StatusCompleted, user.RoleExternal, false},
		{EventFinalMark, StatusFinalDefenseScheduled, user.RoleStudent, false},
		{EventUploadDocument, StatusPendingReview, user.RoleStudent, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanFire(tt.ev, tt.from, tt.role), "%s from %q by %s", tt.ev, tt.from, tt.role)
	}
}

func TestProject_fire(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	coordinator := Actor{ID: "c1", Role: user.RoleCoordinator}
	p := Project{Status: StatusPendingReview}

	require.NoError(t, p.fire(EventApprove, StatusAwaitingConsent, coordinator, "ok", at))
	assert.Equal(t, StatusAwaitingConsent, p.Status)
	assert.Equal(t, at, p.UpdatedAt)
	require.Len(t, p.History, 1)
	assert.Equal(t, HistoryEntry{
		Event: EventApprove, From: StatusPendingReview, To: StatusAwaitingConsent,
		ActorID: "c1", ActorRole: user.RoleCoordinator, Note: "ok", At: at,
	}, p.History[0])

	// the same event cannot be fired twice
	err := p.fire(EventApprove, StatusAwaitingConsent, coordinator, "", at)
	assert.True(t, core.IsConflict(err))
	assert.Equal(t, StatusAwaitingConsent, p.Status)
	assert.Len(t, p.History, 1)

	// wrong role
	err = p.fire(EventConsentAccept, StatusReadyForDefense, coordinator, "", at)
	assert.True(t, core.IsPermissionDenied(err))

	// target outside of the transitions table
	err = p.fire(EventConsentAccept, StatusCompleted, Actor{ID: "s1", Role: user.RoleSupervisor}, "", at)
	assert.True(t, core.IsConflict(err))
	assert.Equal(t, StatusAwaitingConsent, p.Status)
}

func TestAvailableEvents(t *testing.T) {
	p := Project{Status: StatusPendingReview}
	assert.Equal(t, []Event{EventApprove, EventReject, EventRequestChanges}, AvailableEvents(p, user.RoleCoordinator))
	assert.Empty(t, AvailableEvents(p, user.RoleStudent))

	p.Status = StatusFinalDefenseScheduled
	assert.Equal(t, []Event{EventFinalMark}, AvailableEvents(p, user.RoleSupervisor))
}

func TestParseStatus(t *testing.T) {
	tests := map[string]Status{
		"pending coordinator review": StatusPendingReview,
		" Defense Cleared ":          StatusDefenseCleared,
		"Changes Required":           StatusModificationsRequired,
		"final defense pending":      StatusFinalDefenseScheduled,
	}
	for s, want := range tests {
		got, ok := ParseStatus(s)
		assert.True(t, ok, s)
		assert.Equal(t, want, got)
	}
	_, ok := ParseStatus("archived")
	assert.False(t, ok)
}
