package project

import (
	"fmt"
	"time"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

// Event is a workflow operation recorded in a project's history.
type Event string

const (
	EventSubmitProposal       Event = "submit-proposal"
	EventApprove              Event = "approve"
	EventReject               Event = "reject"
	EventRequestChanges       Event = "request-changes"
	EventConsentAccept        Event = "consent-accept"
	EventConsentDecline       Event = "consent-decline"
	EventScheduleDefense      Event = "schedule-defense"
	EventInitialDefenseMark   Event = "initial-defense-mark"
	EventSrsSdsMark           Event = "srs-sds-mark"
	EventScheduleFinalDefense Event = "schedule-final-defense"
	EventFinalMark            Event = "final-mark"

	// events that never change the status
	EventUploadDocument      Event = "upload-document"
	EventRequestSrsSdsReview Event = "request-srs-sds-review"
	EventRequestMeeting      Event = "request-meeting"
	EventRecordMeeting       Event = "record-meeting"
)

type transition struct {
	from  []Status
	roles []string
	to    []Status
}

// transitions is the single source of truth of the allowed status changes.
var transitions = map[Event]transition{
	EventSubmitProposal: {
		from:  []Status{StatusNone, StatusModificationsRequired, StatusRejected},
		roles: []string{user.RoleStudent},
		to:    []Status{StatusPendingReview},
	},
	EventApprove: {
		from:  []Status{StatusPendingReview},
		roles: []string{user.RoleCoordinator},
		to:    []Status{StatusAwaitingConsent},
	},
	EventReject: {
		from:  []Status{StatusPendingReview},
		roles: []string{user.RoleCoordinator},
		to:    []Status{StatusRejected},
	},
	EventRequestChanges: {
		from:  []Status{StatusPendingReview},
		roles: []string{user.RoleCoordinator},
		to:    []Status{StatusModificationsRequired},
	},
	EventConsentAccept: {
		from:  []Status{StatusAwaitingConsent},
		roles: []string{user.RoleSupervisor},
		to:    []Status{StatusReadyForDefense},
	},
	EventConsentDecline: {
		from:  []Status{StatusAwaitingConsent},
		roles: []string{user.RoleSupervisor},
		to:    []Status{StatusRejected},
	},
	EventScheduleDefense: {
		from:  []Status{StatusReadyForDefense, StatusDefenseChangesRequired},
		roles: []string{user.RoleCoordinator},
		to:    []Status{StatusDefenseScheduled},
	},
	EventInitialDefenseMark: {
		from:  []Status{StatusDefenseScheduled},
		roles: []string{user.RoleBoard},
		to:    []Status{StatusDefenseCleared, StatusDefenseChangesRequired},
	},
	EventSrsSdsMark: {
		from:  []Status{StatusDefenseCleared},
		roles: []string{user.RoleBoard},
		to:    []Status{StatusDevelopment, StatusDefenseCleared},
	},
	EventScheduleFinalDefense: {
		from:  []Status{StatusDevelopment},
		roles: []string{user.RoleCoordinator},
		to:    []Status{StatusFinalDefenseScheduled},
	},
	EventFinalMark: {
		from:  []Status{StatusFinalDefenseScheduled},
		roles: []string{user.RoleCoordinator, user.RoleSupervisor, user.RoleBoard, user.RoleExternal},
		to:    []Status{StatusFinalDefenseScheduled, StatusCompleted},
	},
}

// ErrInvalidTransition is the cause of every rejected status change.
type ErrInvalidTransition struct {
	Event Event
	From  Status
}

func (e ErrInvalidTransition) Error() string {
	from := string(e.From)
	if from == "" {
		from = "no project"
	}
	return fmt.Sprintf("%s is not allowed while the project is %q", e.Event, from)
}

// CanFire reports whether the event may be fired by a user with the given role from the given status.
func CanFire(ev Event, from Status, role string) bool {
	tr, ok := transitions[ev]
	return ok && from.In(tr.from...) && contains(tr.roles, role)
}

// checkEvent verifies that the event applies to the current status and may be fired by the actor's role.
func checkEvent(ev Event, from Status, actor Actor) error {
	tr, ok := transitions[ev]
	if !ok {
		return core.NewConflictError(fmt.Sprintf("unknown event %q", ev))
	}
	if !contains(tr.roles, actor.Role) {
		return errPermissionDenied
	}
	if !from.In(tr.from...) {
		return core.NewConflictError(ErrInvalidTransition{Event: ev, From: from}.Error())
	}
	return nil
}

// fire moves the project to the `to` status through the event, after checking it against the transitions table,
// and records it in the project's history.
func (p *Project) fire(ev Event, to Status, actor Actor, note string, at time.Time) error {
	if err := checkEvent(ev, p.Status, actor); err != nil {
		return err
	}
	if !to.In(transitions[ev].to...) {
		return core.NewConflictError(fmt.Sprintf("%s cannot lead to %q", ev, to))
	}
	p.record(ev, to, actor, note, at)
	p.Status = to
	return nil
}

// record appends an entry to the project's history, without checking the transitions table.
func (p *Project) record(ev Event, to Status, actor Actor, note string, at time.Time) {
	p.History = append(p.History, HistoryEntry{
		Event:     ev,
		From:      p.Status,
		To:        to,
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Note:      note,
		At:        at,
	})
	p.UpdatedAt = at
}

// AvailableEvents lists the status events the role may fire on the project in its current status.
func AvailableEvents(p Project, role string) []Event {
	events := make([]Event, 0)
	for _, ev := range []Event{
		EventSubmitProposal, EventApprove, EventReject, EventRequestChanges, EventConsentAccept, EventConsentDecline,
		EventScheduleDefense, EventInitialDefenseMark, EventSrsSdsMark, EventScheduleFinalDefense, EventFinalMark,
	} {
		if CanFire(ev, p.Status, role) {
			events = append(events, ev)
		}
	}
	return events
}

func contains(values []string, v string) bool {
	for _, val := range values {
		if val == v {
			return true
		}
	}
	return false
}
