package project

import (
	"strings"
	"time"

	"github.com/trezcool/fyp/core"
)

// Status is the lifecycle state of a project.
type Status string

const (
	StatusNone                   Status = ""
	StatusPendingReview          Status = "Pending Coordinator Review"
	StatusModificationsRequired  Status = "Modifications Required"
	StatusRejected               Status = "Rejected"
	StatusAwaitingConsent        Status = "Approved - Waiting for Supervisor Consent"
	StatusReadyForDefense        Status = "Approved - Ready for Defense"
	StatusDefenseScheduled       Status = "Scheduled for Defense"
	StatusDefenseChangesRequired Status = "Defense Changes Required"
	StatusDefenseCleared         Status = "Defense Cleared"
	StatusDevelopment            Status = "Development Phase"
	StatusFinalDefenseScheduled  Status = "Final Defense Scheduled"
	StatusCompleted              Status = "Project Completed"
)

var (
	AllStatuses = []Status{
		StatusPendingReview,
		StatusModificationsRequired,
		StatusRejected,
		StatusAwaitingConsent,
		StatusReadyForDefense,
		StatusDefenseScheduled,
		StatusDefenseChangesRequired,
		StatusDefenseCleared,
		StatusDevelopment,
		StatusFinalDefenseScheduled,
		StatusCompleted,
	}

	// EvaluationStatuses are visible to the evaluation board & external examiners.
	EvaluationStatuses = []Status{
		StatusReadyForDefense,
		StatusDefenseScheduled,
		StatusDefenseChangesRequired,
		StatusDefenseCleared,
		StatusDevelopment,
		StatusFinalDefenseScheduled,
		StatusCompleted,
	}

	statusAliases = map[string]Status{
		"changes required":      StatusModificationsRequired,
		"final defense pending": StatusFinalDefenseScheduled,
	}
)

// ParseStatus returns the canonical Status matching s (case-insensitive, aliases accepted).
func ParseStatus(s string) (Status, bool) {
	s = core.CleanString(s, true /* lower */)
	for _, st := range AllStatuses {
		if strings.ToLower(string(st)) == s {
			return st, true
		}
	}
	st, ok := statusAliases[s]
	return st, ok
}

func (s Status) In(statuses ...Status) bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}

// SrsSdsStatus tracks the SRS/SDS review round, independently of the project Status.
type SrsSdsStatus string

const (
	SrsSdsNone            SrsSdsStatus = ""
	SrsSdsSubmitted       SrsSdsStatus = "Submitted"
	SrsSdsApproved        SrsSdsStatus = "Approved"
	SrsSdsChangesRequired SrsSdsStatus = "Changes Required"
)

// Meeting statuses of the weekly logs
const (
	MeetingRequested = "Requested"
	MeetingHeld      = "Held"
	MeetingMissed    = "Missed"
	MeetingCancelled = "Cancelled"
)

var MeetingStatuses = []string{MeetingRequested, MeetingHeld, MeetingMissed, MeetingCancelled}

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID   string
	Role string
}

type (
	Documents struct {
		ProposalURL     string `json:"proposal_url,omitempty"`
		PresentationURL string `json:"presentation_url,omitempty"`
		SrsURL          string `json:"srs_url,omitempty"`
		SdsURL          string `json:"sds_url,omitempty"`
	}

	Consent struct {
		Signature string     `json:"signature,omitempty"`
		Agreed    bool       `json:"agreed"`
		SignedAt  *time.Time `json:"signed_at,omitempty"`
		Feedback  string     `json:"feedback,omitempty"`
	}

	// Evaluation is the mark given by one evaluator.
	Evaluation struct {
		Mark        float64   `json:"mark"`
		Feedback    string    `json:"feedback,omitempty"`
		EvaluatorID string    `json:"evaluator_id"`
		SubmittedAt time.Time `json:"submitted_at"`
	}

	// Marks are keyed by evaluator slot.
	Marks map[string]Evaluation

	FinalGrade struct {
		Total      float64 `json:"total"`
		Average    float64 `json:"average"`
		Percentage float64 `json:"percentage"`
	}

	FinalDefense struct {
		ScheduledDate *time.Time  `json:"scheduled_date,omitempty"`
		FinalPptURL   string      `json:"final_ppt_url,omitempty"`
		Marks         Marks       `json:"marks"`
		Result        *FinalGrade `json:"result,omitempty"`
	}

	WeeklyLog struct {
		WeekNumber    int       `json:"week_number"`
		MeetingDate   time.Time `json:"meeting_date"`
		MeetingStatus string    `json:"meeting_status"`
		Content       string    `json:"content,omitempty"`
		RecordedBy    string    `json:"recorded_by"`
	}

	HistoryEntry struct {
		Event     Event     `json:"event"`
		From      Status    `json:"from"`
		To        Status    `json:"to"`
		ActorID   string    `json:"actor_id"`
		ActorRole string    `json:"actor_role"`
		Note      string    `json:"note,omitempty"`
		At        time.Time `json:"at"`
	}

	// Attempt is an archived evaluation round.
	Attempt struct {
		Stage      Stage      `json:"stage"`
		Date       *time.Time `json:"date,omitempty"`
		Marks      Marks      `json:"marks"`
		ArchivedAt time.Time  `json:"archived_at"`
	}

	Project struct {
		ID                     string         `json:"id"`
		LeaderID               string         `json:"leader_id"`
		Title                  string         `json:"title"`
		Description            string         `json:"description,omitempty"`
		ProposedSupervisorName string         `json:"proposed_supervisor_name,omitempty"`
		SupervisorID           string         `json:"supervisor_id,omitempty"`
		Status                 Status         `json:"status"`
		SrsSdsStatus           SrsSdsStatus   `json:"srs_sds_status"`
		Documents              Documents      `json:"documents"`
		CoordinatorFeedback    string         `json:"coordinator_feedback,omitempty"`
		Consent                Consent        `json:"consent"`
		DefenseDate            *time.Time     `json:"defense_date,omitempty"`
		InitialDefenseMarks    Marks          `json:"initial_defense_marks"`
		SrsSdsReviewMarks      Marks          `json:"srs_sds_review_marks"`
		FinalDefense           FinalDefense   `json:"final_defense"`
		WeeklyLogs             []WeeklyLog    `json:"weekly_logs"`
		History                []HistoryEntry `json:"history"`
		PreviousAttempts       []Attempt      `json:"previous_attempts"`
		CreatedAt              time.Time      `json:"created_at"` // UTC
		UpdatedAt              time.Time      `json:"updated_at"` // UTC
	}
)

func (m Marks) clone() Marks {
	res := make(Marks, len(m))
	for k, v := range m {
		res[k] = v
	}
	return res
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

// Clone returns a deep copy of the project, so that it can be mutated without touching the original.
func (p Project) Clone() Project {
	c := p
	c.Consent.SignedAt = cloneTime(p.Consent.SignedAt)
	c.DefenseDate = cloneTime(p.DefenseDate)
	c.InitialDefenseMarks = p.InitialDefenseMarks.clone()
	c.SrsSdsReviewMarks = p.SrsSdsReviewMarks.clone()
	c.FinalDefense.ScheduledDate = cloneTime(p.FinalDefense.ScheduledDate)
	c.FinalDefense.Marks = p.FinalDefense.Marks.clone()
	if p.FinalDefense.Result != nil {
		res := *p.FinalDefense.Result
		c.FinalDefense.Result = &res
	}
	c.WeeklyLogs = append([]WeeklyLog{}, p.WeeklyLogs...)
	c.History = append([]HistoryEntry{}, p.History...)
	c.PreviousAttempts = make([]Attempt, len(p.PreviousAttempts))
	for i, a := range p.PreviousAttempts {
		a.Date = cloneTime(a.Date)
		a.Marks = a.Marks.clone()
		c.PreviousAttempts[i] = a
	}
	return c
}

// IsLedBy reports whether the student leads the project.
func (p Project) IsLedBy(studentID string) bool { return p.LeaderID == studentID }

// IsSupervisedBy reports whether the supervisor is assigned to the project.
func (p Project) IsSupervisedBy(supervisorID string) bool {
	return p.SupervisorID != "" && p.SupervisorID == supervisorID
}

// NewProposal contains the proposal fields submitted along with the proposal document.
type NewProposal struct {
	Title                  string `json:"title" form:"title" validate:"required,max=255"`
	Description            string `json:"description" form:"description" validate:"max=5000"`
	ProposedSupervisorName string `json:"proposed_supervisor_name" form:"proposed_supervisor_name" validate:"max=255"`
}

func (np *NewProposal) Clean() {
	np.Title = core.CleanString(np.Title)
	np.Description = core.CleanString(np.Description)
	np.ProposedSupervisorName = core.CleanString(np.ProposedSupervisorName)
}

type QueryFilter struct {
	Search       string   `query:"search"`
	Statuses     []Status `query:"status"`
	SupervisorID string   `query:"supervisor_id"`
	LeaderID     string   `query:"leader_id"`
	// HasSrsSdsReview only keeps the projects whose SRS/SDS review round was opened.
	HasSrsSdsReview bool `query:"-"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Statuses == nil && qf.SupervisorID == "" && qf.LeaderID == "" && !qf.HasSrsSdsReview
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.SupervisorID = core.CleanString(qf.SupervisorID)
	qf.LeaderID = core.CleanString(qf.LeaderID)
	statuses := qf.Statuses[:0]
	for _, s := range qf.Statuses {
		if st, ok := ParseStatus(string(s)); ok {
			statuses = append(statuses, st)
		}
	}
	if len(qf.Statuses) > 0 && len(statuses) == 0 {
		statuses = []Status{"-"} // none of the requested statuses exist: match nothing
	}
	qf.Statuses = statuses
}

// Match reports whether p satisfies all the set fields of the filter.
// Search does a case-insensitive match on Project.Title or Project.ProposedSupervisorName.
func (qf *QueryFilter) Match(p Project) bool {
	if qf.Search != "" {
		s := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(p.Title), s) ||
			strings.Contains(strings.ToLower(p.ProposedSupervisorName), s)) {
			return false
		}
	}
	if len(qf.Statuses) > 0 && !p.Status.In(qf.Statuses...) {
		return false
	}
	if qf.SupervisorID != "" && p.SupervisorID != qf.SupervisorID {
		return false
	}
	if qf.LeaderID != "" && p.LeaderID != qf.LeaderID {
		return false
	}
	if qf.HasSrsSdsReview && p.SrsSdsStatus == SrsSdsNone {
		return false
	}
	return true
}
