package project

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/fyp/core"
)

// Decision is a coordinator's review outcome.
type Decision string

const (
	DecisionApprove        Decision = "approve"
	DecisionReject         Decision = "reject"
	DecisionRequestChanges Decision = "request-changes"
)

var AllDecisions = []Decision{DecisionApprove, DecisionReject, DecisionRequestChanges}

type ReviewDecision struct {
	Decision     string `json:"decision" validate:"required,decision"`
	SupervisorID string `json:"supervisor_id" validate:"required_if=Decision approve"`
	Feedback     string `json:"feedback" validate:"required_if=Decision request-changes,max=5000"`
}

func (rd *ReviewDecision) Validate(validate *validator.Validate) error {
	rd.Decision = core.CleanString(rd.Decision, true /* lower */)
	rd.SupervisorID = core.CleanString(rd.SupervisorID)
	rd.Feedback = core.CleanString(rd.Feedback)
	return validate.Struct(rd)
}

type ConsentData struct {
	Agreed    *bool  `json:"agreed" validate:"required"`
	Signature string `json:"signature" validate:"max=255"`
	Feedback  string `json:"feedback" validate:"max=5000"`
}

func (cd *ConsentData) Validate(validate *validator.Validate) error {
	cd.Signature = core.CleanString(cd.Signature)
	cd.Feedback = core.CleanString(cd.Feedback)
	return validate.Struct(cd)
}

type ScheduleData struct {
	Date time.Time `json:"date" validate:"required"`
	Note string    `json:"note" validate:"max=1000"`
}

func (sd *ScheduleData) Validate(validate *validator.Validate) error {
	return validate.Struct(sd)
}

func (sd ScheduleData) check() error {
	if sd.Date.IsZero() {
		return core.NewValidationError(nil, core.FieldError{Field: "date", Error: "this field is required"})
	}
	return nil
}

// MarkSubmission is an evaluator's mark. Role must match the authenticated user's role.
type MarkSubmission struct {
	Role     string   `json:"role" validate:"required"`
	Mark     *float64 `json:"mark" validate:"required,finite"`
	Feedback string   `json:"feedback" validate:"max=5000"`
}

func (ms *MarkSubmission) Validate(validate *validator.Validate) error {
	ms.Role = core.CleanString(ms.Role, true /* lower */)
	ms.Feedback = core.CleanString(ms.Feedback)
	return validate.Struct(ms)
}

type MeetingRequest struct {
	MeetingDate time.Time `json:"meeting_date" validate:"required"`
	Content     string    `json:"content" validate:"max=5000"`
}

func (mr *MeetingRequest) Validate(validate *validator.Validate) error {
	mr.Content = core.CleanString(mr.Content)
	return validate.Struct(mr)
}

type MeetingRecord struct {
	WeekNumber    int       `json:"week_number" validate:"required,min=1"`
	MeetingDate   time.Time `json:"meeting_date"`
	MeetingStatus string    `json:"meeting_status" validate:"required,meetingstatus"`
	Content       string    `json:"content" validate:"max=5000"`
}

func (mr *MeetingRecord) Validate(validate *validator.Validate) error {
	mr.Content = core.CleanString(mr.Content)
	return validate.Struct(mr)
}
