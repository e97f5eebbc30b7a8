package project

import (
	"context"
	"fmt"
	"io"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("project not found")
	ErrDocumentNotFound = core.NewNotFoundError("document not found")
	ErrLeaderHasProject = errors.New("this student already leads a project")

	errPermissionDenied     = core.NewPermissionError("permission denied")
	errRoleMismatch         = core.NewPermissionError("role does not match the authenticated user")
	errMarkAlreadySubmitted = core.NewConflictError("a mark has already been submitted for this role at this stage")
)

type (
	Repository interface {
		// CreateProject returns ErrLeaderHasProject if the leader already has a project.
		CreateProject(ctx context.Context, p Project) (Project, error)
		GetProjectByID(ctx context.Context, id string) (Project, error)
		GetProjectByLeader(ctx context.Context, leaderID string) (Project, error)
		// QueryProjects applies AND operation on available QueryFilter fields.
		QueryProjects(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]Project, error)
		UpdateProject(ctx context.Context, p Project) (Project, error)
	}

	// UserFinder looks up the accounts involved in a project.
	UserFinder interface {
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	Service interface {
		SubmitProposal(ctx context.Context, actor Actor, data NewProposal, doc Document) (Project, error)
		UploadDocument(ctx context.Context, actor Actor, docType DocType, doc Document) (Project, error)
		Review(ctx context.Context, actor Actor, id string, data ReviewDecision) (Project, error)
		Consent(ctx context.Context, actor Actor, id string, data ConsentData) (Project, error)
		ScheduleDefense(ctx context.Context, actor Actor, id string, data ScheduleData) (Project, error)
		SubmitMark(ctx context.Context, actor Actor, id string, stage Stage, data MarkSubmission) (Project, error)
		RequestSrsSdsReview(ctx context.Context, actor Actor) (Project, error)
		ScheduleFinalDefense(ctx context.Context, actor Actor, id string, data ScheduleData) (Project, error)
		RequestMeeting(ctx context.Context, actor Actor, data MeetingRequest) (Project, error)
		RecordMeeting(ctx context.Context, actor Actor, id string, data MeetingRecord) (Project, error)

		Get(ctx context.Context, actor Actor, id string) (Project, error)
		// GetByStudent returns nil (and no error) when the student has no project.
		GetByStudent(ctx context.Context, actor Actor, studentID string) (*Project, error)
		Query(ctx context.Context, actor Actor, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error)
		QueryByStage(ctx context.Context, actor Actor, stage Stage, ordering []core.DBOrdering) ([]Project, error)
		OpenDocument(ctx context.Context, actor Actor, docPath string) (io.ReadCloser, error)
		CountByStatus(ctx context.Context) (map[Status]int, error)
	}

	service struct {
		repo    Repository
		users   UserFinder
		files   core.FileStore
		mailSvc core.EmailService
		now     func() time.Time // mockable
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, users UserFinder, files core.FileStore, mailSvc core.EmailService) Service {
	return &service{
		repo:    repo,
		users:   users,
		files:   files,
		mailSvc: mailSvc,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Mutations: every operation loads the project, validates, mutates a copy and saves it once.

func (svc *service) SubmitProposal(ctx context.Context, actor Actor, data NewProposal, doc Document) (Project, error) {
	if actor.Role != user.RoleStudent {
		return Project{}, errPermissionDenied
	}
	data.Clean()
	if data.Title == "" {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "title", Error: "this field is required"})
	}
	if err := doc.check(DocProposal); err != nil {
		return Project{}, err
	}

	orig, err := svc.repo.GetProjectByLeader(ctx, actor.ID)
	isNew := core.IsNotFound(err)
	if err != nil && !isNew {
		return Project{}, errors.Wrap(err, "finding project by leader")
	}

	now := svc.now()
	p := orig.Clone()
	if isNew {
		p = Project{
			ID:                  uuid.NewString(),
			LeaderID:            actor.ID,
			InitialDefenseMarks: Marks{},
			SrsSdsReviewMarks:   Marks{},
			FinalDefense:        FinalDefense{Marks: Marks{}},
			WeeklyLogs:          []WeeklyLog{},
			History:             []HistoryEntry{},
			PreviousAttempts:    []Attempt{},
			CreatedAt:           now,
		}
	}
	if !uploadWindow(DocProposal, p) {
		return Project{}, core.NewConflictError(ErrInvalidTransition{Event: EventSubmitProposal, From: p.Status}.Error())
	}

	p.Title = data.Title
	p.Description = data.Description
	p.ProposedSupervisorName = data.ProposedSupervisorName

	if p.Status == StatusPendingReview {
		// not reviewed yet: only the proposal is replaced
		p.record(EventUploadDocument, p.Status, actor, string(DocProposal), now)
	} else {
		if err := p.fire(EventSubmitProposal, StatusPendingReview, actor, "", now); err != nil {
			return Project{}, err
		}
		p.Consent = Consent{}
		p.CoordinatorFeedback = ""
	}

	url, err := svc.files.Save(ctx, storageKey(p.ID, DocProposal, doc.Name), doc.Content)
	if err != nil {
		return Project{}, errors.Wrap(err, "saving proposal")
	}
	url = NormalizePath(url)
	p.setDocument(DocProposal, url)

	if isNew {
		p, err = svc.repo.CreateProject(ctx, p)
	} else {
		p, err = svc.repo.UpdateProject(ctx, p)
	}
	if err != nil {
		svc.discardFile(ctx, url, orig.Documents.ProposalURL)
		if errors.Cause(err) == ErrLeaderHasProject {
			return Project{}, core.NewConflictError(ErrLeaderHasProject.Error())
		}
		return Project{}, errors.Wrap(err, "saving project")
	}
	svc.notify(ctx, orig.Status, p)
	return p, nil
}

func (svc *service) UploadDocument(ctx context.Context, actor Actor, docType DocType, doc Document) (Project, error) {
	if docType == DocProposal {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "doc_type", Error: "proposals are submitted along with the proposal fields"})
	}
	if _, ok := docExtensions[docType]; !ok {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "doc_type", Error: "invalid document type"})
	}
	if actor.Role != user.RoleStudent {
		return Project{}, errPermissionDenied
	}
	if err := doc.check(docType); err != nil {
		return Project{}, err
	}

	orig, err := svc.repo.GetProjectByLeader(ctx, actor.ID)
	if err != nil {
		return Project{}, err
	}
	if !uploadWindow(docType, orig) {
		return Project{}, core.NewConflictError(fmt.Sprintf("%s cannot be uploaded while the project is %q", docType, orig.Status))
	}

	p := orig.Clone()
	url, err := svc.files.Save(ctx, storageKey(p.ID, docType, doc.Name), doc.Content)
	if err != nil {
		return Project{}, errors.Wrap(err, "saving document")
	}
	url = NormalizePath(url)
	p.setDocument(docType, url)
	p.record(EventUploadDocument, p.Status, actor, string(docType), svc.now())

	p, err = svc.repo.UpdateProject(ctx, p)
	if err != nil {
		svc.discardFile(ctx, url, orig.documentURL(docType))
		return Project{}, errors.Wrap(err, "saving project")
	}
	return p, nil
}

// discardFile removes a stored file the project record failed to reference, unless it is still the previous one.
func (svc *service) discardFile(ctx context.Context, path, prev string) {
	if path == prev {
		return
	}
	_ = svc.files.Delete(ctx, path)
}

func (svc *service) Review(ctx context.Context, actor Actor, id string, data ReviewDecision) (Project, error) {
	orig, err := svc.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}

	p := orig.Clone()
	now := svc.now()
	feedback := core.CleanString(data.Feedback)

	switch Decision(core.CleanString(data.Decision, true /* lower */)) {
	case DecisionApprove:
		if err = checkEvent(EventApprove, p.Status, actor); err != nil {
			return Project{}, err
		}
		supervisor, err := svc.getSupervisor(ctx, core.CleanString(data.SupervisorID))
		if err != nil {
			return Project{}, err
		}
		p.SupervisorID = supervisor.ID
		err = p.fire(EventApprove, StatusAwaitingConsent, actor, feedback, now)
		if err != nil {
			return Project{}, err
		}
	case DecisionReject:
		if err = p.fire(EventReject, StatusRejected, actor, feedback, now); err != nil {
			return Project{}, err
		}
	case DecisionRequestChanges:
		if err = p.fire(EventRequestChanges, StatusModificationsRequired, actor, feedback, now); err != nil {
			return Project{}, err
		}
	default:
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "decision", Error: decisionText})
	}
	p.CoordinatorFeedback = feedback

	return svc.save(ctx, orig.Status, p)
}

// getSupervisor returns the active supervisor account with the given ID.
func (svc *service) getSupervisor(ctx context.Context, id string) (user.User, error) {
	errNoSupervisor := core.NewValidationError(nil, core.FieldError{Field: "supervisor_id", Error: "a supervisor account is required"})
	if id == "" {
		return user.User{}, errNoSupervisor
	}
	usr, err := svc.users.GetByID(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return user.User{}, errNoSupervisor
		}
		return user.User{}, errors.Wrap(err, "finding supervisor")
	}
	if !usr.IsSupervisor() || !usr.IsActive {
		return user.User{}, errNoSupervisor
	}
	return usr, nil
}

func (svc *service) Consent(ctx context.Context, actor Actor, id string, data ConsentData) (Project, error) {
	if data.Agreed == nil {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "agreed", Error: "this field is required"})
	}
	orig, err := svc.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if actor.Role == user.RoleSupervisor && !orig.IsSupervisedBy(actor.ID) {
		return Project{}, errPermissionDenied
	}

	p := orig.Clone()
	now := svc.now()
	signature := core.CleanString(data.Signature)
	feedback := core.CleanString(data.Feedback)

	if *data.Agreed {
		if err = checkEvent(EventConsentAccept, p.Status, actor); err != nil {
			return Project{}, err
		}
		if signature == "" {
			return Project{}, core.NewValidationError(nil, core.FieldError{Field: "signature", Error: "a signature is required to give consent"})
		}
		p.Consent = Consent{Signature: signature, Agreed: true, SignedAt: &now, Feedback: feedback}
		err = p.fire(EventConsentAccept, StatusReadyForDefense, actor, feedback, now)
	} else {
		p.Consent = Consent{Signature: signature, Agreed: false, Feedback: feedback}
		err = p.fire(EventConsentDecline, StatusRejected, actor, feedback, now)
	}
	if err != nil {
		return Project{}, err
	}
	return svc.save(ctx, orig.Status, p)
}

func (svc *service) ScheduleDefense(ctx context.Context, actor Actor, id string, data ScheduleData) (Project, error) {
	if err := data.check(); err != nil {
		return Project{}, err
	}
	orig, err := svc.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}

	p := orig.Clone()
	now := svc.now()
	if err = checkEvent(EventScheduleDefense, p.Status, actor); err != nil {
		return Project{}, err
	}
	if p.Status == StatusDefenseChangesRequired {
		// a new attempt: previous marks are kept in the attempts history
		p.archive(StageInitialDefense, p.DefenseDate, p.InitialDefenseMarks, now)
		p.InitialDefenseMarks = Marks{}
	}
	date := data.Date.UTC()
	p.DefenseDate = &date
	if err = p.fire(EventScheduleDefense, StatusDefenseScheduled, actor, core.CleanString(data.Note), now); err != nil {
		return Project{}, err
	}
	return svc.save(ctx, orig.Status, p)
}

func (svc *service) ScheduleFinalDefense(ctx context.Context, actor Actor, id string, data ScheduleData) (Project, error) {
	if err := data.check(); err != nil {
		return Project{}, err
	}
	orig, err := svc.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}

	p := orig.Clone()
	if err = checkEvent(EventScheduleFinalDefense, p.Status, actor); err != nil {
		return Project{}, err
	}
	if p.FinalDefense.FinalPptURL == "" {
		return Project{}, core.NewConflictError("the final presentation has not been uploaded")
	}
	date := data.Date.UTC()
	p.FinalDefense.ScheduledDate = &date
	if err = p.fire(EventScheduleFinalDefense, StatusFinalDefenseScheduled, actor, core.CleanString(data.Note), svc.now()); err != nil {
		return Project{}, err
	}
	return svc.save(ctx, orig.Status, p)
}

func (svc *service) SubmitMark(ctx context.Context, actor Actor, id string, stage Stage, data MarkSubmission) (Project, error) {
	// bounds are checked before anything else
	if data.Mark == nil {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "mark", Error: "this field is required"})
	}
	mark := *data.Mark
	if err := stage.CheckMark(mark); err != nil {
		return Project{}, err
	}
	if role := core.CleanString(data.Role, true /* lower */); role != "" && role != actor.Role {
		return Project{}, errRoleMismatch
	}
	slot, ok := stage.Slot(actor.Role)
	if !ok {
		return Project{}, errPermissionDenied
	}

	orig, err := svc.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}

	p := orig.Clone()
	now := svc.now()
	eval := Evaluation{Mark: mark, Feedback: core.CleanString(data.Feedback), EvaluatorID: actor.ID, SubmittedAt: now}
	note := fmt.Sprintf("%s: %g", slot, mark)

	switch stage {
	case StageInitialDefense:
		if err = checkEvent(EventInitialDefenseMark, p.Status, actor); err != nil {
			return Project{}, err
		}
		if p.Documents.PresentationURL == "" {
			return Project{}, core.NewConflictError("the presentation has not been uploaded")
		}
		if _, ok := p.InitialDefenseMarks[slot]; ok {
			return Project{}, errMarkAlreadySubmitted
		}
		p.InitialDefenseMarks[slot] = eval

		to := StatusDefenseChangesRequired
		if mark >= PassMark {
			to = StatusDefenseCleared
		}
		err = p.fire(EventInitialDefenseMark, to, actor, note, now)

	case StageSrsSds:
		if err = checkEvent(EventSrsSdsMark, p.Status, actor); err != nil {
			return Project{}, err
		}
		if p.SrsSdsStatus != SrsSdsSubmitted {
			return Project{}, core.NewConflictError("the SRS/SDS documents have not been submitted for review")
		}
		if _, ok := p.SrsSdsReviewMarks[slot]; ok {
			return Project{}, errMarkAlreadySubmitted
		}
		p.SrsSdsReviewMarks[slot] = eval

		to := StatusDefenseCleared
		p.SrsSdsStatus = SrsSdsChangesRequired
		if mark >= PassMark {
			to = StatusDevelopment
			p.SrsSdsStatus = SrsSdsApproved
		}
		err = p.fire(EventSrsSdsMark, to, actor, note, now)

	case StageFinal:
		if err = checkEvent(EventFinalMark, p.Status, actor); err != nil {
			return Project{}, err
		}
		if actor.Role == user.RoleSupervisor && !p.IsSupervisedBy(actor.ID) {
			return Project{}, errPermissionDenied
		}
		if p.FinalDefense.FinalPptURL == "" {
			return Project{}, core.NewConflictError("the final presentation has not been uploaded")
		}
		if _, ok := p.FinalDefense.Marks[slot]; ok {
			return Project{}, errMarkAlreadySubmitted
		}
		p.FinalDefense.Marks[slot] = eval

		to := StatusFinalDefenseScheduled
		if p.FinalDefense.Marks.IsComplete(FinalSlots...) {
			grade := ComputeFinalGrade(p.FinalDefense.Marks)
			p.FinalDefense.Result = &grade
			to = StatusCompleted
		}
		err = p.fire(EventFinalMark, to, actor, note, now)

	default:
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "stage", Error: stageText})
	}
	if err != nil {
		return Project{}, err
	}
	return svc.save(ctx, orig.Status, p)
}

func (svc *service) RequestSrsSdsReview(ctx context.Context, actor Actor) (Project, error) {
	if actor.Role != user.RoleStudent {
		return Project{}, errPermissionDenied
	}
	orig, err := svc.repo.GetProjectByLeader(ctx, actor.ID)
	if err != nil {
		return Project{}, err
	}
	if orig.Status != StatusDefenseCleared || !(orig.SrsSdsStatus == SrsSdsNone || orig.SrsSdsStatus == SrsSdsChangesRequired) {
		return Project{}, core.NewConflictError(ErrInvalidTransition{Event: EventRequestSrsSdsReview, From: orig.Status}.Error())
	}
	if orig.Documents.SrsURL == "" || orig.Documents.SdsURL == "" {
		return Project{}, core.NewConflictError("both the SRS and the SDS documents must be uploaded")
	}

	p := orig.Clone()
	now := svc.now()
	if p.SrsSdsStatus == SrsSdsChangesRequired {
		p.archive(StageSrsSds, nil, p.SrsSdsReviewMarks, now)
		p.SrsSdsReviewMarks = Marks{}
	}
	p.SrsSdsStatus = SrsSdsSubmitted
	p.record(EventRequestSrsSdsReview, p.Status, actor, "", now)

	p, err = svc.repo.UpdateProject(ctx, p)
	return p, errors.Wrap(err, "saving project")
}

var meetingWindow = []Status{
	StatusReadyForDefense,
	StatusDefenseScheduled,
	StatusDefenseChangesRequired,
	StatusDefenseCleared,
	StatusDevelopment,
	StatusFinalDefenseScheduled,
}

func (svc *service) RequestMeeting(ctx context.Context, actor Actor, data MeetingRequest) (Project, error) {
	if actor.Role != user.RoleStudent {
		return Project{}, errPermissionDenied
	}
	if data.MeetingDate.IsZero() {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "meeting_date", Error: "this field is required"})
	}
	orig, err := svc.repo.GetProjectByLeader(ctx, actor.ID)
	if err != nil {
		return Project{}, err
	}
	if !orig.Status.In(meetingWindow...) {
		return Project{}, core.NewConflictError(ErrInvalidTransition{Event: EventRequestMeeting, From: orig.Status}.Error())
	}

	p := orig.Clone()
	week := 1
	for _, l := range p.WeeklyLogs {
		if l.WeekNumber >= week {
			week = l.WeekNumber + 1
		}
	}
	p.WeeklyLogs = append(p.WeeklyLogs, WeeklyLog{
		WeekNumber:    week,
		MeetingDate:   data.MeetingDate.UTC(),
		MeetingStatus: MeetingRequested,
		Content:       core.CleanString(data.Content),
		RecordedBy:    actor.ID,
	})
	p.record(EventRequestMeeting, p.Status, actor, fmt.Sprintf("week %d", week), svc.now())

	p, err = svc.repo.UpdateProject(ctx, p)
	return p, errors.Wrap(err, "saving project")
}

func (svc *service) RecordMeeting(ctx context.Context, actor Actor, id string, data MeetingRecord) (Project, error) {
	if actor.Role != user.RoleSupervisor {
		return Project{}, errPermissionDenied
	}
	if data.WeekNumber < 1 {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "week_number", Error: "week_number must be 1 or greater"})
	}
	if !contains(MeetingStatuses, data.MeetingStatus) {
		return Project{}, core.NewValidationError(nil, core.FieldError{Field: "meeting_status", Error: meetingStatusText})
	}
	orig, err := svc.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if !orig.IsSupervisedBy(actor.ID) {
		return Project{}, errPermissionDenied
	}
	if !orig.Status.In(meetingWindow...) {
		return Project{}, core.NewConflictError(ErrInvalidTransition{Event: EventRecordMeeting, From: orig.Status}.Error())
	}

	p := orig.Clone()
	entry := WeeklyLog{
		WeekNumber:    data.WeekNumber,
		MeetingStatus: data.MeetingStatus,
		Content:       core.CleanString(data.Content),
		RecordedBy:    actor.ID,
	}
	if !data.MeetingDate.IsZero() {
		entry.MeetingDate = data.MeetingDate.UTC()
	}

	found := false
	for i, l := range p.WeeklyLogs {
		if l.WeekNumber == data.WeekNumber {
			if entry.MeetingDate.IsZero() {
				entry.MeetingDate = l.MeetingDate
			}
			if entry.Content == "" {
				entry.Content = l.Content
			}
			p.WeeklyLogs[i] = entry
			found = true
			break
		}
	}
	if !found {
		if entry.MeetingDate.IsZero() {
			return Project{}, core.NewValidationError(nil, core.FieldError{Field: "meeting_date", Error: "this field is required"})
		}
		p.WeeklyLogs = append(p.WeeklyLogs, entry)
	}
	p.record(EventRecordMeeting, p.Status, actor, fmt.Sprintf("week %d: %s", entry.WeekNumber, entry.MeetingStatus), svc.now())

	p, err = svc.repo.UpdateProject(ctx, p)
	return p, errors.Wrap(err, "saving project")
}

// archive keeps the marks of a closed evaluation round.
func (p *Project) archive(stage Stage, date *time.Time, marks Marks, at time.Time) {
	p.PreviousAttempts = append(p.PreviousAttempts, Attempt{
		Stage:      stage,
		Date:       cloneTime(date),
		Marks:      marks.clone(),
		ArchivedAt: at,
	})
}

func (svc *service) save(ctx context.Context, prevStatus Status, p Project) (Project, error) {
	p, err := svc.repo.UpdateProject(ctx, p)
	if err != nil {
		return Project{}, errors.Wrap(err, "saving project")
	}
	svc.notify(ctx, prevStatus, p)
	return p, nil
}

// Queries

// canRead reports whether the actor may see the project.
func canRead(p Project, actor Actor) bool {
	switch actor.Role {
	case user.RoleCoordinator:
		return true
	case user.RoleSupervisor:
		return p.IsSupervisedBy(actor.ID)
	case user.RoleBoard, user.RoleExternal:
		return p.Status.In(EvaluationStatuses...)
	case user.RoleStudent:
		return p.IsLedBy(actor.ID)
	}
	return false
}

func (svc *service) Get(ctx context.Context, actor Actor, id string) (Project, error) {
	p, err := svc.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if !canRead(p, actor) {
		return Project{}, errPermissionDenied
	}
	return p, nil
}

func (svc *service) GetByStudent(ctx context.Context, actor Actor, studentID string) (*Project, error) {
	if actor.Role == user.RoleStudent && actor.ID != studentID {
		return nil, errPermissionDenied
	}
	p, err := svc.repo.GetProjectByLeader(ctx, studentID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "finding project by leader")
	}
	if !canRead(p, actor) {
		return nil, errPermissionDenied
	}
	return &p, nil
}

func (svc *service) Query(ctx context.Context, actor Actor, filter *QueryFilter, ordering []core.DBOrdering) ([]Project, error) {
	f := QueryFilter{}
	if filter != nil {
		f = *filter
	}

	switch actor.Role {
	case user.RoleCoordinator:
	case user.RoleSupervisor:
		f.SupervisorID = actor.ID
	case user.RoleStudent:
		f.LeaderID = actor.ID
	case user.RoleBoard, user.RoleExternal:
		if len(f.Statuses) == 0 {
			f.Statuses = EvaluationStatuses
		} else {
			statuses := make([]Status, 0, len(f.Statuses))
			for _, s := range f.Statuses {
				if s.In(EvaluationStatuses...) {
					statuses = append(statuses, s)
				}
			}
			if len(statuses) == 0 {
				return []Project{}, nil
			}
			f.Statuses = statuses
		}
	default:
		return nil, errPermissionDenied
	}
	return svc.repo.QueryProjects(ctx, &f, ordering...)
}

func (svc *service) QueryByStage(ctx context.Context, actor Actor, stage Stage, ordering []core.DBOrdering) ([]Project, error) {
	var filter QueryFilter
	switch stage {
	case StageInitialDefense, StageFinal:
		filter.Statuses = stage.Statuses()
	case StageSrsSds:
		filter.HasSrsSdsReview = true
	default:
		return nil, core.NewValidationError(nil, core.FieldError{Field: "stage", Error: stageText})
	}
	return svc.Query(ctx, actor, &filter, ordering)
}

// OpenDocument opens a document referenced by a project the actor may see.
func (svc *service) OpenDocument(ctx context.Context, actor Actor, docPath string) (io.ReadCloser, error) {
	docPath = NormalizePath(docPath)
	parts := strings.SplitN(docPath, "/", 3)
	if len(parts) < 3 || parts[0] != "projects" {
		return nil, ErrDocumentNotFound
	}

	p, err := svc.Get(ctx, actor, parts[1])
	if err != nil {
		if core.IsNotFound(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	if !p.hasDocument(docPath) {
		return nil, ErrDocumentNotFound
	}

	rc, err := svc.files.Open(ctx, docPath)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, errors.Wrap(err, "opening document")
	}
	return rc, nil
}

func (svc *service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	projects, err := svc.repo.QueryProjects(ctx, new(QueryFilter))
	if err != nil {
		return nil, errors.Wrap(err, "querying projects")
	}
	counts := make(map[Status]int, len(AllStatuses))
	for _, p := range projects {
		counts[p.Status]++
	}
	return counts, nil
}

// Notifications

type statusChangedData struct {
	Name      string
	ProjectID string
	Title     string
	From      Status
	To        Status
	Note      string
}

// notify emails the project's leader & supervisor whenever its status changed.
func (svc *service) notify(ctx context.Context, prevStatus Status, p Project) {
	if prevStatus == p.Status || svc.mailSvc == nil {
		return
	}
	from := prevStatus
	if from == StatusNone {
		from = "New"
	}
	var note string
	if n := len(p.History); n > 0 {
		note = p.History[n-1].Note
	}

	messages := make([]*core.EmailMessage, 0, 2)
	for _, id := range []string{p.LeaderID, p.SupervisorID} {
		if id == "" {
			continue
		}
		usr, err := svc.users.GetByID(ctx, id)
		if err != nil || !usr.IsActive {
			continue
		}
		messages = append(messages, &core.EmailMessage{
			To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
			Subject:      "Project status changed: " + string(p.Status),
			TemplateName: "project_status_changed",
			TemplateData: statusChangedData{
				Name:      usr.Name,
				ProjectID: p.ID,
				Title:     p.Title,
				From:      from,
				To:        p.Status,
				Note:      note,
			},
		})
	}
	if len(messages) > 0 {
		svc.mailSvc.SendMessages(messages...)
	}
}
