package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
	"github.com/trezcool/fyp/testutil"
)

type projectFixture struct {
	*testApp
	student, student2, coordinator, supervisor, board user.User
}

func setupProjects(t *testing.T) *projectFixture {
	app := setup(t)
	return &projectFixture{
		testApp:     app,
		student:     testutil.CreateUser(t, app.usrRepo, "Ali Raza", "ali@example.com", pwd, user.RoleStudent, true),
		student2:    testutil.CreateUser(t, app.usrRepo, "Sara Khan", "sara@example.com", pwd, user.RoleStudent, true),
		coordinator: testutil.CreateUser(t, app.usrRepo, "Coordinator", "coord@example.com", pwd, user.RoleCoordinator, true),
		supervisor:  testutil.CreateUser(t, app.usrRepo, "Dr. Supervisor", "sup@example.com", pwd, user.RoleSupervisor, true),
		board:       testutil.CreateUser(t, app.usrRepo, "Board Member", "board@example.com", pwd, user.RoleBoard, true),
	}
}

// do runs an authenticated JSON request and decodes the project it responds with.
func (f *projectFixture) do(t *testing.T, usr user.User, method, path string, body interface{}, wantCode int) project.Project {
	t.Helper()
	var data []byte
	if body != nil {
		data = marchallObj(t, body)
	}
	req, rec := newAuthRequest(method, path, f.getToken(t, usr), data)
	f.ServeHTTP(rec, req)
	require.Equal(t, wantCode, rec.Code, "%s %s: %s", method, path, rec.Body.String())

	var p project.Project
	if wantCode == http.StatusOK {
		unmarshal(t, rec, &p)
	}
	return p
}

func (f *projectFixture) upload(t *testing.T, usr user.User, docType, filename string, fields map[string]string, wantCode int) project.Project {
	t.Helper()
	req, rec := newUploadRequest(t, "/v1/projects/documents/"+docType, f.getToken(t, usr), filename, "content of "+filename, fields)
	f.ServeHTTP(rec, req)
	require.Equal(t, wantCode, rec.Code, "upload %s: %s", docType, rec.Body.String())

	var p project.Project
	if wantCode == http.StatusOK {
		unmarshal(t, rec, &p)
	}
	return p
}

func (f *projectFixture) submitProposal(t *testing.T) project.Project {
	t.Helper()
	fields := map[string]string{
		"title":                    "Smart Campus Navigator",
		"description":              "Indoor navigation for the campus",
		"proposed_supervisor_name": "Dr. Supervisor",
	}
	return f.upload(t, f.student, "proposal", "Proposal v1.pdf", fields, http.StatusOK)
}

func TestProjectApi_workflow(t *testing.T) {
	f := setupProjects(t)

	t.Run("no project yet", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/projects/mine", f.getToken(t, f.student))
		f.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "null", string(trimNewline(rec.Body.Bytes())))
	})

	p := f.submitProposal(t)
	require.NotEmpty(t, p.ID)
	assert.Equal(t, project.StatusPendingReview, p.Status)
	assert.Equal(t, f.student.ID, p.LeaderID)
	assert.Equal(t, "Smart Campus Navigator", p.Title)
	assert.Equal(t, "projects/"+p.ID+"/proposal/proposal-v1.pdf", p.Documents.ProposalURL)

	t.Run("mine", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/projects/mine", f.getToken(t, f.student))
		f.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var mine project.Project
		unmarshal(t, rec, &mine)
		assert.Equal(t, p.ID, mine.ID)
	})

	t.Run("pending proposal is replaced", func(t *testing.T) {
		again := f.upload(t, f.student, "proposal", "Proposal v1.pdf", map[string]string{"title": "Smart Campus Navigator"}, http.StatusOK)
		assert.Equal(t, p.ID, again.ID)
		assert.Equal(t, project.StatusPendingReview, again.Status)
	})

	review := project.ReviewDecision{Decision: "approve", SupervisorID: f.supervisor.ID}
	f.do(t, f.student, http.MethodPost, "/v1/projects/"+p.ID+"/review", review, http.StatusForbidden)
	p = f.do(t, f.coordinator, http.MethodPost, "/v1/projects/"+p.ID+"/review", review, http.StatusOK)
	assert.Equal(t, project.StatusAwaitingConsent, p.Status)
	assert.Equal(t, f.supervisor.ID, p.SupervisorID)

	t.Run("reviewing twice conflicts", func(t *testing.T) {
		f.do(t, f.coordinator, http.MethodPost, "/v1/projects/"+p.ID+"/review", review, http.StatusConflict)
	})
	t.Run("approved proposal is locked", func(t *testing.T) {
		f.upload(t, f.student, "proposal", "again.pdf", map[string]string{"title": "Another"}, http.StatusConflict)
	})

	agreed := true
	p = f.do(t, f.supervisor, http.MethodPost, "/v1/projects/"+p.ID+"/consent", project.ConsentData{Agreed: &agreed, Signature: "Dr. S"}, http.StatusOK)
	assert.Equal(t, project.StatusReadyForDefense, p.Status)
	assert.True(t, p.Consent.Agreed)

	p = f.upload(t, f.student, "ppt", "deck.pptx", nil, http.StatusOK)
	assert.NotEmpty(t, p.Documents.PresentationURL)

	date := time.Now().Add(7 * 24 * time.Hour).UTC().Truncate(time.Second)
	p = f.do(t, f.coordinator, http.MethodPost, "/v1/projects/"+p.ID+"/defense", project.ScheduleData{Date: date}, http.StatusOK)
	assert.Equal(t, project.StatusDefenseScheduled, p.Status)
	require.NotNil(t, p.DefenseDate)
	assert.True(t, date.Equal(*p.DefenseDate))

	t.Run("marks", func(t *testing.T) {
		path := "/v1/projects/" + p.ID + "/marks/initial-defense"
		tooHigh, ok := 7.0, 3.5

		req, rec := newAuthRequest(http.MethodPost, path, f.getToken(t, f.board), marchallObj(t, project.MarkSubmission{Role: user.RoleBoard, Mark: &tooHigh}))
		f.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"mark": "mark must be between 0 and 5"}),
		}, rec)

		f.do(t, f.student, http.MethodPost, path, project.MarkSubmission{Role: user.RoleStudent, Mark: &ok}, http.StatusForbidden)
		f.do(t, f.board, http.MethodPost, "/v1/projects/"+p.ID+"/marks/unknown", project.MarkSubmission{Role: user.RoleBoard, Mark: &ok}, http.StatusNotFound)

		p = f.do(t, f.board, http.MethodPost, path, project.MarkSubmission{Role: user.RoleBoard, Mark: &ok}, http.StatusOK)
		assert.Equal(t, project.StatusDefenseCleared, p.Status)
		assert.Equal(t, 3.5, p.InitialDefenseMarks[project.SlotPanel].Mark)
	})

	t.Run("visibility", func(t *testing.T) {
		f.do(t, f.student2, http.MethodGet, "/v1/projects/"+p.ID, nil, http.StatusForbidden)
		f.do(t, f.board, http.MethodGet, "/v1/projects/"+p.ID, nil, http.StatusOK)
		f.do(t, f.supervisor, http.MethodGet, "/v1/projects/"+p.ID, nil, http.StatusOK)
		f.do(t, f.coordinator, http.MethodGet, "/v1/projects/unknown", nil, http.StatusNotFound)

		req, rec := newAuthRequest(http.MethodGet, "/v1/projects", f.getToken(t, f.student2))
		f.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]", string(trimNewline(rec.Body.Bytes())))

		req, rec = newAuthRequest(http.MethodGet, "/v1/projects/stages/initial-defense", f.getToken(t, f.coordinator))
		f.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		var projects []project.Project
		unmarshal(t, rec, &projects)
		require.Len(t, projects, 1)
		assert.Equal(t, p.ID, projects[0].ID)

		req, rec = newAuthRequest(http.MethodGet, "/v1/projects/stages/unknown", f.getToken(t, f.coordinator))
		f.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestProjectApi_accountState(t *testing.T) {
	f := setupProjects(t)
	ctx := context.Background()

	t.Run("deactivated account", func(t *testing.T) {
		token := f.getToken(t, f.student2)
		usr := f.student2
		usr.IsActive = false
		_, err := f.usrRepo.UpdateUser(ctx, usr)
		require.NoError(t, err)

		req, rec := newUploadRequest(t, "/v1/projects/documents/proposal", token, "proposal.pdf", "content", map[string]string{"title": "Late Title"})
		f.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		}, rec)

		_, err = f.prjRepo.GetProjectByLeader(ctx, usr.ID)
		assert.True(t, core.IsNotFound(err), "no project created")
	})

	t.Run("role is read from the user store", func(t *testing.T) {
		forged := f.student
		forged.Role = user.RoleCoordinator
		p := f.submitProposal(t)

		review := project.ReviewDecision{Decision: "approve", SupervisorID: f.supervisor.ID}
		req, rec := newAuthRequest(http.MethodPost, "/v1/projects/"+p.ID+"/review", f.getToken(t, forged), marchallObj(t, review))
		f.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	})
}

func TestProjectApi_uploadValidation(t *testing.T) {
	f := setupProjects(t)

	t.Run("missing title", func(t *testing.T) {
		f.upload(t, f.student, "proposal", "proposal.pdf", nil, http.StatusBadRequest)
	})
	t.Run("missing file", func(t *testing.T) {
		req, rec := newUploadRequest(t, "/v1/projects/documents/proposal", f.getToken(t, f.student), "", "", map[string]string{"title": "Title"})
		f.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"file": "this field is required"}),
		}, rec)
	})
	t.Run("unsupported extension", func(t *testing.T) {
		f.upload(t, f.student, "proposal", "proposal.exe", map[string]string{"title": "Title"}, http.StatusBadRequest)
	})
	t.Run("unknown document type", func(t *testing.T) {
		req, rec := newUploadRequest(t, "/v1/projects/documents/thesis", f.getToken(t, f.student), "thesis.pdf", "content", nil)
		f.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"doc_type": "document type must be one of: proposal, ppt, srs, sds, final-ppt"}),
		}, rec)
	})
	t.Run("staff cannot upload", func(t *testing.T) {
		f.upload(t, f.coordinator, "proposal", "proposal.pdf", map[string]string{"title": "Title"}, http.StatusForbidden)
	})
	t.Run("no project yet", func(t *testing.T) {
		f.upload(t, f.student, "srs", "srs.pdf", nil, http.StatusNotFound)
	})
}

func TestProjectApi_meetings(t *testing.T) {
	f := setupProjects(t)
	p := f.submitProposal(t)
	agreed := true
	f.do(t, f.coordinator, http.MethodPost, "/v1/projects/"+p.ID+"/review", project.ReviewDecision{Decision: "approve", SupervisorID: f.supervisor.ID}, http.StatusOK)
	f.do(t, f.supervisor, http.MethodPost, "/v1/projects/"+p.ID+"/consent", project.ConsentData{Agreed: &agreed, Signature: "Dr. S"}, http.StatusOK)

	meetingDate := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	p = f.do(t, f.student, http.MethodPost, "/v1/projects/meetings", project.MeetingRequest{MeetingDate: meetingDate, Content: "Discuss scope"}, http.StatusOK)
	require.Len(t, p.WeeklyLogs, 1)
	assert.Equal(t, project.MeetingRequested, p.WeeklyLogs[0].MeetingStatus)

	record := project.MeetingRecord{WeekNumber: 1, MeetingDate: meetingDate, MeetingStatus: project.MeetingHeld, Content: "Scope agreed"}
	f.do(t, f.student, http.MethodPost, "/v1/projects/"+p.ID+"/logs", record, http.StatusForbidden)
	p = f.do(t, f.supervisor, http.MethodPost, "/v1/projects/"+p.ID+"/logs", record, http.StatusOK)
	require.NotEmpty(t, p.WeeklyLogs)
	assert.Equal(t, project.MeetingHeld, p.WeeklyLogs[0].MeetingStatus)
	assert.Equal(t, f.supervisor.ID, p.WeeklyLogs[0].RecordedBy)
}

func TestFilesApi_download(t *testing.T) {
	f := setupProjects(t)
	p := f.submitProposal(t)
	url := "/v1/files/" + p.Documents.ProposalURL

	req, rec := newAuthRequest(http.MethodGet, url, f.getToken(t, f.student))
	f.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "content of Proposal v1.pdf", rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="proposal-v1.pdf"`)

	app := f.testApp
	app.run(t, []httpTest{
		{name: "coordinator", method: http.MethodGet, path: url, token: f.getToken(t, f.coordinator)},
		{name: "other student", method: http.MethodGet, path: url, token: f.getToken(t, f.student2), wantCode: http.StatusForbidden},
		{name: "unauthenticated", method: http.MethodGet, path: url, wantCode: http.StatusUnauthorized},
		{
			name:     "unknown document",
			method:   http.MethodGet,
			path:     "/v1/files/projects/" + p.ID + "/proposal/other.pdf",
			token:    f.getToken(t, f.coordinator),
			wantCode: http.StatusNotFound,
		},
		{
			name:     "outside of the projects",
			method:   http.MethodGet,
			path:     "/v1/files/../../etc/passwd",
			token:    f.getToken(t, f.coordinator),
			wantCode: http.StatusNotFound,
		},
	})
}

func trimNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
