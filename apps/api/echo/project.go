package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fyp/core/project"
	"github.com/trezcool/fyp/core/user"
)

type projectApi struct {
	svc      project.Service
	validate *validator.Validate
}

func registerProjectAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := projectApi{
		svc:      deps.ProjectSvc,
		validate: deps.Validate,
	}
	studentOnly := roleMiddleware(user.RoleStudent)
	coordinatorOnly := roleMiddleware(user.RoleCoordinator)

	pg := g.Group("/projects", auth)
	pg.GET("", api.query)
	pg.GET("/mine", api.retrieveMine, studentOnly)
	pg.GET("/students/:studentId", api.retrieveByStudent)
	pg.GET("/stages/:stage", api.queryByStage)
	pg.GET("/:id", api.retrieve)

	// student endpoints
	pg.POST("/documents/:docType", api.uploadDocument, studentOnly)
	pg.POST("/srs-sds/review-request", api.requestSrsSdsReview, studentOnly)
	pg.POST("/meetings", api.requestMeeting, studentOnly)

	// workflow endpoints
	pg.POST("/:id/review", api.review, coordinatorOnly)
	pg.POST("/:id/consent", api.consent, roleMiddleware(user.RoleSupervisor))
	pg.POST("/:id/defense", api.scheduleDefense, coordinatorOnly)
	pg.POST("/:id/final-defense", api.scheduleFinalDefense, coordinatorOnly)
	pg.POST("/:id/marks/:stage", api.submitMark, roleMiddleware(user.StaffRoles...))
	pg.POST("/:id/logs", api.recordMeeting, roleMiddleware(user.RoleSupervisor))
}

// Handlers

// @Summary Query the projects visible to the user
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Param search query string false "title or proposed supervisor"
// @Param status query []string false "statuses"
// @Param ordering query string false "eg. -created_at,title"
// @Success 200 {array} project.Project
// @Router /projects [get]
func (api *projectApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	filter := new(project.QueryFilter)
	if err = ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []project.Project{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	projects, err := api.svc.Query(ctx.Request().Context(), actor, filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying projects")
	}
	return ctx.JSON(http.StatusOK, nonNil(projects))
}

func (api *projectApi) queryByStage(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	stage, ok := project.ParseStage(ctx.Param("stage"))
	if !ok {
		return errHttpNotFound
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	projects, err := api.svc.QueryByStage(ctx.Request().Context(), actor, stage, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying projects by stage")
	}
	return ctx.JSON(http.StatusOK, nonNil(projects))
}

func (api *projectApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.Get(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting project")
	}
	return ctx.JSON(http.StatusOK, p)
}

// @Summary Get the project of the authenticated student
// @Description Responds with null when the student has not submitted a proposal yet.
// @Tags projects
// @Security BearerAuth
// @Produce json
// @Success 200 {object} project.Project
// @Router /projects/mine [get]
func (api *projectApi) retrieveMine(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	return api.respondByStudent(ctx, actor, actor.ID)
}

func (api *projectApi) retrieveByStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	return api.respondByStudent(ctx, actor, ctx.Param("studentId"))
}

func (api *projectApi) respondByStudent(ctx echo.Context, actor project.Actor, studentID string) error {
	p, err := api.svc.GetByStudent(ctx.Request().Context(), actor, studentID)
	if err != nil {
		return errors.Wrap(err, "getting project by student")
	}
	return ctx.JSON(http.StatusOK, p)
}

// @Summary Upload a project document
// @Description The proposal is submitted with its fields (title, description, proposed_supervisor_name).
// @Tags projects
// @Security BearerAuth
// @Accept mpfd
// @Produce json
// @Param docType path string true "proposal, ppt, srs, sds or final-ppt"
// @Param file formData file true "document"
// @Success 200 {object} project.Project
// @Router /projects/documents/{docType} [post]
func (api *projectApi) uploadDocument(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var path DocumentPath
	if err = path.Bind(ctx); err != nil {
		return errors.Wrap(err, "binding to DocumentPath")
	}
	if err = api.validate.Struct(&path); err != nil {
		return err
	}
	docType, _ := project.ParseDocType(path.DocType)

	var data project.NewProposal
	if docType == project.DocProposal {
		if err = ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to NewProposal")
		}
		data.Clean()
		if err = api.validate.Struct(&data); err != nil {
			return err
		}
	}

	doc, closeDoc, err := bindDocument(ctx)
	if err != nil {
		return err
	}
	defer closeDoc()

	var p project.Project
	if docType == project.DocProposal {
		p, err = api.svc.SubmitProposal(ctx.Request().Context(), actor, data, doc)
	} else {
		p, err = api.svc.UploadDocument(ctx.Request().Context(), actor, docType, doc)
	}
	if err != nil {
		return errors.Wrap(err, "uploading document")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) requestSrsSdsReview(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	p, err := api.svc.RequestSrsSdsReview(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "requesting SRS/SDS review")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) requestMeeting(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data project.MeetingRequest
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MeetingRequest")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.RequestMeeting(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "requesting meeting")
	}
	return ctx.JSON(http.StatusOK, p)
}

// @Summary Review a proposal
// @Tags projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "project ID"
// @Param request body project.ReviewDecision true "approve (with supervisor_id), reject or request-changes"
// @Success 200 {object} project.Project
// @Failure 409 {object} map[string]string
// @Router /projects/{id}/review [post]
func (api *projectApi) review(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data project.ReviewDecision
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReviewDecision")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Review(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "reviewing proposal")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) consent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data project.ConsentData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConsentData")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Consent(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "giving consent")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) scheduleDefense(ctx echo.Context) error {
	return api.schedule(ctx, api.svc.ScheduleDefense)
}

func (api *projectApi) scheduleFinalDefense(ctx echo.Context) error {
	return api.schedule(ctx, api.svc.ScheduleFinalDefense)
}

type scheduleFunc func(ctx context.Context, actor project.Actor, id string, data project.ScheduleData) (project.Project, error)

func (api *projectApi) schedule(ctx echo.Context, fn scheduleFunc) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data project.ScheduleData
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScheduleData")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := fn(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "scheduling defense")
	}
	return ctx.JSON(http.StatusOK, p)
}

// @Summary Submit an evaluation mark
// @Description Bounds: 0-5 for initial-defense & srs-sds, 0-30 for final. `role` must be the user's role.
// @Tags projects
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "project ID"
// @Param stage path string true "initial-defense, srs-sds or final"
// @Param request body project.MarkSubmission true "mark"
// @Success 200 {object} project.Project
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /projects/{id}/marks/{stage} [post]
func (api *projectApi) submitMark(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	stage, ok := project.ParseStage(ctx.Param("stage"))
	if !ok {
		return errHttpNotFound
	}
	var data project.MarkSubmission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkSubmission")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.SubmitMark(ctx.Request().Context(), actor, ctx.Param("id"), stage, data)
	if err != nil {
		return errors.Wrap(err, "submitting mark")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *projectApi) recordMeeting(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	var data project.MeetingRecord
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MeetingRecord")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.RecordMeeting(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "recording meeting")
	}
	return ctx.JSON(http.StatusOK, p)
}

func nonNil(projects []project.Project) []project.Project {
	if projects == nil {
		return []project.Project{}
	}
	return projects
}
