package echoapi

import (
	"mime"
	"net/http"
	"path"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fyp/core/project"
)

func registerFilesAPI(g *echo.Group, auth echo.MiddlewareFunc, deps *Deps) {
	api := projectApi{svc: deps.ProjectSvc, validate: deps.Validate}
	g.GET("/files/*", api.download, auth)
}

// @Summary Download a project document
// @Tags files
// @Security BearerAuth
// @Param path path string true "document path, eg. projects/{id}/proposal/proposal.pdf"
// @Success 200 {file} file
// @Router /files/{path} [get]
func (api *projectApi) download(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	docPath := project.NormalizePath(ctx.Param("*"))

	rc, err := api.svc.OpenDocument(ctx.Request().Context(), actor, docPath)
	if err != nil {
		return errors.Wrap(err, "opening document")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(docPath))
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+path.Base(docPath)+`"`)
	return ctx.Stream(http.StatusOK, contentType, rc)
}
