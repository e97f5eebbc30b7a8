package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/fyp/core"
	"github.com/trezcool/fyp/core/project"
)

var orderingParam = "ordering"

// DocumentPath holds the path params of a document upload.
type DocumentPath struct {
	DocType string `param:"docType" json:"doc_type" validate:"doctype"`
}

func (path *DocumentPath) Bind(ctx echo.Context) error {
	return new(echo.DefaultBinder).BindPathParams(ctx, path)
}

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// bindDocument opens the multipart `file` of the request. The returned closer must be called once done.
func bindDocument(ctx echo.Context) (project.Document, func(), error) {
	fh, err := ctx.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return project.Document{}, nil, core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
		}
		return project.Document{}, nil, errors.Wrap(err, "reading multipart file")
	}
	f, err := fh.Open()
	if err != nil {
		return project.Document{}, nil, errors.Wrap(err, "opening multipart file")
	}
	return project.Document{Name: fh.Filename, Content: f}, func() { _ = f.Close() }, nil
}
