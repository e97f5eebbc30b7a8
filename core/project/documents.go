package project

import (
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gosimple/slug"

	"github.com/trezcool/fyp/core"
)

// DocType is the kind of a project document.
type DocType string

const (
	DocProposal     DocType = "proposal"
	DocPresentation DocType = "ppt"
	DocSrs          DocType = "srs"
	DocSds          DocType = "sds"
	DocFinalPpt     DocType = "final-ppt"
)

var (
	AllDocTypes = []DocType{DocProposal, DocPresentation, DocSrs, DocSds, DocFinalPpt}

	docExtensions = map[DocType][]string{
		DocProposal:     {".pdf", ".doc", ".docx"},
		DocPresentation: {".pdf", ".ppt", ".pptx"},
		DocSrs:          {".pdf", ".doc", ".docx"},
		DocSds:          {".pdf", ".doc", ".docx"},
		DocFinalPpt:     {".pdf", ".ppt", ".pptx"},
	}
)

func ParseDocType(s string) (DocType, bool) {
	s = core.CleanString(s, true /* lower */)
	for _, dt := range AllDocTypes {
		if string(dt) == s {
			return dt, true
		}
	}
	return "", false
}

// Document is an uploaded file.
type Document struct {
	Name    string // original file name
	Content io.Reader
}

func (d Document) check(docType DocType) error {
	if d.Content == nil || core.CleanString(d.Name) == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: "this field is required"})
	}
	ext := strings.ToLower(path.Ext(d.Name))
	if !contains(docExtensions[docType], ext) {
		text := fmt.Sprintf("unsupported file type, allowed: %s", strings.Join(docExtensions[docType], ", "))
		return core.NewValidationError(nil, core.FieldError{Field: "file", Error: text})
	}
	return nil
}

// storageKey returns the forward-slash key a project document is stored under:
// projects/<project-id>/<docType>/<slug(name)><ext>
func storageKey(projectID string, docType DocType, name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	base := path.Base(name)
	ext := strings.ToLower(path.Ext(base))
	stem := slug.Make(strings.TrimSuffix(base, path.Ext(base)))
	if stem == "" {
		stem = string(docType)
	}
	return path.Join("projects", projectID, string(docType), stem+ext)
}

// NormalizePath turns a stored document path into its canonical forward-slash form.
func NormalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}

// uploadWindow reports whether the document may be uploaded in the project's current state.
func uploadWindow(docType DocType, p Project) bool {
	switch docType {
	case DocProposal:
		return p.Status.In(StatusNone, StatusPendingReview, StatusModificationsRequired, StatusRejected)
	case DocPresentation:
		return p.Status.In(StatusReadyForDefense, StatusDefenseScheduled, StatusDefenseChangesRequired)
	case DocSrs, DocSds:
		return p.Status == StatusDefenseCleared && (p.SrsSdsStatus == SrsSdsNone || p.SrsSdsStatus == SrsSdsChangesRequired)
	case DocFinalPpt:
		return p.Status.In(StatusDevelopment, StatusFinalDefenseScheduled)
	}
	return false
}

func (p *Project) setDocument(docType DocType, url string) {
	switch docType {
	case DocProposal:
		p.Documents.ProposalURL = url
	case DocPresentation:
		p.Documents.PresentationURL = url
	case DocSrs:
		p.Documents.SrsURL = url
	case DocSds:
		p.Documents.SdsURL = url
	case DocFinalPpt:
		p.FinalDefense.FinalPptURL = url
	}
}

func (p Project) documentURL(docType DocType) string {
	switch docType {
	case DocProposal:
		return p.Documents.ProposalURL
	case DocPresentation:
		return p.Documents.PresentationURL
	case DocSrs:
		return p.Documents.SrsURL
	case DocSds:
		return p.Documents.SdsURL
	case DocFinalPpt:
		return p.FinalDefense.FinalPptURL
	}
	return ""
}

// hasDocument reports whether path is referenced by one of the project's documents.
func (p Project) hasDocument(docPath string) bool {
	for _, url := range []string{
		p.Documents.ProposalURL,
		p.Documents.PresentationURL,
		p.Documents.SrsURL,
		p.Documents.SdsURL,
		p.FinalDefense.FinalPptURL,
	} {
		if url != "" && NormalizePath(url) == docPath {
			return true
		}
	}
	return false
}
