package project

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageKey(t *testing.T) {
	assert.Equal(t, "projects/p1/proposal/my-fyp-proposal.pdf", storageKey("p1", DocProposal, "My FYP Proposal.PDF"))
	assert.Equal(t, "projects/p1/srs/srs-v2.docx", storageKey("p1", DocSrs, `C:\Users\me\SRS v2.docx`))
	assert.Equal(t, "projects/p1/ppt/ppt.pptx", storageKey("p1", DocPresentation, "../!!.pptx"))
}

func TestNormalizePath(t *testing.T) {
	assert.Equal(t, "projects/p1/ppt/deck.pptx", NormalizePath(`projects\p1\ppt\deck.pptx`))
	assert.Equal(t, "projects/p1/ppt/deck.pptx", NormalizePath("/projects//p1/./ppt/deck.pptx"))
	assert.Equal(t, "etc/passwd", NormalizePath("../../etc/passwd"))
}

func TestDocument_check(t *testing.T) {
	assert.NoError(t, Document{Name: "a.pdf", Content: strings.NewReader("x")}.check(DocProposal))
	assert.NoError(t, Document{Name: "deck.PPTX", Content: strings.NewReader("x")}.check(DocFinalPpt))
	assert.Error(t, Document{Name: "a.exe", Content: strings.NewReader("x")}.check(DocProposal))
	assert.Error(t, Document{Name: "deck.pptx", Content: strings.NewReader("x")}.check(DocSrs))
	assert.Error(t, Document{Name: "a.pdf"}.check(DocProposal))
	assert.Error(t, Document{Name: " ", Content: strings.NewReader("x")}.check(DocProposal))
}

func TestUploadWindow(t *testing.T) {
	assert.True(t, uploadWindow(DocProposal, Project{Status: StatusNone}))
	assert.False(t, uploadWindow(DocProposal, Project{Status: StatusAwaitingConsent}))
	assert.True(t, uploadWindow(DocPresentation, Project{Status: StatusDefenseScheduled}))
	assert.False(t, uploadWindow(DocPresentation, Project{Status: StatusDevelopment}))
	assert.True(t, uploadWindow(DocSrs, Project{Status: StatusDefenseCleared}))
	assert.True(t, uploadWindow(DocSds, Project{Status: StatusDefenseCleared, SrsSdsStatus: SrsSdsChangesRequired}))
	assert.False(t, uploadWindow(DocSrs, Project{Status: StatusDefenseCleared, SrsSdsStatus: SrsSdsSubmitted}))
	assert.False(t, uploadWindow(DocSds, Project{Status: StatusDefenseCleared, SrsSdsStatus: SrsSdsApproved}))
	assert.True(t, uploadWindow(DocFinalPpt, Project{Status: StatusDevelopment}))
	assert.False(t, uploadWindow(DocFinalPpt, Project{Status: StatusCompleted}))
}
