package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitai/llm"
	"kitai/models"
	"kitai/utils"
)

type resumeFixture struct {
	configs   *fakeConfigs
	documents *fakeDocuments
	resumes   *fakeResumes
	fake      *fakeLLM
	factory   *countingFactory
	svc       *ResumeService
}

func newResumeFixture(docs []models.SourceDocument) *resumeFixture {
	f := &resumeFixture{
		configs:   newFakeConfigs(),
		documents: &fakeDocuments{docs: docs},
		resumes:   &fakeResumes{},
		fake:      &fakeLLM{pick: 5},
	}
	f.factory = &countingFactory{client: f.fake}
	f.svc = NewResumeService(Deps{
		Sessions:  newFakeSessions(),
		Configs:   f.configs,
		Documents: f.documents,
		NewClient: f.factory.New,
		Resumes:   f.resumes,
	}, ResumeOptions{BatchSize: 20, MaxSelected: 5, MaxRetries: 0, MaxReduceInput: 100, MaxConcurrency: 3})
	return f
}

var resumeReq = models.ResumeRequest{Provider: "openai", Model: "gpt-4o"}

func TestGenerateFortyFiveDocuments(t *testing.T) {
	docs := makeDocs(45)
	f := newResumeFixture(docs)

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, "RESUMEN GENERADO", result.Resume)

	// three batch selections plus the final pass
	require.Len(t, f.fake.objectCalls, 4)
	for _, call := range f.fake.objectCalls {
		assert.Equal(t, "gpt-4o-mini", call.Model)
	}
	finalPassLinks := linksIn(f.fake.objectCalls[3].Prompt)
	assert.Len(t, finalPassLinks, 15)

	require.Len(t, result.Selected, 5)
	require.Len(t, f.fake.textCalls, 1)
	prompt := f.fake.textCalls[0].Prompt
	assert.Equal(t, "gpt-4o", f.fake.textCalls[0].Model)
	assert.True(t, strings.HasPrefix(prompt, "Redacta el resumen diario."))

	for i, sel := range result.Selected {
		assert.Equal(t, docs[i].Link, sel.Link)
		assert.Contains(t, prompt, utils.CleanHTML(docs[i].ContentHTML))
	}
	assert.Equal(t, 5, strings.Count(prompt, "Contenido: "), "exactly the finalists")
	assert.NotContains(t, prompt, docs[20].Link)

	cleaned := utils.CleanHTML(prompt)
	assert.Equal(t, cleaned, utils.CleanHTML(cleaned))

	require.Len(t, f.resumes.records, 1)
	rec := f.resumes.records[0]
	assert.Equal(t, "org-1", rec.OrganizationID)
	assert.Equal(t, "user-1", rec.UserID)
	assert.Len(t, rec.SelectedLinks, 5)

	require.NotEmpty(t, result.Logs)
	requestID := result.Logs[0].RequestID
	for _, ev := range result.Logs {
		assert.Equal(t, requestID, ev.RequestID)
	}
	assert.Equal(t, requestID, rec.RequestID)
}

func TestGenerateUsesDefaultToolConfig(t *testing.T) {
	f := newResumeFixture(makeDocs(5))
	delete(f.configs.tools, "resume")
	f.configs.defaults["resume"] = &models.ToolConfiguration{
		Identity:    "resume",
		Prompts:     []models.Prompt{{Title: "Default", Content: "Resumen por defecto."}},
		Temperature: 0.2,
		TopP:        0.5,
	}

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)

	require.NotEmpty(t, f.fake.objectCalls)
	assert.Equal(t, 0.2, f.fake.objectCalls[0].Temperature)
	assert.Equal(t, 0.5, f.fake.objectCalls[0].TopP)
	require.Len(t, f.fake.textCalls, 1)
	assert.True(t, strings.HasPrefix(f.fake.textCalls[0].Prompt, "Resumen por defecto."))
	assert.Equal(t, 0.2, f.fake.textCalls[0].Temperature)
}

func TestGenerateMissingToolConfig(t *testing.T) {
	f := newResumeFixture(makeDocs(5))
	delete(f.configs.tools, "resume")

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, ErrToolConfigMissing.Error(), result.Error)
	assert.Zero(t, f.factory.calls)
}

func TestGenerateEmptyAPIKey(t *testing.T) {
	f := newResumeFixture(makeDocs(5))
	f.configs.keys["openai"].Key = "   "

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "La API key está vacía o no es válida", result.Error)
	assert.NotEmpty(t, result.Logs)
	assert.Zero(t, f.factory.calls)
	assert.Empty(t, f.fake.objectCalls)
}

func TestGenerateMissingAPIKey(t *testing.T) {
	f := newResumeFixture(makeDocs(5))

	result, err := f.svc.Generate(context.Background(), "valid-token", models.ResumeRequest{Provider: "anthropic", Model: "claude-sonnet-4-5"})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, ErrAPIKeyMissing.Error())
	assert.Contains(t, result.Error, "anthropic")
}

func TestGenerateUnauthenticated(t *testing.T) {
	f := newResumeFixture(makeDocs(5))

	for _, token := range []string{"", "unknown-token"} {
		result, err := f.svc.Generate(context.Background(), token, resumeReq)
		require.NoError(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, ErrAuthentication.Error(), result.Error)
	}
}

func TestGenerateUserWithoutOrganization(t *testing.T) {
	f := newResumeFixture(makeDocs(5))
	sessions := newFakeSessions()
	sessions.profiles["user-1"].OrganizationID = ""
	f.svc = NewResumeService(Deps{Sessions: sessions, Configs: f.configs, Documents: f.documents, NewClient: f.factory.New}, ResumeOptions{})

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	require.NoError(t, err)
	assert.Equal(t, ErrNoOrganization.Error(), result.Error)
}

func TestGenerateUnsupportedProvider(t *testing.T) {
	f := newResumeFixture(makeDocs(5))

	result, err := f.svc.Generate(context.Background(), "valid-token", models.ResumeRequest{Provider: "mistral", Model: "large"})
	var unsupported *llm.UnsupportedProviderError
	require.ErrorAs(t, err, &unsupported)
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Logs)
	assert.Zero(t, f.factory.calls)
}

func TestGenerateNoDocuments(t *testing.T) {
	f := newResumeFixture(nil)

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	require.NoError(t, err)
	assert.Equal(t, ErrNoDocuments.Error(), result.Error)
	assert.Empty(t, f.fake.objectCalls)
}

func TestGenerateContentSourceFailure(t *testing.T) {
	f := newResumeFixture(nil)
	f.documents.err = errors.New("wordpress returned 500")

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, ErrContentSource.Error())
}

func TestGenerateUsesPostedDocuments(t *testing.T) {
	f := newResumeFixture(nil)
	req := resumeReq
	req.Posts = makeDocs(3)

	result, err := f.svc.Generate(context.Background(), "valid-token", req)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	assert.Len(t, result.Selected, 3)
}

func TestGenerateUpstreamFailure(t *testing.T) {
	f := newResumeFixture(makeDocs(5))
	f.fake.textErr = &llm.UpstreamError{Provider: "openai", StatusCode: 503, Body: "overloaded"}

	result, err := f.svc.Generate(context.Background(), "valid-token", resumeReq)
	var upstream *llm.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "503")
	assert.NotEmpty(t, result.Logs)
	assert.Empty(t, f.resumes.records)
	assert.Equal(t, 2005, ResponseCode(err))
}

func TestGenerateForOrganization(t *testing.T) {
	f := newResumeFixture(makeDocs(7))

	result, err := f.svc.GenerateForOrganization(context.Background(), "org-1", resumeReq)
	require.NoError(t, err)
	require.True(t, result.Success, result.Error)
	require.Len(t, f.resumes.records, 1)
	assert.Empty(t, f.resumes.records[0].UserID)
	assert.Equal(t, "org-1", result.Logs[0].OrganizationID)
}
