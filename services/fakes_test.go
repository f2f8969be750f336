package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"kitai/llm"
	"kitai/models"
	"kitai/utils"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

type fakeSessions struct {
	sessions map[string]string // token hash -> user id
	profiles map[string]*models.Profile
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		sessions: map[string]string{utils.HashToken("valid-token"): "user-1"},
		profiles: map[string]*models.Profile{
			"user-1": {UserID: "user-1", OrganizationID: "org-1", Role: "editor"},
		},
	}
}

func (f *fakeSessions) GetSessionUser(_ context.Context, hash string) (string, error) {
	return f.sessions[hash], nil
}

func (f *fakeSessions) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	return f.profiles[userID], nil
}

type fakeConfigs struct {
	keys     map[string]*models.APIKey // provider -> key
	tools    map[string]*models.ToolConfiguration
	defaults map[string]*models.ToolConfiguration
}

func newFakeConfigs() *fakeConfigs {
	return &fakeConfigs{
		keys: map[string]*models.APIKey{
			"openai": {OrganizationID: "org-1", Provider: "openai", Key: "sk-live", Active: true},
		},
		tools: map[string]*models.ToolConfiguration{
			"resume": {
				OrganizationID: "org-1",
				Identity:       "resume",
				Prompts:        []models.Prompt{{Title: "Resumen", Content: "Redacta el resumen diario."}},
				Temperature:    0.7,
				TopP:           0.9,
			},
		},
		defaults: map[string]*models.ToolConfiguration{},
	}
}

func (f *fakeConfigs) GetActiveAPIKey(_ context.Context, _, provider string) (*models.APIKey, error) {
	return f.keys[provider], nil
}

func (f *fakeConfigs) GetToolConfig(_ context.Context, _, identity string) (*models.ToolConfiguration, error) {
	return f.tools[identity], nil
}

func (f *fakeConfigs) GetDefaultToolConfig(_ context.Context, identity string) (*models.ToolConfiguration, error) {
	return f.defaults[identity], nil
}

type fakeDocuments struct {
	docs []models.SourceDocument
	err  error
}

func (f *fakeDocuments) FetchDocuments(context.Context, string, time.Time, time.Time) ([]models.SourceDocument, error) {
	return f.docs, f.err
}

type fakeResumes struct {
	mu      sync.Mutex
	records []*models.ResumeRecord
}

func (f *fakeResumes) SaveResume(_ context.Context, r *models.ResumeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, r)
	return nil
}

// fakeLLM picks the first links of every selection prompt and echoes a fixed
// text for generation calls. It records every request.
type fakeLLM struct {
	mu          sync.Mutex
	pick        int
	objectCalls []llm.ObjectRequest
	textCalls   []llm.TextRequest
	textErr     error
	text        string
}

func (f *fakeLLM) Provider() string { return "openai" }

func (f *fakeLLM) GenerateText(_ context.Context, req llm.TextRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls = append(f.textCalls, req)
	if f.textErr != nil {
		return "", f.textErr
	}
	if f.text == "" {
		return "RESUMEN GENERADO", nil
	}
	return f.text, nil
}

func (f *fakeLLM) GenerateObject(_ context.Context, req llm.ObjectRequest) (json.RawMessage, error) {
	f.mu.Lock()
	f.objectCalls = append(f.objectCalls, req)
	f.mu.Unlock()

	var out models.SelectionResult
	for _, link := range linksIn(req.Prompt) {
		if len(out.Selected) == f.pick {
			break
		}
		out.Selected = append(out.Selected, models.SelectionCandidate{Link: link, Title: "t", Reason: "r"})
	}
	return json.Marshal(out)
}

func linksIn(text string) []string {
	var links []string
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, "Enlace: ") {
			links = append(links, strings.TrimPrefix(line, "Enlace: "))
		}
	}
	return links
}

// countingFactory returns the same client and counts constructions.
type countingFactory struct {
	mu     sync.Mutex
	client llm.Client
	calls  int
}

func (f *countingFactory) New(provider, apiKey string) (llm.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if !llm.IsSupported(provider) {
		return nil, &llm.UnsupportedProviderError{Provider: provider}
	}
	return f.client, nil
}

func makeDocs(n int) []models.SourceDocument {
	docs := make([]models.SourceDocument, n)
	base := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	for i := range docs {
		id := i + 1
		docs[i] = models.SourceDocument{
			ID:          fmt.Sprint(id),
			Title:       fmt.Sprintf("<b>Noticia %d</b>", id),
			ExcerptHTML: fmt.Sprintf("<p>extracto %d</p>", id),
			ContentHTML: fmt.Sprintf("<p>Contenido de la noticia %d.</p>\n<p>Segundo párrafo %d.</p>", id, id),
			Link:        fmt.Sprintf("https://diario.test/noticia-%d", id),
			PublishedAt: base.Add(time.Duration(i) * time.Minute),
		}
	}
	return docs
}
