package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitai/llm"
	"kitai/logger"
	"kitai/models"
	"kitai/utils"
)

var testTool = &models.ToolConfiguration{
	Identity:    "resume",
	Prompts:     []models.Prompt{{Title: "Resumen", Content: "Escribe el resumen."}},
	Temperature: 0.4,
	TopP:        0.95,
}

func TestUnsupportedProviderNeverBuildsClient(t *testing.T) {
	factory := &countingFactory{client: &fakeLLM{pick: 5}}
	trail := logger.NewTrail(nil, "resume")

	_, err := NewSelector(factory.New, "mistral", "key", testTool, SelectorOptions{}, trail)
	var unsupported *llm.UnsupportedProviderError
	require.ErrorAs(t, err, &unsupported)

	_, err = NewSynthesizer(factory.New, "mistral", "key", "big-model", testTool, trail)
	require.ErrorAs(t, err, &unsupported)

	assert.Zero(t, factory.calls)
}

func TestIndexByLinkFirstMatchWins(t *testing.T) {
	docs := makeDocs(3)
	docs[2].Link = docs[0].Link
	docs[2].ContentHTML = "<p>duplicado</p>"
	trail := logger.NewTrail(nil, "resume")

	index := IndexByLink(context.Background(), docs, trail)

	require.Len(t, index, 2)
	assert.Equal(t, docs[0].ID, index[docs[0].Link].ID)

	warned := false
	for _, ev := range trail.Events() {
		if ev.Level == models.LevelWarn && strings.Contains(ev.Message, "duplicate") {
			warned = true
		}
	}
	assert.True(t, warned, "duplicate link is reported")
}

func TestDocumentIndexResolve(t *testing.T) {
	docs := makeDocs(3)
	index := IndexByLink(context.Background(), docs, logger.NewTrail(nil, "resume"))

	got, unknown := index.Resolve([]models.SelectionCandidate{
		{Link: docs[2].Link},
		{Link: "https://elsewhere.test/x"},
		{Link: docs[0].Link},
		{Link: docs[2].Link},
	})
	assert.Equal(t, 1, unknown)
	assert.Equal(t, []models.SourceDocument{docs[2], docs[0]}, got)
}

func TestSelectorClampsAndSkipsEmpty(t *testing.T) {
	fake := &fakeLLM{pick: 10}
	factory := &countingFactory{client: fake}
	trail := logger.NewTrail(nil, "resume")

	sel, err := NewSelector(factory.New, "openai", "key", testTool, SelectorOptions{MaxSelected: 3}, trail)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", sel.Model())

	got, err := sel.Select(context.Background(), 0, BuildBatches(makeDocs(8), 20)[0].Text)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = sel.Select(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Len(t, fake.objectCalls, 1, "empty batch is not sent")

	req := fake.objectCalls[0]
	assert.Equal(t, "gpt-4o-mini", req.Model)
	assert.Equal(t, 0.4, req.Temperature)
	assert.Contains(t, string(req.Schema), `"maxItems":3`)
}

func TestSelectorUsesConfiguredSchemaAndPrompt(t *testing.T) {
	fake := &fakeLLM{pick: 1}
	tool := *testTool
	tool.Prompts = append(tool.Prompts, models.Prompt{Title: "Selección", Content: "Elige lo más leído."})
	tool.Schema = []byte(`{"type":"object","properties":{"selected":{"type":"array"}}}`)

	sel, err := NewSelector((&countingFactory{client: fake}).New, "openai", "key", &tool, SelectorOptions{}, logger.NewTrail(nil, "resume"))
	require.NoError(t, err)
	_, err = sel.Select(context.Background(), 0, BuildBatches(makeDocs(2), 20)[0].Text)
	require.NoError(t, err)

	require.Len(t, fake.objectCalls, 1)
	assert.Equal(t, "Elige lo más leído.", fake.objectCalls[0].System)
	assert.JSONEq(t, string(tool.Schema), string(fake.objectCalls[0].Schema))
}

func TestReducerExtraRounds(t *testing.T) {
	fake := &fakeLLM{pick: 5}
	factory := &countingFactory{client: fake}
	trail := logger.NewTrail(nil, "resume")
	ctx := context.Background()

	docs := makeDocs(40)
	sel, err := NewSelector(factory.New, "openai", "key", testTool, SelectorOptions{MaxSelected: 5}, trail)
	require.NoError(t, err)

	perBatch, err := sel.SelectAll(ctx, BuildBatches(docs, 10))
	require.NoError(t, err)
	require.Len(t, perBatch, 4)

	finalists, err := NewReducer(sel, 10, 8, trail).Reduce(ctx, IndexByLink(ctx, docs, trail), perBatch)
	require.NoError(t, err)

	// 4 batches, then 20 merged -> 2 batches -> 10, still above 8 -> 1 batch -> 5, then the final pass
	assert.Len(t, fake.objectCalls, 4+2+1+1)
	require.Len(t, finalists, 5)
	assert.Equal(t, docs[0].Link, finalists[0].Link)
}

func TestReducerDropsUnknownLinks(t *testing.T) {
	trail := logger.NewTrail(nil, "resume")
	sel, err := NewSelector((&countingFactory{client: &fakeLLM{pick: 5}}).New, "openai", "key", testTool, SelectorOptions{}, trail)
	require.NoError(t, err)

	_, err = NewReducer(sel, 20, 100, trail).Reduce(context.Background(), DocumentIndex{}, [][]models.SelectionCandidate{
		{{Link: "https://ghost.test/1"}},
	})
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestBuildPromptIsStableUnderCleaning(t *testing.T) {
	finalists := []models.FinalSelection{
		{Link: "https://diario.test/a", Title: "Uno", Content: utils.CleanHTML("<p>Primer   texto</p>\n<p>más</p>"), Date: makeDocs(1)[0].PublishedAt},
		{Link: "https://diario.test/b", Title: "Dos", Content: "Segundo texto"},
	}
	prompt := BuildPrompt("Instrucción principal", finalists)

	assert.True(t, strings.HasPrefix(prompt, "Instrucción principal"))
	assert.Contains(t, prompt, "Título: Uno\nFecha: 01/03/2025 08:00\nEnlace: https://diario.test/a\nContenido: Primer texto más")
	assert.Contains(t, prompt, "Fecha: sin fecha")

	cleaned := utils.CleanHTML(prompt)
	assert.Equal(t, cleaned, utils.CleanHTML(cleaned))
}

func TestSynthesizerReturnsTextVerbatim(t *testing.T) {
	fake := &fakeLLM{text: "  Resumen con espacios\n"}
	syn, err := NewSynthesizer((&countingFactory{client: fake}).New, "openai", "key", "gpt-4o", testTool, logger.NewTrail(nil, "resume"))
	require.NoError(t, err)

	text, err := syn.Synthesize(context.Background(), []models.FinalSelection{{Link: "l", Title: "t", Content: "c"}})
	require.NoError(t, err)
	assert.Equal(t, "  Resumen con espacios\n", text)

	require.Len(t, fake.textCalls, 1)
	want := llm.TextRequest{
		Model:       "gpt-4o",
		Prompt:      BuildPrompt(testTool.PrimaryPrompt(), []models.FinalSelection{{Link: "l", Title: "t", Content: "c"}}),
		Temperature: 0.4,
		TopP:        0.95,
	}
	if diff := cmp.Diff(want, fake.textCalls[0]); diff != "" {
		t.Errorf("text request mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizerPropagatesUpstreamError(t *testing.T) {
	upstream := &llm.UpstreamError{Provider: "openai", StatusCode: 500, Body: "boom"}
	fake := &fakeLLM{textErr: upstream}
	trail := logger.NewTrail(nil, "resume")
	syn, err := NewSynthesizer((&countingFactory{client: fake}).New, "openai", "key", "gpt-4o", testTool, trail)
	require.NoError(t, err)

	_, err = syn.Synthesize(context.Background(), nil)
	assert.True(t, errors.Is(err, upstream))
	assert.Equal(t, models.LevelError, trail.Events()[len(trail.Events())-1].Level)
}
