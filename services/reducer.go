package services

import (
	"context"

	"kitai/logger"
	"kitai/models"
	"kitai/utils"
)

// DocumentIndex maps a link to its document. On duplicate links the first
// document wins.
type DocumentIndex map[string]models.SourceDocument

// IndexByLink builds the link index of docs, reporting duplicate links to trail.
func IndexByLink(ctx context.Context, docs []models.SourceDocument, trail *logger.Trail) DocumentIndex {
	index := make(DocumentIndex, len(docs))
	for _, doc := range docs {
		if doc.Link == "" {
			continue
		}
		if _, exists := index[doc.Link]; exists {
			trail.Warn(ctx, models.EventContent, "duplicate document link, keeping the first occurrence",
				logger.Meta("link", doc.Link), logger.Meta("ignored_id", doc.ID))
			continue
		}
		index[doc.Link] = doc
	}
	return index
}

// Resolve maps candidates to their documents, dropping unknown links and repeats.
func (idx DocumentIndex) Resolve(candidates []models.SelectionCandidate) (docs []models.SourceDocument, unknown int) {
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		doc, ok := idx[c.Link]
		if !ok {
			unknown++
			continue
		}
		if seen[c.Link] {
			continue
		}
		seen[c.Link] = true
		docs = append(docs, doc)
	}
	return docs, unknown
}

// Reducer merges the per-batch selections and re-selects the finalists.
type Reducer struct {
	selector  *Selector
	batchSize int
	maxInput  int
	trail     *logger.Trail
}

func NewReducer(selector *Selector, batchSize, maxInput int, trail *logger.Trail) *Reducer {
	if batchSize <= 0 {
		batchSize = 20
	}
	if maxInput <= 0 {
		maxInput = 100
	}
	return &Reducer{selector: selector, batchSize: batchSize, maxInput: maxInput, trail: trail}
}

// Reduce turns the batch selections into the final selection. Merged candidates
// above the reduce limit go through extra batched rounds before the final pass.
func (r *Reducer) Reduce(ctx context.Context, index DocumentIndex, perBatch [][]models.SelectionCandidate) ([]models.FinalSelection, error) {
	var flat []models.SelectionCandidate
	for _, picked := range perBatch {
		flat = append(flat, picked...)
	}

	merged := r.resolve(ctx, index, flat)
	if len(merged) == 0 {
		return nil, ErrNoSelection
	}

	for round := 1; len(merged) > r.maxInput; round++ {
		r.trail.Info(ctx, models.EventSelection, "merged candidates exceed reduce limit, running another round",
			logger.Count(len(merged)), logger.Meta("round", round), logger.Meta("limit", r.maxInput))

		picked, err := r.selector.SelectAll(ctx, BuildBatches(merged, r.batchSize))
		if err != nil {
			return nil, err
		}
		var next []models.SelectionCandidate
		for _, p := range picked {
			next = append(next, p...)
		}
		reduced := r.resolve(ctx, index, next)
		if len(reduced) == 0 {
			return nil, ErrNoSelection
		}
		if len(reduced) >= len(merged) {
			reduced = reduced[:r.maxInput]
		}
		merged = reduced
	}

	text, entries := FormatBatchText(merged)
	r.trail.Info(ctx, models.EventSelection, "final selection pass", logger.Count(entries))

	final, err := r.selector.Select(ctx, finalPass, text)
	if err != nil {
		return nil, err
	}
	finalists := r.resolve(ctx, index, final)
	if len(finalists) == 0 {
		return nil, ErrNoSelection
	}
	if len(finalists) > r.selector.maxSelected {
		finalists = finalists[:r.selector.maxSelected]
	}

	out := make([]models.FinalSelection, 0, len(finalists))
	for _, doc := range finalists {
		out = append(out, models.FinalSelection{
			Link:    doc.Link,
			Title:   utils.CleanHTML(doc.Title),
			Content: utils.CleanHTML(doc.ContentHTML),
			Date:    doc.PublishedAt,
		})
	}
	return out, nil
}

func (r *Reducer) resolve(ctx context.Context, index DocumentIndex, candidates []models.SelectionCandidate) []models.SourceDocument {
	docs, unknown := index.Resolve(candidates)
	if unknown > 0 {
		r.trail.Warn(ctx, models.EventSelection, "dropped candidates with unknown links", logger.Count(unknown))
	}
	return docs
}
