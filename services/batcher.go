package services

import (
	"fmt"
	"strings"

	"kitai/models"
	"kitai/utils"
)

// EntrySeparator sits between document entries in a batch text.
const EntrySeparator = "\n\n---\n\n"

// Batch is an ordered slice of the input documents and the text sent to the selector.
type Batch struct {
	Index     int
	Documents []models.SourceDocument
	Text      string
	Entries   int // documents that made it into Text
}

// BuildBatches splits docs into ceil(len(docs)/size) batches, keeping order.
// Documents without content after cleaning stay in Documents but are left out of Text.
func BuildBatches(docs []models.SourceDocument, size int) []Batch {
	if size <= 0 {
		size = 20
	}
	batches := make([]Batch, 0, (len(docs)+size-1)/size)
	for start := 0; start < len(docs); start += size {
		end := start + size
		if end > len(docs) {
			end = len(docs)
		}
		chunk := docs[start:end]
		text, entries := FormatBatchText(chunk)
		batches = append(batches, Batch{
			Index:     len(batches),
			Documents: chunk,
			Text:      text,
			Entries:   entries,
		})
	}
	return batches
}

// FormatBatchText joins the entries of docs with EntrySeparator and returns how
// many documents were included.
func FormatBatchText(docs []models.SourceDocument) (string, int) {
	entries := make([]string, 0, len(docs))
	for _, doc := range docs {
		if entry := formatEntry(doc); entry != "" {
			entries = append(entries, entry)
		}
	}
	return strings.Join(entries, EntrySeparator), len(entries)
}

func formatEntry(doc models.SourceDocument) string {
	content := utils.CleanHTML(doc.ContentHTML)
	if content == "" {
		return ""
	}
	return fmt.Sprintf("Título: %s\nEnlace: %s\nContenido: %s", utils.CleanHTML(doc.Title), doc.Link, content)
}
