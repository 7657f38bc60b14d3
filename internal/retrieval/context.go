package retrieval

import "strings"

// Delimiters wrapped around each schema-context entry. The generator's prompt
// template assumes exactly this framing.
const (
	documentStart = "[DOCUMENT_START]\n"
	documentEnd   = "[DOCUMENT_END]\n\n"
)

// RenderContext serializes a retrieval result into the schema-context block
// handed to the generator. Column entries come first in retrieval order, then
// the backfilled table entries. Output is deterministic for a given result.
func RenderContext(result *Result) string {
	var b strings.Builder

	for _, hit := range result.Columns {
		writeDocument(&b, hit.Document.Text)
	}

	for _, table := range result.Tables {
		writeDocument(&b, table.Describe())
	}

	return b.String()
}

func writeDocument(b *strings.Builder, text string) {
	b.WriteString(documentStart)
	b.WriteString(text)
	b.WriteString(documentEnd)
}
