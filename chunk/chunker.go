// Package chunk splits long text into bounded-size segments prior to
// embedding, to keep each segment within a model's effective context and
// to improve retrieval granularity.
package chunk

import "strings"

// DefaultMaxChunkSize is the soft character bound used when callers pass
// a non-positive limit.
const DefaultMaxChunkSize = 1000

// Split splits text into chunks of roughly maxChunkSize characters.
//
// The splitting unit is the paragraph (blocks separated by a blank line).
// Paragraphs are accumulated into a running buffer; when adding the next
// paragraph would exceed the limit, the buffer is flushed as one chunk and
// a new buffer starts. The bound is soft: a single paragraph longer than
// maxChunkSize is kept whole rather than split mid-paragraph.
//
// Empty or whitespace-only input yields an empty slice. The function is
// pure and deterministic; identical input always produces identical chunks.
func Split(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = DefaultMaxChunkSize
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	chunks := make([]string, 0, len(paragraphs))
	var buf strings.Builder

	for _, para := range paragraphs {
		if buf.Len() > 0 && buf.Len()+len("\n\n")+len(para) > maxChunkSize {
			chunks = append(chunks, buf.String())
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(para)
	}

	if buf.Len() > 0 {
		chunks = append(chunks, buf.String())
	}

	return chunks
}

// splitParagraphs breaks text into trimmed, non-empty paragraphs.
// Windows line endings are normalized so "\r\n\r\n" separates paragraphs too.
func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	parts := strings.Split(text, "\n\n")
	paragraphs := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			paragraphs = append(paragraphs, part)
		}
	}
	return paragraphs
}
