package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"policyrag/internal/domain"
)

var pageMarker = regexp.MustCompile(`(?m)^=== PAGE (\d+) ===$`)

// PageChunker splits extracted policy-document text into fixed-size
// passages. Input files carry "=== PAGE n ===" markers from the PDF
// extraction step; page numbers become the chunk's page range.
type PageChunker struct {
	maxChars int
}

func NewPageChunker(maxChars int) *PageChunker {
	if maxChars <= 0 {
		maxChars = 1500
	}
	return &PageChunker{maxChars: maxChars}
}

type page struct {
	number int
	text   string
}

// Chunk produces the document's passages in page order. Text without
// page markers is treated as a single page 1.
func (c *PageChunker) Chunk(doc domain.PolicyDocument, content string) ([]domain.PolicyChunk, error) {
	pages := splitPages(content)
	if len(pages) == 0 {
		return nil, nil
	}

	var chunks []domain.PolicyChunk
	idx := 0
	for _, p := range pages {
		text := strings.TrimSpace(p.text)
		if text == "" {
			continue
		}
		for start := 0; start < len(text); start += c.maxChars {
			end := start + c.maxChars
			if end > len(text) {
				end = len(text)
			}
			excerpt := strings.TrimSpace(text[start:end])
			if excerpt == "" {
				continue
			}
			chunks = append(chunks, domain.PolicyChunk{
				ID:           chunkID(doc.Key, idx),
				DocKey:       doc.Key,
				DocTitle:     doc.Title,
				Authority:    doc.Authority,
				PageStart:    p.number,
				PageEnd:      p.number,
				ParagraphRef: fmt.Sprintf("pp.%d-%d#c%d", p.number, p.number, idx),
				Text:         excerpt,
				SourcePath:   doc.SourcePath,
				AdoptedYear:  doc.AdoptedYear,
			})
			idx++
		}
	}
	return chunks, nil
}

func splitPages(content string) []page {
	matches := pageMarker.FindAllStringSubmatchIndex(content, -1)
	if len(matches) == 0 {
		if strings.TrimSpace(content) == "" {
			return nil
		}
		return []page{{number: 1, text: content}}
	}

	pages := make([]page, 0, len(matches))
	for i, m := range matches {
		num, _ := strconv.Atoi(content[m[2]:m[3]])
		start := m[1]
		end := len(content)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		pages = append(pages, page{number: num, text: content[start:end]})
	}
	return pages
}

func chunkID(docKey string, idx int) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", docKey, idx)))
	return hex.EncodeToString(h[:8])
}
