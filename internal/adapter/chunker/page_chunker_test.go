package chunker

import (
	"strings"
	"testing"

	"policyrag/internal/domain"
)

var testDoc = domain.PolicyDocument{
	Key:         "dap_2020",
	Title:       "Development and Allocations Plan",
	Authority:   "Gateshead",
	SourcePath:  "corpus/dap_2020.txt",
	AdoptedYear: 2020,
}

func TestChunkSplitsOnPageMarkers(t *testing.T) {
	c := NewPageChunker(1500)

	content := "=== PAGE 3 ===\nPolicy on residential amenity.\n=== PAGE 4 ===\nPolicy on parking standards.\n"

	chunks, err := c.Chunk(testDoc, content)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].PageStart != 3 || chunks[0].PageEnd != 3 {
		t.Errorf("first chunk pages = %d-%d, want 3-3", chunks[0].PageStart, chunks[0].PageEnd)
	}
	if chunks[1].PageStart != 4 {
		t.Errorf("second chunk page = %d, want 4", chunks[1].PageStart)
	}
	if chunks[0].Text != "Policy on residential amenity." {
		t.Errorf("unexpected text: %q", chunks[0].Text)
	}
	if chunks[0].ParagraphRef != "pp.3-3#c0" {
		t.Errorf("unexpected paragraph ref: %q", chunks[0].ParagraphRef)
	}
}

func TestChunkWithoutMarkersIsPageOne(t *testing.T) {
	c := NewPageChunker(1500)

	chunks, err := c.Chunk(testDoc, "A short policy statement with no page markers.")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].PageStart != 1 || chunks[0].PageEnd != 1 {
		t.Errorf("unmarked text should be page 1, got %d-%d", chunks[0].PageStart, chunks[0].PageEnd)
	}
}

func TestChunkSplitsLongPages(t *testing.T) {
	c := NewPageChunker(100)

	content := "=== PAGE 7 ===\n" + strings.Repeat("policy text ", 30)

	chunks, err := c.Chunk(testDoc, content)
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) < 3 {
		t.Fatalf("expected a long page to split, got %d chunks", len(chunks))
	}
	for i, chunk := range chunks {
		if len(chunk.Text) > 100 {
			t.Errorf("chunk %d exceeds max chars: %d", i, len(chunk.Text))
		}
		if chunk.PageStart != 7 {
			t.Errorf("chunk %d page = %d, want 7", i, chunk.PageStart)
		}
	}
}

func TestChunkCarriesDocumentMetadata(t *testing.T) {
	c := NewPageChunker(1500)

	chunks, err := c.Chunk(testDoc, "Some policy text.")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	chunk := chunks[0]
	if chunk.DocKey != testDoc.Key || chunk.DocTitle != testDoc.Title {
		t.Errorf("document identity not carried: %+v", chunk)
	}
	if chunk.Authority != testDoc.Authority || chunk.AdoptedYear != testDoc.AdoptedYear {
		t.Errorf("document metadata not carried: %+v", chunk)
	}
}

func TestChunkIDsStableAndDistinct(t *testing.T) {
	c := NewPageChunker(50)

	content := strings.Repeat("stable policy text ", 20)

	first, _ := c.Chunk(testDoc, content)
	second, _ := c.Chunk(testDoc, content)
	if len(first) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(first))
	}

	seen := make(map[string]bool)
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("chunk %d id not stable: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if seen[first[i].ID] {
			t.Errorf("duplicate chunk id %s", first[i].ID)
		}
		seen[first[i].ID] = true
	}
}

func TestChunkEmptyContent(t *testing.T) {
	c := NewPageChunker(1500)

	chunks, err := c.Chunk(testDoc, "   \n\n  ")
	if err != nil {
		t.Fatalf("Chunk: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for blank content, got %d", len(chunks))
	}
}
