package usecase

import (
	"fmt"
	"path/filepath"
	"strings"

	"policyrag/internal/adapter/chunker"
	"policyrag/internal/adapter/fs"
	"policyrag/internal/domain"
	"policyrag/internal/port"
)

// LoadUseCase loads extracted policy text into the corpus store and the
// similarity index: split into page-ranged passages, embed, upsert.
type LoadUseCase struct {
	corpus   port.CorpusStore
	index    port.SimilarityIndex
	embedder port.Embedder
	chunker  *chunker.PageChunker
	walker   *fs.Walker
}

func NewLoadUseCase(
	corpus port.CorpusStore,
	index port.SimilarityIndex,
	embedder port.Embedder,
	chk *chunker.PageChunker,
	walker *fs.Walker,
) *LoadUseCase {
	return &LoadUseCase{
		corpus:   corpus,
		index:    index,
		embedder: embedder,
		chunker:  chk,
		walker:   walker,
	}
}

// LoadResult summarizes one load operation.
type LoadResult struct {
	DocsLoaded    int
	ChunksCreated int
	Errors        []string
}

// ProgressFunc reports per-document progress during a directory load.
type ProgressFunc func(done, total int, current string)

// LoadDocument replaces one document's passages with freshly chunked,
// embedded content. Reloading a document drops its previous chunks
// first so the corpus and index never hold stale passages.
func (u *LoadUseCase) LoadDocument(doc domain.PolicyDocument, content string) (int, error) {
	chunks, err := u.chunker.Chunk(doc, content)
	if err != nil {
		return 0, fmt.Errorf("failed to chunk %s: %w", doc.Key, err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	if err := u.corpus.DeleteChunksByDoc(doc.Key); err != nil {
		return 0, fmt.Errorf("failed to clear previous chunks for %s: %w", doc.Key, err)
	}
	if err := u.corpus.PutDocument(doc); err != nil {
		return 0, fmt.Errorf("failed to store document %s: %w", doc.Key, err)
	}
	if err := u.corpus.PutChunks(chunks); err != nil {
		return 0, fmt.Errorf("failed to store chunks for %s: %w", doc.Key, err)
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}
	vectors, err := u.embedder.Embed(texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %s: %w", doc.Key, err)
	}
	if len(vectors) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch for %s: %d texts, %d vectors", doc.Key, len(chunks), len(vectors))
	}

	items := make([]port.VectorItem, len(chunks))
	for i, c := range chunks {
		items[i] = port.VectorItem{ID: c.ID, Vector: vectors[i]}
	}
	if err := u.index.Upsert(items); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", doc.Key, err)
	}

	return len(chunks), nil
}

// LoadDir loads every matching text file under root as its own
// document, keyed by file name. One broken file does not abort the
// load; its error is collected.
func (u *LoadUseCase) LoadDir(root, authority string, adoptedYear int, progress ProgressFunc) (*LoadResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	result := &LoadResult{}
	for i, path := range files {
		if progress != nil {
			progress(i, len(files), path)
		}

		content, err := fs.ReadFile(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", path, err))
			continue
		}

		doc := docFromPath(path, authority, adoptedYear)
		n, err := u.LoadDocument(doc, content)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		if n > 0 {
			result.DocsLoaded++
			result.ChunksCreated += n
		}
	}
	if progress != nil {
		progress(len(files), len(files), "")
	}

	return result, nil
}

// docFromPath derives document metadata from a file name like
// "dap_2020.txt": the stem becomes the key and, when it ends in a
// 4-digit year, the adopted year.
func docFromPath(path, authority string, adoptedYear int) domain.PolicyDocument {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if adoptedYear == 0 {
		if i := strings.LastIndex(stem, "_"); i >= 0 && len(stem)-i-1 == 4 {
			var year int
			if _, err := fmt.Sscanf(stem[i+1:], "%d", &year); err == nil && year > 1900 && year < 2200 {
				adoptedYear = year
			}
		}
	}

	title := strings.ReplaceAll(stem, "_", " ")
	if title != "" {
		title = strings.ToUpper(title[:1]) + title[1:]
	}

	return domain.PolicyDocument{
		Key:         stem,
		Title:       title,
		Authority:   authority,
		SourcePath:  path,
		AdoptedYear: adoptedYear,
	}
}
