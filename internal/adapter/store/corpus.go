package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"policyrag/internal/domain"
)

var (
	bucketDocs      = []byte("docs")
	bucketChunks    = []byte("chunks")
	bucketBlobs     = []byte("blobs")
	bucketDocChunks = []byte("doc_chunks")
)

// BoltCorpus is the bbolt-backed corpus metadata store. Chunk metadata
// and excerpt text live in separate buckets so metadata scans stay
// cheap.
type BoltCorpus struct {
	db *bbolt.DB
}

// NewBoltCorpus opens the corpus database at path, creating buckets as
// needed.
func NewBoltCorpus(path string) (*BoltCorpus, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		buckets := [][]byte{bucketDocs, bucketChunks, bucketBlobs, bucketDocChunks, bucketWeights, bucketWeightLog}
		for _, b := range buckets {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltCorpus{db: db}, nil
}

// DB exposes the underlying handle so the vector index and weight store
// can share one database file.
func (s *BoltCorpus) DB() *bbolt.DB {
	return s.db
}

type docMeta struct {
	Title       string `json:"title"`
	Authority   string `json:"authority"`
	SourcePath  string `json:"source_path"`
	AdoptedYear int    `json:"adopted_year"`
}

type chunkMeta struct {
	DocKey       string `json:"doc_key"`
	PageStart    int    `json:"page_start"`
	PageEnd      int    `json:"page_end"`
	ParagraphRef string `json:"paragraph_ref"`
}

func (s *BoltCorpus) PutDocument(doc domain.PolicyDocument) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := docMeta{
			Title:       doc.Title,
			Authority:   doc.Authority,
			SourcePath:  doc.SourcePath,
			AdoptedYear: doc.AdoptedYear,
		}
		data, err := json.Marshal(meta)
		if err != nil {
			return err
		}
		return tx.Bucket(bucketDocs).Put([]byte(doc.Key), data)
	})
}

func (s *BoltCorpus) GetDocument(key string) (domain.PolicyDocument, error) {
	var doc domain.PolicyDocument
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocs).Get([]byte(key))
		if data == nil {
			return fmt.Errorf("document not found: %s", key)
		}
		var meta docMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		doc = domain.PolicyDocument{
			Key:         key,
			Title:       meta.Title,
			Authority:   meta.Authority,
			SourcePath:  meta.SourcePath,
			AdoptedYear: meta.AdoptedYear,
		}
		return nil
	})
	return doc, err
}

func (s *BoltCorpus) ListDocuments() ([]domain.PolicyDocument, error) {
	var docs []domain.PolicyDocument
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketDocs)
		return b.ForEach(func(k, v []byte) error {
			var meta docMeta
			if err := json.Unmarshal(v, &meta); err != nil {
				return err
			}
			docs = append(docs, domain.PolicyDocument{
				Key:         string(k),
				Title:       meta.Title,
				Authority:   meta.Authority,
				SourcePath:  meta.SourcePath,
				AdoptedYear: meta.AdoptedYear,
			})
			return nil
		})
	})
	return docs, err
}

// PutChunks writes a batch of chunks in one transaction.
func (s *BoltCorpus) PutChunks(chunks []domain.PolicyChunk) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		docChunks := tx.Bucket(bucketDocChunks)

		byDoc := make(map[string][]string)
		for _, chunk := range chunks {
			meta := chunkMeta{
				DocKey:       chunk.DocKey,
				PageStart:    chunk.PageStart,
				PageEnd:      chunk.PageEnd,
				ParagraphRef: chunk.ParagraphRef,
			}
			data, err := json.Marshal(meta)
			if err != nil {
				return err
			}
			if err := chunkBucket.Put([]byte(chunk.ID), data); err != nil {
				return err
			}
			if err := blobBucket.Put([]byte(chunk.ID), []byte(chunk.Text)); err != nil {
				return err
			}
			byDoc[chunk.DocKey] = append(byDoc[chunk.DocKey], chunk.ID)
		}

		for docKey, ids := range byDoc {
			var existing []string
			if data := docChunks.Get([]byte(docKey)); data != nil {
				json.Unmarshal(data, &existing)
			}
			existing = append(existing, ids...)
			data, err := json.Marshal(existing)
			if err != nil {
				return err
			}
			if err := docChunks.Put([]byte(docKey), data); err != nil {
				return err
			}
		}
		return nil
	})
}

// Resolve returns the chunk for id with its document metadata joined
// in, or an error wrapping domain.ErrChunkNotFound.
func (s *BoltCorpus) Resolve(id string) (domain.PolicyChunk, error) {
	var chunk domain.PolicyChunk
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketChunks).Get([]byte(id))
		if data == nil {
			return fmt.Errorf("%w: %s", domain.ErrChunkNotFound, id)
		}
		var meta chunkMeta
		if err := json.Unmarshal(data, &meta); err != nil {
			return err
		}
		text := tx.Bucket(bucketBlobs).Get([]byte(id))

		chunk = domain.PolicyChunk{
			ID:           id,
			DocKey:       meta.DocKey,
			PageStart:    meta.PageStart,
			PageEnd:      meta.PageEnd,
			ParagraphRef: meta.ParagraphRef,
			Text:         string(text),
		}

		if docData := tx.Bucket(bucketDocs).Get([]byte(meta.DocKey)); docData != nil {
			var dm docMeta
			if err := json.Unmarshal(docData, &dm); err == nil {
				chunk.DocTitle = dm.Title
				chunk.Authority = dm.Authority
				chunk.SourcePath = dm.SourcePath
				chunk.AdoptedYear = dm.AdoptedYear
			}
		}
		return nil
	})
	return chunk, err
}

// DeleteChunksByDoc removes a document's chunks, e.g. before a reload.
func (s *BoltCorpus) DeleteChunksByDoc(docKey string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		docChunks := tx.Bucket(bucketDocChunks)
		data := docChunks.Get([]byte(docKey))
		if data == nil {
			return nil
		}
		var ids []string
		if err := json.Unmarshal(data, &ids); err != nil {
			return err
		}
		chunkBucket := tx.Bucket(bucketChunks)
		blobBucket := tx.Bucket(bucketBlobs)
		for _, id := range ids {
			chunkBucket.Delete([]byte(id))
			blobBucket.Delete([]byte(id))
		}
		return docChunks.Delete([]byte(docKey))
	})
}

// ChunkIDsByDoc returns the ids of a document's chunks, in load order.
func (s *BoltCorpus) ChunkIDsByDoc(docKey string) ([]string, error) {
	var ids []string
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketDocChunks).Get([]byte(docKey))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &ids)
	})
	return ids, err
}

func (s *BoltCorpus) Close() error {
	return s.db.Close()
}
