package ledger

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"policyrag/internal/domain"
)

// JSONLLedger is the append-only feedback ledger: one JSON record per
// line. Each line deserializes independently, so a corrupt or truncated
// trailing record never invalidates earlier ones.
type JSONLLedger struct {
	path string
	mu   sync.Mutex
}

// NewJSONLLedger creates the ledger file's directory if needed. The
// file itself is created on first append.
func NewJSONLLedger(path string) (*JSONLLedger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &JSONLLedger{path: path}, nil
}

// Append durably writes one record. The record id and timestamp are
// assigned here if unset. Each append opens, writes and syncs
// independently so a failure leaves prior records untouched.
func (l *JSONLLedger) Append(rec domain.FeedbackRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	if rec.ID == "" {
		rec.ID = recordID(rec)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback record: %w", err)
	}
	data = append(data, '\n')

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to append feedback record: %w", err)
	}
	return f.Sync()
}

// ReadRecent returns the last n records in insertion order.
func (l *JSONLLedger) ReadRecent(n int) ([]domain.FeedbackRecord, error) {
	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if n > 0 && len(records) > n {
		records = records[len(records)-n:]
	}
	return records, nil
}

// ReadSince returns all records with a timestamp at or after t.
func (l *JSONLLedger) ReadSince(t time.Time) ([]domain.FeedbackRecord, error) {
	records, err := l.readAll()
	if err != nil {
		return nil, err
	}
	out := make([]domain.FeedbackRecord, 0, len(records))
	for _, rec := range records {
		if !rec.Timestamp.Before(t) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (l *JSONLLedger) readAll() ([]domain.FeedbackRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	defer f.Close()

	var records []domain.FeedbackRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec domain.FeedbackRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // Skip corrupted lines
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	return records, nil
}

// recordID derives a stable id from the record's timestamp and content.
// Nanosecond timestamps keep repeated identical queries distinct.
func recordID(rec domain.FeedbackRecord) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%f", rec.Timestamp.UnixNano(), rec.QueryText, rec.Quality)
	return hex.EncodeToString(h.Sum(nil))[:16]
}
