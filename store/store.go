package store

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	models "github.com/phillip/chama-tracker-go/models"
)

// ErrConflict is returned by Save when the expected SHA no longer matches the stored document.
var ErrConflict = errors.New("document changed since it was read")

// Snapshot is a document as read from a backend. SHA is empty when nothing is stored yet.
type Snapshot struct {
	Document *models.Document
	SHA      string
	Exists   bool
}

// FileInfo describes one object listed by a backend for diagnostics.
type FileInfo struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Size    int64     `json:"size"`
	SHA     string    `json:"sha,omitempty"`
	ModTime time.Time `json:"mod_time,omitempty"`
}

// Store reads and writes the whole document.
type Store interface {
	Load(ctx context.Context) (*Snapshot, error)
	// Save writes doc if the stored SHA still equals expectedSHA ("" means "must not exist yet")
	// and returns the new SHA.
	Save(ctx context.Context, doc *models.Document, expectedSHA string) (string, error)
	List(ctx context.Context) ([]FileInfo, error)
	Name() string
}

// Encode writes the document as 2-space indented JSON.
func Encode(doc *models.Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc.Normalize(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return data, nil
}

// Decode parses stored bytes. Empty input yields the empty defaults.
func Decode(data []byte) (*models.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewDocument(), nil
	}
	var doc models.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc.Normalize(), nil
}

// ContentSHA is the git blob SHA-1 of data, so it matches what a Git host reports for the same file.
func ContentSHA(data []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(data))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

func emptySnapshot() *Snapshot {
	return &Snapshot{Document: models.NewDocument()}
}

func snapshotFrom(data []byte) (*Snapshot, error) {
	doc, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Document: doc, SHA: ContentSHA(data), Exists: true}, nil
}
