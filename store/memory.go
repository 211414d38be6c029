package store

import (
	"context"
	"sync"
	"time"

	models "github.com/phillip/chama-tracker-go/models"
)

// Memory keeps the serialized document in process. Used by tests and the "memory" backend.
type Memory struct {
	mu      sync.Mutex
	data    []byte
	modTime time.Time
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Load(_ context.Context) (*Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return emptySnapshot(), nil
	}
	return snapshotFrom(m.data)
}

func (m *Memory) Save(_ context.Context, doc *models.Document, expectedSHA string) (string, error) {
	data, err := Encode(doc)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.currentSHA() != expectedSHA {
		return "", ErrConflict
	}
	m.data = data
	m.modTime = time.Now()
	return ContentSHA(data), nil
}

func (m *Memory) List(_ context.Context) ([]FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		return []FileInfo{}, nil
	}
	return []FileInfo{{
		Name:    "data.json",
		Path:    "memory://data.json",
		Size:    int64(len(m.data)),
		SHA:     ContentSHA(m.data),
		ModTime: m.modTime,
	}}, nil
}

func (m *Memory) currentSHA() string {
	if m.data == nil {
		return ""
	}
	return ContentSHA(m.data)
}
