package testutil

import (
	"context"
	"io"
	"sync"

	"github.com/brickfund/platform/internal/service"
)

// MemoryStorage is an in-memory storage.Storage.
type MemoryStorage struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Types   map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		Objects: make(map[string][]byte),
		Types:   make(map[string]string),
	}
}

func (m *MemoryStorage) Save(_ context.Context, path string, file io.Reader, contentType string) error {
	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Objects[path] = data
	m.Types[path] = contentType
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Objects, path)
	delete(m.Types, path)
	return nil
}

func (m *MemoryStorage) URL(_ context.Context, path string) (string, error) {
	return "https://storage.test/" + path + "?signed=1", nil
}

func (m *MemoryStorage) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Objects)
}

// MemoryMailer records outgoing mail instead of sending it.
type MemoryMailer struct {
	mu   sync.Mutex
	Sent []service.Message
}

func (m *MemoryMailer) Send(_ context.Context, msg service.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

func (m *MemoryMailer) Last() (service.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return service.Message{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}
