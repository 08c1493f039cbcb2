package blob

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/wrongbook/pkg/domain/interfaces"
)

const memoryBaseURL = "https://blob.invalid/memory"

// Memory keeps objects in process. Failures and latency can be injected.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string

	uploadErr   error
	uploadDelay time.Duration
	deleteErr   error
	uploads     int
	deletes     []string
}

var _ interfaces.BlobStore = &Memory{}

func NewMemory() *Memory {
	return &Memory{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

// FailUpload makes Upload fail with err. Pass nil to recover.
func (m *Memory) FailUpload(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadErr = err
}

// DelayUpload makes Upload block for d or until the context is done
func (m *Memory) DelayUpload(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploadDelay = d
}

// FailDelete makes Delete fail with err. Pass nil to recover.
func (m *Memory) FailDelete(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
}

func (m *Memory) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	m.uploads++
	delay, failure := m.uploadDelay, m.uploadErr
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return "", uploadFailed(ctx.Err(), "upload interrupted", path)
		case <-time.After(delay):
		}
	}
	if failure != nil {
		return "", uploadFailed(failure, "upload rejected", path)
	}

	copied := make([]byte, len(data))
	copy(copied, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[path] = copied
	m.types[path] = contentType
	return joinURL(memoryBaseURL, path), nil
}

func (m *Memory) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.deletes = append(m.deletes, ref)
	if m.deleteErr != nil {
		return goerr.Wrap(m.deleteErr, "delete rejected", goerr.V("ref", ref))
	}

	path, ok := objectPath(memoryBaseURL, ref)
	if !ok {
		return goerr.New("reference is not in the store", goerr.V("ref", ref))
	}
	delete(m.objects, path)
	delete(m.types, path)
	return nil
}

func (m *Memory) Path(ref string) (string, bool) {
	return objectPath(memoryBaseURL, ref)
}

// Object returns the stored bytes and content type of ref
func (m *Memory) Object(ref string) ([]byte, string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path, ok := objectPath(memoryBaseURL, ref)
	if !ok {
		return nil, "", false
	}
	data, ok := m.objects[path]
	return data, m.types[path], ok
}

// Uploads counts Upload calls, failed ones included
func (m *Memory) Uploads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.uploads
}

// Deletes lists every reference passed to Delete
func (m *Memory) Deletes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deletes...)
}

// Len returns the number of stored objects
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
