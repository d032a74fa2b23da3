package main

import (
	"bytes"
	"context"
	"io"
	"sync"
	"time"
)

// This file contains mocks definitions needed to perform unit tests.

type MockBookStorage struct {
	AddFunc    func(ctx context.Context, book Book) error
	GetOneFunc func(ctx context.Context, id string) (Book, error)
	DeleteFunc func(ctx context.Context, id string) (Book, error)
	UpdateFunc func(ctx context.Context, id string, update BookUpdate) (Book, error)
	GetAllFunc func(ctx context.Context) ([]Book, error)
}

// Add mocks the behavior of book creation by the repository.
func (m *MockBookStorage) Add(ctx context.Context, book Book) error {
	return m.AddFunc(ctx, book)
}

// GetOne mocks the behavior of retrieving a book by the repository.
func (m *MockBookStorage) GetOne(ctx context.Context, id string) (Book, error) {
	return m.GetOneFunc(ctx, id)
}

// Delete mocks the behavior of deleting a book by the repository.
func (m *MockBookStorage) Delete(ctx context.Context, id string) (Book, error) {
	return m.DeleteFunc(ctx, id)
}

// Update mocks the behavior of updating a book by the repository.
func (m *MockBookStorage) Update(ctx context.Context, id string, update BookUpdate) (Book, error) {
	return m.UpdateFunc(ctx, id, update)
}

// GetAll mocks the behavior of retrieving all books by the repository.
func (m *MockBookStorage) GetAll(ctx context.Context) ([]Book, error) {
	return m.GetAllFunc(ctx)
}

// MockImageStore keeps saved images in memory.
type MockImageStore struct {
	mu      sync.Mutex
	Files   map[string][]byte
	SaveErr error
}

func NewMockImageStore() *MockImageStore {
	return &MockImageStore{Files: make(map[string][]byte)}
}

func (m *MockImageStore) Save(_ context.Context, name string, content io.Reader) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.Files[name] = data
	m.mu.Unlock()
	return nil
}

func (m *MockImageStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Files[name]
	if !ok {
		return nil, ErrImageNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *MockImageStore) Remove(_ context.Context, name string) error {
	m.mu.Lock()
	delete(m.Files, name)
	m.mu.Unlock()
	return nil
}

// MockClocker implements a fake Clocker.
type MockClocker struct {
	MockNow time.Time
}

// NewMockClocker returns a mocked instance with fixed time.
func NewMockClocker() *MockClocker {
	return &MockClocker{time.Date(2024, 0o3, 0o5, 10, 30, 0o0, 0o00000000, time.UTC)}
}

// Now returns an already defined time to be used as mock. This
// equals to `Tue, 05 Mar 2024 10:30:00 UTC` in time.RFC1123 format.
func (mck *MockClocker) Now() time.Time {
	return mck.MockNow
}

// MockUIDHandler implements a fake UIDHandler.
type MockUIDHandler struct {
	MockedUID string
	Valid     bool
}

// NewMockUIDHandler returns a mocked instance with predictable id.
func NewMockUIDHandler(id string, valid bool) *MockUIDHandler {
	return &MockUIDHandler{MockedUID: id, Valid: valid}
}

// Generate returns the predictable id.
func (muid *MockUIDHandler) Generate() string {
	return muid.MockedUID
}

// IsValid mocks IsValid behavior by providing configured status.
func (muid *MockUIDHandler) IsValid(_ string) bool {
	return muid.Valid
}

// MockQueue records pushed books.
type MockQueue struct {
	mu     sync.Mutex
	Pushed map[string][]Book
}

func NewMockQueue() *MockQueue {
	return &MockQueue{Pushed: make(map[string][]Book)}
}

func (mq *MockQueue) Push(_ context.Context, qid string, book Book) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.Pushed[qid] = append(mq.Pushed[qid], book)
	return nil
}

func (mq *MockQueue) Pop(ctx context.Context, _ ...string) (string, Book, error) {
	<-ctx.Done()
	return "", Book{}, ctx.Err()
}

// newTestConfig returns the defaults used by handlers and services tests.
func newTestConfig() *Config {
	config := DefaultConfig()
	config.OpsEndpointsEnable = true
	return config
}
