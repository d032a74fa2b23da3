package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestBookService(storage BookStorage, images ImageStore, queue Queuer, valid bool) BookServiceProvider {
	clock := &MockClocker{time.Date(2024, 3, 5, 10, 30, 0, 123456789, time.Local)}
	return NewBookService(zap.NewNop(), newTestConfig(), clock, NewMockUIDHandler(testBookID, valid), storage, images, queue)
}

// TestBookService_Add ensures a created book gets its id, timestamps and queue event.
func TestBookService_Add(t *testing.T) {
	var saved Book
	storage := &MockBookStorage{AddFunc: func(ctx context.Context, book Book) error {
		saved = book
		return nil
	}}
	queue := NewMockQueue()
	images := NewMockImageStore()
	bs := newTestBookService(storage, images, queue, true)

	book, err := bs.Add(context.Background(), BookRequest{Title: "Dune", Author: "Herbert", Publisher: "Chilton"},
		&ImageUpload{Filename: "cover.JPEG", Content: bytes.NewReader([]byte("img"))})
	require.NoError(t, err)
	assert.Equal(t, testBookID, book.ID)
	assert.Equal(t, saved, book)
	assert.Equal(t, time.UTC, book.CreatedAt.Location())
	assert.Equal(t, 123000000, book.CreatedAt.Nanosecond())
	assert.Equal(t, book.CreatedAt, book.UpdatedAt)
	assert.Regexp(t, `^/images/\d+-[0-9a-f]{8}\.jpeg$`, book.ImagePath)
	assert.Len(t, images.Files, 1)
	require.Len(t, queue.Pushed[CreateQueue], 1)
	assert.Equal(t, book, queue.Pushed[CreateQueue][0])
}

// TestBookService_AddValidation ensures nothing is saved when a field is missing.
func TestBookService_AddValidation(t *testing.T) {
	storage := &MockBookStorage{AddFunc: func(ctx context.Context, book Book) error {
		t.Fatal("storage must not be called")
		return nil
	}}
	images := NewMockImageStore()
	bs := newTestBookService(storage, images, nil, true)

	_, err := bs.Add(context.Background(), BookRequest{Title: "Dune"}, &ImageUpload{Filename: "a.png", Content: bytes.NewReader(nil)})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"author", "publisher"}, verr.Fields)
	assert.Empty(t, images.Files)
}

// TestBookService_AddImageFailure ensures a failed image save aborts the creation.
func TestBookService_AddImageFailure(t *testing.T) {
	storage := &MockBookStorage{AddFunc: func(ctx context.Context, book Book) error {
		t.Fatal("storage must not be called")
		return nil
	}}
	images := NewMockImageStore()
	images.SaveErr = errors.New("disk full")
	bs := newTestBookService(storage, images, nil, true)

	_, err := bs.Add(context.Background(), BookRequest{Title: "A", Author: "B", Publisher: "C"}, &ImageUpload{Filename: "a.png", Content: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, images.SaveErr)
}

// TestBookService_AddStorageFailure ensures the image saved for a failed creation is removed.
func TestBookService_AddStorageFailure(t *testing.T) {
	storageErr := errors.New("store unreachable")
	storage := &MockBookStorage{AddFunc: func(ctx context.Context, book Book) error {
		return storageErr
	}}
	images := NewMockImageStore()
	bs := newTestBookService(storage, images, nil, true)

	_, err := bs.Add(context.Background(), BookRequest{Title: "A", Author: "B", Publisher: "C"}, &ImageUpload{Filename: "a.png", Content: bytes.NewReader([]byte("img"))})
	assert.ErrorIs(t, err, storageErr)
	assert.Empty(t, images.Files)
}

// TestBookService_UpdateStorageFailure ensures the replacement image of a failed update is removed.
func TestBookService_UpdateStorageFailure(t *testing.T) {
	storageErr := errors.New("store unreachable")
	storage := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			return Book{ID: id}, nil
		},
		UpdateFunc: func(ctx context.Context, id string, update BookUpdate) (Book, error) {
			return Book{}, storageErr
		},
	}
	images := NewMockImageStore()
	bs := newTestBookService(storage, images, nil, true)

	_, err := bs.Update(context.Background(), testBookID, BookRequest{}, &ImageUpload{Filename: "a.png", Content: bytes.NewReader([]byte("img"))})
	assert.ErrorIs(t, err, storageErr)
	assert.Empty(t, images.Files)
}

// TestBookService_UppercaseID ensures ids reach the storage in lowercase hex.
func TestBookService_UppercaseID(t *testing.T) {
	var seen []string
	storage := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			seen = append(seen, id)
			return Book{ID: id}, nil
		},
		UpdateFunc: func(ctx context.Context, id string, update BookUpdate) (Book, error) {
			seen = append(seen, id)
			return Book{ID: id}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) (Book, error) {
			seen = append(seen, id)
			return Book{ID: id}, nil
		},
	}
	bs := newTestBookService(storage, nil, nil, true)
	upper := strings.ToUpper(testBookID)

	_, err := bs.GetOne(context.Background(), upper)
	require.NoError(t, err)
	_, err = bs.Update(context.Background(), upper, BookRequest{Title: "x"}, nil)
	require.NoError(t, err)
	_, err = bs.Delete(context.Background(), upper)
	require.NoError(t, err)
	assert.Equal(t, []string{testBookID, testBookID, testBookID, testBookID}, seen)
}

// TestBookService_InvalidID ensures malformed ids are reported as unknown books.
func TestBookService_InvalidID(t *testing.T) {
	bs := newTestBookService(&MockBookStorage{}, nil, nil, false)

	_, err := bs.GetOne(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = bs.Update(context.Background(), "not-an-id", BookRequest{Title: "x"}, nil)
	assert.ErrorIs(t, err, ErrBookNotFound)
	_, err = bs.Delete(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

// TestBookService_Update ensures partial updates and queue events.
func TestBookService_Update(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	stored := Book{ID: testBookID, Title: "Dune", Author: "Herbert", Publisher: "Chilton", CreatedAt: created, UpdatedAt: created}
	storage := &MockBookStorage{
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			return stored, nil
		},
		UpdateFunc: func(ctx context.Context, id string, update BookUpdate) (Book, error) {
			assert.Nil(t, update.Title)
			assert.Nil(t, update.ImagePath)
			stored = update.Apply(stored)
			return stored, nil
		},
	}
	queue := NewMockQueue()
	bs := newTestBookService(storage, NewMockImageStore(), queue, true)

	book, err := bs.Update(context.Background(), testBookID, BookRequest{Author: "Frank Herbert"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Dune", book.Title)
	assert.Equal(t, "Frank Herbert", book.Author)
	assert.Equal(t, created, book.CreatedAt)
	assert.True(t, book.UpdatedAt.After(created))
	require.Len(t, queue.Pushed[UpdateQueue], 1)
}

// TestBookService_Delete ensures the deleted book is published.
func TestBookService_Delete(t *testing.T) {
	storage := &MockBookStorage{DeleteFunc: func(ctx context.Context, id string) (Book, error) {
		return Book{ID: id}, nil
	}}
	queue := NewMockQueue()
	bs := newTestBookService(storage, nil, queue, true)

	book, err := bs.Delete(context.Background(), testBookID)
	require.NoError(t, err)
	assert.Equal(t, testBookID, book.ID)
	require.Len(t, queue.Pushed[DeleteQueue], 1)
	assert.Equal(t, testBookID, queue.Pushed[DeleteQueue][0].ID)
}
