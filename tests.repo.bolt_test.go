package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestBoltStore returns a new instance of Store in a temporary path.
func newTestBoltStore(t *testing.T) *boltBookStorage {
	t.Helper()
	config := &BoltDBConfig{
		FilePath:   filepath.Join(t.TempDir(), "books.db"),
		Timeout:    5 * time.Second,
		BucketName: "test.books",
	}
	client, err := GetBoltDBClient(config)
	require.NoError(t, err, "failed in creating a test bolt store")
	bs := NewBoltBookStorage(zap.NewNop(), config, client).(*boltBookStorage)
	t.Cleanup(func() { _ = bs.Close() })
	return bs
}

func TestBoltStore(t *testing.T) {
	runBookStorageSuite(t, newTestBoltStore(t))
}

// TestBoltStore_AddUpsert ensures adding an existing id replaces the record.
func TestBoltStore_AddUpsert(t *testing.T) {
	bs := newTestBoltStore(t)
	book := Book{ID: testBookID, Title: "first"}
	require.NoError(t, bs.Add(context.Background(), book))
	book.Title = "second"
	require.NoError(t, bs.Add(context.Background(), book))
	got, err := bs.GetOne(context.Background(), testBookID)
	require.NoError(t, err)
	require.Equal(t, "second", got.Title)
}
