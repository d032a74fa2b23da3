package main

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// newTestRedisClient starts an in-memory redis server and connects to it.
func newTestRedisClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	server := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return server, client
}

func TestRedisStore(t *testing.T) {
	_, client := newTestRedisClient(t)
	runBookStorageSuite(t, NewRedisBookStorage(zap.NewNop(), client))
}

// TestRedisStore_Layout ensures books are kept as json values of a single hash
// and their ids in a list following the creation order.
func TestRedisStore_Layout(t *testing.T) {
	server, client := newTestRedisClient(t)
	rs := NewRedisBookStorage(zap.NewNop(), client)
	ctx := context.Background()
	require.NoError(t, rs.Add(ctx, Book{ID: "b", Title: "Dune"}))
	require.NoError(t, rs.Add(ctx, Book{ID: "a", Title: "Emma"}))
	require.NoError(t, rs.Add(ctx, Book{ID: "c", Title: "Ulysses"}))

	assert.Contains(t, server.HGet(HBooks, "b"), `"title":"Dune"`)
	ids, err := server.List(LBookIDs)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, ids)

	_, err = rs.Delete(ctx, "a")
	require.NoError(t, err)
	ids, err = server.List(LBookIDs)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids)

	books, err := rs.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	assert.Equal(t, "b", books[0].ID)
	assert.Equal(t, "c", books[1].ID)
}

// TestGetRedisClient ensures the client is checked with a ping.
func TestGetRedisClient(t *testing.T) {
	server := miniredis.RunT(t)
	config := DefaultConfig()
	config.Redis.Host = server.Host()
	config.Redis.Port = server.Port()
	client, err := GetRedisClient(config)
	require.NoError(t, err)
	require.NoError(t, client.Close())

	server.Close()
	config.Redis.DialTimeout = 100 * time.Millisecond
	client, err = GetRedisClient(config)
	assert.Error(t, err)
	assert.Nil(t, client)
}

// TestRedisQueue ensures books are popped in push order with their queue id.
func TestRedisQueue(t *testing.T) {
	_, client := newTestRedisClient(t)
	q := NewRedisQueue(client)
	ctx := context.Background()

	require.NoError(t, q.Push(ctx, CreateQueue, Book{ID: "a"}))
	require.NoError(t, q.Push(ctx, DeleteQueue, Book{ID: "b"}))

	qid, book, err := q.Pop(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	require.NoError(t, err)
	assert.Equal(t, CreateQueue, qid)
	assert.Equal(t, "a", book.ID)

	qid, book, err = q.Pop(ctx, CreateQueue, UpdateQueue, DeleteQueue)
	require.NoError(t, err)
	assert.Equal(t, DeleteQueue, qid)
	assert.Equal(t, "b", book.ID)
}
