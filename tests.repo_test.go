package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runBookStorageSuite checks the behavior every books store must share.
//
//nolint:funlen
func runBookStorageSuite(t *testing.T, store BookStorage) {
	t.Helper()
	ctx := context.Background()
	created := time.Date(2024, 3, 5, 10, 30, 0, 123000000, time.UTC)
	first := Book{
		ID:        "65e6f3a2c1d4b5a6f7e8d9c0",
		Title:     "Dune",
		Author:    "Frank Herbert",
		Publisher: "Chilton",
		ImagePath: "/images/1709634600123-deadbeef.png",
		CreatedAt: created,
		UpdatedAt: created,
	}
	second := Book{
		ID:        "65e6f3a2c1d4b5a6f7e8d9c1",
		Title:     "Emma",
		Author:    "Jane Austen",
		Publisher: "John Murray",
		CreatedAt: created.Add(time.Second),
		UpdatedAt: created.Add(time.Second),
	}
	missingID := "65e6f3a2c1d4b5a6f7e8d9ff"

	t.Run("Get All Books Empty", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("Add Book", func(t *testing.T) {
		require.NoError(t, store.Add(ctx, first))
		require.NoError(t, store.Add(ctx, second))
	})

	t.Run("Get Existent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first, book)
	})

	t.Run("Get NonExistent Book", func(t *testing.T) {
		book, err := store.GetOne(ctx, missingID)
		assert.ErrorIs(t, err, ErrBookNotFound)
		assert.Equal(t, Book{}, book)
	})

	t.Run("Get All Books", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 2)
		assert.Equal(t, first, books[0])
		assert.Equal(t, second, books[1])
	})

	t.Run("Update Existent Book", func(t *testing.T) {
		author := "F. Herbert"
		updated := created.Add(time.Hour)
		book, err := store.Update(ctx, first.ID, BookUpdate{Author: &author, UpdatedAt: updated})
		require.NoError(t, err)
		expected := first
		expected.Author = author
		expected.UpdatedAt = updated
		assert.Equal(t, expected, book)

		book, err = store.GetOne(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, book)
		first = expected
	})

	t.Run("Update NonExistent Book", func(t *testing.T) {
		title := "Nothing"
		_, err := store.Update(ctx, missingID, BookUpdate{Title: &title, UpdatedAt: created})
		assert.ErrorIs(t, err, ErrBookNotFound)
		_, err = store.GetOne(ctx, missingID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Delete Existent Book", func(t *testing.T) {
		book, err := store.Delete(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first, book)
		_, err = store.GetOne(ctx, first.ID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Delete NonExistent Book", func(t *testing.T) {
		_, err := store.Delete(ctx, missingID)
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("Get All Books After Delete", func(t *testing.T) {
		books, err := store.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, books, 1)
		assert.Equal(t, second.ID, books[0].ID)
	})
}
