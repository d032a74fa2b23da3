package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodeBookRequest ensures all supported body encodings are read.
func TestDecodeBookRequest(t *testing.T) {
	t.Run("multipart with image", func(t *testing.T) {
		body, ct := newMultipartBody(t, map[string]string{"title": " Dune ", "author": "Herbert", "publisher": "Chilton"}, "c.png", []byte("img"))
		r := httptest.NewRequest(http.MethodPost, "/books", body)
		r.Header.Set("Content-Type", ct)
		req, image, release, err := DecodeBookRequest(r, "image", 1<<20)
		defer release()
		require.NoError(t, err)
		assert.Equal(t, BookRequest{Title: "Dune", Author: "Herbert", Publisher: "Chilton"}, req)
		require.NotNil(t, image)
		assert.Equal(t, "c.png", image.Filename)
		data, err := io.ReadAll(image.Content)
		require.NoError(t, err)
		assert.Equal(t, "img", string(data))
	})

	t.Run("multipart with another file field", func(t *testing.T) {
		body, ct := newMultipartBody(t, map[string]string{"title": "Dune"}, "c.png", []byte("img"))
		r := httptest.NewRequest(http.MethodPost, "/books", body)
		r.Header.Set("Content-Type", ct)
		_, image, release, err := DecodeBookRequest(r, "cover", 1<<20)
		defer release()
		require.NoError(t, err)
		assert.Nil(t, image)
	})

	t.Run("json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPut, "/books/x", strings.NewReader(`{"author":"Austen"}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		req, image, release, err := DecodeBookRequest(r, "image", 1<<20)
		defer release()
		require.NoError(t, err)
		assert.Nil(t, image)
		assert.Equal(t, BookRequest{Author: "Austen"}, req)
	})

	t.Run("invalid json", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader(`{"author":`))
		r.Header.Set("Content-Type", "application/json")
		_, _, release, err := DecodeBookRequest(r, "image", 1<<20)
		defer release()
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("urlencoded", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader("title=Emma&publisher=Murray"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req, _, release, err := DecodeBookRequest(r, "image", 1<<20)
		defer release()
		require.NoError(t, err)
		assert.Equal(t, BookRequest{Title: "Emma", Publisher: "Murray"}, req)
	})

	t.Run("unsupported content type", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/books", strings.NewReader("x"))
		r.Header.Set("Content-Type", "text/plain")
		_, _, release, err := DecodeBookRequest(r, "image", 1<<20)
		defer release()
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

// TestBookRequestUpdate ensures empty fields are not part of the update.
func TestBookRequestUpdate(t *testing.T) {
	update := BookRequest{Author: "Austen"}.Update()
	assert.Nil(t, update.Title)
	assert.Nil(t, update.Publisher)
	require.NotNil(t, update.Author)
	assert.Equal(t, "Austen", *update.Author)
}

// TestBookUpdateFields ensures the field map uses the json names.
func TestBookUpdateFields(t *testing.T) {
	title := "Dune"
	fields := BookUpdate{Title: &title}.Fields()
	assert.Len(t, fields, 2)
	assert.Equal(t, "Dune", fields["title"])
	assert.Contains(t, fields, "updatedAt")
}

// TestGetRequestSourceIP ensures proxies headers are honored.
func TestGetRequestSourceIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetRequestSourceIP(r))
	r.Header.Set("X-Forwarded-For", "bogus, 192.168.1.2")
	assert.Equal(t, "192.168.1.2", GetRequestSourceIP(r))
	r.Header.Set("X-Real-Ip", "172.16.0.3")
	assert.Equal(t, "172.16.0.3", GetRequestSourceIP(r))
}

// TestValidationError ensures fields are listed in the message.
func TestValidationError(t *testing.T) {
	assert.Equal(t, "missing required fields: title, author", NewValidationError("missing required fields", "title", "author").Error())
	assert.Equal(t, "invalid json body", NewValidationError("invalid json body").Error())
}
