package main

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/goccy/go-json"
)

var ErrBookNotFound = errors.New("book not found")

type ContextKey string

const (
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
)

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val := ctx.Value(contextKey); val != nil {
		return val.(string)
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val := ctx.Value(RequestNumberContextKey); val != nil {
		return val.(uint64)
	}
	return 0
}

// BookRequest holds the text fields of a book creation or update request.
type BookRequest struct {
	Title     string `json:"title" validate:"required"`
	Author    string `json:"author" validate:"required"`
	Publisher string `json:"publisher" validate:"required"`
}

// Update converts the request into a partial update. Empty fields are
// considered as not supplied.
func (br BookRequest) Update() BookUpdate {
	var update BookUpdate
	if br.Title != "" {
		update.Title = &br.Title
	}
	if br.Author != "" {
		update.Author = &br.Author
	}
	if br.Publisher != "" {
		update.Publisher = &br.Publisher
	}
	return update
}

func (br *BookRequest) trim() {
	br.Title = strings.TrimSpace(br.Title)
	br.Author = strings.TrimSpace(br.Author)
	br.Publisher = strings.TrimSpace(br.Publisher)
}

// DecodeBookRequest is a helper function to read the content of a book creation or update
// request. Multipart bodies may carry one image under the given field name. The returned
// function releases the resources held by the upload and must always be called.
func DecodeBookRequest(r *http.Request, imageField string, maxMemory int64) (BookRequest, *ImageUpload, func(), error) {
	var req BookRequest
	noop := func() {}

	contentType := r.Header.Get("Content-Type")
	mediaType := ""
	if contentType != "" {
		var err error
		mediaType, _, err = mime.ParseMediaType(contentType)
		if err != nil {
			return req, nil, noop, NewValidationError("invalid content type")
		}
	}

	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return req, nil, noop, NewValidationError("invalid multipart body")
		}
		req.Title = formValue(r.MultipartForm, "title")
		req.Author = formValue(r.MultipartForm, "author")
		req.Publisher = formValue(r.MultipartForm, "publisher")
		req.trim()

		cleanup := func() {
			_ = r.MultipartForm.RemoveAll()
		}
		headers := r.MultipartForm.File[imageField]
		if len(headers) == 0 {
			return req, nil, cleanup, nil
		}
		file, err := headers[0].Open()
		if err != nil {
			cleanup()
			return req, nil, noop, err
		}
		return req, &ImageUpload{Filename: headers[0].Filename, Content: file}, func() {
			file.Close()
			cleanup()
		}, nil

	case "application/json":
		if r.Body == nil {
			return req, nil, noop, nil
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			return req, nil, noop, NewValidationError("invalid json body")
		}
		req.trim()
		return req, nil, noop, nil

	case "", "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return req, nil, noop, NewValidationError("invalid form body")
		}
		req.Title = r.PostForm.Get("title")
		req.Author = r.PostForm.Get("author")
		req.Publisher = r.PostForm.Get("publisher")
		req.trim()
		return req, nil, noop, nil
	}

	return req, nil, noop, NewValidationError("unsupported content type " + mediaType)
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	splitIps := strings.Split(ips, ",")
	for _, ip := range splitIps {
		ip = strings.TrimSpace(ip)
		netIP = net.ParseIP(ip)
		if netIP != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	netIP = net.ParseIP(ip)
	if netIP != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result. This
// helps know if the App is running in a docker container or not.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
