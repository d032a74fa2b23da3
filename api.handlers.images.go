package main

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// ServeImage streams a stored cover image. Local files go through
// http.ServeContent so that range and conditional requests work.
func (api *APIHandler) ServeImage(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	name := ps.ByName("filename")

	rc, err := api.images.Open(r.Context(), name)
	if err != nil {
		status, message := http.StatusInternalServerError, "failed to read the image"
		if errors.Is(err, ErrImageNotFound) {
			status, message = http.StatusNotFound, "image not found"
		}
		logger.Error(message, zap.String("image.name", name), zap.Error(err))
		if err = WriteErrorResponse(r.Context(), w, NewAPIError(requestID, status, message)); err != nil {
			logger.Error("failed to send error response", zap.Error(err))
		}
		return
	}
	defer rc.Close()

	if f, ok := rc.(*os.File); ok {
		if fi, err := f.Stat(); err == nil {
			http.ServeContent(w, r, name, fi.ModTime(), f)
			return
		}
	}

	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err = io.Copy(w, rc); err != nil {
		logger.Error("failed to send image", zap.String("image.name", name), zap.Error(err))
	}
}
