package main

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
)

// SendServiceError converts a books service error into its json response.
// Validation failures are 400, unknown books 404 and everything else 500.
func (api *APIHandler) SendServiceError(w http.ResponseWriter, r *http.Request, err error, failure string) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())

	status, message := http.StatusInternalServerError, failure
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		status, message = http.StatusBadRequest, verr.Error()
	case errors.Is(err, ErrBookNotFound):
		status, message = http.StatusNotFound, "book not found"
	}

	logger.Error(failure, zap.Int("response.status", status), zap.Error(err))
	if err = WriteErrorResponse(r.Context(), w, NewAPIError(requestID, status, message)); err != nil {
		logger.Error("failed to send error response", zap.Error(err))
	}
}

// CreateBook godoc
// @Summary      Create a book
// @Description  Records a new book. The optional cover image is saved and exposed under /images.
// @Tags         books
// @Accept       multipart/form-data,json
// @Produce      json
// @Param        title      formData  string  true   "Book title"
// @Param        author     formData  string  true   "Book author"
// @Param        publisher  formData  string  true   "Book publisher"
// @Param        image      formData  file    false  "Cover image"
// @Success      201  {object}  APIResponse{data=Book}
// @Failure      400  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /books [post]
func (api *APIHandler) CreateBook(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())

	req, image, release, err := DecodeBookRequest(r, api.config.Images.FieldName, api.config.Server.MaxUploadMemory)
	defer release()
	if err != nil {
		api.SendServiceError(w, r, err, "failed to create the book")
		return
	}

	book, err := api.bookService.Add(r.Context(), req, image)
	if err != nil {
		api.SendServiceError(w, r, err, "failed to create the book")
		return
	}
	logger.Info("success to create book", zap.String("book.id", book.ID), zap.String("book.image", book.ImagePath))
	resp := GenericResponse(requestID, http.StatusCreated, "Book created successfully", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// GetAllBooks godoc
// @Summary      List books
// @Description  Returns every recorded book in the store natural order.
// @Tags         books
// @Produce      json
// @Success      200  {object}  APIResponse{data=[]Book}
// @Failure      500  {object}  APIError
// @Router       /books [get]
func (api *APIHandler) GetAllBooks(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())

	books, err := api.bookService.GetAll(r.Context())
	if err != nil {
		api.SendServiceError(w, r, err, "failed to get all books")
		return
	}
	logger.Info("success to get all books", zap.Int("books.count", len(books)))
	count := len(books)
	resp := GenericResponse(requestID, http.StatusOK, "All books fetched successfully", &count, books)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// GetOneBook godoc
// @Summary      Get a book
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "Book id"
// @Success      200  {object}  Book
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /books/{id} [get]
func (api *APIHandler) GetOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	logger := api.GetLoggerFromContext(r.Context())
	id := ps.ByName("id")

	book, err := api.bookService.GetOne(r.Context(), id)
	if err != nil {
		api.SendServiceError(w, r, err, "failed to get the book")
		return
	}
	logger.Info("success to get book", zap.String("book.id", id))
	if err = WriteJSON(r.Context(), w, http.StatusOK, book); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// UpdateBook godoc
// @Summary      Update a book
// @Description  Replaces only the supplied fields. A new image replaces the image path.
// @Tags         books
// @Accept       multipart/form-data,json
// @Produce      json
// @Param        id         path      string  true   "Book id"
// @Param        title      formData  string  false  "Book title"
// @Param        author     formData  string  false  "Book author"
// @Param        publisher  formData  string  false  "Book publisher"
// @Param        image      formData  file    false  "Cover image"
// @Success      200  {object}  APIResponse{data=Book}
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /books/{id} [put]
func (api *APIHandler) UpdateBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	id := ps.ByName("id")

	req, image, release, err := DecodeBookRequest(r, api.config.Images.FieldName, api.config.Server.MaxUploadMemory)
	defer release()
	if err != nil {
		api.SendServiceError(w, r, err, "failed to update the book")
		return
	}

	book, err := api.bookService.Update(r.Context(), id, req, image)
	if err != nil {
		api.SendServiceError(w, r, err, "failed to update the book")
		return
	}
	logger.Info("success to update book", zap.String("book.id", book.ID))
	resp := GenericResponse(requestID, http.StatusOK, "Book updated successfully", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}

// DeleteOneBook godoc
// @Summary      Delete a book
// @Description  Removes the record. Its image file is kept.
// @Tags         books
// @Produce      json
// @Param        id   path      string  true  "Book id"
// @Success      200  {object}  APIResponse{data=Book}
// @Failure      404  {object}  APIError
// @Failure      500  {object}  APIError
// @Router       /books/{id} [delete]
func (api *APIHandler) DeleteOneBook(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	requestID := GetValueFromContext(r.Context(), RequestIDContextKey)
	logger := api.GetLoggerFromContext(r.Context())
	id := ps.ByName("id")

	book, err := api.bookService.Delete(r.Context(), id)
	if err != nil {
		api.SendServiceError(w, r, err, "failed to delete the book")
		return
	}
	logger.Info("success to delete book", zap.String("book.id", id))
	resp := GenericResponse(requestID, http.StatusOK, "Book deleted successfully", nil, book)
	if err = WriteResponse(r.Context(), w, resp); err != nil {
		logger.Error("failed to send response", zap.Error(err))
	}
}
