package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related the api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	handle(router, http.MethodGet, "/", m.public, api.Index)
	handle(router, http.MethodGet, "/status", m.public, api.Status)
	handle(router, http.MethodPost, "/books", m.public, api.CreateBook)
	handle(router, http.MethodGet, "/books", m.public, api.GetAllBooks)
	handle(router, http.MethodGet, "/books/:id", m.public, api.GetOneBook)
	handle(router, http.MethodPut, "/books/:id", m.public, api.UpdateBook)
	handle(router, http.MethodDelete, "/books/:id", m.public, api.DeleteOneBook)
	handle(router, http.MethodGet, api.config.Images.URLPrefix+"/:filename", m.public, api.ServeImage)
	return router
}
