package main

import (
	"net/http"

	_ "github.com/jeamon/books-catalog/docs"
	"github.com/julienschmidt/httprouter"
	httpswagger "github.com/swaggo/http-swagger/v2"
)

// SetupRoutes injects book and ops related endpoints if required.
func (api *APIHandler) SetupRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.HandleMethodNotAllowed = true
	router.NotFound = api.NotFound()
	router.MethodNotAllowed = api.MethodNotAllowed()
	api.SetupBookRoutes(router, m)
	if api.config.OpsEndpointsEnable {
		api.SetupOpsRoutes(router, m)
	}
	handle(router, http.MethodGet, "/ui/*filepath", m.public, api.OpsHandlerWrapper(UIHandler()))
	handle(router, http.MethodGet, "/swagger/*any", m.public, api.OpsHandlerWrapper(httpswagger.WrapHandler))
	return router
}
