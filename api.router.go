package main

import (
	"github.com/julienschmidt/httprouter"
)

// MiddlewareMap contains middlewares chain to
// use for public-facing and ops requests.
type MiddlewareMap struct {
	public func(httprouter.Handle) httprouter.Handle
	ops    func(httprouter.Handle) httprouter.Handle
}

// handle registers a route whose pattern is kept in the request context for metrics.
func handle(router *httprouter.Router, method, path string, chain func(httprouter.Handle) httprouter.Handle, h httprouter.Handle) {
	router.Handle(method, path, WithRoute(path, chain(h)))
}
