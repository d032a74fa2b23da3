package main

import (
	"net/http"
	"net/http/pprof"

	"github.com/julienschmidt/httprouter"
)

// SetupOpsRoutes injects internal operations related endpoints.
func (api *APIHandler) SetupOpsRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	handle(router, http.MethodGet, "/ops/configs", m.ops, api.GetConfigs)
	handle(router, http.MethodGet, "/ops/stats", m.ops, api.GetStatistics)
	handle(router, http.MethodGet, "/ops/maintenance", m.ops, api.Maintenance)
	handle(router, http.MethodGet, "/ops/metrics", m.ops, api.OpsHandlerWrapper(MetricsHandler()))
	handle(router, http.MethodGet, "/ops/debug/vars", m.ops, GetMemStats)
	handle(router, http.MethodGet, "/ops/debug/gc", m.ops, api.RunGC)
	handle(router, http.MethodGet, "/ops/debug/fos", m.ops, api.FreeOSMemory)

	if api.config.ProfilerEnable {
		handle(router, http.MethodGet, "/ops/debug/pprof/", m.ops, api.OpsHandlerWrapper(http.HandlerFunc(pprof.Index)))
		handle(router, http.MethodGet, "/ops/debug/pprof/profile", m.ops, api.OpsHandlerWrapper(http.HandlerFunc(pprof.Profile)))
		handle(router, http.MethodGet, "/ops/debug/pprof/trace", m.ops, api.OpsHandlerWrapper(http.HandlerFunc(pprof.Trace)))
		handle(router, http.MethodGet, "/ops/debug/pprof/symbol", m.ops, api.OpsHandlerWrapper(http.HandlerFunc(pprof.Symbol)))
		handle(router, http.MethodGet, "/ops/debug/pprof/cmdline", m.ops, api.OpsHandlerWrapper(http.HandlerFunc(pprof.Cmdline)))
		for _, name := range []string{"heap", "allocs", "goroutine", "threadcreate", "block", "mutex"} {
			handle(router, http.MethodGet, "/ops/debug/pprof/"+name, m.ops, api.OpsHandlerWrapper(pprof.Handler(name)))
		}
	}
	return router
}
