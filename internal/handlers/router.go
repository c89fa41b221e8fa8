// File: internal/handlers/router.go
package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Router wires handlers and middleware onto a mux.Router.
type Router struct {
	Threads *ThreadHandler
	Chat    *ChatHandler
	Models  *ModelsHandler
	Health  *HealthHandler
	Log     *LogHandler
	Metrics http.Handler

	// Global middleware wraps the whole router, outermost first, so it also
	// sees preflight and unmatched requests.
	Global []mux.MiddlewareFunc
	// Protected runs on API routes only (auth).
	Protected []mux.MiddlewareFunc
	// ChatLimit runs on POST /chat only.
	ChatLimit []mux.MiddlewareFunc
}

// Build returns the root handler. API routes are served both at the root
// and under /api, which the web client uses.
func (rt *Router) Build() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", rt.Health.Health).Methods(http.MethodGet)
	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics).Methods(http.MethodGet)
	}

	rt.mountAPI(r.PathPrefix("/api").Subrouter())
	rt.mountAPI(r.PathPrefix("/").Subrouter())

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Route not found", "NOT_FOUND", http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
	})

	var h http.Handler = r
	for i := len(rt.Global) - 1; i >= 0; i-- {
		h = rt.Global[i](h)
	}
	return h
}

func (rt *Router) mountAPI(api *mux.Router) {
	for _, mw := range rt.Protected {
		api.Use(mw)
	}

	api.HandleFunc("/models", rt.Models.ListModels).Methods(http.MethodGet)

	chat := api.Path("/chat").Subrouter()
	for _, mw := range rt.ChatLimit {
		chat.Use(mw)
	}
	chat.Methods(http.MethodPost).HandlerFunc(rt.Chat.HandleChat)

	api.HandleFunc("/threads", rt.Threads.ListThreads).Methods(http.MethodGet)
	api.HandleFunc("/threads", rt.Threads.CreateThread).Methods(http.MethodPost)
	api.HandleFunc("/threads/{id}", rt.Threads.GetThread).Methods(http.MethodGet)
	api.HandleFunc("/threads/{id}", rt.Threads.UpdateThread).Methods(http.MethodPut)
	api.HandleFunc("/threads/{id}", rt.Threads.DeleteThread).Methods(http.MethodDelete)
	api.HandleFunc("/threads/{id}/messages", rt.Threads.AddMessage).Methods(http.MethodPost)

	if rt.Log != nil {
		api.HandleFunc("/log", rt.Log.LogFrontendEvent).Methods(http.MethodPost)
	}
}
