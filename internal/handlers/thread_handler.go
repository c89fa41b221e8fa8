// File: internal/handlers/thread_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/iyunix/go-relay/internal/domain"
	"github.com/iyunix/go-relay/internal/services/chat"
)

type ThreadHandler struct {
	Threads chat.ThreadProvider
	Logger  Logger
}

func NewThreadHandler(threads chat.ThreadProvider, logger Logger) *ThreadHandler {
	return &ThreadHandler{Threads: threads, Logger: logger}
}

// ListThreads returns every thread, most recently updated first.
func (h *ThreadHandler) ListThreads(w http.ResponseWriter, r *http.Request) {
	threads, err := h.Threads.ListThreads(r.Context())
	if err != nil {
		h.Logger.Error("failed to list threads", "error", err)
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"threads": threads})
}

func (h *ThreadHandler) GetThread(w http.ResponseWriter, r *http.Request) {
	th, err := h.Threads.GetThread(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"thread": th})
}

type createThreadRequest struct {
	Title          string             `json:"title"`
	InitialMessage *domain.NewMessage `json:"initialMessage"`
}

func (h *ThreadHandler) CreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	// an empty body creates an untitled thread
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, err.Error(), string(chat.ErrTypeInvalidRequest), http.StatusBadRequest)
		return
	}

	th, err := h.Threads.CreateThread(r.Context(), req.Title, req.InitialMessage)
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"thread": th})
}

func (h *ThreadHandler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	var update domain.ThreadUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		writeError(w, err.Error(), string(chat.ErrTypeInvalidRequest), http.StatusBadRequest)
		return
	}

	th, err := h.Threads.UpdateThread(r.Context(), mux.Vars(r)["id"], update)
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"thread": th})
}

func (h *ThreadHandler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	if err := h.Threads.DeleteThread(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *ThreadHandler) AddMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.NewMessage
	if err := decodeJSON(w, r, &msg); err != nil {
		writeError(w, err.Error(), string(chat.ErrTypeInvalidRequest), http.StatusBadRequest)
		return
	}

	created, err := h.Threads.AddMessage(r.Context(), mux.Vars(r)["id"], msg)
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": created})
}
