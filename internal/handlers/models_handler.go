// File: internal/handlers/models_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/iyunix/go-relay/internal/services/chat"
)

type ModelsHandler struct {
	Models chat.ModelProvider
	Logger Logger
}

func NewModelsHandler(models chat.ModelProvider, logger Logger) *ModelsHandler {
	return &ModelsHandler{Models: models, Logger: logger}
}

// ListModels returns the chat-capable models; ?all=true skips the filter.
func (h *ModelsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	all, _ := strconv.ParseBool(r.URL.Query().Get("all"))

	list, err := h.Models.ListModels(r.Context(), all)
	if err != nil {
		writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": list})
}
