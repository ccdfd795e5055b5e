package handlers

import (
	"net/http"
	"strconv"

	"taskflow-project/backend/services"
)

type SearchHandler struct {
	SearchService *services.SearchService
}

func NewSearchHandler(searchService *services.SearchService) *SearchHandler {
	return &SearchHandler{SearchService: searchService}
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeMessage(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	entityType := r.URL.Query().Get("type")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.SearchService.Search(r.Context(), query, entityType, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireActor(w, r); !ok {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		writeMessage(w, http.StatusBadRequest, "query parameter q is required")
		return
	}

	suggestions, err := h.SearchService.Suggestions(r.Context(), query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}
