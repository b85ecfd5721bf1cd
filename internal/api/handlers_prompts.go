package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/anatolykoptev/go_course/internal/engine/library"
)

func promptID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		sendError(w, http.StatusNotFound, "Prompt not found")
		return 0, false
	}
	return id, true
}

func (s *server) listPrompts(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	prompts, err := s.deps.Library.ListPrompts(r.Context(), u.ID)
	if err != nil {
		writeLibraryError(w, err, "Failed to retrieve prompts")
		return
	}
	sendSuccess(w, http.StatusOK, "Prompts retrieved successfully", prompts)
}

func (s *server) createPrompt(w http.ResponseWriter, r *http.Request) {
	var in library.PromptInput
	if err := decodeBody(w, r, &in); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	p, err := s.deps.Library.CreatePrompt(r.Context(), userFrom(r.Context()).ID, in)
	if err != nil {
		writeLibraryError(w, err, "Failed to create prompt")
		return
	}
	sendSuccess(w, http.StatusCreated, "Prompt created successfully", p)
}

func (s *server) updatePrompt(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}
	var patch library.PromptPatch
	if err := decodeBody(w, r, &patch); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	p, err := s.deps.Library.UpdatePrompt(r.Context(), userFrom(r.Context()).ID, id, patch)
	if err != nil {
		writeLibraryError(w, err, "Failed to update prompt")
		return
	}
	sendSuccess(w, http.StatusOK, "Prompt updated successfully", p)
}

func (s *server) deletePrompt(w http.ResponseWriter, r *http.Request) {
	id, ok := promptID(w, r)
	if !ok {
		return
	}
	if err := s.deps.Library.DeletePrompt(r.Context(), userFrom(r.Context()).ID, id); err != nil {
		writeLibraryError(w, err, "Failed to delete prompt")
		return
	}
	sendSuccess(w, http.StatusOK, "Prompt deleted successfully", nil)
}
