package search

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/pagefuse/pagefuse/kit"
)

// Routes mounts the search HTTP surface.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/search", s.handleSearch)
	r.Post("/region", s.handleRegion)
	r.Get("/elements", s.handleElements)
	return r
}

func (s *Service) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := s.searchEndpoint()(kit.WithTransport(r.Context(), "http"), &req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleRegion(w http.ResponseWriter, r *http.Request) {
	var req RegionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	resp, err := s.regionEndpoint()(kit.WithTransport(r.Context(), "http"), &req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handleElements(w http.ResponseWriter, r *http.Request) {
	resp, err := s.elementsEndpoint()(kit.WithTransport(r.Context(), "http"), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeEndpointError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotIndexed):
		writeError(w, http.StatusConflict, err.Error())
	case strings.Contains(err.Error(), "unknown region"),
		strings.Contains(err.Error(), "region required"):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
