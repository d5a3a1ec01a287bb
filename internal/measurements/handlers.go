package measurements

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gotrocks/proportal/internal/utils"
)

type Handler struct {
	Service *Service
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps service errors to HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNotArchivable):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotDraft):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[measurements] %s: %v", op, err)
		http.Error(w, "Server error", http.StatusInternalServerError)
	}
}

func session(w http.ResponseWriter, r *http.Request) (utils.SessionData, bool) {
	s, ok := utils.GetSessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	}
	return s, ok
}

func (h Handler) Estimate(w http.ResponseWriter, r *http.Request) {
	var req EstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	est, err := h.Service.Estimate(r.Context(), req)
	if err != nil {
		writeError(w, "estimate", err)
		return
	}
	writeJSON(w, http.StatusOK, est)
}

func (h Handler) Create(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	m, err := h.Service.Create(r.Context(), s, req)
	if err != nil {
		writeError(w, "create", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": m.ID, "measurement": m.Response()})
}

func (h Handler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	m, err := h.Service.Get(r.Context(), s, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"measurement": m.Response()})
}

// List serves ?list=cart|history&projectId=X, newest first.
func (h Handler) List(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	ms, err := h.Service.List(r.Context(), s, q.Get("projectId"), ListKind(q.Get("list")))
	if err != nil {
		writeError(w, "list", err)
		return
	}

	out := make([]Response, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Response())
	}
	writeJSON(w, http.StatusOK, map[string]any{"measurements": out})
}

func (h Handler) Update(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid Request Format", http.StatusBadRequest)
		return
	}

	m, err := h.Service.Update(r.Context(), s, chi.URLParam(r, "id"), req)
	if err != nil {
		writeError(w, "update", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "measurement": m.Response()})
}

func (h Handler) Archive(w http.ResponseWriter, r *http.Request) {
	s, ok := session(w, r)
	if !ok {
		return
	}

	if err := h.Service.Archive(r.Context(), s, chi.URLParam(r, "id")); err != nil {
		writeError(w, "archive", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}
