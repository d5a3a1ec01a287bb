package catalog

import (
	"encoding/json"
	"log"
	"net/http"
)

type Handler struct {
	Store *Store
}

// ListMaterials returns active materials sorted by name. With
// ?densities=true it returns the density profiles instead.
func (h Handler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("densities") == "true" {
		h.ListDensities(w, r)
		return
	}

	ms, err := h.Store.Materials(r.Context())
	if err != nil {
		log.Printf("[catalog] list materials: %v", err)
		http.Error(w, "Failed to fetch materials", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"materials": ms})
}

func (h Handler) ListDensities(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Store.Densities(r.Context())
	if err != nil {
		log.Printf("[catalog] list densities: %v", err)
		http.Error(w, "Failed to fetch densities", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"densities": ps})
}
