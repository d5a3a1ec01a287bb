package projects

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gotrocks/proportal/internal/utils"
)

type Lister interface {
	Active(ctx context.Context, contractorID string) ([]Project, error)
}

// ListProjects returns the caller's contractor's active projects.
func ListProjects(store Lister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, ok := utils.GetSessionFromContext(r.Context())
		if !ok {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		ps, err := store.Active(r.Context(), session.ContractorID)
		if err != nil {
			log.Printf("[projects] list for contractor %s: %v", session.ContractorID, err)
			http.Error(w, "Failed to fetch projects", http.StatusInternalServerError)
			return
		}
		if ps == nil {
			ps = []Project{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"projects": ps})
	}
}
