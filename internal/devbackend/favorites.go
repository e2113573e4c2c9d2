package devbackend

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/goliatone/go-rentflow/pkg/client"
)

func (s *Server) handleListFavorites(w http.ResponseWriter, _ *http.Request, userID string) {
	s.mu.Lock()
	out := append([]client.Favorite{}, s.favorites[userID]...)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request, userID string) {
	var req struct {
		PropertyID string `json:"property_id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	prop, ok := s.property(strings.TrimSpace(req.PropertyID))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Property not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, fav := range s.favorites[userID] {
		if fav.PropertyID == prop.ID {
			writeJSON(w, http.StatusOK, fav)
			return
		}
	}
	fav := client.Favorite{
		ID:         uuid.NewString(),
		PropertyID: prop.ID,
		Property:   &prop,
		CreatedAt:  s.now().UTC(),
	}
	s.favorites[userID] = append(s.favorites[userID], fav)
	writeJSON(w, http.StatusCreated, fav)
}

// handleRemoveFavorite deletes by property id.
func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request, userID string) {
	id := mux.Vars(r)["id"]
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.favorites[userID]
	for i, fav := range list {
		if fav.PropertyID == id {
			s.favorites[userID] = append(list[:i:i], list[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeDetail(w, http.StatusNotFound, "Favorite not found")
}
