package http

import (
	"net/http"

	"nassets/internal/auth"
	"nassets/internal/core"
)

func (s *Server) handleCreateAsset(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var a core.Asset
	if err := decodeJSON(r, &a); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if err := a.Validate(); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = 0
	a.UserID = userID
	// A new goal always starts with nothing contributed; the ledger is the
	// only writer of this field afterwards.
	a.Contributed = 0

	created, err := s.store.CreateAsset(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	assets, err := s.store.ListAssets(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if assets == nil {
		assets = []core.Asset{}
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	a, err := s.store.GetAsset(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAsset(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch core.AssetPatch
	if err := decodeJSON(r, &patch); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	a, err := s.store.GetAsset(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	patch.Apply(&a)
	if err := a.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	updated, err := s.store.UpdateAsset(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteAsset goes through the ledger service so linked savings are
// detached in the same transaction as the delete.
func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.ledger.DeleteAsset(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
