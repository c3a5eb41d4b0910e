package http

import (
	"net/http"

	"nassets/internal/auth"
	"nassets/internal/core"
)

// Saving mutations route through the ledger service, which keeps linked
// asset totals in step inside one transaction.

func (s *Server) handleCreateSaving(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	var sv core.Saving
	if err := decodeJSON(r, &sv); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if sv.RecurrenceType == "" {
		sv.RecurrenceType = core.RecurrenceNone
	}
	sv.ID = 0

	created, err := s.ledger.CreateSaving(r.Context(), userID, sv)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleListSavings(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromContext(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	savings, err := s.store.ListSavings(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if savings == nil {
		savings = []core.Saving{}
	}
	writeJSON(w, http.StatusOK, savings)
}

func (s *Server) handleGetSaving(w http.ResponseWriter, r *http.Request) {
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

	sv, err := s.store.GetSaving(r.Context(), userID, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sv)
}

func (s *Server) handleUpdateSaving(w http.ResponseWriter, r *http.Request) {
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

	var patch core.SavingPatch
	if err := decodeJSON(r, &patch); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	updated, err := s.ledger.UpdateSaving(r.Context(), userID, id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteSaving(w http.ResponseWriter, r *http.Request) {
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

	if err := s.ledger.DeleteSaving(r.Context(), userID, id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
