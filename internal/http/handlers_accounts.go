package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"betledger/internal/core"
)

type nameRequest struct {
	Name string `json:"name"`
}

type createBettingRequest struct {
	Name       string     `json:"name"`
	FixedStake core.Money `json:"fixed_stake_value"`
}

type addOperationRequest struct {
	Orbit   core.Money `json:"orbit_value"`
	Gain    core.Money `json:"gain_value"`
	BetType string     `json:"bet_type"`
}

func (s *Server) handleListVerification(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := s.verification.List(r.Context(), sanitizeInput(q.Get("search")), core.ParseAccountFilter(q.Get("filter")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddVerification(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.verification.Add(r.Context(), sanitizeInput(req.Name))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

func (s *Server) handleUpdateVerification(w http.ResponseWriter, r *http.Request) {
	var patch core.VerificationPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Name != nil {
		name := sanitizeInput(*patch.Name)
		patch.Name = &name
	}
	account, err := s.verification.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteVerification(w http.ResponseWriter, r *http.Request) {
	account, err := s.verification.SoftDelete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (s *Server) handleRestoreVerification(w http.ResponseWriter, r *http.Request) {
	account, err := s.verification.Restore(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, account)
}

func (s *Server) handleListBetting(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.betting.Accounts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if accounts == nil {
		accounts = []core.BettingAccount{}
	}
	respondJSON(w, http.StatusOK, accounts)
}

func (s *Server) handleCreateBetting(w http.ResponseWriter, r *http.Request) {
	var req createBettingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	account, err := s.betting.CreateAccount(r.Context(), sanitizeInput(req.Name), req.FixedStake)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, account)
}

func (s *Server) handleListOperations(w http.ResponseWriter, r *http.Request) {
	table, err := s.betting.Operations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, table)
}

func (s *Server) handleAddOperation(w http.ResponseWriter, r *http.Request) {
	var req addOperationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	op, err := s.betting.AddOperation(r.Context(), chi.URLParam(r, "id"), req.Orbit, req.Gain, core.BetType(req.BetType))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, op)
}

func (s *Server) handleMarkLost(w http.ResponseWriter, r *http.Request) {
	op, err := s.betting.MarkLost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, op)
}
