package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"betledger/internal/core"
	"betledger/internal/services"
)

type addRecordRequest struct {
	Date   string     `json:"date"`
	Type   string     `json:"type"`
	Amount core.Money `json:"amount"`
}

type bankrollRequest struct {
	Bankroll *core.Money `json:"bankroll"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if s.store != nil {
		if err := s.store.Ping(ctx); err != nil {
			respondError(w, http.StatusServiceUnavailable, "store unavailable: "+err.Error())
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	dash, err := s.finance.Dashboard(r.Context(), params.Year, params.Month0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, dash)
}

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.finance.Records(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []core.FinancialEntry{}
	}
	respondJSON(w, http.StatusOK, records)
}

func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	var req addRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	date, err := core.ParseISODate(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}
	kind, err := core.ParseEntryKind(req.Type)
	if err != nil {
		writeError(w, r, err)
		return
	}
	entry, err := s.finance.AddEntry(r.Context(), date, kind, req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.finance.Summary(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	// A user who never set a bankroll gets null.
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleSetBankroll(w http.ResponseWriter, r *http.Request) {
	var req bankrollRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.Bankroll == nil {
		writeError(w, r, core.ErrInvalidAmount)
		return
	}
	summary, err := s.finance.SetBankroll(r.Context(), *req.Bankroll)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	params, err := ParseMonthParams(r.URL.Query(), s.now())
	if err != nil {
		writeError(w, r, err)
		return
	}
	report, err := s.finance.MonthReport(r.Context(), params.Year, params.Month0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	report, err := s.finance.Balance(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"balance":      report,
		"profit_split": core.ProfitSplit(report),
	})
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, err := csvBody(w, r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	result, err := s.finance.ImportCSV(r.Context(), body)
	if errors.Is(err, services.ErrNoValidRows) {
		respondJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error(), Warnings: result.Warnings})
		return
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
