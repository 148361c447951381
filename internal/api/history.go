package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shrike-indexer/shrike/internal/neo"
)

func (s *Server) handleBalanceHistory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address, token := vars["address"], vars["token"]
	if !neo.IsAddress(address) {
		writeError(w, http.StatusOK, "Invalid address.")
		return
	}
	p, msg := parsePagination(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	dateInit, dateEnd, msg := parseDateRange(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	rows, err := s.repo.GetAddressBalanceHistory(r.Context(), address, token,
		p.page, p.perPage, p.sortBy, p.order, dateInit, dateEnd)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusOK, "No balances for that address/token.")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePriceHistory(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]
	p, msg := parsePagination(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	dateInit, dateEnd, msg := parseDateRange(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	rows, err := s.repo.GetTokenPriceHistory(r.Context(), token,
		p.page, p.perPage, p.sortBy, p.order, dateInit, dateEnd)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusOK, "No price for that token.")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleContractUsage(w http.ResponseWriter, r *http.Request) {
	contract := mux.Vars(r)["contract"]
	p, msg := parsePagination(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	dateInit, dateEnd, msg := parseDateRange(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	rows, err := s.repo.GetContractDailyUsage(r.Context(), contract,
		p.page, p.perPage, p.sortBy, p.order, dateInit, dateEnd)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusOK, "No contract usage for that token.")
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
