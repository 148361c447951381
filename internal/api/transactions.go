package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/neo"
)

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	hash := mux.Vars(r)["hash"]
	if !neo.IsTxIDHash(hash) {
		writeError(w, http.StatusOK, "Invalid transaction hash.")
		return
	}

	tx, err := s.repo.GetTransactionByHash(r.Context(), hash)
	if err != nil {
		if isNotFound(err) {
			writeError(w, http.StatusNotFound, "Transaction does not exist.")
			return
		}
		s.writeQueryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tx)
}

func (s *Server) handleSenderTransactions(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !neo.IsAddress(address) {
		writeError(w, http.StatusOK, "Invalid address.")
		return
	}
	p, msg := parsePagination(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	txs, err := s.repo.GetSenderTransactions(r.Context(), address, p.page, p.perPage, p.sortBy, p.order)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	if len(txs) == 0 {
		writeError(w, http.StatusOK, "No transactions for that sender.")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) handleAddressTransfers(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	if !neo.IsAddress(address) {
		writeError(w, http.StatusOK, "Invalid address.")
		return
	}
	p, msg := parsePagination(r)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	addressB64, err := neo.AddressToBase64(address)
	if err != nil {
		writeError(w, http.StatusOK, "Invalid address.")
		return
	}

	txs, err := s.repo.GetAddressTransferTransactions(r.Context(), addressB64, p.page, p.perPage, p.sortBy, p.order)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}

	list := models.TxDataList{
		Address:       address,
		AsSender:      []models.TxData{},
		AsParticipant: []models.TxData{},
	}
	for _, tx := range txs {
		data := transferEvents(tx)
		if tx.Sender == address {
			list.AsSender = append(list.AsSender, data)
		} else {
			list.AsParticipant = append(list.AsParticipant, data)
		}
	}
	if len(list.AsSender) == 0 && len(list.AsParticipant) == 0 {
		writeError(w, http.StatusOK, "No transfers for that sender.")
		return
	}
	writeJSON(w, http.StatusOK, list)
}
