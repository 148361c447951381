package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/shrike-indexer/shrike/internal/models"
	"github.com/shrike-indexer/shrike/internal/neo"
)

// resolveBlock loads a block addressed by decimal height or display hash.
// The returned message is an error body for the client when the block is
// nil.
func (s *Server) resolveBlock(r *http.Request, id string) (*models.Block, int, string) {
	if height, err := strconv.ParseUint(id, 10, 64); err == nil {
		block, err := s.repo.GetBlockByID(r.Context(), height)
		if err != nil {
			if isNotFound(err) {
				return nil, http.StatusNotFound, "Block does not exist."
			}
			return nil, http.StatusInternalServerError, err.Error()
		}
		return block, http.StatusOK, ""
	}

	if !neo.IsTxIDHash(id) {
		return nil, http.StatusNotFound, "Invalid block hash."
	}
	block, err := s.repo.GetBlockByHash(r.Context(), id)
	if err != nil {
		if isNotFound(err) {
			return nil, http.StatusNotFound, "Block does not exist."
		}
		return nil, http.StatusInternalServerError, err.Error()
	}
	return block, http.StatusOK, ""
}

func (s *Server) handleBlock(w http.ResponseWriter, r *http.Request) {
	block, status, msg := s.resolveBlock(r, mux.Vars(r)["id"])
	if block == nil {
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, block)
}

func (s *Server) handleBlockTransactions(w http.ResponseWriter, r *http.Request) {
	block, status, msg := s.resolveBlock(r, mux.Vars(r)["id"])
	if block == nil {
		writeError(w, status, msg)
		return
	}

	txs, err := s.repo.GetBlockTransactions(r.Context(), block.ID)
	if err != nil {
		s.writeQueryError(w, err)
		return
	}
	if len(txs) == 0 {
		writeError(w, http.StatusOK, "No transactions for that block.")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}
