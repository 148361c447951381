package api

import (
	"errors"
	"net/http"

	"github.com/shrike-indexer/shrike/internal/ingester"
)

// handleIndexerRun triggers a synchronous indexing run. Only one run may be
// active per process; a second trigger conflicts.
func (s *Server) handleIndexerRun(w http.ResponseWriter, r *http.Request) {
	if err := s.runner.Run(r.Context()); err != nil {
		if errors.Is(err, ingester.ErrAlreadyRunning) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.log.Errorw("indexer run failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to run indexer")
		return
	}
	writeJSON(w, http.StatusOK, true)
}
