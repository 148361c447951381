package api

import "net/http"

func (s *Server) handleChainStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Chain())
}

func (s *Server) handleNetworkStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Network())
}
