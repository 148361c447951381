package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shrike-indexer/shrike/internal/repository"
)

const (
	pageDefault    uint32 = 0
	perPageDefault uint32 = 100
	perPageLimit   uint32 = 1000
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the historical {"error": "..."} body with the given
// status. Most validation failures ride on 200 for client compatibility.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

type pagination struct {
	page    uint32
	perPage uint32
	sortBy  string
	order   string
}

// parsePagination normalizes page, per_page, sort_by, and order. Unparseable
// numbers fall back to their defaults; per_page is capped and must be
// positive; order is dropped unless asc or desc.
func parsePagination(r *http.Request) (pagination, string) {
	q := r.URL.Query()
	p := pagination{page: pageDefault, perPage: perPageDefault}

	if raw := q.Get("page"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			p.page = uint32(v)
		}
	}
	if raw := q.Get("per_page"); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 32); err == nil {
			p.perPage = uint32(v)
		}
	}
	if p.perPage > perPageLimit {
		p.perPage = perPageLimit
	}
	if p.perPage == 0 {
		return p, "Per_page must be greater than zero."
	}

	p.sortBy = q.Get("sort_by")
	if order := q.Get("order"); order == "asc" || order == "desc" {
		p.order = order
	}
	return p, ""
}

// parseDateRange extracts the required date_init and date_end parameters.
func parseDateRange(r *http.Request) (string, string, string) {
	q := r.URL.Query()
	dateInit := q.Get("date_init")
	if dateInit == "" {
		return "", "", "The 'date_init' parameter is required."
	}
	dateEnd := q.Get("date_end")
	if dateEnd == "" {
		return "", "", "The 'date_end' parameter is required."
	}
	return dateInit, dateEnd, ""
}

// isNotFound reports whether a repository error means an absent row.
func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// writeQueryError maps repository failures: a rejected sort column keeps
// the historical 200 error body, anything else is a plain 500.
func (s *Server) writeQueryError(w http.ResponseWriter, err error) {
	var sortErr *repository.SortError
	if errors.As(err, &sortErr) {
		writeError(w, http.StatusOK, sortErr.Error())
		return
	}
	s.log.Errorw("query failed", "error", err)
	writeError(w, http.StatusInternalServerError, err.Error())
}
