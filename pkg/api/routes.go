package api

import (
	"net/http"
)

func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Lookup API and, without a query string, the query builder page
	mux.HandleFunc("/{$}", s.HandleRoot)
	// Everything else is "/{provider}/{path...}"
	mux.HandleFunc("/", s.HandleFile)
}
