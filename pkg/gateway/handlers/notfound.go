package handlers

import "net/http"

type NotFoundHandler struct{}

func (h NotFoundHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	writeErrorJSON(w, r, http.StatusNotFound, "not_found", "not found")
}
