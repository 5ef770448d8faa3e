package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/asimaster/pricerank/internal/application/crawl"
	"github.com/asimaster/pricerank/internal/domain/catalog"
	"github.com/asimaster/pricerank/internal/domain/shared"
)

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeDomainError maps domain error kinds onto HTTP statuses
func writeDomainError(w http.ResponseWriter, err error) {
	var notFound *shared.NotFoundError
	var running *crawl.AlreadyRunningError
	var validation *shared.ValidationError
	var keywordLimit *catalog.KeywordLimitError
	var primary *catalog.PrimaryKeywordError

	switch {
	case errors.As(err, &notFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &running):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validation), errors.As(err, &keywordLimit), errors.As(err, &primary):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[http] internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
