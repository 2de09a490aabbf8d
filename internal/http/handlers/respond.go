package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/amdadul/brandstore-crm/internal/middleware"
	"github.com/amdadul/brandstore-crm/internal/model"
	"github.com/amdadul/brandstore-crm/internal/repo"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// envelope is the JSON body of every non-binary response
type envelope struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Message string              `json:"message,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Meta    *model.PageMeta     `json:"meta,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func respondOK(w http.ResponseWriter, data interface{}, message string) {
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: data, Message: message})
}

func respondPage(w http.ResponseWriter, items interface{}, page, perPage, total int) {
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    items,
		Meta:    &model.PageMeta{CurrentPage: page, LastPage: lastPage, PerPage: perPage, Total: total},
	})
}

// respondWithError sends a JSON failure envelope
func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	middleware.RespondWithError(w, statusCode, message)
}

// respondInvalid sends a 422 with per-field errors; non-validation errors
// become a plain message.
func respondInvalid(w http.ResponseWriter, err error) {
	var verrs validate.Errors
	if !errors.As(err, &verrs) {
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	fields := make(map[string][]string, len(verrs))
	for f, msg := range verrs {
		fields[f] = []string{msg}
	}
	writeJSON(w, http.StatusUnprocessableEntity, envelope{Success: false, Message: "The given data was invalid.", Errors: fields})
}

// decodeBody reads a JSON request body. An empty body decodes to the zero value.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// pageParams reads page and per_page from the query string.
func pageParams(r *http.Request) (page, perPage int) {
	page, perPage = 1, defaultPerPage
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && n > 0 {
		perPage = n
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}

// currentUser returns the authenticated user or answers 401.
func currentUser(w http.ResponseWriter, r *http.Request) (*repo.User, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok || user == nil {
		respondWithError(w, http.StatusUnauthorized, "Unauthenticated.")
		return nil, false
	}
	return user, true
}

// isManagement reports whether the user sees every store.
func isManagement(u *repo.User) bool {
	return model.RoleFor(u.EmployeeType) == model.RoleManagement
}

// scopeFor limits queries to the user's store; management sees all stores.
// A non-management user without a store sees nothing.
func scopeFor(u *repo.User) *int64 {
	if isManagement(u) {
		return nil
	}
	if u.StoreID != nil {
		id := *u.StoreID
		return &id
	}
	none := int64(-1)
	return &none
}

// logMaskedPhone logs a message with masked phone number
func logMaskedPhone(phone, format string, args ...interface{}) {
	log.Printf("Phone "+maskPhone(phone)+": "+format, args...)
}

// maskPhone masks a phone number for logging (e.g., 01*******11)
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}

	prefix := phone[:2]
	suffix := phone[len(phone)-2:]
	masked := strings.Repeat("*", len(phone)-4)
	return prefix + masked + suffix
}
