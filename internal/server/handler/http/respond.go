package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/atinyakov/storefront/internal/apperr"
	"go.uber.org/zap"
)

// Problem is the JSON body written for failed requests.
type Problem struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeJSON(w, status, Problem{Title: title, Status: status, Detail: detail})
}

// writeError maps err onto a status code. Unclassified errors are logged and
// reported without detail.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch apperr.Kind(err) {
	case apperr.KindAuthentication:
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case apperr.KindAuthorization:
		writeProblem(w, http.StatusForbidden, "Forbidden", err.Error())
	case apperr.KindValidation:
		writeProblem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	case apperr.KindNotFound:
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case apperr.KindPayment:
		writeProblem(w, http.StatusPaymentRequired, "Payment Failed", err.Error())
	case apperr.KindUpstream:
		log.Error("upstream failure", zap.Error(err))
		writeProblem(w, http.StatusBadGateway, "Upstream Error", "a backing service failed, please try again")
	default:
		log.Error("internal error", zap.Error(err))
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "internal error")
	}
}

// decodeJSON reads the request body into v. An empty body is rejected.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required")
		}
		return apperr.Validation("invalid request body: %v", err)
	}
	return nil
}
