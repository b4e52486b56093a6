package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/AngelCh415/adinsights/internal/utils"
)

// envelope is the JSON shape of every API response.
type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Message   string `json:"message,omitempty"`
	Code      string `json:"code,omitempty"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"requestId,omitempty"`
}

const (
	codeValidation  = "VALIDATION_ERROR"
	codeTooLarge    = "PAYLOAD_TOO_LARGE"
	codePersist     = "PERSIST_FAILED"
	codeUpstream    = "UPSTREAM_ERROR"
	codeUnavailable = "NOT_CONFIGURED"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode", slog.String("err", err.Error()))
	}
}

func success(w http.ResponseWriter, r *http.Request, data any, msg string) {
	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Data:      data,
		Message:   msg,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: utils.RID(r.Context()),
	})
}

// fail writes an error envelope. userMsg is shown to clients; detail carries
// the underlying error text.
func fail(w http.ResponseWriter, r *http.Request, status int, code, userMsg, detail string) {
	writeJSON(w, status, envelope{
		Success:   false,
		Error:     userMsg,
		Message:   detail,
		Code:      code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: utils.RID(r.Context()),
	})
}

func validationError(w http.ResponseWriter, r *http.Request, errs map[string][]string) {
	writeJSON(w, http.StatusBadRequest, envelope{
		Success:   false,
		Data:      map[string]any{"errors": errs},
		Error:     "Validation failed",
		Message:   "Please check your input and try again",
		Code:      codeValidation,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		RequestID: utils.RID(r.Context()),
	})
}
