package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/rensights/admin-dashboard/components/listing"
	"github.com/rensights/admin-dashboard/components/listing/commands"
	"github.com/rensights/admin-dashboard/components/listing/queries"
	"github.com/rensights/admin-dashboard/pkg/adminapi"
)

// DefaultLoginPath is where unauthorized callers are sent.
const DefaultLoginPath = "/login"

// Handlers exposes one resource over HTTP.
type Handlers struct {
	API       Executor
	LoginPath string
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error    string `json:"error"`
	Kind     string `json:"kind,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

// HandleList serves GET ?page=&filter=&reload=.
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	input, err := PageInputFromQuery(r.URL.Query().Get, r.URL.Query().Has("reload"))
	if err != nil {
		h.writeError(w, &adminapi.APIError{Kind: adminapi.KindValidation, Message: err.Error()})
		return
	}
	state, err := h.API.Page(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request, id string) {
	record, err := h.API.Detail(r.Context(), queries.DetailInput{ID: id})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

// HandleUpdate accepts a JSON object of changed fields.
func (h *Handlers) HandleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	var changes map[string]any
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		h.writeError(w, &adminapi.APIError{Kind: adminapi.KindValidation, Message: err.Error(), Err: err})
		return
	}
	if err := h.API.Update(r.Context(), commands.MutateRecordInput{ID: id, Changes: changes}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) HandleAction(w http.ResponseWriter, r *http.Request, id, action string) {
	if err := h.API.Action(r.Context(), commands.RecordActionInput{ID: id, Action: action}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// HandleDelete requires ?confirm=true.
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request, id string) {
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	if err := h.API.Delete(r.Context(), commands.DeleteRecordInput{ID: id, Confirmed: confirmed}); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	status, body := ErrorResponse(err, h.loginPath())
	if body.Redirect != "" {
		w.Header().Set("Location", body.Redirect)
	}
	writeJSON(w, status, body)
}

func (h *Handlers) loginPath() string {
	if h.LoginPath == "" {
		return DefaultLoginPath
	}
	return h.LoginPath
}

// ErrorResponse maps err to a status and envelope. Unauthorized errors
// carry a redirect to loginPath.
func ErrorResponse(err error, loginPath string) (int, ErrorBody) {
	body := ErrorBody{Error: adminapi.MessageOf(err), Kind: string(adminapi.KindOf(err))}
	switch {
	case errors.Is(err, commands.ErrConfirmationRequired):
		return http.StatusPreconditionRequired, body
	case errors.Is(err, ErrUnsupported), errors.Is(err, listing.ErrNotSupported):
		return http.StatusMethodNotAllowed, body
	case errors.Is(err, listing.ErrRecordNotFound):
		return http.StatusNotFound, body
	}
	var apiErr *adminapi.APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return http.StatusNotFound, body
	}
	switch adminapi.KindOf(err) {
	case adminapi.KindUnauthorized:
		body.Redirect = loginPath
		return http.StatusUnauthorized, body
	case adminapi.KindValidation:
		return http.StatusBadRequest, body
	case adminapi.KindNetwork:
		return http.StatusBadGateway, body
	case adminapi.KindServer:
		return http.StatusBadGateway, body
	}
	return http.StatusInternalServerError, body
}

// PageInputFromQuery reads page, filter and reload parameters.
func PageInputFromQuery(get func(string) string, reload bool) (queries.PageInput, error) {
	input := queries.PageInput{Filter: strings.TrimSpace(get("filter")), Reload: reload}
	if raw := strings.TrimSpace(get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return input, errors.New("page must be a number")
		}
		input.Page = page
	}
	return input, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
