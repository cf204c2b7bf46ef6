package server

import (
	"errors"
	"log/slog"
	"net/http"

	"catalogadmin/services/console/internal/agentclient"
	"catalogadmin/services/console/internal/catalogclient"
	"catalogadmin/services/console/internal/chat"
	"catalogadmin/services/console/internal/crud"
	"catalogadmin/services/console/internal/dialog"
	"catalogadmin/services/console/internal/orders"
	"catalogadmin/services/console/internal/theme"
)

// httpError carries an explicit status from a handler helper.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

// writeErr maps page and client errors to HTTP responses.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	var he *httpError
	if errors.As(err, &he) {
		writeError(w, he.status, he.msg)
		return
	}
	var validationErr *dialog.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":  validationErr.Error(),
			"fields": validationErr.Fields,
		})
		return
	}
	var catalogErr *catalogclient.APIError
	if errors.As(err, &catalogErr) {
		writeError(w, catalogErr.Status, catalogErr.Message)
		return
	}
	var agentErr *agentclient.APIError
	if errors.As(err, &agentErr) {
		writeError(w, agentErr.Status, agentErr.Message)
		return
	}

	switch {
	case errors.Is(err, errInvalidJSON):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrNoImages),
		errors.Is(err, theme.ErrInvalidTheme),
		errors.Is(err, crud.ErrIDChanged),
		errors.Is(err, catalogclient.ErrMissingID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, crud.ErrNotFound), errors.Is(err, orders.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, dialog.ErrBusy),
		errors.Is(err, dialog.ErrClosed),
		errors.Is(err, chat.ErrBusy),
		errors.Is(err, chat.ErrNotFailed),
		errors.Is(err, orders.ErrBusy),
		errors.Is(err, orders.ErrNotPending):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrNoReply), errors.Is(err, agentclient.ErrEmptyReply):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("upstream request failed", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadGateway, "upstream service unavailable")
	}
}
