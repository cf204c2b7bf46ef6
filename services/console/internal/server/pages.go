package server

import (
	"net/http"
	"strconv"
	"strings"

	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/chat"
	"catalogadmin/services/console/internal/theme"
	"catalogadmin/services/console/internal/view"
)

// GET /api/orders?page=&status=
func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ws := s.workspace(w, r)
	q := r.URL.Query()
	changed := false
	if q.Has("status") {
		status := strings.TrimSpace(q.Get("status"))
		if status == "all" {
			status = ""
		}
		changed = ws.Orders.SetStatus(domain.OrderStatus(status))
	}
	if v := q.Get("page"); v != "" && !changed {
		page, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "page must be a number")
			return
		}
		ws.Orders.GoTo(page)
	}
	if err := ws.Orders.EnsureLoaded(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Orders(ws.Orders.Snapshot()))
}

// POST /api/orders/{id}/delivered
func (s *Server) handleOrderByID(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/orders/"), "/"), "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "delivered" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	ws := s.workspace(w, r)
	if _, err := ws.Orders.MarkDelivered(r.Context(), parts[0]); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view.Orders(ws.Orders.Snapshot()))
}

// GET /api/ai-admin
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ws := s.workspace(w, r)
	writeJSON(w, http.StatusOK, view.Chat(ws.Chat.Snapshot()))
}

// /api/ai-admin/images, /api/ai-admin/images/{name}, /api/ai-admin/messages,
// /api/ai-admin/messages/{id}/retry
func (s *Server) handleChatSubtree(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/ai-admin/"), "/"), "/")
	ws := s.workspace(w, r)
	switch {
	case len(parts) == 1 && parts[0] == "images":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		files, err := s.readImages(w, r)
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if _, err := ws.Chat.AttachImages(r.Context(), files); err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view.Chat(ws.Chat.Snapshot()))
	case len(parts) == 2 && parts[0] == "images":
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		if !ws.Chat.RemovePending(parts[1]) {
			writeError(w, http.StatusNotFound, "pending image not found")
			return
		}
		writeJSON(w, http.StatusOK, view.Chat(ws.Chat.Snapshot()))
	case len(parts) == 1 && parts[0] == "messages":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		var req struct {
			Message string `json:"message"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		if strings.TrimSpace(req.Message) == "" {
			writeErr(w, r, chat.ErrEmptyMessage)
			return
		}
		if !s.allowRate(w, r, s.chatLimiter, ws.ID, "too many chat messages") {
			return
		}
		if _, err := ws.Chat.Send(r.Context(), req.Message); err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view.Chat(ws.Chat.Snapshot()))
	case len(parts) == 3 && parts[0] == "messages" && parts[2] == "retry":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if !s.allowRate(w, r, s.chatLimiter, ws.ID, "too many chat messages") {
			return
		}
		if _, err := ws.Chat.Retry(r.Context(), parts[1]); err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, view.Chat(ws.Chat.Snapshot()))
	default:
		http.NotFound(w, r)
	}
}

// readImages collects every multipart "images" file.
func (s *Server) readImages(w http.ResponseWriter, r *http.Request) ([]chat.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, &httpError{status: http.StatusBadRequest, msg: "invalid form data"}
	}
	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		return nil, &httpError{status: http.StatusBadRequest, msg: "file is required (field: images)"}
	}
	files := make([]chat.File, 0, len(headers))
	for _, fh := range headers {
		data, err := readMultipartFile(fh)
		if err != nil {
			return nil, &httpError{status: http.StatusBadRequest, msg: "invalid form data"}
		}
		if !strings.HasPrefix(http.DetectContentType(data), "image/") {
			return nil, &httpError{status: http.StatusBadRequest, msg: "unsupported file type: " + fh.Filename}
		}
		files = append(files, chat.File{Name: fh.Filename, Data: data})
	}
	return files, nil
}

// GET|PUT /api/theme
func (s *Server) handleTheme(w http.ResponseWriter, r *http.Request) {
	session := s.sessionID(w, r)
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]string{"theme": string(s.themes.Get(r.Context(), session))})
	case http.MethodPut:
		var req struct {
			Theme string `json:"theme"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, r, err)
			return
		}
		t, err := theme.Parse(strings.TrimSpace(req.Theme))
		if err != nil {
			writeErr(w, r, err)
			return
		}
		if err := s.themes.Set(r.Context(), session, t); err != nil {
			writeError(w, http.StatusServiceUnavailable, "theme store unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"theme": string(t)})
	default:
		methodNotAllowed(w)
	}
}

// POST /api/theme/toggle flips light and dark, like the header toggle button.
func (s *Server) handleThemeToggle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	t, err := s.themes.Toggle(r.Context(), s.sessionID(w, r))
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "theme store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"theme": string(t)})
}
