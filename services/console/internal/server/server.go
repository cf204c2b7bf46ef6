package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"catalogadmin/internal/metrics"
	"catalogadmin/internal/ratelimit"
	"catalogadmin/internal/util"
	"catalogadmin/services/console/internal/agentclient"
	"catalogadmin/services/console/internal/catalogclient"
	"catalogadmin/services/console/internal/theme"
	"catalogadmin/services/console/internal/workspace"
)

const sessionHeader = "X-Console-Session"

// Config wires required dependencies for the HTTP server.
type Config struct {
	Catalog                       *catalogclient.Client
	Agent                         *agentclient.Client
	Metrics                       *metrics.Metrics
	RedisAddr                     string
	RedisPassword                 string
	AllowedOrigins                []string
	OrdersPageSize                int
	ToastCapacity                 int
	SessionCookieName             string
	SessionCookieSecure           bool
	SessionIdleTTL                time.Duration
	ChatRateLimitPerMinute        int
	DescriptionRateLimitPerMinute int
	MaxUploadBytes                int64
}

// Server exposes the console API.
type Server struct {
	agent              *agentclient.Client
	metrics            *metrics.Metrics
	redis              *redis.Client
	workspaces         *workspace.Registry
	themes             *theme.Provider
	mux                *http.ServeMux
	allowedOrigins     []string
	cookieName         string
	cookieSecure       bool
	maxUploadBytes     int64
	chatLimiter        *ratelimit.FixedWindowLimiter
	descriptionLimiter *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. Redis is required: it
// backs the rate limiters and the theme store.
func New(cfg Config) (*Server, error) {
	if cfg.Catalog == nil || cfg.Agent == nil {
		return nil, errors.New("server: catalog and agent clients are required")
	}
	if strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil, errors.New("server: redis addr is required")
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	chatLimit := cfg.ChatRateLimitPerMinute
	if chatLimit <= 0 {
		chatLimit = 20
	}
	descriptionLimit := cfg.DescriptionRateLimitPerMinute
	if descriptionLimit <= 0 {
		descriptionLimit = 10
	}
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		limiter, err := ratelimit.NewFixedWindowLimiter(rdb, "console:ratelimit:"+name, limit, time.Minute)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	chatLimiter, err := newLimiter("chat", chatLimit)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}
	descriptionLimiter, err := newLimiter("description", descriptionLimit)
	if err != nil {
		_ = rdb.Close()
		return nil, err
	}

	cookieName := strings.TrimSpace(cfg.SessionCookieName)
	if cookieName == "" {
		cookieName = "console_session"
	}
	m := cfg.Metrics
	s := &Server{
		agent:   cfg.Agent,
		metrics: m,
		redis:   rdb,
		workspaces: workspace.NewRegistry(workspace.Deps{
			Catalog:        cfg.Catalog,
			Agent:          cfg.Agent,
			OrdersPageSize: cfg.OrdersPageSize,
			ToastCapacity:  cfg.ToastCapacity,
			OnToast:        m.Toast,
		}, cfg.SessionIdleTTL),
		themes:             theme.NewProvider(theme.NewRedisStore(rdb, "console:theme", 0)),
		mux:                http.NewServeMux(),
		allowedOrigins:     cfg.AllowedOrigins,
		cookieName:         cookieName,
		cookieSecure:       cfg.SessionCookieSecure,
		maxUploadBytes:     normalizeMaxBytes(cfg.MaxUploadBytes),
		chatLimiter:        chatLimiter,
		descriptionLimiter: descriptionLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	var h http.Handler = s.mux
	h = util.WithCORS(s.allowedOrigins, h)
	h = util.WithSecurityHeaders(util.SecurityOptions{
		ForceHSTS:      s.cookieSecure,
		CacheablePaths: []string{"/api/routes"},
	}, h)
	h = s.metrics.WithHTTPMetrics(routeLabel, h)
	h = util.WithRequestLog("console", routeLabel, h)
	return util.WithRequestID(h)
}

// Workspaces exposes the session registry so main can run its janitor.
func (s *Server) Workspaces() *workspace.Registry {
	return s.workspaces
}

func (s *Server) Close() error {
	return s.redis.Close()
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics.Handler())
	}
	s.mux.HandleFunc("/api/routes", s.handleRoutes)

	s.registerEntities()

	s.mux.HandleFunc("/api/orders", s.handleOrders)
	s.mux.HandleFunc("/api/orders/", s.handleOrderByID)

	s.mux.HandleFunc("/api/ai-admin", s.handleChat)
	s.mux.HandleFunc("/api/ai-admin/", s.handleChatSubtree)

	s.mux.HandleFunc("/api/toasts", s.handleToasts)
	s.mux.HandleFunc("/api/theme", s.handleTheme)
	s.mux.HandleFunc("/api/theme/toggle", s.handleThemeToggle)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type clientRoute struct {
	Path  string `json:"path"`
	Title string `json:"title"`
}

var clientRoutes = []clientRoute{
	{Path: "/", Title: "Dashboard"},
	{Path: "/categories", Title: "Categories"},
	{Path: "/products", Title: "Products"},
	{Path: "/products-variants", Title: "Product Variants"},
	{Path: "/colors", Title: "Colors"},
	{Path: "/sizes", Title: "Sizes"},
	{Path: "/orders", Title: "Orders"},
	{Path: "/ai-admin", Title: "AI Admin"},
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"routes": clientRoutes})
}

func (s *Server) handleToasts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ws := s.workspace(w, r)
	writeJSON(w, http.StatusOK, map[string]any{"toasts": ws.Toasts.Drain()})
}

// sessionID resolves the caller's console session from the header or cookie,
// issuing a new one when absent or malformed.
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) string {
	id := strings.TrimSpace(r.Header.Get(sessionHeader))
	if id == "" {
		if c, err := r.Cookie(s.cookieName); err == nil {
			id = strings.TrimSpace(c.Value)
		}
	}
	if !util.IsID(id) {
		id = util.NewID()
		http.SetCookie(w, &http.Cookie{
			Name:     s.cookieName,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   s.cookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.Header().Set(sessionHeader, id)
	return id
}

func (s *Server) workspace(w http.ResponseWriter, r *http.Request) *workspace.Workspace {
	return s.workspaces.Open(s.sessionID(w, r))
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, key, msg string) bool {
	if limiter.Allow(r.Context(), key) {
		return true
	}
	w.Header().Set("Retry-After", retryAfterSeconds(limiter.RetryAfter()))
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(int(d / time.Second))
}

var errInvalidJSON = errors.New("invalid JSON body")

// readBody returns the request body, trimmed; an empty result means no body.
func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	return []byte(strings.TrimSpace(string(data))), nil
}

func decodeJSON(r *http.Request, out any) error {
	data, err := readBody(r)
	if err != nil || len(data) == 0 {
		return errInvalidJSON
	}
	return decodeBytes(data, out)
}

func decodeBytes(data []byte, out any) error {
	if err := json.Unmarshal(data, out); err != nil {
		return errInvalidJSON
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func normalizeMaxBytes(value int64) int64 {
	if value <= 0 {
		return 10 * 1024 * 1024
	}
	return value
}

// routeLabel collapses ids in a path so metrics labels stay bounded.
func routeLabel(r *http.Request) string {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	for i, p := range parts {
		if _, ok := knownSegments[p]; !ok {
			parts[i] = ":id"
		}
	}
	return "/" + strings.Join(parts, "/")
}

var knownSegments = map[string]struct{}{
	"": {}, "api": {}, "healthz": {}, "metrics": {}, "routes": {}, "toasts": {}, "theme": {}, "toggle": {},
	"categories": {}, "colors": {}, "sizes": {}, "products": {}, "product-variants": {},
	"dialogs": {}, "add": {}, "edit": {}, "open": {}, "submit": {}, "cancel": {}, "image": {}, "description": {},
	"orders": {}, "delivered": {},
	"ai-admin": {}, "images": {}, "messages": {}, "retry": {},
}
