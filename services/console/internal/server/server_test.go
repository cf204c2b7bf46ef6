package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"catalogadmin/internal/metrics"
	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/agentclient"
	"catalogadmin/services/console/internal/catalogclient"
)

const testSession = "6f1c2c53-3f52-4a39-9d4b-1c0f1f7f5a10"

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// fakeCatalog is a minimal in-memory catalog backend.
type fakeCatalog struct {
	mu         sync.Mutex
	categories []domain.Category
	colors     []domain.Color
	orders     []domain.Order
	uploads    [][]domain.TempImageData
	posts      int
}

func (f *fakeCatalog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case r.URL.Path == "/categories/" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(f.categories)
	case r.URL.Path == "/categories/" && r.Method == http.MethodPost:
		f.posts++
		var d domain.CategoryData
		_ = json.NewDecoder(r.Body).Decode(&d)
		c := domain.Category{ID: "c-new", Name: d.Name, Description: d.Description}
		f.categories = append(f.categories, c)
		_ = json.NewEncoder(w).Encode(c)
	case r.URL.Path == "/colors/" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(f.colors)
	case strings.HasPrefix(r.URL.Path, "/colors/") && r.Method == http.MethodDelete:
		http.NotFound(w, r)
	case r.URL.Path == "/orders/" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(domain.OrdersPage{Items: f.orders, Total: len(f.orders)})
	case strings.HasSuffix(r.URL.Path, "/delivered") && r.Method == http.MethodPatch:
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/orders/"), "/delivered")
		for i := range f.orders {
			if f.orders[i].ID == id {
				f.orders[i].Status = domain.OrderStatusDelivered
				_ = json.NewEncoder(w).Encode(f.orders[i])
				return
			}
		}
		http.NotFound(w, r)
	case r.URL.Path == "/images/temporary/bulk" && r.Method == http.MethodPost:
		var in []domain.TempImageData
		_ = json.NewDecoder(r.Body).Decode(&in)
		f.uploads = append(f.uploads, in)
		out := make([]domain.TempImage, 0, len(in))
		for i := range in {
			name := []string{"first", "second", "third"}[i]
			out = append(out, domain.TempImage{URL: "https://img.test/" + name, Name: name + ".png"})
		}
		_ = json.NewEncoder(w).Encode(out)
	case r.Method == http.MethodGet && strings.Count(r.URL.Path, "/") == 2 && strings.HasSuffix(r.URL.Path, "/"):
		_, _ = w.Write([]byte("[]"))
	default:
		http.NotFound(w, r)
	}
}

type fakeAgent struct {
	mu       sync.Mutex
	requests []domain.ChatRequest
}

func (f *fakeAgent) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/chat":
		var req domain.ChatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(domain.ChatResponse{
			ConversationID: "abc",
			Messages:       []domain.AgentMessage{{ID: "m", Content: "line one\nline two"}},
		})
	case "/product-description":
		var req domain.DescriptionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		_ = json.NewEncoder(w).Encode("A great " + req.Name + " for " + req.Category)
	default:
		http.NotFound(w, r)
	}
}

type testEnv struct {
	t       *testing.T
	url     string
	catalog *fakeCatalog
	agent   *fakeAgent
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, catalog *fakeCatalog, tweak func(*Config)) *testEnv {
	t.Helper()
	agent := &fakeAgent{}
	catalogSrv := httptest.NewServer(catalog)
	t.Cleanup(catalogSrv.Close)
	agentSrv := httptest.NewServer(agent)
	t.Cleanup(agentSrv.Close)
	mr := miniredis.RunT(t)

	m := metrics.New("console-test")
	cfg := Config{
		Catalog:                catalogclient.NewClient(catalogSrv.URL),
		Agent:                  agentclient.NewClient(agentSrv.URL, nil),
		Metrics:                m,
		RedisAddr:              mr.Addr(),
		SessionIdleTTL:         time.Hour,
		ChatRateLimitPerMinute: 10,
	}
	if tweak != nil {
		tweak(&cfg)
	}
	srv, err := New(cfg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	httpSrv := httptest.NewServer(srv.Router())
	t.Cleanup(httpSrv.Close)
	return &testEnv{t: t, url: httpSrv.URL, catalog: catalog, agent: agent, metrics: m}
}

func (e *testEnv) do(method, path, contentType string, body io.Reader) (*http.Response, []byte) {
	e.t.Helper()
	req, err := http.NewRequest(method, e.url+path, body)
	if err != nil {
		e.t.Fatalf("build request: %v", err)
	}
	req.Header.Set(sessionHeader, testSession)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func (e *testEnv) doJSON(method, path, body string) (*http.Response, []byte) {
	e.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	return e.do(method, path, "application/json", r)
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return out
}

type tableResponse struct {
	Rows []struct {
		ID    string `json:"id"`
		Cells []struct {
			Text string `json:"text"`
		} `json:"cells"`
	} `json:"rows"`
	Empty *struct {
		Text    string `json:"text"`
		Colspan int    `json:"colspan"`
	} `json:"empty"`
}

func TestAddCategoryFlow(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)

	resp, data := env.doJSON(http.MethodGet, "/api/categories", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: %d %s", resp.StatusCode, data)
	}
	table := decode[tableResponse](t, data)
	if table.Empty == nil || table.Empty.Text != "No categories found." || table.Empty.Colspan != 2 {
		t.Fatalf("expected placeholder row, got %s", data)
	}

	if resp, data := env.doJSON(http.MethodPost, "/api/categories/dialogs/add/open", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("open: %d %s", resp.StatusCode, data)
	}
	resp, data = env.doJSON(http.MethodPost, "/api/categories/dialogs/add/submit", `{"name":"Shoes","description":"Footwear"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit: %d %s", resp.StatusCode, data)
	}

	_, data = env.doJSON(http.MethodGet, "/api/categories", "")
	table = decode[tableResponse](t, data)
	if len(table.Rows) != 1 || table.Rows[0].Cells[0].Text != "Shoes" || table.Rows[0].Cells[1].Text != "Footwear" {
		t.Fatalf("unexpected table %s", data)
	}

	_, data = env.doJSON(http.MethodGet, "/api/categories/dialogs/add", "")
	state := decode[struct {
		Dialog struct {
			Open bool `json:"open"`
		} `json:"dialog"`
	}](t, data)
	if state.Dialog.Open {
		t.Fatalf("add dialog must be closed after success")
	}
}

func TestSubmitWithMissingFieldNeverReachesBackend(t *testing.T) {
	catalog := &fakeCatalog{}
	env := newTestEnv(t, catalog, nil)
	env.doJSON(http.MethodPost, "/api/categories/dialogs/add/open", "")

	resp, data := env.doJSON(http.MethodPost, "/api/categories/dialogs/add/submit", `{"name":"Shoes"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d %s", resp.StatusCode, data)
	}
	if !strings.Contains(string(data), "description") {
		t.Fatalf("expected missing field in response, got %s", data)
	}
	catalog.mu.Lock()
	posts := catalog.posts
	catalog.mu.Unlock()
	if posts != 0 {
		t.Fatalf("backend must not be called, got %d posts", posts)
	}
}

func TestDeleteMissingColorKeepsListAndToasts(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{colors: []domain.Color{{ID: "c1", Name: "Red", Hex: "#ff0000"}}}, nil)
	env.doJSON(http.MethodGet, "/api/colors", "")

	resp, _ := env.doJSON(http.MethodDelete, "/api/colors/c1", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected upstream 404, got %d", resp.StatusCode)
	}
	_, data := env.doJSON(http.MethodGet, "/api/colors", "")
	if table := decode[tableResponse](t, data); len(table.Rows) != 1 {
		t.Fatalf("list must be unchanged, got %s", data)
	}

	_, data = env.doJSON(http.MethodGet, "/api/toasts", "")
	toasts := decode[struct {
		Toasts []struct {
			Page string `json:"page"`
		} `json:"toasts"`
	}](t, data)
	if len(toasts.Toasts) != 1 || toasts.Toasts[0].Page != "colors" {
		t.Fatalf("expected one colors toast, got %s", data)
	}
}

func TestMarkOrderDelivered(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{orders: []domain.Order{
		{ID: "o1", Status: domain.OrderStatusPending},
		{ID: "o2", Status: domain.OrderStatusPending},
	}}, nil)
	env.doJSON(http.MethodGet, "/api/orders", "")

	resp, data := env.doJSON(http.MethodPost, "/api/orders/o1/delivered", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mark delivered: %d %s", resp.StatusCode, data)
	}
	out := decode[struct {
		Orders []struct {
			ID               string `json:"id"`
			Badge            string `json:"badge"`
			CanMarkDelivered bool   `json:"canMarkDelivered"`
		} `json:"orders"`
	}](t, data)
	if out.Orders[0].Badge != "Delivered" || out.Orders[0].CanMarkDelivered {
		t.Fatalf("o1 must be delivered with no action: %s", data)
	}
	if !out.Orders[1].CanMarkDelivered {
		t.Fatalf("o2 must keep its action: %s", data)
	}

	resp, _ = env.doJSON(http.MethodPost, "/api/orders/o1/delivered", "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for a delivered order, got %d", resp.StatusCode)
	}
}

func imagesForm(t *testing.T, field string, n int) (string, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for i := range n {
		part, err := mw.CreateFormFile(field, "img"+string(rune('0'+i))+".png")
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		_, _ = part.Write(pngHeader)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}
	return mw.FormDataContentType(), &buf
}

func TestChatImagesThenMessage(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)

	ct, body := imagesForm(t, "images", 2)
	resp, data := env.do(http.MethodPost, "/api/ai-admin/images", ct, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("upload: %d %s", resp.StatusCode, data)
	}
	resp, data = env.doJSON(http.MethodPost, "/api/ai-admin/messages", `{"message":"Check these out"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send: %d %s", resp.StatusCode, data)
	}
	out := decode[struct {
		ConversationID string `json:"conversationId"`
		Messages       []struct {
			Role   string   `json:"role"`
			Lines  []string `json:"lines"`
			Images []string `json:"images"`
		} `json:"messages"`
		Pending []any `json:"pending"`
	}](t, data)
	if len(out.Messages) != 2 {
		t.Fatalf("expected user + assistant, got %s", data)
	}
	user := out.Messages[0]
	if user.Lines[0] != "Check these out" || len(user.Images) != 2 || user.Images[0] != "https://img.test/first" || user.Images[1] != "https://img.test/second" {
		t.Fatalf("unexpected user message %s", data)
	}
	if len(out.Messages[1].Lines) != 2 || out.ConversationID != "abc" || len(out.Pending) != 0 {
		t.Fatalf("unexpected transcript %s", data)
	}
	if got := env.agent.requests[0].ImagesURLs; len(got) != 2 {
		t.Fatalf("agent saw %v", got)
	}
}

func TestChatRateLimit(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, func(cfg *Config) { cfg.ChatRateLimitPerMinute = 1 })

	resp, data := env.doJSON(http.MethodPost, "/api/ai-admin/messages", `{"message":"hi"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first message: %d %s", resp.StatusCode, data)
	}
	resp, _ = env.doJSON(http.MethodPost, "/api/ai-admin/messages", `{"message":"again"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second message expected 429, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestEmptyChatMessageRejected(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)
	resp, _ := env.doJSON(http.MethodPost, "/api/ai-admin/messages", `{"message":"   "}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if len(env.agent.requests) != 0 {
		t.Fatalf("agent must not be called")
	}
}

func TestProductDescriptionFillsDraft(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{categories: []domain.Category{{ID: "c1", Name: "Shoes", Description: "x"}}}, nil)
	env.doJSON(http.MethodPost, "/api/products/dialogs/add/open", "")
	if resp, data := env.doJSON(http.MethodPut, "/api/products/dialogs/add", `{"name":"Runner","brand":"Acme","category_id":"c1"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("set draft: %d %s", resp.StatusCode, data)
	}
	resp, data := env.doJSON(http.MethodPost, "/api/products/dialogs/add/description", `{"primaryKeyword":"running"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("description: %d %s", resp.StatusCode, data)
	}
	out := decode[struct {
		Dialog struct {
			Draft domain.ProductData `json:"draft"`
		} `json:"dialog"`
		Options map[string][]struct {
			Value string `json:"value"`
		} `json:"options"`
	}](t, data)
	if out.Dialog.Draft.Description != "A great Runner for Shoes" {
		t.Fatalf("unexpected description %q", out.Dialog.Draft.Description)
	}
	if len(out.Options["categories"]) != 1 {
		t.Fatalf("expected category options, got %s", data)
	}
}

func TestVariantImageBecomesDataURL(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)
	env.doJSON(http.MethodPost, "/api/product-variants/dialogs/add/open", "")
	ct, body := imagesForm(t, "image", 1)
	resp, data := env.do(http.MethodPost, "/api/product-variants/dialogs/add/image", ct, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("image: %d %s", resp.StatusCode, data)
	}
	if !strings.Contains(string(data), `"image":"data:image/png;base64,`) {
		t.Fatalf("expected data URL in draft, got %s", data)
	}
	_, data = env.doJSON(http.MethodGet, "/api/product-variants/dialogs/edit", "")
	if strings.Contains(string(data), `"open":true`) {
		t.Fatalf("edit dialog must stay closed: %s", data)
	}
}

func TestThemeRoundTrip(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)
	_, data := env.doJSON(http.MethodGet, "/api/theme", "")
	if !strings.Contains(string(data), `"light"`) {
		t.Fatalf("expected default light, got %s", data)
	}
	if resp, _ := env.doJSON(http.MethodPut, "/api/theme", `{"theme":"sepia"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid theme, got %d", resp.StatusCode)
	}
	env.doJSON(http.MethodPut, "/api/theme", `{"theme":"dark"}`)
	_, data = env.doJSON(http.MethodGet, "/api/theme", "")
	if !strings.Contains(string(data), `"dark"`) {
		t.Fatalf("expected dark, got %s", data)
	}
}

func TestSessionCookieIssued(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)
	resp, err := http.Get(env.url + "/api/toasts")
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()
	id := resp.Header.Get(sessionHeader)
	if id == "" || id == testSession {
		t.Fatalf("expected a fresh session id, got %q", id)
	}
	found := false
	for _, c := range resp.Cookies() {
		if c.Name == "console_session" && c.Value == id && c.HttpOnly {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected session cookie, got %v", resp.Cookies())
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)
	env.doJSON(http.MethodGet, "/healthz", "")
	_, data := env.doJSON(http.MethodGet, "/metrics", "")
	if !strings.Contains(string(data), `http_requests_total{`) || !strings.Contains(string(data), `route="/healthz"`) {
		t.Fatalf("expected request metrics, got %s", data)
	}
}

func TestServerRequiresRedis(t *testing.T) {
	_, err := New(Config{
		Catalog: catalogclient.NewClient("http://catalog.invalid"),
		Agent:   agentclient.NewClient("http://agent.invalid", nil),
	})
	if err == nil {
		t.Fatalf("expected error without redis addr")
	}
}

func TestRouteLabel(t *testing.T) {
	cases := map[string]string{
		"/api/colors/c1":                   "/api/colors/:id",
		"/api/orders/o1/delivered":         "/api/orders/:id/delivered",
		"/api/ai-admin/messages/m-1/retry": "/api/ai-admin/messages/:id/retry",
		"/api/products/dialogs/add/open":   "/api/products/dialogs/add/open",
		"/healthz":                         "/healthz",
	}
	for path, want := range cases {
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if got := routeLabel(r); got != want {
			t.Fatalf("routeLabel(%q) = %q, want %q", path, got, want)
		}
	}
}

type dialogOptions struct {
	Options map[string][]struct {
		Value string `json:"value"`
		Label string `json:"label"`
	} `json:"options"`
}

func TestRevisitingProductsRefreshesCategoryOptions(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{categories: []domain.Category{{ID: "c1", Name: "Hats", Description: "Headwear"}}}, nil)

	env.doJSON(http.MethodGet, "/api/products", "")
	_, data := env.doJSON(http.MethodPost, "/api/products/dialogs/add/open", "")
	if got := decode[dialogOptions](t, data).Options["categories"]; len(got) != 1 {
		t.Fatalf("expected one category option, got %s", data)
	}

	env.doJSON(http.MethodGet, "/api/categories", "")
	env.doJSON(http.MethodPost, "/api/categories/dialogs/add/open", "")
	if resp, data := env.doJSON(http.MethodPost, "/api/categories/dialogs/add/submit", `{"name":"Shoes","description":"Footwear"}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create category: %d %s", resp.StatusCode, data)
	}

	// Searching reuses the loaded lists; a plain GET is a revisit.
	env.doJSON(http.MethodGet, "/api/products?q=", "")
	_, data = env.doJSON(http.MethodGet, "/api/products/dialogs/add", "")
	if got := decode[dialogOptions](t, data).Options["categories"]; len(got) != 1 {
		t.Fatalf("search must not refetch references, got %s", data)
	}
	env.doJSON(http.MethodGet, "/api/products", "")
	_, data = env.doJSON(http.MethodGet, "/api/products/dialogs/add", "")
	got := decode[dialogOptions](t, data).Options["categories"]
	if len(got) != 2 || got[1].Value != "c-new" || got[1].Label != "Shoes" {
		t.Fatalf("expected new category option after revisit, got %s", data)
	}
}

func TestEditDraftCannotChangeID(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{categories: []domain.Category{
		{ID: "c1", Name: "Hats", Description: "Headwear"},
		{ID: "c2", Name: "Shoes", Description: "Footwear"},
	}}, nil)
	env.doJSON(http.MethodGet, "/api/categories", "")
	if resp, data := env.doJSON(http.MethodPost, "/api/categories/dialogs/edit/open", `{"id":"c1"}`); resp.StatusCode != http.StatusOK {
		t.Fatalf("open edit: %d %s", resp.StatusCode, data)
	}

	resp, data := env.doJSON(http.MethodPut, "/api/categories/dialogs/edit", `{"id":"c2","name":"Changed"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for changed id, got %d %s", resp.StatusCode, data)
	}
	_, data = env.doJSON(http.MethodGet, "/api/categories/dialogs/edit", "")
	state := decode[struct {
		Dialog struct {
			Draft domain.Category `json:"draft"`
		} `json:"dialog"`
	}](t, data)
	if state.Dialog.Draft.ID != "c1" || state.Dialog.Draft.Name != "Hats" {
		t.Fatalf("draft must be untouched, got %+v", state.Dialog.Draft)
	}

	resp, data = env.doJSON(http.MethodPost, "/api/categories/dialogs/edit/submit", `{"id":"c2"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 on submit with changed id, got %d %s", resp.StatusCode, data)
	}
}

func TestThemeToggle(t *testing.T) {
	env := newTestEnv(t, &fakeCatalog{}, nil)
	resp, data := env.doJSON(http.MethodPost, "/api/theme/toggle", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(data), `"dark"`) {
		t.Fatalf("expected dark after first toggle, got %d %s", resp.StatusCode, data)
	}
	_, data = env.doJSON(http.MethodPost, "/api/theme/toggle", "")
	if !strings.Contains(string(data), `"light"`) {
		t.Fatalf("expected light after second toggle, got %s", data)
	}
	if resp, _ := env.doJSON(http.MethodGet, "/api/theme/toggle", ""); resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}
