package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/crud"
	"catalogadmin/services/console/internal/view"
	"catalogadmin/services/console/internal/workspace"
)

const (
	kindAdd  = "add"
	kindEdit = "edit"
)

// dialogAction changes a dialog draft; on success the dialog state is returned.
type dialogAction func(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, kind string) error

// entityRoutes serves one catalog entity page: its table, delete and dialogs.
type entityRoutes[T domain.Entity, D any] struct {
	s       *Server
	name    string
	page    func(*workspace.Workspace) *crud.Page[T, D]
	table   func(ws *workspace.Workspace, term string) view.Table
	options func(*workspace.Workspace) map[string][]view.Option
	actions map[string]dialogAction
}

func register[T domain.Entity, D any](s *Server, e *entityRoutes[T, D]) {
	e.s = s
	s.mux.HandleFunc("/api/"+e.name, e.handleCollection)
	s.mux.HandleFunc("/api/"+e.name+"/", e.handleSubtree)
}

func (s *Server) registerEntities() {
	register(s, &entityRoutes[domain.Category, domain.CategoryData]{
		name:  "categories",
		page:  func(ws *workspace.Workspace) *crud.Page[domain.Category, domain.CategoryData] { return ws.Categories },
		table: func(ws *workspace.Workspace, q string) view.Table { return view.CategoriesTable(ws.Categories, q) },
	})
	register(s, &entityRoutes[domain.Color, domain.ColorData]{
		name:  "colors",
		page:  func(ws *workspace.Workspace) *crud.Page[domain.Color, domain.ColorData] { return ws.Colors },
		table: func(ws *workspace.Workspace, q string) view.Table { return view.ColorsTable(ws.Colors, q) },
	})
	register(s, &entityRoutes[domain.Size, domain.SizeData]{
		name:  "sizes",
		page:  func(ws *workspace.Workspace) *crud.Page[domain.Size, domain.SizeData] { return ws.Sizes },
		table: func(ws *workspace.Workspace, q string) view.Table { return view.SizesTable(ws.Sizes, q) },
	})
	register(s, &entityRoutes[domain.Product, domain.ProductData]{
		name: "products",
		page: func(ws *workspace.Workspace) *crud.Page[domain.Product, domain.ProductData] { return ws.Products },
		table: func(ws *workspace.Workspace, q string) view.Table {
			return view.ProductsTable(ws.Products, ws.ProductCategories, q)
		},
		options: func(ws *workspace.Workspace) map[string][]view.Option {
			return map[string][]view.Option{"categories": view.RefOptions(ws.ProductCategories)}
		},
		actions: map[string]dialogAction{"description": s.handleProductDescription},
	})
	register(s, &entityRoutes[domain.ProductVariant, domain.ProductVariantData]{
		name: "product-variants",
		page: func(ws *workspace.Workspace) *crud.Page[domain.ProductVariant, domain.ProductVariantData] {
			return ws.ProductVariants
		},
		table: func(ws *workspace.Workspace, q string) view.Table {
			return view.VariantsTable(ws.ProductVariants, ws.VariantRefs, q)
		},
		options: func(ws *workspace.Workspace) map[string][]view.Option {
			return map[string][]view.Option{
				"products": view.RefOptions(ws.VariantRefs.Products),
				"colors":   view.RefOptions(ws.VariantRefs.Colors),
				"sizes":    view.RefOptions(ws.VariantRefs.Sizes),
			}
		},
		actions: map[string]dialogAction{"image": s.handleVariantImage},
	})
}

// GET /api/{entity}[?q=]
func (e *entityRoutes[T, D]) handleCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	ws := e.s.workspace(w, r)
	page := e.page(ws)
	// A plain GET is a page visit and refetches; a search reuses the loaded list.
	load := page.Visit
	if r.URL.Query().Has("q") {
		load = page.EnsureLoaded
	}
	if err := load(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, e.table(ws, r.URL.Query().Get("q")))
}

// /api/{entity}/{id} and /api/{entity}/dialogs/{kind}[/{action}]
func (e *entityRoutes[T, D]) handleSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/"+e.name+"/"), "/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}
	parts := strings.Split(rest, "/")
	ws := e.s.workspace(w, r)

	if parts[0] != "dialogs" {
		if len(parts) != 1 {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodDelete {
			methodNotAllowed(w)
			return
		}
		if err := e.page(ws).Delete(r.Context(), parts[0]); err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
		return
	}

	if len(parts) < 2 || len(parts) > 3 || (parts[1] != kindAdd && parts[1] != kindEdit) {
		http.NotFound(w, r)
		return
	}
	kind := parts[1]
	if len(parts) == 2 {
		e.handleDialog(w, r, ws, kind)
		return
	}
	action := parts[2]
	switch action {
	case "open", "submit", "cancel":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
	}
	switch action {
	case "open":
		e.handleOpen(w, r, ws, kind)
	case "submit":
		e.handleSubmit(w, r, ws, kind)
	case "cancel":
		page := e.page(ws)
		if kind == kindAdd {
			page.Add.Cancel()
		} else {
			page.Edit.Cancel()
		}
		e.writeDialog(w, ws, kind)
	default:
		fn, ok := e.actions[action]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if err := fn(w, r, ws, kind); err != nil {
			writeErr(w, r, err)
			return
		}
		e.writeDialog(w, ws, kind)
	}
}

// GET returns the dialog state; PUT replaces the draft.
func (e *entityRoutes[T, D]) handleDialog(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, kind string) {
	switch r.Method {
	case http.MethodGet:
		e.writeDialog(w, ws, kind)
	case http.MethodPut:
		body, err := readBody(r)
		if err != nil || len(body) == 0 {
			writeError(w, http.StatusBadRequest, errInvalidJSON.Error())
			return
		}
		if err := e.applyDraft(ws, kind, body); err != nil {
			writeErr(w, r, err)
			return
		}
		e.writeDialog(w, ws, kind)
	default:
		methodNotAllowed(w)
	}
}

func (e *entityRoutes[T, D]) handleOpen(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, kind string) {
	page := e.page(ws)
	if err := page.EnsureLoaded(r.Context()); err != nil {
		writeErr(w, r, err)
		return
	}
	if kind == kindAdd {
		page.OpenAdd()
		e.writeDialog(w, ws, kind)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.ID) == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}
	if err := page.OpenEdit(strings.TrimSpace(req.ID)); err != nil {
		writeErr(w, r, err)
		return
	}
	e.writeDialog(w, ws, kind)
}

// handleSubmit applies an optional draft body, then submits the dialog.
func (e *entityRoutes[T, D]) handleSubmit(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, kind string) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, errInvalidJSON.Error())
		return
	}
	if len(body) > 0 {
		if err := e.applyDraft(ws, kind, body); err != nil {
			writeErr(w, r, err)
			return
		}
	}
	page := e.page(ws)
	if kind == kindAdd {
		created, err := page.SubmitAdd(r.Context())
		if err != nil {
			writeErr(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}
	updated, err := page.SubmitEdit(r.Context())
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// applyDraft replaces the add draft, or merges body onto the edit draft so the
// record keeps fields the body leaves out. The edit draft's id is fixed by the
// open call.
func (e *entityRoutes[T, D]) applyDraft(ws *workspace.Workspace, kind string, body []byte) error {
	page := e.page(ws)
	if kind == kindAdd {
		var draft D
		if err := json.Unmarshal(body, &draft); err != nil {
			return errInvalidJSON
		}
		return page.Add.SetDraft(draft)
	}
	var applyErr error
	err := page.Edit.Update(func(item *T) {
		next := *item
		if err := json.Unmarshal(body, &next); err != nil {
			applyErr = errInvalidJSON
			return
		}
		if next.EntityID() != (*item).EntityID() {
			applyErr = fmt.Errorf("%s %q: %w", e.name, (*item).EntityID(), crud.ErrIDChanged)
			return
		}
		*item = next
	})
	if applyErr != nil {
		return applyErr
	}
	return err
}

type dialogResponse struct {
	Dialog  any                      `json:"dialog"`
	Options map[string][]view.Option `json:"options,omitempty"`
}

func (e *entityRoutes[T, D]) writeDialog(w http.ResponseWriter, ws *workspace.Workspace, kind string) {
	page := e.page(ws)
	resp := dialogResponse{}
	if kind == kindAdd {
		resp.Dialog = page.Add.State()
	} else {
		resp.Dialog = page.Edit.State()
	}
	if e.options != nil {
		resp.Options = e.options(ws)
	}
	writeJSON(w, http.StatusOK, resp)
}
