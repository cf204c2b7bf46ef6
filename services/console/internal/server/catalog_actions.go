package server

import (
	"encoding/base64"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"catalogadmin/pkg/domain"
	"catalogadmin/services/console/internal/workspace"
)

// handleVariantImage reads a multipart "image" into the variant draft as a data URL.
func (s *Server) handleVariantImage(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, kind string) error {
	data, err := s.readImage(w, r, "image")
	if err != nil {
		return err
	}
	contentType := http.DetectContentType(data)
	dataURL := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	if kind == kindAdd {
		return ws.ProductVariants.Add.Update(func(d *domain.ProductVariantData) { d.Image = dataURL })
	}
	return ws.ProductVariants.Edit.Update(func(v *domain.ProductVariant) { v.Image = dataURL })
}

func (s *Server) readImage(w http.ResponseWriter, r *http.Request, field string) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, &httpError{status: http.StatusBadRequest, msg: "invalid form data"}
	}
	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, &httpError{status: http.StatusBadRequest, msg: "file is required (field: " + field + ")"}
	}
	data, err := readMultipartFile(headers[0])
	if err != nil {
		return nil, &httpError{status: http.StatusBadRequest, msg: "invalid form data"}
	}
	if !strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, &httpError{status: http.StatusBadRequest, msg: "unsupported file type"}
	}
	return data, nil
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

type descriptionRequest struct {
	PrimaryKeyword    string   `json:"primaryKeyword"`
	SecondaryKeywords []string `json:"secondaryKeywords"`
	TargetAudience    string   `json:"targetAudience"`
}

// handleProductDescription asks the agent for a description of the product in
// the dialog and writes it into the draft.
func (s *Server) handleProductDescription(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, kind string) error {
	var req descriptionRequest
	body, err := readBody(r)
	if err != nil {
		return errInvalidJSON
	}
	if len(body) > 0 {
		if err := decodeBytes(body, &req); err != nil {
			return err
		}
	}

	var name, brand, categoryID string
	if kind == kindAdd {
		d := ws.Products.Add.Draft()
		name, brand, categoryID = d.Name, d.Brand, d.CategoryID
	} else {
		p := ws.Products.Edit.Draft()
		name, brand, categoryID = p.Name, p.Brand, p.CategoryID
	}
	if strings.TrimSpace(name) == "" {
		return &httpError{status: http.StatusBadRequest, msg: "product name is required to generate a description"}
	}
	if !s.descriptionLimiter.Allow(r.Context(), ws.ID) {
		w.Header().Set("Retry-After", retryAfterSeconds(s.descriptionLimiter.RetryAfter()))
		return &httpError{status: http.StatusTooManyRequests, msg: "too many description requests"}
	}

	description, err := s.agent.GenerateDescription(r.Context(), domain.DescriptionRequest{
		Name:              name,
		Brand:             brand,
		Category:          ws.ProductCategories.Label(categoryID),
		PrimaryKeyword:    strings.TrimSpace(req.PrimaryKeyword),
		SecondaryKeywords: req.SecondaryKeywords,
		TargetAudience:    strings.TrimSpace(req.TargetAudience),
	})
	if err != nil {
		ws.Toasts.Notify("products", "Failed to generate a description.")
		return err
	}
	if kind == kindAdd {
		return ws.Products.Add.Update(func(d *domain.ProductData) { d.Description = description })
	}
	return ws.Products.Edit.Update(func(p *domain.Product) { p.Description = description })
}
