package catalogclient

import (
	"context"
	"net/http"

	"catalogadmin/pkg/domain"
)

// Images uploads image payloads to the backend's image store.
type Images struct {
	client *Client
}

// Upload stores one base64 payload and returns its URL.
func (i *Images) Upload(ctx context.Context, base64Data string) (string, error) {
	c := i.client
	req, err := c.newJSONRequest(ctx, http.MethodPost, c.collectionURL("images"), base64Data)
	if err != nil {
		return "", err
	}
	var location string
	if err := c.do(req, &location); err != nil {
		return "", err
	}
	return location, nil
}

// UploadTemporary uploads a batch in one call. The backend answers with
// one {url, name} per input, in input order.
func (i *Images) UploadTemporary(ctx context.Context, images []domain.TempImageData) ([]domain.TempImage, error) {
	c := i.client
	if len(images) == 0 {
		return []domain.TempImage{}, nil
	}
	req, err := c.newJSONRequest(ctx, http.MethodPost, c.collectionURL("images")+"temporary/bulk", images)
	if err != nil {
		return nil, err
	}
	var out []domain.TempImage
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
