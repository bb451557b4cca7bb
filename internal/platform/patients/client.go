// Package patients is the client for the external patient identity service.
// The allocation core only needs an existence check; everything else about
// patients is owned elsewhere.
package patients

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Directory answers whether a patient id is known. Implementations must be
// safe for concurrent use.
type Directory interface {
	Exists(ctx context.Context, patientID string) (bool, error)
}

// HTTPDirectory checks patient existence with a GET against the directory
// service, expecting 200 for known ids and 404 for unknown ones.
type HTTPDirectory struct {
	baseURL string
	client  *http.Client
}

// NewHTTPDirectory builds a directory client for the given base URL.
func NewHTTPDirectory(baseURL string) *HTTPDirectory {
	return &HTTPDirectory{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (d *HTTPDirectory) Exists(ctx context.Context, patientID string) (bool, error) {
	url := fmt.Sprintf("%s/patients/%s", d.baseURL, patientID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("patient directory: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("patient directory returned status %d", resp.StatusCode)
	}
}
