package dataset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	pkgerrors "github.com/spinlytics/casino-analytics/pkg/errors"
)

// Catalog resolves dataset names and streams their content.
type Catalog interface {
	// Resolve looks the dataset up in the remote index.
	Resolve(ctx context.Context, name string) (Entry, error)
	// Download streams the dataset body into dst.
	Download(ctx context.Context, entry Entry, dst io.Writer) error
}

// HTTPCatalog serves datasets from a static index endpoint. The index lives
// at <base>/index.json; each entry's RemoteRef is the download URL. The
// access token comes from the environment via config, never from the repo.
type HTTPCatalog struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPCatalog builds a catalog client against the given base URL.
func NewHTTPCatalog(baseURL, token string, client *http.Client) (*HTTPCatalog, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("catalog base url is required")
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPCatalog{baseURL: baseURL, token: token, client: client}, nil
}

func (c *HTTPCatalog) Resolve(ctx context.Context, name string) (Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/index.json", nil)
	if err != nil {
		return Entry{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "building index request")
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return Entry{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "fetching catalog index").
			WithDetails(map[string]any{"dataset": name})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Entry{}, statusError(resp.StatusCode, "catalog index", name)
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return Entry{}, pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "decoding catalog index").
			WithDetails(map[string]any{"dataset": name})
	}

	for _, entry := range entries {
		if entry.Name == name {
			return entry, nil
		}
	}
	return Entry{}, pkgerrors.New(pkgerrors.CodeNotFound, "dataset not present in catalog").
		WithDetails(map[string]any{"dataset": name})
}

func (c *HTTPCatalog) Download(ctx context.Context, entry Entry, dst io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, entry.RemoteRef, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "building download request")
	}
	c.authorize(req)

	resp, err := c.client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "downloading dataset").
			WithDetails(map[string]any{"dataset": entry.Name})
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, "dataset download", entry.Name)
	}

	if _, err := io.Copy(dst, resp.Body); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDatasetUnavailable, err, "streaming dataset body").
			WithDetails(map[string]any{"dataset": entry.Name})
	}
	return nil
}

func (c *HTTPCatalog) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

func statusError(status int, op, dataset string) error {
	err := pkgerrors.New(pkgerrors.CodeDatasetUnavailable, fmt.Sprintf("%s returned status %d", op, status)).
		WithDetails(map[string]any{"dataset": dataset, "status": status})
	return err
}

// IsTransient reports whether a fetch failure is worth retrying: network
// errors and server-side statuses, not 4xx rejections.
func IsTransient(err error) bool {
	typed := pkgerrors.As(err)
	if typed == nil {
		return true
	}
	if typed.Code() == pkgerrors.CodeNotFound {
		return false
	}
	if details, ok := typed.Details().(map[string]any); ok {
		if status, ok := details["status"].(int); ok && status >= 400 && status < 500 {
			return false
		}
	}
	return typed.Code() == pkgerrors.CodeDatasetUnavailable
}
