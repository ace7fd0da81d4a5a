package mediastore

import (
	"context"
	"errors"
	"io"
	"strings"

	"pet-vet-link/internal/platform/config"
	"pet-vet-link/internal/platform/httpclient"
)

var ErrNotConfigured = errors.New("mediastore: not configured")

// Client sube fotos al servicio de medios y devuelve la URL pública.
type Client struct {
	http   *httpclient.Client
	apiKey string
}

func NewClient(cfg config.MediaConfig) (*Client, error) {
	hc, err := httpclient.NewWithBaseURL(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:   hc,
		apiKey: strings.TrimSpace(cfg.APIKey),
	}, nil
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.http != nil && c.http.BaseURL != ""
}

func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	headers := map[string]string{}
	if c.apiKey != "" {
		headers["X-Api-Key"] = c.apiKey
	}

	var out struct {
		URL string `json:"url"`
	}
	if err := c.http.DoMultipart(ctx, "/v1/files", headers, filename, content, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.URL) == "" {
		return "", errors.New("mediastore: response missing url")
	}
	return out.URL, nil
}
