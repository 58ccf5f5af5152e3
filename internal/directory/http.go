package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"answerhub.dev/scribe/core/config"
	"answerhub.dev/scribe/internal/model"
)

// httpDirectory talks to the domain directory's REST API.
type httpDirectory struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTP(cfg config.DirectoryConfig) Directory {
	return &httpDirectory{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (d *httpDirectory) Resolve(ctx context.Context, domainID string) (*model.KnowledgeDomain, error) {
	var out model.KnowledgeDomain
	err := d.do(ctx, http.MethodGet, "/domains/"+url.PathEscape(domainID), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *httpDirectory) List(ctx context.Context) ([]model.KnowledgeDomain, error) {
	var out struct {
		Domains []model.KnowledgeDomain `json:"domains"`
	}
	if err := d.do(ctx, http.MethodGet, "/domains", nil, &out); err != nil {
		return nil, err
	}
	return out.Domains, nil
}

func (d *httpDirectory) Create(ctx context.Context, domain model.KnowledgeDomain) (*model.KnowledgeDomain, error) {
	var out model.KnowledgeDomain
	if err := d.do(ctx, http.MethodPost, "/domains", domain, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *httpDirectory) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, d.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrDomainNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("directory %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
