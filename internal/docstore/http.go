package docstore

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
)

// httpDocumentStore talks to the internal document service's REST API.
type httpDocumentStore struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewHTTP(cfg config.DocStoreConfig) DocumentStore {
	return &httpDocumentStore{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *httpDocumentStore) FetchContent(ctx context.Context, ref string) (string, error) {
	var out struct {
		Content string `json:"content"`
	}
	if err := s.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(ref)+"/content", nil, &out); err != nil {
		return "", fmt.Errorf("fetching document content: %w", err)
	}
	return out.Content, nil
}

func (s *httpDocumentStore) FetchBlocks(ctx context.Context, ref string) ([]Block, error) {
	var out struct {
		Blocks []Block `json:"blocks"`
	}
	if err := s.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(ref)+"/blocks", nil, &out); err != nil {
		return nil, fmt.Errorf("fetching document blocks: %w", err)
	}
	return out.Blocks, nil
}

func (s *httpDocumentStore) AnalyzeFormat(ctx context.Context, ref string) (*StyleDescriptor, error) {
	var out StyleDescriptor
	if err := s.do(ctx, http.MethodGet, "/documents/"+url.PathEscape(ref)+"/format", nil, &out); err != nil {
		return nil, fmt.Errorf("analyzing document format: %w", err)
	}
	return &out, nil
}

func (s *httpDocumentStore) AppendEntry(ctx context.Context, ref, question, answer string, style *StyleDescriptor) (string, error) {
	body := map[string]any{
		"question": question,
		"answer":   answer,
	}
	if style != nil {
		body["style"] = style
	}
	var out struct {
		URL string `json:"url"`
	}
	if err := s.do(ctx, http.MethodPost, "/documents/"+url.PathEscape(ref)+"/entries", body, &out); err != nil {
		return "", fmt.Errorf("appending entry: %w", err)
	}
	return out.URL, nil
}

func (s *httpDocumentStore) UpdateBlock(ctx context.Context, blockID, text string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	err := s.do(ctx, http.MethodPatch, "/blocks/"+url.PathEscape(blockID), map[string]any{"text": text}, &out)
	if err != nil {
		return "", fmt.Errorf("updating block: %w", err)
	}
	return out.URL, nil
}

func (s *httpDocumentStore) Annotate(ctx context.Context, blockID, text string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	err := s.do(ctx, http.MethodPost, "/blocks/"+url.PathEscape(blockID)+"/annotations", map[string]any{"text": text}, &out)
	if err != nil {
		return "", fmt.Errorf("annotating block: %w", err)
	}
	return out.ID, nil
}

func (s *httpDocumentStore) DocumentURL(ref string) string {
	return s.baseURL + "/documents/" + url.PathEscape(ref)
}

func (s *httpDocumentStore) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("document service %s %s: status %d: %s", method, path, resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
