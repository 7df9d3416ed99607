package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kirillkom/docstudio/internal/infrastructure/resilience"
)

func (c *Client) postJSON(ctx context.Context, endpoint string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", operation, err)
	}
	return c.post(ctx, endpoint, "application/json", body, out, operation)
}

// post sends one request and decodes the JSON envelope. The backend answers
// rejections with success=false, sometimes under a non-2xx status, so a
// decodable envelope wins over the status code.
func (c *Client) post(ctx context.Context, endpoint, contentType string, body []byte, out any, operation string) error {
	err := c.executor.Execute(ctx, resilience.CallSubmit, "backend_"+operation, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create %s request: %w", operation, err)
		}
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("backend %s request: %w", operation, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if err != nil {
			return fmt.Errorf("read %s response: %w", operation, err)
		}
		if decodeErr := json.Unmarshal(raw, out); decodeErr != nil {
			if resp.StatusCode >= 300 {
				return newHTTPStatusError(operation, resp, raw)
			}
			return fmt.Errorf("decode %s response: %w", operation, decodeErr)
		}
		if resp.StatusCode >= 300 && !hasErrorMessage(raw) {
			return newHTTPStatusError(operation, resp, raw)
		}
		return nil
	}, classifyPost)
	return wrapTemporaryIfNeeded("backend "+operation, err)
}

// get returns the open response of a successful GET. Transient failures are
// retried under the fetch policy.
func (c *Client) get(ctx context.Context, target, operation string) (*http.Response, error) {
	resp, err := resilience.Do(ctx, c.executor, resilience.CallFetch, "backend_"+operation, func(ctx context.Context) (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, fmt.Errorf("create %s request: %w", operation, err)
		}
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("backend %s request: %w", operation, err)
		}
		if resp.StatusCode >= 300 {
			defer resp.Body.Close()
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			return nil, newHTTPStatusError(operation, resp, raw)
		}
		return resp, nil
	}, classifyGet)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("backend "+operation, err)
	}
	return resp, nil
}

func hasErrorMessage(raw []byte) bool {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	return strings.TrimSpace(env.Error) != ""
}

func newHTTPStatusError(operation string, resp *http.Response, raw []byte) error {
	return &HTTPStatusError{
		Operation:  operation,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(raw),
	}
}
