package webflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"verigate/internal/token"
	"verigate/internal/verification"
)

// Result mirrors the bot API's verify reply.
type Result struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (r Result) Success() bool { return r.Status == "success" }

// APIClient posts submissions to the bot API with a short-lived bearer.
type APIClient struct {
	baseURL string
	tokens  *token.Provider
	http    *http.Client
}

func NewAPIClient(baseURL string, tokens *token.Provider) *APIClient {
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *APIClient) Submit(ctx context.Context, sub verification.Submission) (Result, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Result{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/verify", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		bearer, err := c.tokens.Sign(token.AudienceAPI, "web", token.Claims{})
		if err != nil {
			return Result{}, fmt.Errorf("sign api token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("post verify: %w", err)
	}
	defer resp.Body.Close()

	var result Result
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&result); err != nil {
		return Result{}, fmt.Errorf("decode verify response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("verify api status %d: %s", resp.StatusCode, result.Error)
	}
	return result, nil
}
