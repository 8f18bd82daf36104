// Package srd is the client for the external rules/encounter microservice.
package srd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// LookupStatus tags the outcome of a spell or monster lookup.
type LookupStatus int

const (
	LookupOK LookupStatus = iota
	LookupNotFound
	LookupFailed
)

// LookupResult is the tagged result of a lookup. Transport errors and
// non-2xx statuses are folded into the tag; they never surface as errors.
type LookupResult struct {
	Status LookupStatus
	Data   map[string]any
	Err    error
}

// Encounter is the payload returned by encounter generation.
type Encounter struct {
	Monsters   []map[string]any `json:"monsters"`
	Difficulty string           `json:"difficulty"`
	Raw        map[string]any   `json:"-"`
}

// Client talks to the SRD service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the SRD service at baseURL. All calls are
// bounded by timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Health probes GET /health and returns the reported status string.
func (c *Client) Health(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "/health")
	if err != nil {
		return "", fmt.Errorf("srd health: %w", err)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("srd health: decode: %w", err)
	}
	if resp.Status == "" {
		resp.Status = "unknown"
	}
	return resp.Status, nil
}

// GenerateEncounter requests an encounter sized for the party. Failures are
// hard errors: combat classification treats the SRD service as a required
// dependency.
func (c *Client) GenerateEncounter(ctx context.Context, partyLevels []int, difficulty string) (*Encounter, error) {
	reqBody, err := json.Marshal(map[string]any{
		"party_levels": partyLevels,
		"difficulty":   difficulty,
	})
	if err != nil {
		return nil, fmt.Errorf("srd encounter: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/encounter", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("srd encounter: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("srd encounter: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("srd encounter: read: %w", err)
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("srd encounter: status %d: %s", resp.StatusCode, body)
	}

	var enc Encounter
	if err := json.Unmarshal(body, &enc); err != nil {
		return nil, fmt.Errorf("srd encounter: decode: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err == nil {
		enc.Raw = raw
	}
	return &enc, nil
}

// Spell looks up a spell by name.
func (c *Client) Spell(ctx context.Context, name string) LookupResult {
	return c.lookup(ctx, "/spells/"+url.PathEscape(name))
}

// Monster looks up a monster by name.
func (c *Client) Monster(ctx context.Context, name string) LookupResult {
	return c.lookup(ctx, "/monsters/"+url.PathEscape(name))
}

func (c *Client) lookup(ctx context.Context, path string) LookupResult {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return LookupResult{Status: LookupFailed, Err: err}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return LookupResult{Status: LookupFailed, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return LookupResult{Status: LookupNotFound}
	}
	if resp.StatusCode != 200 {
		return LookupResult{Status: LookupFailed, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var data map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return LookupResult{Status: LookupFailed, Err: fmt.Errorf("decode: %w", err)}
	}
	return LookupResult{Status: LookupOK, Data: data}
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return body, nil
}
