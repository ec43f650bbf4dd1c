// Package tonapi is a small client for the TON HTTP API (tonapi.io v2). It
// covers the two lookups the lottery needs: a transaction by hash and an
// account balance.
package tonapi

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// ErrTransactionNotFound is returned when the API has no transaction for a hash.
var ErrTransactionNotFound = errors.New("transaction not found")

// ErrAccountNotFound is returned when the API does not know an address.
var ErrAccountNotFound = errors.New("account not found")

// mockValue is what mock transactions carry: 1000 TON in nanoton.
const mockValue = "1000000000000"

// Config holds client configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// MockAPI short-circuits every call with synthetic data. MockDestination is
	// the address mock transactions pay into.
	MockAPI         bool
	MockDestination string
}

// Client represents a TON API client
type Client struct {
	baseURL         string
	apiKey          string
	mockAPI         bool
	mockDestination string
	httpClient      *http.Client
}

// Transaction is the subset of a TON transaction the verifier checks. Value is
// the inbound message value in nanoton.
type Transaction struct {
	Hash        string
	Source      string
	Destination string
	Value       string
	Utime       int64
	Success     bool
}

// APIError is a non-2xx response other than 404.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ton api: status %d: %s", e.StatusCode, e.Message)
}

// NewClient creates a new TON API client
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" && !cfg.MockAPI {
		return nil, errors.New("ton api base URL required")
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		mockAPI:         cfg.MockAPI,
		mockDestination: cfg.MockDestination,
		httpClient:      &http.Client{Timeout: timeout},
	}, nil
}

// GetTransaction fetches a transaction by hash.
func (c *Client) GetTransaction(ctx context.Context, hash string) (*Transaction, error) {
	if c.mockAPI {
		return c.mockTransaction(hash), nil
	}

	body, err := c.get(ctx, "/v2/blockchain/transactions/"+url.PathEscape(hash))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	if !gjson.ValidBytes(body) {
		return nil, errors.New("ton api: invalid JSON in transaction response")
	}

	res := gjson.ParseBytes(body)
	return &Transaction{
		Hash:        res.Get("hash").String(),
		Source:      res.Get("in_msg.source.address").String(),
		Destination: res.Get("in_msg.destination.address").String(),
		Value:       nanoString(res.Get("in_msg.value")),
		Utime:       res.Get("utime").Int(),
		Success:     res.Get("success").Bool() && !res.Get("aborted").Bool(),
	}, nil
}

// GetAccountBalance returns the balance of address in nanoton.
func (c *Client) GetAccountBalance(ctx context.Context, address string) (string, error) {
	if c.mockAPI {
		return mockBalance(address), nil
	}

	body, err := c.get(ctx, "/v2/accounts/"+url.PathEscape(address))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", ErrAccountNotFound
		}
		return "", err
	}
	balance := gjson.GetBytes(body, "balance")
	if !balance.Exists() {
		return "", errors.New("ton api: balance missing from account response")
	}
	return nanoString(balance), nil
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return body, nil
}

// nanoString keeps integer amounts exactly as sent, whether the API encoded
// them as numbers or strings.
func nanoString(r gjson.Result) string {
	if r.Type == gjson.Number {
		return r.Raw
	}
	return r.String()
}

func (c *Client) mockTransaction(hash string) *Transaction {
	return &Transaction{
		Hash:        hash,
		Source:      "0:" + strings.Repeat("0", 64),
		Destination: c.mockDestination,
		Value:       mockValue,
		Utime:       time.Now().Unix(),
		Success:     true,
	}
}

// mockBalance derives a stable balance below 100 TON from the address.
func mockBalance(address string) string {
	sum := sha256.Sum256([]byte(address))
	n := binary.BigEndian.Uint64(sum[:8]) % 100_000_000_000
	return fmt.Sprintf("%d", n)
}
