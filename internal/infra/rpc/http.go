package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/relayer/internal/core/domain"
	"github.com/vietddude/relayer/internal/sending/metrics"
)

// HTTPConfig holds JSON-RPC client configuration.
type HTTPConfig struct {
	Endpoint       string        `yaml:"endpoint"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	SkipPreflight  bool          `yaml:"skip_preflight"`
	Commitment     domain.Commitment
}

// DefaultHTTPConfig returns sensible defaults for a public RPC endpoint.
func DefaultHTTPConfig(endpoint string) HTTPConfig {
	return HTTPConfig{
		Endpoint:       endpoint,
		RequestTimeout: 10 * time.Second,
		ConfirmTimeout: 60 * time.Second,
		PollInterval:   2 * time.Second,
		Commitment:     domain.DefaultCommitment,
	}
}

// HTTPClient implements Client over JSON-RPC 2.0.
type HTTPClient struct {
	cfg        HTTPConfig
	httpClient *http.Client
}

// NewHTTPClient creates a new JSON-RPC client.
func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ConfirmTimeout == 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if !cfg.Commitment.IsValid() {
		cfg.Commitment = domain.DefaultCommitment
	}
	return &HTTPClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// call makes a single JSON-RPC call and returns the raw result.
func (c *HTTPClient) call(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	metrics.RPCCallsTotal.WithLabelValues(method).Inc()

	reqBody := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
		"id":      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.cfg.Endpoint, bytes.NewReader(jsonData))
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("rpc call: %w", err)
	}
	defer resp.Body.Close()

	// Rate limit detection
	if resp.StatusCode == 429 {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("rate limited (429), retry after: %s", resp.Header.Get("Retry-After"))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}

	if err := json.Unmarshal(body, &rpcResp); err != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("parse response: %w", err)
	}

	if rpcResp.Error != nil {
		metrics.RPCErrorsTotal.WithLabelValues(method).Inc()
		return nil, fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}

	return rpcResp.Result, nil
}

// LatestAnchor fetches the current slot and a fresh blockhash from one
// getLatestBlockhash query.
func (c *HTTPClient) LatestAnchor(ctx context.Context, commitment domain.Commitment) (domain.Anchor, error) {
	result, err := c.call(ctx, "getLatestBlockhash", []any{map[string]any{"commitment": string(commitment)}})
	if err != nil {
		return domain.Anchor{}, fmt.Errorf("%w: getLatestBlockhash: %v", ErrUnavailable, err)
	}

	var parsed struct {
		Context struct {
			Slot uint64 `json:"slot"`
		} `json:"context"`
		Value struct {
			Blockhash            string `json:"blockhash"`
			LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return domain.Anchor{}, fmt.Errorf("%w: parse getLatestBlockhash: %v", ErrUnavailable, err)
	}
	if parsed.Value.Blockhash == "" {
		return domain.Anchor{}, fmt.Errorf("%w: empty blockhash in response", ErrUnavailable)
	}

	return domain.Anchor{
		Slot:                 parsed.Context.Slot,
		Blockhash:            parsed.Value.Blockhash,
		LastValidBlockHeight: parsed.Value.LastValidBlockHeight,
	}, nil
}

// CurrentSlot fetches the cluster's current slot.
func (c *HTTPClient) CurrentSlot(ctx context.Context, commitment domain.Commitment) (uint64, error) {
	result, err := c.call(ctx, "getSlot", []any{map[string]any{"commitment": string(commitment)}})
	if err != nil {
		return 0, fmt.Errorf("%w: getSlot: %v", ErrUnavailable, err)
	}

	var slot uint64
	if err := json.Unmarshal(result, &slot); err != nil {
		return 0, fmt.Errorf("%w: parse getSlot: %v", ErrUnavailable, err)
	}
	return slot, nil
}

// SubmitTransaction broadcasts the transaction and polls its signature
// status until the configured commitment or the confirmation timeout.
func (c *HTTPClient) SubmitTransaction(ctx context.Context, tx *domain.Transaction) (*SubmitResult, error) {
	encoded, err := tx.Encode()
	if err != nil {
		return nil, Fatal("encode transaction", err)
	}

	result, err := c.call(ctx, "sendTransaction", []any{
		encoded,
		map[string]any{
			"encoding":            "base64",
			"skipPreflight":       c.cfg.SkipPreflight,
			"preflightCommitment": string(c.cfg.Commitment),
		},
	})
	if err != nil {
		return nil, &SubmitError{Kind: Classify(err), Reason: "sendTransaction rejected", Err: err}
	}

	var signature string
	if err := json.Unmarshal(result, &signature); err != nil {
		return nil, Fatal("parse sendTransaction response", err)
	}

	return c.awaitConfirmation(ctx, signature)
}

// awaitConfirmation polls getSignatureStatuses until the signature reaches
// the configured commitment. Running out of time is a transient failure:
// the transaction may still land, but the caller cannot treat it as
// accepted.
func (c *HTTPClient) awaitConfirmation(ctx context.Context, signature string) (*SubmitResult, error) {
	deadline := time.Now().Add(c.cfg.ConfirmTimeout)

	for {
		status, err := c.signatureStatus(ctx, signature)
		if err == nil && status != nil {
			if status.Err != nil {
				return nil, Fatal(fmt.Sprintf("transaction failed on chain: %s", *status.Err), nil)
			}
			if domain.Commitment(status.ConfirmationStatus).AtLeast(c.cfg.Commitment) {
				return &SubmitResult{Signature: signature, Slot: status.Slot}, nil
			}
		}

		if time.Now().After(deadline) {
			return nil, Transient("confirmation timeout", err)
		}

		select {
		case <-ctx.Done():
			return nil, Transient("confirmation interrupted", ctx.Err())
		case <-time.After(c.cfg.PollInterval):
		}
	}
}

type signatureStatus struct {
	Slot               uint64
	ConfirmationStatus string
	Err                *string
}

func (c *HTTPClient) signatureStatus(ctx context.Context, signature string) (*signatureStatus, error) {
	result, err := c.call(ctx, "getSignatureStatuses", []any{[]string{signature}})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Value []*struct {
			Slot               uint64          `json:"slot"`
			ConfirmationStatus string          `json:"confirmationStatus"`
			Err                json.RawMessage `json:"err"`
		} `json:"value"`
	}
	if err := json.Unmarshal(result, &parsed); err != nil {
		return nil, fmt.Errorf("parse getSignatureStatuses: %w", err)
	}
	if len(parsed.Value) == 0 || parsed.Value[0] == nil {
		return nil, nil
	}

	s := &signatureStatus{
		Slot:               parsed.Value[0].Slot,
		ConfirmationStatus: parsed.Value[0].ConfirmationStatus,
	}
	if raw := parsed.Value[0].Err; len(raw) > 0 && string(raw) != "null" {
		msg := string(raw)
		s.Err = &msg
	}
	return s, nil
}
