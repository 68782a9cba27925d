// Package api is the client of the remote banking REST service. It owns the
// wire types; conversion to domain models lives in pkg/mapping.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const maxErrorBody = 64 << 10

// Error is returned for any non-2xx response.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("remote service returned status %d: %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an *Error with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token to ctx. Every call made with
// the returned context is authenticated as that caller.
func WithToken(ctx context.Context, token string) context.Context {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the token stored by WithToken.
func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client calls the remote service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("api"),
	}
}

// SubmitTransfer issues the channel-specific transfer operation for body.
func (c *Client) SubmitTransfer(ctx context.Context, body TransferBody) (*TransferResponse, error) {
	if body == nil {
		return nil, errors.New("transfer body is nil")
	}
	var resp TransferResponse
	if err := c.do(ctx, http.MethodPost, body.path(), body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// VerifyPIN asks the remote service to check a transaction PIN.
func (c *Client) VerifyPIN(ctx context.Context, code string) (bool, error) {
	var resp PINVerifyResponse
	if err := c.do(ctx, http.MethodPost, "transfer-pin/verify", PINVerifyRequest{Code: code}, &resp); err != nil {
		return false, err
	}
	return resp.OK, nil
}

// ListAdminTransfers returns transfers in the given statuses.
func (c *Client) ListAdminTransfers(ctx context.Context, statuses ...string) ([]AdminTransfer, error) {
	path := "admin/transfers"
	if len(statuses) > 0 {
		path += "?" + url.Values{"status": {strings.Join(statuses, ",")}}.Encode()
	}
	var resp []AdminTransfer
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ApproveTransfer finalizes a transfer.
func (c *Client) ApproveTransfer(ctx context.Context, id string, notes string) (*MessageResponse, error) {
	var resp MessageResponse
	path := fmt.Sprintf("admin/transfers/%s/approve", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, ApproveRequest{Notes: notes}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RejectTransfer rejects a transfer. The remote service refunds the sender.
func (c *Client) RejectTransfer(ctx context.Context, id string, reason string) (*MessageResponse, error) {
	var resp MessageResponse
	path := fmt.Sprintf("admin/transfers/%s/reject", url.PathEscape(id))
	if err := c.do(ctx, http.MethodPost, path, RejectRequest{Reason: reason}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetExchangeRate returns the current USD per BTC rate.
func (c *Client) GetExchangeRate(ctx context.Context) (*ExchangeRateResponse, error) {
	var resp ExchangeRateResponse
	if err := c.do(ctx, http.MethodGet, "bitcoin/exchange-rate", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitSwap converts between the fiat and bitcoin balances.
func (c *Client) SubmitSwap(ctx context.Context, body SwapBody) (*SwapResponse, error) {
	var resp SwapResponse
	if err := c.do(ctx, http.MethodPost, "bitcoin/swap", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetBalance returns the caller's account balance.
func (c *Client) GetBalance(ctx context.Context) (*BalanceResponse, error) {
	var resp BalanceResponse
	if err := c.do(ctx, http.MethodGet, "account/balance", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListTransactions returns the caller's recent transactions.
func (c *Client) ListTransactions(ctx context.Context) ([]TransactionResponse, error) {
	var resp []TransactionResponse
	if err := c.do(ctx, http.MethodGet, "transactions", nil, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	if c.baseURL == "" {
		return errors.New("remote service base url is empty")
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request to remote service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		c.logger.Warn("remote call failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Detail  string `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		for _, m := range []string{payload.Message, payload.Error, payload.Detail} {
			if m != "" {
				return m
			}
		}
	}
	return strings.TrimSpace(string(raw))
}
