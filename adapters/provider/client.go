package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/layer-3/custos/core"
	"github.com/layer-3/custos/ports"
)

const (
	// DefaultReadTimeout bounds read and status calls.
	DefaultReadTimeout = 5 * time.Second

	// DefaultCreateTimeout bounds creation calls, which may trigger
	// provider-side challenge issuance and take longer.
	DefaultCreateTimeout = 15 * time.Second
)

// Client is a stateless wrapper around the custodial provider's REST
// API. It owns the retry/timeout policy and normalizes the provider's
// inconsistent response envelopes; it never reads or writes the
// credential store.
type Client struct {
	baseURL       string
	apiKey        string
	httpClient    *http.Client
	readTimeout   time.Duration
	createTimeout time.Duration
	readRetry     retryPolicy
	createRetry   retryPolicy
}

// NewClient creates a provider client with default timeouts.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL:       baseURL,
		apiKey:        apiKey,
		httpClient:    &http.Client{},
		readTimeout:   DefaultReadTimeout,
		createTimeout: DefaultCreateTimeout,
		readRetry:     readRetryPolicy,
		createRetry:   createRetryPolicy,
	}
}

// CreateOrInitializeUser registers the identity with the provider. A
// 409 from the provider means the identity already exists, which is an
// expected steady-state case reported via Exists.
func (c *Client) CreateOrInitializeUser(ctx context.Context, identity core.Identity) (ports.UserResult, error) {
	var resp struct {
		Data *struct {
			ProviderUserID string `json:"providerUserId"`
		} `json:"data,omitempty"`
		ProviderUserID string `json:"providerUserId"`
	}

	err := c.createRetry.do(ctx, func() error {
		return c.call(ctx, http.MethodPost, "/v1/users", c.createTimeout, "", map[string]any{
			"identity": string(identity),
		}, &resp)
	})
	if err != nil {
		if core.IsConflict(err) {
			return ports.UserResult{Exists: true}, nil
		}
		return ports.UserResult{}, err
	}

	userID := resp.ProviderUserID
	if resp.Data != nil && userID == "" {
		userID = resp.Data.ProviderUserID
	}
	return ports.UserResult{ProviderUserID: userID}, nil
}

// GetUserToken acquires a fresh session token for the identity.
func (c *Client) GetUserToken(ctx context.Context, identity core.Identity) (core.AccessToken, error) {
	var resp struct {
		UserToken     string `json:"userToken"`
		EncryptionKey string `json:"encryptionKey"`
	}

	err := c.createRetry.do(ctx, func() error {
		return c.call(ctx, http.MethodPost, "/v1/users/token", c.readTimeout, "", map[string]any{
			"identity": string(identity),
		}, &resp)
	})
	if err != nil {
		return core.AccessToken{}, err
	}

	return core.AccessToken{
		Token:         resp.UserToken,
		EncryptionKey: resp.EncryptionKey,
		IssuedAt:      time.Now(),
	}, nil
}

// InitializeUser runs the initialize step for an existing identity and
// returns the pending challenge id, if any.
func (c *Client) InitializeUser(ctx context.Context, identity core.Identity, token core.AccessToken) (string, error) {
	var resp walletEnvelope

	err := c.createRetry.do(ctx, func() error {
		return c.call(ctx, http.MethodPost, "/v1/users/initialize", c.createTimeout, token.Token, map[string]any{
			"identity": string(identity),
		}, &resp)
	})
	if err != nil {
		return "", err
	}

	result, err := resp.normalize()
	if err != nil {
		return "", err
	}
	return result.ChallengeID, nil
}

// CreateWallet requests wallet creation under the given idempotency
// key and normalizes whichever envelope the provider answers with.
func (c *Client) CreateWallet(ctx context.Context, identity core.Identity, token core.AccessToken, idempotencyKey string) (ports.WalletRequestResult, error) {
	var resp walletEnvelope

	err := c.createRetry.do(ctx, func() error {
		return c.call(ctx, http.MethodPost, "/v1/wallets", c.createTimeout, token.Token, map[string]any{
			"identity":       string(identity),
			"idempotencyKey": idempotencyKey,
		}, &resp)
	})
	if err != nil {
		return ports.WalletRequestResult{}, err
	}

	return resp.normalize()
}

// ListUserWallets returns the identity's wallets.
func (c *Client) ListUserWallets(ctx context.Context, identity core.Identity) ([]core.Wallet, error) {
	var resp walletEnvelope

	path := "/v1/users/" + url.PathEscape(string(identity)) + "/wallets"
	err := c.readRetry.do(ctx, func() error {
		return c.call(ctx, http.MethodGet, path, c.readTimeout, "", nil, &resp)
	})
	if err != nil {
		return nil, err
	}

	return resp.normalizeList()
}

// GetChallengeStatus reports the provider-side view of a challenge.
func (c *Client) GetChallengeStatus(ctx context.Context, challengeID string) (core.Challenge, error) {
	var resp struct {
		Status string `json:"status"`
	}

	path := "/v1/challenges/" + url.PathEscape(challengeID)
	err := c.readRetry.do(ctx, func() error {
		return c.call(ctx, http.MethodGet, path, c.readTimeout, "", nil, &resp)
	})
	if err != nil {
		return core.Challenge{}, err
	}
	return core.Challenge{ID: challengeID, Status: resp.Status}, nil
}

// call performs one HTTP exchange. Transport failures and non-2xx
// responses are reclassified into *core.ProviderError here; nothing
// above this method ever sees a raw transport error.
func (c *Client) call(ctx context.Context, method, path string, timeout time.Duration, userToken string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return &core.ProviderError{Kind: core.ErrorProvider, Message: "encode request: " + err.Error(), Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &core.ProviderError{Kind: core.ErrorProvider, Message: "build request: " + err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userToken != "" {
		req.Header.Set("X-User-Token", userToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &core.ProviderError{
			Kind:       core.ErrorProvider,
			StatusCode: resp.StatusCode,
			Message:    "decode response: " + err.Error(),
			Err:        err,
		}
	}
	return nil
}

// classifyTransport separates timeouts, where the provider-side effect
// may have completed, from plain connection failures.
func classifyTransport(err error) *core.ProviderError {
	kind := core.ErrorTransport
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		kind = core.ErrorTimeout
	}
	return &core.ProviderError{Kind: kind, Message: err.Error(), Err: err}
}

// decodeError turns a non-2xx response into a typed error carrying the
// provider's status and machine-readable code when present.
func decodeError(resp *http.Response) *core.ProviderError {
	var body struct {
		Code    json.Number `json:"code"`
		Message string      `json:"message"`
		Error   string      `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)

	message := body.Message
	if message == "" {
		message = body.Error
	}
	if message == "" {
		message = fmt.Sprintf("request failed with status %d", resp.StatusCode)
	}

	kind := core.ErrorProvider
	if resp.StatusCode == http.StatusConflict {
		kind = core.ErrorConflict
	}

	return &core.ProviderError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Code:       body.Code.String(),
		Message:    message,
	}
}
