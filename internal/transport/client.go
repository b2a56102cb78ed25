package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rpggio/crowdfund/internal/identity"
)

// HTTPTransport calls a JSON-RPC endpoint over HTTP.
type HTTPTransport struct {
	endpoint string
	client   *http.Client
	token    string
	logger   *slog.Logger
}

// HTTPOption configures an HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(t *HTTPTransport) { t.client = client }
}

// WithToken sets a bearer token used when the context carries no identity
// token.
func WithToken(token string) HTTPOption {
	return func(t *HTTPTransport) { t.token = token }
}

// WithClientLogger sets the transport logger.
func WithClientLogger(logger *slog.Logger) HTTPOption {
	return func(t *HTTPTransport) { t.logger = logger }
}

// NewHTTPTransport creates a transport for the server at baseURL.
func NewHTTPTransport(baseURL string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		endpoint: strings.TrimRight(baseURL, "/") + "/rpc",
		client:   http.DefaultClient,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Call sends one request and returns the raw result. Remote errors are
// returned as *Error.
func (t *HTTPTransport) Call(ctx context.Context, service, method string, params json.RawMessage) (json.RawMessage, error) {
	if len(params) == 0 {
		params = json.RawMessage("[]")
	}
	id := uuid.NewString()
	body, err := json.Marshal(Request{
		JSONRPC: "2.0",
		Method:  service + "." + method,
		Params:  params,
		ID:      id,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := t.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out rawResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, out.Error
	}
	if got, _ := out.ID.(string); got != id {
		return nil, fmt.Errorf("response id %v does not match request %s", out.ID, id)
	}

	t.logger.Debug("rpc call", "method", service+"."+method, "request_id", id)
	return out.Result, nil
}

func (t *HTTPTransport) bearer(ctx context.Context) string {
	if id, ok := identity.FromContext(ctx); ok && id.Token != "" {
		return id.Token
	}
	return t.token
}

// LocalTransport dispatches calls to an in-process handler, skipping the
// network but not the JSON encoding.
type LocalTransport struct {
	handler Handler
}

// NewLocalTransport creates an in-process transport.
func NewLocalTransport(handler Handler) *LocalTransport {
	return &LocalTransport{handler: handler}
}

// Call invokes the handler and encodes its result.
func (t *LocalTransport) Call(ctx context.Context, service, method string, params json.RawMessage) (json.RawMessage, error) {
	result, err := t.handler.Handle(ctx, service+"."+method, params)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return json.RawMessage("null"), nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return data, nil
}
