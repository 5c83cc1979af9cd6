package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cleanhub/cleanhub-go/internal/pkg/logger"
)

const defaultTimeout = 30 * time.Second

// TokenSource yields the current bearer token, or "" when anonymous.
// The gateway reads it on every call, never caching the value.
type TokenSource interface {
	Token() string
}

// TokenSourceFunc adapts a function to a TokenSource.
type TokenSourceFunc func() string

// Token returns the current token.
func (f TokenSourceFunc) Token() string { return f() }

// Gateway is the single chokepoint for all backend HTTP calls.
type Gateway struct {
	baseURL string
	tokens  TokenSource
	ua      string
	http    *http.Client

	// onUnauthorized is invoked whenever the backend answers 401.
	// Set during wiring, before any call is issued.
	onUnauthorized func()
}

// New creates a gateway for the given base URL. A nil tokens source
// means every request goes out anonymous.
func New(baseURL string, tokens TokenSource, timeout time.Duration, ua string) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		ua:      ua,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

// SetOnUnauthorized registers the hook invoked on any 401 response.
func (g *Gateway) SetOnUnauthorized(fn func()) {
	g.onUnauthorized = fn
}

// BaseURL returns the configured base URL without trailing slash.
func (g *Gateway) BaseURL() string { return g.baseURL }

// Send issues a request with an optional JSON body and returns the
// parsed payload on any 2xx status.
func (g *Gateway) Send(ctx context.Context, method, path string, body interface{}) (*Payload, error) {
	return g.send(ctx, method, path, body, false)
}

// SendAnon issues a request without the bearer token and without the
// unauthorized hook. Credential-presenting endpoints use it: a 401
// there means rejected credentials, not an expired session.
func (g *Gateway) SendAnon(ctx context.Context, method, path string, body interface{}) (*Payload, error) {
	return g.send(ctx, method, path, body, true)
}

func (g *Gateway) send(ctx context.Context, method, path string, body interface{}, anonymous bool) (*Payload, error) {
	var reader io.Reader
	contentType := ""
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindTransport, Message: "encode request body", Err: err}
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return g.do(ctx, method, path, reader, contentType, anonymous)
}

// SendForm issues a multipart request. PUT goes out as POST with the
// method-override field so backends that cannot parse multipart PUT
// bodies still apply update semantics.
func (g *Gateway) SendForm(ctx context.Context, method, path string, form *Form) (*Payload, error) {
	if method == http.MethodPut {
		form.Set(methodOverrideField, http.MethodPut)
		method = http.MethodPost
	}

	body, contentType, err := form.encode()
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "encode multipart body", Err: err}
	}
	return g.do(ctx, method, path, body, contentType, false)
}

func (g *Gateway) do(ctx context.Context, method, path string, body io.Reader, contentType string, anonymous bool) (*Payload, error) {
	url := g.baseURL + path
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "build request", Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if !anonymous && g.tokens != nil {
		if token := g.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	if g.ua != "" {
		req.Header.Set("User-Agent", g.ua)
	}
	req.Header.Set("X-Request-ID", requestID)

	logger.FromContext(ctx).Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Msg("Backend request")

	resp, err := g.http.Do(req)
	if err != nil {
		classified := classifyRequestError(ctx, err)
		logger.FromContext(ctx).Error().
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Err(err).
			Msg("Backend request failed")
		return nil, classified
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Message: "read response body", Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Payload{raw: raw, status: resp.StatusCode}, nil
	}

	if resp.StatusCode == http.StatusUnauthorized && !anonymous && g.onUnauthorized != nil {
		g.onUnauthorized()
	}

	httpErr := decodeHTTPError(resp.StatusCode, raw)
	logger.FromContext(ctx).Error().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status_code", resp.StatusCode).
		Str("error_code", httpErr.Code).
		Str("error_message", httpErr.Message).
		Msg("Backend error response")
	return nil, httpErr
}
