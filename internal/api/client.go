package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/amdadul/brandstore-crm/internal/model"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultStockPerPage   = 20
	defaultInvoicePerPage = 10
	maxBodyBytes          = 32 << 20
)

// SessionReader supplies the bearer token for authenticated calls.
type SessionReader interface {
	Read(ctx context.Context) (*model.Session, error)
}

// Client talks to the brand-store API. Every operation returns a Result and
// never panics on network or decoding failures.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	sessions       SessionReader
	now            func() time.Time
	stockPerPage   int
	invoicePerPage int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout on a copy of the current HTTP
// client, so a client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.httpClient
		hc.Timeout = d
		c.httpClient = &hc
	}
}

// WithPerPage overrides the page sizes of the stock and invoice lists.
func WithPerPage(stock, invoice int) Option {
	return func(c *Client) {
		if stock > 0 {
			c.stockPerPage = stock
		}
		if invoice > 0 {
			c.invoicePerPage = invoice
		}
	}
}

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a client for baseURL (e.g. https://host/api).
func New(baseURL string, sessions SessionReader, opts ...Option) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     &http.Client{Timeout: defaultTimeout},
		sessions:       sessions,
		now:            time.Now,
		stockPerPage:   defaultStockPerPage,
		invoicePerPage: defaultInvoicePerPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call performs ep with an optional JSON body and decodes "data" into T.
func Call[T any](ctx context.Context, c *Client, ep Endpoint, body interface{}) Result[T] {
	return call[T](ctx, c, ep, nil, body)
}

func call[T any](ctx context.Context, c *Client, ep Endpoint, query url.Values, body interface{}) Result[T] {
	status, raw, res := c.do(ctx, ep, query, body)
	if res != nil {
		return Failed[T](*res)
	}
	env, res2 := decodeEnvelope[T](ep, status, raw)
	if res2 != nil {
		return *res2
	}
	var data T
	if trimmed := bytes.TrimSpace(env.Data); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		if err := json.Unmarshal(trimmed, &data); err != nil {
			return fail[T](KindDecode, status, "%s: decode data: %v", ep.Name, err)
		}
	}
	return ok(data, status)
}

// callPage fetches one page of a list endpoint.
func callPage[T any](ctx context.Context, c *Client, ep Endpoint, page, perPage int) Result[model.Page[T]] {
	if page < 1 {
		page = 1
	}
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("per_page", strconv.Itoa(perPage))

	status, raw, res := c.do(ctx, ep, query, nil)
	if res != nil {
		return Failed[model.Page[T]](*res)
	}
	env, res2 := decodeEnvelope[model.Page[T]](ep, status, raw)
	if res2 != nil {
		return *res2
	}

	var items []T
	if data := bytes.TrimSpace(env.Data); len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, &items); err != nil {
			return fail[model.Page[T]](KindDecode, status, "%s: decode items: %v", ep.Name, err)
		}
	}
	p := model.Page[T]{Items: items, CurrentPage: page, LastPage: page}
	if len(env.Meta) > 0 && !bytes.Equal(env.Meta, []byte("null")) {
		var meta model.PageMeta
		if err := json.Unmarshal(env.Meta, &meta); err != nil {
			return fail[model.Page[T]](KindDecode, status, "%s: decode meta: %v", ep.Name, err)
		}
		p.CurrentPage = meta.CurrentPage
		p.LastPage = meta.LastPage
	}
	if p.Items == nil {
		p.Items = []T{}
	}
	p.Normalize()
	return ok(p, status)
}

// callBinary downloads a file body. A JSON body on a binary endpoint is
// treated as an envelope so server-side rejections surface as errors.
func callBinary(ctx context.Context, c *Client, ep Endpoint, body interface{}) Result[[]byte] {
	status, raw, res := c.do(ctx, ep, nil, body)
	if res != nil {
		return Failed[[]byte](*res)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var env envelope
		if json.Unmarshal(trimmed, &env) == nil && env.Success != nil && !*env.Success {
			return fail[[]byte](KindRejected, status, "%s", messageOr(env.message(), "request rejected"))
		}
	}
	if len(raw) == 0 {
		return fail[[]byte](KindDecode, status, "%s: empty response body", ep.Name)
	}
	return ok(raw, status)
}

func decodeEnvelope[T any](ep Endpoint, status int, raw []byte) (*envelope, *Result[T]) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if ep.Success == PredStatus {
			return &envelope{}, nil
		}
		r := fail[T](KindDecode, status, "%s: decode response: %v", ep.Name, err)
		return nil, &r
	}
	if !ep.Success.accepts(&env) {
		r := fail[T](KindRejected, status, "%s", messageOr(env.message(), "request rejected"))
		return nil, &r
	}
	return &env, nil
}

// do sends the request and returns the status and body of a 2xx response,
// or a failed result.
func (c *Client) do(ctx context.Context, ep Endpoint, query url.Values, body interface{}) (int, []byte, *Result[struct{}]) {
	requestID := uuid.NewString()

	target := c.baseURL + ep.Path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			r := fail[struct{}](KindDecode, 0, "%s: encode request: %v", ep.Name, err)
			return 0, nil, &r
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, ep.Method, target, reader)
	if err != nil {
		r := fail[struct{}](KindTransport, 0, "%s: build request: %v", ep.Name, err)
		return 0, nil, &r
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	if !ep.Public {
		if token := c.bearer(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Printf("api %s [%s]: %v", ep.Name, requestID, err)
		r := fail[struct{}](KindTransport, 0, "%s", transportMessage(err))
		return 0, nil, &r
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		log.Printf("api %s [%s]: read body: %v", ep.Name, requestID, err)
		r := fail[struct{}](KindTransport, resp.StatusCode, "%s", transportMessage(err))
		return resp.StatusCode, nil, &r
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := fmt.Sprintf("request failed with status %d", resp.StatusCode)
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			msg = messageOr(env.message(), msg)
		}
		log.Printf("api %s [%s]: status %d", ep.Name, requestID, resp.StatusCode)
		r := fail[struct{}](KindStatus, resp.StatusCode, "%s", msg)
		return resp.StatusCode, nil, &r
	}

	return resp.StatusCode, raw, nil
}

// bearer returns the stored token when the session is still valid.
func (c *Client) bearer(ctx context.Context) string {
	if c.sessions == nil {
		return ""
	}
	sess, err := c.sessions.Read(ctx)
	if err != nil {
		log.Printf("api: read session: %v", err)
		return ""
	}
	if !sess.Valid(c.now()) {
		return ""
	}
	return sess.Token
}

func transportMessage(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "request cancelled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	}
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Timeout() {
		return "request timed out"
	}
	return "network error: " + err.Error()
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
