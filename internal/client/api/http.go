package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/elibrary/internal/common"
	"github.com/dmitrijs2005/elibrary/internal/logging"
)

const (
	DefaultBaseURL  = "https://e-library.samduuf.uz"
	DefaultTimeout  = 15 * time.Second
	DefaultLanguage = "uz"

	maxErrorBody = 64 << 10
)

var _ Client = (*HTTPClient)(nil)

type HTTPClient struct {
	baseURL  *url.URL
	hc       *http.Client
	timeout  time.Duration
	language string
	log      logging.Logger
}

type Option func(*HTTPClient)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.hc = hc }
}

// WithTimeout bounds every request. Zero disables the client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.timeout = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *HTTPClient) { c.log = l }
}

// WithDefaultLanguage sets Accept-Language for news requests whose context
// carries none.
func WithDefaultLanguage(lang string) Option {
	return func(c *HTTPClient) { c.language = lang }
}

func New(baseURL string, opts ...Option) (*HTTPClient, error) {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}

	c := &HTTPClient{
		baseURL:  u,
		hc:       &http.Client{},
		timeout:  DefaultTimeout,
		language: DefaultLanguage,
		log:      logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *HTTPClient) BaseURL() string { return c.baseURL.String() }

func (c *HTTPClient) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(c.baseURL.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// do sends the request and decodes a 2xx JSON body into out (when non-nil).
func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := TokenFromContext(ctx); token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.AuthorizationScheme+" "+token)
	}
	if lang := languageFromContext(ctx); lang != "" {
		req.Header.Set("Accept-Language", lang)
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		c.log.Warn(ctx, "remote request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	c.log.Debug(ctx, "remote request", "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	if err := mapStatus(resp); err != nil {
		return err
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, "", out)
}

func (c *HTTPClient) sendJSON(ctx context.Context, method, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	return c.do(ctx, method, path, nil, bytes.NewReader(b), "application/json", out)
}

func mapStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	switch {
	case code == http.StatusBadRequest:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &common.ValidationError{Message: errorMessage(b)}
	case code == http.StatusUnauthorized:
		return common.ErrUnauthorized
	case code == http.StatusForbidden:
		return common.ErrForbidden
	case code == http.StatusNotFound:
		return common.ErrNotFound
	case code >= 500:
		return fmt.Errorf("%w: %s", common.ErrUnavailable, resp.Status)
	default:
		return fmt.Errorf("unexpected status: %s", resp.Status)
	}
}

// errorMessage picks the message out of a rejected request's body, in the
// order non_field_errors[0], error, detail, then the first field error.
func errorMessage(body []byte) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return strings.TrimSpace(string(body))
	}

	for _, key := range []string{"non_field_errors", "error", "detail"} {
		if msg := firstString(fields[key]); msg != "" {
			return msg
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if msg := firstString(fields[k]); msg != "" {
			return k + ": " + msg
		}
	}
	return ""
}

func firstString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 {
		return list[0]
	}
	return ""
}

// listEnvelope accepts both a bare JSON array and a paginated
// {"count":..,"results":[..]} page.
type listEnvelope[T any] struct {
	items []T
}

func (l *listEnvelope[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '[' {
		return json.Unmarshal(b, &l.items)
	}
	var page struct {
		Results []T `json:"results"`
	}
	if err := json.Unmarshal(b, &page); err != nil {
		return err
	}
	l.items = page.Results
	return nil
}

func idPath(prefix string, id int64) string {
	return prefix + strconv.FormatInt(id, 10) + "/"
}
